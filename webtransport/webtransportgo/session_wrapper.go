package webtransportgo

import (
	"context"
	"errors"
	"net"

	"github.com/majiix/wtingest/quic"
	quicgo_webtransportgo "github.com/quic-go/webtransport-go"
)

var _ quic.Connection = (*sessionWrapper)(nil)

type sessionWrapper struct {
	sess *quicgo_webtransportgo.Session
}

func wrapSession(wtsess *quicgo_webtransportgo.Session) quic.Connection {
	if wtsess == nil {
		return nil
	}
	return &sessionWrapper{
		sess: wtsess,
	}
}

func (conn *sessionWrapper) AcceptUniStream(ctx context.Context) (quic.ReceiveStream, error) {
	stream, err := conn.sess.AcceptUniStream(ctx)
	if err != nil {
		return nil, sessionError(err)
	}
	return receiveStream{stream}, nil
}

func (conn *sessionWrapper) CloseWithError(code quic.ApplicationErrorCode, msg string) error {
	return conn.sess.CloseWithError(quicgo_webtransportgo.SessionErrorCode(code), msg)
}

func (conn *sessionWrapper) ConnectionState() quic.ConnectionState {
	return conn.sess.ConnectionState()
}

func (conn *sessionWrapper) Context() context.Context {
	return conn.sess.Context()
}

func (conn *sessionWrapper) LocalAddr() net.Addr {
	return conn.sess.LocalAddr()
}

func (conn *sessionWrapper) OpenUniStreamSync(ctx context.Context) (quic.SendStream, error) {
	stream, err := conn.sess.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, sessionError(err)
	}
	return sendStream{stream}, nil
}

func (conn *sessionWrapper) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	b, err := conn.sess.ReceiveDatagram(ctx)
	if err != nil {
		return nil, sessionError(err)
	}
	return b, nil
}

func (conn *sessionWrapper) RemoteAddr() net.Addr {
	return conn.sess.RemoteAddr()
}

func (conn *sessionWrapper) SendDatagram(b []byte) error {
	return sessionError(conn.sess.SendDatagram(b))
}

// sessionError reports a closed WebTransport session as a
// *quic.ApplicationError carrying the session error code, so callers handle a
// closed session the same way as a closed QUIC connection.
func sessionError(err error) error {
	var sessErr *quicgo_webtransportgo.SessionError
	if !errors.As(err, &sessErr) {
		return err
	}
	return &quic.ApplicationError{
		Remote:       sessErr.Remote,
		ErrorCode:    quic.ApplicationErrorCode(sessErr.ErrorCode),
		ErrorMessage: sessErr.Message,
	}
}
