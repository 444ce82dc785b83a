package quicgo

import (
	"context"
	"net"

	"github.com/majiix/wtingest/quic"
	quicgo_quicgo "github.com/quic-go/quic-go"
)

// quic-go streams already have the shape of the ingest stream interfaces.
var (
	_ quic.ReceiveStream = (quicgo_quicgo.ReceiveStream)(nil)
	_ quic.SendStream    = (quicgo_quicgo.SendStream)(nil)
)

func wrapConnection(conn quicgo_quicgo.EarlyConnection) quic.EarlyConnection {
	if conn == nil {
		return nil
	}
	return &connWrapper{conn: conn}
}

// UnwrapConnection returns the quic-go connection behind conn, or nil when conn
// was not produced by this package. HTTP/3 serving needs the raw connection.
func UnwrapConnection(conn quic.Connection) quicgo_quicgo.Connection {
	if wrapper, ok := conn.(*connWrapper); ok {
		return wrapper.conn
	}
	return nil
}

var _ quic.EarlyConnection = (*connWrapper)(nil)

type connWrapper struct {
	conn quicgo_quicgo.EarlyConnection
}

func (wrapper *connWrapper) AcceptUniStream(ctx context.Context) (quic.ReceiveStream, error) {
	stream, err := wrapper.conn.AcceptUniStream(ctx)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (wrapper *connWrapper) OpenUniStreamSync(ctx context.Context) (quic.SendStream, error) {
	stream, err := wrapper.conn.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (wrapper *connWrapper) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	return wrapper.conn.ReceiveDatagram(ctx)
}

func (wrapper *connWrapper) SendDatagram(b []byte) error {
	return wrapper.conn.SendDatagram(b)
}

func (wrapper *connWrapper) CloseWithError(code quic.ApplicationErrorCode, msg string) error {
	return wrapper.conn.CloseWithError(code, msg)
}

func (wrapper *connWrapper) ConnectionState() quic.ConnectionState {
	return wrapper.conn.ConnectionState()
}

func (wrapper *connWrapper) Context() context.Context {
	return wrapper.conn.Context()
}

func (wrapper *connWrapper) HandshakeComplete() <-chan struct{} {
	return wrapper.conn.HandshakeComplete()
}

func (wrapper *connWrapper) LocalAddr() net.Addr {
	return wrapper.conn.LocalAddr()
}

func (wrapper *connWrapper) RemoteAddr() net.Addr {
	return wrapper.conn.RemoteAddr()
}
