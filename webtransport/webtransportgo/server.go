package webtransportgo

import (
	"context"
	"errors"
	"net/http"

	"github.com/majiix/wtingest/quic"
	"github.com/majiix/wtingest/quic/quicgo"
	"github.com/majiix/wtingest/webtransport"
	"github.com/quic-go/quic-go/http3"
	quicgo_webtransportgo "github.com/quic-go/webtransport-go"
)

// NewServer returns a WebTransport server that dispatches HTTP/3 requests to
// handler. checkOrigin may be nil, in which case webtransport-go's same-origin
// check is used.
func NewServer(handler http.Handler, checkOrigin func(r *http.Request) bool) webtransport.Server {
	wtserver := &quicgo_webtransportgo.Server{
		H3: http3.Server{
			Handler:         handler,
			EnableDatagrams: true,
		},
		CheckOrigin: checkOrigin,
	}

	return WrapServer(wtserver)
}

// WrapServer adapts a webtransport-go server to webtransport.Server.
func WrapServer(server *quicgo_webtransportgo.Server) webtransport.Server {
	return &serverWrapper{
		server: server,
	}
}

var _ webtransport.Server = (*serverWrapper)(nil)

type serverWrapper struct {
	server *quicgo_webtransportgo.Server
}

func (wrapper *serverWrapper) Upgrade(w http.ResponseWriter, r *http.Request) (quic.Connection, error) {
	wtsess, err := wrapper.server.Upgrade(w, r)
	if err != nil {
		return nil, err
	}

	return wrapSession(wtsess), nil
}

func (wrapper *serverWrapper) ServeQUICConn(conn quic.Connection) error {
	qconn := quicgo.UnwrapConnection(conn)
	if qconn == nil {
		return errors.New("webtransportgo: connection was not accepted by the quicgo package")
	}
	return wrapper.server.ServeQUICConn(qconn)
}

func (wrapper *serverWrapper) Close() error {
	return wrapper.server.Close()
}

func (wrapper *serverWrapper) Shutdown(ctx context.Context) error {
	closeCh := make(chan error, 1)

	go func() {
		closeCh <- wrapper.server.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-closeCh:
		return err
	}
}
