package webtransport

import (
	"context"
	"net/http"

	"github.com/majiix/wtingest/quic"
)

// Server upgrades HTTP/3 extended CONNECT requests into WebTransport sessions.
type Server interface {
	// Upgrade accepts the WebTransport session carried by r.
	Upgrade(w http.ResponseWriter, r *http.Request) (quic.Connection, error)

	// ServeQUICConn serves HTTP/3 on an already accepted QUIC connection.
	// It blocks until the connection is closed.
	ServeQUICConn(conn quic.Connection) error

	Close() error
	Shutdown(context.Context) error
}
