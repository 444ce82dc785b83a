package quic

import (
	"context"
	"net"

	"github.com/quic-go/quic-go"
)

// Connection is one ingest transport: a raw QUIC connection or a WebTransport
// session. Chunks travel on unidirectional streams and pings on datagrams;
// bidirectional streams are not part of the protocol.
type Connection interface {
	// AcceptUniStream blocks until the peer opens a stream or the
	// connection ends.
	AcceptUniStream(ctx context.Context) (ReceiveStream, error)

	// OpenUniStreamSync opens a stream to the peer, waiting for flow control
	// credit if needed.
	OpenUniStreamSync(ctx context.Context) (SendStream, error)

	ReceiveDatagram(ctx context.Context) ([]byte, error)
	SendDatagram(b []byte) error

	// CloseWithError ends the connection. Code 0 is an orderly close.
	CloseWithError(code ApplicationErrorCode, msg string) error

	ConnectionState() ConnectionState

	// Context is cancelled once the connection has ended. Its cause is the
	// close error.
	Context() context.Context

	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// EarlyConnection is a connection handed out by a listener before its TLS
// handshake has finished.
type EarlyConnection interface {
	Connection

	HandshakeComplete() <-chan struct{}
}

type ConnectionState = quic.ConnectionState
