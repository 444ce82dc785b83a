package quic

import (
	"context"
	"crypto/tls"
	"net"
)

// ListenAddrFunc is a function type for creating a QUIC listener.
type ListenAddrFunc func(addr string, tlsConfig *tls.Config, quicConfig *Config) (EarlyListener, error)

// EarlyListener accepts incoming QUIC connections as soon as the peer's
// first flight arrives, before the handshake has completed.
type EarlyListener interface {
	// Accept waits for and returns the next incoming connection.
	Accept(ctx context.Context) (EarlyConnection, error)

	// Addr returns the listener's network address.
	Addr() net.Addr

	// Close closes the listener and stops accepting new connections.
	Close() error
}
