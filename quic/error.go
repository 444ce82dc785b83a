package quic

import (
	"github.com/quic-go/quic-go"
)

// ApplicationError is the error returned once the peer or the server closes a
// connection or WebTransport session with an application error code.
type ApplicationError = quic.ApplicationError

// IdleTimeoutError is returned once a connection went idle for too long.
type IdleTimeoutError = quic.IdleTimeoutError

// DatagramTooLargeError is returned from Connection.SendDatagram when the
// payload does not fit in a single datagram.
type DatagramTooLargeError = quic.DatagramTooLargeError

type (
	TransportErrorCode   = quic.TransportErrorCode
	ApplicationErrorCode = quic.ApplicationErrorCode
	StreamErrorCode      = quic.StreamErrorCode
)

// ConnectionRefused is used to close connections negotiating an
// unsupported application protocol.
const ConnectionRefused TransportErrorCode = quic.ConnectionRefused
