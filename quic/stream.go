package quic

import (
	"io"
	"time"

	"github.com/quic-go/quic-go"
)

// StreamID identifies a stream within its connection or session.
type StreamID = quic.StreamID

// ReceiveStream is the read side of a unidirectional stream. Every ingested
// chunk arrives on its own ReceiveStream; reading stops at the peer's FIN.
type ReceiveStream interface {
	io.Reader

	StreamID() StreamID

	// CancelRead aborts the stream and tells the peer why with code.
	CancelRead(code StreamErrorCode)

	// SetReadDeadline bounds how long a Read may block. Reads past the
	// deadline fail with an error matching os.ErrDeadlineExceeded.
	SetReadDeadline(t time.Time) error
}

// SendStream is the write side of a unidirectional stream, used by
// publishers to send one chunk. Close finishes the chunk.
type SendStream interface {
	io.WriteCloser

	StreamID() StreamID

	// CancelWrite abandons the chunk; the receiver sees a stream reset.
	CancelWrite(code StreamErrorCode)
}
