package ingest

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/majiix/wtingest/quic"
)

var (
	// ErrServerClosed is returned by the Server's serve methods after Close or Shutdown.
	ErrServerClosed = errors.New("ingest: server closed")

	// ErrInvalidAssetPath is returned when a session path has no asset segment.
	ErrInvalidAssetPath = errors.New("ingest: session path does not name an asset")

	ErrEmptyHeader    = errors.New("ingest: empty chunk header")
	ErrHeaderTooLarge = errors.New("ingest: chunk header too large")

	// ErrTruncatedHeader is returned when a stream ends inside a chunk header.
	ErrTruncatedHeader = errors.New("ingest: truncated chunk header")
	ErrChunkTooLarge  = errors.New("ingest: chunk payload too large")

	// ErrSessionLimit is returned when a connection has used its session budget.
	ErrSessionLimit = errors.New("ingest: session limit reached for connection")
)

// Stream error codes sent with CancelRead when an ingest stream is rejected.
const (
	StreamErrorCodeInternal      quic.StreamErrorCode = 0x0
	StreamErrorCodeInvalidHeader quic.StreamErrorCode = 0x1
	StreamErrorCodeTooLarge      quic.StreamErrorCode = 0x2
	StreamErrorCodeTimeout       quic.StreamErrorCode = 0x3
)

// Session error codes sent with CloseWithError.
const (
	SessionErrorCodeNoError   quic.ApplicationErrorCode = 0x0
	SessionErrorCodeInternal  quic.ApplicationErrorCode = 0x1
	SessionErrorCodeGoingAway quic.ApplicationErrorCode = 0x2
)

func streamErrorCode(err error) quic.StreamErrorCode {
	switch {
	case errors.Is(err, ErrEmptyHeader), errors.Is(err, ErrHeaderTooLarge), errors.Is(err, ErrTruncatedHeader):
		return StreamErrorCodeInvalidHeader
	case errors.Is(err, ErrChunkTooLarge):
		return StreamErrorCodeTooLarge
	case errors.Is(err, os.ErrDeadlineExceeded):
		return StreamErrorCodeTimeout
	default:
		return StreamErrorCodeInternal
	}
}

// isClosedError reports whether err signals an orderly end of a connection
// or session rather than a failure.
func isClosedError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) || errors.Is(err, ErrServerClosed) {
		return true
	}

	var appErr *quic.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.ErrorCode == quic.ApplicationErrorCode(SessionErrorCodeNoError)
	}

	var idleErr *quic.IdleTimeoutError
	return errors.As(err, &idleErr)
}
