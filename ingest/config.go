package ingest

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config contains configuration options for ingest sessions.
// A nil *Config is valid and yields the defaults.
type Config struct {
	// MaxSessionsPerConn caps the WebTransport sessions one QUIC connection may carry.
	// Once the budget is used and the last session ends, the connection is closed.
	// If zero, 1 is used.
	MaxSessionsPerConn int

	// StreamReadTimeout bounds the time spent reading one ingest stream.
	// If zero, 30 seconds is used. A negative value disables the deadline.
	StreamReadTimeout time.Duration

	// MaxHeaderLength is the largest accepted chunk header in bytes.
	// If zero, 4 KiB is used.
	MaxHeaderLength uint64

	// MaxChunkSize is the largest accepted chunk payload in bytes.
	// If zero, 16 MiB is used.
	MaxChunkSize int64

	// DefaultMaxAge is the buffer lifetime used when a chunk header carries no
	// max-age directive. It has a granularity of one second and is rounded up.
	// If zero, 60 seconds is used.
	DefaultMaxAge time.Duration

	// SweepInterval is the period of the eviction sweep.
	// If zero, 5 seconds is used. A negative value disables sweeping.
	SweepInterval time.Duration

	// EchoPrefix is prepended to echoed datagrams. If empty, datagrams are echoed verbatim.
	EchoPrefix []byte

	// DatagramRate limits echoed datagrams per second per session.
	// If zero, echoes are not limited.
	DatagramRate float64

	// DatagramBurst is the limiter burst. If zero, 1 is used when DatagramRate is set.
	DatagramBurst int

	// CheckOrigin validates the HTTP Origin header for WebTransport connections.
	// If nil, the WebTransport implementation's default check is used.
	CheckOrigin func(*http.Request) bool
}

func (c *Config) maxSessionsPerConn() int {
	if c != nil && c.MaxSessionsPerConn > 0 {
		return c.MaxSessionsPerConn
	}
	return 1
}

func (c *Config) streamReadTimeout() time.Duration {
	if c != nil && c.StreamReadTimeout != 0 {
		if c.StreamReadTimeout < 0 {
			return 0
		}
		return c.StreamReadTimeout
	}
	return 30 * time.Second
}

func (c *Config) maxHeaderLength() uint64 {
	if c != nil && c.MaxHeaderLength > 0 {
		return c.MaxHeaderLength
	}
	return 4 << 10
}

func (c *Config) maxChunkSize() int64 {
	if c != nil && c.MaxChunkSize > 0 {
		return c.MaxChunkSize
	}
	return 16 << 20
}

// defaultMaxAge returns the fallback lifetime in whole seconds, rounded up.
func (c *Config) defaultMaxAge() uint64 {
	if c != nil && c.DefaultMaxAge > 0 {
		return uint64((c.DefaultMaxAge + time.Second - 1) / time.Second)
	}
	return 60
}

func (c *Config) sweepInterval() time.Duration {
	if c != nil && c.SweepInterval != 0 {
		if c.SweepInterval < 0 {
			return 0
		}
		return c.SweepInterval
	}
	return 5 * time.Second
}

func (c *Config) echoPrefix() []byte {
	if c != nil {
		return c.EchoPrefix
	}
	return nil
}

// datagramLimiter returns a new limiter for one session, or nil when echoes are unlimited.
func (c *Config) datagramLimiter() *rate.Limiter {
	if c == nil || c.DatagramRate <= 0 {
		return nil
	}
	burst := c.DatagramBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.DatagramRate), burst)
}

func (c *Config) checkOrigin() func(*http.Request) bool {
	if c != nil {
		return c.CheckOrigin
	}
	return nil
}

// Clone creates a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.EchoPrefix != nil {
		clone.EchoPrefix = append([]byte(nil), c.EchoPrefix...)
	}
	return &clone
}
