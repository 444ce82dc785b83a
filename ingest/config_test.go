package ingest

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	var config *Config

	assert.Equal(t, 1, config.maxSessionsPerConn())
	assert.Equal(t, 30*time.Second, config.streamReadTimeout())
	assert.Equal(t, uint64(4096), config.maxHeaderLength())
	assert.Equal(t, int64(16<<20), config.maxChunkSize())
	assert.Equal(t, uint64(60), config.defaultMaxAge())
	assert.Equal(t, 5*time.Second, config.sweepInterval())
	assert.Nil(t, config.echoPrefix())
	assert.Nil(t, config.datagramLimiter())
	assert.Nil(t, config.checkOrigin())
	assert.Nil(t, config.Clone())
}

func TestConfig_Values(t *testing.T) {
	config := &Config{
		MaxSessionsPerConn: 4,
		StreamReadTimeout:  time.Second,
		MaxHeaderLength:    128,
		MaxChunkSize:       1024,
		DefaultMaxAge:      90 * time.Second,
		SweepInterval:      time.Minute,
		EchoPrefix:         []byte("ack:"),
		DatagramRate:       10,
		CheckOrigin:        func(*http.Request) bool { return true },
	}

	assert.Equal(t, 4, config.maxSessionsPerConn())
	assert.Equal(t, time.Second, config.streamReadTimeout())
	assert.Equal(t, uint64(128), config.maxHeaderLength())
	assert.Equal(t, int64(1024), config.maxChunkSize())
	assert.Equal(t, uint64(90), config.defaultMaxAge())
	assert.Equal(t, time.Minute, config.sweepInterval())
	assert.Equal(t, []byte("ack:"), config.echoPrefix())
	assert.NotNil(t, config.checkOrigin())

	limiter := config.datagramLimiter()
	require.NotNil(t, limiter)
	assert.Equal(t, 1, limiter.Burst())
}

func TestConfig_Disabled(t *testing.T) {
	config := &Config{
		StreamReadTimeout: -1,
		SweepInterval:     -1,
	}

	assert.Zero(t, config.streamReadTimeout())
	assert.Zero(t, config.sweepInterval())
}

func TestConfig_Clone(t *testing.T) {
	config := &Config{
		MaxSessionsPerConn: 2,
		EchoPrefix:         []byte("ack:"),
	}

	clone := config.Clone()
	require.NotNil(t, clone)
	assert.Equal(t, config.MaxSessionsPerConn, clone.MaxSessionsPerConn)

	clone.EchoPrefix[0] = 'X'
	assert.Equal(t, []byte("ack:"), config.EchoPrefix)
}

func TestConfig_DefaultMaxAgeRoundsUp(t *testing.T) {
	tests := map[string]struct {
		maxAge time.Duration
		want   uint64
	}{
		"sub-second":     {maxAge: 500 * time.Millisecond, want: 1},
		"one nanosecond": {maxAge: time.Nanosecond, want: 1},
		"whole seconds":  {maxAge: 2 * time.Second, want: 2},
		"fraction over":  {maxAge: 2*time.Second + time.Millisecond, want: 3},
		"unset":          {maxAge: 0, want: 60},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			config := &Config{DefaultMaxAge: tt.maxAge}
			assert.Equal(t, tt.want, config.defaultMaxAge())
		})
	}
}
