package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/majiix/wtingest/quic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// datagramSource yields the given datagrams, closes drained and then waits
// for the session to end.
func datagramSource(drained chan<- struct{}, datagrams ...[]byte) func(context.Context) ([]byte, error) {
	ch := make(chan []byte, len(datagrams))
	for _, d := range datagrams {
		ch <- d
	}
	close(ch)

	closed := false
	return func(ctx context.Context) ([]byte, error) {
		if d, ok := <-ch; ok {
			return d, nil
		}
		if !closed {
			closed = true
			close(drained)
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

func TestEchoReply(t *testing.T) {
	assert.Equal(t, []byte("ping"), EchoReply(nil, []byte("ping")))
	assert.Equal(t, []byte("ack:ping"), EchoReply([]byte("ack:"), []byte("ping")))
	assert.Empty(t, EchoReply(nil, nil))
}

func TestSession_DatagramEcho(t *testing.T) {
	tests := map[string]struct {
		config *Config
		want   []byte
	}{
		"verbatim": {
			want: []byte("ping"),
		},
		"prefixed": {
			config: &Config{EchoPrefix: []byte("ack:")},
			want:   []byte("ack:ping"),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			connCtx, closeConn := context.WithCancel(context.Background())
			defer closeConn()

			drained := make(chan struct{})

			conn := newTestSessionConn(connCtx)
			conn.AcceptUniStreamFunc = blockUntilDone[quic.ReceiveStream]()
			conn.ReceiveDatagramFunc = datagramSource(drained, []byte("ping"))
			conn.On("SendDatagram", tt.want).Return(nil).Once()

			sess := newTestSession(t, conn, tt.config)

			errCh := make(chan error, 1)
			go func() { errCh <- sess.run(context.Background()) }()

			select {
			case <-drained:
			case <-time.After(2 * time.Second):
				t.Fatal("datagram was not received")
			}
			closeConn()
			require.NoError(t, <-errCh)

			conn.AssertExpectations(t)
		})
	}
}

func TestSession_DatagramRateLimit(t *testing.T) {
	connCtx, closeConn := context.WithCancel(context.Background())
	defer closeConn()

	drained := make(chan struct{})

	conn := newTestSessionConn(connCtx)
	conn.AcceptUniStreamFunc = blockUntilDone[quic.ReceiveStream]()
	conn.ReceiveDatagramFunc = datagramSource(drained, []byte("one"), []byte("two"), []byte("three"))
	conn.On("SendDatagram", []byte("one")).Return(nil).Once()

	sess := newTestSession(t, conn, &Config{DatagramRate: 0.001, DatagramBurst: 1})

	errCh := make(chan error, 1)
	go func() { errCh <- sess.run(context.Background()) }()

	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("datagrams were not received")
	}
	closeConn()
	require.NoError(t, <-errCh)

	conn.AssertExpectations(t)
	conn.AssertNumberOfCalls(t, "SendDatagram", 1)
}

func TestSession_DatagramSendErrorContinues(t *testing.T) {
	connCtx, closeConn := context.WithCancel(context.Background())
	defer closeConn()

	drained := make(chan struct{})

	conn := newTestSessionConn(connCtx)
	conn.AcceptUniStreamFunc = blockUntilDone[quic.ReceiveStream]()
	conn.ReceiveDatagramFunc = datagramSource(drained, []byte("a"), []byte("b"))
	conn.On("SendDatagram", []byte("a")).Return(&quic.DatagramTooLargeError{MaxDatagramPayloadSize: 1}).Once()
	conn.On("SendDatagram", []byte("b")).Return(nil).Once()

	sess := newTestSession(t, conn, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- sess.run(context.Background()) }()

	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("datagrams were not received")
	}
	closeConn()
	require.NoError(t, <-errCh)

	conn.AssertExpectations(t)
}
