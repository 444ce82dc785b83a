package ingest

import (
	"context"
	"net"

	"github.com/majiix/wtingest/quic"
	"github.com/stretchr/testify/mock"
)

var _ quic.EarlyListener = (*MockEarlyListener)(nil)

// MockEarlyListener implements a mock for quic.EarlyListener using mock.Mock
type MockEarlyListener struct {
	mock.Mock
	AcceptFunc func(ctx context.Context) (quic.EarlyConnection, error)
}

func (m *MockEarlyListener) Accept(ctx context.Context) (quic.EarlyConnection, error) {
	if m.AcceptFunc != nil {
		return m.AcceptFunc(ctx)
	}
	args := m.Called(ctx)
	conn, _ := args.Get(0).(quic.EarlyConnection)
	return conn, args.Error(1)
}

func (m *MockEarlyListener) Addr() net.Addr {
	if len(m.ExpectedCalls) > 0 {
		args := m.Called()
		if addr, ok := args.Get(0).(net.Addr); ok {
			return addr
		}
	}
	return &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4433}
}

func (m *MockEarlyListener) Close() error {
	if len(m.ExpectedCalls) > 0 {
		args := m.Called()
		return args.Error(0)
	}
	return nil
}
