package ingest

import (
	"context"
	"net"

	"github.com/majiix/wtingest/quic"
	"github.com/stretchr/testify/mock"
)

var _ quic.EarlyConnection = (*MockQUICConnection)(nil)

// MockQUICConnection is a mock implementation of quic.EarlyConnection using testify/mock.
// The Func fields, when set, replace the recorded expectations of blocking calls.
type MockQUICConnection struct {
	mock.Mock
	AcceptUniStreamFunc func(ctx context.Context) (quic.ReceiveStream, error)
	ReceiveDatagramFunc func(ctx context.Context) ([]byte, error)
}

func (m *MockQUICConnection) AcceptUniStream(ctx context.Context) (quic.ReceiveStream, error) {
	if m.AcceptUniStreamFunc != nil {
		return m.AcceptUniStreamFunc(ctx)
	}
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(quic.ReceiveStream), args.Error(1)
}

func (m *MockQUICConnection) CloseWithError(code quic.ApplicationErrorCode, msg string) error {
	args := m.Called(code, msg)
	return args.Error(0)
}

func (m *MockQUICConnection) ConnectionState() quic.ConnectionState {
	args := m.Called()
	return args.Get(0).(quic.ConnectionState)
}

func (m *MockQUICConnection) Context() context.Context {
	args := m.Called()
	return args.Get(0).(context.Context)
}

func (m *MockQUICConnection) HandshakeComplete() <-chan struct{} {
	args := m.Called()
	return args.Get(0).(chan struct{})
}

func (m *MockQUICConnection) LocalAddr() net.Addr {
	args := m.Called()
	return args.Get(0).(net.Addr)
}

func (m *MockQUICConnection) OpenUniStreamSync(ctx context.Context) (quic.SendStream, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(quic.SendStream), args.Error(1)
}

func (m *MockQUICConnection) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	if m.ReceiveDatagramFunc != nil {
		return m.ReceiveDatagramFunc(ctx)
	}
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockQUICConnection) RemoteAddr() net.Addr {
	args := m.Called()
	return args.Get(0).(net.Addr)
}

func (m *MockQUICConnection) SendDatagram(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}
