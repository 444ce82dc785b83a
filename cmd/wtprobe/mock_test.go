package main

import (
	"bytes"
	"context"
	"net"

	"github.com/majiix/wtingest/quic"
	"github.com/stretchr/testify/mock"
)

var _ quic.Connection = (*MockSession)(nil)

// MockSession is a testify mock of a WebTransport session.
type MockSession struct {
	mock.Mock
}

func (m *MockSession) AcceptUniStream(ctx context.Context) (quic.ReceiveStream, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(quic.ReceiveStream), args.Error(1)
}

func (m *MockSession) OpenUniStreamSync(ctx context.Context) (quic.SendStream, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(quic.SendStream), args.Error(1)
}

func (m *MockSession) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSession) SendDatagram(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockSession) CloseWithError(code quic.ApplicationErrorCode, msg string) error {
	args := m.Called(code, msg)
	return args.Error(0)
}

func (m *MockSession) ConnectionState() quic.ConnectionState {
	args := m.Called()
	return args.Get(0).(quic.ConnectionState)
}

func (m *MockSession) Context() context.Context {
	args := m.Called()
	return args.Get(0).(context.Context)
}

func (m *MockSession) LocalAddr() net.Addr {
	args := m.Called()
	return args.Get(0).(net.Addr)
}

func (m *MockSession) RemoteAddr() net.Addr {
	args := m.Called()
	return args.Get(0).(net.Addr)
}

var _ quic.SendStream = (*bufferSendStream)(nil)

// bufferSendStream records what is written to it.
type bufferSendStream struct {
	bytes.Buffer
	id       quic.StreamID
	closed   bool
	canceled *quic.StreamErrorCode
}

func (s *bufferSendStream) StreamID() quic.StreamID { return s.id }

func (s *bufferSendStream) Close() error {
	s.closed = true
	return nil
}

func (s *bufferSendStream) CancelWrite(code quic.StreamErrorCode) {
	s.canceled = &code
}
