package media

import (
	"context"
	"io"

	"github.com/majiix/wtingest/ingest"
	"github.com/stretchr/testify/mock"
)

var _ SessionDirectory = (*MockSessionDirectory)(nil)

type MockSessionDirectory struct {
	mock.Mock
}

func (m *MockSessionDirectory) Sessions() []ingest.SessionInfo {
	args := m.Called()
	return args.Get(0).([]ingest.SessionInfo)
}

func (m *MockSessionDirectory) Store(assetID string) (*ingest.ChunkStore, bool) {
	args := m.Called(assetID)
	store, _ := args.Get(0).(*ingest.ChunkStore)
	return store, args.Bool(1)
}

var _ Transcoder = (*MockTranscoder)(nil)

type MockTranscoder struct {
	mock.Mock
	Input []byte
}

func (m *MockTranscoder) Run(ctx context.Context, input io.Reader, output string) error {
	data, err := io.ReadAll(input)
	if err != nil {
		return err
	}
	m.Input = data
	args := m.Called(output)
	return args.Error(0)
}
