package media

import (
	"github.com/majiix/wtingest/ingest"
)

// SessionDirectory exposes the live ingest sessions to the HTTP handlers.
type SessionDirectory interface {
	// Sessions describes every active session.
	Sessions() []ingest.SessionInfo

	// Store returns the chunk store of the session publishing assetID.
	Store(assetID string) (*ingest.ChunkStore, bool)
}

// ServerDirectory returns the SessionDirectory of an ingest server.
func ServerDirectory(server *ingest.Server) SessionDirectory {
	return serverDirectory{server: server}
}

type serverDirectory struct {
	server *ingest.Server
}

func (d serverDirectory) Sessions() []ingest.SessionInfo {
	sessions := d.server.Sessions()
	infos := make([]ingest.SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sess.Info())
	}
	return infos
}

func (d serverDirectory) Store(assetID string) (*ingest.ChunkStore, bool) {
	sess, ok := d.server.Lookup(assetID)
	if !ok {
		return nil, false
	}
	return sess.Store(), true
}
