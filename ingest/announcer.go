package ingest

import "context"

// Announcement describes a publishing session to the presence layer.
type Announcement struct {
	SessionID  string `json:"session_id"`
	Room       string `json:"room"`
	AssetID    string `json:"asset_id"`
	RemoteAddr string `json:"remote_address"`
}

// Announcer forwards session lifecycle to an external room/listing component.
// Withdraw is called once for every successful Announce.
type Announcer interface {
	Announce(ctx context.Context, a Announcement) error
	Withdraw(ctx context.Context, a Announcement) error
}
