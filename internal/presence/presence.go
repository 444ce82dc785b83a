// Package presence publishes the assets being ingested so that listing
// services can discover live rooms.
package presence

import (
	"context"

	"github.com/majiix/wtingest/ingest"
)

var _ ingest.Announcer = Nop{}

// Nop is an Announcer that does nothing. It is used when no presence backend
// is configured.
type Nop struct{}

func (Nop) Announce(context.Context, ingest.Announcement) error { return nil }

func (Nop) Withdraw(context.Context, ingest.Announcement) error { return nil }
