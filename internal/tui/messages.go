package tui

import (
	"time"

	"github.com/pders01/ytspot/internal/storage"
)

// View selects what the launcher window shows.
type View int

const (
	ViewLauncher View = iota
	ViewDetail
)

// ticketSource tells where a loaded ticket set came from.
type ticketSource int

const (
	sourceCache ticketSource = iota
	sourceSync
)

type ticketsLoadedMsg struct {
	tickets []storage.Ticket
	meta    storage.SyncMeta
	source  ticketSource
	skipped bool
}

type syncFailedMsg struct {
	err error
}

type refreshTickMsg struct {
	at time.Time
}

type statusClearMsg struct {
	seq int
}

type errorMsg struct {
	err error
}
