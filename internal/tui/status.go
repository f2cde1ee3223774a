package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

const (
	MsgSyncing        = "Syncing…"
	MsgOffline        = "Offline: no tracker configured"
	MsgAlreadySyncing = "Sync already running"
	MsgNoTickets      = "No cached tickets"
	MsgNoResults      = "No results"
)

func MsgSynced(count int, took time.Duration) string {
	return fmt.Sprintf("Synced %d tickets in %s", count, took.Round(10*time.Millisecond))
}

func MsgResultsCount(shown, total int) string {
	if shown == total {
		if total == 1 {
			return "1 ticket"
		}
		return fmt.Sprintf("%d tickets", total)
	}
	return fmt.Sprintf("%d of %d tickets", shown, total)
}

func MsgLastSync(at time.Time, now time.Time) string {
	if at.IsZero() {
		return "never synced"
	}
	d := now.Sub(at)
	switch {
	case d < time.Minute:
		return "synced just now"
	case d < time.Hour:
		return fmt.Sprintf("synced %dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("synced %dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("synced %dd ago", int(d.Hours()/24))
	}
}

type status struct {
	text string
	kind StatusKind
	seq  int
}

// setStatus shows text until the returned command clears it. A zero ttl
// keeps the message until it is replaced.
func (a *App) setStatus(text string, kind StatusKind, ttl time.Duration) tea.Cmd {
	a.status.seq++
	a.status.text = text
	a.status.kind = kind
	if ttl <= 0 {
		return nil
	}
	seq := a.status.seq
	return tea.Tick(ttl, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func (a *App) clearStatus(seq int) {
	if seq == a.status.seq {
		a.status.text = ""
	}
}

func (s status) style() lipgloss.Style {
	switch s.kind {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}
