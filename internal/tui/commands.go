package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/ytspot/internal/storage"
	"github.com/pders01/ytspot/internal/tracker"
)

func (a *App) loadCached() tea.Cmd {
	store := a.store
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		var (
			tickets []storage.Ticket
			meta    storage.SyncMeta
		)
		err := retryOperation(func() error {
			var err error
			if tickets, err = store.GetTickets(); err != nil {
				return err
			}
			meta, err = store.GetSyncMeta()
			return err
		})
		if err != nil {
			return errorMsg{err: wrapErr("loading cache", err)}
		}
		return ticketsLoadedMsg{tickets: tickets, meta: meta, source: sourceCache}
	}
}

// startSync runs a manual or periodic sync unless one is already running.
func (a *App) startSync() tea.Cmd {
	if a.syncer == nil {
		return a.setStatus(MsgOffline, StatusWarn, 3*time.Second)
	}
	if a.syncing {
		return a.setStatus(MsgAlreadySyncing, StatusInfo, 2*time.Second)
	}
	a.syncing = true
	a.syncStart = time.Now()
	return tea.Batch(a.spinner.Tick, a.runSync(false))
}

func (a *App) syncIfStale() tea.Cmd {
	return a.runSync(true)
}

func (a *App) runSync(onlyIfStale bool) tea.Cmd {
	syncer := a.syncer
	ctx := a.ctx
	maxAge := a.config.Sync.RefreshInterval

	return func() tea.Msg {
		var (
			res *tracker.Result
			err error
		)
		if onlyIfStale {
			res, err = syncer.SyncIfStale(ctx, maxAge)
		} else {
			res, err = syncer.Sync(ctx)
		}
		if err != nil {
			if ctx.Err() != nil {
				return syncFailedMsg{err: ctx.Err()}
			}
			return syncFailedMsg{err: wrapErr("sync", err)}
		}
		return ticketsLoadedMsg{
			tickets: res.Tickets,
			meta:    res.Meta,
			source:  sourceSync,
			skipped: res.Skipped,
		}
	}
}

func (a *App) scheduleRefresh() tea.Cmd {
	interval := a.config.Sync.RefreshInterval
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshTickMsg{at: t}
	})
}

func (a *App) quit() (tea.Model, tea.Cmd) {
	a.quitting = true
	a.cancel()
	return a, tea.Quit
}

// openDetail renders the selected ticket into the detail viewport.
func (a *App) openDetail() tea.Cmd {
	t, ok := a.ctrl.Selected()
	if !ok {
		a.view = ViewLauncher
		return nil
	}

	r, err := a.getRenderer()
	if err != nil {
		a.detail.SetContent(TicketMarkdown(t))
		return a.setStatus(wrapErr("renderer", err).Error(), StatusError, 0)
	}
	out, err := r.Render(TicketMarkdown(t))
	if err != nil {
		out = TicketMarkdown(t)
	}
	a.detail.SetContent(out)
	a.detail.GotoTop()
	return nil
}

// getRenderer caches the glamour renderer per content width.
func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	width := max(a.width-4, 20)
	if a.glamourRenderer != nil && a.rendererWidth == width {
		return a.glamourRenderer, nil
	}
	r, err := newRenderer(width)
	if err != nil {
		return nil, err
	}
	a.glamourRenderer = r
	a.rendererWidth = width
	return r, nil
}

func newRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
}

// TicketMarkdown describes a ticket as a markdown document.
func TicketMarkdown(t storage.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.ID)
	if t.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", t.Summary)
	}

	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Type | %s |\n", orDash(t.Type))
	fmt.Fprintf(&b, "| Priority | %s |\n", orDash(t.Priority))
	fmt.Fprintf(&b, "| Sprints | %s |\n", orDash(strings.Join(t.Sprints, ", ")))
	b.WriteString("\n")

	if t.URL != "" {
		fmt.Fprintf(&b, "[Open in tracker](%s)\n", t.URL)
	}
	return b.String()
}

// RenderTicket renders a ticket for the terminal at the given width.
func RenderTicket(t storage.Ticket, width int) (string, error) {
	r, err := newRenderer(max(width, 20))
	if err != nil {
		return "", wrapErr("creating renderer", err)
	}
	out, err := r.Render(TicketMarkdown(t))
	if err != nil {
		return "", wrapErr("rendering ticket", err)
	}
	return out, nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}

// retryOperation retries a database operation up to 3 times with exponential backoff
func retryOperation(operation func() error) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := operation(); err != nil {
			lastErr = err
			if i < maxRetries-1 {
				delay := baseDelay * time.Duration(1<<i)
				time.Sleep(delay)
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}
