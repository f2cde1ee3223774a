package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/ytspot/internal/config"
	"github.com/pders01/ytspot/internal/selection"
	"github.com/pders01/ytspot/internal/storage"
	"github.com/pders01/ytspot/internal/tracker"
)

func sampleTickets() []storage.Ticket {
	return []storage.Ticket{
		{ID: "AGV-918", Summary: "Export dashboard to PDF", Type: "Feature", Priority: "Major", Sprints: []string{"Sprint 22"}, URL: "https://yt.example.com/issue/AGV-918"},
		{ID: "AGV-920", Summary: "Login times out", Type: "Bug", Priority: "Critical", URL: "https://yt.example.com/issue/AGV-920"},
		{ID: "AGV-919", Summary: "Update docs", Type: "Task", Priority: "Minor", URL: "https://yt.example.com/issue/AGV-919"},
	}
}

func numberedTickets(n int) []storage.Ticket {
	out := make([]storage.Ticket, n)
	for i := range out {
		out[i] = storage.Ticket{ID: fmt.Sprintf("AGV-%d", i+1), Summary: fmt.Sprintf("Ticket %d", i+1)}
	}
	return out
}

func newTestApp(t *testing.T, tickets []storage.Ticket, width, height int) (*App, *selection.Recorder) {
	t.Helper()
	rec := &selection.Recorder{}
	app := NewApp(nil, config.TestConfig(), Options{Actions: rec})
	app.Update(tea.WindowSizeMsg{Width: width, Height: height})
	app.Update(ticketsLoadedMsg{tickets: tickets, source: sourceCache})
	return app, rec
}

func typeText(app *App, text string) {
	for _, r := range text {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

type fakeSyncer struct {
	result *tracker.Result
	err    error
	calls  int
}

func (f *fakeSyncer) Sync(ctx context.Context) (*tracker.Result, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeSyncer) SyncIfStale(ctx context.Context, maxAge time.Duration) (*tracker.Result, error) {
	f.calls++
	return f.result, f.err
}

func TestApp_LoadedTicketsNewestFirst(t *testing.T) {
	app, _ := newTestApp(t, sampleTickets(), 100, 24)

	items := app.ctrl.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "AGV-920", items[0].ID)
	assert.Equal(t, "AGV-919", items[1].ID)
	assert.Equal(t, "AGV-918", items[2].ID)
	assert.Equal(t, 0, app.ctrl.Index())
	assert.Equal(t, 3, app.total)
}

func TestApp_TypingFiltersList(t *testing.T) {
	app, _ := newTestApp(t, sampleTickets(), 100, 24)

	typeText(app, "pdf")

	assert.Equal(t, "pdf", app.input.Value())
	assert.Equal(t, "pdf", app.ctrl.Query())
	require.Equal(t, 1, app.ctrl.Len())
	assert.Equal(t, "AGV-918", app.ctrl.Items()[0].ID)
}

func TestApp_ConfirmCopiesAndQuits(t *testing.T) {
	app, rec := newTestApp(t, sampleTickets(), 100, 24)

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"copy AGV-919"}, rec.Events)
	assert.True(t, app.quitting)
	assert.True(t, isQuit(cmd), "confirm should quit the program")
	assert.Empty(t, app.View())
}

func TestApp_AlternateConfirmOpens(t *testing.T) {
	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyEnter, Alt: true},
		{Type: tea.KeyCtrlO},
	} {
		t.Run(msg.String(), func(t *testing.T) {
			app, rec := newTestApp(t, sampleTickets(), 100, 24)

			_, cmd := app.Update(msg)

			assert.Equal(t, []string{"open AGV-920"}, rec.Events)
			assert.True(t, isQuit(cmd))
		})
	}
}

func TestApp_ConfirmOnEmptyListDoesNothing(t *testing.T) {
	app, rec := newTestApp(t, sampleTickets(), 100, 24)

	typeText(app, "zzz")
	require.Equal(t, 0, app.ctrl.Len())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, rec.Events)
	assert.False(t, app.quitting)
	assert.False(t, isQuit(cmd))
	assert.Contains(t, app.View(), MsgNoResults)
}

func TestApp_EscapeClearsThenQuits(t *testing.T) {
	app, _ := newTestApp(t, sampleTickets(), 100, 24)
	typeText(app, "login")
	require.Equal(t, 1, app.ctrl.Len())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, isQuit(cmd))
	assert.Equal(t, "", app.input.Value())
	assert.Equal(t, "", app.ctrl.Query())
	assert.Equal(t, 3, app.ctrl.Len())

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, isQuit(cmd))
}

func TestApp_NavigationScrollsViewport(t *testing.T) {
	// Height 10 leaves three list rows.
	app, _ := newTestApp(t, numberedTickets(10), 100, 10)
	require.Equal(t, 3, app.list.Height)

	for i := 0; i < 5; i++ {
		app.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 5, app.ctrl.Index())
	assert.Equal(t, 3, app.list.YOffset, "selected row should be the last visible one")

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, 4, app.ctrl.Index())
	assert.Equal(t, 3, app.list.YOffset, "moving within the window does not scroll")

	for i := 0; i < 4; i++ {
		app.Update(tea.KeyMsg{Type: tea.KeyUp})
	}
	assert.Equal(t, 0, app.ctrl.Index())
	assert.Equal(t, 0, app.list.YOffset)
}

func TestApp_NavigationClampsAtEnds(t *testing.T) {
	app, _ := newTestApp(t, numberedTickets(3), 100, 24)

	app.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, app.ctrl.Index())

	for i := 0; i < 10; i++ {
		app.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	}
	assert.Equal(t, 2, app.ctrl.Index())
}

func TestApp_PageDownMovesByWindow(t *testing.T) {
	app, _ := newTestApp(t, numberedTickets(10), 100, 10)

	app.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 3, app.ctrl.Index())

	app.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 0, app.ctrl.Index())
}

func TestApp_QueryChangeScrollsToTop(t *testing.T) {
	app, _ := newTestApp(t, numberedTickets(10), 100, 10)
	for i := 0; i < 6; i++ {
		app.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	require.NotZero(t, app.list.YOffset)

	typeText(app, "agv")

	assert.Equal(t, 0, app.ctrl.Index())
	assert.Equal(t, 0, app.list.YOffset)
}

func TestApp_CursorKeysDoNotResetSelection(t *testing.T) {
	app, _ := newTestApp(t, sampleTickets(), 100, 24)
	typeText(app, "agv")
	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, app.ctrl.Index())

	app.Update(tea.KeyMsg{Type: tea.KeyLeft})

	assert.Equal(t, 1, app.ctrl.Index())
}

func TestApp_RefreshResetsSelection(t *testing.T) {
	app, _ := newTestApp(t, sampleTickets(), 100, 24)
	typeText(app, "agv")
	app.Update(tea.KeyMsg{Type: tea.KeyDown})

	refreshed := append(sampleTickets(), storage.Ticket{ID: "AGV-921", Summary: "New one"})
	app.Update(ticketsLoadedMsg{tickets: refreshed, source: sourceSync})

	assert.Equal(t, 0, app.ctrl.Index())
	assert.Equal(t, "agv", app.ctrl.Query(), "query survives a refresh")
	assert.Equal(t, 4, app.ctrl.Len())
	assert.Equal(t, StatusSuccess, app.status.kind)
}

func TestApp_StaleCacheLoadIgnoredAfterSync(t *testing.T) {
	app, _ := newTestApp(t, nil, 100, 24)

	app.Update(ticketsLoadedMsg{tickets: sampleTickets(), source: sourceSync})
	app.Update(ticketsLoadedMsg{tickets: numberedTickets(1), source: sourceCache})

	assert.Equal(t, 3, app.ctrl.Len())
}

func TestApp_SkippedSyncKeepsSelection(t *testing.T) {
	app, _ := newTestApp(t, sampleTickets(), 100, 24)
	app.syncing = true
	app.Update(tea.KeyMsg{Type: tea.KeyDown})

	app.Update(ticketsLoadedMsg{tickets: sampleTickets(), source: sourceSync, skipped: true})

	assert.False(t, app.syncing)
	assert.Equal(t, 1, app.ctrl.Index())
}

func TestApp_SyncFailureKeepsList(t *testing.T) {
	app, _ := newTestApp(t, sampleTickets(), 100, 24)
	app.syncing = true

	app.Update(syncFailedMsg{err: errors.New("sync: tracker unavailable")})

	assert.False(t, app.syncing)
	assert.Equal(t, 3, app.ctrl.Len())
	assert.Equal(t, StatusError, app.status.kind)
	assert.Contains(t, app.View(), "tracker unavailable")
}

func TestApp_SyncWithoutTracker(t *testing.T) {
	app, _ := newTestApp(t, sampleTickets(), 100, 24)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	assert.False(t, app.syncing)
	assert.Equal(t, MsgOffline, app.status.text)
}

func TestApp_RunSync(t *testing.T) {
	fake := &fakeSyncer{result: &tracker.Result{
		Tickets: sampleTickets(),
		Meta:    storage.SyncMeta{Count: 3},
	}}
	app := NewApp(nil, config.TestConfig(), Options{Syncer: fake})

	msg := app.runSync(false)()

	loaded, ok := msg.(ticketsLoadedMsg)
	require.True(t, ok, "expected ticketsLoadedMsg, got %T", msg)
	assert.Equal(t, sourceSync, loaded.source)
	assert.Len(t, loaded.tickets, 3)
	assert.Equal(t, 1, fake.calls)
}

func TestApp_RunSyncFailure(t *testing.T) {
	fake := &fakeSyncer{err: tracker.ErrUnauthorized}
	app := NewApp(nil, config.TestConfig(), Options{Syncer: fake})

	msg := app.runSync(true)()

	failed, ok := msg.(syncFailedMsg)
	require.True(t, ok, "expected syncFailedMsg, got %T", msg)
	assert.ErrorIs(t, failed.err, tracker.ErrUnauthorized)
}

func TestApp_ManualSyncWhileSyncing(t *testing.T) {
	fake := &fakeSyncer{result: &tracker.Result{}}
	app := NewApp(nil, config.TestConfig(), Options{Syncer: fake})

	cmd := app.startSync()
	require.NotNil(t, cmd)
	assert.True(t, app.syncing)

	app.startSync()
	assert.Equal(t, MsgAlreadySyncing, app.status.text)
}

func TestApp_StatusClears(t *testing.T) {
	app, _ := newTestApp(t, sampleTickets(), 100, 24)

	app.setStatus("first", StatusInfo, time.Second)
	stale := app.status.seq
	app.setStatus("second", StatusWarn, time.Second)

	app.Update(statusClearMsg{seq: stale})
	assert.Equal(t, "second", app.status.text)

	app.Update(statusClearMsg{seq: app.status.seq})
	assert.Equal(t, "", app.status.text)
}

func TestApp_DetailView(t *testing.T) {
	app, rec := newTestApp(t, sampleTickets(), 100, 24)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	require.Equal(t, ViewDetail, app.view)
	assert.Contains(t, app.View(), "AGV-920")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewLauncher, app.view)
	assert.False(t, app.quitting, "esc leaves the detail view without dismissing")

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"copy AGV-920"}, rec.Events)
	assert.True(t, isQuit(cmd))
}

func TestApp_DetailViewNeedsSelection(t *testing.T) {
	app, _ := newTestApp(t, nil, 100, 24)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlD})

	assert.Equal(t, ViewLauncher, app.view)
}

func TestApp_InitialQuery(t *testing.T) {
	app := NewApp(nil, config.TestConfig(), Options{InitialQuery: "docs"})
	app.Update(ticketsLoadedMsg{tickets: sampleTickets(), source: sourceCache})

	assert.Equal(t, "docs", app.input.Value())
	require.Equal(t, 1, app.ctrl.Len())
	assert.Equal(t, "AGV-919", app.ctrl.Items()[0].ID)
}

func TestApp_ViewShowsRowsAndCount(t *testing.T) {
	app, _ := newTestApp(t, sampleTickets(), 120, 24)

	view := app.View()

	for _, id := range []string{"AGV-918", "AGV-919", "AGV-920"} {
		assert.Contains(t, view, id)
	}
	assert.Contains(t, view, "[Feature]")
	assert.Contains(t, view, "3 tickets")
	assert.Contains(t, view, MsgOffline)
}

func TestApp_EmptyCacheMessage(t *testing.T) {
	app, _ := newTestApp(t, nil, 100, 24)

	assert.Contains(t, app.View(), MsgNoTickets)
}

func TestApp_ReportError(t *testing.T) {
	app := NewApp(nil, config.TestConfig(), Options{})
	assert.NoError(t, app.Err())

	app.ReportError(nil)
	assert.NoError(t, app.Err())

	app.ReportError(errors.New("clipboard unavailable"))
	assert.EqualError(t, app.Err(), "clipboard unavailable")
}

func TestApp_RowsFitWidth(t *testing.T) {
	long := storage.Ticket{
		ID:      "AGV-1",
		Summary: strings.Repeat("very long summary ", 20),
		Type:    "Feature",
		Sprints: []string{"Sprint 1", "Sprint 2", "Sprint 3", "Sprint 4"},
	}
	app, _ := newTestApp(t, []storage.Ticket{long, {ID: "AGV-2"}}, 80, 24)

	rows := strings.Split(app.renderRows(), "\n")
	assert.Len(t, rows, 2, "every ticket renders on exactly one line")
}

func TestTicketMarkdown(t *testing.T) {
	md := TicketMarkdown(sampleTickets()[0])

	assert.Contains(t, md, "# AGV-918")
	assert.Contains(t, md, "Export dashboard to PDF")
	assert.Contains(t, md, "| Type | Feature |")
	assert.Contains(t, md, "| Sprints | Sprint 22 |")
	assert.Contains(t, md, "(https://yt.example.com/issue/AGV-918)")

	bare := TicketMarkdown(storage.Ticket{ID: "AGV-1"})
	assert.Contains(t, bare, "| Priority | - |")
	assert.NotContains(t, bare, "Open in tracker")
}

func TestRenderTicket(t *testing.T) {
	out, err := RenderTicket(sampleTickets()[1], 80)
	require.NoError(t, err)
	assert.Contains(t, out, "AGV-920")
	assert.Contains(t, out, "Login times out")
}

func TestRetryOperation(t *testing.T) {
	calls := 0
	err := retryOperation(func() error {
		calls++
		if calls < 2 {
			return errors.New("database locked")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = retryOperation(func() error {
		calls++
		return errors.New("still locked")
	})
	assert.EqualError(t, err, "still locked")
	assert.Equal(t, 3, calls)
}
