package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/ytspot/internal/config"
	"github.com/pders01/ytspot/internal/debuglog"
	"github.com/pders01/ytspot/internal/search"
	"github.com/pders01/ytspot/internal/selection"
	"github.com/pders01/ytspot/internal/storage"
	"github.com/pders01/ytspot/internal/tracker"
)

// chrome is the number of lines around the result list: header, framed
// input, separator, status and help.
const chrome = 7

// Syncer refreshes the ticket cache from the tracker.
type Syncer interface {
	Sync(ctx context.Context) (*tracker.Result, error)
	SyncIfStale(ctx context.Context, maxAge time.Duration) (*tracker.Result, error)
}

// ActionSink performs the copy and open actions for a confirmed ticket.
type ActionSink interface {
	CopyLink(t storage.Ticket)
	OpenURL(t storage.Ticket)
}

// Options wires the optional collaborators of the launcher.
type Options struct {
	// Syncer is nil when no tracker is configured; the launcher then runs
	// from the cache only.
	Syncer       Syncer
	Actions      ActionSink
	InitialQuery string
	// NoSync skips the startup and periodic syncs. Manual sync still works.
	NoSync bool
}

type App struct {
	config  *config.Config
	store   *storage.Store
	syncer  Syncer
	actions ActionSink
	noSync  bool

	ctrl       *selection.Controller
	keys       keyMap
	keyHandler *KeyHandler
	input      textinput.Model
	list       viewport.Model
	detail     viewport.Model
	help       help.Model
	spinner    spinner.Model

	view      View
	width     int
	height    int
	total     int
	meta      storage.SyncMeta
	haveSync  bool
	syncing   bool
	syncStart time.Time
	status    status
	lastStats search.Stats
	err       error
	quitting  bool

	pendingTop    bool
	pendingScroll int

	ctx    context.Context
	cancel context.CancelFunc

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(store *storage.Store, cfg *config.Config, opts Options) *App {
	ApplyTheme(cfg.UI.Colors)

	ti := textinput.New()
	ti.Placeholder = "Search tickets by id, summary, type, priority or sprint…"
	ti.Prompt = "› "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		config:        cfg,
		store:         store,
		syncer:        opts.Syncer,
		actions:       opts.Actions,
		noSync:        opts.NoSync,
		keys:          newKeyMap(cfg),
		input:         ti,
		list:          viewport.New(0, 0),
		detail:        viewport.New(0, 0),
		help:          help.New(),
		spinner:       sp,
		view:          ViewLauncher,
		pendingScroll: -1,
		ctx:           ctx,
		cancel:        cancel,
	}

	searchOpts := cfg.SearchOptions()
	searchOpts.Observer = a.observeRanking
	effects := selection.EffectFuncs{
		OnScrollIntoView: func(i int) { a.pendingScroll = i },
		OnScrollToTop:    func() { a.pendingTop = true },
	}
	a.ctrl = selection.New(search.NewRanker(searchOpts), appActions{a}, effects)
	a.keyHandler = NewKeyHandler(a, a.keys)

	if opts.InitialQuery != "" {
		a.input.SetValue(opts.InitialQuery)
		a.input.CursorEnd()
		a.ctrl.SetQuery(opts.InitialQuery)
	}
	return a
}

// appActions forwards confirmed tickets to the action sink and turns a
// dismissal request into quitting the program.
type appActions struct{ a *App }

func (s appActions) CopyLink(t storage.Ticket) {
	if s.a.actions != nil {
		s.a.actions.CopyLink(t)
	}
}

func (s appActions) OpenURL(t storage.Ticket) {
	if s.a.actions != nil {
		s.a.actions.OpenURL(t)
	}
}

func (s appActions) Dismiss() { s.a.quitting = true }

func (a *App) observeRanking(s search.Stats) {
	a.lastStats = s
	debuglog.WithFields(map[string]any{
		"query":    s.Query,
		"total":    s.Total,
		"matched":  s.Matched,
		"returned": s.Returned,
	}).Debugf("ranked tickets")
}

// ReportError records a failure from a fire-and-forget action so it can be
// shown after the window is dismissed.
func (a *App) ReportError(err error) {
	if err != nil {
		a.err = err
	}
}

// Err returns the last action failure, if any.
func (a *App) Err() error { return a.err }

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}

	startup := a.loadCached()
	if a.syncer != nil && !a.noSync {
		a.syncing = true
		a.syncStart = time.Now()
		startup = tea.Sequence(startup, a.syncIfStale())
		cmds = append(cmds, a.spinner.Tick, a.scheduleRefresh())
	}
	cmds = append(cmds, startup)
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		a.syncList()
		if a.view == ViewDetail {
			cmds = append(cmds, a.openDetail())
		}

	case tea.KeyMsg:
		return a.handleKey(msg)

	case ticketsLoadedMsg:
		if msg.source == sourceCache && a.haveSync {
			break
		}
		if msg.source == sourceSync {
			a.syncing = false
			if msg.skipped {
				break
			}
			a.haveSync = true
			cmds = append(cmds, a.setStatus(MsgSynced(len(msg.tickets), time.Since(a.syncStart)), StatusSuccess, 4*time.Second))
		}
		a.total = len(msg.tickets)
		a.meta = msg.meta
		a.ctrl.SetTickets(msg.tickets)
		a.syncList()

	case syncFailedMsg:
		a.syncing = false
		if !errors.Is(msg.err, context.Canceled) {
			cmds = append(cmds, a.setStatus(msg.err.Error(), StatusError, 0))
		}

	case refreshTickMsg:
		debuglog.Debugf("periodic refresh at %s", msg.at.Format(time.RFC3339))
		if !a.syncing {
			cmds = append(cmds, a.startSync())
		}
		cmds = append(cmds, a.scheduleRefresh())

	case spinner.TickMsg:
		if a.syncing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case statusClearMsg:
		a.clearStatus(msg.seq)

	case errorMsg:
		cmds = append(cmds, a.setStatus(msg.err.Error(), StatusError, 0))

	default:
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) layout() {
	a.input.Width = max(a.width-8, 10)

	listHeight := a.height - chrome
	if a.help.ShowAll {
		listHeight -= 2
	}
	a.list.Width = a.width
	a.list.Height = max(listHeight, 1)

	a.detail.Width = a.width
	a.detail.Height = max(a.height-3, 1)
	a.help.Width = a.width
}

// syncList re-renders the rows and then applies the scroll requests the
// controller made since the last render.
func (a *App) syncList() {
	a.list.SetContent(a.renderRows())

	if a.pendingTop {
		a.list.GotoTop()
		a.pendingTop = false
	}
	if a.pendingScroll >= 0 {
		a.ensureVisible(a.pendingScroll)
		a.pendingScroll = -1
	}
}

func (a *App) ensureVisible(i int) {
	h := a.list.Height
	if h <= 0 {
		return
	}
	switch {
	case i < a.list.YOffset:
		a.list.SetYOffset(i)
	case i >= a.list.YOffset+h:
		a.list.SetYOffset(i - h + 1)
	}
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}
	if a.view == ViewDetail {
		title := ""
		if t, ok := a.ctrl.Selected(); ok {
			title = HeaderStyle.Render(truncateEnd(t.ID+"  "+singleLine(t.Summary), max(a.width-2, 1)))
		}
		return lipgloss.JoinVertical(lipgloss.Top,
			title,
			a.detail.View(),
			renderHelp("esc: back • "+a.keys.Alternate.Help().Key+": open • "+a.keys.Confirm.Help().Key+": copy"),
		)
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width, 0)))

	return lipgloss.JoinVertical(lipgloss.Top,
		a.renderHeader(),
		renderInputFrame(a.input.View(), a.input.Focused(), max(a.width-8, 10)),
		a.list.View(),
		separator,
		a.renderStatus(),
		a.help.View(a.keys),
	)
}

func (a *App) renderHeader() string {
	title := TitleStyle.Render("› " + AppName)
	sub := MsgLastSync(a.meta.LastSync, time.Now())
	if a.syncing {
		sub = a.spinner.View() + " " + MsgSyncing
	} else if a.syncer == nil {
		sub = MsgOffline
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, title, " ", renderMuted(sub))
}

func (a *App) renderStatus() string {
	text := a.status.text
	style := a.status.style()
	if text == "" {
		text = MsgResultsCount(a.ctrl.Len(), a.total)
		if a.ctrl.Query() != "" && a.lastStats.Matched > a.ctrl.Len() {
			text = MsgResultsCount(a.ctrl.Len(), a.lastStats.Matched) + " shown"
		}
		style = StatusInfoStyle
	}
	return StatusBarStyle.Render(style.Render(truncateEnd(text, max(a.width-2, 1))))
}
