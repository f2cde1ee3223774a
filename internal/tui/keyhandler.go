package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/ytspot/internal/config"
)

// keyMap holds the launcher bindings. It doubles as the help.KeyMap for
// the bottom help bar.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Confirm   key.Binding
	Alternate key.Binding
	Cancel    key.Binding
	Sync      key.Binding
	Detail    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// bindKey resolves a configured binding. A single character is combined
// with the modifier; anything longer is taken as a full key name.
func bindKey(modifier, k string) string {
	k = strings.TrimSpace(strings.ToLower(k))
	if len([]rune(k)) == 1 && modifier != "" {
		return modifier + "+" + k
	}
	return k
}

func newKeyMap(cfg *config.Config) keyMap {
	mod := strings.TrimSpace(strings.ToLower(cfg.Keys.Modifier))
	b := cfg.Keys.Bindings

	open := bindKey(mod, b.Open)
	quit := bindKey(mod, b.Quit)
	sync := bindKey(mod, b.Sync)
	detail := bindKey(mod, b.Detail)
	helpKey := bindKey(mod, b.Help)

	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑/ctrl+p", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓/ctrl+n", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "copy link"),
		),
		Alternate: key.NewBinding(
			key.WithKeys("alt+enter", open),
			key.WithHelp(open, "open in browser"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear/close"),
		),
		Sync: key.NewBinding(
			key.WithKeys(sync),
			key.WithHelp(sync, "sync"),
		),
		Detail: key.NewBinding(
			key.WithKeys(detail),
			key.WithHelp(detail, "details"),
		),
		Help: key.NewBinding(
			key.WithKeys(helpKey),
			key.WithHelp(helpKey, "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys(quit),
			key.WithHelp(quit, "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Alternate, k.Cancel, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Confirm, k.Alternate, k.Detail},
		{k.Sync, k.Cancel, k.Help, k.Quit},
	}
}

type KeyHandler struct {
	app  *App
	keys keyMap
}

func NewKeyHandler(app *App, keys keyMap) *KeyHandler {
	return &KeyHandler{app: app, keys: keys}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, kh.keys.Quit) {
		return kh.app.quit()
	}
	if kh.app.view == ViewDetail {
		return kh.handleDetailKey(msg)
	}
	return kh.handleLauncherKey(msg)
}

func (kh *KeyHandler) handleLauncherKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app

	switch {
	case key.Matches(msg, kh.keys.Up):
		a.ctrl.NavigateUp()
	case key.Matches(msg, kh.keys.Down):
		a.ctrl.NavigateDown()
	case key.Matches(msg, kh.keys.PageUp):
		for i := 0; i < a.list.Height; i++ {
			a.ctrl.NavigateUp()
		}
	case key.Matches(msg, kh.keys.PageDown):
		for i := 0; i < a.list.Height; i++ {
			a.ctrl.NavigateDown()
		}
	case key.Matches(msg, kh.keys.Alternate):
		a.ctrl.Confirm(true)
	case key.Matches(msg, kh.keys.Confirm):
		a.ctrl.Confirm(false)
	case key.Matches(msg, kh.keys.Cancel):
		a.ctrl.Cancel()
		a.input.SetValue(a.ctrl.Query())
	case key.Matches(msg, kh.keys.Sync):
		return a, a.startSync()
	case key.Matches(msg, kh.keys.Detail):
		if _, ok := a.ctrl.Selected(); !ok {
			return a, nil
		}
		a.view = ViewDetail
		return a, a.openDetail()
	case key.Matches(msg, kh.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		a.layout()
	default:
		return kh.delegateToInput(msg)
	}

	if a.quitting {
		return a.quit()
	}
	a.syncList()
	return a, nil
}

func (kh *KeyHandler) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app

	switch {
	case key.Matches(msg, kh.keys.Cancel), key.Matches(msg, kh.keys.Detail):
		a.view = ViewLauncher
		return a, nil
	case key.Matches(msg, kh.keys.Alternate):
		a.ctrl.Confirm(true)
	case key.Matches(msg, kh.keys.Confirm):
		a.ctrl.Confirm(false)
	default:
		var cmd tea.Cmd
		a.detail, cmd = a.detail.Update(msg)
		return a, cmd
	}

	if a.quitting {
		return a.quit()
	}
	return a, nil
}

// delegateToInput feeds the key to the query field and re-ranks only when
// the text actually changed, so cursor movement keeps the selection.
func (kh *KeyHandler) delegateToInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	before := a.input.Value()

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)

	if after := a.input.Value(); after != before {
		a.ctrl.SetQuery(after)
		a.syncList()
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	return a.keyHandler.HandleKey(msg)
}
