package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/ytspot/internal/storage"
)

const (
	maxIDWidth     = 14
	typeWidth      = 12
	priorityWidth  = 10
	maxSprintWidth = 22
	rowMarker      = "› "
)

// renderInputFrame draws a rounded bordered container around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

// renderCentered centers the provided content within the given width/height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// renderMuted renders text in muted color (utility wrapper).
func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

// renderHelp renders help/instructional text consistently.
func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

// rowLayout holds the column widths shared by every row of one render.
type rowLayout struct {
	id      int
	sprints int
	summary int
	width   int
}

func newRowLayout(items []storage.Ticket, width int) rowLayout {
	l := rowLayout{width: width}
	for _, t := range items {
		l.id = max(l.id, lipgloss.Width(t.ID))
		l.sprints = max(l.sprints, lipgloss.Width(sprintLabel(t.Sprints)))
	}
	l.id = min(l.id, maxIDWidth)
	l.sprints = min(l.sprints, maxSprintWidth)

	used := len([]rune(rowMarker)) + l.id + 1 + typeWidth + 1 + priorityWidth + 1
	if l.sprints > 0 {
		used += l.sprints + 1
	}
	l.summary = max(width-used, 10)
	return l
}

func sprintLabel(sprints []string) string {
	return strings.Join(sprints, ", ")
}

// renderRow draws one ticket line. The selected row is drawn as plain text
// on the highlight background so inner colors don't break the bar.
func renderRow(t storage.Ticket, selected bool, l rowLayout) string {
	id := fitCell(t.ID, l.id)
	typ := fitCell(badge(t.Type), typeWidth)
	prio := fitCell(t.Priority, priorityWidth)
	summary := fitCell(singleLine(t.Summary), l.summary)
	sprints := ""
	if l.sprints > 0 {
		sprints = " " + truncateMiddle(sprintLabel(t.Sprints), l.sprints)
	}

	if selected {
		line := rowMarker + id + " " + typ + " " + prio + " " + summary + sprints
		return SelectedRowStyle.Width(l.width).Render(truncateEnd(line, l.width))
	}

	return RowStyle.Render(strings.Repeat(" ", len([]rune(rowMarker))) +
		TicketIDStyle.Render(id) + " " +
		TypeBadgeStyle.Render(typ) + " " +
		PriorityStyle(t.Priority).Render(prio) + " " +
		summary +
		SprintStyle.Render(sprints))
}

func badge(typ string) string {
	if typ == "" {
		return ""
	}
	return "[" + typ + "]"
}

// renderRows draws the ranked list, or a placeholder when it is empty.
func (a *App) renderRows() string {
	items := a.ctrl.Items()
	if len(items) == 0 {
		content := EmptyStyle.Render(MsgNoResults)
		if a.total == 0 {
			msg := MsgNoTickets
			if a.syncer != nil {
				msg += " • " + a.keys.Sync.Help().Key + " to sync"
			}
			content = GetCompactBanner(msg)
		}
		return renderCentered(max(a.list.Width, 1), max(a.list.Height, 1), content)
	}

	l := newRowLayout(items, max(a.list.Width, 40))
	selected := a.ctrl.Index()

	rows := make([]string, len(items))
	for i, t := range items {
		rows[i] = renderRow(t, i == selected, l)
	}
	return strings.Join(rows, "\n")
}
