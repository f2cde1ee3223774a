package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/ytspot/internal/config"
)

const AppName = "ytspot"

// LogoLines is the block-letter logo shown by the banner and empty states.
var LogoLines = []string{
	"█  █ █████ ▄▀▀▀▄ █▀▀▀▄ ▄▀▀▀▄ █████",
	" ▀▄▀   █   ▀▄▄▄  █▄▄▄▀ █   █   █  ",
	"  █    █       █ █     █   █   █  ",
	"  █    █   ▀▄▄▄▀ █      ▀▄▄▀   █  ",
}

// BannerColors cycles through the banner lines.
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#7C9CFF"),
	lipgloss.Color("#A78BFA"),
	lipgloss.Color("#8B8CFA"),
	lipgloss.Color("#5EEAD4"),
}

var (
	PrimaryColor   = lipgloss.Color("#7C9CFF")
	SecondaryColor = lipgloss.Color("#5EEAD4")
	AccentColor    = lipgloss.Color("#C4B5FD")

	BackgroundColor = lipgloss.Color("#0F172A")
	SurfaceColor    = lipgloss.Color("#1E293B")
	TextColor       = lipgloss.Color("#E2E8F0")
	MutedColor      = lipgloss.Color("#94A3B8")

	WarningColor = lipgloss.Color("#FBBF24")
	ErrorColor   = lipgloss.Color("#F87171")
	SuccessColor = lipgloss.Color("#4ADE80")
)

var (
	LogoStyle          lipgloss.Style
	TitleStyle         lipgloss.Style
	HeaderStyle        lipgloss.Style
	StatusBarStyle     lipgloss.Style
	SelectedRowStyle   lipgloss.Style
	RowStyle           lipgloss.Style
	TicketIDStyle      lipgloss.Style
	TypeBadgeStyle     lipgloss.Style
	SprintStyle        lipgloss.Style
	HelpStyle          lipgloss.Style
	SeparatorStyle     lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
	EmptyStyle         lipgloss.Style
)

func init() {
	buildStyles()
}

// ApplyTheme overrides the palette with configured colors. Empty entries
// keep the built-in color.
func ApplyTheme(colors config.UIColors) {
	set := func(dst *lipgloss.Color, value string) {
		if strings.TrimSpace(value) != "" {
			*dst = lipgloss.Color(value)
		}
	}
	set(&PrimaryColor, colors.Primary)
	set(&SecondaryColor, colors.Secondary)
	set(&AccentColor, colors.Accent)
	set(&BackgroundColor, colors.Background)
	set(&SurfaceColor, colors.Surface)
	set(&TextColor, colors.Text)
	set(&MutedColor, colors.Muted)
	set(&ErrorColor, colors.Error)
	set(&SuccessColor, colors.Success)
	set(&WarningColor, colors.Warning)
	buildStyles()
}

func buildStyles() {
	EmptyStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	LogoStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Padding(0, 1)

	SelectedRowStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(AccentColor).
		Bold(true)

	RowStyle = lipgloss.NewStyle().
		Foreground(TextColor)

	TicketIDStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	TypeBadgeStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor)

	SprintStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Faint(true)

	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	SeparatorStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusInfoStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusSuccessStyle = lipgloss.NewStyle().
		Foreground(SuccessColor)

	StatusWarnStyle = lipgloss.NewStyle().
		Foreground(WarningColor)

	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)
}

// PriorityStyle colors a priority name by severity.
func PriorityStyle(priority string) lipgloss.Style {
	switch strings.ToLower(priority) {
	case "show-stopper", "critical", "blocker", "urgent":
		return lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	case "major", "high":
		return lipgloss.NewStyle().Foreground(WarningColor)
	case "minor", "low":
		return lipgloss.NewStyle().Foreground(MutedColor)
	default:
		return lipgloss.NewStyle().Foreground(TextColor)
	}
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

// GetBanner renders the bordered banner printed by the version command.
func GetBanner(version string) string {
	lines := make([]string, len(LogoLines), len(LogoLines)+2)
	copy(lines, LogoLines)
	lines = append(lines, "")

	tagline := "Ticket quick-launcher"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline = fmt.Sprintf("%s %s", tagline, version)
	}
	lines = append(lines, tagline)

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	border := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1)

	return lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		Render(border.Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...)))
}
