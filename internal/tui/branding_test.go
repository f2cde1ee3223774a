package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/ytspot/internal/config"
)

func TestGetBanner(t *testing.T) {
	out := GetBanner("1.0.0-test")

	if !strings.Contains(out, "Ticket quick-launcher") {
		t.Errorf("Expected banner to contain tagline, got: %s", out)
	}
	if !strings.Contains(out, "v1.0.0-test") {
		t.Errorf("Expected banner to contain version 'v1.0.0-test', got: %s", out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}

	dev := GetBanner("dev")
	if strings.Contains(dev, "vdev") {
		t.Errorf("dev builds should not print a version, got: %s", dev)
	}
}

func TestGetCompactBanner(t *testing.T) {
	message := "Press ctrl+r to sync"
	result := GetCompactBanner(message)

	if !strings.Contains(result, message) {
		t.Errorf("Expected compact banner to contain '%s', got: %s", message, result)
	}
	if !strings.Contains(result, strings.TrimSpace(LogoLines[0])) {
		t.Errorf("Expected compact banner to contain logo elements, got: %s", result)
	}
}

func TestApplyTheme(t *testing.T) {
	original := PrimaryColor
	originalMuted := MutedColor
	t.Cleanup(func() {
		PrimaryColor = original
		MutedColor = originalMuted
		buildStyles()
	})

	ApplyTheme(config.UIColors{Primary: "#000001", Muted: "  "})

	if PrimaryColor != lipgloss.Color("#000001") {
		t.Errorf("PrimaryColor = %v, want #000001", PrimaryColor)
	}
	if MutedColor != originalMuted {
		t.Errorf("blank color should keep default, got %v", MutedColor)
	}
	if LogoStyle.GetForeground() != lipgloss.Color("#000001") {
		t.Error("styles were not rebuilt after theme change")
	}
}

func TestPriorityStyle(t *testing.T) {
	if PriorityStyle("Critical").GetForeground() != ErrorColor {
		t.Error("critical priority should use the error color")
	}
	if PriorityStyle("MAJOR").GetForeground() != WarningColor {
		t.Error("major priority should use the warning color")
	}
	if PriorityStyle("Minor").GetForeground() != MutedColor {
		t.Error("minor priority should be muted")
	}
	if PriorityStyle("Normal").GetForeground() != TextColor {
		t.Error("unknown priority should use the text color")
	}
}

func TestLogoConstants(t *testing.T) {
	if len(LogoLines) == 0 {
		t.Fatal("Expected logo lines")
	}
	if len(BannerColors) == 0 {
		t.Error("Expected banner colors")
	}
}
