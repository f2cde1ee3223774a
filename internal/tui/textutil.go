package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// truncateEnd shortens s to at most limit terminal cells, ending with an
// ellipsis when anything was cut.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	return runewidth.Truncate(s, limit, ellipsis)
}

// truncateMiddle keeps both ends of s and cuts from the middle. Sprint
// lists read better this way since the latest sprint is last.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= limit {
		return s
	}
	if limit == 1 {
		return ellipsis
	}

	keep := limit - 1
	left := keep / 2
	right := keep - left

	r := []rune(s)
	head := runewidth.Truncate(s, left, "")
	tail := ""
	for i := len(r) - 1; i >= 0; i-- {
		next := string(r[i:])
		if runewidth.StringWidth(next) > right {
			break
		}
		tail = next
	}
	return head + ellipsis + tail
}

// fitCell truncates s to width cells and pads it so columns line up.
func fitCell(s string, width int) string {
	return runewidth.FillRight(truncateEnd(s, width), width)
}

// singleLine collapses newlines and tabs so a summary never breaks a row.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
