package cli

import (
	"strings"
	"unicode/utf8"

	"stocksearch/internal/controller"
)

// Truncate shortens s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}

// FormatCookieNames renders the names of stored session cookies.
func FormatCookieNames(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// panelText joins the display lines of a result panel.
func panelText(p controller.Panel) string {
	return strings.Join(p.Lines(), " ")
}

// displayWidth is the number of runes in s once ANSI codes are removed.
func displayWidth(s string) int {
	return utf8.RuneCountInString(stripANSI(s))
}

func padRight(s string, width int) string {
	if n := width - displayWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// stripANSI removes the escape codes Output emits.
func stripANSI(s string) string {
	for _, esc := range []string{ColorReset, ColorRed, ColorGreen, ColorYellow, ColorCyan, ColorBold, ColorDim} {
		s = strings.ReplaceAll(s, esc, "")
	}
	return s
}
