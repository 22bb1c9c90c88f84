package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the arbor ASCII art banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	if !IsTerminal(w) {
		p = termenv.Ascii
	}
	// A green gradient, trunk to canopy.
	lines := []struct{ text, color string }{
		{"     _         _                ", "#166534"},
		{"    / \\   _ __| |__   ___  _ __ ", "#15803d"},
		{"   / _ \\ | '__| '_ \\ / _ \\| '__|", "#16a34a"},
		{"  / ___ \\| |  | |_) | (_) | |   ", "#22c55e"},
		{" /_/   \\_\\_|  |_.__/ \\___/|_|   ", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "  %s\n\n", p.String("v"+strings.TrimSpace(version)).Faint())
}
