package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/shadow"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Palette for node statuses.
var statusColors = []struct {
	flag  domain.Status
	color string
}{
	{domain.WaitingForValue, "#facc15"},
	{domain.PropertyChangeSource, "#4ade80"},
	{domain.CollectionChangeSource, "#38bdf8"},
	{domain.NoObservableMembers, "#a1a1aa"},
	{domain.NoChangeCapability, "#f87171"},
}

// PrintTree writes an indented outline of a shadow tree snapshot. Colors are
// used only when w is a terminal.
func PrintTree(w io.Writer, root *shadow.NodeSnapshot) {
	p := termenv.Ascii
	if IsTerminal(w) {
		p = termenv.ColorProfile()
	}

	root.Walk(func(n *shadow.NodeSnapshot, depth int) {
		name := n.Name
		if depth > 0 && n.Element == domain.ElementModel {
			name = n.Path[strings.LastIndex(n.Path, "/")+1:]
		}

		status := domain.ParseStatus(n.Status)
		styled := p.String(name).Bold()
		for _, sc := range statusColors {
			if status.Has(sc.flag) {
				styled = styled.Foreground(p.Color(sc.color))
				break
			}
		}

		detail := n.Status
		if n.Instance != "" {
			detail += " " + n.Instance
		}
		if n.RuntimeType != "" {
			detail += " (" + n.RuntimeType + ")"
		}
		if len(n.Subscribed) > 0 {
			detail += " [" + strings.Join(n.Subscribed, ",") + "]"
		}

		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", depth), styled, p.String(detail).Faint())
	})
}
