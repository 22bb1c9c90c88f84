package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/shadow"
)

// Report summarizes a shadow tree snapshot as markdown.
func Report(title string, root *shadow.NodeSnapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	var nodes, waiting, handles int
	var rows []string
	root.Walk(func(n *shadow.NodeSnapshot, _ int) {
		nodes++
		handles += len(n.Subscribed)
		if domain.ParseStatus(n.Status).Has(domain.WaitingForValue) {
			waiting++
		}
		rows = append(rows, fmt.Sprintf("| `%s` | %s | %s | %s |",
			n.Path, n.Status, cell(n.Instance), cell(strings.Join(n.Subscribed, ", "))))
	})

	fmt.Fprintf(&sb, "- **Nodes:** %d\n- **Subscriptions:** %d\n- **Waiting for a value:** %d\n\n", nodes, handles, waiting)
	sb.WriteString("| Path | Status | Instance | Handles |\n")
	sb.WriteString("| --- | --- | --- | --- |\n")
	for _, r := range rows {
		sb.WriteString(r)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}
