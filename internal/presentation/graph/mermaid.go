package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/shadow"
)

// Overlay contains dynamic data to visualize on the graph.
type Overlay struct {
	// Changed lists the paths of recently notified nodes.
	Changed []string
}

// GenerateMermaid produces a Mermaid flowchart of a shadow tree snapshot.
// It applies semantic styling:
// - Instance slot: ([Stadium])
// - Property slot: [Rectangle]
// - Waiting for a value: [/Parallelogram/]
// - Terminal value: (Rounded)
// Subscribed nodes are drawn with a thick border, and overlay paths are highlighted.
func GenerateMermaid(root *shadow.NodeSnapshot, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if root == nil {
		return sb.String()
	}

	ids := make(map[*shadow.NodeSnapshot]string)
	byPath := make(map[string]string)
	var subscribed []string

	root.Walk(func(n *shadow.NodeSnapshot, _ int) {
		id := fmt.Sprintf("n%d", len(ids))
		ids[n] = id
		byPath[n.Path] = id

		status := domain.ParseStatus(n.Status)
		opener, closer := "[", "]"
		switch {
		case status.Has(domain.WaitingForValue):
			opener, closer = "[/", "/]"
		case status.Has(domain.NoObservableMembers):
			opener, closer = "(", ")"
		case n.Element == domain.ElementModel:
			opener, closer = "([", "])"
		}

		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, label(n), closer))
		if len(n.Subscribed) > 0 {
			subscribed = append(subscribed, id)
		}
	})

	root.Walk(func(n *shadow.NodeSnapshot, _ int) {
		for _, c := range n.Children {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", ids[n], ids[c]))
		}
	})

	if len(subscribed) > 0 {
		sb.WriteString("\n    %% Subscriptions\n")
		sb.WriteString("    classDef subscribed stroke:#2e7d32,stroke-width:3px;\n")
		sb.WriteString(fmt.Sprintf("    class %s subscribed;\n", strings.Join(subscribed, ",")))
	}

	if overlay != nil && len(overlay.Changed) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds.
		sb.WriteString("    classDef changed fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		seen := make(map[string]bool)
		for _, p := range overlay.Changed {
			id, ok := byPath[p]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			sb.WriteString(fmt.Sprintf("    class %s changed;\n", id))
		}
	}

	return sb.String()
}

func label(n *shadow.NodeSnapshot) string {
	name := n.Name
	if n.Element == domain.ElementModel && strings.Contains(n.Path, "/") {
		name = n.Path[strings.LastIndex(n.Path, "/")+1:]
	}
	text := name
	if n.Instance != "" {
		text += " <br/> " + n.Instance
	} else if n.RuntimeType != "" {
		text += " <br/> " + n.RuntimeType
	}
	return strings.ReplaceAll(text, "\"", "'")
}
