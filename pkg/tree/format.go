package tree

import (
	"sort"
	"strings"
)

// FormatOptions controls Format.
type FormatOptions struct {
	// Deep renders descendants; otherwise only the node and its attributes.
	Deep bool
	// Rank orders attributes. Lower ranks render first; ties keep insertion order.
	// Nil keeps insertion order.
	Rank func(name string) int
	// Indent is repeated once per depth level. Defaults to two spaces.
	Indent string
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")

// Format renders n in an XML-like text form.
func Format(n *Node, opts FormatOptions) string {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	var b strings.Builder
	format(&b, n, opts, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func format(b *strings.Builder, n *Node, opts FormatOptions, depth int) {
	pad := strings.Repeat(opts.Indent, depth)
	b.WriteString(pad)
	b.WriteByte('<')
	b.WriteString(n.name)

	attrs := n.Attributes()
	if opts.Rank != nil {
		sort.SliceStable(attrs, func(i, j int) bool {
			return opts.Rank(attrs[i].name) < opts.Rank(attrs[j].name)
		})
	}
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.name)
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(a.value))
		b.WriteByte('"')
	}

	if !opts.Deep || len(n.children) == 0 {
		b.WriteString(" />\n")
		return
	}
	b.WriteString(">\n")
	for _, c := range n.children {
		format(b, c, opts, depth+1)
	}
	b.WriteString(pad)
	b.WriteString("</")
	b.WriteString(n.name)
	b.WriteString(">\n")
}
