package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/shadow"
	"github.com/stretchr/testify/assert"
)

func snapshot() *shadow.NodeSnapshot {
	return &shadow.NodeSnapshot{
		Element: "model", Name: "(Origin)Order", Path: "(Origin)Order",
		Status: "PropertyChangeSource", Instance: "[shop.Order]", Subscribed: []string{"onpc"},
		Children: []*shadow.NodeSnapshot{
			{Element: "member", Name: "Note", Path: "(Origin)Order/Note", Status: "WaitingForValue"},
			{Element: "member", Name: "Total", Path: "(Origin)Order/Total", Status: "NoObservableMembers", RuntimeType: "int"},
		},
	}
}

func TestPrintTree_PlainWriter(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintTree(&buf, snapshot())

	want := "(Origin)Order PropertyChangeSource [shop.Order] [onpc]\n" +
		"  Note WaitingForValue\n" +
		"  Total NoObservableMembers (int)\n"
	assert.Equal(t, want, buf.String())
	assert.False(t, tui.IsTerminal(&buf))
}

func TestReport(t *testing.T) {
	md := tui.Report("Order", snapshot())

	assert.True(t, strings.HasPrefix(md, "# Order\n"))
	assert.Contains(t, md, "- **Nodes:** 3")
	assert.Contains(t, md, "- **Subscriptions:** 1")
	assert.Contains(t, md, "- **Waiting for a value:** 1")
	assert.Contains(t, md, "| `(Origin)Order/Note` | WaitingForValue | - | - |")
}

func TestRenderer_PassThrough(t *testing.T) {
	render := tui.NewRenderer(false)
	out, err := render("# Title")
	assert.NoError(t, err)
	assert.Equal(t, "# Title", out)
}

func TestPrintBanner_PlainWriter(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.NotContains(t, buf.String(), "\x1b[")
}
