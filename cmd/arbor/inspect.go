package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the shadow tree of the shop order",
	Long:  `Attaches to a fresh shop order and prints its shadow tree as text, tree, json, mermaid or markdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		path, _ := cmd.Flags().GetString("path")
		out := cmd.OutOrStdout()

		s, err := openSession(cmd, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		if format == "text" && path == "" {
			text, err := s.engine.Render()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, text)
			return nil
		}

		snap, err := s.engine.Snapshot()
		if err != nil {
			return err
		}
		if path != "" {
			node, ok, err := s.engine.Find(path)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no node at %s", path)
			}
			snap = node
		}

		switch format {
		case "text", "tree":
			tui.PrintTree(out, snap)
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		case "mermaid":
			fmt.Fprint(out, graph.GenerateMermaid(snap, nil))
		case "markdown":
			render := tui.NewRenderer(tui.IsTerminal(out))
			md, err := render(tui.Report("Shadow tree", snap))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, md)
		default:
			return fmt.Errorf("unknown format %q", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("format", "f", "text", "Output format (text, tree, json, mermaid, markdown)")
	inspectCmd.Flags().String("path", "", "Print only the subtree at this path")
}
