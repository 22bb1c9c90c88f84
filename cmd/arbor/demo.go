package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/demo"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/notify"
	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Play scripted mutations on a shop order and show the shadow tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		delay, _ := cmd.Flags().GetDuration("delay")
		report, _ := cmd.Flags().GetBool("report")
		raw := cmd.OutOrStdout()
		// Deferred values are reported from the poller goroutine.
		out := &syncWriter{w: raw}

		tui.PrintBanner(raw, arbor.Version)

		s, err := openSession(cmd, func(n notify.Notification) {
			detail := n.Property
			if n.Kind == notify.KindCollection {
				detail = n.Action
			}
			fmt.Fprintf(out, "  ~ %s %s on %s\n", n.Kind, detail, n.Path)
		})
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := lifecycle.NewSignalContext(context.Background())
		defer ctx.Stop()

		steps := demo.Serialized(demo.Script(), s.engine.Apply)
		err = demo.Run(ctx, s.order, steps, delay, func(i int, step demo.Step) {
			fmt.Fprintf(out, "\n[%d] %s\n", i+1, step.Description)
		})
		if err != nil {
			return err
		}

		settleCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.engine.Settle(settleCtx); err != nil {
			return fmt.Errorf("waiting for deferred values: %w", err)
		}

		snap, err := s.engine.Snapshot()
		if err != nil {
			return err
		}
		fmt.Fprintln(raw)
		tui.PrintTree(raw, snap)

		if report {
			render := tui.NewRenderer(tui.IsTerminal(raw))
			md, err := render(tui.Report("Order "+s.order.ID, snap))
			if err != nil {
				return err
			}
			fmt.Fprintln(raw, md)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().Duration("delay", 300*time.Millisecond, "Pause between scripted steps")
	demoCmd.Flags().Bool("report", false, "Print a markdown report of the final tree")
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
