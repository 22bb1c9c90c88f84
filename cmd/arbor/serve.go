package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/arbor/internal/demo"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live shadow tree over HTTP",
	Long: `Attaches to a shop order, plays the demo script in a loop and exposes the
shadow tree, its notifications (SSE) and Prometheus metrics over HTTP.
Notifications are relayed to Redis when an address is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		addr := s.cfg.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		redisAddr := s.cfg.Redis.Addr
		if cmd.Flags().Changed("redis") {
			redisAddr, _ = cmd.Flags().GetString("redis")
		}
		interval, _ := cmd.Flags().GetDuration("interval")

		ctx := lifecycle.NewSignalContext(context.Background())
		defer ctx.Stop()
		defer ctx.Cancel()

		if redisAddr != "" {
			relay := redis.New(redisAddr, "", 0, redis.WithChannel(s.cfg.Redis.Channel), redis.WithLogger(s.logger))
			defer relay.Close()
			lifecycle.Go(ctx, func(ctx context.Context) error {
				relay.Forward(ctx, s.hub)
				return nil
			})
			s.logger.Info("Relaying notifications", "redis", redisAddr, "channel", relay.Channel())
		}

		if interval > 0 {
			// The script is the only writer of s.order; its mutations run on
			// the engine queue so HTTP inspection never observes a half-applied step.
			steps := demo.Serialized(demo.Script(), s.engine.Apply)
			lifecycle.Go(ctx, func(ctx context.Context) error {
				for {
					if err := demo.Run(ctx, s.order, steps, interval, nil); err != nil {
						return nil
					}
					if err := lifecycle.Sleep(ctx, interval); err != nil {
						return nil
					}
					// Restore the initial lines so the script applies again.
					fresh := demo.NewOrder()
					_ = s.engine.Apply(func() {
						s.order.Lines.Clear()
						s.order.Lines.Add(fresh.Lines.Items()...)
					})
				}
			})
		}

		handler := httpAdapter.NewHandler(s.engine,
			httpAdapter.WithHub(s.hub),
			httpAdapter.WithMetrics(s.engine.Metrics().Handler()),
			httpAdapter.WithLogger(s.logger),
		)
		srv := &http.Server{
			Addr:    addr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		lifecycle.Go(ctx, func(ctx context.Context) error {
			s.logger.Info("Starting Arbor Server", "address", srv.Addr)
			serverErrors <- srv.ListenAndServe()
			return nil
		})

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			s.logger.Info("Start shutdown", "reason", ctx.Reason())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()

			// SSE streams only end when the hub closes.
			s.hub.Close()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			s.logger.Info("Arbor Server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on; overrides the configuration")
	serveCmd.Flags().String("redis", "", "Redis address for the notification relay; overrides the configuration")
	serveCmd.Flags().Duration("interval", 2*time.Second, "Pause between scripted mutations (0 disables them)")
}
