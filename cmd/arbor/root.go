package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/demo"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/config"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/notify"
	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor mirrors a live object graph into an observable shadow tree",
	Long: `Arbor attaches to an object graph, mirrors it into a shadow tree and keeps
the mirror in sync, forwarding every change from any depth to one consumer.

The commands below run against a bundled shop order model.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML or JSON configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the configuration")
}

// loadConfig reads the --config file, if any, and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Defaults()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)
	// Background tasks report through the same handler and level.
	lifecycle.SetLogger(logger)
	return logger, nil
}

// session is an engine attached to the demo order.
type session struct {
	cfg    config.Config
	logger *slog.Logger
	order  *demo.Order
	engine *arbor.Engine
	hub    *notify.Hub
}

// openSession attaches to a fresh demo order. Every notification is
// broadcast on the session hub, then passed to onChange if set.
func openSession(cmd *cobra.Command, onChange func(notify.Notification)) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:    cfg,
		logger: logger,
		order:  demo.NewOrder(),
		hub:    notify.NewHub(notify.WithLogger(logger)),
	}
	onProperty, onCollection := s.hub.PropertyFunc(nil), s.hub.CollectionFunc(nil)
	if onChange != nil {
		onProperty = s.hub.PropertyFunc(func(sender any, e domain.PropertyChangedEvent) {
			onChange(notify.FromProperty(sender, e))
		})
		onCollection = s.hub.CollectionFunc(func(sender any, e domain.CollectionChangedEvent) {
			onChange(notify.FromCollection(sender, e))
		})
	}

	s.engine, err = arbor.Attach(s.order, onProperty,
		arbor.WithCollectionChanged(onCollection),
		arbor.WithConfig(&cfg),
		arbor.WithLogger(logger),
	)
	if err != nil {
		s.hub.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) Close() {
	s.engine.Close()
	s.hub.Close()
}
