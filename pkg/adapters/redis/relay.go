package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/pkg/notify"
	"github.com/aretw0/arbor/pkg/shadow"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel notifications are published on.
const DefaultChannel = "arbor:notifications"

// Relay publishes engine notifications on a Redis channel and stores the
// latest shadow tree snapshot, so other processes can follow a live graph.
type Relay struct {
	client  *backend.Client
	channel string
	prefix  string
	ttl     time.Duration
	logger  *slog.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithChannel sets the pub/sub channel.
func WithChannel(channel string) Option {
	return func(r *Relay) {
		if channel != "" {
			r.channel = channel
		}
	}
}

// WithPrefix sets the key prefix for stored snapshots.
func WithPrefix(prefix string) Option {
	return func(r *Relay) {
		r.prefix = prefix
	}
}

// WithTTL sets the expiration of stored snapshots.
func WithTTL(ttl time.Duration) Option {
	return func(r *Relay) {
		r.ttl = ttl
	}
}

// WithLogger sets the logger used by Forward.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = l
	}
}

// New creates a relay with its own client.
func New(address, password string, db int, opts ...Option) *Relay {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a relay from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Relay {
	r := &Relay{
		client:  client,
		channel: DefaultChannel,
		prefix:  "arbor:",
		ttl:     0, // No expiration by default
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Channel returns the pub/sub channel in use.
func (r *Relay) Channel() string {
	return r.channel
}

// Publish sends n to every subscriber of the channel.
func (r *Relay) Publish(ctx context.Context, n notify.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Subscribe follows the channel until ctx is done or the returned cancel is
// called. Messages that do not decode are skipped.
func (r *Relay) Subscribe(ctx context.Context) (<-chan notify.Notification, func(), error) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	// Wait for the subscription to be confirmed so no later publish is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan notify.Notification, notify.DefaultBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n notify.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					r.logger.Warn("Skipping malformed notification", "channel", r.channel, "error", err)
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, cancel, nil
}

// Forward publishes everything broadcast on hub until ctx is done.
func (r *Relay) Forward(ctx context.Context, hub *notify.Hub) {
	ch, cancel := hub.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := r.Publish(ctx, n); err != nil {
				r.logger.Error("Relay publish failed", "path", n.Path, "error", err)
			}
		}
	}
}

func (r *Relay) snapshotKey(name string) string {
	return r.prefix + "snapshot:" + name
}

// SaveSnapshot stores snap under name.
func (r *Relay) SaveSnapshot(ctx context.Context, name string, snap *shadow.NodeSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.snapshotKey(name), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the snapshot stored under name, or false if none is.
func (r *Relay) LoadSnapshot(ctx context.Context, name string) (*shadow.NodeSnapshot, bool, error) {
	data, err := r.client.Get(ctx, r.snapshotKey(name)).Bytes()
	if err == backend.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	var snap shadow.NodeSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, true, nil
}

// Close closes the underlying client.
func (r *Relay) Close() error {
	return r.client.Close()
}
