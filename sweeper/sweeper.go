// Package sweeper maintains the rolling window: it periodically trims
// per-category timestamps older than the retention period, with matching
// counter decrements. Removal atomicity lives in the store, so sweeps are safe
// against concurrent live evaluations.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/veilchat/sentinel/counterstore"
)

type Sweeper struct {
	Logger *slog.Logger
	Store  counterstore.Store
	// Window defaults to the store's rolling window.
	Window time.Duration
	// Interval between full sweeps when running periodically.
	Interval time.Duration
}

func New(logger *slog.Logger, store counterstore.Store) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		Logger:   logger,
		Store:    store,
		Window:   counterstore.RollingWindow,
		Interval: time.Hour,
	}
}

// SweepUser trims one user's counters. Idempotent.
func (s *Sweeper) SweepUser(ctx context.Context, userID string) error {
	cutoff := time.Now().UTC().Add(-s.Window)
	return s.Store.TrimBefore(ctx, userID, cutoff)
}

// SweepAll trims every user with a counter document. Per-user failures are
// logged and skipped; the sweep itself keeps going.
func (s *Sweeper) SweepAll(ctx context.Context) error {
	users, err := s.Store.ListUsers(ctx)
	if err != nil {
		return err
	}
	start := time.Now()
	failed := 0
	for _, uid := range users {
		if err := s.SweepUser(ctx, uid); err != nil {
			failed++
			s.Logger.Error("sweeping user counters", "err", err, "user", uid)
		}
	}
	s.Logger.Info("sweep complete", "users", len(users), "failed", failed, "duration", time.Since(start))
	return nil
}

// Run performs a full sweep every Interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.SweepAll(ctx); err != nil {
				s.Logger.Error("periodic sweep failed", "err", err)
			}
		}
	}
}
