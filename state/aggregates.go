package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/0xmhha/forge-indexer-go/storage"
)

// Aggregator maintains the singleton global row and the per-day buckets as a
// side effect of transitions. Counters only ever increase and are never
// recomputed by scanning the entity set.
type Aggregator struct {
	store *storage.Store
}

// NewAggregator creates an aggregate maintainer over the store
func NewAggregator(store *storage.Store) *Aggregator {
	return &Aggregator{store: store}
}

// TokenCreated counts one token creation
func (a *Aggregator) TokenCreated(ctx context.Context, timestamp uint64) error {
	if err := a.global(ctx, timestamp, func(s *storage.GlobalStats) {
		s.TotalTokens++
	}); err != nil {
		return err
	}
	return a.daily(ctx, timestamp, func(s *storage.DailyStats) {
		s.TokensCreated++
	})
}

// TokenMinted counts one mint
func (a *Aggregator) TokenMinted(ctx context.Context, timestamp uint64) error {
	if err := a.global(ctx, timestamp, func(s *storage.GlobalStats) {
		s.TotalMints++
	}); err != nil {
		return err
	}
	return a.daily(ctx, timestamp, func(s *storage.DailyStats) {
		s.TokensMinted++
	})
}

// UserCreated counts one lazily-created user
func (a *Aggregator) UserCreated(ctx context.Context, timestamp uint64) error {
	return a.global(ctx, timestamp, func(s *storage.GlobalStats) {
		s.TotalUsers++
	})
}

// EventApplied counts one journaled event. The daily activeUsers counter
// increments once per event, not per distinct user, so a user interacting
// several times in one day counts once per interaction.
func (a *Aggregator) EventApplied(ctx context.Context, timestamp uint64) error {
	if err := a.global(ctx, timestamp, func(s *storage.GlobalStats) {
		s.TotalEvents++
	}); err != nil {
		return err
	}
	return a.daily(ctx, timestamp, func(s *storage.DailyStats) {
		s.ActiveUsers++
	})
}

func (a *Aggregator) global(ctx context.Context, timestamp uint64, mutate func(*storage.GlobalStats)) error {
	stats, err := a.store.GetGlobalStats(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		stats = &storage.GlobalStats{ID: storage.GlobalStatsID}
	} else if err != nil {
		return fmt.Errorf("failed to load global stats: %w", err)
	}

	mutate(stats)
	stats.LastUpdated = timestamp

	if err := a.store.SaveGlobalStats(ctx, stats); err != nil {
		return fmt.Errorf("failed to save global stats: %w", err)
	}
	return nil
}

func (a *Aggregator) daily(ctx context.Context, timestamp uint64, mutate func(*storage.DailyStats)) error {
	day := storage.DayBucket(timestamp)

	stats, err := a.store.GetDailyStats(ctx, day)
	if errors.Is(err, storage.ErrNotFound) {
		stats = &storage.DailyStats{
			ID:  strconv.FormatUint(day, 10),
			Day: day,
		}
	} else if err != nil {
		return fmt.Errorf("failed to load daily stats: %w", err)
	}

	mutate(stats)

	if err := a.store.SaveDailyStats(ctx, stats); err != nil {
		return fmt.Errorf("failed to save daily stats: %w", err)
	}
	return nil
}
