package storage

import (
	"context"
	"strconv"

	"github.com/0xmhha/forge-indexer-go/internal/constants"
)

// GlobalStats is the singleton aggregate row. Counters only ever increase;
// they are maintained as a side effect of event application, never by
// scanning the entity set.
type GlobalStats struct {
	// ID is always GlobalStatsID
	ID          string `json:"id"`
	TotalTokens uint64 `json:"totalTokens"`
	TotalMints  uint64 `json:"totalMints"`
	TotalUsers  uint64 `json:"totalUsers"`
	TotalEvents uint64 `json:"totalEvents"`
	LastUpdated uint64 `json:"lastUpdated"`
}

// DailyStats is one UTC day bucket of activity counters. Buckets are keyed
// by floor(timestamp/86400) and never merged.
type DailyStats struct {
	// ID is the decimal day bucket
	ID string `json:"id"`

	// Day = floor(timestamp / 86400)
	Day uint64 `json:"day"`

	TokensCreated uint64 `json:"tokensCreated"`
	TokensMinted  uint64 `json:"tokensMinted"`

	// ActiveUsers increments once per event in the bucket, not per distinct
	// user, so multi-interaction users are overcounted
	ActiveUsers uint64 `json:"activeUsers"`
}

// DayBucket returns the daily stats bucket for a Unix timestamp
func DayBucket(timestamp uint64) uint64 {
	return timestamp / constants.SecondsPerDay
}

// GetGlobalStats retrieves the singleton stats row.
// Returns ErrNotFound before the first event has been applied.
func (s *Store) GetGlobalStats(ctx context.Context) (*GlobalStats, error) {
	return getRecord[GlobalStats](s, GlobalStatsKey())
}

// SaveGlobalStats stores the singleton stats row
func (s *Store) SaveGlobalStats(ctx context.Context, stats *GlobalStats) error {
	stats.ID = GlobalStatsID
	return saveRecord(s, GlobalStatsKey(), stats)
}

// GetDailyStats retrieves one day bucket
func (s *Store) GetDailyStats(ctx context.Context, day uint64) (*DailyStats, error) {
	return getRecord[DailyStats](s, DailyStatsKey(day))
}

// SaveDailyStats stores one day bucket
func (s *Store) SaveDailyStats(ctx context.Context, stats *DailyStats) error {
	stats.ID = strconv.FormatUint(stats.Day, 10)
	return saveRecord(s, DailyStatsKey(stats.Day), stats)
}

// ListDailyStats lists day buckets
func (s *Store) ListDailyStats(ctx context.Context, opts ListOptions) ([]*DailyStats, error) {
	return listRecords[DailyStats](s, []byte(prefixDaily), opts)
}
