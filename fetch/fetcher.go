package fetch

import (
	"context"
	"fmt"
	"math/big"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/0xmhha/forge-indexer-go/events"
	"github.com/0xmhha/forge-indexer-go/internal/constants"
)

// LogSource is one provider's log query surface
type LogSource interface {
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	Endpoint() string
}

// Config holds scheduler configuration
type Config struct {
	// Contract is the address whose events are fetched
	Contract common.Address

	// MaxBlockSpan is the widest block range a single log query may cover
	MaxBlockSpan uint64

	// MaxAttempts bounds retries per sub-range; each attempt rotates to the
	// next provider in the configured order
	MaxAttempts int

	// RequestsPerSecond bounds the log query rate across all kinds
	RequestsPerSecond float64
}

// Validate validates the scheduler configuration
func (c *Config) Validate() error {
	if c.Contract == (common.Address{}) {
		return fmt.Errorf("contract address must be set")
	}
	if c.MaxBlockSpan == 0 {
		return fmt.Errorf("max block span must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	return nil
}

// DefaultConfig returns a scheduler configuration with default limits
func DefaultConfig(contract common.Address) *Config {
	return &Config{
		Contract:          contract,
		MaxBlockSpan:      constants.DefaultMaxBlockSpan,
		MaxAttempts:       constants.DefaultMaxAttempts,
		RequestsPerSecond: constants.DefaultRequestsPerSecond,
	}
}

// FailedRange records a sub-range abandoned after every retry failed
type FailedRange struct {
	Kind events.Kind
	From uint64
	To   uint64
	Err  error
}

// Result is the outcome of one range fetch: the merged, ordered events plus
// every sub-range that could not be served. Callers decide whether failed
// ranges are fatal; the scheduler never hides them.
type Result struct {
	Events       []events.Event
	FailedRanges []FailedRange
}

// Scheduler fetches contract logs over a block range in sub-ranges small
// enough for provider span limits, one concurrent task per event kind.
type Scheduler struct {
	sources []LogSource
	config  *Config
	logger  *zap.Logger
	limiter *rate.Limiter
	metrics *Metrics
}

// NewScheduler creates a scheduler over an ordered provider list
func NewScheduler(sources []LogSource, config *Config, logger *zap.Logger) (*Scheduler, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("at least one log source required")
	}
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fetch config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		sources: sources,
		config:  config,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}, nil
}

// SetMetrics attaches Prometheus metrics
func (s *Scheduler) SetMetrics(metrics *Metrics) {
	s.metrics = metrics
}

// span is an inclusive block range no wider than MaxBlockSpan
type span struct {
	from uint64
	to   uint64
}

// splitRange cuts [from, to] into consecutive non-overlapping spans of at
// most maxSpan blocks each
func splitRange(from, to, maxSpan uint64) []span {
	if from > to {
		return nil
	}

	var spans []span
	for start := from; start <= to; {
		end := start + maxSpan - 1
		if end > to || end < start {
			end = to
		}
		spans = append(spans, span{from: start, to: end})
		if end == to {
			break
		}
		start = end + 1
	}
	return spans
}

// kindResult is one kind's share of a range fetch
type kindResult struct {
	events []events.Event
	failed []FailedRange
}

// FetchRange fetches every contract event in [from, to], ordered by
// (block number, log index). Sub-ranges whose retries are exhausted are
// reported in the result rather than silently skipped.
func (s *Scheduler) FetchRange(ctx context.Context, from, to uint64) (*Result, error) {
	if from > to {
		return nil, fmt.Errorf("invalid range: from %d > to %d", from, to)
	}

	spans := splitRange(from, to, s.config.MaxBlockSpan)
	kinds := events.AllKinds()

	s.logger.Info("fetching block range",
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("sub_ranges", len(spans)),
		zap.Int("kinds", len(kinds)))

	// One task per kind; each walks all sub-ranges sequentially
	pool := pond.NewResultPool[kindResult](len(kinds))
	group := pool.NewGroupContext(ctx)
	for _, kind := range kinds {
		kind := kind
		group.Submit(func() kindResult {
			return s.fetchKind(ctx, kind, spans)
		})
	}

	results, err := group.Wait()
	pool.StopAndWait()
	if err != nil {
		return nil, fmt.Errorf("range fetch aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Result{}
	lists := make([][]events.Event, 0, len(results))
	for _, r := range results {
		lists = append(lists, r.events)
		out.FailedRanges = append(out.FailedRanges, r.failed...)
	}
	out.Events = events.Order(lists...)

	s.logger.Info("range fetch complete",
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("events", len(out.Events)),
		zap.Int("failed_ranges", len(out.FailedRanges)))

	return out, nil
}

// fetchKind walks every sub-range for one kind, collecting decoded events
// and abandoned ranges
func (s *Scheduler) fetchKind(ctx context.Context, kind events.Kind, spans []span) kindResult {
	var out kindResult
	topic := events.SignatureTopic(kind)

	for _, sp := range spans {
		if ctx.Err() != nil {
			return out
		}

		logs, err := s.querySpan(ctx, kind, topic, sp)
		if err != nil {
			out.failed = append(out.failed, FailedRange{Kind: kind, From: sp.from, To: sp.to, Err: err})
			if s.metrics != nil {
				s.metrics.RecordFailedRange(kind)
			}
			s.logger.Warn("abandoning sub-range",
				zap.String("kind", string(kind)),
				zap.Uint64("from", sp.from),
				zap.Uint64("to", sp.to),
				zap.Error(err))
			continue
		}

		if s.metrics != nil {
			s.metrics.RecordChunk(kind, len(logs))
		}

		for _, lg := range logs {
			event, err := events.Decode(lg)
			if err != nil {
				// Filters select on signature topics, so this means a
				// malformed log, not an unknown one
				s.logger.Warn("dropping undecodable log",
					zap.String("kind", string(kind)),
					zap.Uint64("block", lg.BlockNumber),
					zap.Uint("log_index", lg.Index),
					zap.Error(err))
				continue
			}
			out.events = append(out.events, event)
		}
	}

	return out
}

// querySpan runs one sub-range query with bounded retries, moving to the
// next provider on each failure
func (s *Scheduler) querySpan(ctx context.Context, kind events.Kind, topic common.Hash, sp span) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{s.config.Contract},
		Topics:    [][]common.Hash{{topic}},
		FromBlock: new(big.Int).SetUint64(sp.from),
		ToBlock:   new(big.Int).SetUint64(sp.to),
	}

	var lastErr error
	for attempt := 0; attempt < s.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if attempt > 0 && s.metrics != nil {
			s.metrics.RecordRotation()
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		source := s.sources[attempt%len(s.sources)]
		logs, err := source.FilterLogs(ctx, query)
		if err == nil {
			return logs, nil
		}
		lastErr = err

		s.logger.Warn("sub-range query failed",
			zap.String("kind", string(kind)),
			zap.String("endpoint", source.Endpoint()),
			zap.Uint64("from", sp.from),
			zap.Uint64("to", sp.to),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", s.config.MaxAttempts),
			zap.Error(err))
	}

	return nil, fmt.Errorf("query failed after %d attempts: %w", s.config.MaxAttempts, lastErr)
}
