package fetch

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/forge-indexer-go/events"
)

var testContract = common.HexToAddress("0x00000000000000000000000000000000000f069e")

// queryRecord is one observed FilterLogs call
type queryRecord struct {
	topic common.Hash
	from  uint64
	to    uint64
	seq   int64
}

// fakeSource implements LogSource with an injectable handler and records
// every query with a global sequence number for ordering assertions
type fakeSource struct {
	name    string
	seq     *atomic.Int64
	handler func(q ethereum.FilterQuery) ([]types.Log, error)

	mu      sync.Mutex
	queries []queryRecord
}

func (f *fakeSource) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	rec := queryRecord{
		topic: q.Topics[0][0],
		from:  q.FromBlock.Uint64(),
		to:    q.ToBlock.Uint64(),
	}
	if f.seq != nil {
		rec.seq = f.seq.Add(1)
	}
	f.mu.Lock()
	f.queries = append(f.queries, rec)
	f.mu.Unlock()

	if f.handler != nil {
		return f.handler(q)
	}
	return nil, nil
}

func (f *fakeSource) Endpoint() string { return f.name }

func (f *fakeSource) recorded() []queryRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]queryRecord(nil), f.queries...)
}

// roleLog builds a decodeable RoleGranted log (all fields in topics)
func roleLog(block uint64, index uint) types.Log {
	return types.Log{
		Address: testContract,
		Topics: []common.Hash{
			events.SigRoleGranted,
			events.RoleMinter,
			common.BytesToHash(common.HexToAddress("0x01").Bytes()),
			common.BytesToHash(common.HexToAddress("0x02").Bytes()),
		},
		BlockNumber: block,
		Index:       index,
	}
}

// transferLog builds a decodeable TransferSingle log; id and value are
// static uint256 words so the data section is two 32-byte words
func transferLog(block uint64, index uint, id, value int64) types.Log {
	data := append(
		common.BigToHash(big.NewInt(id)).Bytes(),
		common.BigToHash(big.NewInt(value)).Bytes()...,
	)
	return types.Log{
		Address: testContract,
		Topics: []common.Hash{
			events.SigTransferSingle,
			common.BytesToHash(common.HexToAddress("0x0a").Bytes()),
			common.BytesToHash(common.Address{}.Bytes()),
			common.BytesToHash(common.HexToAddress("0x0b").Bytes()),
		},
		Data:        data,
		BlockNumber: block,
		Index:       index,
	}
}

func testConfig() *Config {
	return &Config{
		Contract:          testContract,
		MaxBlockSpan:      2000,
		MaxAttempts:       3,
		RequestsPerSecond: 10000, // effectively unthrottled in tests
	}
}

func newTestScheduler(t *testing.T, cfg *Config, sources ...LogSource) *Scheduler {
	t.Helper()
	s, err := NewScheduler(sources, cfg, nil)
	require.NoError(t, err)
	return s
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "zero contract", mutate: func(c *Config) { c.Contract = common.Address{} }, wantErr: true},
		{name: "zero span", mutate: func(c *Config) { c.MaxBlockSpan = 0 }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.MaxAttempts = 0 }, wantErr: true},
		{name: "zero rate", mutate: func(c *Config) { c.RequestsPerSecond = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitRange(t *testing.T) {
	tests := []struct {
		name    string
		from    uint64
		to      uint64
		maxSpan uint64
		want    []span
	}{
		{
			name: "fits in one span",
			from: 0, to: 999, maxSpan: 2000,
			want: []span{{0, 999}},
		},
		{
			name: "exact multiple",
			from: 0, to: 3999, maxSpan: 2000,
			want: []span{{0, 1999}, {2000, 3999}},
		},
		{
			name: "remainder span",
			from: 100, to: 4599, maxSpan: 2000,
			want: []span{{100, 2099}, {2100, 4099}, {4100, 4599}},
		},
		{
			name: "single block",
			from: 5, to: 5, maxSpan: 2000,
			want: []span{{5, 5}},
		},
		{
			name: "span of one",
			from: 0, to: 2, maxSpan: 1,
			want: []span{{0, 0}, {1, 1}, {2, 2}},
		},
		{
			name: "inverted range",
			from: 10, to: 5, maxSpan: 2000,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitRange(tt.from, tt.to, tt.maxSpan))
		})
	}
}

func TestSplitRangeCoversRange(t *testing.T) {
	cases := []struct{ from, to, maxSpan uint64 }{
		{0, 99999, 2000},
		{17, 40001, 999},
		{1000000, 1000000, 1},
		{3, 10, 3},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d-%d-%d", tc.from, tc.to, tc.maxSpan), func(t *testing.T) {
			spans := splitRange(tc.from, tc.to, tc.maxSpan)
			require.NotEmpty(t, spans)

			assert.Equal(t, tc.from, spans[0].from, "first span starts at from")
			assert.Equal(t, tc.to, spans[len(spans)-1].to, "last span ends at to")

			for i, sp := range spans {
				assert.LessOrEqual(t, sp.from, sp.to)
				width := sp.to - sp.from + 1
				assert.LessOrEqual(t, width, tc.maxSpan, "span %d too wide", i)
				if i > 0 {
					assert.Equal(t, spans[i-1].to+1, sp.from, "span %d not contiguous", i)
				}
			}
		})
	}
}

func TestFetchRangeOrdersAcrossKinds(t *testing.T) {
	source := &fakeSource{
		name: "a",
		handler: func(q ethereum.FilterQuery) ([]types.Log, error) {
			switch q.Topics[0][0] {
			case events.SigTransferSingle:
				return []types.Log{transferLog(5, 2, 1, 10), transferLog(3, 1, 2, 20)}, nil
			case events.SigRoleGranted:
				return []types.Log{roleLog(3, 0)}, nil
			default:
				return nil, nil
			}
		},
	}

	s := newTestScheduler(t, testConfig(), source)
	result, err := s.FetchRange(context.Background(), 0, 100)
	require.NoError(t, err)
	require.Empty(t, result.FailedRanges)
	require.Len(t, result.Events, 3)

	assert.Equal(t, events.KindRoleGranted, result.Events[0].Kind())
	assert.Equal(t, uint64(3), result.Events[0].Log().BlockNumber)
	assert.Equal(t, uint(0), result.Events[0].Log().Index)

	assert.Equal(t, events.KindTransferSingle, result.Events[1].Kind())
	assert.Equal(t, uint64(3), result.Events[1].Log().BlockNumber)
	assert.Equal(t, uint(1), result.Events[1].Log().Index)

	assert.Equal(t, uint64(5), result.Events[2].Log().BlockNumber)
}

func TestFetchRangeChunksUnderSpanLimit(t *testing.T) {
	source := &fakeSource{name: "a"}
	cfg := testConfig()
	cfg.MaxBlockSpan = 10

	s := newTestScheduler(t, cfg, source)
	result, err := s.FetchRange(context.Background(), 0, 25)
	require.NoError(t, err)
	assert.Empty(t, result.FailedRanges)
	assert.Empty(t, result.Events)

	// Every kind must query the same three sub-ranges
	wantSpans := map[[2]uint64]int{
		{0, 9}:   0,
		{10, 19}: 0,
		{20, 25}: 0,
	}
	recorded := source.recorded()
	assert.Len(t, recorded, len(events.AllKinds())*3)

	for _, rec := range recorded {
		key := [2]uint64{rec.from, rec.to}
		_, ok := wantSpans[key]
		require.True(t, ok, "unexpected query span [%d, %d]", rec.from, rec.to)
		wantSpans[key]++
	}
	for key, count := range wantSpans {
		assert.Equal(t, len(events.AllKinds()), count, "span %v queried wrong number of times", key)
	}
}

func TestFetchRangeRotatesProviders(t *testing.T) {
	seq := &atomic.Int64{}
	failing := &fakeSource{
		name: "a",
		seq:  seq,
		handler: func(ethereum.FilterQuery) ([]types.Log, error) {
			return nil, fmt.Errorf("overloaded")
		},
	}
	healthy := &fakeSource{name: "b", seq: seq}

	s := newTestScheduler(t, testConfig(), failing, healthy)
	result, err := s.FetchRange(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Empty(t, result.FailedRanges, "second provider should have served every sub-range")

	kinds := events.AllKinds()
	assert.Len(t, failing.recorded(), len(kinds), "first provider gets the first attempt per kind")
	assert.Len(t, healthy.recorded(), len(kinds), "each kind fails over exactly once")

	// Per kind the failing provider must have been tried before the healthy one
	firstSeq := make(map[common.Hash]int64)
	for _, rec := range failing.recorded() {
		firstSeq[rec.topic] = rec.seq
	}
	for _, rec := range healthy.recorded() {
		first, ok := firstSeq[rec.topic]
		require.True(t, ok)
		assert.Greater(t, rec.seq, first, "rotation must follow configured provider order")
	}
}

func TestFetchRangeReportsFailedRanges(t *testing.T) {
	source := &fakeSource{
		name: "a",
		handler: func(q ethereum.FilterQuery) ([]types.Log, error) {
			if q.Topics[0][0] == events.SigTransferSingle && q.FromBlock.Uint64() == 10 {
				return nil, fmt.Errorf("range too large")
			}
			if q.Topics[0][0] == events.SigTransferSingle {
				return []types.Log{transferLog(q.FromBlock.Uint64(), 0, 1, 1)}, nil
			}
			return nil, nil
		},
	}

	cfg := testConfig()
	cfg.MaxBlockSpan = 10
	cfg.MaxAttempts = 2

	s := newTestScheduler(t, cfg, source)
	result, err := s.FetchRange(context.Background(), 0, 19)
	require.NoError(t, err)

	require.Len(t, result.FailedRanges, 1)
	failed := result.FailedRanges[0]
	assert.Equal(t, events.KindTransferSingle, failed.Kind)
	assert.Equal(t, uint64(10), failed.From)
	assert.Equal(t, uint64(19), failed.To)
	require.Error(t, failed.Err)
	assert.Contains(t, failed.Err.Error(), "after 2 attempts")

	// The surviving sub-range still contributes its events
	require.Len(t, result.Events, 1)
	assert.Equal(t, uint64(0), result.Events[0].Log().BlockNumber)
}

func TestFetchRangeDropsUndecodableLogs(t *testing.T) {
	source := &fakeSource{
		name: "a",
		handler: func(q ethereum.FilterQuery) ([]types.Log, error) {
			if q.Topics[0][0] == events.SigTransferSingle {
				// Signature matches but the indexed topics are missing
				return []types.Log{{
					Topics:      []common.Hash{events.SigTransferSingle},
					BlockNumber: 4,
				}}, nil
			}
			return nil, nil
		},
	}

	s := newTestScheduler(t, testConfig(), source)
	result, err := s.FetchRange(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Empty(t, result.Events)
	assert.Empty(t, result.FailedRanges)
}

func TestFetchRangeInvalidRange(t *testing.T) {
	s := newTestScheduler(t, testConfig(), &fakeSource{name: "a"})
	_, err := s.FetchRange(context.Background(), 10, 5)
	assert.Error(t, err)
}

func TestFetchRangeCanceledContext(t *testing.T) {
	s := newTestScheduler(t, testConfig(), &fakeSource{name: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FetchRange(ctx, 0, 100)
	assert.Error(t, err)
}

func TestNewSchedulerValidation(t *testing.T) {
	_, err := NewScheduler(nil, testConfig(), nil)
	assert.Error(t, err, "no sources")

	_, err = NewScheduler([]LogSource{&fakeSource{name: "a"}}, nil, nil)
	assert.Error(t, err, "nil config")

	bad := testConfig()
	bad.MaxAttempts = 0
	_, err = NewScheduler([]LogSource{&fakeSource{name: "a"}}, bad, nil)
	assert.Error(t, err, "invalid config")
}
