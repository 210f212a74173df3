package client

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hitRecorder tracks which provider answered, in order
type hitRecorder struct {
	mu   sync.Mutex
	hits []string
}

func (r *hitRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits = append(r.hits, name)
}

func (r *hitRecorder) order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.hits...)
}

// headProvider builds a fake provider whose eth_blockNumber either answers
// with the given head or fails, recording each hit under name.
func headProvider(t *testing.T, rec *hitRecorder, name string, head string, fail bool) *Client {
	t.Helper()
	server := newFakeProvider(t, map[string]rpcHandler{
		"eth_blockNumber": func([]json.RawMessage) (interface{}, *rpcError) {
			rec.record(name)
			if fail {
				return nil, &rpcError{Code: -32000, Message: "provider overloaded"}
			}
			return head, nil
		},
	})
	return newTestClient(t, server.URL)
}

func fetchHead(head *uint64) func(ctx context.Context, c *Client) error {
	return func(ctx context.Context, c *Client) error {
		got, err := c.GetLatestBlockNumber(ctx)
		if err != nil {
			return err
		}
		*head = got
		return nil
	}
}

func TestNewPoolEmpty(t *testing.T) {
	_, err := NewPool(nil, nil)
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestPoolDoFirstProviderWins(t *testing.T) {
	rec := &hitRecorder{}
	pool, err := NewPool([]*Client{
		headProvider(t, rec, "a", "0x10", false),
		headProvider(t, rec, "b", "0x20", false),
	}, nil)
	require.NoError(t, err)

	var head uint64
	require.NoError(t, pool.Do(context.Background(), fetchHead(&head)))

	assert.Equal(t, uint64(0x10), head)
	assert.Equal(t, []string{"a"}, rec.order(), "second provider must not be consulted on success")
}

func TestPoolDoFailover(t *testing.T) {
	rec := &hitRecorder{}
	rotations := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_rotations_total"})

	pool, err := NewPool([]*Client{
		headProvider(t, rec, "a", "", true),
		headProvider(t, rec, "b", "0x2a", false),
	}, nil)
	require.NoError(t, err)
	pool.SetRotationCounter(rotations)

	var head uint64
	require.NoError(t, pool.Do(context.Background(), fetchHead(&head)))

	assert.Equal(t, uint64(42), head)
	assert.Equal(t, []string{"a", "b"}, rec.order(), "failover must follow configured order")
	assert.Equal(t, float64(1), testutil.ToFloat64(rotations))
}

func TestPoolDoAllFail(t *testing.T) {
	rec := &hitRecorder{}
	pool, err := NewPool([]*Client{
		headProvider(t, rec, "a", "", true),
		headProvider(t, rec, "b", "", true),
	}, nil)
	require.NoError(t, err)

	var head uint64
	err = pool.Do(context.Background(), fetchHead(&head))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 providers failed")
	assert.Equal(t, []string{"a", "b"}, rec.order())
}

func TestPoolDoCanceledContext(t *testing.T) {
	rec := &hitRecorder{}
	pool, err := NewPool([]*Client{
		headProvider(t, rec, "a", "0x1", false),
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var head uint64
	err = pool.Do(ctx, fetchHead(&head))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.order())
}

func TestPoolClientAt(t *testing.T) {
	rec := &hitRecorder{}
	a := headProvider(t, rec, "a", "0x1", false)
	b := headProvider(t, rec, "b", "0x2", false)
	c := headProvider(t, rec, "c", "0x3", false)

	pool, err := NewPool([]*Client{a, b, c}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, pool.Size())
	assert.Same(t, a, pool.ClientAt(0))
	assert.Same(t, b, pool.ClientAt(1))
	assert.Same(t, c, pool.ClientAt(2))
	assert.Same(t, a, pool.ClientAt(3), "attempts beyond the list wrap around")
	assert.Same(t, b, pool.ClientAt(4))
}

// chainIDProvider answers eth_chainId with the given ID. When failAfterPing
// is set, only the construction-time ping succeeds and every later call
// fails, so the provider can stand in for one that went away after connect.
func chainIDProvider(t *testing.T, id string, failAfterPing bool) *Client {
	t.Helper()
	var calls int
	var mu sync.Mutex
	server := newFakeProvider(t, map[string]rpcHandler{
		"eth_chainId": func([]json.RawMessage) (interface{}, *rpcError) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if failAfterPing && calls > 1 {
				return nil, &rpcError{Code: -32000, Message: "provider gone"}
			}
			return id, nil
		},
	})
	return newTestClient(t, server.URL)
}

func TestPoolChainID(t *testing.T) {
	pool, err := NewPool([]*Client{
		chainIDProvider(t, "0x539", true),
		chainIDProvider(t, "0x539", false),
	}, nil)
	require.NoError(t, err)

	chainID, err := pool.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1337), chainID)
}

func TestPoolResolveHead(t *testing.T) {
	rec := &hitRecorder{}
	pool, err := NewPool([]*Client{
		headProvider(t, rec, "a", "", true),
		headProvider(t, rec, "b", "0x64", false),
	}, nil)
	require.NoError(t, err)

	head, err := pool.ResolveHead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), head)
}

func codeProvider(t *testing.T, code string, fail bool) *Client {
	t.Helper()
	server := newFakeProvider(t, map[string]rpcHandler{
		"eth_getCode": func([]json.RawMessage) (interface{}, *rpcError) {
			if fail {
				return nil, &rpcError{Code: -32000, Message: "unavailable"}
			}
			return code, nil
		},
	})
	return newTestClient(t, server.URL)
}

func TestVerifyContract(t *testing.T) {
	address := common.HexToAddress("0x00000000000000000000000000000000000f069e")

	t.Run("one provider sees the contract", func(t *testing.T) {
		pool, err := NewPool([]*Client{
			codeProvider(t, "0x", false),
			codeProvider(t, "0x6080604052", false),
		}, nil)
		require.NoError(t, err)

		assert.NoError(t, pool.VerifyContract(context.Background(), address))
	})

	t.Run("empty code everywhere", func(t *testing.T) {
		pool, err := NewPool([]*Client{
			codeProvider(t, "0x", false),
			codeProvider(t, "0x", false),
		}, nil)
		require.NoError(t, err)

		err = pool.VerifyContract(context.Background(), address)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unreachable on every provider")
	})

	t.Run("errors and empty code mixed", func(t *testing.T) {
		pool, err := NewPool([]*Client{
			codeProvider(t, "", true),
			codeProvider(t, "0x", false),
		}, nil)
		require.NoError(t, err)

		assert.Error(t, pool.VerifyContract(context.Background(), address))
	})
}
