package state

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/forge-indexer-go/internal/testutil"
)

var (
	_ Lookup = (*ChainLookup)(nil)
	_ Lookup = (*testutil.FakeLookup)(nil)
)

type txFixture struct {
	tx      *types.Transaction
	receipt *types.Receipt
	sender  common.Address
}

// fakeChain counts calls so tests can prove the cache keeps repeats off the
// network
type fakeChain struct {
	headers map[uint64]*types.Header
	txs     map[common.Hash]txFixture

	headerCalls int
	txCalls     int
	batchCalls  [][]uint64
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		headers: make(map[uint64]*types.Header),
		txs:     make(map[common.Hash]txFixture),
	}
}

func (f *fakeChain) addHeader(number, timestamp uint64) {
	f.headers[number] = &types.Header{
		Number: new(big.Int).SetUint64(number),
		Time:   timestamp,
	}
}

func (f *fakeChain) HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	f.headerCalls++
	header, ok := f.headers[number]
	if !ok {
		return nil, ethereum.NotFound
	}
	return header, nil
}

func (f *fakeChain) BatchHeaders(ctx context.Context, numbers []uint64) ([]*types.Header, error) {
	f.batchCalls = append(f.batchCalls, append([]uint64(nil), numbers...))
	out := make([]*types.Header, len(numbers))
	for i, number := range numbers {
		out[i] = f.headers[number]
	}
	return out, nil
}

func (f *fakeChain) TransactionWithReceipt(ctx context.Context, hash common.Hash) (*types.Transaction, *types.Receipt, common.Address, error) {
	f.txCalls++
	fixture, ok := f.txs[hash]
	if !ok {
		return nil, nil, common.Address{}, ethereum.NotFound
	}
	return fixture.tx, fixture.receipt, fixture.sender, nil
}

func newTestLookup(t *testing.T) (*ChainLookup, *fakeChain) {
	t.Helper()
	chain := newFakeChain()
	lookup, err := NewChainLookup(testutil.NewTestStore(t), chain, nil)
	require.NoError(t, err)
	return lookup, chain
}

func TestNewChainLookupValidation(t *testing.T) {
	store := testutil.NewTestStore(t)
	chain := newFakeChain()

	_, err := NewChainLookup(nil, chain, nil)
	assert.Error(t, err)
	_, err = NewChainLookup(store, nil, nil)
	assert.Error(t, err)
	_, err = NewChainLookup(store, chain, nil)
	assert.NoError(t, err)
}

func TestBlockMetaCachedAfterFirstFetch(t *testing.T) {
	lookup, chain := newTestLookup(t)
	chain.addHeader(100, 1700000000)
	ctx := context.Background()

	meta, err := lookup.BlockMeta(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), meta.Number)
	assert.Equal(t, uint64(1700000000), meta.Timestamp)
	assert.Equal(t, chain.headers[100].Hash(), meta.Hash)
	assert.Equal(t, 1, chain.headerCalls)

	again, err := lookup.BlockMeta(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, meta, again)
	assert.Equal(t, 1, chain.headerCalls, "second lookup must come from the cache")
}

func TestBlockMetaNotFound(t *testing.T) {
	lookup, _ := newTestLookup(t)

	_, err := lookup.BlockMeta(context.Background(), 100)
	assert.ErrorIs(t, err, ethereum.NotFound)
}

func TestTxMetaComposesEnvelope(t *testing.T) {
	lookup, chain := newTestLookup(t)
	ctx := context.Background()

	to := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	sender := common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    1,
		GasPrice: big.NewInt(2),
		Gas:      50000,
		To:       &to,
		Value:    big.NewInt(10),
	})
	hash := tx.Hash()
	chain.txs[hash] = txFixture{
		tx: tx,
		receipt: &types.Receipt{
			GasUsed:           21000,
			EffectiveGasPrice: big.NewInt(3),
		},
		sender: sender,
	}

	meta, err := lookup.TxMeta(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, hash, meta.Hash)
	assert.Equal(t, sender, meta.From)
	assert.Equal(t, to, meta.To)
	assert.Equal(t, int64(10), meta.Value.Int64())
	assert.Equal(t, uint64(21000), meta.GasUsed)
	assert.Equal(t, int64(3), meta.GasPrice.Int64(), "receipt effective price wins over tx gas price")
	assert.Equal(t, 1, chain.txCalls)

	_, err = lookup.TxMeta(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, 1, chain.txCalls, "second lookup must come from the cache")
}

func TestTxMetaGasPriceFallsBackToTx(t *testing.T) {
	lookup, chain := newTestLookup(t)

	to := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    2,
		GasPrice: big.NewInt(7),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(0),
	})
	chain.txs[tx.Hash()] = txFixture{
		tx:      tx,
		receipt: &types.Receipt{GasUsed: 21000},
	}

	meta, err := lookup.TxMeta(context.Background(), tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, int64(7), meta.GasPrice.Int64())
}

func TestTxMetaContractCreation(t *testing.T) {
	lookup, chain := newTestLookup(t)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    3,
		GasPrice: big.NewInt(1),
		Gas:      1000000,
		Value:    big.NewInt(0),
		Data:     []byte{0x60, 0x80},
	})
	chain.txs[tx.Hash()] = txFixture{
		tx:      tx,
		receipt: &types.Receipt{GasUsed: 900000, EffectiveGasPrice: big.NewInt(1)},
	}

	meta, err := lookup.TxMeta(context.Background(), tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, meta.To, "contract creations carry no recipient")
}

func TestTxMetaNotFound(t *testing.T) {
	lookup, _ := newTestLookup(t)

	_, err := lookup.TxMeta(context.Background(), common.HexToHash("0x01"))
	assert.ErrorIs(t, err, ethereum.NotFound)
}

func TestWarmBlocksFetchesOnlyMissing(t *testing.T) {
	lookup, chain := newTestLookup(t)
	ctx := context.Background()
	chain.addHeader(1, 100)
	chain.addHeader(2, 200)
	chain.addHeader(3, 300)

	// Block 1 enters the cache through a single lookup
	_, err := lookup.BlockMeta(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, lookup.WarmBlocks(ctx, []uint64{1, 2, 3}))
	require.Len(t, chain.batchCalls, 1)
	assert.Equal(t, []uint64{2, 3}, chain.batchCalls[0])

	// Everything is cached now: no further header calls
	before := chain.headerCalls
	for _, number := range []uint64{1, 2, 3} {
		_, err := lookup.BlockMeta(ctx, number)
		require.NoError(t, err)
	}
	assert.Equal(t, before, chain.headerCalls)
}

func TestWarmBlocksToleratesMissingBlocks(t *testing.T) {
	lookup, chain := newTestLookup(t)
	ctx := context.Background()
	chain.addHeader(2, 200)

	require.NoError(t, lookup.WarmBlocks(ctx, []uint64{2, 5}),
		"a hole in the batch response is not an error")

	_, err := lookup.BlockMeta(ctx, 2)
	require.NoError(t, err)

	// Block 5 stayed uncached and still resolves to not found
	_, err = lookup.BlockMeta(ctx, 5)
	assert.ErrorIs(t, err, ethereum.NotFound)
}

func TestWarmBlocksAllCached(t *testing.T) {
	lookup, chain := newTestLookup(t)
	ctx := context.Background()
	chain.addHeader(1, 100)

	_, err := lookup.BlockMeta(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, lookup.WarmBlocks(ctx, []uint64{1}))
	assert.Empty(t, chain.batchCalls, "fully cached ranges skip the network")
}

func TestBlockMetaStableAcrossReads(t *testing.T) {
	lookup, chain := newTestLookup(t)
	chain.addHeader(9, 900)

	first, err := lookup.BlockMeta(context.Background(), 9)
	require.NoError(t, err)
	second, err := lookup.BlockMeta(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
