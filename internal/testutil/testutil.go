// Package testutil carries the shared fixtures the package tests build on:
// a temp-dir store, an in-memory chain lookup, and raw-log builders.
package testutil

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/0xmhha/forge-indexer-go/storage"
)

// NewTestLogger creates a test logger that doesn't output to console
func NewTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("Failed to create test logger: %v", err)
	}
	return logger
}

// NewTestStore opens a store in a per-test temp directory, closed on cleanup
func NewTestStore(t *testing.T) *storage.Store {
	t.Helper()

	store, err := storage.NewStore(storage.DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close test store: %v", err)
		}
	})

	return store
}

// TxHashAt derives a deterministic transaction hash for a chain position, so
// fixtures at distinct positions never collide
func TxHashAt(block uint64, index uint) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(block*100000 + uint64(index) + 1))
}

// LogAt builds a raw log at a chain position with a deterministic tx hash
func LogAt(block uint64, index uint) types.Log {
	return types.Log{
		BlockNumber: block,
		Index:       index,
		TxHash:      TxHashAt(block, index),
	}
}

// FakeLookup serves block and transaction metadata from in-memory maps and
// reports ethereum.NotFound for anything absent. WarmBlocks is a no-op.
type FakeLookup struct {
	Blocks map[uint64]*storage.BlockMeta
	Txs    map[common.Hash]*storage.TxMeta
}

// NewFakeLookup creates an empty fake lookup
func NewFakeLookup() *FakeLookup {
	return &FakeLookup{
		Blocks: make(map[uint64]*storage.BlockMeta),
		Txs:    make(map[common.Hash]*storage.TxMeta),
	}
}

// SetBlock registers a block with the given timestamp
func (f *FakeLookup) SetBlock(number, timestamp uint64) {
	f.Blocks[number] = &storage.BlockMeta{
		Number:    number,
		Hash:      common.BigToHash(new(big.Int).SetUint64(number)),
		Timestamp: timestamp,
	}
}

// SetTx registers a transaction envelope
func (f *FakeLookup) SetTx(hash common.Hash, from common.Address) {
	f.Txs[hash] = &storage.TxMeta{
		Hash:     hash,
		From:     from,
		Value:    big.NewInt(0),
		GasUsed:  21000,
		GasPrice: big.NewInt(1),
	}
}

// DropBlock forgets a block, so lookups for it report ethereum.NotFound
func (f *FakeLookup) DropBlock(number uint64) {
	delete(f.Blocks, number)
}

// DropTx forgets a transaction
func (f *FakeLookup) DropTx(hash common.Hash) {
	delete(f.Txs, hash)
}

// BlockMeta returns the registered block or ethereum.NotFound
func (f *FakeLookup) BlockMeta(ctx context.Context, number uint64) (*storage.BlockMeta, error) {
	meta, ok := f.Blocks[number]
	if !ok {
		return nil, ethereum.NotFound
	}
	return meta, nil
}

// TxMeta returns the registered transaction or ethereum.NotFound
func (f *FakeLookup) TxMeta(ctx context.Context, hash common.Hash) (*storage.TxMeta, error) {
	meta, ok := f.Txs[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return meta, nil
}

// WarmBlocks is a no-op; the fake serves from memory
func (f *FakeLookup) WarmBlocks(ctx context.Context, numbers []uint64) error {
	return nil
}
