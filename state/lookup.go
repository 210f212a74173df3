// Package state applies the ordered event sequence to the entity store. One
// goroutine owns the write path; every transition is a pure function of the
// event and the current store contents.
package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/0xmhha/forge-indexer-go/storage"
)

// Source is the chain surface lookups need. *client.Pool satisfies it.
type Source interface {
	HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error)
	BatchHeaders(ctx context.Context, numbers []uint64) ([]*types.Header, error)
	TransactionWithReceipt(ctx context.Context, hash common.Hash) (*types.Transaction, *types.Receipt, common.Address, error)
}

// Lookup resolves the block and transaction metadata event application
// needs. Implementations surface ethereum.NotFound for data the chain does
// not have; the processor skips such events.
type Lookup interface {
	BlockMeta(ctx context.Context, number uint64) (*storage.BlockMeta, error)
	TxMeta(ctx context.Context, hash common.Hash) (*storage.TxMeta, error)
	// WarmBlocks prefetches headers for the given block numbers. Best
	// effort: missing blocks are left for the per-event lookup to report.
	WarmBlocks(ctx context.Context, numbers []uint64) error
}

// ChainLookup reads block and transaction metadata through the store's
// cache, so re-scans over already-seen ranges stay off the network.
type ChainLookup struct {
	store  *storage.Store
	source Source
	logger *zap.Logger
}

// NewChainLookup creates a cache-through chain lookup
func NewChainLookup(store *storage.Store, source Source, logger *zap.Logger) (*ChainLookup, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ChainLookup{
		store:  store,
		source: source,
		logger: logger,
	}, nil
}

// BlockMeta returns the timestamp and hash of a block
func (l *ChainLookup) BlockMeta(ctx context.Context, number uint64) (*storage.BlockMeta, error) {
	meta, err := l.store.GetBlockMeta(ctx, number)
	if err == nil {
		return meta, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	header, err := l.source.HeaderByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch header %d: %w", number, err)
	}

	meta = &storage.BlockMeta{
		Number:    number,
		Hash:      header.Hash(),
		Timestamp: header.Time,
	}
	if err := l.store.SaveBlockMeta(ctx, meta); err != nil {
		return nil, fmt.Errorf("failed to cache block meta: %w", err)
	}

	return meta, nil
}

// TxMeta returns the envelope of a mined transaction
func (l *ChainLookup) TxMeta(ctx context.Context, hash common.Hash) (*storage.TxMeta, error) {
	meta, err := l.store.GetTxMeta(ctx, hash)
	if err == nil {
		return meta, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	tx, receipt, sender, err := l.source.TransactionWithReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction %s: %w", hash.Hex(), err)
	}

	to := common.Address{}
	if tx.To() != nil {
		to = *tx.To()
	}
	gasPrice := receipt.EffectiveGasPrice
	if gasPrice == nil {
		gasPrice = tx.GasPrice()
	}

	meta = &storage.TxMeta{
		Hash:     hash,
		From:     sender,
		To:       to,
		Value:    tx.Value(),
		GasUsed:  receipt.GasUsed,
		GasPrice: gasPrice,
	}
	if err := l.store.SaveTxMeta(ctx, meta); err != nil {
		return nil, fmt.Errorf("failed to cache tx meta: %w", err)
	}

	return meta, nil
}

// WarmBlocks batch-fetches headers not yet cached. A block the provider
// cannot return stays uncached; the per-event BlockMeta call reports it.
func (l *ChainLookup) WarmBlocks(ctx context.Context, numbers []uint64) error {
	var missing []uint64
	for _, number := range numbers {
		_, err := l.store.GetBlockMeta(ctx, number)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		missing = append(missing, number)
	}
	if len(missing) == 0 {
		return nil
	}

	headers, err := l.source.BatchHeaders(ctx, missing)
	if err != nil {
		return fmt.Errorf("failed to prefetch headers: %w", err)
	}

	for i, header := range headers {
		if header == nil {
			l.logger.Warn("block missing from batch header response",
				zap.Uint64("block_number", missing[i]))
			continue
		}
		meta := &storage.BlockMeta{
			Number:    missing[i],
			Hash:      header.Hash(),
			Timestamp: header.Time,
		}
		if err := l.store.SaveBlockMeta(ctx, meta); err != nil {
			return fmt.Errorf("failed to cache block meta: %w", err)
		}
	}

	return nil
}
