package storage

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// BlockMeta is the cached subset of a block header needed to apply events:
// the timestamp that stamps every derived record plus the hash for the
// journal. Cached under /cache/ so re-scans do not refetch headers.
type BlockMeta struct {
	Number    uint64
	Hash      common.Hash
	Timestamp uint64
}

// TxMeta is the cached subset of a transaction envelope recorded in journal
// entries.
type TxMeta struct {
	Hash     common.Hash
	From     common.Address
	To       common.Address
	Value    *big.Int
	GasUsed  uint64
	GasPrice *big.Int
}

// GetBlockMeta retrieves a cached block.
// Returns ErrNotFound if the block has not been cached.
func (s *Store) GetBlockMeta(ctx context.Context, number uint64) (*BlockMeta, error) {
	if err := s.ensureNotClosed(); err != nil {
		return nil, err
	}

	value, closer, err := s.db.Get(BlockMetaKey(number))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get block meta: %w", err)
	}
	defer closer.Close()

	var meta BlockMeta
	if err := rlp.DecodeBytes(value, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode block meta: %w", err)
	}

	return &meta, nil
}

// SaveBlockMeta caches a block
func (s *Store) SaveBlockMeta(ctx context.Context, meta *BlockMeta) error {
	if err := s.ensureNotClosed(); err != nil {
		return err
	}
	if err := s.ensureNotReadOnly(); err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("block meta cannot be nil")
	}

	var buf bytes.Buffer
	if err := rlp.Encode(&buf, meta); err != nil {
		return fmt.Errorf("failed to encode block meta: %w", err)
	}

	if err := s.db.Set(BlockMetaKey(meta.Number), buf.Bytes(), pebble.Sync); err != nil {
		return fmt.Errorf("failed to set block meta: %w", err)
	}

	return nil
}

// GetTxMeta retrieves a cached transaction envelope.
// Returns ErrNotFound if the transaction has not been cached.
func (s *Store) GetTxMeta(ctx context.Context, hash common.Hash) (*TxMeta, error) {
	if err := s.ensureNotClosed(); err != nil {
		return nil, err
	}

	value, closer, err := s.db.Get(TxMetaKey(hash))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tx meta: %w", err)
	}
	defer closer.Close()

	var meta TxMeta
	if err := rlp.DecodeBytes(value, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode tx meta: %w", err)
	}

	return &meta, nil
}

// SaveTxMeta caches a transaction envelope
func (s *Store) SaveTxMeta(ctx context.Context, meta *TxMeta) error {
	if err := s.ensureNotClosed(); err != nil {
		return err
	}
	if err := s.ensureNotReadOnly(); err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("tx meta cannot be nil")
	}

	var buf bytes.Buffer
	if err := rlp.Encode(&buf, meta); err != nil {
		return fmt.Errorf("failed to encode tx meta: %w", err)
	}

	if err := s.db.Set(TxMetaKey(meta.Hash), buf.Bytes(), pebble.Sync); err != nil {
		return fmt.Errorf("failed to set tx meta: %w", err)
	}

	return nil
}
