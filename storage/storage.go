package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

// Common errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned when operating on a closed store
	ErrClosed = errors.New("store closed")

	// ErrReadOnly is returned when attempting to write to a read-only store
	ErrReadOnly = errors.New("store is read-only")
)

// Config holds store configuration
type Config struct {
	// Path to the database directory
	Path string

	// Cache size in MB (default: 128)
	Cache int

	// MaxOpenFiles is the maximum number of open files (default: 1000)
	MaxOpenFiles int

	// WriteBuffer size in MB (default: 64)
	WriteBuffer int

	// DisableWAL disables write-ahead log (not recommended)
	DisableWAL bool

	// ReadOnly opens the database in read-only mode
	ReadOnly bool
}

// DefaultConfig returns a default configuration
func DefaultConfig(path string) *Config {
	return &Config{
		Path:         path,
		Cache:        128, // 128 MB
		MaxOpenFiles: 1000,
		WriteBuffer:  64, // 64 MB
		DisableWAL:   false,
		ReadOnly:     false,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.New("path cannot be empty")
	}
	if c.Cache < 0 {
		return errors.New("cache size cannot be negative")
	}
	if c.MaxOpenFiles < 0 {
		return errors.New("max open files cannot be negative")
	}
	if c.WriteBuffer < 0 {
		return errors.New("write buffer size cannot be negative")
	}
	return nil
}

// Store is the derived-state repository: one addressable collection per
// entity kind, each mapping a string id to a JSON record, plus an RLP
// block/transaction lookup cache. All derived collections live under /data/
// and are wiped wholesale by ResetDerived before a full re-scan; the cache
// lives under /cache/ and survives resets.
type Store struct {
	db     *pebble.DB
	config *Config
	logger *zap.Logger
	closed atomic.Bool
}

// NewStore opens a Pebble-backed store at the configured path
func NewStore(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := &pebble.Options{
		Cache:            pebble.NewCache(int64(cfg.Cache) << 20), // Convert MB to bytes
		MaxOpenFiles:     cfg.MaxOpenFiles,
		MemTableSize:     uint64(cfg.WriteBuffer) << 20,
		DisableWAL:       cfg.DisableWAL,
		ErrorIfExists:    false,
		ErrorIfNotExists: false,
	}

	if cfg.ReadOnly {
		opts.ReadOnly = true
	}

	db, err := pebble.Open(cfg.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Store{
		db:     db,
		config: cfg,
		logger: zap.NewNop(),
	}, nil
}

// SetLogger sets the logger for the store
func (s *Store) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// ensureNotClosed checks if the store is closed
func (s *Store) ensureNotClosed() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// ensureNotReadOnly checks if the store is read-only
func (s *Store) ensureNotReadOnly() error {
	if s.config.ReadOnly {
		return ErrReadOnly
	}
	return nil
}

// Close closes the store and releases resources
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ResetDerived deletes every derived-state record while leaving the lookup
// cache intact. Called before a full re-scan recomputes state from scratch.
func (s *Store) ResetDerived(ctx context.Context) error {
	if err := s.ensureNotClosed(); err != nil {
		return err
	}
	if err := s.ensureNotReadOnly(); err != nil {
		return err
	}

	start := []byte(prefixData)
	if err := s.db.DeleteRange(start, prefixUpperBound(start), pebble.Sync); err != nil {
		return fmt.Errorf("failed to reset derived state: %w", err)
	}

	return nil
}

// getRecord loads and unmarshals one JSON record
func getRecord[T any](s *Store, key []byte) (*T, error) {
	if err := s.ensureNotClosed(); err != nil {
		return nil, err
	}

	value, closer, err := s.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	defer closer.Close()

	var rec T
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &rec, nil
}

// saveRecord marshals and stores one JSON record
func saveRecord[T any](s *Store, key []byte, rec *T) error {
	if err := s.ensureNotClosed(); err != nil {
		return err
	}
	if err := s.ensureNotReadOnly(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to set record: %w", err)
	}

	return nil
}

// deleteRecord removes one record; deleting an absent key is not an error
func (s *Store) deleteRecord(key []byte) error {
	if err := s.ensureNotClosed(); err != nil {
		return err
	}
	if err := s.ensureNotReadOnly(); err != nil {
		return err
	}

	if err := s.db.Delete(key, pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	return nil
}

// listRecords iterates one collection prefix, applies the where filter,
// sorts by the requested field and returns the selected page decoded into T.
// Filtering and ordering operate on the JSON representation so every field
// of every entity kind is addressable by name.
func listRecords[T any](s *Store, prefix []byte, opts ListOptions) ([]*T, error) {
	if err := s.ensureNotClosed(); err != nil {
		return nil, err
	}

	opts.normalize()

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	var rows []row
	for iter.First(); iter.Valid(); iter.Next() {
		raw := make([]byte, len(iter.Value()))
		copy(raw, iter.Value())

		fields, err := decodeFields(raw)
		if err != nil {
			s.logger.Warn("skipping undecodable record", zap.ByteString("key", iter.Key()), zap.Error(err))
			continue
		}
		if !matchesWhere(fields, opts.Where) {
			continue
		}
		rows = append(rows, row{raw: raw, fields: fields})
	}

	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterator error: %w", err)
	}

	sortRows(rows, opts.OrderBy, opts.OrderDirection)
	rows = pageRows(rows, opts.Skip, opts.First)

	out := make([]*T, 0, len(rows))
	for _, r := range rows {
		var rec T
		if err := json.Unmarshal(r.raw, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		out = append(out, &rec)
	}

	return out, nil
}

// countRecords returns the number of records under a collection prefix
func (s *Store) countRecords(prefix []byte) (int, error) {
	if err := s.ensureNotClosed(); err != nil {
		return 0, err
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	count := 0
	for iter.First(); iter.Valid(); iter.Next() {
		count++
	}

	if err := iter.Error(); err != nil {
		return 0, fmt.Errorf("iterator error: %w", err)
	}

	return count, nil
}
