package storage

import (
	"context"
	"math/big"
)

// JournalEntry is one row of the append-only event journal: every primitive
// blockchain event the engine applied, with enough raw metadata that all
// derived entities are in principle re-derivable from the journal alone.
type JournalEntry struct {
	// ID format: {txHash}-{logIndex}, with a -{tokenID} suffix for
	// batch-expanded mint sub-events
	ID string `json:"id"`

	// Kind is the event kind name (TokenCreated, TransferSingle, ...)
	Kind string `json:"kind"`

	BlockNumber uint64 `json:"blockNumber"`
	BlockHash   string `json:"blockHash"`
	TxHash      string `json:"txHash"`

	// Transaction envelope
	TxFrom   string   `json:"txFrom"`
	TxTo     string   `json:"txTo"`
	Value    *big.Int `json:"value"`
	GasUsed  uint64   `json:"gasUsed"`
	GasPrice *big.Int `json:"gasPrice"`

	Timestamp uint64 `json:"timestamp"`

	// Type-specific payload; unused fields stay empty
	TokenIDs []string `json:"tokenIds,omitempty"`
	Amounts  []string `json:"amounts,omitempty"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
	Operator string   `json:"operator,omitempty"`
	Role     string   `json:"role,omitempty"`
	RoleName string   `json:"roleName,omitempty"`
	Account  string   `json:"account,omitempty"`

	// Description is a human-readable one-liner for the event
	Description string `json:"description"`
}

// RoleChange is one append-only record per role grant or revoke.
type RoleChange struct {
	// ID format: {txHash}-{logIndex}
	ID string `json:"id"`

	// Role is the raw role hash hex; RoleName the resolved name or UNKNOWN
	Role     string `json:"role"`
	RoleName string `json:"roleName"`

	Account string `json:"account"`
	Sender  string `json:"sender"`

	// Granted is true for grants, false for revokes
	Granted bool `json:"granted"`

	BlockNumber uint64 `json:"blockNumber"`
	Timestamp   uint64 `json:"timestamp"`
	TxHash      string `json:"txHash"`
}

// GetJournalEntry retrieves a journal entry by id
func (s *Store) GetJournalEntry(ctx context.Context, id string) (*JournalEntry, error) {
	return getRecord[JournalEntry](s, JournalKey(id))
}

// SaveJournalEntry appends a journal entry
func (s *Store) SaveJournalEntry(ctx context.Context, entry *JournalEntry) error {
	return saveRecord(s, JournalKey(entry.ID), entry)
}

// ListJournalEntries lists journal entries
func (s *Store) ListJournalEntries(ctx context.Context, opts ListOptions) ([]*JournalEntry, error) {
	return listRecords[JournalEntry](s, []byte(prefixJournal), opts)
}

// CountJournalEntries returns the total number of journal entries
func (s *Store) CountJournalEntries(ctx context.Context) (int, error) {
	return s.countRecords([]byte(prefixJournal))
}

// GetRoleChange retrieves a role change record by id
func (s *Store) GetRoleChange(ctx context.Context, id string) (*RoleChange, error) {
	return getRecord[RoleChange](s, RoleChangeKey(id))
}

// SaveRoleChange appends a role change record
func (s *Store) SaveRoleChange(ctx context.Context, change *RoleChange) error {
	return saveRecord(s, RoleChangeKey(change.ID), change)
}

// ListRoleChanges lists role change records
func (s *Store) ListRoleChanges(ctx context.Context, opts ListOptions) ([]*RoleChange, error) {
	return listRecords[RoleChange](s, []byte(prefixRole), opts)
}
