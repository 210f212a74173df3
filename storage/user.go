package storage

import (
	"context"
	"math/big"
)

// User is the activity record of one address. Users are created lazily on
// first reference by any event and never deleted.
type User struct {
	// ID is the lowercase hex address
	ID string `json:"id"`

	// CreationCount counts TokenCreated events emitted by this address
	CreationCount uint64 `json:"creationCount"`

	// MintCount counts mint transfers received by this address
	MintCount uint64 `json:"mintCount"`

	// FirstSeen/LastInteraction are event timestamps
	FirstSeen       uint64 `json:"firstSeen"`
	LastInteraction uint64 `json:"lastInteraction"`

	// InventoryValue is a running signed sum of balance deltas. Best-effort
	// telemetry, not a ledger: unclamped and may go negative.
	InventoryValue *big.Int `json:"inventoryValue"`
}

// UserTokenBalance is the current holding of one user in one token.
// Invariant: a row exists iff the balance is non-zero; a transition to
// exactly zero deletes the row.
type UserTokenBalance struct {
	// ID format: {user}-{tokenID}
	ID        string   `json:"id"`
	User      string   `json:"user"`
	TokenID   string   `json:"tokenId"`
	Balance   *big.Int `json:"balance"`
	UpdatedAt uint64   `json:"updatedAt"`
}

// UserInventoryItem is the non-deleting companion of UserTokenBalance used
// for historical tracking: it records when the user first acquired the token
// and legitimately keeps a zero balance.
type UserInventoryItem struct {
	// ID format: {user}-{tokenID}
	ID            string   `json:"id"`
	User          string   `json:"user"`
	TokenID       string   `json:"tokenId"`
	Balance       *big.Int `json:"balance"`
	FirstAcquired uint64   `json:"firstAcquired"`
	LastUpdated   uint64   `json:"lastUpdated"`
}

// GetUser retrieves a user by address id.
// Returns ErrNotFound if the address has never been referenced.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	return getRecord[User](s, UserKey(id))
}

// SaveUser stores or overwrites a user
func (s *Store) SaveUser(ctx context.Context, user *User) error {
	return saveRecord(s, UserKey(user.ID), user)
}

// ListUsers lists users
func (s *Store) ListUsers(ctx context.Context, opts ListOptions) ([]*User, error) {
	return listRecords[User](s, []byte(prefixUser), opts)
}

// GetUserTokenBalance retrieves the balance row for (user, token).
// Returns ErrNotFound when the balance is zero (no row is kept).
func (s *Store) GetUserTokenBalance(ctx context.Context, user, tokenID string) (*UserTokenBalance, error) {
	return getRecord[UserTokenBalance](s, UserTokenBalanceKey(user, tokenID))
}

// SaveUserTokenBalance stores or overwrites a balance row
func (s *Store) SaveUserTokenBalance(ctx context.Context, balance *UserTokenBalance) error {
	return saveRecord(s, UserTokenBalanceKey(balance.User, balance.TokenID), balance)
}

// DeleteUserTokenBalance removes the balance row for (user, token); deleting
// an absent row is not an error
func (s *Store) DeleteUserTokenBalance(ctx context.Context, user, tokenID string) error {
	return s.deleteRecord(UserTokenBalanceKey(user, tokenID))
}

// ListUserTokenBalances lists balance rows
func (s *Store) ListUserTokenBalances(ctx context.Context, opts ListOptions) ([]*UserTokenBalance, error) {
	return listRecords[UserTokenBalance](s, []byte(prefixBalance), opts)
}

// GetUserInventoryItem retrieves the inventory row for (user, token)
func (s *Store) GetUserInventoryItem(ctx context.Context, user, tokenID string) (*UserInventoryItem, error) {
	return getRecord[UserInventoryItem](s, UserInventoryItemKey(user, tokenID))
}

// SaveUserInventoryItem stores or overwrites an inventory row
func (s *Store) SaveUserInventoryItem(ctx context.Context, item *UserInventoryItem) error {
	return saveRecord(s, UserInventoryItemKey(item.User, item.TokenID), item)
}

// ListUserInventoryItems lists inventory rows
func (s *Store) ListUserInventoryItems(ctx context.Context, opts ListOptions) ([]*UserInventoryItem, error) {
	return listRecords[UserInventoryItem](s, []byte(prefixInventory), opts)
}
