package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/0xmhha/forge-indexer-go/internal/constants"
)

// TokenMetadata is the resolved off-chain metadata of one token. Exactly one
// record per token id; the resolver writes defaults when the URI is absent
// or unusable, so a Token either has no record (not yet resolved) or a
// complete one.
type TokenMetadata struct {
	// ID is the token id
	ID          string `json:"id"`
	TokenID     string `json:"tokenId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	RewardID    string `json:"rewardId"`
	ForgeID     string `json:"forgeId"`
	UpdatedAt   uint64 `json:"updatedAt"`
}

// TokenProperties is the companion record always produced alongside
// TokenMetadata, carrying the forge identifier from the parsed payload.
type TokenProperties struct {
	// ID is the token id
	ID      string `json:"id"`
	TokenID string `json:"tokenId"`
	ForgeID string `json:"forgeId"`
}

// TokenAttribute is one (traitType, value) pair from the metadata's
// attributes array, in parse order.
type TokenAttribute struct {
	// ID format: {tokenID}-{ordinal}
	ID        string `json:"id"`
	TokenID   string `json:"tokenId"`
	Ordinal   int    `json:"ordinal"`
	TraitType string `json:"traitType"`
	Value     string `json:"value"`
}

// GetTokenMetadata retrieves the metadata record for a token.
// Returns ErrNotFound if the token has not been resolved yet.
func (s *Store) GetTokenMetadata(ctx context.Context, tokenID string) (*TokenMetadata, error) {
	return getRecord[TokenMetadata](s, TokenMetadataKey(tokenID))
}

// SaveTokenMetadata stores the metadata record for a token
func (s *Store) SaveTokenMetadata(ctx context.Context, metadata *TokenMetadata) error {
	return saveRecord(s, TokenMetadataKey(metadata.TokenID), metadata)
}

// GetTokenProperties retrieves the properties record for a token
func (s *Store) GetTokenProperties(ctx context.Context, tokenID string) (*TokenProperties, error) {
	return getRecord[TokenProperties](s, TokenPropertiesKey(tokenID))
}

// SaveTokenProperties stores the properties record for a token
func (s *Store) SaveTokenProperties(ctx context.Context, props *TokenProperties) error {
	return saveRecord(s, TokenPropertiesKey(props.TokenID), props)
}

// SaveTokenAttributes atomically replaces the attribute list of a token.
// Any previous attributes are removed first so a shorter list leaves no
// stale ordinals behind.
func (s *Store) SaveTokenAttributes(ctx context.Context, tokenID string, attrs []*TokenAttribute) error {
	if err := s.ensureNotClosed(); err != nil {
		return err
	}
	if err := s.ensureNotReadOnly(); err != nil {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	prefix := TokenAttributePrefix(tokenID)
	if err := batch.DeleteRange(prefix, prefixUpperBound(prefix), nil); err != nil {
		return fmt.Errorf("failed to clear attributes: %w", err)
	}

	for _, attr := range attrs {
		data, err := json.Marshal(attr)
		if err != nil {
			return fmt.Errorf("failed to marshal attribute: %w", err)
		}
		if err := batch.Set(TokenAttributeKey(attr.TokenID, attr.Ordinal), data, nil); err != nil {
			return fmt.Errorf("failed to set attribute: %w", err)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit attributes: %w", err)
	}

	return nil
}

// ListTokenAttributes lists the attributes of one token in parse order
func (s *Store) ListTokenAttributes(ctx context.Context, tokenID string) ([]*TokenAttribute, error) {
	return listRecords[TokenAttribute](s, TokenAttributePrefix(tokenID), ListOptions{
		First: constants.MaxPageSize,
	})
}
