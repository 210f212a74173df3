package storage

import (
	"context"
	"math/big"
)

// Token is the materialized state of one forge token id. A Token is created
// by the first TokenCreated event for its id and never recreated; mint
// transfers raise CurrentSupply and metadata resolution fills the
// descriptive fields.
type Token struct {
	// ID is the token id as a decimal string
	ID string `json:"id"`

	// TokenType is the numeric type code emitted at creation
	TokenType uint8 `json:"tokenType"`

	// Category and SubCategory classify the token
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`

	// Soulbound marks non-transferable tokens
	Soulbound bool `json:"soulbound"`

	// MaxSupply is the creation-time cap (0 = uncapped)
	MaxSupply *big.Int `json:"maxSupply"`

	// CurrentSupply is raised by mints; invariant: >= 0 and equal to the sum
	// of all UserTokenBalance rows for this token
	CurrentSupply *big.Int `json:"currentSupply"`

	// Creator is the address that emitted the creation event
	Creator string `json:"creator"`

	// CreatedAtBlock/CreatedAt/CreationTx locate the creation event
	CreatedAtBlock uint64 `json:"createdAtBlock"`
	CreatedAt      uint64 `json:"createdAt"`
	CreationTx     string `json:"creationTx"`

	// URI is the raw metadata reference from the creation event
	URI string `json:"uri"`

	// Descriptive fields filled by metadata resolution
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	RewardID    string `json:"rewardId"`
	ForgeID     string `json:"forgeId"`
}

// TokenCreation records one creation event. Immutable once written.
type TokenCreation struct {
	// ID format: {txHash}-{logIndex}
	ID          string   `json:"id"`
	TokenID     string   `json:"tokenId"`
	Creator     string   `json:"creator"`
	MaxSupply   *big.Int `json:"maxSupply"`
	BlockNumber uint64   `json:"blockNumber"`
	Timestamp   uint64   `json:"timestamp"`
	TxHash      string   `json:"txHash"`
}

// TokenMint records one mint transfer (transfer from the zero address). The
// token* fields snapshot the Token's descriptive state at mint time and are
// deliberately not updated when metadata changes later.
type TokenMint struct {
	// ID format: {txHash}-{logIndex}-{tokenID}
	ID       string   `json:"id"`
	TokenID  string   `json:"tokenId"`
	To       string   `json:"to"`
	Operator string   `json:"operator"`
	Amount   *big.Int `json:"amount"`

	// Snapshot of Token descriptive fields at mint time
	TokenName  string `json:"tokenName"`
	TokenImage string `json:"tokenImage"`
	RewardID   string `json:"rewardId"`
	ForgeID    string `json:"forgeId"`
	Category   string `json:"category"`
	TokenType  uint8  `json:"tokenType"`

	BlockNumber uint64 `json:"blockNumber"`
	Timestamp   uint64 `json:"timestamp"`
	TxHash      string `json:"txHash"`
}

// GetToken retrieves a token by id.
// Returns ErrNotFound if no token exists for the id.
func (s *Store) GetToken(ctx context.Context, id string) (*Token, error) {
	return getRecord[Token](s, TokenKey(id))
}

// SaveToken stores or overwrites a token
func (s *Store) SaveToken(ctx context.Context, token *Token) error {
	return saveRecord(s, TokenKey(token.ID), token)
}

// ListTokens lists tokens with pagination, ordering and filtering
func (s *Store) ListTokens(ctx context.Context, opts ListOptions) ([]*Token, error) {
	return listRecords[Token](s, []byte(prefixToken), opts)
}

// GetTokenCreation retrieves a creation record by id
func (s *Store) GetTokenCreation(ctx context.Context, id string) (*TokenCreation, error) {
	return getRecord[TokenCreation](s, TokenCreationKey(id))
}

// SaveTokenCreation stores a creation record
func (s *Store) SaveTokenCreation(ctx context.Context, creation *TokenCreation) error {
	return saveRecord(s, TokenCreationKey(creation.ID), creation)
}

// ListTokenCreations lists creation records
func (s *Store) ListTokenCreations(ctx context.Context, opts ListOptions) ([]*TokenCreation, error) {
	return listRecords[TokenCreation](s, []byte(prefixCreation), opts)
}

// GetTokenMint retrieves a mint record by id
func (s *Store) GetTokenMint(ctx context.Context, id string) (*TokenMint, error) {
	return getRecord[TokenMint](s, TokenMintKey(id))
}

// SaveTokenMint stores a mint record
func (s *Store) SaveTokenMint(ctx context.Context, mint *TokenMint) error {
	return saveRecord(s, TokenMintKey(mint.ID), mint)
}

// ListTokenMints lists mint records
func (s *Store) ListTokenMints(ctx context.Context, opts ListOptions) ([]*TokenMint, error) {
	return listRecords[TokenMint](s, []byte(prefixMint), opts)
}
