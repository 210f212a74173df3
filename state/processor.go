package state

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/0xmhha/forge-indexer-go/events"
	"github.com/0xmhha/forge-indexer-go/metadata"
	"github.com/0xmhha/forge-indexer-go/storage"
)

// JournalKindMint labels journal entries written by the mint sub-transition.
// Every other entry reuses its event kind name.
const JournalKindMint = "Mint"

// Skip reasons reported in metrics and logs
const (
	skipMissingBlock   = "missing_block"
	skipMissingTx      = "missing_tx"
	skipMalformedBatch = "malformed_batch"
)

var zeroAddress common.Address

// Processor applies the ordered event sequence to the entity store: exactly
// one transition per event, dispatched over the event kind, no reordering.
// It satisfies the scan runner's Applier contract.
type Processor struct {
	store      *storage.Store
	lookup     Lookup
	resolver   *metadata.Resolver
	aggregates *Aggregator
	logger     *zap.Logger
	bus        *events.Bus
	metrics    *Metrics
}

// NewProcessor creates an event processor
func NewProcessor(store *storage.Store, lookup Lookup, resolver *metadata.Resolver, logger *zap.Logger) (*Processor, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if lookup == nil {
		return nil, fmt.Errorf("lookup cannot be nil")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{
		store:      store,
		lookup:     lookup,
		resolver:   resolver,
		aggregates: NewAggregator(store),
		logger:     logger,
	}, nil
}

// SetBus attaches a notification bus for journal-appended events
func (p *Processor) SetBus(bus *events.Bus) {
	p.bus = bus
}

// SetMetrics attaches Prometheus metrics
func (p *Processor) SetMetrics(metrics *Metrics) {
	p.metrics = metrics
}

// Reset clears all derived state, keeping the block and transaction caches
func (p *Processor) Reset(ctx context.Context) error {
	return p.store.ResetDerived(ctx)
}

// Apply consumes the ordered sequence one event at a time. Events whose
// block or transaction cannot be resolved are skipped entirely; storage
// failures abort the pass.
func (p *Processor) Apply(ctx context.Context, evts []events.Event) (applied int, skipped int, err error) {
	if len(evts) == 0 {
		return 0, 0, nil
	}

	if err := p.lookup.WarmBlocks(ctx, distinctBlocks(evts)); err != nil {
		// Prefetch is an optimization; per-event lookups retry individually
		p.logger.Warn("header prefetch failed", zap.Error(err))
	}

	for _, evt := range evts {
		if err := ctx.Err(); err != nil {
			return applied, skipped, err
		}

		ok, err := p.applyOne(ctx, evt)
		if err != nil {
			return applied, skipped, err
		}
		if ok {
			applied++
		} else {
			skipped++
		}
	}

	p.logger.Info("event sequence applied",
		zap.Int("applied", applied),
		zap.Int("skipped", skipped))

	return applied, skipped, nil
}

// distinctBlocks returns the block numbers referenced by the sequence, in
// first-seen order
func distinctBlocks(evts []events.Event) []uint64 {
	seen := make(map[uint64]bool, len(evts))
	numbers := make([]uint64, 0, len(evts))
	for _, evt := range evts {
		n := evt.Log().BlockNumber
		if !seen[n] {
			seen[n] = true
			numbers = append(numbers, n)
		}
	}
	return numbers
}

func (p *Processor) applyOne(ctx context.Context, evt events.Event) (bool, error) {
	raw := evt.Log()

	block, err := p.lookup.BlockMeta(ctx, raw.BlockNumber)
	if errors.Is(err, ethereum.NotFound) {
		p.logger.Warn("skipping event: block not found",
			zap.String("kind", string(evt.Kind())),
			zap.Uint64("block_number", raw.BlockNumber))
		p.recordSkipped(skipMissingBlock)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to resolve block %d: %w", raw.BlockNumber, err)
	}

	tx, err := p.lookup.TxMeta(ctx, raw.TxHash)
	if errors.Is(err, ethereum.NotFound) {
		p.logger.Warn("skipping event: transaction not found",
			zap.String("kind", string(evt.Kind())),
			zap.String("tx_hash", raw.TxHash.Hex()))
		p.recordSkipped(skipMissingTx)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to resolve transaction %s: %w", raw.TxHash.Hex(), err)
	}

	var ok bool
	switch e := evt.(type) {
	case *events.TokenCreated:
		ok, err = p.applyTokenCreated(ctx, e, block, tx)
	case *events.TransferSingle:
		ok, err = p.applyTransferSingle(ctx, e, block, tx)
	case *events.TransferBatch:
		ok, err = p.applyTransferBatch(ctx, e, block, tx)
	case *events.RoleGranted:
		ok, err = p.applyRoleChange(ctx, e.Role, e.Account, e.Sender, true, raw, block, tx)
	case *events.RoleRevoked:
		ok, err = p.applyRoleChange(ctx, e.Role, e.Account, e.Sender, false, raw, block, tx)
	case *events.URI:
		ok, err = p.applyURI(ctx, e, block, tx)
	default:
		return false, fmt.Errorf("unhandled event kind %s", evt.Kind())
	}
	if err != nil {
		return false, err
	}
	if ok {
		p.recordApplied(string(evt.Kind()))
	}
	return ok, nil
}

// applyTokenCreated materializes a token. Creation is idempotent: a
// duplicate event never rewrites the Token, but its TokenCreation record,
// counters and journal entry are still produced.
func (p *Processor) applyTokenCreated(ctx context.Context, e *events.TokenCreated, block *storage.BlockMeta, tx *storage.TxMeta) (bool, error) {
	raw := e.Raw
	tokenID := e.TokenID.String()
	creatorID := addrID(e.Creator)

	_, err := p.store.GetToken(ctx, tokenID)
	exists := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("failed to load token %s: %w", tokenID, err)
	}

	if !exists {
		token := &storage.Token{
			ID:             tokenID,
			TokenType:      e.TokenType,
			Category:       e.Category,
			SubCategory:    e.SubCategory,
			Soulbound:      e.Soulbound,
			MaxSupply:      new(big.Int).Set(e.MaxSupply),
			CurrentSupply:  big.NewInt(0),
			Creator:        creatorID,
			CreatedAtBlock: raw.BlockNumber,
			CreatedAt:      block.Timestamp,
			CreationTx:     raw.TxHash.Hex(),
			URI:            e.TokenURI,
		}

		meta, err := p.resolveMetadata(ctx, tokenID, e.TokenURI, block.Timestamp)
		if err != nil {
			return false, err
		}
		token.Name = meta.Name
		token.Description = meta.Description
		token.Image = meta.Image
		token.RewardID = meta.RewardID
		token.ForgeID = meta.ForgeID

		if err := p.store.SaveToken(ctx, token); err != nil {
			return false, fmt.Errorf("failed to save token %s: %w", tokenID, err)
		}
	}

	creation := &storage.TokenCreation{
		ID:          eventID(raw),
		TokenID:     tokenID,
		Creator:     creatorID,
		MaxSupply:   new(big.Int).Set(e.MaxSupply),
		BlockNumber: raw.BlockNumber,
		Timestamp:   block.Timestamp,
		TxHash:      raw.TxHash.Hex(),
	}
	if err := p.store.SaveTokenCreation(ctx, creation); err != nil {
		return false, fmt.Errorf("failed to save token creation: %w", err)
	}

	creator, err := p.ensureUser(ctx, e.Creator, block.Timestamp)
	if err != nil {
		return false, err
	}
	creator.CreationCount++
	if err := p.store.SaveUser(ctx, creator); err != nil {
		return false, fmt.Errorf("failed to save user %s: %w", creator.ID, err)
	}

	if err := p.aggregates.TokenCreated(ctx, block.Timestamp); err != nil {
		return false, err
	}

	entry := p.journalBase(raw, string(events.KindTokenCreated), block, tx)
	entry.TokenIDs = []string{tokenID}
	entry.To = creatorID
	entry.Description = fmt.Sprintf("token %s created by %s", tokenID, creatorID)
	return true, p.appendJournal(ctx, entry)
}

// resolveMetadata resolves and persists the metadata records for a token,
// unless a record already exists (a URI event may precede creation).
// Returns the effective metadata either way.
func (p *Processor) resolveMetadata(ctx context.Context, tokenID, uri string, timestamp uint64) (*storage.TokenMetadata, error) {
	existing, err := p.store.GetTokenMetadata(ctx, tokenID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load token metadata %s: %w", tokenID, err)
	}

	result := p.resolver.Resolve(ctx, tokenID, uri, timestamp)
	p.recordResolution(string(result.Outcome))

	if err := p.store.SaveTokenMetadata(ctx, result.Metadata); err != nil {
		return nil, fmt.Errorf("failed to save token metadata: %w", err)
	}
	if err := p.store.SaveTokenProperties(ctx, result.Properties); err != nil {
		return nil, fmt.Errorf("failed to save token properties: %w", err)
	}
	if len(result.Attributes) > 0 {
		if err := p.store.SaveTokenAttributes(ctx, tokenID, result.Attributes); err != nil {
			return nil, fmt.Errorf("failed to save token attributes: %w", err)
		}
	}

	return result.Metadata, nil
}

func (p *Processor) applyTransferSingle(ctx context.Context, e *events.TransferSingle, block *storage.BlockMeta, tx *storage.TxMeta) (bool, error) {
	if e.From == zeroAddress {
		return p.applyMint(ctx, mintEvent{
			Operator: e.Operator,
			To:       e.To,
			TokenID:  e.ID,
			Amount:   e.Value,
			Raw:      e.Raw,
		}, block, tx)
	}

	raw := e.Raw
	tokenID := e.ID.String()

	if err := p.moveBalance(ctx, tokenID, e.From, e.To, e.Value, block.Timestamp); err != nil {
		return false, err
	}

	entry := p.journalBase(raw, string(events.KindTransferSingle), block, tx)
	entry.TokenIDs = []string{tokenID}
	entry.Amounts = []string{e.Value.String()}
	entry.From = addrID(e.From)
	entry.To = addrID(e.To)
	entry.Operator = addrID(e.Operator)
	entry.Description = fmt.Sprintf("transferred %s of token %s from %s to %s",
		e.Value, tokenID, entry.From, entry.To)
	return true, p.appendJournal(ctx, entry)
}

func (p *Processor) applyTransferBatch(ctx context.Context, e *events.TransferBatch, block *storage.BlockMeta, tx *storage.TxMeta) (bool, error) {
	raw := e.Raw

	if len(e.IDs) != len(e.Values) {
		p.logger.Warn("skipping malformed batch: id/value arity mismatch",
			zap.Int("ids", len(e.IDs)),
			zap.Int("values", len(e.Values)),
			zap.String("tx_hash", raw.TxHash.Hex()))
		p.recordSkipped(skipMalformedBatch)
		return false, nil
	}

	tokenIDs := make([]string, len(e.IDs))
	amounts := make([]string, len(e.Values))

	for i := range e.IDs {
		tokenIDs[i] = e.IDs[i].String()
		amounts[i] = e.Values[i].String()

		if e.From == zeroAddress {
			// Mint elements run the full sub-transition, own journal included
			if _, err := p.applyMint(ctx, mintEvent{
				Operator: e.Operator,
				To:       e.To,
				TokenID:  e.IDs[i],
				Amount:   e.Values[i],
				Raw:      raw,
			}, block, tx); err != nil {
				return false, err
			}
			continue
		}

		if err := p.moveBalance(ctx, tokenIDs[i], e.From, e.To, e.Values[i], block.Timestamp); err != nil {
			return false, err
		}
	}

	// One journal entry covers the whole batch regardless of element count
	entry := p.journalBase(raw, string(events.KindTransferBatch), block, tx)
	entry.TokenIDs = tokenIDs
	entry.Amounts = amounts
	entry.From = addrID(e.From)
	entry.To = addrID(e.To)
	entry.Operator = addrID(e.Operator)
	entry.Description = fmt.Sprintf("batch transferred %d token ids from %s to %s",
		len(tokenIDs), entry.From, entry.To)
	return true, p.appendJournal(ctx, entry)
}

// mintEvent is one mint to apply: a TransferSingle from the zero address or
// one element of a zero-From TransferBatch
type mintEvent struct {
	Operator common.Address
	To       common.Address
	TokenID  *big.Int
	Amount   *big.Int
	Raw      types.Log
}

// applyMint runs the mint sub-transition: TokenMint snapshot, supply
// increment, destination balance and inventory, mint counter, aggregates,
// its own journal entry (id suffixed with the token id).
func (p *Processor) applyMint(ctx context.Context, m mintEvent, block *storage.BlockMeta, tx *storage.TxMeta) (bool, error) {
	tokenID := m.TokenID.String()
	toID := addrID(m.To)

	token, err := p.store.GetToken(ctx, tokenID)
	if errors.Is(err, storage.ErrNotFound) {
		p.logger.Warn("mint references unknown token, recording journal only",
			zap.String("token_id", tokenID),
			zap.String("tx_hash", m.Raw.TxHash.Hex()))
		token = nil
	} else if err != nil {
		return false, fmt.Errorf("failed to load token %s: %w", tokenID, err)
	}

	if token != nil {
		mint := &storage.TokenMint{
			ID:          fmt.Sprintf("%s-%s", eventID(m.Raw), tokenID),
			TokenID:     tokenID,
			To:          toID,
			Operator:    addrID(m.Operator),
			Amount:      new(big.Int).Set(m.Amount),
			TokenName:   token.Name,
			TokenImage:  token.Image,
			RewardID:    token.RewardID,
			ForgeID:     token.ForgeID,
			Category:    token.Category,
			TokenType:   token.TokenType,
			BlockNumber: m.Raw.BlockNumber,
			Timestamp:   block.Timestamp,
			TxHash:      m.Raw.TxHash.Hex(),
		}
		if err := p.store.SaveTokenMint(ctx, mint); err != nil {
			return false, fmt.Errorf("failed to save token mint: %w", err)
		}

		token.CurrentSupply = new(big.Int).Add(token.CurrentSupply, m.Amount)
		if err := p.store.SaveToken(ctx, token); err != nil {
			return false, fmt.Errorf("failed to save token %s: %w", tokenID, err)
		}

		if err := p.ensureInventoryItem(ctx, toID, tokenID, block.Timestamp); err != nil {
			return false, err
		}
		if err := p.applyBalanceDelta(ctx, m.To, tokenID, m.Amount, block.Timestamp); err != nil {
			return false, err
		}

		minter, err := p.store.GetUser(ctx, toID)
		if err != nil {
			return false, fmt.Errorf("failed to load user %s: %w", toID, err)
		}
		minter.MintCount++
		if err := p.store.SaveUser(ctx, minter); err != nil {
			return false, fmt.Errorf("failed to save user %s: %w", toID, err)
		}

		if err := p.aggregates.TokenMinted(ctx, block.Timestamp); err != nil {
			return false, err
		}
	}

	entry := p.journalBase(m.Raw, JournalKindMint, block, tx)
	entry.ID = fmt.Sprintf("%s-%s", eventID(m.Raw), tokenID)
	entry.TokenIDs = []string{tokenID}
	entry.Amounts = []string{m.Amount.String()}
	entry.From = addrID(zeroAddress)
	entry.To = toID
	entry.Operator = addrID(m.Operator)
	entry.Description = fmt.Sprintf("minted %s of token %s to %s", m.Amount, tokenID, toID)
	return true, p.appendJournal(ctx, entry)
}

// moveBalance applies a plain transfer: debit the source, credit the
// destination. A transfer referencing an unknown token skips the balance
// work; the caller still journals the event.
func (p *Processor) moveBalance(ctx context.Context, tokenID string, from, to common.Address, amount *big.Int, timestamp uint64) error {
	_, err := p.store.GetToken(ctx, tokenID)
	if errors.Is(err, storage.ErrNotFound) {
		p.logger.Warn("transfer references unknown token, skipping balance update",
			zap.String("token_id", tokenID),
			zap.String("from", addrID(from)),
			zap.String("to", addrID(to)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load token %s: %w", tokenID, err)
	}

	if err := p.applyBalanceDelta(ctx, from, tokenID, new(big.Int).Neg(amount), timestamp); err != nil {
		return err
	}
	return p.applyBalanceDelta(ctx, to, tokenID, amount, timestamp)
}

// applyBalanceDelta moves one user's holding in one token by a signed delta.
// A zero result deletes the balance row; an inventory item, if one exists,
// mirrors the new value but is never deleted. The owning user's
// last-interaction timestamp and inventory-value accumulator always update.
func (p *Processor) applyBalanceDelta(ctx context.Context, addr common.Address, tokenID string, delta *big.Int, timestamp uint64) error {
	userID := addrID(addr)

	current := big.NewInt(0)
	balance, err := p.store.GetUserTokenBalance(ctx, userID, tokenID)
	if err == nil {
		current = balance.Balance
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load balance %s/%s: %w", userID, tokenID, err)
	}

	newBalance := new(big.Int).Add(current, delta)
	if newBalance.Sign() == 0 {
		if balance != nil {
			if err := p.store.DeleteUserTokenBalance(ctx, userID, tokenID); err != nil {
				return fmt.Errorf("failed to delete balance %s/%s: %w", userID, tokenID, err)
			}
		}
	} else {
		if err := p.store.SaveUserTokenBalance(ctx, &storage.UserTokenBalance{
			ID:        pairID(userID, tokenID),
			User:      userID,
			TokenID:   tokenID,
			Balance:   newBalance,
			UpdatedAt: timestamp,
		}); err != nil {
			return fmt.Errorf("failed to save balance %s/%s: %w", userID, tokenID, err)
		}
	}

	item, err := p.store.GetUserInventoryItem(ctx, userID, tokenID)
	if err == nil {
		item.Balance = new(big.Int).Set(newBalance)
		item.LastUpdated = timestamp
		if err := p.store.SaveUserInventoryItem(ctx, item); err != nil {
			return fmt.Errorf("failed to save inventory item %s/%s: %w", userID, tokenID, err)
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load inventory item %s/%s: %w", userID, tokenID, err)
	}

	user, err := p.ensureUser(ctx, addr, timestamp)
	if err != nil {
		return err
	}
	user.LastInteraction = timestamp
	user.InventoryValue = new(big.Int).Add(user.InventoryValue, delta)
	if err := p.store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user %s: %w", userID, err)
	}

	return nil
}

// ensureInventoryItem creates the non-deleting inventory record on first
// acquisition. Existing items are left for the balance mirror to update.
func (p *Processor) ensureInventoryItem(ctx context.Context, userID, tokenID string, timestamp uint64) error {
	_, err := p.store.GetUserInventoryItem(ctx, userID, tokenID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load inventory item %s/%s: %w", userID, tokenID, err)
	}

	item := &storage.UserInventoryItem{
		ID:            pairID(userID, tokenID),
		User:          userID,
		TokenID:       tokenID,
		Balance:       big.NewInt(0),
		FirstAcquired: timestamp,
		LastUpdated:   timestamp,
	}
	if err := p.store.SaveUserInventoryItem(ctx, item); err != nil {
		return fmt.Errorf("failed to save inventory item %s/%s: %w", userID, tokenID, err)
	}
	return nil
}

func (p *Processor) applyRoleChange(ctx context.Context, role common.Hash, account, sender common.Address, granted bool, raw types.Log, block *storage.BlockMeta, tx *storage.TxMeta) (bool, error) {
	accountID := addrID(account)
	roleName := events.RoleName(role)

	change := &storage.RoleChange{
		ID:          eventID(raw),
		Role:        role.Hex(),
		RoleName:    roleName,
		Account:     accountID,
		Sender:      addrID(sender),
		Granted:     granted,
		BlockNumber: raw.BlockNumber,
		Timestamp:   block.Timestamp,
		TxHash:      raw.TxHash.Hex(),
	}
	if err := p.store.SaveRoleChange(ctx, change); err != nil {
		return false, fmt.Errorf("failed to save role change: %w", err)
	}

	user, err := p.ensureUser(ctx, account, block.Timestamp)
	if err != nil {
		return false, err
	}
	user.LastInteraction = block.Timestamp
	if err := p.store.SaveUser(ctx, user); err != nil {
		return false, fmt.Errorf("failed to save user %s: %w", accountID, err)
	}

	kind := events.KindRoleGranted
	verb := "granted to"
	if !granted {
		kind = events.KindRoleRevoked
		verb = "revoked from"
	}

	entry := p.journalBase(raw, string(kind), block, tx)
	entry.Role = role.Hex()
	entry.RoleName = roleName
	entry.Account = accountID
	entry.Description = fmt.Sprintf("%s %s %s", roleName, verb, accountID)
	return true, p.appendJournal(ctx, entry)
}

// applyURI handles the secondary metadata path. Resolution is idempotent:
// an id whose metadata already exists is journaled without re-resolving.
func (p *Processor) applyURI(ctx context.Context, e *events.URI, block *storage.BlockMeta, tx *storage.TxMeta) (bool, error) {
	raw := e.Raw
	tokenID := e.ID.String()

	meta, err := p.resolveMetadata(ctx, tokenID, e.Value, block.Timestamp)
	if err != nil {
		return false, err
	}

	// Mirror the descriptive fields onto the token when it exists; the URI
	// event may precede creation, in which case creation adopts the record.
	token, err := p.store.GetToken(ctx, tokenID)
	if err == nil {
		token.Name = meta.Name
		token.Description = meta.Description
		token.Image = meta.Image
		token.RewardID = meta.RewardID
		token.ForgeID = meta.ForgeID
		if err := p.store.SaveToken(ctx, token); err != nil {
			return false, fmt.Errorf("failed to save token %s: %w", tokenID, err)
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("failed to load token %s: %w", tokenID, err)
	}

	entry := p.journalBase(raw, string(events.KindURI), block, tx)
	entry.TokenIDs = []string{tokenID}
	entry.Description = fmt.Sprintf("metadata uri set for token %s", tokenID)
	return true, p.appendJournal(ctx, entry)
}

// ensureUser loads a user, lazily creating the record on first reference.
// The caller mutates and saves the returned record.
func (p *Processor) ensureUser(ctx context.Context, addr common.Address, timestamp uint64) (*storage.User, error) {
	id := addrID(addr)

	user, err := p.store.GetUser(ctx, id)
	if err == nil {
		user.LastInteraction = timestamp
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}

	user = &storage.User{
		ID:              id,
		FirstSeen:       timestamp,
		LastInteraction: timestamp,
		InventoryValue:  big.NewInt(0),
	}
	if err := p.aggregates.UserCreated(ctx, timestamp); err != nil {
		return nil, err
	}
	return user, nil
}

// journalBase fills the fields every journal entry shares
func (p *Processor) journalBase(raw types.Log, kind string, block *storage.BlockMeta, tx *storage.TxMeta) *storage.JournalEntry {
	return &storage.JournalEntry{
		ID:          eventID(raw),
		Kind:        kind,
		BlockNumber: raw.BlockNumber,
		BlockHash:   block.Hash.Hex(),
		TxHash:      raw.TxHash.Hex(),
		TxFrom:      addrID(tx.From),
		TxTo:        addrID(tx.To),
		Value:       tx.Value,
		GasUsed:     tx.GasUsed,
		GasPrice:    tx.GasPrice,
		Timestamp:   block.Timestamp,
	}
}

// appendJournal persists a journal entry, counts it, and announces it
func (p *Processor) appendJournal(ctx context.Context, entry *storage.JournalEntry) error {
	if err := p.store.SaveJournalEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to save journal entry %s: %w", entry.ID, err)
	}
	if err := p.aggregates.EventApplied(ctx, entry.Timestamp); err != nil {
		return err
	}

	if p.bus != nil {
		p.bus.Publish(&events.JournalAppended{
			EntryID:     entry.ID,
			Kind:        events.Kind(entry.Kind),
			BlockNumber: entry.BlockNumber,
			Description: entry.Description,
			At:          time.Now(),
		})
	}
	return nil
}

func (p *Processor) recordApplied(kind string) {
	if p.metrics != nil {
		p.metrics.RecordApplied(kind)
	}
}

func (p *Processor) recordSkipped(reason string) {
	if p.metrics != nil {
		p.metrics.RecordSkipped(reason)
	}
}

func (p *Processor) recordResolution(outcome string) {
	if p.metrics != nil {
		p.metrics.RecordResolution(outcome)
	}
}

// eventID is the canonical {txHash}-{logIndex} identifier of a raw log
func eventID(raw types.Log) string {
	return fmt.Sprintf("%s-%d", raw.TxHash.Hex(), raw.Index)
}

// pairID keys the (user, token) records
func pairID(userID, tokenID string) string {
	return fmt.Sprintf("%s-%s", userID, tokenID)
}

// addrID is the lowercase hex form used as user identity
func addrID(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
