package storage

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Key prefixes for the derived-state collections and the lookup cache.
// Everything under /data/ is recomputed on each full re-scan; /cache/
// entries survive resets.
const (
	prefixData = "/data/"

	prefixToken      = "/data/token/"
	prefixCreation   = "/data/creation/"
	prefixMint       = "/data/mint/"
	prefixUser       = "/data/user/"
	prefixBalance    = "/data/balance/"
	prefixInventory  = "/data/inventory/"
	prefixRole       = "/data/role/"
	prefixJournal    = "/data/journal/"
	prefixMetadata   = "/data/metadata/"
	prefixProperties = "/data/properties/"
	prefixAttribute  = "/data/attribute/"
	prefixDaily      = "/data/daily/"

	keyGlobalStats = "/data/stats/global"

	prefixCacheBlock = "/cache/block/"
	prefixCacheTx    = "/cache/tx/"
)

// idDelimiter joins the components of composite entity ids.
const idDelimiter = "-"

// GlobalStatsID is the fixed identifier of the singleton GlobalStats row.
const GlobalStatsID = "global"

// AddressID returns the canonical entity id for an address: lowercase hex.
func AddressID(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// EventID returns the id shared by creations, role changes and journal
// entries. Format: {txHash}-{logIndex}
func EventID(txHash common.Hash, logIndex uint) string {
	return fmt.Sprintf("%s%s%d", txHash.Hex(), idDelimiter, logIndex)
}

// MintID returns the id of a TokenMint record.
// Format: {txHash}-{logIndex}-{tokenID}
func MintID(txHash common.Hash, logIndex uint, tokenID string) string {
	return fmt.Sprintf("%s%s%d%s%s", txHash.Hex(), idDelimiter, logIndex, idDelimiter, tokenID)
}

// BalanceID returns the id of a UserTokenBalance or UserInventoryItem.
// Format: {user}-{tokenID}
func BalanceID(user, tokenID string) string {
	return user + idDelimiter + tokenID
}

// AttributeID returns the id of a TokenAttribute.
// Format: {tokenID}-{ordinal}
func AttributeID(tokenID string, ordinal int) string {
	return fmt.Sprintf("%s%s%d", tokenID, idDelimiter, ordinal)
}

// TokenKey returns the key for a token by id
// Format: /data/token/{id}
func TokenKey(id string) []byte {
	return []byte(prefixToken + id)
}

// TokenCreationKey returns the key for a creation record
// Format: /data/creation/{txHash}-{logIndex}
func TokenCreationKey(id string) []byte {
	return []byte(prefixCreation + id)
}

// TokenMintKey returns the key for a mint record
// Format: /data/mint/{txHash}-{logIndex}-{tokenID}
func TokenMintKey(id string) []byte {
	return []byte(prefixMint + id)
}

// UserKey returns the key for a user by address
// Format: /data/user/{address}
func UserKey(id string) []byte {
	return []byte(prefixUser + id)
}

// UserTokenBalanceKey returns the key for a balance record
// Format: /data/balance/{user}-{tokenID}
func UserTokenBalanceKey(user, tokenID string) []byte {
	return []byte(prefixBalance + BalanceID(user, tokenID))
}

// UserInventoryItemKey returns the key for an inventory record
// Format: /data/inventory/{user}-{tokenID}
func UserInventoryItemKey(user, tokenID string) []byte {
	return []byte(prefixInventory + BalanceID(user, tokenID))
}

// RoleChangeKey returns the key for a role change record
// Format: /data/role/{txHash}-{logIndex}
func RoleChangeKey(id string) []byte {
	return []byte(prefixRole + id)
}

// JournalKey returns the key for a journal entry
// Format: /data/journal/{id}
func JournalKey(id string) []byte {
	return []byte(prefixJournal + id)
}

// TokenMetadataKey returns the key for a token metadata record
// Format: /data/metadata/{tokenID}
func TokenMetadataKey(tokenID string) []byte {
	return []byte(prefixMetadata + tokenID)
}

// TokenPropertiesKey returns the key for a token properties record
// Format: /data/properties/{tokenID}
func TokenPropertiesKey(tokenID string) []byte {
	return []byte(prefixProperties + tokenID)
}

// TokenAttributeKey returns the key for one attribute of a token.
// The ordinal is zero-padded so attributes iterate in parse order.
// Format: /data/attribute/{tokenID}-{ordinal:03d}
func TokenAttributeKey(tokenID string, ordinal int) []byte {
	return []byte(fmt.Sprintf("%s%s%s%03d", prefixAttribute, tokenID, idDelimiter, ordinal))
}

// TokenAttributePrefix returns the iteration prefix for all attributes of a token
func TokenAttributePrefix(tokenID string) []byte {
	return []byte(prefixAttribute + tokenID + idDelimiter)
}

// GlobalStatsKey returns the key of the singleton global stats row
func GlobalStatsKey() []byte {
	return []byte(keyGlobalStats)
}

// DailyStatsKey returns the key for a daily stats bucket.
// Uses zero-padded fixed-width format for proper lexicographic sorting.
// Format: /data/daily/{day:020d}
func DailyStatsKey(day uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixDaily, day))
}

// BlockMetaKey returns the lookup-cache key for a block.
// Uses zero-padded fixed-width format for proper lexicographic sorting.
// Format: /cache/block/{number:020d}
func BlockMetaKey(number uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixCacheBlock, number))
}

// TxMetaKey returns the lookup-cache key for a transaction
// Format: /cache/tx/{txHash}
func TxMetaKey(hash common.Hash) []byte {
	return []byte(prefixCacheTx + hash.Hex())
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, for use as an exclusive iterator upper bound.
func prefixUpperBound(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil // All 0xff, no upper bound
}
