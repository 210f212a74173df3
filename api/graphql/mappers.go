package graphql

import (
	"fmt"
	"math/big"
	"time"

	"github.com/0xmhha/forge-indexer-go/fetch"
	"github.com/0xmhha/forge-indexer-go/storage"
)

// bigString renders a big integer field; absent values read as zero
func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// stringList converts a string slice for list-typed fields
func stringList(values []string) []interface{} {
	if values == nil {
		return nil
	}
	list := make([]interface{}, len(values))
	for i, v := range values {
		list[i] = v
	}
	return list
}

// tokenToMap converts a token to a GraphQL-friendly map
func tokenToMap(token *storage.Token) map[string]interface{} {
	if token == nil {
		return nil
	}

	return map[string]interface{}{
		"id":             token.ID,
		"tokenType":      int(token.TokenType),
		"category":       token.Category,
		"subCategory":    token.SubCategory,
		"soulbound":      token.Soulbound,
		"maxSupply":      bigString(token.MaxSupply),
		"currentSupply":  bigString(token.CurrentSupply),
		"creator":        token.Creator,
		"createdAtBlock": fmt.Sprintf("%d", token.CreatedAtBlock),
		"createdAt":      fmt.Sprintf("%d", token.CreatedAt),
		"creationTx":     token.CreationTx,
		"uri":            token.URI,
		"name":           token.Name,
		"description":    token.Description,
		"image":          token.Image,
		"rewardId":       token.RewardID,
		"forgeId":        token.ForgeID,
	}
}

// metadataToMap converts a metadata record to a GraphQL-friendly map
func metadataToMap(meta *storage.TokenMetadata) map[string]interface{} {
	if meta == nil {
		return nil
	}

	return map[string]interface{}{
		"id":          meta.ID,
		"tokenId":     meta.TokenID,
		"name":        meta.Name,
		"description": meta.Description,
		"image":       meta.Image,
		"rewardId":    meta.RewardID,
		"forgeId":     meta.ForgeID,
		"updatedAt":   fmt.Sprintf("%d", meta.UpdatedAt),
	}
}

// attributeToMap converts a token attribute to a GraphQL-friendly map
func attributeToMap(attr *storage.TokenAttribute) map[string]interface{} {
	if attr == nil {
		return nil
	}

	return map[string]interface{}{
		"id":        attr.ID,
		"tokenId":   attr.TokenID,
		"ordinal":   attr.Ordinal,
		"traitType": attr.TraitType,
		"value":     attr.Value,
	}
}

// creationToMap converts a creation record to a GraphQL-friendly map
func creationToMap(creation *storage.TokenCreation) map[string]interface{} {
	if creation == nil {
		return nil
	}

	return map[string]interface{}{
		"id":          creation.ID,
		"tokenId":     creation.TokenID,
		"creator":     creation.Creator,
		"maxSupply":   bigString(creation.MaxSupply),
		"blockNumber": fmt.Sprintf("%d", creation.BlockNumber),
		"timestamp":   fmt.Sprintf("%d", creation.Timestamp),
		"txHash":      creation.TxHash,
	}
}

// mintToMap converts a mint record to a GraphQL-friendly map
func mintToMap(mint *storage.TokenMint) map[string]interface{} {
	if mint == nil {
		return nil
	}

	return map[string]interface{}{
		"id":          mint.ID,
		"tokenId":     mint.TokenID,
		"to":          mint.To,
		"operator":    mint.Operator,
		"amount":      bigString(mint.Amount),
		"tokenName":   mint.TokenName,
		"tokenImage":  mint.TokenImage,
		"rewardId":    mint.RewardID,
		"forgeId":     mint.ForgeID,
		"category":    mint.Category,
		"tokenType":   int(mint.TokenType),
		"blockNumber": fmt.Sprintf("%d", mint.BlockNumber),
		"timestamp":   fmt.Sprintf("%d", mint.Timestamp),
		"txHash":      mint.TxHash,
	}
}

// userToMap converts a user to a GraphQL-friendly map
func userToMap(user *storage.User) map[string]interface{} {
	if user == nil {
		return nil
	}

	return map[string]interface{}{
		"id":              user.ID,
		"firstSeen":       fmt.Sprintf("%d", user.FirstSeen),
		"lastInteraction": fmt.Sprintf("%d", user.LastInteraction),
		"mintCount":       int(user.MintCount),
		"creationCount":   int(user.CreationCount),
		"inventoryValue":  bigString(user.InventoryValue),
	}
}

// balanceToMap converts a balance row to a GraphQL-friendly map
func balanceToMap(balance *storage.UserTokenBalance) map[string]interface{} {
	if balance == nil {
		return nil
	}

	return map[string]interface{}{
		"id":        balance.ID,
		"user":      balance.User,
		"tokenId":   balance.TokenID,
		"balance":   bigString(balance.Balance),
		"updatedAt": fmt.Sprintf("%d", balance.UpdatedAt),
	}
}

// inventoryItemToMap converts an inventory row to a GraphQL-friendly map
func inventoryItemToMap(item *storage.UserInventoryItem) map[string]interface{} {
	if item == nil {
		return nil
	}

	return map[string]interface{}{
		"id":            item.ID,
		"user":          item.User,
		"tokenId":       item.TokenID,
		"balance":       bigString(item.Balance),
		"firstAcquired": fmt.Sprintf("%d", item.FirstAcquired),
		"lastUpdated":   fmt.Sprintf("%d", item.LastUpdated),
	}
}

// roleChangeToMap converts a role change record to a GraphQL-friendly map
func roleChangeToMap(change *storage.RoleChange) map[string]interface{} {
	if change == nil {
		return nil
	}

	return map[string]interface{}{
		"id":          change.ID,
		"role":        change.Role,
		"roleName":    change.RoleName,
		"account":     change.Account,
		"sender":      change.Sender,
		"granted":     change.Granted,
		"blockNumber": fmt.Sprintf("%d", change.BlockNumber),
		"timestamp":   fmt.Sprintf("%d", change.Timestamp),
		"txHash":      change.TxHash,
	}
}

// journalEntryToMap converts a journal entry to a GraphQL-friendly map.
// Empty payload fields map to null rather than empty strings.
func journalEntryToMap(entry *storage.JournalEntry) map[string]interface{} {
	if entry == nil {
		return nil
	}

	result := map[string]interface{}{
		"id":          entry.ID,
		"kind":        entry.Kind,
		"blockNumber": fmt.Sprintf("%d", entry.BlockNumber),
		"blockHash":   entry.BlockHash,
		"txHash":      entry.TxHash,
		"txFrom":      entry.TxFrom,
		"txTo":        entry.TxTo,
		"value":       bigString(entry.Value),
		"gasUsed":     fmt.Sprintf("%d", entry.GasUsed),
		"gasPrice":    bigString(entry.GasPrice),
		"timestamp":   fmt.Sprintf("%d", entry.Timestamp),
		"tokenIds":    stringList(entry.TokenIDs),
		"amounts":     stringList(entry.Amounts),
		"description": entry.Description,
	}

	if entry.From != "" {
		result["from"] = entry.From
	}
	if entry.To != "" {
		result["to"] = entry.To
	}
	if entry.Operator != "" {
		result["operator"] = entry.Operator
	}
	if entry.Role != "" {
		result["role"] = entry.Role
	}
	if entry.RoleName != "" {
		result["roleName"] = entry.RoleName
	}
	if entry.Account != "" {
		result["account"] = entry.Account
	}

	return result
}

// globalStatsToMap converts the global stats row to a GraphQL-friendly map
func globalStatsToMap(stats *storage.GlobalStats) map[string]interface{} {
	if stats == nil {
		return nil
	}

	return map[string]interface{}{
		"id":          stats.ID,
		"totalTokens": fmt.Sprintf("%d", stats.TotalTokens),
		"totalMints":  fmt.Sprintf("%d", stats.TotalMints),
		"totalUsers":  fmt.Sprintf("%d", stats.TotalUsers),
		"totalEvents": fmt.Sprintf("%d", stats.TotalEvents),
		"lastUpdated": fmt.Sprintf("%d", stats.LastUpdated),
	}
}

// dailyStatsToMap converts a day bucket to a GraphQL-friendly map
func dailyStatsToMap(stats *storage.DailyStats) map[string]interface{} {
	if stats == nil {
		return nil
	}

	return map[string]interface{}{
		"id":            stats.ID,
		"day":           fmt.Sprintf("%d", stats.Day),
		"tokensCreated": fmt.Sprintf("%d", stats.TokensCreated),
		"tokensMinted":  fmt.Sprintf("%d", stats.TokensMinted),
		"activeUsers":   fmt.Sprintf("%d", stats.ActiveUsers),
	}
}

// statusToMap converts the runner snapshot to a GraphQL-friendly map
func statusToMap(status fetch.Status) map[string]interface{} {
	result := map[string]interface{}{
		"running":        status.Running,
		"startBlock":     fmt.Sprintf("%d", status.StartBlock),
		"chainHead":      fmt.Sprintf("%d", status.ChainHead),
		"lastScanStart":  nil,
		"lastScanEnd":    nil,
		"lastDurationMs": int(status.LastDuration.Milliseconds()),
		"eventsApplied":  status.EventsApplied,
		"eventsSkipped":  status.EventsSkipped,
		"failedRanges":   status.FailedRanges,
		"scansCompleted": fmt.Sprintf("%d", status.ScansCompleted),
		"lastError":      nil,
	}

	if !status.LastScanStart.IsZero() {
		result["lastScanStart"] = status.LastScanStart.UTC().Format(time.RFC3339)
	}
	if !status.LastScanEnd.IsZero() {
		result["lastScanEnd"] = status.LastScanEnd.UTC().Format(time.RFC3339)
	}
	if status.LastError != "" {
		result["lastError"] = status.LastError
	}

	return result
}
