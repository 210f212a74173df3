package graphql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/0xmhha/forge-indexer-go/fetch"
	"github.com/0xmhha/forge-indexer-go/storage"
)

// filterSpec maps one where-input field to a storage filter term
type filterSpec struct {
	// arg is the input object field name
	arg string

	// field is the JSON field name on the stored record
	field string

	// substring selects containment matching
	substring bool

	// lower normalizes the value to lowercase (addresses)
	lower bool
}

var (
	tokenFilterSpecs = []filterSpec{
		{arg: "id", field: "id"},
		{arg: "category", field: "category"},
		{arg: "subCategory", field: "subCategory"},
		{arg: "creator", field: "creator", lower: true},
		{arg: "soulbound", field: "soulbound"},
		{arg: "tokenType", field: "tokenType"},
		{arg: "name_contains", field: "name", substring: true},
	}

	userFilterSpecs = []filterSpec{
		{arg: "id", field: "id", lower: true},
	}

	creationFilterSpecs = []filterSpec{
		{arg: "tokenId", field: "tokenId"},
		{arg: "creator", field: "creator", lower: true},
	}

	mintFilterSpecs = []filterSpec{
		{arg: "tokenId", field: "tokenId"},
		{arg: "to", field: "to", lower: true},
		{arg: "operator", field: "operator", lower: true},
		{arg: "category", field: "category"},
	}

	balanceFilterSpecs = []filterSpec{
		{arg: "user", field: "user", lower: true},
		{arg: "tokenId", field: "tokenId"},
	}

	roleChangeFilterSpecs = []filterSpec{
		{arg: "account", field: "account", lower: true},
		{arg: "roleName", field: "roleName"},
		{arg: "granted", field: "granted"},
	}

	eventFilterSpecs = []filterSpec{
		{arg: "kind", field: "kind"},
		{arg: "txHash", field: "txHash"},
		{arg: "from", field: "from", lower: true},
		{arg: "to", field: "to", lower: true},
		{arg: "account", field: "account", lower: true},
		{arg: "blockNumber", field: "blockNumber"},
	}
)

// listOptions builds storage list options from the shared collection args
func listOptions(p graphql.ResolveParams) storage.ListOptions {
	opts := storage.ListOptions{}
	if first, ok := p.Args["first"].(int); ok {
		opts.First = first
	}
	if skip, ok := p.Args["skip"].(int); ok {
		opts.Skip = skip
	}
	if orderBy, ok := p.Args["orderBy"].(string); ok {
		opts.OrderBy = orderBy
	}
	if dir, ok := p.Args["orderDirection"].(string); ok {
		opts.OrderDirection = dir
	}
	return opts
}

// whereFilters translates a where-input argument into storage filter terms
func whereFilters(p graphql.ResolveParams, specs []filterSpec) []storage.Filter {
	where, ok := p.Args["where"].(map[string]interface{})
	if !ok || len(where) == 0 {
		return nil
	}

	var filters []storage.Filter
	for _, spec := range specs {
		v, ok := where[spec.arg]
		if !ok || v == nil {
			continue
		}
		value := filterValue(v)
		if spec.lower {
			value = strings.ToLower(value)
		}
		filters = append(filters, storage.Filter{
			Field:     spec.field,
			Value:     value,
			Substring: spec.substring,
		})
	}
	return filters
}

// filterValue renders an argument in the canonical string form stored records
// use: decimal numbers, true/false booleans
func filterValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// resolveToken resolves a token by id
func (s *Schema) resolveToken(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	id, ok := p.Args["id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token id")
	}

	token, err := s.store.GetToken(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to get token",
			zap.String("id", id),
			zap.Error(err))
		return nil, err
	}

	return tokenToMap(token), nil
}

// resolveTokens resolves tokens with filtering and pagination
func (s *Schema) resolveTokens(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	opts := listOptions(p)
	opts.Where = whereFilters(p, tokenFilterSpecs)

	tokens, err := s.store.ListTokens(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list tokens", zap.Error(err))
		return nil, err
	}

	nodes := make([]interface{}, 0, len(tokens))
	for _, token := range tokens {
		nodes = append(nodes, tokenToMap(token))
	}
	return nodes, nil
}

// resolveTokenMetadata resolves the metadata record of a token
func (s *Schema) resolveTokenMetadata(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	id, ok := p.Args["id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token id")
	}

	meta, err := s.store.GetTokenMetadata(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to get token metadata",
			zap.String("id", id),
			zap.Error(err))
		return nil, err
	}

	return metadataToMap(meta), nil
}

// resolveTokenAttributes resolves the attribute list of a token in parse order
func (s *Schema) resolveTokenAttributes(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	tokenID, ok := p.Args["tokenId"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token id")
	}

	attrs, err := s.store.ListTokenAttributes(ctx, tokenID)
	if err != nil {
		s.logger.Error("failed to list token attributes",
			zap.String("tokenId", tokenID),
			zap.Error(err))
		return nil, err
	}

	nodes := make([]interface{}, 0, len(attrs))
	for _, attr := range attrs {
		nodes = append(nodes, attributeToMap(attr))
	}
	return nodes, nil
}

// resolveTokenCreations resolves creation records
func (s *Schema) resolveTokenCreations(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	opts := listOptions(p)
	opts.Where = whereFilters(p, creationFilterSpecs)

	creations, err := s.store.ListTokenCreations(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list token creations", zap.Error(err))
		return nil, err
	}

	nodes := make([]interface{}, 0, len(creations))
	for _, creation := range creations {
		nodes = append(nodes, creationToMap(creation))
	}
	return nodes, nil
}

// resolveTokenMints resolves mint records
func (s *Schema) resolveTokenMints(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	opts := listOptions(p)
	opts.Where = whereFilters(p, mintFilterSpecs)

	mints, err := s.store.ListTokenMints(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list token mints", zap.Error(err))
		return nil, err
	}

	nodes := make([]interface{}, 0, len(mints))
	for _, mint := range mints {
		nodes = append(nodes, mintToMap(mint))
	}
	return nodes, nil
}

// resolveUser resolves a user by address
func (s *Schema) resolveUser(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	id, ok := p.Args["id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid user id")
	}

	user, err := s.store.GetUser(ctx, strings.ToLower(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to get user",
			zap.String("id", id),
			zap.Error(err))
		return nil, err
	}

	return userToMap(user), nil
}

// resolveUsers resolves users
func (s *Schema) resolveUsers(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	opts := listOptions(p)
	opts.Where = whereFilters(p, userFilterSpecs)

	users, err := s.store.ListUsers(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, err
	}

	nodes := make([]interface{}, 0, len(users))
	for _, user := range users {
		nodes = append(nodes, userToMap(user))
	}
	return nodes, nil
}

// resolveUserTokenBalances resolves live balance rows
func (s *Schema) resolveUserTokenBalances(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	opts := listOptions(p)
	opts.Where = whereFilters(p, balanceFilterSpecs)

	balances, err := s.store.ListUserTokenBalances(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list user token balances", zap.Error(err))
		return nil, err
	}

	nodes := make([]interface{}, 0, len(balances))
	for _, balance := range balances {
		nodes = append(nodes, balanceToMap(balance))
	}
	return nodes, nil
}

// resolveUserInventoryItems resolves inventory rows, zero balances included
func (s *Schema) resolveUserInventoryItems(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	opts := listOptions(p)
	opts.Where = whereFilters(p, balanceFilterSpecs)

	items, err := s.store.ListUserInventoryItems(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list user inventory items", zap.Error(err))
		return nil, err
	}

	nodes := make([]interface{}, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, inventoryItemToMap(item))
	}
	return nodes, nil
}

// resolveRoleChanges resolves role change records
func (s *Schema) resolveRoleChanges(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	opts := listOptions(p)
	opts.Where = whereFilters(p, roleChangeFilterSpecs)

	changes, err := s.store.ListRoleChanges(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list role changes", zap.Error(err))
		return nil, err
	}

	nodes := make([]interface{}, 0, len(changes))
	for _, change := range changes {
		nodes = append(nodes, roleChangeToMap(change))
	}
	return nodes, nil
}

// resolveEvent resolves a journal entry by id
func (s *Schema) resolveEvent(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	id, ok := p.Args["id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid event id")
	}

	entry, err := s.store.GetJournalEntry(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to get journal entry",
			zap.String("id", id),
			zap.Error(err))
		return nil, err
	}

	return journalEntryToMap(entry), nil
}

// resolveEvents resolves journal entries
func (s *Schema) resolveEvents(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	opts := listOptions(p)
	opts.Where = whereFilters(p, eventFilterSpecs)

	entries, err := s.store.ListJournalEntries(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list journal entries", zap.Error(err))
		return nil, err
	}

	nodes := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		nodes = append(nodes, journalEntryToMap(entry))
	}
	return nodes, nil
}

// resolveGlobalStats resolves the singleton aggregate row; null until the
// first event has been applied
func (s *Schema) resolveGlobalStats(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context

	stats, err := s.store.GetGlobalStats(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to get global stats", zap.Error(err))
		return nil, err
	}

	return globalStatsToMap(stats), nil
}

// resolveDailyStats resolves day buckets
func (s *Schema) resolveDailyStats(p graphql.ResolveParams) (interface{}, error) {
	ctx := p.Context
	opts := listOptions(p)

	days, err := s.store.ListDailyStats(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list daily stats", zap.Error(err))
		return nil, err
	}

	nodes := make([]interface{}, 0, len(days))
	for _, day := range days {
		nodes = append(nodes, dailyStatsToMap(day))
	}
	return nodes, nil
}

// resolveIndexingStatus resolves the runner snapshot
func (s *Schema) resolveIndexingStatus(p graphql.ResolveParams) (interface{}, error) {
	var status fetch.Status
	if s.status != nil {
		status = s.status.Status()
	}
	return statusToMap(status), nil
}
