package graphql

import (
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/0xmhha/forge-indexer-go/fetch"
	"github.com/0xmhha/forge-indexer-go/storage"
)

// StatusSource exposes the indexing runner state to the read API
type StatusSource interface {
	Status() fetch.Status
}

// Schema holds the GraphQL schema
type Schema struct {
	schema graphql.Schema
	store  *storage.Store
	status StatusSource
	logger *zap.Logger
}

// NewSchema creates a new GraphQL schema over the entity store. The status
// source may be nil, in which case indexingStatus reports a stopped runner.
func NewSchema(store *storage.Store, status StatusSource, logger *zap.Logger) (*Schema, error) {
	s := &Schema{
		store:  store,
		status: status,
		logger: logger,
	}

	// Create query type
	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"token": &graphql.Field{
				Type: tokenType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.ID),
					},
				},
				Resolve: s.resolveToken,
			},
			"tokens": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(tokenType))),
				Args:    listArgs(tokenWhereType),
				Resolve: s.resolveTokens,
			},
			"tokenMetadata": &graphql.Field{
				Type: tokenMetadataType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.ID),
					},
				},
				Resolve: s.resolveTokenMetadata,
			},
			"tokenAttributes": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(tokenAttributeType))),
				Args: graphql.FieldConfigArgument{
					"tokenId": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.ID),
					},
				},
				Resolve: s.resolveTokenAttributes,
			},
			"tokenCreations": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(tokenCreationType))),
				Args:    listArgs(tokenCreationWhereType),
				Resolve: s.resolveTokenCreations,
			},
			"tokenMints": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(tokenMintType))),
				Args:    listArgs(tokenMintWhereType),
				Resolve: s.resolveTokenMints,
			},
			"user": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.ID),
					},
				},
				Resolve: s.resolveUser,
			},
			"users": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userType))),
				Args:    listArgs(userWhereType),
				Resolve: s.resolveUsers,
			},
			"userTokenBalances": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userTokenBalanceType))),
				Args:    listArgs(userTokenBalanceWhereType),
				Resolve: s.resolveUserTokenBalances,
			},
			"userInventoryItems": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userInventoryItemType))),
				Args:    listArgs(userInventoryItemWhereType),
				Resolve: s.resolveUserInventoryItems,
			},
			"roleChanges": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(roleChangeType))),
				Args:    listArgs(roleChangeWhereType),
				Resolve: s.resolveRoleChanges,
			},
			"event": &graphql.Field{
				Type: eventType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.ID),
					},
				},
				Resolve: s.resolveEvent,
			},
			"events": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(eventType))),
				Args:    listArgs(eventWhereType),
				Resolve: s.resolveEvents,
			},
			"globalStats": &graphql.Field{
				Type:    globalStatsType,
				Resolve: s.resolveGlobalStats,
			},
			"dailyStats": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(dailyStatsType))),
				Args:    listArgs(nil),
				Resolve: s.resolveDailyStats,
			},
			"indexingStatus": &graphql.Field{
				Type:    graphql.NewNonNull(indexingStatusType),
				Resolve: s.resolveIndexingStatus,
			},
		},
	})

	// Create schema
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return nil, err
	}

	s.schema = schema
	return s, nil
}

// Schema returns the GraphQL schema
func (s *Schema) Schema() graphql.Schema {
	return s.schema
}
