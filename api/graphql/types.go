package graphql

import (
	"github.com/graphql-go/graphql"
)

var (
	// Scalar conventions: chain-scale numbers (supplies, balances, wei
	// values, block numbers, unix timestamps, lifetime totals) are decimal
	// strings; small bounded numbers are Ints.
	bigIntType  = graphql.String
	addressType = graphql.String
	hashType    = graphql.String

	tokenType             *graphql.Object
	tokenMetadataType     *graphql.Object
	tokenAttributeType    *graphql.Object
	tokenCreationType     *graphql.Object
	tokenMintType         *graphql.Object
	userType              *graphql.Object
	userTokenBalanceType  *graphql.Object
	userInventoryItemType *graphql.Object
	roleChangeType        *graphql.Object
	eventType             *graphql.Object
	globalStatsType       *graphql.Object
	dailyStatsType        *graphql.Object
	indexingStatusType    *graphql.Object

	tokenWhereType             *graphql.InputObject
	userWhereType              *graphql.InputObject
	tokenCreationWhereType     *graphql.InputObject
	tokenMintWhereType         *graphql.InputObject
	userTokenBalanceWhereType  *graphql.InputObject
	userInventoryItemWhereType *graphql.InputObject
	roleChangeWhereType        *graphql.InputObject
	eventWhereType             *graphql.InputObject
)

func init() {
	initTypes()
}

func initTypes() {
	tokenType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Token",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"tokenType":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"category":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"subCategory":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"soulbound":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"maxSupply":     &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"currentSupply": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"creator":       &graphql.Field{Type: graphql.NewNonNull(addressType)},
			"createdAtBlock": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"createdAt":   &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"creationTx":  &graphql.Field{Type: graphql.NewNonNull(hashType)},
			"uri":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"image":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"rewardId":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"forgeId":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	tokenMetadataType = graphql.NewObject(graphql.ObjectConfig{
		Name: "TokenMetadata",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"tokenId":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"image":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"rewardId":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"forgeId":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"updatedAt":   &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
		},
	})

	tokenAttributeType = graphql.NewObject(graphql.ObjectConfig{
		Name: "TokenAttribute",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"tokenId":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"ordinal":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"traitType": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"value":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	tokenCreationType = graphql.NewObject(graphql.ObjectConfig{
		Name: "TokenCreation",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"tokenId":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"creator":     &graphql.Field{Type: graphql.NewNonNull(addressType)},
			"maxSupply":   &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"blockNumber": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"timestamp":   &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"txHash":      &graphql.Field{Type: graphql.NewNonNull(hashType)},
		},
	})

	tokenMintType = graphql.NewObject(graphql.ObjectConfig{
		Name: "TokenMint",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"tokenId":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"to":          &graphql.Field{Type: graphql.NewNonNull(addressType)},
			"operator":    &graphql.Field{Type: graphql.NewNonNull(addressType)},
			"amount":      &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"tokenName":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"tokenImage":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"rewardId":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"forgeId":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"category":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"tokenType":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"blockNumber": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"timestamp":   &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"txHash":      &graphql.Field{Type: graphql.NewNonNull(hashType)},
		},
	})

	userType = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"firstSeen":       &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"lastInteraction": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"mintCount":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"creationCount":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"inventoryValue":  &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
		},
	})

	userTokenBalanceType = graphql.NewObject(graphql.ObjectConfig{
		Name: "UserTokenBalance",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"user":      &graphql.Field{Type: graphql.NewNonNull(addressType)},
			"tokenId":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"balance":   &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
		},
	})

	userInventoryItemType = graphql.NewObject(graphql.ObjectConfig{
		Name: "UserInventoryItem",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"user":          &graphql.Field{Type: graphql.NewNonNull(addressType)},
			"tokenId":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"balance":       &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"firstAcquired": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"lastUpdated":   &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
		},
	})

	roleChangeType = graphql.NewObject(graphql.ObjectConfig{
		Name: "RoleChange",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"role":        &graphql.Field{Type: graphql.NewNonNull(hashType)},
			"roleName":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"account":     &graphql.Field{Type: graphql.NewNonNull(addressType)},
			"sender":      &graphql.Field{Type: graphql.NewNonNull(addressType)},
			"granted":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"blockNumber": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"timestamp":   &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"txHash":      &graphql.Field{Type: graphql.NewNonNull(hashType)},
		},
	})

	eventType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Event",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"kind":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"blockNumber": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"blockHash":   &graphql.Field{Type: graphql.NewNonNull(hashType)},
			"txHash":      &graphql.Field{Type: graphql.NewNonNull(hashType)},
			"txFrom":      &graphql.Field{Type: graphql.NewNonNull(addressType)},
			"txTo":        &graphql.Field{Type: graphql.NewNonNull(addressType)},
			"value":       &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"gasUsed":     &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"gasPrice":    &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"timestamp":   &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"tokenIds":    &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.ID))},
			"amounts":     &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(bigIntType))},
			"from":        &graphql.Field{Type: addressType},
			"to":          &graphql.Field{Type: addressType},
			"operator":    &graphql.Field{Type: addressType},
			"role":        &graphql.Field{Type: hashType},
			"roleName":    &graphql.Field{Type: graphql.String},
			"account":     &graphql.Field{Type: addressType},
			"description": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	globalStatsType = graphql.NewObject(graphql.ObjectConfig{
		Name: "GlobalStats",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"totalTokens": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"totalMints":  &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"totalUsers":  &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"totalEvents": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"lastUpdated": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
		},
	})

	dailyStatsType = graphql.NewObject(graphql.ObjectConfig{
		Name: "DailyStats",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"day":           &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"tokensCreated": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"tokensMinted":  &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"activeUsers":   &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
		},
	})

	indexingStatusType = graphql.NewObject(graphql.ObjectConfig{
		Name: "IndexingStatus",
		Fields: graphql.Fields{
			"running":        &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"startBlock":     &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"chainHead":      &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"lastScanStart":  &graphql.Field{Type: graphql.String},
			"lastScanEnd":    &graphql.Field{Type: graphql.String},
			"lastDurationMs": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"eventsApplied":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"eventsSkipped":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"failedRanges":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"scansCompleted": &graphql.Field{Type: graphql.NewNonNull(bigIntType)},
			"lastError":      &graphql.Field{Type: graphql.String},
		},
	})

	tokenWhereType = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "TokenWhereInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":            &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"category":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"subCategory":   &graphql.InputObjectFieldConfig{Type: graphql.String},
			"creator":       &graphql.InputObjectFieldConfig{Type: addressType},
			"soulbound":     &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"tokenType":     &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"name_contains": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	userWhereType = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UserWhereInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id": &graphql.InputObjectFieldConfig{Type: graphql.ID},
		},
	})

	tokenCreationWhereType = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "TokenCreationWhereInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"tokenId": &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"creator": &graphql.InputObjectFieldConfig{Type: addressType},
		},
	})

	tokenMintWhereType = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "TokenMintWhereInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"tokenId":  &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"to":       &graphql.InputObjectFieldConfig{Type: addressType},
			"operator": &graphql.InputObjectFieldConfig{Type: addressType},
			"category": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	userTokenBalanceWhereType = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UserTokenBalanceWhereInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"user":    &graphql.InputObjectFieldConfig{Type: addressType},
			"tokenId": &graphql.InputObjectFieldConfig{Type: graphql.ID},
		},
	})

	userInventoryItemWhereType = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UserInventoryItemWhereInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"user":    &graphql.InputObjectFieldConfig{Type: addressType},
			"tokenId": &graphql.InputObjectFieldConfig{Type: graphql.ID},
		},
	})

	roleChangeWhereType = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "RoleChangeWhereInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"account":  &graphql.InputObjectFieldConfig{Type: addressType},
			"roleName": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"granted":  &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		},
	})

	eventWhereType = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "EventWhereInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"kind":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"txHash":      &graphql.InputObjectFieldConfig{Type: hashType},
			"from":        &graphql.InputObjectFieldConfig{Type: addressType},
			"to":          &graphql.InputObjectFieldConfig{Type: addressType},
			"account":     &graphql.InputObjectFieldConfig{Type: addressType},
			"blockNumber": &graphql.InputObjectFieldConfig{Type: bigIntType},
		},
	})
}

// listArgs is the argument set every collection query shares
func listArgs(where *graphql.InputObject) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{
		"first":          &graphql.ArgumentConfig{Type: graphql.Int},
		"skip":           &graphql.ArgumentConfig{Type: graphql.Int},
		"orderBy":        &graphql.ArgumentConfig{Type: graphql.String},
		"orderDirection": &graphql.ArgumentConfig{Type: graphql.String},
	}
	if where != nil {
		args["where"] = &graphql.ArgumentConfig{Type: where}
	}
	return args
}
