package events

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrUnknownEvent is returned when a log's signature topic is outside the
// vocabulary
var ErrUnknownEvent = errors.New("unknown event signature")

// Event signatures of the forge contract
var (
	SigTokenCreated   = crypto.Keccak256Hash([]byte("TokenCreated(uint256,address,uint8,string,string,bool,uint256,string)"))
	SigTransferSingle = crypto.Keccak256Hash([]byte("TransferSingle(address,address,address,uint256,uint256)"))
	SigTransferBatch  = crypto.Keccak256Hash([]byte("TransferBatch(address,address,address,uint256[],uint256[])"))
	SigRoleGranted    = crypto.Keccak256Hash([]byte("RoleGranted(bytes32,address,address)"))
	SigRoleRevoked    = crypto.Keccak256Hash([]byte("RoleRevoked(bytes32,address,address)"))
	SigURI            = crypto.Keccak256Hash([]byte("URI(string,uint256)"))
)

// forgeEventsABI declares the event vocabulary for non-indexed data decoding
const forgeEventsABI = `[
	{"type":"event","name":"TokenCreated","inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"creator","type":"address","indexed":true},
		{"name":"tokenType","type":"uint8","indexed":false},
		{"name":"category","type":"string","indexed":false},
		{"name":"subCategory","type":"string","indexed":false},
		{"name":"soulbound","type":"bool","indexed":false},
		{"name":"maxSupply","type":"uint256","indexed":false},
		{"name":"uri","type":"string","indexed":false}]},
	{"type":"event","name":"TransferSingle","inputs":[
		{"name":"operator","type":"address","indexed":true},
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"id","type":"uint256","indexed":false},
		{"name":"value","type":"uint256","indexed":false}]},
	{"type":"event","name":"TransferBatch","inputs":[
		{"name":"operator","type":"address","indexed":true},
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"ids","type":"uint256[]","indexed":false},
		{"name":"values","type":"uint256[]","indexed":false}]},
	{"type":"event","name":"RoleGranted","inputs":[
		{"name":"role","type":"bytes32","indexed":true},
		{"name":"account","type":"address","indexed":true},
		{"name":"sender","type":"address","indexed":true}]},
	{"type":"event","name":"RoleRevoked","inputs":[
		{"name":"role","type":"bytes32","indexed":true},
		{"name":"account","type":"address","indexed":true},
		{"name":"sender","type":"address","indexed":true}]},
	{"type":"event","name":"URI","inputs":[
		{"name":"value","type":"string","indexed":false},
		{"name":"id","type":"uint256","indexed":true}]}
]`

var forgeABI = mustParseABI(forgeEventsABI)

func mustParseABI(abiJSON string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid event ABI: %v", err))
	}
	return parsed
}

// SignatureTopic returns the signature topic that identifies a kind in log
// filters
func SignatureTopic(kind Kind) common.Hash {
	switch kind {
	case KindTokenCreated:
		return SigTokenCreated
	case KindTransferSingle:
		return SigTransferSingle
	case KindTransferBatch:
		return SigTransferBatch
	case KindRoleGranted:
		return SigRoleGranted
	case KindRoleRevoked:
		return SigRoleRevoked
	case KindURI:
		return SigURI
	default:
		return common.Hash{}
	}
}

// Decode turns a raw log into its vocabulary event. Logs whose signature
// topic is outside the vocabulary return ErrUnknownEvent.
func Decode(log types.Log) (Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log has no topics")
	}

	switch log.Topics[0] {
	case SigTokenCreated:
		return decodeTokenCreated(log)
	case SigTransferSingle:
		return decodeTransferSingle(log)
	case SigTransferBatch:
		return decodeTransferBatch(log)
	case SigRoleGranted:
		return decodeRoleGranted(log)
	case SigRoleRevoked:
		return decodeRoleRevoked(log)
	case SigURI:
		return decodeURI(log)
	default:
		return nil, ErrUnknownEvent
	}
}

// unpackData decodes the non-indexed arguments of a named event. Values come
// back in declaration order with their canonical Go types, so plain type
// assertions on the result are safe.
func unpackData(name string, data []byte) ([]interface{}, error) {
	event, ok := forgeABI.Events[name]
	if !ok {
		return nil, fmt.Errorf("event %s not in ABI", name)
	}

	vals, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s data: %w", name, err)
	}
	return vals, nil
}

func decodeTokenCreated(log types.Log) (*TokenCreated, error) {
	if len(log.Topics) != 3 {
		return nil, fmt.Errorf("invalid TokenCreated event: expected 3 topics, got %d", len(log.Topics))
	}

	vals, err := unpackData("TokenCreated", log.Data)
	if err != nil {
		return nil, err
	}

	return &TokenCreated{
		TokenID:     new(big.Int).SetBytes(log.Topics[1].Bytes()),
		Creator:     common.BytesToAddress(log.Topics[2].Bytes()),
		TokenType:   vals[0].(uint8),
		Category:    vals[1].(string),
		SubCategory: vals[2].(string),
		Soulbound:   vals[3].(bool),
		MaxSupply:   vals[4].(*big.Int),
		TokenURI:    vals[5].(string),
		Raw:         log,
	}, nil
}

func decodeTransferSingle(log types.Log) (*TransferSingle, error) {
	if len(log.Topics) != 4 {
		return nil, fmt.Errorf("invalid TransferSingle event: expected 4 topics, got %d", len(log.Topics))
	}

	vals, err := unpackData("TransferSingle", log.Data)
	if err != nil {
		return nil, err
	}

	return &TransferSingle{
		Operator: common.BytesToAddress(log.Topics[1].Bytes()),
		From:     common.BytesToAddress(log.Topics[2].Bytes()),
		To:       common.BytesToAddress(log.Topics[3].Bytes()),
		ID:       vals[0].(*big.Int),
		Value:    vals[1].(*big.Int),
		Raw:      log,
	}, nil
}

func decodeTransferBatch(log types.Log) (*TransferBatch, error) {
	if len(log.Topics) != 4 {
		return nil, fmt.Errorf("invalid TransferBatch event: expected 4 topics, got %d", len(log.Topics))
	}

	vals, err := unpackData("TransferBatch", log.Data)
	if err != nil {
		return nil, err
	}

	ids := vals[0].([]*big.Int)
	values := vals[1].([]*big.Int)
	if len(ids) != len(values) {
		return nil, fmt.Errorf("invalid TransferBatch event: %d ids but %d values", len(ids), len(values))
	}

	return &TransferBatch{
		Operator: common.BytesToAddress(log.Topics[1].Bytes()),
		From:     common.BytesToAddress(log.Topics[2].Bytes()),
		To:       common.BytesToAddress(log.Topics[3].Bytes()),
		IDs:      ids,
		Values:   values,
		Raw:      log,
	}, nil
}

func decodeRoleGranted(log types.Log) (*RoleGranted, error) {
	if len(log.Topics) != 4 {
		return nil, fmt.Errorf("invalid RoleGranted event: expected 4 topics, got %d", len(log.Topics))
	}

	return &RoleGranted{
		Role:    log.Topics[1],
		Account: common.BytesToAddress(log.Topics[2].Bytes()),
		Sender:  common.BytesToAddress(log.Topics[3].Bytes()),
		Raw:     log,
	}, nil
}

func decodeRoleRevoked(log types.Log) (*RoleRevoked, error) {
	if len(log.Topics) != 4 {
		return nil, fmt.Errorf("invalid RoleRevoked event: expected 4 topics, got %d", len(log.Topics))
	}

	return &RoleRevoked{
		Role:    log.Topics[1],
		Account: common.BytesToAddress(log.Topics[2].Bytes()),
		Sender:  common.BytesToAddress(log.Topics[3].Bytes()),
		Raw:     log,
	}, nil
}

func decodeURI(log types.Log) (*URI, error) {
	if len(log.Topics) != 2 {
		return nil, fmt.Errorf("invalid URI event: expected 2 topics, got %d", len(log.Topics))
	}

	vals, err := unpackData("URI", log.Data)
	if err != nil {
		return nil, err
	}

	return &URI{
		Value: vals[0].(string),
		ID:    new(big.Int).SetBytes(log.Topics[1].Bytes()),
		Raw:   log,
	}, nil
}
