package events

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// packEventData ABI-encodes the non-indexed arguments of a named event, in
// declaration order.
func packEventData(t *testing.T, name string, vals ...interface{}) []byte {
	t.Helper()
	data, err := forgeABI.Events[name].Inputs.NonIndexed().Pack(vals...)
	require.NoError(t, err)
	return data
}

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func TestDecodeTokenCreated(t *testing.T) {
	creator := common.HexToAddress("0x1111111111111111111111111111111111111111")
	log := types.Log{
		Topics: []common.Hash{
			SigTokenCreated,
			common.BigToHash(big.NewInt(42)),
			addressTopic(creator),
		},
		Data:        packEventData(t, "TokenCreated", uint8(1), "weapon", "sword", true, big.NewInt(500), "ipfs://QmHash/42.json"),
		BlockNumber: 100,
		Index:       3,
		TxHash:      common.HexToHash("0xabc"),
	}

	event, err := Decode(log)
	require.NoError(t, err)

	created, ok := event.(*TokenCreated)
	require.True(t, ok)
	assert.Equal(t, KindTokenCreated, created.Kind())
	assert.Equal(t, big.NewInt(42), created.TokenID)
	assert.Equal(t, creator, created.Creator)
	assert.Equal(t, uint8(1), created.TokenType)
	assert.Equal(t, "weapon", created.Category)
	assert.Equal(t, "sword", created.SubCategory)
	assert.True(t, created.Soulbound)
	assert.Equal(t, big.NewInt(500), created.MaxSupply)
	assert.Equal(t, "ipfs://QmHash/42.json", created.TokenURI)
	assert.Equal(t, uint64(100), created.Log().BlockNumber)
	assert.Equal(t, uint(3), created.Log().Index)
}

func TestDecodeTransferSingle(t *testing.T) {
	operator := common.HexToAddress("0x2222222222222222222222222222222222222222")
	to := common.HexToAddress("0x3333333333333333333333333333333333333333")

	// Zero from address is the mint shape
	log := types.Log{
		Topics: []common.Hash{
			SigTransferSingle,
			addressTopic(operator),
			addressTopic(common.Address{}),
			addressTopic(to),
		},
		Data:        packEventData(t, "TransferSingle", big.NewInt(7), big.NewInt(25)),
		BlockNumber: 200,
		Index:       1,
	}

	event, err := Decode(log)
	require.NoError(t, err)

	transfer, ok := event.(*TransferSingle)
	require.True(t, ok)
	assert.Equal(t, KindTransferSingle, transfer.Kind())
	assert.Equal(t, operator, transfer.Operator)
	assert.Equal(t, common.Address{}, transfer.From)
	assert.Equal(t, to, transfer.To)
	assert.Equal(t, big.NewInt(7), transfer.ID)
	assert.Equal(t, big.NewInt(25), transfer.Value)
}

func TestDecodeTransferBatch(t *testing.T) {
	operator := common.HexToAddress("0x2222222222222222222222222222222222222222")
	from := common.HexToAddress("0x4444444444444444444444444444444444444444")
	to := common.HexToAddress("0x5555555555555555555555555555555555555555")

	ids := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}
	values := []*big.Int{big.NewInt(10), big.NewInt(20), big.NewInt(30)}

	log := types.Log{
		Topics: []common.Hash{
			SigTransferBatch,
			addressTopic(operator),
			addressTopic(from),
			addressTopic(to),
		},
		Data: packEventData(t, "TransferBatch", ids, values),
	}

	event, err := Decode(log)
	require.NoError(t, err)

	batch, ok := event.(*TransferBatch)
	require.True(t, ok)
	assert.Equal(t, KindTransferBatch, batch.Kind())
	assert.Equal(t, operator, batch.Operator)
	assert.Equal(t, from, batch.From)
	assert.Equal(t, to, batch.To)
	require.Len(t, batch.IDs, 3)
	require.Len(t, batch.Values, 3)
	for i := range ids {
		assert.Equal(t, ids[i], batch.IDs[i])
		assert.Equal(t, values[i], batch.Values[i])
	}
}

func TestDecodeRoleEvents(t *testing.T) {
	account := common.HexToAddress("0x6666666666666666666666666666666666666666")
	sender := common.HexToAddress("0x7777777777777777777777777777777777777777")

	tests := []struct {
		name string
		sig  common.Hash
		kind Kind
	}{
		{name: "granted", sig: SigRoleGranted, kind: KindRoleGranted},
		{name: "revoked", sig: SigRoleRevoked, kind: KindRoleRevoked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := types.Log{
				Topics: []common.Hash{
					tt.sig,
					RoleMinter,
					addressTopic(account),
					addressTopic(sender),
				},
			}

			event, err := Decode(log)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, event.Kind())

			switch e := event.(type) {
			case *RoleGranted:
				assert.Equal(t, RoleMinter, e.Role)
				assert.Equal(t, account, e.Account)
				assert.Equal(t, sender, e.Sender)
			case *RoleRevoked:
				assert.Equal(t, RoleMinter, e.Role)
				assert.Equal(t, account, e.Account)
				assert.Equal(t, sender, e.Sender)
			default:
				t.Fatalf("unexpected event type %T", event)
			}
		})
	}
}

func TestDecodeURI(t *testing.T) {
	log := types.Log{
		Topics: []common.Hash{
			SigURI,
			common.BigToHash(big.NewInt(9)),
		},
		Data: packEventData(t, "URI", "https://example.com/meta/9.json"),
	}

	event, err := Decode(log)
	require.NoError(t, err)

	uri, ok := event.(*URI)
	require.True(t, ok)
	assert.Equal(t, KindURI, uri.Kind())
	assert.Equal(t, big.NewInt(9), uri.ID)
	assert.Equal(t, "https://example.com/meta/9.json", uri.Value)
}

func TestDecodeUnknownSignature(t *testing.T) {
	log := types.Log{
		Topics: []common.Hash{common.HexToHash("0xdeadbeef")},
	}

	_, err := Decode(log)
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDecodeNoTopics(t *testing.T) {
	_, err := Decode(types.Log{})
	assert.Error(t, err)
}

func TestDecodeTopicCountMismatch(t *testing.T) {
	extra := common.HexToHash("0x01")

	tests := []struct {
		name   string
		topics []common.Hash
	}{
		{name: "TokenCreated short", topics: []common.Hash{SigTokenCreated, extra}},
		{name: "TokenCreated long", topics: []common.Hash{SigTokenCreated, extra, extra, extra}},
		{name: "TransferSingle short", topics: []common.Hash{SigTransferSingle, extra, extra}},
		{name: "TransferBatch short", topics: []common.Hash{SigTransferBatch, extra}},
		{name: "RoleGranted short", topics: []common.Hash{SigRoleGranted, extra, extra}},
		{name: "RoleRevoked long", topics: []common.Hash{SigRoleRevoked, extra, extra, extra, extra}},
		{name: "URI long", topics: []common.Hash{SigURI, extra, extra}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(types.Log{Topics: tt.topics})
			assert.Error(t, err)
			assert.NotErrorIs(t, err, ErrUnknownEvent)
		})
	}
}

func TestDecodeMalformedData(t *testing.T) {
	log := types.Log{
		Topics: []common.Hash{
			SigTransferSingle,
			addressTopic(common.HexToAddress("0x01")),
			addressTopic(common.HexToAddress("0x02")),
			addressTopic(common.HexToAddress("0x03")),
		},
		Data: []byte{0x01, 0x02}, // too short for two uint256 words
	}

	_, err := Decode(log)
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	tests := []struct {
		kind Kind
		want common.Hash
	}{
		{kind: KindTokenCreated, want: SigTokenCreated},
		{kind: KindTransferSingle, want: SigTransferSingle},
		{kind: KindTransferBatch, want: SigTransferBatch},
		{kind: KindRoleGranted, want: SigRoleGranted},
		{kind: KindRoleRevoked, want: SigRoleRevoked},
		{kind: KindURI, want: SigURI},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, SignatureTopic(tt.kind))
		})
	}

	assert.Equal(t, common.Hash{}, SignatureTopic(Kind("Bogus")))
}

func TestAllKindsHaveTopics(t *testing.T) {
	seen := make(map[common.Hash]bool)
	for _, kind := range AllKinds() {
		topic := SignatureTopic(kind)
		assert.NotEqual(t, common.Hash{}, topic, "kind %s has no topic", kind)
		assert.False(t, seen[topic], "duplicate topic for kind %s", kind)
		seen[topic] = true
	}
}
