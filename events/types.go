package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Kind identifies one event kind of the forge contract vocabulary
type Kind string

// The fixed event vocabulary. The contract ABI is externally defined; these
// are the only events the engine understands.
const (
	KindTokenCreated   Kind = "TokenCreated"
	KindTransferSingle Kind = "TransferSingle"
	KindTransferBatch  Kind = "TransferBatch"
	KindRoleGranted    Kind = "RoleGranted"
	KindRoleRevoked    Kind = "RoleRevoked"
	KindURI            Kind = "URI"
)

// AllKinds returns every kind in the vocabulary, in a fixed order
func AllKinds() []Kind {
	return []Kind{
		KindTokenCreated,
		KindTransferSingle,
		KindTransferBatch,
		KindRoleGranted,
		KindRoleRevoked,
		KindURI,
	}
}

// Event is the tagged union over the vocabulary: exactly one concrete struct
// per kind, so dispatch in the processor is an exhaustive type switch. Log
// returns the raw log for ordering and journaling.
type Event interface {
	Kind() Kind
	Log() types.Log
}

// TokenCreated is emitted once when a token id is defined.
// TokenCreated(uint256 indexed tokenId, address indexed creator, uint8 tokenType,
// string category, string subCategory, bool soulbound, uint256 maxSupply, string uri)
type TokenCreated struct {
	TokenID     *big.Int
	Creator     common.Address
	TokenType   uint8
	Category    string
	SubCategory string
	Soulbound   bool
	MaxSupply   *big.Int
	TokenURI    string
	Raw         types.Log
}

func (e *TokenCreated) Kind() Kind     { return KindTokenCreated }
func (e *TokenCreated) Log() types.Log { return e.Raw }

// TransferSingle moves one token id. A zero From address signals a mint.
// TransferSingle(address indexed operator, address indexed from, address indexed to,
// uint256 id, uint256 value)
type TransferSingle struct {
	Operator common.Address
	From     common.Address
	To       common.Address
	ID       *big.Int
	Value    *big.Int
	Raw      types.Log
}

func (e *TransferSingle) Kind() Kind     { return KindTransferSingle }
func (e *TransferSingle) Log() types.Log { return e.Raw }

// TransferBatch moves several token ids in parallel arrays.
// TransferBatch(address indexed operator, address indexed from, address indexed to,
// uint256[] ids, uint256[] values)
type TransferBatch struct {
	Operator common.Address
	From     common.Address
	To       common.Address
	IDs      []*big.Int
	Values   []*big.Int
	Raw      types.Log
}

func (e *TransferBatch) Kind() Kind     { return KindTransferBatch }
func (e *TransferBatch) Log() types.Log { return e.Raw }

// RoleGranted is emitted when an account receives a role.
// RoleGranted(bytes32 indexed role, address indexed account, address indexed sender)
type RoleGranted struct {
	Role    common.Hash
	Account common.Address
	Sender  common.Address
	Raw     types.Log
}

func (e *RoleGranted) Kind() Kind     { return KindRoleGranted }
func (e *RoleGranted) Log() types.Log { return e.Raw }

// RoleRevoked is emitted when an account loses a role.
// RoleRevoked(bytes32 indexed role, address indexed account, address indexed sender)
type RoleRevoked struct {
	Role    common.Hash
	Account common.Address
	Sender  common.Address
	Raw     types.Log
}

func (e *RoleRevoked) Kind() Kind     { return KindRoleRevoked }
func (e *RoleRevoked) Log() types.Log { return e.Raw }

// URI announces a (possibly updated) metadata reference for a token.
// URI(string value, uint256 indexed id)
type URI struct {
	Value string
	ID    *big.Int
	Raw   types.Log
}

func (e *URI) Kind() Kind     { return KindURI }
func (e *URI) Log() types.Log { return e.Raw }
