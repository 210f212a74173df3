package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// RoleNameUnknown is the fallback for role hashes outside the known set
const RoleNameUnknown = "UNKNOWN"

// Known role hashes. DEFAULT_ADMIN_ROLE is bytes32(0) by convention; the
// others hash their own names.
var (
	RoleDefaultAdmin = common.Hash{}
	RoleMinter       = crypto.Keccak256Hash([]byte("MINTER_ROLE"))
	RolePauser       = crypto.Keccak256Hash([]byte("PAUSER_ROLE"))
	RoleURISetter    = crypto.Keccak256Hash([]byte("URI_SETTER_ROLE"))
)

// RoleName resolves a role hash to its human-readable name, falling back to
// UNKNOWN rather than failing on unrecognized hashes.
func RoleName(role common.Hash) string {
	switch role {
	case RoleDefaultAdmin:
		return "DEFAULT_ADMIN_ROLE"
	case RoleMinter:
		return "MINTER_ROLE"
	case RolePauser:
		return "PAUSER_ROLE"
	case RoleURISetter:
		return "URI_SETTER_ROLE"
	default:
		return RoleNameUnknown
	}
}
