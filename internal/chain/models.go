package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "credentia/pkg/domain-errors"
)

// ParseAddress parses a 0x-prefixed hex address. field names the input in
// the error message.
func ParseAddress(raw, field string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidInput, field+" must be a hex address")
	}
	return common.HexToAddress(raw), nil
}

// Role labels stored in an institution's allowedWallets mapping.
const (
	RoleRector     = "Rector"
	RoleSecretaria = "Secretaria"
	RoleNone       = ""
)

// CanAward reports whether role may call awardItem.
func CanAward(role string) bool {
	return role == RoleRector || role == RoleSecretaria
}

// Profile is the institution's on-chain identity.
type Profile struct {
	Name    string
	Symbol  string
	LogoURL string
}

// CreateInstitutionRequest carries the Factory call arguments.
type CreateInstitutionRequest struct {
	Name       string
	Symbol     string
	LogoURL    string
	Rector     common.Address
	Secretaria common.Address
}

// CreateResult is the outcome of a confirmed createInstitution.
// Institution is nil when the receipt carried no InstitutionCreated event.
type CreateResult struct {
	TxHash      common.Hash
	Institution *common.Address
}

// MintResult is the outcome of a confirmed awardItem.
// TokenID is nil when no Transfer log was found in the receipt.
type MintResult struct {
	TxHash  common.Hash
	TokenID *big.Int
}

// SupplySource records which strategy TotalMinted used.
type SupplySource string

const (
	SupplyFromCounter SupplySource = "counter"
	SupplyFromProbe   SupplySource = "probe"
)
