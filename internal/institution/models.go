package institution

import (
	"github.com/ethereum/go-ethereum/common"
)

// Institution is an institution contract's on-chain identity.
type Institution struct {
	Address common.Address
	Name    string
	Symbol  string
	LogoURL string
	// MintedCount is nil on contract revisions without totalMinted().
	MintedCount *uint64
}

// Detail is an Institution as seen by a particular account.
type Detail struct {
	Institution
	Viewer   common.Address
	Role     string
	CanAward bool
}
