package diploma

import (
	"github.com/ethereum/go-ethereum/common"

	"credentia/internal/metadata"
)

// Metadata is the displayable part of a diploma's off-chain document.
type Metadata struct {
	Name        string
	Description string
	Image       string
	ExternalURL string
	metadata.Attributes
}

// Diploma is one minted credential with its resolved metadata.
type Diploma struct {
	TokenID     uint64
	Owner       common.Address
	MetadataURI string
	MetadataURL string
	Metadata    Metadata
}

// ExplorerLink points at the institution contract on a block explorer.
type ExplorerLink struct {
	Name string
	URL  string
}

// Verification is the outcome of checking one (institution, token) pair.
// Valid reflects on-chain state only; a metadata failure is reported in
// MetadataError and leaves Valid untouched.
type Verification struct {
	Valid           bool
	Reason          string
	Institution     common.Address
	TokenID         uint64
	Owner           *common.Address
	InstitutionName string
	TokenURI        string
	MetadataURL     string
	Metadata        *Metadata
	MetadataError   string
	ExplorerLinks   []ExplorerLink
}

// Reasons reported on an invalid Verification.
const (
	ReasonInvalidTokenID      = "token id must be a positive integer"
	ReasonTokenNotMinted      = "token has not been minted by this institution"
	ReasonOwnerUnavailable    = "token owner could not be read"
	ReasonTokenURIUnavailable = "token URI could not be read"
)

func toMetadata(res *metadata.Resolved) Metadata {
	doc := res.Document
	return Metadata{
		Name:        doc.Name,
		Description: doc.Description,
		Image:       doc.Image,
		ExternalURL: doc.ExternalURL,
		Attributes:  res.Attributes,
	}
}
