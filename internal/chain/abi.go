package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// FactoryABI covers the Factory surface the registrar uses. The event is
// declared non-indexed; parseInstitutionCreated also accepts the indexed
// encoding emitted by later contract revisions.
const FactoryABI = `[
  {"type":"function","name":"getInstitutions","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"address[]"}]},
  {"type":"function","name":"createInstitution","stateMutability":"nonpayable",
   "inputs":[
     {"name":"_name","type":"string"},
     {"name":"_symbol","type":"string"},
     {"name":"_logo","type":"string"},
     {"name":"_rector","type":"address"},
     {"name":"_secretaria","type":"address"}],
   "outputs":[]},
  {"type":"event","name":"InstitutionCreated","anonymous":false,
   "inputs":[{"name":"institutionAddress","type":"address","indexed":false}]}
]`

// InstitutionABI is the ERC-721 diploma contract deployed per institution.
// totalMinted is absent on early revisions.
const InstitutionABI = `[
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"institutionLogo","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"allowedWallets","stateMutability":"view",
   "inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"ownerOf","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"tokenURI","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"totalMinted","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"awardItem","stateMutability":"nonpayable",
   "inputs":[{"name":"player","type":"address"},{"name":"tokenURI","type":"string"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"Transfer","anonymous":false,
   "inputs":[
     {"name":"from","type":"address","indexed":true},
     {"name":"to","type":"address","indexed":true},
     {"name":"tokenId","type":"uint256","indexed":true}]}
]`

var (
	factoryABI     = mustParseABI(FactoryABI)
	institutionABI = mustParseABI(InstitutionABI)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("chain: invalid embedded ABI: " + err.Error())
	}
	return parsed
}

// Contract method and event names.
const (
	methodGetInstitutions   = "getInstitutions"
	methodCreateInstitution = "createInstitution"
	methodName              = "name"
	methodSymbol            = "symbol"
	methodInstitutionLogo   = "institutionLogo"
	methodAllowedWallets    = "allowedWallets"
	methodOwnerOf           = "ownerOf"
	methodTokenURI          = "tokenURI"
	methodTotalMinted       = "totalMinted"
	methodAwardItem         = "awardItem"

	eventInstitutionCreated = "InstitutionCreated"
	eventTransfer           = "Transfer"
)
