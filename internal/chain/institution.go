package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"credentia/internal/platform/tracer"
	dErrors "credentia/pkg/domain-errors"
)

func (g *Gateway) readString(ctx context.Context, inst common.Address, method string, args ...any) (string, error) {
	out, err := g.call(ctx, inst, institutionABI, method, args...)
	if err != nil {
		return "", err
	}
	s, ok := asString(out)
	if !ok {
		return "", dErrors.New(dErrors.CodeContractRead, method+": unexpected result type")
	}
	return s, nil
}

// Profile reads name, symbol, and logo. Any failed read fails the profile.
func (g *Gateway) Profile(ctx context.Context, inst common.Address) (*Profile, error) {
	name, err := g.readString(ctx, inst, methodName)
	if err != nil {
		return nil, readError(err, methodName)
	}
	symbol, err := g.readString(ctx, inst, methodSymbol)
	if err != nil {
		return nil, readError(err, methodSymbol)
	}
	logo, err := g.readString(ctx, inst, methodInstitutionLogo)
	if err != nil {
		return nil, readError(err, methodInstitutionLogo)
	}
	return &Profile{Name: name, Symbol: symbol, LogoURL: logo}, nil
}

// Name reads only the institution name.
func (g *Gateway) Name(ctx context.Context, inst common.Address) (string, error) {
	name, err := g.readString(ctx, inst, methodName)
	if err != nil {
		return "", readError(err, methodName)
	}
	return name, nil
}

// Role returns account's label in allowedWallets; RoleNone when unassigned.
func (g *Gateway) Role(ctx context.Context, inst, account common.Address) (string, error) {
	role, err := g.readString(ctx, inst, methodAllowedWallets, account)
	if err != nil {
		return "", readError(err, methodAllowedWallets)
	}
	return role, nil
}

// MintedCounter reads totalMinted() directly. It fails on contract revisions
// that predate the counter.
func (g *Gateway) MintedCounter(ctx context.Context, inst common.Address) (uint64, error) {
	out, err := g.call(ctx, inst, institutionABI, methodTotalMinted)
	if err != nil {
		return 0, readError(err, methodTotalMinted)
	}
	n, ok := asBig(out)
	if !ok || !n.IsUint64() {
		return 0, dErrors.New(dErrors.CodeContractRead, "totalMinted: unexpected result")
	}
	return n.Uint64(), nil
}

// OwnerOf returns the holder of tokenID; TokenNotFound if it was never minted.
func (g *Gateway) OwnerOf(ctx context.Context, inst common.Address, tokenID *big.Int) (common.Address, error) {
	out, err := g.call(ctx, inst, institutionABI, methodOwnerOf, tokenID)
	if err != nil {
		return common.Address{}, tokenReadError(err, methodOwnerOf)
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, dErrors.New(dErrors.CodeContractRead, "ownerOf: unexpected result type")
	}
	return owner, nil
}

// TokenURI returns the raw metadata URI of tokenID.
func (g *Gateway) TokenURI(ctx context.Context, inst common.Address, tokenID *big.Int) (string, error) {
	uri, err := g.readString(ctx, inst, methodTokenURI, tokenID)
	if err != nil {
		return "", tokenReadError(err, methodTokenURI)
	}
	return uri, nil
}

// Mint awards a diploma to recipient. Authorization is enforced by the
// contract; an unauthorized caller surfaces as TransactionReverted.
func (g *Gateway) Mint(ctx context.Context, from, inst, recipient common.Address, metadataURI string) (res *MintResult, err error) {
	ctx, span := g.tracer.Start(ctx, tracer.SpanChainMint,
		tracer.String(tracer.AttrInstitution, inst.Hex()),
	)
	defer func() { span.End(err) }()

	receipt, err := g.transact(ctx, from, inst, institutionABI, methodAwardItem, recipient, metadataURI)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.String(tracer.AttrTxHash, receipt.TxHash.Hex()))
	return &MintResult{TxHash: receipt.TxHash, TokenID: parseMintedTokenID(receipt.Logs, inst, recipient)}, nil
}

// parseMintedTokenID finds the ERC-721 Transfer from the zero address to
// recipient emitted by inst.
func parseMintedTokenID(logs []*types.Log, inst, recipient common.Address) *big.Int {
	transferID := institutionABI.Events[eventTransfer].ID
	for _, l := range logs {
		if l == nil || l.Address != inst || len(l.Topics) != 4 || l.Topics[0] != transferID {
			continue
		}
		if common.BytesToAddress(l.Topics[1].Bytes()) != (common.Address{}) ||
			common.BytesToAddress(l.Topics[2].Bytes()) != recipient {
			continue
		}
		return new(big.Int).SetBytes(l.Topics[3].Bytes())
	}
	return nil
}
