package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"credentia/internal/platform/tracer"
	dErrors "credentia/pkg/domain-errors"
)

// ListInstitutions returns every institution the Factory has deployed, in
// registration order. Never nil.
func (g *Gateway) ListInstitutions(ctx context.Context) ([]common.Address, error) {
	out, err := g.call(ctx, g.factory, factoryABI, methodGetInstitutions)
	if err != nil {
		return nil, readError(err, methodGetInstitutions)
	}
	addrs, ok := out[0].([]common.Address)
	if !ok {
		return nil, dErrors.New(dErrors.CodeContractRead, "getInstitutions: unexpected result type")
	}
	if addrs == nil {
		addrs = []common.Address{}
	}
	return addrs, nil
}

// CreateInstitution deploys a new institution through the Factory and waits
// for confirmation. A confirmed transaction without an InstitutionCreated log
// is a soft success: the result carries the hash and a nil address.
func (g *Gateway) CreateInstitution(ctx context.Context, from common.Address, req CreateInstitutionRequest) (res *CreateResult, err error) {
	ctx, span := g.tracer.Start(ctx, tracer.SpanChainCreate)
	defer func() { span.End(err) }()

	receipt, err := g.transact(ctx, from, g.factory, factoryABI, methodCreateInstitution,
		req.Name, req.Symbol, req.LogoURL, req.Rector, req.Secretaria)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.String(tracer.AttrTxHash, receipt.TxHash.Hex()))

	res = &CreateResult{TxHash: receipt.TxHash, Institution: parseInstitutionCreated(receipt.Logs)}
	if res.Institution == nil {
		g.logger.WarnContext(ctx, "institution created without InstitutionCreated event",
			"tx_hash", receipt.TxHash.Hex(),
		)
	}
	return res, nil
}

// parseInstitutionCreated finds the first InstitutionCreated log. The address
// is read from the first indexed topic when present, otherwise from data.
func parseInstitutionCreated(logs []*types.Log) *common.Address {
	event := factoryABI.Events[eventInstitutionCreated]
	for _, l := range logs {
		if l == nil || len(l.Topics) == 0 || l.Topics[0] != event.ID {
			continue
		}
		if len(l.Topics) >= 2 {
			addr := common.BytesToAddress(l.Topics[1].Bytes())
			return &addr
		}
		values, err := event.Inputs.Unpack(l.Data)
		if err != nil || len(values) == 0 {
			continue
		}
		if addr, ok := values[0].(common.Address); ok {
			return &addr
		}
	}
	return nil
}
