package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"credentia/internal/platform/tracer"
	dErrors "credentia/pkg/domain-errors"
)

// TotalMinted returns how many diplomas inst has issued.
//
// The totalMinted() counter is authoritative when the contract has it.
// Otherwise ids are probed with ownerOf(1), ownerOf(2), ... and the last id
// that answered is the total. The probe only runs when totalMinted() reverts.
// It relies on ids being contiguous from 1, stops at the first id that was
// never minted, and never exceeds maxProbe reads. Any other read failure is
// returned.
func (g *Gateway) TotalMinted(ctx context.Context, inst common.Address) (total uint64, err error) {
	ctx, span := g.tracer.Start(ctx, tracer.SpanChainTotalMinted,
		tracer.String(tracer.AttrInstitution, inst.Hex()),
	)
	defer func() { span.End(err) }()

	n, cerr := g.MintedCounter(ctx, inst)
	switch {
	case cerr == nil:
		span.SetAttributes(tracer.String(tracer.AttrSupplySource, string(SupplyFromCounter)))
		return n, nil
	case ctx.Err() != nil:
		return 0, ctx.Err()
	case !isRevert(cerr):
		return 0, cerr
	}

	span.SetAttributes(tracer.String(tracer.AttrSupplySource, string(SupplyFromProbe)))
	total, err = g.probeSupply(ctx, inst)
	if err != nil {
		return 0, err
	}
	if total == g.maxProbe {
		g.logger.WarnContext(ctx, "supply probe hit its cap",
			"institution", inst.Hex(),
			"max_probe", g.maxProbe,
		)
	}
	return total, nil
}

func (g *Gateway) probeSupply(ctx context.Context, inst common.Address) (uint64, error) {
	var last uint64
	for id := uint64(1); id <= g.maxProbe; id++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		g.metrics.IncrementSupplyProbe()
		if _, err := g.OwnerOf(ctx, inst, new(big.Int).SetUint64(id)); err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			if !dErrors.HasCode(err, dErrors.CodeTokenNotFound) {
				return 0, err
			}
			break
		}
		last = id
	}
	return last, nil
}
