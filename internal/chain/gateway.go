// Package chain is the contract gateway: typed reads and writes against the
// Factory and per-institution ERC-721 contracts through go-ethereum bindings.
package chain

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"credentia/internal/platform/metrics"
	"credentia/internal/platform/tracer"
	"credentia/internal/wallet"
	dErrors "credentia/pkg/domain-errors"
)

// DefaultMaxSupplyProbe bounds the ownerOf probe used when totalMinted is missing.
const DefaultMaxSupplyProbe uint64 = 10000

// Backend is what the gateway needs from a node. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Gateway reads and writes Factory and Institution contracts.
// Reads need only a Backend; writes also need a wallet.Signer.
type Gateway struct {
	backend   Backend
	signer    wallet.Signer
	factory   common.Address
	maxProbe  uint64
	txTimeout time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
}

// Option configures a Gateway.
type Option func(*Gateway)

func WithSigner(signer wallet.Signer) Option {
	return func(g *Gateway) {
		g.signer = signer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(g *Gateway) {
		if t != nil {
			g.tracer = t
		}
	}
}

// WithMaxSupplyProbe caps the fallback ownerOf probe. Zero keeps the default.
func WithMaxSupplyProbe(n uint64) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxProbe = n
		}
	}
}

// WithTxTimeout bounds how long a write waits for its receipt.
func WithTxTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.txTimeout = d
		}
	}
}

func New(backend Backend, factory common.Address, opts ...Option) *Gateway {
	g := &Gateway{
		backend:   backend,
		factory:   factory,
		maxProbe:  DefaultMaxSupplyProbe,
		txTimeout: 2 * time.Minute,
		logger:    slog.Default(),
		tracer:    tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FactoryAddress returns the configured Factory.
func (g *Gateway) FactoryAddress() common.Address {
	return g.factory
}

func (g *Gateway) bound(address common.Address, parsed abi.ABI) *bind.BoundContract {
	return bind.NewBoundContract(address, parsed, g.backend, g.backend, g.backend)
}

// call performs a view call and returns the unpacked outputs.
func (g *Gateway) call(ctx context.Context, address common.Address, parsed abi.ABI, method string, args ...any) ([]any, error) {
	start := time.Now()
	var out []any
	err := g.bound(address, parsed).Call(&bind.CallOpts{Context: ctx}, &out, method, args...)
	g.metrics.ObserveChainCall(method, time.Since(start).Seconds(), err)
	if err == nil && len(out) == 0 {
		err = dErrors.New(dErrors.CodeContractRead, method+": empty result")
	}
	return out, err
}

// transact submits method, waits for the receipt, and rejects failed receipts.
func (g *Gateway) transact(ctx context.Context, from, address common.Address, parsed abi.ABI, method string, args ...any) (*types.Receipt, error) {
	if g.signer == nil {
		return nil, dErrors.New(dErrors.CodeProviderUnavailable, "no signer configured")
	}
	opts, err := g.signer.TransactOpts(ctx, from)
	if err != nil {
		return nil, txError(err, method)
	}

	tx, err := g.bound(address, parsed).Transact(opts, method, args...)
	if err != nil {
		g.metrics.IncrementTransaction(method, string(dErrors.CodeOf(txError(err, method))))
		return nil, txError(err, method)
	}
	g.logger.InfoContext(ctx, "transaction submitted",
		"method", method,
		"contract", address.Hex(),
		"from", from.Hex(),
		"tx_hash", tx.Hash().Hex(),
	)

	waitCtx, cancel := context.WithTimeout(ctx, g.txTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, g.backend, tx)
	if err != nil {
		g.metrics.IncrementTransaction(method, string(dErrors.CodeTimeout))
		return nil, txError(err, method)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		g.metrics.IncrementTransaction(method, string(dErrors.CodeTransactionReverted))
		return receipt, dErrors.New(dErrors.CodeTransactionReverted, method+" reverted in block "+receipt.BlockNumber.String())
	}
	g.metrics.IncrementTransaction(method, "ok")
	return receipt, nil
}

func asString(out []any) (string, bool) {
	v, ok := out[0].(string)
	return v, ok
}

func asBig(out []any) (*big.Int, bool) {
	v, ok := out[0].(*big.Int)
	return v, ok
}
