package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var errReverted = errors.New("execution reverted")

type methodFunc func(args []any) ([]any, error)

type fakeContract struct {
	abi     abi.ABI
	methods map[string]methodFunc
}

// fakeBackend answers eth_call by decoding the selector against the
// registered contract's ABI, and records sent transactions.
type fakeBackend struct {
	mu        sync.Mutex
	contracts map[common.Address]*fakeContract
	calls     map[string]int
	sent      []*types.Transaction

	estimateErr error
	sendErr     error
	receipt     func(tx *types.Transaction) *types.Receipt
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		contracts: make(map[common.Address]*fakeContract),
		calls:     make(map[string]int),
	}
}

func (b *fakeBackend) deploy(addr common.Address, parsed abi.ABI, methods map[string]methodFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contracts[addr] = &fakeContract{abi: parsed, methods: methods}
}

func (b *fakeBackend) callCount(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

func (b *fakeBackend) CodeAt(_ context.Context, contract common.Address, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.contracts[contract]; ok {
		return []byte{0x60, 0x80}, nil
	}
	return nil, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	c, ok := b.contracts[*call.To]
	b.mu.Unlock()
	if !ok {
		return nil, nil
	}
	if len(call.Data) < 4 {
		return nil, errReverted
	}
	method, err := c.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, errReverted
	}

	b.mu.Lock()
	b.calls[method.Name]++
	b.mu.Unlock()

	fn, ok := c.methods[method.Name]
	if !ok {
		return nil, errReverted
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	out, err := fn(args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

func (b *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1)}, nil
}

func (b *fakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return b.CodeAt(ctx, account, nil)
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.sent)), nil
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (b *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	if b.estimateErr != nil {
		return 0, b.estimateErr
	}
	return 300_000, nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if b.sendErr != nil {
		return b.sendErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tx := range b.sent {
		if tx.Hash() != hash {
			continue
		}
		r := &types.Receipt{Status: types.ReceiptStatusSuccessful}
		if b.receipt != nil {
			r = b.receipt(tx)
		}
		r.TxHash = hash
		r.BlockNumber = big.NewInt(42)
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (b *fakeBackend) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *fakeBackend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("subscriptions not supported")
}

var _ Backend = (*fakeBackend)(nil)
