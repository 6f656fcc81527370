package wallet

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	dErrors "credentia/pkg/domain-errors"
)

// RPCProvider talks to an external wallet (a signer daemon, a browser-wallet
// bridge, a dev node with unlocked accounts) over JSON-RPC.
type RPCProvider struct {
	client  *rpc.Client
	chainID *big.Int
}

// NewRPCProvider wraps client. A nil client yields a provider whose every
// call fails with ProviderUnavailable.
func NewRPCProvider(client *rpc.Client, chainID *big.Int) *RPCProvider {
	return &RPCProvider{client: client, chainID: chainID}
}

// DialRPCProvider connects to the wallet endpoint at url.
func DialRPCProvider(ctx context.Context, url string, chainID *big.Int) (*RPCProvider, error) {
	if url == "" {
		return nil, dErrors.New(dErrors.CodeProviderUnavailable, "no wallet endpoint configured")
	}
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProviderUnavailable, "dial wallet endpoint")
	}
	return NewRPCProvider(client, chainID), nil
}

func (p *RPCProvider) call(ctx context.Context, result any, method string, args ...any) error {
	if p.client == nil {
		return dErrors.New(dErrors.CodeProviderUnavailable, "no wallet provider available")
	}
	if err := p.client.CallContext(ctx, result, method, args...); err != nil {
		return classify(err, method)
	}
	return nil
}

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.call(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *RPCProvider) RequestPermissions(ctx context.Context) error {
	var granted json.RawMessage
	return p.call(ctx, &granted, "wallet_requestPermissions", map[string]struct{}{"eth_accounts": {}})
}

func (p *RPCProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.call(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Close releases the underlying connection.
func (p *RPCProvider) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

// Ping checks the endpoint answers eth_accounts; used by readiness.
func (p *RPCProvider) Ping(ctx context.Context) error {
	_, err := p.Accounts(ctx)
	return err
}

// TransactOpts signs through eth_signTransaction so keys never leave the wallet.
func (p *RPCProvider) TransactOpts(ctx context.Context, from common.Address) (*bind.TransactOpts, error) {
	if p.client == nil {
		return nil, dErrors.New(dErrors.CodeProviderUnavailable, "no wallet provider available")
	}
	return &bind.TransactOpts{
		From:    from,
		Context: ctx,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if addr != from {
				return nil, bind.ErrNotAuthorized
			}
			return p.signTransaction(ctx, from, tx)
		},
	}, nil
}

type sendTxArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Data                 hexutil.Bytes   `json:"data"`
	ChainID              *hexutil.Big    `json:"chainId,omitempty"`
}

type signTxResult struct {
	Raw hexutil.Bytes `json:"raw"`
}

func toSendTxArgs(from common.Address, tx *types.Transaction, chainID *big.Int) sendTxArgs {
	args := sendTxArgs{
		From:  from,
		To:    tx.To(),
		Gas:   hexutil.Uint64(tx.Gas()),
		Value: (*hexutil.Big)(tx.Value()),
		Nonce: hexutil.Uint64(tx.Nonce()),
		Data:  tx.Data(),
	}
	if chainID != nil {
		args.ChainID = (*hexutil.Big)(chainID)
	}
	if tx.Type() == types.DynamicFeeTxType {
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
	} else {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice())
	}
	return args
}

func (p *RPCProvider) signTransaction(ctx context.Context, from common.Address, tx *types.Transaction) (*types.Transaction, error) {
	var res signTxResult
	if err := p.call(ctx, &res, "eth_signTransaction", toSendTxArgs(from, tx, p.chainID)); err != nil {
		return nil, err
	}
	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(res.Raw); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProviderUnavailable, "wallet returned an undecodable transaction")
	}
	return signed, nil
}
