// Package wallet models the operator's wallet: which account is authorized
// and how transactions get signed for it.
package wallet

//go:generate mockgen -source=provider.go -destination=mocks/provider_mock.go -package=mocks Provider

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	dErrors "credentia/pkg/domain-errors"
)

// userRejectedCode is the EIP-1193 "user rejected the request" error code.
const userRejectedCode = 4001

// Provider is the account-access surface of an EIP-1193 wallet.
type Provider interface {
	// RequestAccounts prompts for access (eth_requestAccounts).
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// RequestPermissions prompts for a fresh eth_accounts grant
	// (wallet_requestPermissions), letting the owner pick another account.
	RequestPermissions(ctx context.Context) error
	// Accounts lists already-authorized accounts without prompting (eth_accounts).
	Accounts(ctx context.Context) ([]common.Address, error)
}

// Signer produces transact options that sign as from.
type Signer interface {
	TransactOpts(ctx context.Context, from common.Address) (*bind.TransactOpts, error)
}

// IsUserRejection reports whether err is a wallet-side 4001 refusal.
func IsUserRejection(err error) bool {
	if dErrors.HasCode(err, dErrors.CodeUserRejected) {
		return true
	}
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode
}

// classify maps a provider failure onto the wallet error taxonomy.
func classify(err error, msg string) error {
	switch {
	case IsUserRejection(err):
		return dErrors.Wrap(err, dErrors.CodeUserRejected, msg+": rejected by wallet owner")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg+": wallet did not answer in time")
	case errors.Is(err, context.Canceled):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeProviderUnavailable, msg)
	}
}
