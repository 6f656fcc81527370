package chain

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/rpc"

	"credentia/internal/wallet"
	dErrors "credentia/pkg/domain-errors"
)

// isRevert reports whether err is an EVM revert rather than a transport fault.
// Nodes report reverts as JSON-RPC code 3 with revert data, or as a plain
// "execution reverted" message.
func isRevert(err error) bool {
	if err == nil {
		return false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		return true
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if strings.Contains(e.Error(), "execution reverted") {
			return true
		}
	}
	return false
}

// readError classifies a failed view call.
func readError(err error, method string) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, method+": "+err.Error())
	case errors.Is(err, bind.ErrNoCode):
		return dErrors.Wrap(err, dErrors.CodeContractRead, method+": no contract at address")
	default:
		return dErrors.Wrap(err, dErrors.CodeContractRead, method+" failed")
	}
}

// tokenReadError is readError for per-token reads, where a revert means the id
// was never minted.
func tokenReadError(err error, method string) error {
	if isRevert(err) {
		return dErrors.Wrap(err, dErrors.CodeTokenNotFound, method+": token not minted")
	}
	return readError(err, method)
}

// txError classifies a failed submission.
func txError(err error, method string) error {
	switch {
	case wallet.IsUserRejection(err):
		return dErrors.Wrap(err, dErrors.CodeUserRejected, method+": rejected by wallet owner")
	case dErrors.HasCode(err, dErrors.CodeProviderUnavailable), dErrors.HasCode(err, dErrors.CodeForbidden):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, method+": confirmation not observed in time")
	case isRevert(err):
		return dErrors.Wrap(err, dErrors.CodeTransactionReverted, method+" reverted")
	default:
		return dErrors.Wrap(err, dErrors.CodeTransactionRejected, method+" rejected")
	}
}
