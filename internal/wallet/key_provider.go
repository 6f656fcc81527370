package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	dErrors "credentia/pkg/domain-errors"
)

// KeyProvider holds operator private keys in memory. RequestAccounts grants
// the active key; RequestPermissions rotates to the next one, which is how a
// headless operator "switches account".
type KeyProvider struct {
	chainID *big.Int

	mu      sync.Mutex
	keys    []*ecdsa.PrivateKey
	active  int
	granted bool
}

// NewKeyProvider parses hex keys (with or without 0x).
func NewKeyProvider(hexKeys []string, chainID *big.Int) (*KeyProvider, error) {
	if len(hexKeys) == 0 {
		return nil, dErrors.New(dErrors.CodeProviderUnavailable, "no operator keys configured")
	}
	keys := make([]*ecdsa.PrivateKey, 0, len(hexKeys))
	for i, h := range hexKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(h), "0x"))
		if err != nil {
			return nil, fmt.Errorf("operator key %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	return &KeyProvider{chainID: chainID, keys: keys}, nil
}

func (p *KeyProvider) address(i int) common.Address {
	return crypto.PubkeyToAddress(p.keys[i].PublicKey)
}

func (p *KeyProvider) RequestAccounts(_ context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted = true
	return []common.Address{p.address(p.active)}, nil
}

func (p *KeyProvider) RequestPermissions(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.granted {
		p.active = (p.active + 1) % len(p.keys)
	}
	p.granted = true
	return nil
}

func (p *KeyProvider) Accounts(_ context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.granted {
		return []common.Address{}, nil
	}
	return []common.Address{p.address(p.active)}, nil
}

// TransactOpts signs locally with the key that owns from.
func (p *KeyProvider) TransactOpts(ctx context.Context, from common.Address) (*bind.TransactOpts, error) {
	p.mu.Lock()
	var key *ecdsa.PrivateKey
	for i := range p.keys {
		if p.address(i) == from {
			key = p.keys[i]
			break
		}
	}
	p.mu.Unlock()

	if key == nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "no operator key for account "+from.Hex())
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, p.chainID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProviderUnavailable, "build keyed transactor")
	}
	opts.Context = ctx
	return opts, nil
}
