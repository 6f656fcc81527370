package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/suite"

	"credentia/internal/wallet"
	dErrors "credentia/pkg/domain-errors"
)

const devKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	factoryAddr = common.HexToAddress("0xB6106cB47EF8723B7cB0df09708fa03AF6DcE554")
	instAddr    = common.HexToAddress("0xAAAA000000000000000000000000000000000001")
	otherInst   = common.HexToAddress("0xAAAA000000000000000000000000000000000002")
	rectorAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	studentAddr = common.HexToAddress("0x4444444444444444444444444444444444444444")
	operator    = crypto.PubkeyToAddress(mustKey().PublicKey)
)

func mustKey() *ecdsa.PrivateKey {
	k, err := crypto.HexToECDSA(devKey)
	if err != nil {
		panic(err)
	}
	return k
}

type rejectedError struct{}

func (rejectedError) Error() string  { return "User rejected the request." }
func (rejectedError) ErrorCode() int { return 4001 }

// rejectingSigner models a wallet whose owner declines every signature.
type rejectingSigner struct{}

func (rejectingSigner) TransactOpts(ctx context.Context, from common.Address) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{
		From:    from,
		Context: ctx,
		Signer: func(common.Address, *types.Transaction) (*types.Transaction, error) {
			return nil, rejectedError{}
		},
	}, nil
}

type GatewaySuite struct {
	suite.Suite
	ctx     context.Context
	backend *fakeBackend
	gateway *Gateway
	minted  uint64
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = newFakeBackend()
	s.minted = 3

	signer, err := wallet.NewKeyProvider([]string{devKey}, big.NewInt(11155111))
	s.Require().NoError(err)

	s.gateway = New(s.backend, factoryAddr,
		WithSigner(signer),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMaxSupplyProbe(50),
	)
}

// deployInstitution registers an institution with tokens 1..s.minted.
// withCounter controls whether totalMinted() exists.
func (s *GatewaySuite) deployInstitution(addr common.Address, withCounter bool) {
	methods := map[string]methodFunc{
		"name":            func([]any) ([]any, error) { return []any{"Universidad de Prueba"}, nil },
		"symbol":          func([]any) ([]any, error) { return []any{"UDP"}, nil },
		"institutionLogo": func([]any) ([]any, error) { return []any{"ipfs://QmLogo"}, nil },
		"allowedWallets": func(args []any) ([]any, error) {
			if args[0].(common.Address) == rectorAddr {
				return []any{RoleRector}, nil
			}
			return []any{""}, nil
		},
		"ownerOf": func(args []any) ([]any, error) {
			id := args[0].(*big.Int)
			if id.Sign() <= 0 || id.Uint64() > s.minted {
				return nil, errReverted
			}
			return []any{studentAddr}, nil
		},
		"tokenURI": func(args []any) ([]any, error) {
			id := args[0].(*big.Int)
			if id.Sign() <= 0 || id.Uint64() > s.minted {
				return nil, errReverted
			}
			return []any{"ipfs://Qm" + id.String()}, nil
		},
	}
	if withCounter {
		methods["totalMinted"] = func([]any) ([]any, error) { return []any{new(big.Int).SetUint64(s.minted)}, nil }
	}
	s.backend.deploy(addr, institutionABI, methods)
}

func (s *GatewaySuite) deployFactory(list []common.Address) {
	s.backend.deploy(factoryAddr, factoryABI, map[string]methodFunc{
		"getInstitutions": func([]any) ([]any, error) { return []any{list}, nil },
	})
}

func (s *GatewaySuite) TestListInstitutions() {
	s.Run("ordered addresses", func() {
		s.deployFactory([]common.Address{instAddr, otherInst})
		got, err := s.gateway.ListInstitutions(s.ctx)
		s.Require().NoError(err)
		s.Equal([]common.Address{instAddr, otherInst}, got)
	})

	s.Run("none registered is empty, not nil", func() {
		s.deployFactory([]common.Address{})
		got, err := s.gateway.ListInstitutions(s.ctx)
		s.Require().NoError(err)
		s.NotNil(got)
		s.Empty(got)
	})
}

func (s *GatewaySuite) TestListInstitutionsWithoutFactory() {
	_, err := s.gateway.ListInstitutions(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeContractRead))
}

func (s *GatewaySuite) TestProfileAndRole() {
	s.deployInstitution(instAddr, true)

	profile, err := s.gateway.Profile(s.ctx, instAddr)
	s.Require().NoError(err)
	s.Equal(&Profile{Name: "Universidad de Prueba", Symbol: "UDP", LogoURL: "ipfs://QmLogo"}, profile)

	role, err := s.gateway.Role(s.ctx, instAddr, rectorAddr)
	s.Require().NoError(err)
	s.Equal(RoleRector, role)
	s.True(CanAward(role))

	role, err = s.gateway.Role(s.ctx, instAddr, studentAddr)
	s.Require().NoError(err)
	s.Equal(RoleNone, role)
	s.False(CanAward(role))
}

func (s *GatewaySuite) TestProfileFailsWhenAnyReadFails() {
	s.backend.deploy(instAddr, institutionABI, map[string]methodFunc{
		"name":   func([]any) ([]any, error) { return []any{"U"}, nil },
		"symbol": func([]any) ([]any, error) { return []any{"U"}, nil },
	})

	_, err := s.gateway.Profile(s.ctx, instAddr)

	s.True(dErrors.HasCode(err, dErrors.CodeContractRead))
	s.Contains(err.Error(), "institutionLogo")
}

func (s *GatewaySuite) TestTokenReads() {
	s.deployInstitution(instAddr, true)

	owner, err := s.gateway.OwnerOf(s.ctx, instAddr, big.NewInt(2))
	s.Require().NoError(err)
	s.Equal(studentAddr, owner)

	uri, err := s.gateway.TokenURI(s.ctx, instAddr, big.NewInt(2))
	s.Require().NoError(err)
	s.Equal("ipfs://Qm2", uri)

	_, err = s.gateway.OwnerOf(s.ctx, instAddr, big.NewInt(99))
	s.True(dErrors.HasCode(err, dErrors.CodeTokenNotFound))

	_, err = s.gateway.TokenURI(s.ctx, otherInst, big.NewInt(1))
	s.True(dErrors.HasCode(err, dErrors.CodeContractRead), "missing contract is a read error, not a missing token")
}

func (s *GatewaySuite) TestTotalMinted() {
	s.Run("counter is authoritative", func() {
		s.deployInstitution(instAddr, true)
		total, err := s.gateway.TotalMinted(s.ctx, instAddr)
		s.Require().NoError(err)
		s.Equal(uint64(3), total)
		s.Zero(s.backend.callCount("ownerOf"))
	})

	s.Run("probe stops at first failing ownerOf", func() {
		s.deployInstitution(otherInst, false)
		total, err := s.gateway.TotalMinted(s.ctx, otherInst)
		s.Require().NoError(err)
		s.Equal(uint64(3), total)
		s.Equal(4, s.backend.callCount("ownerOf"), "ownerOf(1..4)")
	})
}

func (s *GatewaySuite) TestTotalMintedZero() {
	s.minted = 0
	s.deployInstitution(instAddr, false)

	total, err := s.gateway.TotalMinted(s.ctx, instAddr)

	s.Require().NoError(err)
	s.Zero(total)
}

func (s *GatewaySuite) TestTotalMintedProbeIsCapped() {
	s.minted = 1000
	s.deployInstitution(instAddr, false)

	total, err := s.gateway.TotalMinted(s.ctx, instAddr)

	s.Require().NoError(err)
	s.Equal(uint64(50), total)
	s.Equal(50, s.backend.callCount("ownerOf"))
}

func (s *GatewaySuite) TestTotalMintedWithoutContractIsReadError() {
	total, err := s.gateway.TotalMinted(s.ctx, instAddr)

	s.True(dErrors.HasCode(err, dErrors.CodeContractRead))
	s.Zero(total)
	s.Zero(s.backend.callCount("ownerOf"))
}

func (s *GatewaySuite) TestTotalMintedCounterTransportFailureIsReturned() {
	s.deployInstitution(instAddr, false)
	s.backend.contracts[instAddr].methods["totalMinted"] = func([]any) ([]any, error) {
		return nil, errors.New("dial tcp 127.0.0.1:8545: connect: connection refused")
	}

	_, err := s.gateway.TotalMinted(s.ctx, instAddr)

	s.True(dErrors.HasCode(err, dErrors.CodeContractRead))
	s.Zero(s.backend.callCount("ownerOf"))
}

func (s *GatewaySuite) TestTotalMintedProbeReturnsTransportFailure() {
	s.deployInstitution(instAddr, false)
	owner := s.backend.contracts[instAddr].methods["ownerOf"]
	s.backend.contracts[instAddr].methods["ownerOf"] = func(args []any) ([]any, error) {
		if args[0].(*big.Int).Uint64() == 2 {
			return nil, errors.New("dial tcp 127.0.0.1:8545: connect: connection refused")
		}
		return owner(args)
	}

	total, err := s.gateway.TotalMinted(s.ctx, instAddr)

	s.True(dErrors.HasCode(err, dErrors.CodeContractRead))
	s.False(dErrors.HasCode(err, dErrors.CodeTokenNotFound))
	s.Zero(total)
	s.Equal(2, s.backend.callCount("ownerOf"))
}

func (s *GatewaySuite) TestTotalMintedHonoursCancellation() {
	s.deployInstitution(instAddr, false)
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.gateway.TotalMinted(ctx, instAddr)

	s.ErrorIs(err, context.Canceled)
}

func (s *GatewaySuite) institutionCreatedLog(addr common.Address, indexed bool) *types.Log {
	event := factoryABI.Events[eventInstitutionCreated]
	if indexed {
		return &types.Log{Address: factoryAddr, Topics: []common.Hash{event.ID, common.BytesToHash(addr.Bytes())}}
	}
	data, err := event.Inputs.Pack(addr)
	s.Require().NoError(err)
	return &types.Log{Address: factoryAddr, Topics: []common.Hash{event.ID}, Data: data}
}

func (s *GatewaySuite) TestCreateInstitution() {
	s.deployFactory(nil)
	req := CreateInstitutionRequest{Name: "U", Symbol: "U", LogoURL: "ipfs://QmLogo", Rector: rectorAddr, Secretaria: studentAddr}

	for _, indexed := range []bool{false, true} {
		s.backend.receipt = func(*types.Transaction) *types.Receipt {
			return &types.Receipt{
				Status: types.ReceiptStatusSuccessful,
				Logs: []*types.Log{
					{Address: factoryAddr, Topics: []common.Hash{common.HexToHash("0x01")}},
					s.institutionCreatedLog(otherInst, indexed),
				},
			}
		}

		res, err := s.gateway.CreateInstitution(s.ctx, operator, req)

		s.Require().NoError(err)
		s.Require().NotNil(res.Institution)
		s.Equal(otherInst, *res.Institution)
		s.NotEqual(common.Hash{}, res.TxHash)
	}

	sent := s.backend.sent[len(s.backend.sent)-1]
	s.Equal(factoryAddr, *sent.To())
	method, err := factoryABI.MethodById(sent.Data()[:4])
	s.Require().NoError(err)
	s.Equal(methodCreateInstitution, method.Name)
}

func (s *GatewaySuite) TestCreateInstitutionWithoutEventIsSoftSuccess() {
	s.deployFactory(nil)
	s.backend.receipt = func(*types.Transaction) *types.Receipt {
		return &types.Receipt{Status: types.ReceiptStatusSuccessful}
	}

	res, err := s.gateway.CreateInstitution(s.ctx, operator, CreateInstitutionRequest{Name: "U", Symbol: "U"})

	s.Require().NoError(err)
	s.Nil(res.Institution)
	s.NotEqual(common.Hash{}, res.TxHash)
}

func (s *GatewaySuite) TestWriteFailures() {
	s.deployFactory(nil)
	req := CreateInstitutionRequest{Name: "U", Symbol: "U"}

	s.Run("mined but reverted", func() {
		s.backend.receipt = func(*types.Transaction) *types.Receipt {
			return &types.Receipt{Status: types.ReceiptStatusFailed}
		}
		_, err := s.gateway.CreateInstitution(s.ctx, operator, req)
		s.True(dErrors.HasCode(err, dErrors.CodeTransactionReverted))
	})

	s.Run("preflight revert", func() {
		s.backend.estimateErr = errors.New("execution reverted: not allowed")
		defer func() { s.backend.estimateErr = nil }()
		_, err := s.gateway.CreateInstitution(s.ctx, operator, req)
		s.True(dErrors.HasCode(err, dErrors.CodeTransactionReverted))
	})

	s.Run("node refuses submission", func() {
		s.backend.sendErr = errors.New("insufficient funds for gas * price + value")
		defer func() { s.backend.sendErr = nil }()
		_, err := s.gateway.CreateInstitution(s.ctx, operator, req)
		s.True(dErrors.HasCode(err, dErrors.CodeTransactionRejected))
	})

	s.Run("wallet owner declines", func() {
		g := New(s.backend, factoryAddr, WithSigner(rejectingSigner{}))
		_, err := g.CreateInstitution(s.ctx, operator, req)
		s.True(dErrors.HasCode(err, dErrors.CodeUserRejected))
	})

	s.Run("no signer", func() {
		g := New(s.backend, factoryAddr)
		_, err := g.CreateInstitution(s.ctx, operator, req)
		s.True(dErrors.HasCode(err, dErrors.CodeProviderUnavailable))
	})
}

func (s *GatewaySuite) TestMintParsesTransferLog() {
	s.deployInstitution(instAddr, true)
	transfer := institutionABI.Events[eventTransfer].ID
	s.backend.receipt = func(*types.Transaction) *types.Receipt {
		return &types.Receipt{
			Status: types.ReceiptStatusSuccessful,
			Logs: []*types.Log{{
				Address: instAddr,
				Topics: []common.Hash{
					transfer,
					{},
					common.BytesToHash(studentAddr.Bytes()),
					common.BigToHash(big.NewInt(4)),
				},
			}},
		}
	}

	res, err := s.gateway.Mint(s.ctx, operator, instAddr, studentAddr, "ipfs://Qm4")

	s.Require().NoError(err)
	s.Require().NotNil(res.TokenID)
	s.Equal(int64(4), res.TokenID.Int64())

	sent := s.backend.sent[len(s.backend.sent)-1]
	method, err := institutionABI.MethodById(sent.Data()[:4])
	s.Require().NoError(err)
	args, err := method.Inputs.Unpack(sent.Data()[4:])
	s.Require().NoError(err)
	s.Equal(studentAddr, args[0])
	s.Equal("ipfs://Qm4", args[1])
}

func (s *GatewaySuite) TestParseHelpersIgnoreForeignLogs() {
	s.Nil(parseInstitutionCreated([]*types.Log{nil, {Topics: nil}}))
	s.Nil(parseMintedTokenID([]*types.Log{{
		Address: otherInst,
		Topics:  []common.Hash{institutionABI.Events[eventTransfer].ID, {}, {}, {}},
	}}, instAddr, studentAddr))
}

func (s *GatewaySuite) TestParseAddress() {
	addr, err := ParseAddress(" 0xb6106cb47ef8723b7cb0df09708fa03af6dce554 ", "institution")
	s.Require().NoError(err)
	s.Equal(factoryAddr, addr)

	_, err = ParseAddress("not-an-address", "institution")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	s.Contains(err.Error(), "institution")
}
