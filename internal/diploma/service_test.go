package diploma_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"credentia/internal/diploma"
	"credentia/internal/diploma/mocks"
	"credentia/internal/metadata"
	dErrors "credentia/pkg/domain-errors"
)

var (
	inst    = common.HexToAddress("0xAAAA000000000000000000000000000000000001")
	student = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

// tokenID matches a *big.Int argument by value.
type tokenID uint64

func (t tokenID) Matches(x any) bool {
	n, ok := x.(*big.Int)
	return ok && n.IsUint64() && n.Uint64() == uint64(t)
}

func (t tokenID) String() string { return fmt.Sprintf("token id %d", uint64(t)) }

func resolved(uri, name string) *metadata.Resolved {
	programme := "CS"
	return &metadata.Resolved{
		URL:        uri,
		Document:   &metadata.Document{Name: name},
		Attributes: metadata.Attributes{Programme: &programme},
	}
}

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	chain    *mocks.MockChain
	resolver *mocks.MockResolver
	service  *diploma.Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.chain = mocks.NewMockChain(s.ctrl)
	s.resolver = mocks.NewMockResolver(s.ctrl)
	s.ctx = context.Background()
	s.service = diploma.NewService(s.chain, s.resolver,
		diploma.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		diploma.WithConcurrency(3),
		diploma.WithExplorerURLs("https://sepolia.etherscan.io", "https://sepolia.blockscout.com/"),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

// expectTokens makes tokens 1..n readable with URI ipfs://Qm<id>.
func (s *ServiceSuite) expectTokens(n uint64) {
	for id := uint64(1); id <= n; id++ {
		s.chain.EXPECT().OwnerOf(gomock.Any(), inst, tokenID(id)).Return(student, nil)
		s.chain.EXPECT().TokenURI(gomock.Any(), inst, tokenID(id)).Return(fmt.Sprintf("ipfs://Qm%d", id), nil)
	}
}

func tokenIDs(list []diploma.Diploma) []uint64 {
	ids := make([]uint64, 0, len(list))
	for _, d := range list {
		ids = append(ids, d.TokenID)
	}
	return ids
}

func (s *ServiceSuite) TestListEmptySupply() {
	s.chain.EXPECT().TotalMinted(gomock.Any(), inst).Return(uint64(0), nil)

	list, err := s.service.List(s.ctx, inst)

	s.Require().NoError(err)
	s.NotNil(list)
	s.Empty(list)
}

func (s *ServiceSuite) TestListSupplyFailure() {
	s.chain.EXPECT().TotalMinted(gomock.Any(), inst).
		Return(uint64(0), dErrors.New(dErrors.CodeContractRead, "ownerOf failed"))

	list, err := s.service.List(s.ctx, inst)

	s.Nil(list)
	s.True(dErrors.HasCode(err, dErrors.CodeContractRead))
}

func (s *ServiceSuite) TestListSkipsTokenWithBrokenMetadata() {
	s.chain.EXPECT().TotalMinted(gomock.Any(), inst).Return(uint64(5), nil)
	s.expectTokens(5)
	s.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, uri string) (*metadata.Resolved, error) {
			if uri == "ipfs://Qm3" {
				return nil, dErrors.New(dErrors.CodeMetadataUnreachable, "status 504")
			}
			// finish out of order
			if uri == "ipfs://Qm1" {
				time.Sleep(10 * time.Millisecond)
			}
			return resolved("https://ipfs.io/ipfs/"+strings.TrimPrefix(uri, "ipfs://"), uri), nil
		}).Times(5)

	list, err := s.service.List(s.ctx, inst)

	s.Require().NoError(err)
	s.Equal([]uint64{1, 2, 4, 5}, tokenIDs(list))
	s.Equal("ipfs://Qm1", list[0].MetadataURI)
	s.Equal("https://ipfs.io/ipfs/Qm1", list[0].MetadataURL)
	s.Equal(student, list[0].Owner)
	s.Equal("CS", *list[0].Metadata.Programme)
}

func (s *ServiceSuite) TestListSkipsUnreadableTokens() {
	s.chain.EXPECT().TotalMinted(gomock.Any(), inst).Return(uint64(3), nil)
	s.chain.EXPECT().OwnerOf(gomock.Any(), inst, tokenID(1)).Return(student, nil)
	s.chain.EXPECT().TokenURI(gomock.Any(), inst, tokenID(1)).Return("ipfs://Qm1", nil)
	s.chain.EXPECT().OwnerOf(gomock.Any(), inst, tokenID(2)).
		Return(common.Address{}, dErrors.New(dErrors.CodeTokenNotFound, "burned"))
	s.chain.EXPECT().OwnerOf(gomock.Any(), inst, tokenID(3)).Return(student, nil)
	s.chain.EXPECT().TokenURI(gomock.Any(), inst, tokenID(3)).
		Return("", dErrors.New(dErrors.CodeContractRead, "tokenURI failed"))
	s.resolver.EXPECT().Resolve(gomock.Any(), "ipfs://Qm1").Return(resolved("u1", "one"), nil)

	list, err := s.service.List(s.ctx, inst)

	s.Require().NoError(err)
	s.Equal([]uint64{1}, tokenIDs(list))
}

func (s *ServiceSuite) TestListDiscardsPartialResultOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	s.chain.EXPECT().TotalMinted(gomock.Any(), inst).Return(uint64(3), nil)
	s.expectTokens(3)
	var once sync.Once
	s.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, uri string) (*metadata.Resolved, error) {
			if uri == "ipfs://Qm2" {
				once.Do(cancel)
				return nil, ctx.Err()
			}
			return resolved(uri, uri), nil
		}).AnyTimes()

	list, err := s.service.List(ctx, inst)

	s.Nil(list)
	s.ErrorIs(err, context.Canceled)
}

func (s *ServiceSuite) TestListCancelledDuringChainReads() {
	ctx, cancel := context.WithCancel(s.ctx)

	s.chain.EXPECT().TotalMinted(gomock.Any(), inst).Return(uint64(10), nil)
	s.chain.EXPECT().OwnerOf(gomock.Any(), inst, tokenID(1)).DoAndReturn(
		func(context.Context, common.Address, *big.Int) (common.Address, error) {
			cancel()
			return common.Address{}, context.Canceled
		})

	list, err := s.service.List(ctx, inst)

	s.Nil(list)
	s.ErrorIs(err, context.Canceled)
}

func (s *ServiceSuite) TestVerifyRejectsZeroTokenID() {
	v := s.service.Verify(s.ctx, inst, 0)

	s.False(v.Valid)
	s.Equal(diploma.ReasonInvalidTokenID, v.Reason)
}

func (s *ServiceSuite) TestVerifyNeverMintedToken() {
	s.chain.EXPECT().Name(gomock.Any(), inst).Return("Universidad de Prueba", nil)
	s.chain.EXPECT().OwnerOf(gomock.Any(), inst, tokenID(99)).
		Return(common.Address{}, dErrors.New(dErrors.CodeTokenNotFound, "ownerOf: token not minted"))

	v := s.service.Verify(s.ctx, inst, 99)

	s.False(v.Valid)
	s.Equal(diploma.ReasonTokenNotMinted, v.Reason)
	s.Equal("Universidad de Prueba", v.InstitutionName)
	s.Nil(v.Owner)
}

func (s *ServiceSuite) TestVerifyUnreadableNameDoesNotInvalidate() {
	s.chain.EXPECT().Name(gomock.Any(), inst).
		Return("", dErrors.New(dErrors.CodeContractRead, "name failed"))
	s.chain.EXPECT().OwnerOf(gomock.Any(), inst, tokenID(1)).Return(student, nil)
	s.chain.EXPECT().TokenURI(gomock.Any(), inst, tokenID(1)).Return("ipfs://Qm1", nil)
	s.resolver.EXPECT().Resolve(gomock.Any(), "ipfs://Qm1").Return(resolved("https://ipfs.io/ipfs/Qm1", "Grado"), nil)

	v := s.service.Verify(s.ctx, inst, 1)

	s.True(v.Valid)
	s.Empty(v.Reason)
	s.Empty(v.InstitutionName)
	s.Require().NotNil(v.Owner)
	s.Equal(student, *v.Owner)
}

func (s *ServiceSuite) TestVerifyMissingContractIsOwnerUnavailable() {
	readErr := dErrors.New(dErrors.CodeContractRead, "no contract at address")
	s.chain.EXPECT().Name(gomock.Any(), inst).Return("", readErr)
	s.chain.EXPECT().OwnerOf(gomock.Any(), inst, tokenID(1)).Return(common.Address{}, readErr)

	v := s.service.Verify(s.ctx, inst, 1)

	s.False(v.Valid)
	s.Equal(diploma.ReasonOwnerUnavailable, v.Reason)
}

func (s *ServiceSuite) TestVerifyOwnerTransportFailure() {
	s.chain.EXPECT().Name(gomock.Any(), inst).Return("U", nil)
	s.chain.EXPECT().OwnerOf(gomock.Any(), inst, tokenID(1)).
		Return(common.Address{}, dErrors.New(dErrors.CodeContractRead, "ownerOf failed"))

	v := s.service.Verify(s.ctx, inst, 1)

	s.False(v.Valid)
	s.Equal(diploma.ReasonOwnerUnavailable, v.Reason)
}

func (s *ServiceSuite) TestVerifyValid() {
	s.chain.EXPECT().Name(gomock.Any(), inst).Return("Universidad de Prueba", nil)
	s.chain.EXPECT().OwnerOf(gomock.Any(), inst, tokenID(1)).Return(student, nil)
	s.chain.EXPECT().TokenURI(gomock.Any(), inst, tokenID(1)).Return("ipfs://Qm1", nil)
	s.resolver.EXPECT().Resolve(gomock.Any(), "ipfs://Qm1").Return(resolved("https://ipfs.io/ipfs/Qm1", "Grado"), nil)

	v := s.service.Verify(s.ctx, inst, 1)

	s.True(v.Valid)
	s.Empty(v.Reason)
	s.Require().NotNil(v.Owner)
	s.Equal(student, *v.Owner)
	s.Equal("ipfs://Qm1", v.TokenURI)
	s.Equal("https://ipfs.io/ipfs/Qm1", v.MetadataURL)
	s.Require().NotNil(v.Metadata)
	s.Equal("Grado", v.Metadata.Name)
	s.Empty(v.MetadataError)
	s.Equal([]diploma.ExplorerLink{
		{Name: "sepolia.etherscan.io", URL: "https://sepolia.etherscan.io/address/" + inst.Hex()},
		{Name: "sepolia.blockscout.com", URL: "https://sepolia.blockscout.com/address/" + inst.Hex()},
	}, v.ExplorerLinks)
}

func (s *ServiceSuite) TestVerifyKeepsValidityWhenMetadataFails() {
	s.chain.EXPECT().Name(gomock.Any(), inst).Return("U", nil)
	s.chain.EXPECT().OwnerOf(gomock.Any(), inst, tokenID(2)).Return(student, nil)
	s.chain.EXPECT().TokenURI(gomock.Any(), inst, tokenID(2)).Return("ipfs://Qm2", nil)
	s.resolver.EXPECT().Resolve(gomock.Any(), "ipfs://Qm2").
		Return(nil, dErrors.New(dErrors.CodeMetadataMalformed, "metadata is not a valid document"))
	s.resolver.EXPECT().Normalize("ipfs://Qm2").Return("https://ipfs.io/ipfs/Qm2")

	v := s.service.Verify(s.ctx, inst, 2)

	s.True(v.Valid)
	s.Nil(v.Metadata)
	s.Equal("metadata is not a valid document", v.MetadataError)
	s.Equal("https://ipfs.io/ipfs/Qm2", v.MetadataURL)
}

// routeDoer serves canned documents keyed by the exact requested URL.
type routeDoer map[string]string

func (d routeDoer) Do(req *http.Request) (*http.Response, error) {
	body, ok := d[req.URL.String()]
	if !ok {
		return nil, errors.New("unexpected url " + req.URL.String())
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}, nil
}

func (s *ServiceSuite) TestListWithRealResolver() {
	doer := routeDoer{
		"https://ipfs.io/ipfs/Qm111":  `{"name":"first","attributes":[{"trait_type":"Student name","value":"Ada"}]}`,
		"https://example.com/2.json": `{"name":"second"}`,
	}
	resolver := metadata.NewResolver(metadata.NewFetcher(doer, time.Second), "https://ipfs.io")
	svc := diploma.NewService(s.chain, resolver, diploma.WithConcurrency(1))

	s.chain.EXPECT().TotalMinted(gomock.Any(), inst).Return(uint64(2), nil)
	s.chain.EXPECT().OwnerOf(gomock.Any(), inst, gomock.Any()).Return(student, nil).Times(2)
	s.chain.EXPECT().TokenURI(gomock.Any(), inst, tokenID(1)).Return("ipfs://Qm111", nil)
	s.chain.EXPECT().TokenURI(gomock.Any(), inst, tokenID(2)).Return("https://example.com/2.json", nil)

	list, err := svc.List(s.ctx, inst)

	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(uint64(1), list[0].TokenID)
	s.Equal("https://ipfs.io/ipfs/Qm111", list[0].MetadataURL)
	s.Equal("Ada", *list[0].Metadata.StudentName)
	s.Equal(uint64(2), list[1].TokenID)
	s.Equal("https://example.com/2.json", list[1].MetadataURL)
	s.Equal("second", list[1].Metadata.Name)
}
