package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable (CREDENTIA_RPC_URL, ...).
const EnvPrefix = "CREDENTIA"

// DefaultFactoryAddress is the Sepolia Factory the registrar UI shipped with.
const DefaultFactoryAddress = "0xB6106cB47EF8723B7cB0df09708fa03AF6DcE554"

// Server captures process-level configuration for the API server and CLIs.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	// Chain
	RPCURL         string
	ChainID        int64
	FactoryAddress common.Address
	TxTimeout      time.Duration
	MaxSupplyProbe uint64

	// Wallet: either a wallet JSON-RPC endpoint or local operator keys.
	WalletURL   string
	PrivateKeys []string

	// Metadata
	IPFSGateway         string
	FallbackGateways    []string
	MetadataTimeout     time.Duration
	MetadataConcurrency int

	ExplorerURLs []string

	// Operator auth
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	TokenTTL      time.Duration

	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("ENV", "local")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RPC_URL", "https://ethereum-sepolia-rpc.publicnode.com")
	v.SetDefault("CHAIN_ID", 11155111)
	v.SetDefault("FACTORY_ADDRESS", DefaultFactoryAddress)
	v.SetDefault("TX_TIMEOUT", 2*time.Minute)
	v.SetDefault("MAX_SUPPLY_PROBE", 10000)
	v.SetDefault("WALLET_URL", "")
	v.SetDefault("PRIVATE_KEYS", "")
	v.SetDefault("IPFS_GATEWAY", "https://ipfs.io")
	v.SetDefault("IPFS_FALLBACK_GATEWAYS", "https://cloudflare-ipfs.com,https://gateway.pinata.cloud")
	v.SetDefault("METADATA_TIMEOUT", 10*time.Second)
	v.SetDefault("METADATA_CONCURRENCY", 4)
	v.SetDefault("EXPLORER_URLS", "https://sepolia.etherscan.io,https://sepolia.blockscout.com")
	v.SetDefault("JWT_SIGNING_KEY", "dev-secret-key-change-in-production")
	v.SetDefault("JWT_ISSUER", "credentia")
	v.SetDefault("JWT_AUDIENCE", "credentia-operators")
	v.SetDefault("TOKEN_TTL", 8*time.Hour)
	v.SetDefault("REQUEST_TIMEOUT", 3*time.Minute)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
}

// FromEnv builds a Server config from CREDENTIA_* environment variables so
// main stays lean.
func FromEnv() (Server, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)
	return load(v)
}

func load(v *viper.Viper) (Server, error) {
	factory := v.GetString("FACTORY_ADDRESS")
	if !common.IsHexAddress(factory) {
		return Server{}, fmt.Errorf("invalid %s_FACTORY_ADDRESS %q", EnvPrefix, factory)
	}
	chainID := v.GetInt64("CHAIN_ID")
	if chainID <= 0 {
		return Server{}, fmt.Errorf("invalid %s_CHAIN_ID %d", EnvPrefix, chainID)
	}
	concurrency := v.GetInt("METADATA_CONCURRENCY")
	if concurrency < 1 {
		concurrency = 1
	}

	return Server{
		Addr:                v.GetString("ADDR"),
		Environment:         v.GetString("ENV"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		RPCURL:              v.GetString("RPC_URL"),
		ChainID:             chainID,
		FactoryAddress:      common.HexToAddress(factory),
		TxTimeout:           v.GetDuration("TX_TIMEOUT"),
		MaxSupplyProbe:      v.GetUint64("MAX_SUPPLY_PROBE"),
		WalletURL:           v.GetString("WALLET_URL"),
		PrivateKeys:         splitList(v.GetString("PRIVATE_KEYS")),
		IPFSGateway:         strings.TrimRight(v.GetString("IPFS_GATEWAY"), "/"),
		FallbackGateways:    splitList(v.GetString("IPFS_FALLBACK_GATEWAYS")),
		MetadataTimeout:     v.GetDuration("METADATA_TIMEOUT"),
		MetadataConcurrency: concurrency,
		ExplorerURLs:        splitList(v.GetString("EXPLORER_URLS")),
		JWTSigningKey:       v.GetString("JWT_SIGNING_KEY"),
		JWTIssuer:           v.GetString("JWT_ISSUER"),
		JWTAudience:         v.GetString("JWT_AUDIENCE"),
		TokenTTL:            v.GetDuration("TOKEN_TTL"),
		RequestTimeout:      v.GetDuration("REQUEST_TIMEOUT"),
		MaxBodyBytes:        v.GetInt64("MAX_BODY_BYTES"),
	}, nil
}

// splitList accepts comma- or whitespace-separated values.
func splitList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
}
