package main

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credentia/internal/chain"
	"credentia/internal/diploma"
	diplomahandler "credentia/internal/diploma/handler"
	"credentia/internal/institution"
	institutionhandler "credentia/internal/institution/handler"
	jwttoken "credentia/internal/jwt_token"
	"credentia/internal/metadata"
	"credentia/internal/platform/config"
	"credentia/internal/platform/health"
	"credentia/internal/platform/logger"
	"credentia/internal/platform/metrics"
	"credentia/internal/platform/tracer"
	httptransport "credentia/internal/transport/http"
	"credentia/internal/wallet"
	wallethandler "credentia/internal/wallet/handler"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the domain packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	log.Info("initializing credentia",
		"addr", cfg.Addr,
		"env", cfg.Environment,
		"chain_id", cfg.ChainID,
		"factory", cfg.FactoryAddress.Hex(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		log.Error("failed to dial chain rpc", "error", err)
		os.Exit(1)
	}
	defer client.Close()
	checkChainID(ctx, log, client, cfg.ChainID)

	m := metrics.New()
	tr := tracer.NewOTel()
	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("chain", func(ctx context.Context) error {
		_, err := client.BlockNumber(ctx)
		return err
	})

	provider, signer, closeWallet := walletFromConfig(ctx, log, cfg, healthHandler)
	defer closeWallet()
	session := wallet.NewSession(provider,
		wallet.WithLogger(log),
		wallet.WithMetrics(m),
	)

	gateway := chain.New(client, cfg.FactoryAddress,
		chain.WithSigner(signer),
		chain.WithLogger(log),
		chain.WithMetrics(m),
		chain.WithTracer(tr),
		chain.WithMaxSupplyProbe(cfg.MaxSupplyProbe),
		chain.WithTxTimeout(cfg.TxTimeout),
	)
	resolver := metadata.NewResolver(
		metadata.NewFetcher(&http.Client{}, cfg.MetadataTimeout),
		cfg.IPFSGateway,
		metadata.WithFallbackGateways(cfg.FallbackGateways...),
		metadata.WithLogger(log),
		metadata.WithMetrics(m),
		metadata.WithTracer(tr),
	)

	diplomaService := diploma.NewService(gateway, resolver,
		diploma.WithLogger(log),
		diploma.WithMetrics(m),
		diploma.WithTracer(tr),
		diploma.WithConcurrency(cfg.MetadataConcurrency),
		diploma.WithExplorerURLs(cfg.ExplorerURLs...),
	)
	institutionService := institution.NewService(gateway,
		institution.WithLogger(log),
		institution.WithTracer(tr),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	jwtService.SetEnv(cfg.Environment)

	router := httptransport.NewRouter(httptransport.Handlers{
		Health:      healthHandler,
		Wallet:      wallethandler.New(session, log),
		Institution: institutionhandler.New(institutionService, session, log),
		Diploma:     diplomahandler.New(diplomaService, log),
	}, httptransport.Options{
		Validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// walletFromConfig prefers local operator keys, then a wallet RPC endpoint.
// With neither, the server runs read-only: the session stays unavailable and
// writes fail with provider_unavailable.
func walletFromConfig(ctx context.Context, log *slog.Logger, cfg config.Server, h *health.Handler) (wallet.Provider, wallet.Signer, func()) {
	chainID := big.NewInt(cfg.ChainID)

	if len(cfg.PrivateKeys) > 0 {
		kp, err := wallet.NewKeyProvider(cfg.PrivateKeys, chainID)
		if err != nil {
			log.Error("invalid operator keys", "error", err)
			os.Exit(1)
		}
		log.Info("wallet: local operator keys", "keys", len(cfg.PrivateKeys))
		return kp, kp, func() {}
	}

	if cfg.WalletURL != "" {
		rp, err := wallet.DialRPCProvider(ctx, cfg.WalletURL, chainID)
		if err != nil {
			log.Error("failed to dial wallet rpc", "error", err)
			os.Exit(1)
		}
		h.RegisterCheck("wallet", rp.Ping)
		log.Info("wallet: rpc provider", "url", cfg.WalletURL)
		return rp, rp, rp.Close
	}

	log.Warn("no wallet configured, write endpoints are disabled")
	return nil, nil, func() {}
}

func checkChainID(ctx context.Context, log *slog.Logger, client *ethclient.Client, want int64) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	got, err := client.ChainID(ctx)
	if err != nil {
		log.Warn("could not read chain id from rpc", "error", err)
		return
	}
	if got.Int64() != want {
		log.Warn("rpc chain id differs from configuration",
			"configured", want,
			"rpc", got.Int64(),
		)
	}
}
