package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	"credentia/internal/chain"
	"credentia/internal/diploma"
	"credentia/internal/institution"
	"credentia/internal/metadata"
	"credentia/internal/platform/config"
	"credentia/internal/platform/logger"
)

// deps is what every chain-reading command needs.
type deps struct {
	client      *ethclient.Client
	diplomas    *diploma.Service
	institution *institution.Service
}

func (d *deps) Close() {
	d.client.Close()
}

func loadConfig() (config.Server, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	if rpcURL != "" {
		cfg.RPCURL = rpcURL
	}
	if factoryAddr != "" {
		addr, err := chain.ParseAddress(factoryAddr, "factory")
		if err != nil {
			return cfg, err
		}
		cfg.FactoryAddress = addr
	}
	if gatewayURL != "" {
		cfg.IPFSGateway = gatewayURL
	}
	return cfg, nil
}

func newLogger(cfg config.Server) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger.NewWithWriter(os.Stderr, cfg.LogLevel)
}

func connect(ctx context.Context) (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg)

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}
	gateway := chain.New(client, cfg.FactoryAddress,
		chain.WithLogger(log),
		chain.WithMaxSupplyProbe(cfg.MaxSupplyProbe),
	)
	resolver := metadata.NewResolver(
		metadata.NewFetcher(&http.Client{}, cfg.MetadataTimeout),
		cfg.IPFSGateway,
		metadata.WithFallbackGateways(cfg.FallbackGateways...),
		metadata.WithLogger(log),
	)
	diplomas := diploma.NewService(gateway, resolver,
		diploma.WithLogger(log),
		diploma.WithConcurrency(cfg.MetadataConcurrency),
		diploma.WithExplorerURLs(cfg.ExplorerURLs...),
	)
	return &deps{
		client:      client,
		diplomas:    diplomas,
		institution: institution.NewService(gateway, institution.WithLogger(log)),
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var institutionsCmd = &cobra.Command{
	Use:   "institutions",
	Short: "List institutions registered in the Factory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		list, err := d.institution.List(cmd.Context())
		if err != nil {
			return err
		}
		type row struct {
			Address     string  `json:"address"`
			Name        string  `json:"name"`
			Symbol      string  `json:"symbol"`
			LogoURL     string  `json:"logoUrl"`
			MintedCount *uint64 `json:"mintedCount,omitempty"`
		}
		rows := make([]row, 0, len(list))
		for _, i := range list {
			rows = append(rows, row{i.Address.Hex(), i.Name, i.Symbol, i.LogoURL, i.MintedCount})
		}
		return printJSON(cmd.OutOrStdout(), rows)
	},
}

var diplomasCmd = &cobra.Command{
	Use:   "diplomas <institution>",
	Short: "List every diploma an institution has awarded",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := chain.ParseAddress(args[0], "institution")
		if err != nil {
			return err
		}
		d, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		list, err := d.diplomas.List(cmd.Context(), inst)
		if err != nil {
			return err
		}
		type row struct {
			TokenID     uint64              `json:"tokenId"`
			Owner       string              `json:"owner"`
			MetadataURL string              `json:"metadataUrl"`
			Name        string              `json:"name"`
			Attributes  metadata.Attributes `json:"attributes"`
		}
		rows := make([]row, 0, len(list))
		for _, dip := range list {
			rows = append(rows, row{dip.TokenID, dip.Owner.Hex(), dip.MetadataURL, dip.Metadata.Name, dip.Metadata.Attributes})
		}
		return printJSON(cmd.OutOrStdout(), rows)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <institution> <tokenId>",
	Short: "Verify a diploma; exits 2 when it is not valid",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := chain.ParseAddress(args[0], "institution")
		if err != nil {
			return err
		}
		tokenID, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("tokenId must be a non-negative integer: %w", err)
		}
		d, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		v := d.diplomas.Verify(cmd.Context(), inst, tokenID)
		out := map[string]any{
			"valid":         v.Valid,
			"institution":   v.Institution.Hex(),
			"tokenId":       v.TokenID,
			"explorerLinks": v.ExplorerLinks,
		}
		if v.Reason != "" {
			out["reason"] = v.Reason
		}
		if v.Owner != nil {
			out["owner"] = v.Owner.Hex()
		}
		if v.InstitutionName != "" {
			out["institutionName"] = v.InstitutionName
		}
		if v.Metadata != nil {
			out["metadata"] = v.Metadata
		}
		if v.MetadataError != "" {
			out["metadataError"] = v.MetadataError
		}
		if err := printJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
		if !v.Valid {
			exitCode = 2
		}
		return nil
	},
}

var roleCmd = &cobra.Command{
	Use:   "role <institution> <account>",
	Short: "Show an account's role in an institution",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := chain.ParseAddress(args[0], "institution")
		if err != nil {
			return err
		}
		account, err := chain.ParseAddress(args[1], "account")
		if err != nil {
			return err
		}
		d, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		role, err := d.institution.Role(cmd.Context(), inst, account)
		if err != nil {
			return err
		}
		if role == chain.RoleNone {
			role = "none"
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\tcanAward=%t\n", role, chain.CanAward(role))
		return err
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <uri>",
	Short: "Print the HTTP URL a token URI resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), metadata.NormalizeURI(args[0], cfg.IPFSGateway))
		return err
	},
}
