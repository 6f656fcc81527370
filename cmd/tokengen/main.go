// Package main generates operator bearer tokens for the credentia API.
// Tokens are signed with CREDENTIA_JWT_SIGNING_KEY (the dev key when unset),
// so they only work against a server sharing that key.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	jwttoken "credentia/internal/jwt_token"
	"credentia/internal/platform/config"
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	operatorCmd := flag.NewFlagSet("operator", flag.ExitOnError)
	operatorName := operatorCmd.String("name", "", "Operator name (token subject). Generated if empty.")
	operatorScopes := operatorCmd.String("scopes", strings.Join(jwttoken.AllScopes, ","), "Comma-separated scopes")
	operatorTTL := operatorCmd.Duration("ttl", 0, "Token time-to-live (defaults to CREDENTIA_TOKEN_TTL)")
	operatorJSON := operatorCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "operator":
		_ = operatorCmd.Parse(os.Args[2:])
		generateOperatorToken(*operatorName, *operatorScopes, *operatorTTL, *operatorJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate operator tokens for the credentia API

Signing key, issuer, and audience come from the CREDENTIA_JWT_* environment,
falling back to the server's development defaults.

Usage:
  tokengen <command> [flags]

Commands:
  operator  Generate an operator token (JWT)

Examples:
  # Full operator with every write scope
  tokengen operator -name registrar

  # Token that may only award diplomas, valid for one hour
  tokengen operator -name secretaria-bot -scopes diplomas:write -ttl 1h

  # Output as JSON
  tokengen operator -json

Use "tokengen <command> -h" for more information about a command.`)
}

func generateOperatorToken(name, scopes string, ttl time.Duration, jsonOutput bool) {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if ttl <= 0 {
		ttl = cfg.TokenTTL
	}
	if name == "" {
		name = "operator-" + uuid.NewString()
	}
	scopeList := parseScopes(scopes)

	svc := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience, ttl)
	svc.SetEnv(cfg.Environment)

	token, jti, err := svc.GenerateOperatorToken(context.Background(), name, scopeList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "operator_token",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"sub":   name,
				"scope": scopeList,
				"jti":   jti,
				"env":   cfg.Environment,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Println("Operator Token (JWT)")
	fmt.Println("====================")
	fmt.Printf("Operator:    %s\n", name)
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Printf("Scopes:      %v\n", scopeList)
	fmt.Printf("JTI:         %s\n", jti)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -X POST -H \"Authorization: Bearer <token>\" http://localhost:8080/wallet/connect")
}

func parseScopes(scopes string) []string {
	if scopes == "" {
		return []string{}
	}
	parts := strings.Split(scopes, ",")
	result := make([]string, 0, len(parts))
	for _, s := range parts {
		trimmed := strings.TrimSpace(s)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
