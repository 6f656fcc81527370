// Command credentiactl inspects institutions and diplomas from the terminal.
// It is read-only and needs no wallet.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "credentiactl",
	Short: "credentiactl reads institutions and diplomas from the chain",
	Long: `credentiactl reads institutions and diplomas from the chain.

Connection settings come from the CREDENTIA_* environment (RPC_URL,
FACTORY_ADDRESS, IPFS_GATEWAY, ...); flags override them.`,
	SilenceUsage: true,
}

var (
	rpcURL      string
	factoryAddr string
	gatewayURL  string
	verbose     bool

	// exitCode lets a command report a negative result without an error.
	exitCode int
)

func main() {
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc-url", "", "chain JSON-RPC endpoint")
	rootCmd.PersistentFlags().StringVar(&factoryAddr, "factory", "", "Factory contract address")
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", "", "IPFS gateway base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log chain and metadata activity to stderr")

	rootCmd.AddCommand(institutionsCmd, diplomasCmd, verifyCmd, roleCmd, normalizeCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}
