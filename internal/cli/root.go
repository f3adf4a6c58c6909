// Package cli wires configuration, storage, and services into the
// akuntansid multi-command binary. Each platform service runs as its
// own subcommand so a deployment can supervise them independently.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/saldo-labs/akuntansid/internal/server"
)

// Version is stamped by the build; the default marks development builds.
var Version = "0.1.0-dev"

var (
	// Global flags
	configFile string
	debug      bool
	verbose    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "akuntansid",
	Short: "akuntansid - Indonesian accounting platform",
	Long: `akuntansid runs the services of a multi-tenant Indonesian accounting
platform: an API gateway, authentication, chart of accounts, general
ledger, payables, receivables, tax, and financial reporting. Each
service is a subcommand and is configured via environment variables
or an optional TOML file (--conf).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the selected subcommand and maps failures to exit codes:
// 1 for configuration or startup errors, 2 when the listen address
// cannot be bound.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if server.IsBindError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadDotEnv)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}

// loadDotEnv loads a .env file when one exists in the working directory.
// Real deployments set the environment directly; the file is a local
// development convenience.
func loadDotEnv() {
	_ = godotenv.Load()
}
