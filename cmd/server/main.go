// Command server is the kvsync process: a cobra-rooted binary with a
// serve subcommand that wires config, logging, a storage adapter, the
// service layer and the HTTP surface together, plus a healthcheck
// subcommand for operational scripting against a running instance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "kvsync-server",
	Short:   "kvsync-server - multi-tenant JSON key-value store over HTTP",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("kvsync-server version %s\nCommit: %s\n", Version, Commit))
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthcheckCmd)
}
