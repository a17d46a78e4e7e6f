package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	endpointFlag string
	keyFlag      string
	configFlag   string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docstore",
	Short: "Administer a document store account",
	Long: `docstore manages the databases, containers, and documents of a
document store account over its HTTP endpoint.

Connection settings come from flags, the DOCSTORE_ENDPOINT and
DOCSTORE_KEY environment variables, or a YAML config file, in that
precedence order.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "Store endpoint URL")
	rootCmd.PersistentFlags().StringVar(&keyFlag, "key", "", "Shared account key")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default ~/.docstore.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and dump failed exchanges")
}
