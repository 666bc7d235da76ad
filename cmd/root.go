package cmd

import (
	"fmt"
	"os"

	"github.com/afslabs/afs-chat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	serverURL string
	dataDir   string
	version   string = "dev"
	commit    string = "unknown"
	date      string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "afs-chat",
	Short: "Chat with your financial data",
	Long: `A terminal client for the AFS financial question-answering service.

Ask natural-language questions about your finances, run raw SQL against the
read-only analytics schema, or request chart specifications. Conversations
are kept locally while you are anonymous and on the server once you log in.

Quick Start:
  afs-chat chat                         # Interactive chat session
  afs-chat ask "total spend in March"   # One-shot question
  afs-chat exec "SELECT * FROM txns"    # Raw SQL
  afs-chat login                        # Authenticate against the server

For detailed usage, see: https://github.com/afslabs/afs-chat`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Backend server URL (overrides config and AFS_CHAT_SERVER)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default ~/.afs-chat)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
