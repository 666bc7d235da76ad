package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/afslabs/afs-chat/internal"
)

var (
	askMode     string
	askChart    bool
	askShowSQL  bool
	askShowRows bool
	askSession  string
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot question",
	Long: `Ask a natural-language question about your financial data and print the
answer. Use --mode chart to request a chart specification alongside the
answer. While anonymous the exchange is appended to local history; when
logged in it continues (or starts) a server conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		a.bootstrap()

		mode := a.defaultMode()
		if askMode != "" {
			parsed, ok := internal.ParseQueryMode(askMode)
			if !ok {
				return fmt.Errorf("invalid mode %q (want ask, chart, or sql)", askMode)
			}
			mode = parsed
		}
		if askChart {
			mode = internal.ModeChart
		}
		if mode == internal.ModeSQL {
			return fmt.Errorf("use `afs-chat exec` for raw SQL")
		}

		if askSession != "" {
			if err := a.ctrl.LoadLocalSession(askSession); err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}
		}

		if err := a.ctrl.Ask(question, mode); err != nil {
			return err
		}

		resp := a.ctrl.Answer()
		if resp == nil {
			return fmt.Errorf("no answer received")
		}
		printAnswer(resp, askShowSQL, askShowRows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askMode, "mode", "m", "", "Query mode: ask or chart")
	askCmd.Flags().BoolVar(&askChart, "chart", false, "Request a chart specification (same as --mode chart)")
	askCmd.Flags().BoolVar(&askShowSQL, "sql", false, "Show the generated SQL")
	askCmd.Flags().BoolVar(&askShowRows, "rows", false, "Show the result rows")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "Continue an existing local session by ID")
}
