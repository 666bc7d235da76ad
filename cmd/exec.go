package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/afslabs/afs-chat/internal"
)

// execCmd represents the exec command
var execCmd = &cobra.Command{
	Use:   "exec <sql>",
	Short: "Run raw SQL against the analytics schema",
	Long: `Execute a SQL statement verbatim against the read-only analytics schema
and print the result rows. Raw executions are diagnostic: they are never
recorded in local history or server conversations.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sqlText := strings.Join(args, " ")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		a.bootstrap()

		if err := a.ctrl.ExecuteSQL(sqlText); err != nil {
			return err
		}

		timeline := a.ctrl.Timeline()
		if len(timeline) == 0 {
			return fmt.Errorf("no result received")
		}
		last := timeline[len(timeline)-1]

		fmt.Println(last.Content)
		if last.Answer != nil && len(last.Answer.Rows) > 0 {
			fmt.Println()
			fmt.Println(internal.RenderTable(last.Answer.Rows))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
