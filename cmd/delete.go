package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session or conversation",
	Long: `Delete one chat. IDs starting with "local-" remove a local session from
the data directory; anything else deletes a server conversation (requires
login).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		a.bootstrap()

		if strings.HasPrefix(id, "local-") {
			if err := a.ctrl.DeleteLocalSession(id); err != nil {
				return err
			}
		} else {
			if err := a.ctrl.DeleteRemoteConversation(id); err != nil {
				return err
			}
		}

		fmt.Println(successStyle.Render("Deleted " + id))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
