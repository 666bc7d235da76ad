package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.ctrl.ProbeIdentity()

		id := a.ctrl.Identity()
		if id.Anonymous() {
			fmt.Println(idStyle.Render("anonymous"))
			return nil
		}
		fmt.Println(successStyle.Render(id.Username))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
