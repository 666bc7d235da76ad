package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	registerUsername string
	registerPassword string
)

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Long: `Create an account on the backend server. Registration does not log you
in; run ` + "`afs-chat login`" + ` afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, password, err := credentials(registerUsername, registerPassword)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ctrl.Register(username, password); err != nil {
			return fmt.Errorf("%s", a.ctrl.AuthError())
		}

		fmt.Println(successStyle.Render(a.ctrl.AuthNotice()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Username (prompted if omitted)")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Password (prompted if omitted)")
}
