package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginUsername string
	loginPassword string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the server",
	Long: `Authenticate against the backend server. The session cookie is stored in
the local data directory, so you stay logged in across runs. Local history
is kept but hidden while authenticated; it reappears when you log out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, password, err := credentials(loginUsername, loginPassword)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ctrl.Login(username, password); err != nil {
			return fmt.Errorf("%s", a.ctrl.AuthError())
		}
		a.saveCookies()

		fmt.Println(successStyle.Render("Logged in as " + a.ctrl.Identity().Username))
		return nil
	},
}

// credentials returns the username/password from flags, prompting for
// whichever is missing.
func credentials(username, password string) (string, string, error) {
	if username == "" {
		fmt.Print("Username: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	if password == "" {
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	return username, password, nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted if omitted)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted if omitted)")
}
