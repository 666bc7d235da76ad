package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afslabs/afs-chat/internal"
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check local storage and server reachability",
	Long: `Check the health of afs-chat by verifying:
  • Data directory and local store access
  • Local session history
  • Server reachability and authentication state

Useful for debugging connection or storage issues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(sectionStyle.Render("afs-chat health check"))
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 1: Resolving data directory..."))
		paths, err := internal.ResolvePaths(dataDir)
		if err != nil {
			fmt.Println(errStyle.Render("Failed to resolve data directory:"), err)
			return err
		}
		fmt.Println(successStyle.Render("Data directory: " + paths.DataDir))
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 2: Opening local store..."))
		kv, err := internal.OpenKVStore(paths.StoreFile)
		if err != nil {
			fmt.Println(errStyle.Render("Failed to open local store:"), err)
			return err
		}
		defer func() { _ = kv.Close() }()
		fmt.Println(successStyle.Render("Local store OK: " + paths.StoreFile))

		history := internal.NewHistoryStore(kv)
		sessions, err := history.Load()
		if err != nil {
			fmt.Println(warningStyle.Render("Local history unreadable:"), err)
		} else {
			fmt.Println(successStyle.Render(fmt.Sprintf("Local history: %d session(s)", len(sessions))))
		}
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 3: Checking server..."))
		cfg, err := internal.LoadConfig(paths, serverURL)
		if err != nil {
			fmt.Println(errStyle.Render("Failed to load config:"), err)
			return err
		}
		fmt.Println(infoStyle.Render("Server URL: " + cfg.ServerURL))

		client, err := internal.NewClient(cfg.ServerURL)
		if err != nil {
			fmt.Println(errStyle.Render("Invalid server URL:"), err)
			return err
		}
		if err := client.LoadCookies(kv); err != nil {
			fmt.Println(warningStyle.Render("Could not restore session cookies:"), err)
		}

		user, err := client.Me()
		switch {
		case err == nil:
			fmt.Println(successStyle.Render("Server reachable, logged in as " + user.Username))
		case internal.IsSessionExpired(err):
			fmt.Println(successStyle.Render("Server reachable, not logged in"))
		default:
			fmt.Println(errStyle.Render("Server unreachable:"), err)
			return fmt.Errorf("health check failed: server unreachable")
		}

		fmt.Println()
		fmt.Println(successStyle.Render("Health check passed"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
