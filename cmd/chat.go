package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/afslabs/afs-chat/internal"
	"github.com/afslabs/afs-chat/internal/tui"
)

var chatMode string

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start the interactive terminal interface.

Inside the interface:
  enter        send the input in the current mode
  tab          cycle mode (ask -> chart -> sql)
  ctrl+n       start a new chat
  ctrl+o       browse chat history
  ctrl+l       log in (or log out when authenticated)
  ctrl+r       register a new account
  f3/f4/f5     toggle the SQL / table / chart panels of the last answer`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		mode := a.defaultMode()
		if chatMode != "" {
			parsed, ok := internal.ParseQueryMode(chatMode)
			if !ok {
				return fmt.Errorf("invalid mode %q (want ask, chart, or sql)", chatMode)
			}
			mode = parsed
		}

		model := tui.New(a.ctrl, a.client, a.kv, mode)
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("chat interface failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatMode, "mode", "m", "", "Initial query mode: ask, chart, or sql")
}
