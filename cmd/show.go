package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/afslabs/afs-chat/internal"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session or conversation",
	Long: `Print the full content of one chat. IDs starting with "local-" are local
sessions; anything else is looked up as a server conversation (requires
login). Loaded local sessions show every panel; server conversations keep
the SQL and result panels collapsed unless --sql / --rows is given.`,
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
			if err := a.ctrl.LoadLocalSession(id); err != nil {
				return err
			}
		} else {
			if err := a.ctrl.LoadRemoteConversation(id); err != nil {
				return err
			}
		}

		printTimeline(a.ctrl, showSQL, showRows)
		return nil
	},
}

var (
	showSQL  bool
	showRows bool
)

// printTimeline renders the loaded timeline honoring per-message panel
// state. forceSQL/forceRows open the collapsed panels on demand.
func printTimeline(ctrl *internal.Controller, forceSQL, forceRows bool) {
	for _, msg := range ctrl.Timeline() {
		switch msg.Role {
		case internal.RoleUser:
			fmt.Println(titleStyle.Render("You"))
			fmt.Println(msg.Content)
		case internal.RoleAssistant:
			fmt.Println(infoStyle.Render("Assistant"))
			fmt.Print(renderMarkdown(msg.Content))
			printPanels(ctrl, msg, forceSQL, forceRows)
		}
		fmt.Println()
	}
}

func printPanels(ctrl *internal.Controller, msg internal.ChatMessage, forceSQL, forceRows bool) {
	if msg.Answer == nil {
		return
	}
	disc, ok := ctrl.DisclosureFor(msg.ID)
	if !ok {
		return
	}

	if msg.Answer.UsedSample {
		fmt.Println(warningStyle.Render("(answered from sample data)"))
	}

	if msg.Answer.SQL != "" && (disc.SQLOpen || forceSQL) {
		fmt.Println(titleStyle.Render("SQL"))
		fmt.Println(sqlBlockStyle.Render(msg.Answer.SQL))
	}
	if len(msg.Answer.Rows) > 0 && (disc.TableOpen || forceRows) {
		fmt.Println(titleStyle.Render(fmt.Sprintf("Results (%d rows)", len(msg.Answer.Rows))))
		fmt.Println(internal.RenderTable(msg.Answer.Rows))
	}
	if msg.Answer.ChartSpec != "" && disc.ChartOpen {
		fmt.Println(titleStyle.Render("Chart spec"))
		fmt.Println(indentJSON(msg.Answer.ChartSpec))
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showSQL, "sql", false, "Show collapsed SQL panels")
	showCmd.Flags().BoolVar(&showRows, "rows", false, "Show collapsed result panels")
}
