package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/afslabs/afs-chat/internal"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat history",
	Long: `List your chat history. While anonymous this shows local sessions from
the data directory; when logged in it shows your server conversations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		a.bootstrap()

		if !a.ctrl.Identity().Anonymous() {
			displayConversations(a.ctrl.Conversations())
			return nil
		}
		displaySessions(a.ctrl.Sessions())
		return nil
	},
}

func displaySessions(sessions []internal.LocalSession) {
	if len(sessions) == 0 {
		fmt.Println(headerStyle.Render("No local sessions found"))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Found %d local session(s)", len(sessions))))
	fmt.Println()

	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Turns")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = "Untitled"
		}
		if len(title) > 50 {
			title = title[:47] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(s.SessionID),
			title,
			countStyle.Render(strconv.Itoa(len(s.Turns))),
			dateStyle.Render(relativeDate(s.UpdatedAt)))
	}

	_ = w.Flush()
	fmt.Println()
	fmt.Println(idStyle.Render("Tip: use `afs-chat show <id>` to view a session"))
}

func displayConversations(convs []internal.ConversationSummary) {
	if len(convs) == 0 {
		fmt.Println(headerStyle.Render("No conversations found"))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Found %d conversation(s)", len(convs))))
	fmt.Println()

	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, c := range convs {
		title := c.Title
		if title == "" {
			title = "Untitled"
		}
		if len(title) > 50 {
			title = title[:47] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n",
			idStyle.Render(c.ID),
			title,
			dateStyle.Render(relativeDate(c.UpdatedAt)))
	}

	_ = w.Flush()
	fmt.Println()
	fmt.Println(idStyle.Render("Tip: use `afs-chat show <id>` to view a conversation"))
}

// relativeDate formats an RFC3339 timestamp the way the list is read: recent
// entries by weekday and time, older ones by date.
func relativeDate(stamp string) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		if len(stamp) >= 10 {
			return stamp[:10]
		}
		return "—"
	}

	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
