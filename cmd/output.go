package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/afslabs/afs-chat/internal"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)

	sqlBlockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))
)

// renderMarkdown renders assistant text through glamour, falling back to the
// raw text when the renderer is unavailable.
func renderMarkdown(content string) string {
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}

// printAnswer renders a resolved answer: the text, then the SQL, rows, and
// chart spec panels when requested and present.
func printAnswer(resp *internal.QueryResponse, showSQL, showRows bool) {
	fmt.Print(renderMarkdown(resp.Answer))

	if resp.UsedSample {
		fmt.Println(warningStyle.Render("(answered from sample data)"))
	}

	if showSQL && resp.SQL != "" {
		fmt.Println()
		fmt.Println(titleStyle.Render("SQL"))
		fmt.Println(sqlBlockStyle.Render(resp.SQL))
	}

	if showRows && len(resp.Rows) > 0 {
		fmt.Println()
		fmt.Println(titleStyle.Render(fmt.Sprintf("Results (%d rows)", len(resp.Rows))))
		fmt.Println(internal.RenderTable(resp.Rows))
	}

	if resp.ChartJSON != "" {
		fmt.Println()
		fmt.Println(titleStyle.Render("Chart spec"))
		fmt.Println(indentJSON(resp.ChartJSON))
	}
}

func indentJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		return raw
	}
	return buf.String()
}
