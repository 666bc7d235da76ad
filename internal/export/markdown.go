package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/afslabs/afs-chat/internal"
)

// MarkdownExporter exports sessions in Markdown format
type MarkdownExporter struct{}

// Export exports a session to Markdown format
func (e *MarkdownExporter) Export(session *internal.LocalSession, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# %s\n\n", session.Title)

	_, _ = fmt.Fprintf(w, "**Session:** %s  \n", session.SessionID)
	_, _ = fmt.Fprintf(w, "**Turns:** %d\n\n", len(session.Turns))

	if session.CreatedAt != "" {
		_, _ = fmt.Fprintf(w, "**Created:** %s  \n", session.CreatedAt)
	}
	if session.UpdatedAt != "" {
		_, _ = fmt.Fprintf(w, "**Updated:** %s\n\n", session.UpdatedAt)
	}

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, turn := range session.Turns {
		_, _ = fmt.Fprintf(w, "**user:**\n\n%s\n\n", escapeMarkdown(turn.Question))
		_, _ = fmt.Fprintf(w, "**assistant:**\n\n%s\n\n", escapeMarkdown(turn.Answer))

		if turn.SQL != "" {
			_, _ = fmt.Fprintf(w, "```sql\n%s\n```\n\n", turn.SQL)
		}
		if len(turn.Rows) > 0 {
			_, _ = fmt.Fprintf(w, "```\n%s\n```\n\n", internal.RenderTable(turn.Rows))
		}

		// Add horizontal rule after each turn (except the last one)
		if i < len(session.Turns)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
