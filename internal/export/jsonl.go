package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/afslabs/afs-chat/internal"
)

// JSONLExporter exports sessions in JSONL format (one turn per line)
type JSONLExporter struct{}

// Export exports a session to JSONL format
func (e *JSONLExporter) Export(session *internal.LocalSession, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, turn := range session.Turns {
		obj := map[string]interface{}{
			"session_id": session.SessionID,
			"question":   turn.Question,
			"answer":     turn.Answer,
		}

		if turn.SQL != "" {
			obj["sql"] = turn.SQL
		}
		if len(turn.Rows) > 0 {
			obj["rows"] = turn.Rows
		}

		// Encode to single line
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode turn: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
