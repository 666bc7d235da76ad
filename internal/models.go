package internal

import (
	"encoding/json"
	"fmt"
)

// UserInfo is the authenticated user identity as reported by the backend.
type UserInfo struct {
	Username string `json:"username"`
}

// ConversationSummary is one entry of the server-side conversation directory.
type ConversationSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UpdatedAt string `json:"updated_at"`
}

// MessageMetadata holds optional per-message extras from the server.
type MessageMetadata struct {
	ChartJSON string `json:"chart_json,omitempty"`
}

// WireMessage is one message of a remote conversation as serialized by the
// backend.
type WireMessage struct {
	ID         json.Number      `json:"id"`
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	SQL        string           `json:"sql,omitempty"`
	UsedSample bool             `json:"used_sample,omitempty"`
	Error      string           `json:"error,omitempty"`
	Rows       []Row            `json:"rows,omitempty"`
	Metadata   *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt  string           `json:"created_at,omitempty"`
}

// ConversationDetail is the full message history of one remote conversation.
type ConversationDetail struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Messages []WireMessage `json:"messages"`
}

// QueryRequest is the body of POST /api/query/.
type QueryRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
	ForceChart     bool   `json:"force_chart,omitempty"`
}

// QueryResponse is the body returned by POST /api/query/.
type QueryResponse struct {
	Success        bool    `json:"success"`
	Answer         string  `json:"answer"`
	SQL            string  `json:"sql"`
	UsedSample     bool    `json:"used_sample"`
	Error          string  `json:"error,omitempty"`
	Rows           []Row   `json:"rows"`
	ConversationID *string `json:"conversation_id"`
	ChartJSON      string  `json:"chart_json,omitempty"`
}

// ExecuteSQLRequest is the body of POST /api/execute-sql/.
type ExecuteSQLRequest struct {
	SQL string `json:"sql"`
}

// ExecuteSQLResponse is the body returned by POST /api/execute-sql/. On a SQL
// failure the backend still answers with this shape (empty rows, Error set).
type ExecuteSQLResponse struct {
	Success bool   `json:"success"`
	SQL     string `json:"sql"`
	Rows    []Row  `json:"rows"`
	Error   string `json:"error,omitempty"`
}

// RowCountSummary is the assistant text shown for a successful raw SQL
// execution.
func RowCountSummary(n int) string {
	if n == 1 {
		return "Query returned 1 row."
	}
	return fmt.Sprintf("Query returned %d rows.", n)
}

// askRequest builds the natural-language request shape.
func askRequest(question, conversationID string) *QueryRequest {
	return &QueryRequest{Question: question, ConversationID: conversationID}
}

// chartRequest builds the force-chart request shape.
func chartRequest(question, conversationID string) *QueryRequest {
	return &QueryRequest{Question: question, ConversationID: conversationID, ForceChart: true}
}

// sqlRequest builds the raw-execution request shape.
func sqlRequest(sql string) *ExecuteSQLRequest {
	return &ExecuteSQLRequest{SQL: sql}
}
