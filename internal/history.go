package internal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HistoryKey is the single kv entry holding the JSON-serialized array of
// local sessions.
const HistoryKey = "afs:history"

// HistoryStore persists anonymous chat sessions in the kv store. The whole
// history lives under one key; the legacy flat-turn schema is migrated here
// so nothing above this layer ever sees the old shape.
type HistoryStore struct {
	kv *KVStore
}

// NewHistoryStore creates a history store over kv.
func NewHistoryStore(kv *KVStore) *HistoryStore {
	return &HistoryStore{kv: kv}
}

// legacyTurn is the pre-session schema: one flat turn per entry, with an
// optional server conversation id from an even older sync experiment.
type legacyTurn struct {
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	SQL            string `json:"sql"`
	Rows           []Row  `json:"rows"`
	ConversationID string `json:"conversationId"`
}

// Load returns all local sessions. Malformed JSON falls back to an empty
// history; a legacy flat-turn array is migrated to one-turn sessions.
func (h *HistoryStore) Load() ([]LocalSession, error) {
	raw, ok, err := h.kv.Get(HistoryKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var sessions []LocalSession
	if err := json.Unmarshal([]byte(raw), &sessions); err == nil && !looksLegacy(raw) {
		return sessions, nil
	}

	if migrated, ok := migrateLegacy(raw); ok {
		LogInfo("Migrated %d legacy history entr(ies) to session format", len(migrated))
		return migrated, nil
	}

	LogWarn("Local history is malformed, starting with empty history")
	return nil, nil
}

// Save replaces the stored history with sessions.
func (h *HistoryStore) Save(sessions []LocalSession) error {
	if sessions == nil {
		sessions = []LocalSession{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return &StorageError{Op: "set", Key: HistoryKey, Err: err}
	}
	return h.kv.Set(HistoryKey, string(data))
}

// looksLegacy reports whether the raw JSON is a non-empty array whose first
// element is a flat turn (has "question", lacks "sessionId").
func looksLegacy(raw string) bool {
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return false
	}
	if len(probe) == 0 {
		return false
	}
	_, hasQuestion := probe[0]["question"]
	_, hasSessionID := probe[0]["sessionId"]
	return hasQuestion && !hasSessionID
}

// migrateLegacy converts a legacy flat-turn array into one-turn sessions.
// The session id is derived from the turn's prior conversation id when
// present, freshly generated otherwise.
func migrateLegacy(raw string) ([]LocalSession, bool) {
	var turns []legacyTurn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, false
	}
	if len(turns) == 0 || turns[0].Question == "" {
		return nil, false
	}

	now := time.Now().Format(time.RFC3339Nano)
	sessions := make([]LocalSession, 0, len(turns))
	for _, t := range turns {
		id := t.ConversationID
		if id == "" {
			id = NewLocalSessionID()
		}
		sessions = append(sessions, LocalSession{
			SessionID: id,
			Title:     t.Question,
			Turns:     []Turn{{Question: t.Question, Answer: t.Answer, SQL: t.SQL, Rows: t.Rows}},
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return sessions, true
}

// NewLocalSessionID generates an opaque client-side session id.
func NewLocalSessionID() string {
	return "local-" + uuid.NewString()
}
