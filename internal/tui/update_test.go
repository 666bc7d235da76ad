package tui

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/afslabs/afs-chat/internal"
)

// newAuthedModel builds a model over a logged-in controller backed by a
// fake server. Flip expired to make every conversation endpoint answer 401.
func newAuthedModel(t *testing.T) (Model, *atomic.Bool) {
	t.Helper()

	var expired atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"username": "alice"}`))
	})
	mux.HandleFunc("/api/conversations/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if expired.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "expired"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"id": "c-1", "title": "spend", "updated_at": "2026-03-01T10:00:00Z"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := internal.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	kv, err := internal.OpenKVStore(filepath.Join(t.TempDir(), "afs.db"))
	if err != nil {
		t.Fatalf("OpenKVStore() error = %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	ctrl := internal.NewController(client, internal.NewHistoryStore(kv))
	if err := ctrl.Login("alice", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return New(ctrl, client, kv, internal.ModeAsk), &expired
}

func TestConversationRefreshExpiryDropsIdentity(t *testing.T) {
	m, expired := newAuthedModel(t)
	if len(m.ctrl.Conversations()) != 1 {
		t.Fatalf("Conversations() = %d, want 1 after login", len(m.ctrl.Conversations()))
	}
	expired.Store(true)

	msg := m.fetchConversationsCmd()()
	updated, _ := m.Update(msg)
	m = updated.(Model)

	if !m.ctrl.Identity().Anonymous() {
		t.Errorf("identity after 401 refresh = %q, want anonymous", m.ctrl.Identity().Username)
	}
	if len(m.ctrl.Conversations()) != 0 {
		t.Error("a 401 refresh must clear the conversation directory")
	}
	if len(m.history.Items()) != 0 {
		t.Errorf("history list still shows %d remote items after expiry", len(m.history.Items()))
	}
}

func TestConversationLoadExpiryDropsIdentity(t *testing.T) {
	m, expired := newAuthedModel(t)
	expired.Store(true)

	msg := m.fetchConversationCmd("c-1")()
	updated, _ := m.Update(msg)
	m = updated.(Model)

	if !m.ctrl.Identity().Anonymous() {
		t.Errorf("identity after 401 conversation load = %q, want anonymous", m.ctrl.Identity().Username)
	}
	if !m.ctrl.Active().IsNone() {
		t.Errorf("Active() = %+v, want cleared after expiry", m.ctrl.Active())
	}
}

func TestConversationLoadOtherErrorKeepsIdentity(t *testing.T) {
	m, _ := newAuthedModel(t)

	updated, _ := m.Update(conversationDetailMsg{err: &internal.RequestError{
		Endpoint: "/api/conversations/c-1/messages/", Status: 500, Body: "boom",
	}})
	m = updated.(Model)

	if m.ctrl.Identity().Anonymous() {
		t.Error("a non-auth failure must not drop the identity")
	}
}
