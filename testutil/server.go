package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeBackend is an httptest server that mimics the analytics backend:
// cookie-based sessions, a conversation directory, and the query and
// execute-sql endpoints. Responses are raw JSON so the fake stays decoupled
// from the client's wire types.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    map[string]string // username -> password
	loggedIn string            // username bound to the session cookie

	// ConversationsJSON is returned verbatim from GET /api/conversations/.
	ConversationsJSON string
	// MessagesJSON maps conversation id -> GET .../messages/ body.
	MessagesJSON map[string]string
	// QueryHandler, when set, overrides the default query response.
	QueryHandler func(body []byte) (status int, responseJSON string)
	// ExecHandler, when set, overrides the default execute-sql response.
	ExecHandler func(body []byte) (status int, responseJSON string)

	// Deleted records conversation ids removed via DELETE.
	Deleted []string
}

const sessionCookie = "afs_session"

// NewFakeBackend starts a fake backend with one registered user.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{
		users:             map[string]string{"alice": "secret"},
		ConversationsJSON: "[]",
		MessagesJSON:      map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me/", fb.handleMe)
	mux.HandleFunc("/api/auth/login/", fb.handleLogin)
	mux.HandleFunc("/api/auth/register/", fb.handleRegister)
	mux.HandleFunc("/api/auth/logout/", fb.handleLogout)
	mux.HandleFunc("/api/conversations/", fb.handleConversations)
	mux.HandleFunc("/api/query/", fb.handleQuery)
	mux.HandleFunc("/api/execute-sql/", fb.handleExecuteSQL)

	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the base URL of the fake backend.
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// AddUser registers an extra username/password pair.
func (fb *FakeBackend) AddUser(username, password string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.users[username] = password
}

// ForceLogin marks the session cookie as belonging to username without going
// through the login endpoint.
func (fb *FakeBackend) ForceLogin(username string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.loggedIn = username
}

// ExpireSession invalidates the current session, so the next authenticated
// call comes back 401.
func (fb *FakeBackend) ExpireSession() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.loggedIn = ""
}

func (fb *FakeBackend) authenticated(r *http.Request) (string, bool) {
	ck, err := r.Cookie(sessionCookie)
	if err != nil || ck.Value == "" {
		return "", false
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.loggedIn == "" {
		return "", false
	}
	return fb.loggedIn, true
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (fb *FakeBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := fb.authenticated(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, `{"detail": "Authentication credentials were not provided."}`)
		return
	}
	writeJSON(w, http.StatusOK, `{"username": "`+user+`"}`)
}

func (fb *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"detail": "malformed request"}`)
		return
	}

	fb.mu.Lock()
	password, known := fb.users[creds.Username]
	fb.mu.Unlock()

	if !known || password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, `{"detail": "Invalid credentials."}`)
		return
	}

	fb.mu.Lock()
	fb.loggedIn = creds.Username
	fb.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "session-" + creds.Username, Path: "/"})
	writeJSON(w, http.StatusOK, `{"username": "`+creds.Username+`"}`)
}

func (fb *FakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"detail": "malformed request"}`)
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if _, exists := fb.users[creds.Username]; exists {
		writeJSON(w, http.StatusBadRequest, `{"detail": "Username already taken."}`)
		return
	}
	fb.users[creds.Username] = creds.Password
	writeJSON(w, http.StatusCreated, `{"username": "`+creds.Username+`"}`)
}

func (fb *FakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	fb.loggedIn = ""
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, `{}`)
}

func (fb *FakeBackend) handleConversations(w http.ResponseWriter, r *http.Request) {
	if _, ok := fb.authenticated(r); !ok {
		writeJSON(w, http.StatusUnauthorized, `{"detail": "Authentication credentials were not provided."}`)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/conversations/")
	if rest == "" {
		writeJSON(w, http.StatusOK, fb.ConversationsJSON)
		return
	}

	if r.Method == http.MethodDelete {
		id := strings.TrimSuffix(rest, "/")
		fb.mu.Lock()
		fb.Deleted = append(fb.Deleted, id)
		fb.mu.Unlock()
		writeJSON(w, http.StatusNoContent, ``)
		return
	}

	if strings.HasSuffix(rest, "/messages/") {
		id := strings.TrimSuffix(rest, "/messages/")
		if body, ok := fb.MessagesJSON[id]; ok {
			writeJSON(w, http.StatusOK, body)
			return
		}
		writeJSON(w, http.StatusNotFound, `{"detail": "Not found."}`)
		return
	}

	writeJSON(w, http.StatusNotFound, `{"detail": "Not found."}`)
}

func (fb *FakeBackend) handleQuery(w http.ResponseWriter, r *http.Request) {
	body, _ := readBody(r)
	if fb.QueryHandler != nil {
		status, resp := fb.QueryHandler(body)
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, `{"success": true, "answer": "42", "sql": "SELECT 42", "rows": [{"n": 42}]}`)
}

func (fb *FakeBackend) handleExecuteSQL(w http.ResponseWriter, r *http.Request) {
	body, _ := readBody(r)
	if fb.ExecHandler != nil {
		status, resp := fb.ExecHandler(body)
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, `{"success": true, "sql": "SELECT 1", "rows": [{"n": 1}]}`)
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}
