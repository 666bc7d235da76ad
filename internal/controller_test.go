package internal

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestController wires a controller to an httptest server and a temp
// store.
func newTestController(t *testing.T, handler http.HandlerFunc) (*Controller, *HistoryStore) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	history := NewHistoryStore(tempKV(t))
	return NewController(client, history), history
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func stubClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

// ---------------------------------------------------------------------------
// Ask lifecycle, anonymous
// ---------------------------------------------------------------------------

func TestAskAnonymousCreatesLocalSession(t *testing.T) {
	ctrl, history := newTestController(t, jsonHandler(200,
		`{"success": true, "answer": "You spent $1,204.", "sql": "SELECT SUM(amount) FROM txns", "rows": [{"sum": 1204}]}`))
	ctrl.SetClock(stubClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))

	if err := ctrl.Ask("Total spend in March", ModeAsk); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	// Lazy session: created on the first successful answer, titled with the
	// verbatim question
	sessions := ctrl.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("Sessions() = %d, want 1", len(sessions))
	}
	if sessions[0].Title != "Total spend in March" {
		t.Errorf("Title = %q, want the question verbatim", sessions[0].Title)
	}
	if len(sessions[0].Turns) != 1 {
		t.Fatalf("Turns = %d, want 1", len(sessions[0].Turns))
	}

	// Active pointer now names the new session
	if !ctrl.Active().IsLocal() || ctrl.Active().ID() != sessions[0].SessionID {
		t.Errorf("Active() = %+v, want local ref to new session", ctrl.Active())
	}

	// Timeline holds the optimistic user turn plus the assistant answer
	timeline := ctrl.Timeline()
	if len(timeline) != 2 {
		t.Fatalf("Timeline() = %d messages, want 2", len(timeline))
	}
	if timeline[0].Role != RoleUser || timeline[0].Content != "Total spend in March" {
		t.Errorf("timeline[0] = %+v", timeline[0])
	}
	if timeline[1].Role != RoleAssistant || timeline[1].Content != "You spent $1,204." {
		t.Errorf("timeline[1] = %+v", timeline[1])
	}

	// Fresh answers default to chart open, SQL and table collapsed
	disc, ok := ctrl.DisclosureFor(timeline[1].ID)
	if !ok {
		t.Fatal("DisclosureFor() missing for new assistant message")
	}
	if disc.SQLOpen || disc.TableOpen || !disc.ChartOpen {
		t.Errorf("Disclosure = %+v, want chart only", disc)
	}

	// The store was persisted immediately
	persisted, err := history.Load()
	if err != nil || len(persisted) != 1 {
		t.Errorf("history.Load() = (%d, %v), want the new session on disk", len(persisted), err)
	}
}

func TestAskAnonymousAppendsToActiveSession(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{"success": true, "answer": "a", "rows": []}`))
	ctrl.SetClock(stubClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))

	if err := ctrl.Ask("first", ModeAsk); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	firstUpdated := ctrl.Sessions()[0].UpdatedAt

	if err := ctrl.Ask("second", ModeAsk); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	sessions := ctrl.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("Sessions() = %d, want the same session extended", len(sessions))
	}
	if len(sessions[0].Turns) != 2 {
		t.Errorf("Turns = %d, want 2", len(sessions[0].Turns))
	}
	if sessions[0].Title != "first" {
		t.Errorf("Title = %q, title is immutable after creation", sessions[0].Title)
	}
	if sessions[0].UpdatedAt <= firstUpdated {
		t.Errorf("UpdatedAt %q not after %q", sessions[0].UpdatedAt, firstUpdated)
	}
}

func TestBeginAskValidation(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))

	req, err := ctrl.BeginAsk("   ", ModeAsk)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("BeginAsk() error = %T, want ValidationError", err)
	}
	if req != nil {
		t.Error("BeginAsk() returned a request for blank input")
	}
	if len(ctrl.Timeline()) != 0 {
		t.Error("blank input must not touch the timeline")
	}
}

func TestBeginAskSendsQuestionVerbatim(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))

	// Validation trims, the wire payload does not
	req, err := ctrl.BeginAsk("  padded question  ", ModeAsk)
	if err != nil || req == nil {
		t.Fatalf("BeginAsk() = (%v, %v)", req, err)
	}
	if req.Question != "  padded question  " {
		t.Errorf("Question = %q, want verbatim input", req.Question)
	}
}

func TestBeginAskPendingGate(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))

	first, err := ctrl.BeginAsk("q1", ModeAsk)
	if err != nil || first == nil {
		t.Fatalf("BeginAsk() = (%v, %v)", first, err)
	}

	// Second submission while pending is a silent no-op
	second, err := ctrl.BeginAsk("q2", ModeAsk)
	if err != nil {
		t.Errorf("BeginAsk() while pending error = %v, want nil", err)
	}
	if second != nil {
		t.Error("BeginAsk() while pending returned a request")
	}
	if len(ctrl.Timeline()) != 1 {
		t.Errorf("Timeline() = %d, the gated submission must not append", len(ctrl.Timeline()))
	}

	// Resolution reopens the gate
	ctrl.ResolveAsk(first, &QueryResponse{Success: true, Answer: "a"}, nil)
	if ctrl.Pending() {
		t.Error("Pending() = true after resolve")
	}
	third, err := ctrl.BeginAsk("q3", ModeAsk)
	if err != nil || third == nil {
		t.Errorf("BeginAsk() after resolve = (%v, %v)", third, err)
	}
}

func TestBeginAskChartMode(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))

	req, err := ctrl.BeginAsk("plot spend", ModeChart)
	if err != nil || req == nil {
		t.Fatalf("BeginAsk() = (%v, %v)", req, err)
	}
	if !req.ForceChart {
		t.Error("ForceChart = false for chart mode")
	}
}

func TestResolveAskFailureKeepsUserTurn(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))

	req, _ := ctrl.BeginAsk("q", ModeAsk)
	ctrl.ResolveAsk(req, nil, &RequestError{Endpoint: "/api/query/", Status: 502, Body: "bad gateway"})

	if ctrl.Pending() {
		t.Error("Pending() = true after failed resolve")
	}
	if ctrl.LastError() == "" {
		t.Error("LastError() empty after failure")
	}

	// The user turn stays, paired with a synthetic assistant message
	timeline := ctrl.Timeline()
	if len(timeline) != 2 {
		t.Fatalf("Timeline() = %d messages, want user + error", len(timeline))
	}
	if timeline[1].Role != RoleAssistant {
		t.Errorf("timeline[1].Role = %q", timeline[1].Role)
	}

	// No session was created for the failed exchange
	if len(ctrl.Sessions()) != 0 {
		t.Error("failed ask must not create a local session")
	}
}

// ---------------------------------------------------------------------------
// Ask lifecycle, authenticated
// ---------------------------------------------------------------------------

func TestAskAuthenticatedAdoptsConversation(t *testing.T) {
	ctrl, history := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/query/":
			_, _ = w.Write([]byte(`{"success": true, "answer": "a", "rows": [], "conversation_id": "c-9"}`))
		case "/api/conversations/":
			_, _ = w.Write([]byte(`[{"id": "c-9", "title": "a", "updated_at": "2026-04-01T00:00:00Z"}]`))
		}
	})
	forceIdentity(ctrl, "alice")

	if err := ctrl.Ask("q", ModeAsk); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	// The server's conversation id is adopted as the active pointer
	if !ctrl.Active().IsRemote() || ctrl.Active().ID() != "c-9" {
		t.Errorf("Active() = %+v, want remote c-9", ctrl.Active())
	}

	// Authenticated answers never touch local history
	if len(ctrl.Sessions()) != 0 {
		t.Error("authenticated ask must not create local sessions")
	}
	persisted, _ := history.Load()
	if len(persisted) != 0 {
		t.Error("authenticated ask must not persist local history")
	}
}

func TestBeginAskCarriesConversationOnlyWhenRemoteActive(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))
	forceIdentity(ctrl, "alice")

	req, _ := ctrl.BeginAsk("q", ModeAsk)
	if req.ConversationID != "" {
		t.Errorf("ConversationID = %q with no active conversation, want empty", req.ConversationID)
	}
	ctrl.ResolveAsk(req, &QueryResponse{Success: true, Answer: "a"}, nil)

	ctrl.ApplyRemoteConversation(&ConversationDetail{ID: "c-1"})
	req, _ = ctrl.BeginAsk("q2", ModeAsk)
	if req.ConversationID != "c-1" {
		t.Errorf("ConversationID = %q, want active conversation id", req.ConversationID)
	}
}

// forceIdentity stubs an authenticated state without a network round-trip.
func forceIdentity(c *Controller, username string) {
	c.identity = Identity{Username: username}
}

// ---------------------------------------------------------------------------
// Raw SQL lifecycle
// ---------------------------------------------------------------------------

func TestExecuteSQLSuccess(t *testing.T) {
	ctrl, history := newTestController(t, jsonHandler(200,
		`{"success": true, "sql": "SELECT 1", "rows": [{"n": 1}]}`))

	if err := ctrl.ExecuteSQL("  SELECT 1  "); err != nil {
		t.Fatalf("ExecuteSQL() error = %v", err)
	}

	timeline := ctrl.Timeline()
	if len(timeline) != 2 {
		t.Fatalf("Timeline() = %d messages, want 2", len(timeline))
	}
	// The user message is the trimmed literal SQL
	if timeline[0].Content != "SELECT 1" {
		t.Errorf("user content = %q, want trimmed SQL", timeline[0].Content)
	}
	if timeline[1].Content != "Query returned 1 row." {
		t.Errorf("assistant content = %q", timeline[1].Content)
	}

	// Raw executions start with every panel open
	disc, ok := ctrl.DisclosureFor(timeline[1].ID)
	if !ok || !disc.SQLOpen || !disc.TableOpen || !disc.ChartOpen {
		t.Errorf("Disclosure = %+v, want all open", disc)
	}

	// Diagnostic path: nothing persisted, no session created
	if len(ctrl.Sessions()) != 0 {
		t.Error("raw SQL must not create sessions")
	}
	persisted, _ := history.Load()
	if len(persisted) != 0 {
		t.Error("raw SQL must not persist history")
	}
}

func TestExecuteSQLServerReportedFailure(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(500,
		`{"success": false, "sql": "SELEC 1", "rows": [], "error": "syntax error near SELEC"}`))

	if err := ctrl.ExecuteSQL("SELEC 1"); err != nil {
		t.Fatalf("ExecuteSQL() error = %v, server-reported failures resolve normally", err)
	}

	timeline := ctrl.Timeline()
	last := timeline[len(timeline)-1]
	if last.Content != "syntax error near SELEC" {
		t.Errorf("assistant content = %q, want the SQL error", last.Content)
	}
}

// ---------------------------------------------------------------------------
// Identity transitions
// ---------------------------------------------------------------------------

func TestLoginClearsLocalActivePointer(t *testing.T) {
	ctrl, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/query/":
			_, _ = w.Write([]byte(`{"success": true, "answer": "a", "rows": []}`))
		case "/api/auth/login/":
			_, _ = w.Write([]byte(`{"username": "alice"}`))
		case "/api/conversations/":
			_, _ = w.Write([]byte(`[]`))
		}
	})
	ctrl.SetClock(stubClock(time.Now()))

	// Build a local session while anonymous
	if err := ctrl.Ask("q", ModeAsk); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !ctrl.Active().IsLocal() {
		t.Fatal("precondition: active should be local")
	}

	if err := ctrl.Login("alice", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if ctrl.Identity().Username != "alice" {
		t.Errorf("Identity() = %+v", ctrl.Identity())
	}
	// The local pointer is cleared so the next answer cannot land in a local
	// session while authenticated
	if !ctrl.Active().IsNone() {
		t.Errorf("Active() = %+v, want cleared", ctrl.Active())
	}
	// Local sessions themselves are kept for the next logout
	if len(ctrl.Sessions()) != 1 {
		t.Errorf("Sessions() = %d, local history must survive login", len(ctrl.Sessions()))
	}
}

func TestLoginFailureKeepsIdentity(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(401, `{"detail": "Invalid credentials."}`))

	if err := ctrl.Login("alice", "wrong"); err == nil {
		t.Fatal("Login() error = nil for rejected credentials")
	}
	if !ctrl.Identity().Anonymous() {
		t.Error("identity changed on failed login")
	}
	if ctrl.AuthError() != "Invalid credentials." {
		t.Errorf("AuthError() = %q, want server detail", ctrl.AuthError())
	}
}

func TestLoginValidation(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))

	if err := ctrl.Login("  ", "pw"); err == nil {
		t.Error("Login() error = nil for blank username")
	}
	if err := ctrl.Login("alice", ""); err == nil {
		t.Error("Login() error = nil for empty password")
	}
	if ctrl.AuthError() == "" {
		t.Error("AuthError() empty after validation failure")
	}
}

func TestRegisterSuccessDoesNotAuthenticate(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(201, `{"username": "bob"}`))

	if err := ctrl.Register("bob", "secret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !ctrl.Identity().Anonymous() {
		t.Error("Register() must not authenticate")
	}
	if ctrl.AuthNotice() != "Registration successful, please log in." {
		t.Errorf("AuthNotice() = %q", ctrl.AuthNotice())
	}
}

func TestLogoutDropsToAnonymous(t *testing.T) {
	ctrl, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	forceIdentity(ctrl, "alice")
	ctrl.SetConversations([]ConversationSummary{{ID: "c-1", Title: "t"}})
	ctrl.ApplyRemoteConversation(&ConversationDetail{ID: "c-1", Messages: []WireMessage{
		{ID: "1", Role: RoleUser, Content: "q"},
	}})

	ctrl.Logout()

	if !ctrl.Identity().Anonymous() {
		t.Error("Identity() not anonymous after logout")
	}
	if len(ctrl.Conversations()) != 0 {
		t.Error("Conversations() not cleared")
	}
	if !ctrl.Active().IsNone() {
		t.Error("Active() not cleared")
	}
	if len(ctrl.Timeline()) != 0 {
		t.Error("Timeline() not cleared")
	}
	if ctrl.Answer() != nil {
		t.Error("Answer() not cleared")
	}
}

func TestLogoutSurvivesServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // unreachable

	client, _ := NewClient(srv.URL)
	ctrl := NewController(client, NewHistoryStore(tempKV(t)))
	forceIdentity(ctrl, "alice")

	ctrl.Logout()
	if !ctrl.Identity().Anonymous() {
		t.Error("Logout() must force anonymous even when the server is down")
	}
}

func TestSessionExpiryForcesAnonymous(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(401, `{"detail": "expired"}`))
	forceIdentity(ctrl, "alice")
	ctrl.SetConversations([]ConversationSummary{{ID: "c-1"}})

	err := ctrl.RefreshConversations()
	if err == nil {
		t.Fatal("RefreshConversations() error = nil for 401")
	}
	if !ctrl.Identity().Anonymous() {
		t.Error("expired session must drop the identity")
	}
	if len(ctrl.Conversations()) != 0 {
		t.Error("expired session must clear the directory")
	}
}

func TestSessionExpiryOnConversationLoadForcesAnonymous(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(401, `{"detail": "expired"}`))
	forceIdentity(ctrl, "alice")
	ctrl.SetConversations([]ConversationSummary{{ID: "c-1", Title: "spend"}})

	err := ctrl.LoadRemoteConversation("c-1")
	if err == nil {
		t.Fatal("LoadRemoteConversation() error = nil for 401")
	}
	if !ctrl.Identity().Anonymous() {
		t.Error("a 401 while loading a conversation must drop the identity")
	}
	if len(ctrl.Conversations()) != 0 {
		t.Error("a 401 while loading a conversation must clear the directory")
	}
	if !ctrl.Active().IsNone() {
		t.Errorf("Active() = %+v, want cleared", ctrl.Active())
	}
}

func TestHandleSessionExpired(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))
	forceIdentity(ctrl, "alice")
	ctrl.SetConversations([]ConversationSummary{{ID: "c-1"}})

	ctrl.HandleSessionExpired()

	if !ctrl.Identity().Anonymous() {
		t.Error("HandleSessionExpired() must drop the identity")
	}
	if len(ctrl.Conversations()) != 0 {
		t.Error("HandleSessionExpired() must clear the directory")
	}
}

// ---------------------------------------------------------------------------
// Session selection
// ---------------------------------------------------------------------------

func seedLocalSession(ctrl *Controller) string {
	id := "local-seed"
	ctrl.sessions = append(ctrl.sessions, LocalSession{
		SessionID: id,
		Title:     "seed question",
		Turns: []Turn{
			{Question: "seed question", Answer: "first answer", SQL: "SELECT 1", Rows: []Row{{"n": 1}}},
			{Question: "followup", Answer: "second answer"},
		},
		CreatedAt: "2026-03-01T10:00:00Z",
		UpdatedAt: "2026-03-01T10:01:00Z",
	})
	return id
}

func TestLoadLocalSessionOpensAllPanels(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))
	id := seedLocalSession(ctrl)

	if err := ctrl.LoadLocalSession(id); err != nil {
		t.Fatalf("LoadLocalSession() error = %v", err)
	}

	if !ctrl.Active().IsLocal() || ctrl.Active().ID() != id {
		t.Errorf("Active() = %+v", ctrl.Active())
	}

	timeline := ctrl.Timeline()
	if len(timeline) != 4 {
		t.Fatalf("Timeline() = %d messages, want 2 per turn", len(timeline))
	}

	// Loaded local sessions show everything
	for _, msg := range timeline {
		if msg.Role != RoleAssistant {
			continue
		}
		disc, ok := ctrl.DisclosureFor(msg.ID)
		if !ok || !disc.SQLOpen || !disc.TableOpen || !disc.ChartOpen {
			t.Errorf("Disclosure for %s = %+v, want all open", msg.ID, disc)
		}
	}

	// The answer summary reflects the last turn
	answer := ctrl.Answer()
	if answer == nil || answer.Answer != "second answer" {
		t.Errorf("Answer() = %+v, want the last turn", answer)
	}
	if answer.ConversationID == nil || *answer.ConversationID != id {
		t.Errorf("Answer().ConversationID = %v, want the session id", answer.ConversationID)
	}
}

func TestLoadLocalSessionUnknown(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))
	if err := ctrl.LoadLocalSession("local-nope"); err == nil {
		t.Error("LoadLocalSession() error = nil for unknown id")
	}
}

func TestApplyRemoteConversation(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))
	forceIdentity(ctrl, "alice")

	detail := &ConversationDetail{
		ID:    "c-1",
		Title: "Spending review",
		Messages: []WireMessage{
			{ID: "1", Role: RoleUser, Content: "Plot my spending"},
			{
				ID: "2", Role: RoleAssistant, Content: "Here it is.",
				SQL:      "SELECT month, SUM(amount) FROM txns GROUP BY month",
				Rows:     []Row{{"month": float64(1), "sum": float64(900)}},
				Metadata: &MessageMetadata{ChartJSON: `{"type": "bar"}`},
			},
		},
	}
	ctrl.ApplyRemoteConversation(detail)

	if !ctrl.Active().IsRemote() || ctrl.Active().ID() != "c-1" {
		t.Errorf("Active() = %+v", ctrl.Active())
	}

	timeline := ctrl.Timeline()
	if len(timeline) != 2 {
		t.Fatalf("Timeline() = %d messages, want 1:1 mapping", len(timeline))
	}

	// Remote loads collapse SQL and table, keep chart open
	disc, ok := ctrl.DisclosureFor("2")
	if !ok {
		t.Fatal("DisclosureFor(2) missing")
	}
	if disc.SQLOpen || disc.TableOpen || !disc.ChartOpen {
		t.Errorf("Disclosure = %+v, want chart only", disc)
	}

	if timeline[1].Answer == nil || timeline[1].Answer.ChartSpec != `{"type": "bar"}` {
		t.Errorf("chart spec not carried from metadata: %+v", timeline[1].Answer)
	}

	answer := ctrl.Answer()
	if answer == nil || answer.Answer != "Here it is." {
		t.Errorf("Answer() = %+v, want last assistant message", answer)
	}
}

func TestDeleteLocalSessionResetsActiveChat(t *testing.T) {
	ctrl, history := newTestController(t, jsonHandler(200, `{}`))
	id := seedLocalSession(ctrl)
	if err := ctrl.LoadLocalSession(id); err != nil {
		t.Fatalf("LoadLocalSession() error = %v", err)
	}

	if err := ctrl.DeleteLocalSession(id); err != nil {
		t.Fatalf("DeleteLocalSession() error = %v", err)
	}

	if len(ctrl.Sessions()) != 0 {
		t.Error("session not removed")
	}
	if !ctrl.Active().IsNone() {
		t.Error("deleting the viewed session must reset to a fresh chat")
	}
	if len(ctrl.Timeline()) != 0 {
		t.Error("timeline not cleared")
	}

	persisted, _ := history.Load()
	if len(persisted) != 0 {
		t.Error("deletion not persisted")
	}
}

func TestDeleteRemoteConversationClearsPointer(t *testing.T) {
	ctrl, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	forceIdentity(ctrl, "alice")
	ctrl.SetConversations([]ConversationSummary{{ID: "c-1"}, {ID: "c-2"}})
	ctrl.ApplyRemoteConversation(&ConversationDetail{ID: "c-1", Messages: []WireMessage{
		{ID: "1", Role: RoleAssistant, Content: "a"},
	}})

	if err := ctrl.DeleteRemoteConversation("c-1"); err != nil {
		t.Fatalf("DeleteRemoteConversation() error = %v", err)
	}

	if len(ctrl.Conversations()) != 1 || ctrl.Conversations()[0].ID != "c-2" {
		t.Errorf("Conversations() = %+v", ctrl.Conversations())
	}
	// Active conversation deleted: pointer and answer cleared, timeline kept
	// on screen until the next navigation
	if !ctrl.Active().IsNone() {
		t.Errorf("Active() = %+v, want cleared", ctrl.Active())
	}
	if ctrl.Answer() != nil {
		t.Error("Answer() not cleared")
	}
}

func TestNewChatClearsView(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{"success": true, "answer": "a", "rows": []}`))
	ctrl.SetClock(stubClock(time.Now()))

	if err := ctrl.Ask("q", ModeAsk); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	ctrl.NewChat()

	if !ctrl.Active().IsNone() || len(ctrl.Timeline()) != 0 || ctrl.Answer() != nil {
		t.Error("NewChat() must clear pointer, timeline, and answer")
	}
	// The stored session survives
	if len(ctrl.Sessions()) != 1 {
		t.Error("NewChat() must not touch stored sessions")
	}
}

// ---------------------------------------------------------------------------
// Disclosure
// ---------------------------------------------------------------------------

func TestToggleDisclosureIndependentFlags(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))
	req, _ := ctrl.BeginAsk("q", ModeAsk)
	ctrl.ResolveAsk(req, &QueryResponse{Success: true, Answer: "a", SQL: "SELECT 1", Rows: []Row{{"n": 1}}}, nil)

	id := ctrl.Timeline()[1].ID

	ctrl.ToggleDisclosure(id, PanelSQL)
	disc, _ := ctrl.DisclosureFor(id)
	if !disc.SQLOpen {
		t.Error("SQL panel did not open")
	}
	if disc.TableOpen || !disc.ChartOpen {
		t.Errorf("toggling SQL touched other flags: %+v", disc)
	}

	ctrl.ToggleDisclosure(id, PanelChart)
	disc, _ = ctrl.DisclosureFor(id)
	if disc.ChartOpen {
		t.Error("chart panel did not close")
	}
	if !disc.SQLOpen {
		t.Errorf("toggling chart touched SQL flag: %+v", disc)
	}
}

func TestToggleDisclosureUnknownID(t *testing.T) {
	ctrl, _ := newTestController(t, jsonHandler(200, `{}`))

	// No panic, no state created
	ctrl.ToggleDisclosure("nope", PanelSQL)
	if _, ok := ctrl.DisclosureFor("nope"); ok {
		t.Error("toggling an unknown id must not create disclosure state")
	}
}
