package internal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Identity is the current authentication state. The zero value is anonymous.
// It is never persisted; the server session cookie is the only durable
// credential.
type Identity struct {
	Username string
}

// Anonymous reports whether no user is authenticated.
func (id Identity) Anonymous() bool {
	return id.Username == ""
}

// Controller is the conversation state machine. It owns the identity, the
// active-session pointer, the message timeline with per-message disclosure
// state, the local session store cache, and the remote conversation
// directory, and it keeps them consistent across identity changes and the
// three query modes.
//
// The controller is single-goroutine: callers serialize all access (the TUI
// routes everything through its update loop, CLI commands run sequentially).
// Network submission is split into Begin*/Resolve* pairs so a driver can run
// the HTTP call elsewhere while the pending flag gates re-entry; the
// composed Ask/ExecuteSQL wrappers do both phases inline.
type Controller struct {
	client  *Client
	history *HistoryStore

	now func() time.Time

	identity   Identity
	active     SessionRef
	timeline   []ChatMessage
	disclosure map[string]Disclosure

	sessions      []LocalSession
	conversations []ConversationSummary

	answer     *QueryResponse
	pending    bool
	lastError  string
	authError  string
	authNotice string

	seq int
}

// NewController creates a controller over the given client and history
// store. Call Bootstrap before use.
func NewController(client *Client, history *HistoryStore) *Controller {
	return &Controller{
		client:     client,
		history:    history,
		now:        time.Now,
		disclosure: make(map[string]Disclosure),
	}
}

// Bootstrap loads local history and probes the server for an existing
// session. Neither failure is fatal: history falls back to empty, identity
// to anonymous.
func (c *Controller) Bootstrap() {
	sessions, err := c.history.Load()
	if err != nil {
		LogWarn("Failed to load local history: %v", err)
	} else {
		c.sessions = sessions
	}

	c.ProbeIdentity()
	if !c.identity.Anonymous() {
		if err := c.RefreshConversations(); err != nil {
			LogWarn("Failed to load conversations: %v", err)
		}
	}
}

// ProbeIdentity asks the server who we are. Any failure, including
// unauthorized, leaves the identity anonymous and never propagates.
func (c *Controller) ProbeIdentity() {
	user, err := c.client.Me()
	if err != nil {
		LogDebug("Identity probe failed: %v", err)
		c.identity = Identity{}
		return
	}
	c.identity = Identity{Username: user.Username}
}

// =============================================================================
// IDENTITY TRANSITIONS
// =============================================================================

// Login authenticates and reconciles session state for the
// anonymous-to-authenticated transition: the local half of the active
// pointer is cleared and the conversation directory refreshed. On failure
// the identity is untouched and the error text is kept for display.
func (c *Controller) Login(username, password string) error {
	c.authError = ""
	c.authNotice = ""

	if strings.TrimSpace(username) == "" || password == "" {
		err := &ValidationError{Field: "credentials", Reason: "username and password are required"}
		c.authError = err.Error()
		return err
	}

	user, err := c.client.Login(username, password)
	if err != nil {
		c.authError = authMessage(err)
		return err
	}

	c.identity = Identity{Username: user.Username}
	if c.active.IsLocal() {
		c.active = NoRef()
	}
	if err := c.RefreshConversations(); err != nil {
		LogWarn("Failed to refresh conversations after login: %v", err)
	}
	return nil
}

// Register creates an account. Success does not authenticate: it records a
// notice so the UI can switch to the login form pre-filled with the
// username.
func (c *Controller) Register(username, password string) error {
	c.authError = ""
	c.authNotice = ""

	if strings.TrimSpace(username) == "" || password == "" {
		err := &ValidationError{Field: "credentials", Reason: "username and password are required"}
		c.authError = err.Error()
		return err
	}

	if err := c.client.Register(username, password); err != nil {
		c.authError = authMessage(err)
		return err
	}

	c.authNotice = "Registration successful, please log in."
	return nil
}

// Logout notifies the server best-effort and unconditionally drops to
// anonymous, clearing the conversation directory, the active pointer, and
// the timeline.
func (c *Controller) Logout() {
	if err := c.client.Logout(); err != nil {
		LogWarn("Logout notification failed: %v", err)
	}
	c.forceAnonymous()
}

// HandleSessionExpired applies the authenticated-to-anonymous
// reconciliation for callers that observe an expired session outside the
// controller's own request paths, such as a fetch resolved off the update
// loop.
func (c *Controller) HandleSessionExpired() {
	c.forceAnonymous()
}

// forceAnonymous is the authenticated-to-anonymous reconciliation, used by
// logout and by session expiry.
func (c *Controller) forceAnonymous() {
	c.identity = Identity{}
	c.conversations = nil
	c.active = NoRef()
	c.timeline = nil
	c.disclosure = make(map[string]Disclosure)
	c.answer = nil
}

func authMessage(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Detail
	}
	return err.Error()
}

// =============================================================================
// SESSION SELECTION
// =============================================================================

// NewChat clears the active pointer, the timeline, and all disclosure
// state.
func (c *Controller) NewChat() {
	c.active = NoRef()
	c.timeline = nil
	c.disclosure = make(map[string]Disclosure)
	c.answer = nil
	c.lastError = ""
}

// LoadLocalSession rebuilds the timeline from a stored local session: one
// user+assistant pair per turn, every panel open, answer summary set to the
// last turn.
func (c *Controller) LoadLocalSession(id string) error {
	session := c.findSession(id)
	if session == nil {
		return fmt.Errorf("unknown local session %q", id)
	}

	c.active = LocalRef(id)
	c.timeline = nil
	c.disclosure = make(map[string]Disclosure)
	c.lastError = ""

	for i, turn := range session.Turns {
		c.timeline = append(c.timeline, ChatMessage{
			ID:      fmt.Sprintf("local-user-%d", i),
			Role:    RoleUser,
			Content: turn.Question,
		})
		assistantID := fmt.Sprintf("local-assistant-%d", i)
		c.timeline = append(c.timeline, ChatMessage{
			ID:      assistantID,
			Role:    RoleAssistant,
			Content: turn.Answer,
			Answer:  &AnswerPayload{SQL: turn.SQL, Rows: turn.Rows},
		})
		c.disclosure[assistantID] = Disclosure{SQLOpen: true, TableOpen: true, ChartOpen: true}
	}

	if n := len(session.Turns); n > 0 {
		last := session.Turns[n-1]
		sessionID := session.SessionID
		c.answer = &QueryResponse{
			Success:        true,
			Answer:         last.Answer,
			SQL:            last.SQL,
			Rows:           last.Rows,
			ConversationID: &sessionID,
		}
	} else {
		c.answer = nil
	}
	return nil
}

// LoadRemoteConversation fetches a conversation and replaces the timeline
// with its messages 1:1. An unauthorized response means the cookie expired,
// which forces the identity back to anonymous.
func (c *Controller) LoadRemoteConversation(id string) error {
	detail, err := c.client.ConversationMessages(id)
	if err != nil {
		var expired *SessionExpiredError
		if errors.As(err, &expired) {
			c.forceAnonymous()
		}
		return err
	}

	c.ApplyRemoteConversation(detail)
	return nil
}

// ApplyRemoteConversation installs an already fetched conversation detail.
// Split out so the TUI can fetch off the update loop and apply on it.
func (c *Controller) ApplyRemoteConversation(detail *ConversationDetail) {
	c.timeline = nil
	c.disclosure = make(map[string]Disclosure)
	c.lastError = ""

	var lastAssistant *WireMessage
	for i := range detail.Messages {
		wire := detail.Messages[i]
		msg := ChatMessage{
			ID:      wire.ID.String(),
			Role:    wire.Role,
			Content: wire.Content,
		}
		if wire.Role == RoleAssistant {
			payload := &AnswerPayload{
				SQL:        wire.SQL,
				Rows:       wire.Rows,
				UsedSample: wire.UsedSample,
			}
			if wire.Metadata != nil {
				payload.ChartSpec = wire.Metadata.ChartJSON
			}
			msg.Answer = payload
			c.disclosure[msg.ID] = Disclosure{ChartOpen: true}
			lastAssistant = &detail.Messages[i]
		}
		c.timeline = append(c.timeline, msg)
	}

	if lastAssistant != nil {
		convID := detail.ID
		c.answer = &QueryResponse{
			Success:        lastAssistant.Error == "",
			Answer:         lastAssistant.Content,
			SQL:            lastAssistant.SQL,
			UsedSample:     lastAssistant.UsedSample,
			Error:          lastAssistant.Error,
			Rows:           lastAssistant.Rows,
			ConversationID: &convID,
		}
	} else {
		c.answer = nil
	}

	c.active = RemoteRef(detail.ID)
}

// DeleteLocalSession removes a session from the local store. Deleting the
// one being viewed resets to a fresh chat.
func (c *Controller) DeleteLocalSession(id string) error {
	kept := c.sessions[:0]
	found := false
	for _, s := range c.sessions {
		if s.SessionID == id {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	if !found {
		return fmt.Errorf("unknown local session %q", id)
	}
	c.sessions = kept

	if err := c.history.Save(c.sessions); err != nil {
		return err
	}
	if c.active.IsLocal() && c.active.ID() == id {
		c.NewChat()
	}
	return nil
}

// DeleteRemoteConversation deletes a conversation server-side and drops it
// from the directory. Deleting the active conversation clears both the
// pointer and the answer summary.
func (c *Controller) DeleteRemoteConversation(id string) error {
	if err := c.client.DeleteConversation(id); err != nil {
		var expired *SessionExpiredError
		if errors.As(err, &expired) {
			c.forceAnonymous()
		}
		return err
	}

	kept := c.conversations[:0]
	for _, conv := range c.conversations {
		if conv.ID != id {
			kept = append(kept, conv)
		}
	}
	c.conversations = kept

	if c.active.IsRemote() && c.active.ID() == id {
		c.active = NoRef()
		c.answer = nil
	}
	return nil
}

// RefreshConversations reloads the remote directory. A no-op when
// anonymous; expiry drops to anonymous.
func (c *Controller) RefreshConversations() error {
	if c.identity.Anonymous() {
		return nil
	}
	list, err := c.client.Conversations()
	if err != nil {
		var expired *SessionExpiredError
		if errors.As(err, &expired) {
			c.forceAnonymous()
		}
		return err
	}
	c.conversations = list
	return nil
}

// SetConversations installs a directory fetched by the driver.
func (c *Controller) SetConversations(list []ConversationSummary) {
	c.conversations = list
}

func (c *Controller) findSession(id string) *LocalSession {
	for i := range c.sessions {
		if c.sessions[i].SessionID == id {
			return &c.sessions[i]
		}
	}
	return nil
}

// =============================================================================
// QUERY DISPATCH
// =============================================================================

// BeginAsk validates and optimistically appends the user message, then
// returns the request to send. A nil request with nil error means the
// submission was a no-op because another request is pending.
func (c *Controller) BeginAsk(question string, mode QueryMode) (*QueryRequest, error) {
	if strings.TrimSpace(question) == "" {
		return nil, &ValidationError{Field: "question", Reason: "must not be empty"}
	}
	if c.pending {
		return nil, nil
	}

	c.pending = true
	c.lastError = ""
	c.appendMessage(ChatMessage{Role: RoleUser, Content: question})

	conversationID := ""
	if !c.identity.Anonymous() && c.active.IsRemote() {
		conversationID = c.active.ID()
	}

	if mode == ModeChart {
		return chartRequest(question, conversationID), nil
	}
	return askRequest(question, conversationID), nil
}

// ResolveAsk applies the outcome of a question. On success the assistant
// message is appended with its chart panel open and SQL/table collapsed,
// then the answer is routed to the store the identity owns: the server
// conversation id is adopted for authenticated users, a local session is
// created or extended for anonymous ones. On failure the error lands both
// in the banner and as a synthetic assistant message so the user turn is
// never silently dropped.
func (c *Controller) ResolveAsk(req *QueryRequest, resp *QueryResponse, err error) {
	c.pending = false
	if err != nil {
		c.failTimeline(err)
		return
	}

	c.answer = resp
	msg := ChatMessage{
		Role:    RoleAssistant,
		Content: resp.Answer,
		Answer: &AnswerPayload{
			SQL:        resp.SQL,
			Rows:       resp.Rows,
			UsedSample: resp.UsedSample,
			ChartSpec:  resp.ChartJSON,
		},
	}
	id := c.appendMessage(msg)
	c.disclosure[id] = Disclosure{ChartOpen: true}

	if !c.identity.Anonymous() {
		if resp.ConversationID != nil && *resp.ConversationID != "" {
			c.active = RemoteRef(*resp.ConversationID)
		}
		return
	}

	c.recordLocalTurn(Turn{
		Question: req.Question,
		Answer:   resp.Answer,
		SQL:      resp.SQL,
		Rows:     resp.Rows,
	})
}

// recordLocalTurn appends the turn to the active local session, creating
// one lazily (titled with the verbatim question) when none is active, and
// persists the store immediately so memory and disk never diverge between
// user actions.
func (c *Controller) recordLocalTurn(turn Turn) {
	now := c.now().Format(time.RFC3339Nano)

	if c.active.IsLocal() {
		if session := c.findSession(c.active.ID()); session != nil {
			session.Turns = append(session.Turns, turn)
			session.UpdatedAt = now
			if err := c.history.Save(c.sessions); err != nil {
				LogWarn("Failed to persist local history: %v", err)
			}
			return
		}
		LogWarn("Active local session %q missing from store, creating a new one", c.active.ID())
	}

	id := NewLocalSessionID()
	c.sessions = append(c.sessions, LocalSession{
		SessionID: id,
		Title:     turn.Question,
		Turns:     []Turn{turn},
		CreatedAt: now,
		UpdatedAt: now,
	})
	c.active = LocalRef(id)
	if err := c.history.Save(c.sessions); err != nil {
		LogWarn("Failed to persist local history: %v", err)
	}
}

// BeginExecuteSQL validates and optimistically appends the literal SQL as a
// user message. Same pending no-op contract as BeginAsk.
func (c *Controller) BeginExecuteSQL(sqlText string) (*ExecuteSQLRequest, error) {
	s := strings.TrimSpace(sqlText)
	if s == "" {
		return nil, &ValidationError{Field: "sql", Reason: "must not be empty"}
	}
	if c.pending {
		return nil, nil
	}

	c.pending = true
	c.lastError = ""
	c.appendMessage(ChatMessage{Role: RoleUser, Content: s})
	return sqlRequest(s), nil
}

// ResolveExecuteSQL applies a raw-execution result. Raw SQL is diagnostic:
// every panel starts open, and this path never touches session or
// conversation persistence.
func (c *Controller) ResolveExecuteSQL(req *ExecuteSQLRequest, resp *ExecuteSQLResponse, err error) {
	c.pending = false
	if err != nil {
		c.failTimeline(err)
		return
	}

	content := RowCountSummary(len(resp.Rows))
	if !resp.Success {
		content = resp.Error
	}

	msg := ChatMessage{
		Role:    RoleAssistant,
		Content: content,
		Answer:  &AnswerPayload{SQL: resp.SQL, Rows: resp.Rows},
	}
	id := c.appendMessage(msg)
	c.disclosure[id] = Disclosure{SQLOpen: true, TableOpen: true, ChartOpen: true}
}

// failTimeline records a request failure as both the error banner and a
// synthetic assistant message paired with the optimistic user turn.
func (c *Controller) failTimeline(err error) {
	c.lastError = err.Error()
	c.appendMessage(ChatMessage{Role: RoleAssistant, Content: err.Error()})
}

// Ask submits a question synchronously (CLI path). ModeSQL is routed to
// ExecuteSQL so callers can dispatch on a single mode value.
func (c *Controller) Ask(question string, mode QueryMode) error {
	if mode == ModeSQL {
		return c.ExecuteSQL(question)
	}

	req, err := c.BeginAsk(question, mode)
	if err != nil || req == nil {
		return err
	}

	resp, reqErr := c.client.Query(req)
	c.ResolveAsk(req, resp, reqErr)
	if reqErr != nil {
		return reqErr
	}

	if !c.identity.Anonymous() {
		if err := c.RefreshConversations(); err != nil {
			LogWarn("Failed to refresh conversations: %v", err)
		}
	}
	return nil
}

// ExecuteSQL submits raw SQL synchronously (CLI path).
func (c *Controller) ExecuteSQL(sqlText string) error {
	req, err := c.BeginExecuteSQL(sqlText)
	if err != nil || req == nil {
		return err
	}

	resp, reqErr := c.client.ExecuteSQL(req)
	c.ResolveExecuteSQL(req, resp, reqErr)
	return reqErr
}

func (c *Controller) appendMessage(msg ChatMessage) string {
	c.seq++
	msg.ID = fmt.Sprintf("m%06d", c.seq)
	c.timeline = append(c.timeline, msg)
	return msg.ID
}

// =============================================================================
// DISCLOSURE
// =============================================================================

// ToggleDisclosure flips one panel of one assistant message. Unknown ids
// are ignored; the other two flags are never touched.
func (c *Controller) ToggleDisclosure(messageID string, panel Panel) {
	d, ok := c.disclosure[messageID]
	if !ok {
		return
	}
	switch panel {
	case PanelSQL:
		d.SQLOpen = !d.SQLOpen
	case PanelTable:
		d.TableOpen = !d.TableOpen
	case PanelChart:
		d.ChartOpen = !d.ChartOpen
	}
	c.disclosure[messageID] = d
}

// DisclosureFor returns the panel state for an assistant message.
func (c *Controller) DisclosureFor(messageID string) (Disclosure, bool) {
	d, ok := c.disclosure[messageID]
	return d, ok
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Identity returns the current authentication state.
func (c *Controller) Identity() Identity { return c.identity }

// Active returns the active-session pointer.
func (c *Controller) Active() SessionRef { return c.active }

// Timeline returns the rendered message list. Callers must not mutate it.
func (c *Controller) Timeline() []ChatMessage { return c.timeline }

// Sessions returns the local session store cache.
func (c *Controller) Sessions() []LocalSession { return c.sessions }

// Conversations returns the cached remote directory.
func (c *Controller) Conversations() []ConversationSummary { return c.conversations }

// Answer returns the latest answer summary, or nil.
func (c *Controller) Answer() *QueryResponse { return c.answer }

// Pending reports whether a request is in flight.
func (c *Controller) Pending() bool { return c.pending }

// LastError returns the current error banner text, empty when clear.
func (c *Controller) LastError() string { return c.lastError }

// AuthError returns the current auth form error, empty when clear.
func (c *Controller) AuthError() string { return c.authError }

// AuthNotice returns the current auth form notice, empty when clear.
func (c *Controller) AuthNotice() string { return c.authNotice }

// ClearAuthMessages resets the auth form error and notice.
func (c *Controller) ClearAuthMessages() {
	c.authError = ""
	c.authNotice = ""
}

// SetClock overrides the controller's clock. Test hook.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}
