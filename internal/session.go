package internal

// Row is a single result row as returned by the backend. Column values are
// whatever JSON decoding produced; rendering stringifies them.
type Row = map[string]any

// Turn is one question/answer exchange within a local session.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	SQL      string `json:"sql"`
	Rows     []Row  `json:"rows"`
}

// LocalSession is an anonymous chat thread that exists only in the local
// store. The title is the first question verbatim and is immutable after
// creation. A session is created lazily on the first successful answer, so a
// persisted session always has at least one turn.
type LocalSession struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
	Turns     []Turn `json:"turns"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Roles of timeline messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AnswerPayload carries the structured parts of an assistant answer. Absent
// data (empty SQL, no rows, no chart spec) suppresses the corresponding
// panel regardless of its disclosure flag.
type AnswerPayload struct {
	SQL        string `json:"sql,omitempty"`
	Rows       []Row  `json:"rows,omitempty"`
	UsedSample bool   `json:"used_sample,omitempty"`
	ChartSpec  string `json:"chart_spec,omitempty"`
}

// ChatMessage is the single in-memory timeline projection, regardless of
// whether it came from a local session, a remote conversation, or a live
// query. IDs are locally unique and monotonic by submission order.
type ChatMessage struct {
	ID      string
	Role    string
	Content string
	Answer  *AnswerPayload
}

// Disclosure tracks the per-panel expanded/collapsed state of one assistant
// message. The flags are independent; toggling one never touches the others.
type Disclosure struct {
	SQLOpen   bool
	TableOpen bool
	ChartOpen bool
}

// Panel identifies one of the three collapsible panels.
type Panel int

const (
	PanelSQL Panel = iota
	PanelTable
	PanelChart
)

// SessionRefKind discriminates the SessionRef union.
type SessionRefKind int

const (
	RefNone SessionRefKind = iota
	RefLocal
	RefRemote
)

// SessionRef points at the thread the next answer is appended to. It is a
// tagged union so a local and a remote id can never be set at the same time.
type SessionRef struct {
	kind SessionRefKind
	id   string
}

// NoRef returns the empty pointer.
func NoRef() SessionRef { return SessionRef{} }

// LocalRef points at a local session.
func LocalRef(id string) SessionRef { return SessionRef{kind: RefLocal, id: id} }

// RemoteRef points at a server conversation.
func RemoteRef(id string) SessionRef { return SessionRef{kind: RefRemote, id: id} }

func (r SessionRef) Kind() SessionRefKind { return r.kind }
func (r SessionRef) IsNone() bool         { return r.kind == RefNone }
func (r SessionRef) IsLocal() bool        { return r.kind == RefLocal }
func (r SessionRef) IsRemote() bool       { return r.kind == RefRemote }

// ID returns the referenced session or conversation id, or "" for NoRef.
func (r SessionRef) ID() string { return r.id }

// QueryMode selects the request shape for one submission.
type QueryMode int

const (
	ModeAsk QueryMode = iota
	ModeChart
	ModeSQL
)

// ParseQueryMode maps a mode name from flags or config to a QueryMode.
func ParseQueryMode(s string) (QueryMode, bool) {
	switch s {
	case "ask", "":
		return ModeAsk, true
	case "chart":
		return ModeChart, true
	case "sql":
		return ModeSQL, true
	default:
		return ModeAsk, false
	}
}

// String returns the display name for the mode.
func (m QueryMode) String() string {
	switch m {
	case ModeAsk:
		return "ask"
	case ModeChart:
		return "chart"
	case ModeSQL:
		return "sql"
	default:
		return "unknown"
	}
}
