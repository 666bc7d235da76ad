// Package tui provides the interactive chat interface. It is a thin driver
// over internal.Controller: all state changes go through the controller on
// the update loop, and only the HTTP calls run inside tea commands.
package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/afslabs/afs-chat/internal"
)

// Page determines which screen is active.
type Page int

const (
	PageChat Page = iota
	PageAuth
	PageHistory
)

// AuthMode selects the auth form variant.
type AuthMode int

const (
	AuthLogin AuthMode = iota
	AuthRegister
)

// Model is the bubbletea model for the chat interface.
type Model struct {
	ctrl   *internal.Controller
	client *internal.Client
	kv     *internal.KVStore

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	history  list.Model
	renderer *glamour.TermRenderer

	username textinput.Model
	password textinput.Model
	focus    int // auth form focus: 0 username, 1 password

	page     Page
	authMode AuthMode
	mode     internal.QueryMode

	width  int
	height int
	ready  bool
	booted bool
}

// historyItem is a list item for the history page. It represents either a
// local session or a remote conversation.
type historyItem struct {
	id, title, updated string
	remote             bool
}

func (i historyItem) Title() string { return i.title }
func (i historyItem) Description() string {
	if i.remote {
		return "[server] " + i.updated
	}
	return "[local] " + i.updated
}
func (i historyItem) FilterValue() string { return i.title }

// Messages for tea updates
type (
	bootDoneMsg struct{}

	askDoneMsg struct {
		req  *internal.QueryRequest
		resp *internal.QueryResponse
		err  error
	}

	execDoneMsg struct {
		req  *internal.ExecuteSQLRequest
		resp *internal.ExecuteSQLResponse
		err  error
	}

	conversationsMsg struct {
		list []internal.ConversationSummary
		err  error
	}

	conversationDetailMsg struct {
		detail *internal.ConversationDetail
		err    error
	}
)

// New creates the chat interface model.
func New(ctrl *internal.Controller, client *internal.Client, kv *internal.KVStore, defaultMode internal.QueryMode) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask a financial question (or raw SQL in sql mode)..."
	ta.Focus()
	ta.SetHeight(3)
	ta.CharLimit = 0
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	user := textinput.New()
	user.Placeholder = "Username"
	user.Focus()
	pass := textinput.New()
	pass.Placeholder = "Password"
	pass.EchoMode = textinput.EchoPassword

	hist := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	hist.Title = "Chat history"
	hist.SetShowStatusBar(false)

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		internal.LogDebug("Markdown renderer unavailable: %v", err)
		renderer = nil
	}

	return Model{
		ctrl:     ctrl,
		client:   client,
		kv:       kv,
		textarea: ta,
		spinner:  sp,
		username: user,
		password: pass,
		history:  hist,
		renderer: renderer,
		page:     PageChat,
		mode:     defaultMode,
	}
}

// Init starts the boot sequence.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.bootstrapCmd())
}

// bootstrapCmd probes identity and loads history before the first
// interaction; the UI stays in its boot state until this resolves.
func (m Model) bootstrapCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Bootstrap()
		return bootDoneMsg{}
	}
}

func (m Model) askCmd(req *internal.QueryRequest) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		resp, err := client.Query(req)
		return askDoneMsg{req: req, resp: resp, err: err}
	}
}

func (m Model) execCmd(req *internal.ExecuteSQLRequest) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		resp, err := client.ExecuteSQL(req)
		return execDoneMsg{req: req, resp: resp, err: err}
	}
}

func (m Model) fetchConversationsCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		convs, err := client.Conversations()
		return conversationsMsg{list: convs, err: err}
	}
}

func (m Model) fetchConversationCmd(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		detail, err := client.ConversationMessages(id)
		return conversationDetailMsg{detail: detail, err: err}
	}
}

// saveCookies persists the session cookie jar after auth transitions.
func (m Model) saveCookies() {
	if m.kv == nil {
		return
	}
	if err := m.client.SaveCookies(m.kv); err != nil {
		internal.LogWarn("Failed to persist session cookies: %v", err)
	}
}

// cycleMode advances ask -> chart -> sql -> ask.
func (m *Model) cycleMode() {
	switch m.mode {
	case internal.ModeAsk:
		m.mode = internal.ModeChart
	case internal.ModeChart:
		m.mode = internal.ModeSQL
	default:
		m.mode = internal.ModeAsk
	}
}

// lastAssistantID returns the id of the newest assistant message carrying an
// answer payload, or "".
func (m Model) lastAssistantID() string {
	timeline := m.ctrl.Timeline()
	for i := len(timeline) - 1; i >= 0; i-- {
		if timeline[i].Role == internal.RoleAssistant && timeline[i].Answer != nil {
			return timeline[i].ID
		}
	}
	return ""
}

// rebuildHistoryItems fills the history list from the store the current
// identity owns.
func (m *Model) rebuildHistoryItems() {
	var items []list.Item
	if !m.ctrl.Identity().Anonymous() {
		for _, conv := range m.ctrl.Conversations() {
			items = append(items, historyItem{id: conv.ID, title: conv.Title, updated: conv.UpdatedAt, remote: true})
		}
	} else {
		for _, s := range m.ctrl.Sessions() {
			items = append(items, historyItem{id: s.SessionID, title: s.Title, updated: s.UpdatedAt})
		}
	}
	m.history.SetItems(items)
}
