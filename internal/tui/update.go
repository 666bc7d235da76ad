package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/afslabs/afs-chat/internal"
)

// Update handles all tea messages. Controller mutations happen here, on the
// update loop; commands only carry HTTP round-trips.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bootDoneMsg:
		m.booted = true
		m.rebuildHistoryItems()
		m.refreshViewport()
		return m, nil

	case askDoneMsg:
		m.ctrl.ResolveAsk(msg.req, msg.resp, msg.err)
		m.rebuildHistoryItems()
		m.refreshViewport()
		if !m.ctrl.Identity().Anonymous() && msg.err == nil {
			return m, m.fetchConversationsCmd()
		}
		return m, nil

	case execDoneMsg:
		m.ctrl.ResolveExecuteSQL(msg.req, msg.resp, msg.err)
		m.refreshViewport()
		return m, nil

	case conversationsMsg:
		if msg.err != nil {
			if internal.IsSessionExpired(msg.err) {
				return m.dropExpiredSession()
			}
			internal.LogWarn("Failed to refresh conversations: %v", msg.err)
			return m, nil
		}
		m.ctrl.SetConversations(msg.list)
		m.rebuildHistoryItems()
		return m, nil

	case conversationDetailMsg:
		if msg.err != nil {
			if internal.IsSessionExpired(msg.err) {
				return m.dropExpiredSession()
			}
			internal.LogWarn("Failed to load conversation: %v", msg.err)
			return m, nil
		}
		m.ctrl.ApplyRemoteConversation(msg.detail)
		m.page = PageChat
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

// dropExpiredSession reconciles a 401 observed by an async fetch: the
// controller falls back to anonymous and the history list switches to the
// local sessions.
func (m Model) dropExpiredSession() (tea.Model, tea.Cmd) {
	m.ctrl.HandleSessionExpired()
	m.rebuildHistoryItems()
	m.refreshViewport()
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 2
	footerHeight := m.textarea.Height() + 3
	vpHeight := msg.Height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(msg.Width - 2)
	m.history.SetSize(msg.Width, msg.Height-2)
	m.refreshViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.page {
	case PageAuth:
		return m.handleAuthKey(msg)
	case PageHistory:
		return m.handleHistoryKey(msg)
	}
	return m.handleChatKey(msg)
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		return m.submit()

	case tea.KeyTab:
		m.cycleMode()
		return m, nil

	case tea.KeyCtrlN:
		m.ctrl.NewChat()
		m.refreshViewport()
		return m, nil

	case tea.KeyCtrlO:
		m.page = PageHistory
		m.rebuildHistoryItems()
		if !m.ctrl.Identity().Anonymous() {
			return m, m.fetchConversationsCmd()
		}
		return m, nil

	case tea.KeyCtrlL:
		if m.ctrl.Identity().Anonymous() {
			m.page = PageAuth
			m.authMode = AuthLogin
			m.resetAuthForm()
			return m, nil
		}
		m.ctrl.Logout()
		m.saveCookies()
		m.rebuildHistoryItems()
		m.refreshViewport()
		return m, nil

	case tea.KeyCtrlR:
		m.page = PageAuth
		m.authMode = AuthRegister
		m.resetAuthForm()
		return m, nil

	case tea.KeyF3:
		m.toggleLast(internal.PanelSQL)
		return m, nil
	case tea.KeyF4:
		m.toggleLast(internal.PanelTable)
		return m, nil
	case tea.KeyF5:
		m.toggleLast(internal.PanelChart)
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// submit dispatches the input through the controller. Raw SQL mode uses the
// execute path, the other modes go through ask.
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := m.textarea.Value()
	if strings.TrimSpace(input) == "" {
		return m, nil
	}

	if m.mode == internal.ModeSQL {
		req, err := m.ctrl.BeginExecuteSQL(input)
		if err != nil {
			m.refreshViewport()
			return m, nil
		}
		if req == nil {
			return m, nil
		}
		m.textarea.Reset()
		m.refreshViewport()
		return m, m.execCmd(req)
	}

	req, err := m.ctrl.BeginAsk(input, m.mode)
	if err != nil {
		m.refreshViewport()
		return m, nil
	}
	if req == nil {
		return m, nil
	}
	m.textarea.Reset()
	m.refreshViewport()
	return m, m.askCmd(req)
}

func (m *Model) toggleLast(panel internal.Panel) {
	if id := m.lastAssistantID(); id != "" {
		m.ctrl.ToggleDisclosure(id, panel)
		m.refreshViewport()
	}
}

func (m *Model) resetAuthForm() {
	m.ctrl.ClearAuthMessages()
	m.username.Reset()
	m.password.Reset()
	m.focus = 0
	m.username.Focus()
	m.password.Blur()
}

func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.page = PageChat
		m.ctrl.ClearAuthMessages()
		return m, nil

	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.focus = (m.focus + 1) % 2
		if m.focus == 0 {
			m.username.Focus()
			m.password.Blur()
		} else {
			m.username.Blur()
			m.password.Focus()
		}
		return m, nil

	case tea.KeyEnter:
		return m.submitAuth()
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// submitAuth runs login/register synchronously; both are quick round-trips
// and the form stays modal until they finish.
func (m Model) submitAuth() (tea.Model, tea.Cmd) {
	username := m.username.Value()
	password := m.password.Value()

	if m.authMode == AuthRegister {
		if err := m.ctrl.Register(username, password); err != nil {
			return m, nil
		}
		m.authMode = AuthLogin
		m.password.Reset()
		return m, nil
	}

	if err := m.ctrl.Login(username, password); err != nil {
		return m, nil
	}
	m.saveCookies()
	m.page = PageChat
	m.rebuildHistoryItems()
	m.refreshViewport()
	return m, m.fetchConversationsCmd()
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.page = PageChat
		return m, nil

	case tea.KeyEnter:
		item, ok := m.history.SelectedItem().(historyItem)
		if !ok {
			return m, nil
		}
		if item.remote {
			return m, m.fetchConversationCmd(item.id)
		}
		if err := m.ctrl.LoadLocalSession(item.id); err != nil {
			internal.LogWarn("Failed to load session: %v", err)
			return m, nil
		}
		m.page = PageChat
		m.refreshViewport()
		return m, nil

	case tea.KeyDelete:
		item, ok := m.history.SelectedItem().(historyItem)
		if !ok {
			return m, nil
		}
		if item.remote {
			if err := m.ctrl.DeleteRemoteConversation(item.id); err != nil {
				internal.LogWarn("Failed to delete conversation: %v", err)
			}
		} else {
			if err := m.ctrl.DeleteLocalSession(item.id); err != nil {
				internal.LogWarn("Failed to delete session: %v", err)
			}
		}
		m.rebuildHistoryItems()
		m.refreshViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch m.page {
	case PageChat:
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	case PageHistory:
		m.history, cmd = m.history.Update(msg)
		cmds = append(cmds, cmd)
	default:
		m.username, cmd = m.username.Update(msg)
		cmds = append(cmds, cmd)
		m.password, cmd = m.password.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}
