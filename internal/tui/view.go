package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/afslabs/afs-chat/internal"
)

// View renders the active page.
func (m Model) View() string {
	if !m.ready || !m.booted {
		return "\n  " + m.spinner.View() + " Starting up..."
	}

	switch m.page {
	case PageAuth:
		return m.viewAuth()
	case PageHistory:
		return m.history.View()
	}
	return m.viewChat()
}

func (m Model) viewChat() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if errMsg := m.ctrl.LastError(); errMsg != "" {
		b.WriteString(errorStyle.Render("Error: "+errMsg) + "\n")
	}
	if m.ctrl.Pending() {
		b.WriteString(m.spinner.View() + " Waiting for answer...\n")
	}

	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send • tab mode • ctrl+n new • ctrl+o history • ctrl+l login/logout • f3/f4/f5 sql/table/chart • esc quit"))
	return b.String()
}

func (m Model) header() string {
	who := "anonymous"
	if id := m.ctrl.Identity(); !id.Anonymous() {
		who = id.Username
	}

	active := "new chat"
	switch ref := m.ctrl.Active(); {
	case ref.IsLocal():
		active = "session " + ref.ID()
	case ref.IsRemote():
		active = "conversation " + ref.ID()
	}

	return titleStyle.Render("afs-chat") + "  " +
		identityStyle.Render(who) + "  " +
		modeStyle.Render("["+m.mode.String()+"]") + "  " +
		helpStyle.Render(active)
}

// refreshViewport rebuilds the timeline view and scrolls to the bottom.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTimeline())
	m.viewport.GotoBottom()
}

func (m Model) renderTimeline() string {
	timeline := m.ctrl.Timeline()
	if len(timeline) == 0 {
		return helpStyle.Render("\n  No messages yet. Ask something about your finances.")
	}

	var b strings.Builder
	for _, msg := range timeline {
		switch msg.Role {
		case internal.RoleUser:
			b.WriteString(userStyle.Render("You") + "\n")
			b.WriteString(msg.Content + "\n\n")
		case internal.RoleAssistant:
			b.WriteString(assistantStyle.Render("Assistant") + "\n")
			b.WriteString(m.renderMarkdown(msg.Content))
			b.WriteString(m.renderPanels(msg))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderMarkdown renders assistant content through glamour, falling back to
// plain text when the renderer is unavailable or panics on odd input.
func (m Model) renderMarkdown(content string) (out string) {
	out = content + "\n"
	if m.renderer == nil {
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			internal.LogDebug("Markdown render panic: %v", r)
			out = content + "\n"
		}
	}()
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return out
	}
	return rendered
}

// renderPanels shows the three collapsible panels for an assistant answer.
// Panels with no backing data are omitted entirely; panels with data but a
// collapsed flag render a hint line only.
func (m Model) renderPanels(msg internal.ChatMessage) string {
	if msg.Answer == nil {
		return ""
	}
	disc, ok := m.ctrl.DisclosureFor(msg.ID)
	if !ok {
		return ""
	}

	var b strings.Builder
	if msg.Answer.UsedSample {
		b.WriteString(sampleStyle.Render("(answered from sample data)") + "\n")
	}

	if msg.Answer.SQL != "" {
		if disc.SQLOpen {
			b.WriteString(panelTitleStyle.Render("SQL") + "\n")
			b.WriteString(sqlStyle.Render(msg.Answer.SQL) + "\n")
		} else {
			b.WriteString(panelHintStyle.Render("[f3] show SQL") + "\n")
		}
	}

	if len(msg.Answer.Rows) > 0 {
		if disc.TableOpen {
			b.WriteString(panelTitleStyle.Render(fmt.Sprintf("Results (%d rows)", len(msg.Answer.Rows))) + "\n")
			b.WriteString(internal.RenderTable(msg.Answer.Rows) + "\n")
		} else {
			b.WriteString(panelHintStyle.Render(fmt.Sprintf("[f4] show %d rows", len(msg.Answer.Rows))) + "\n")
		}
	}

	if msg.Answer.ChartSpec != "" {
		if disc.ChartOpen {
			b.WriteString(panelTitleStyle.Render("Chart spec") + "\n")
			b.WriteString(prettyJSON(msg.Answer.ChartSpec) + "\n")
		} else {
			b.WriteString(panelHintStyle.Render("[f5] show chart spec") + "\n")
		}
	}
	return b.String()
}

func prettyJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		return raw
	}
	return buf.String()
}

func (m Model) viewAuth() string {
	label := "Log in"
	if m.authMode == AuthRegister {
		label = "Register"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(label) + "\n\n")
	b.WriteString(m.username.View() + "\n")
	b.WriteString(m.password.View() + "\n")

	if errMsg := m.ctrl.AuthError(); errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(errMsg) + "\n")
	}
	if notice := m.ctrl.AuthNotice(); notice != "" {
		b.WriteString("\n" + noticeStyle.Render(notice) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("enter submit • tab switch field • esc back"))
	return authBoxStyle.Render(b.String())
}
