package ui

import (
	"fmt"
	"relay-chat/domain"
	"relay-chat/session"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	inputPlaceholder    = "Type your message..."
	waitingPlaceholder  = "Waiting for connection..."
	emptyTranscriptText = "No messages yet. Start the conversation!"
	chatHelp            = "Press Enter to send • Type /close to exit chat • Esc to leave • Ctrl+C to quit app"
)

// ChatModel renders one session: header, error box, transcript and input.
type ChatModel struct {
	ctrl     *session.Controller
	styles   Styles
	input    textinput.Model
	viewport viewport.Model
	snap     session.Snapshot
	// one submission in flight at a time
	pending bool
	width   int
}

func NewChatModel(ctrl *session.Controller, styles Styles) ChatModel {
	in := textinput.New()
	in.Placeholder = waitingPlaceholder
	in.Prompt = "> "

	m := ChatModel{
		ctrl:     ctrl,
		styles:   styles,
		input:    in,
		viewport: viewport.New(80, 15),
		snap:     ctrl.Snapshot(),
		width:    80,
	}
	m.refresh()
	return m
}

func (m *ChatModel) SetSize(w, h int) {
	m.width = w
	// borders and padding of the transcript box
	m.viewport.Width = max(w-4, 20)
	m.viewport.Height = max(h-16, 5)
	m.input.Width = max(w-4, 20)
	m.refresh()
}

// Refresh pulls a new snapshot from the controller.
func (m *ChatModel) Refresh() {
	m.snap = m.ctrl.Snapshot()
	m.refresh()
}

func (m *ChatModel) refresh() {
	if m.snap.Status.Ready() {
		m.input.Placeholder = inputPlaceholder
		m.input.Focus()
	} else {
		m.input.Placeholder = waitingPlaceholder
		m.input.Blur()
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// Update handles keys and the outcome of a submission. Session lifecycle
// messages are routed by the app model.
func (m ChatModel) Update(msg tea.Msg) (ChatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case submittedMsg:
		m.pending = false
		if msg.outcome.ClearsInput() {
			m.input.Reset()
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Submission takes the current line for sending, or reports false when a
// previous one is still in flight.
func (m *ChatModel) Submission() (string, bool) {
	if m.pending {
		return "", false
	}
	m.pending = true
	return m.input.Value(), true
}

func (m ChatModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Room.Render("Room: " + m.snap.Room))
	if authors := m.snap.Transcript.Authors(); len(authors) > 0 {
		sb.WriteString(m.styles.Time.Render(" · heard from " + strings.Join(authors, ", ")))
	}
	sb.WriteString("\n")
	sb.WriteString("Status: " + renderStatus(m.snap.Status.State))
	sb.WriteString("\n")
	if m.snap.Status.LastError != "" {
		sb.WriteString(m.styles.ErrorBox.Render("✖ " + m.snap.Status.LastError))
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Transcript.Render(m.viewport.View()))
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Help.Render(chatHelp))
	return sb.String()
}

func (m ChatModel) renderTranscript() string {
	messages := m.snap.Transcript.Messages()
	if len(messages) == 0 {
		return m.styles.Placeholder.Render(emptyTranscriptText)
	}
	blocks := make([]string, 0, len(messages))
	for _, msg := range messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m ChatModel) renderMessage(msg domain.Message) string {
	own := msg.IsFrom(m.snap.Username)
	author := m.styles.OtherAuthor
	if own {
		author = m.styles.OwnAuthor
	}
	header := author.Render(msg.Author) + m.styles.Time.Render(fmt.Sprintf(" • %s", msg.DisplayTime()))
	block := lipgloss.JoinVertical(lipgloss.Left, header, msg.Body)
	if own {
		return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, block)
	}
	return block
}
