package ui

import (
	"context"
	"log/slog"
	"relay-chat/contract"
	"relay-chat/domain"
	"relay-chat/session"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type page int

const (
	pageMenu page = iota
	pageUsername
	pageRoom
	pageChat
	pageGoodbye
)

func (p page) String() string {
	switch p {
	case pageMenu:
		return "menu"
	case pageUsername:
		return "username"
	case pageRoom:
		return "room"
	case pageChat:
		return "chat"
	case pageGoodbye:
		return "goodbye"
	default:
		return "unknown"
	}
}

const (
	menuJoin = iota
	menuExit
)

var menuItems = []string{"Join Room", "Exit"}

const (
	banner  = "R E L A Y"
	tagline = "A chat application powered by Relay Pub / Sub"
	goodbye = "See you! ✌️"
)

// Deps are what the app needs to open sessions.
type Deps struct {
	Log         *slog.Logger
	Dialer      contract.Dialer
	Credentials contract.CredentialStore
	Options     []session.Option
}

// Model routes between the menu, the two prompts and the chat view.
// At most one session is open, and only while the chat view is shown.
type Model struct {
	ctx    context.Context
	deps   Deps
	styles Styles

	page        page
	cursor      int
	defaultName string
	username    string
	room        string
	nameInput   textinput.Model
	roomInput   textinput.Model
	formError   string

	chat          ChatModel
	width, height int
}

// NewModel builds the app. name prefills the username prompt.
func NewModel(ctx context.Context, deps Deps, name string) Model {
	nameInput := textinput.New()
	nameInput.Placeholder = "Username"
	nameInput.CharLimit = 32

	roomInput := textinput.New()
	roomInput.Placeholder = "Enter room name to join (lowercase letters and numbers only)"

	return Model{
		ctx:         ctx,
		deps:        deps,
		styles:      DefaultStyles(),
		defaultName: strings.TrimSpace(name),
		nameInput:   nameInput,
		roomInput:   roomInput,
		width:       80,
		height:      24,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.page == pageChat {
			m.chat.SetSize(msg.Width, msg.Height)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.leaveChat()
			return m, tea.Quit
		}
	case sessionStartedMsg:
		if !m.current(msg.ctrl) {
			return m, nil
		}
		if msg.err != nil {
			m.deps.Log.Debug("Session did not start", "err", msg.err)
		}
		m.chat.Refresh()
		return m, waitForUpdate(msg.ctrl)
	case sessionUpdatedMsg:
		if !m.current(msg.ctrl) {
			return m, nil
		}
		m.chat.Refresh()
		return m, waitForUpdate(msg.ctrl)
	case sessionEndedMsg:
		return m, nil
	case submittedMsg:
		if !m.current(msg.ctrl) {
			return m, nil
		}
		if msg.outcome == session.Exit {
			m.leaveChat()
			return m, nil
		}
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		m.chat.Refresh()
		return m, cmd
	}

	switch m.page {
	case pageMenu:
		return m.updateMenu(msg)
	case pageUsername:
		return m.updateUsername(msg)
	case pageRoom:
		return m.updateRoom(msg)
	case pageChat:
		return m.updateChat(msg)
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		m.cursor = (m.cursor + len(menuItems) - 1) % len(menuItems)
	case "down", "j", "tab":
		m.cursor = (m.cursor + 1) % len(menuItems)
	case "enter":
		if m.cursor == menuExit {
			m.page = pageGoodbye
			return m, tea.Quit
		}
		m.page = pageUsername
		m.formError = ""
		m.nameInput.SetValue(m.defaultName)
		m.nameInput.CursorEnd()
		m.nameInput.Focus()
	}
	return m, nil
}

func (m Model) updateUsername(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			m.backToMenu()
			return m, nil
		case tea.KeyEnter:
			username, err := domain.NormalizeUsername(m.nameInput.Value())
			if err != nil {
				m.formError = err.Error()
				return m, nil
			}
			m.username = username
			m.formError = ""
			m.nameInput.Blur()
			m.page = pageRoom
			m.roomInput.Reset()
			m.roomInput.Focus()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m Model) updateRoom(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			m.backToMenu()
			return m, nil
		case tea.KeyEnter:
			room := m.roomInput.Value()
			if err := domain.ValidateRoomName(room); err != nil {
				m.formError = err.Error()
				return m, nil
			}
			return m, m.openChat(room)
		}
	}
	var cmd tea.Cmd
	m.roomInput, cmd = m.roomInput.Update(msg)
	m.formError = ""
	// validate as the user types, an empty field is only reported on submit
	if value := m.roomInput.Value(); value != "" {
		if err := domain.ValidateRoomName(value); err != nil {
			m.formError = err.Error()
		}
	}
	return m, cmd
}

func (m Model) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			m.leaveChat()
			return m, nil
		case tea.KeyEnter:
			text, ok := m.chat.Submission()
			if !ok {
				return m, nil
			}
			return m, submit(m.ctx, m.chat.ctrl, text)
		}
	}
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

func (m *Model) openChat(room string) tea.Cmd {
	m.room = room
	m.formError = ""
	m.roomInput.Blur()
	ctrl := session.NewController(m.deps.Log, m.deps.Dialer, room, m.username, m.deps.Options...)
	m.chat = NewChatModel(ctrl, m.styles)
	m.chat.SetSize(m.width, m.height)
	m.page = pageChat
	return startSession(m.ctx, ctrl, m.deps.Credentials)
}

// leaveChat closes the open session, if any, and shows the menu again.
func (m *Model) leaveChat() {
	if m.chat.ctrl != nil {
		if err := m.chat.ctrl.Close(); err != nil {
			m.deps.Log.Warn("Closing session failed", "err", err)
		}
		m.chat = ChatModel{}
	}
	if m.page == pageChat {
		m.backToMenu()
	}
}

func (m *Model) backToMenu() {
	m.page = pageMenu
	m.cursor = menuJoin
	m.username = ""
	m.room = ""
	m.formError = ""
	m.nameInput.Blur()
	m.roomInput.Blur()
}

// Close releases the open session, for when the program ends without a
// key press, e.g. on a signal.
func (m Model) Close() {
	m.leaveChat()
}

func (m Model) current(ctrl *session.Controller) bool {
	return m.page == pageChat && m.chat.ctrl == ctrl
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Banner.Render(banner))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Tagline.Render(tagline))
	sb.WriteString("\n\n")

	switch m.page {
	case pageMenu:
		for i, item := range menuItems {
			if i == m.cursor {
				sb.WriteString(m.styles.Selected.Render("> " + item))
			} else {
				sb.WriteString(m.styles.Item.Render("  " + item))
			}
			sb.WriteString("\n")
		}
	case pageUsername:
		sb.WriteString("Enter your username\n")
		sb.WriteString(m.nameInput.View())
		sb.WriteString("\n")
	case pageRoom:
		sb.WriteString(m.styles.Title.Render("Join a Room"))
		sb.WriteString("\n")
		sb.WriteString(m.roomInput.View())
		sb.WriteString("\n")
	case pageChat:
		return sb.String() + m.chat.View()
	case pageGoodbye:
		sb.WriteString(goodbye)
		sb.WriteString("\n")
		return sb.String()
	}
	if m.formError != "" {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Error.Render("✖ " + m.formError))
		sb.WriteString("\n")
	}
	return sb.String()
}
