// Package ui is the terminal interface of the chat client.
// It reads session snapshots and forwards user input to the session
// controller; it never changes session state by itself.
package ui

import (
	"relay-chat/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	Brand   = lipgloss.Color("#e78618")
	Success = lipgloss.Color("2")
	Warning = lipgloss.Color("3")
	Danger  = lipgloss.Color("1")
	Own     = lipgloss.Color("6")
	Other   = lipgloss.Color("5")
	Muted   = lipgloss.Color("8")
)

type Styles struct {
	Banner      lipgloss.Style
	Tagline     lipgloss.Style
	Title       lipgloss.Style
	Room        lipgloss.Style
	Selected    lipgloss.Style
	Item        lipgloss.Style
	Error       lipgloss.Style
	ErrorBox    lipgloss.Style
	Transcript  lipgloss.Style
	Placeholder lipgloss.Style
	OwnAuthor   lipgloss.Style
	OtherAuthor lipgloss.Style
	Time        lipgloss.Style
	Help        lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Banner:      lipgloss.NewStyle().Bold(true).Foreground(Brand),
		Tagline:     lipgloss.NewStyle().Foreground(Brand),
		Title:       lipgloss.NewStyle().Bold(true).Foreground(Success),
		Room:        lipgloss.NewStyle().Bold(true).Foreground(Own),
		Selected:    lipgloss.NewStyle().Bold(true).Foreground(Own),
		Item:        lipgloss.NewStyle(),
		Error:       lipgloss.NewStyle().Foreground(Danger),
		ErrorBox:    lipgloss.NewStyle().Foreground(Danger).Border(lipgloss.RoundedBorder()).BorderForeground(Danger).Padding(0, 1),
		Transcript:  lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(Muted).Padding(1, 1),
		Placeholder: lipgloss.NewStyle().Faint(true),
		OwnAuthor:   lipgloss.NewStyle().Bold(true).Foreground(Own),
		OtherAuthor: lipgloss.NewStyle().Bold(true).Foreground(Other),
		Time:        lipgloss.NewStyle().Faint(true),
		Help:        lipgloss.NewStyle().Faint(true),
	}
}

// StatusText is the label shown next to "Status:".
func StatusText(state domain.ConnectionState) string {
	switch state {
	case domain.Connected:
		return "● Connected"
	case domain.Reconnecting:
		return "◐ Reconnecting..."
	case domain.Connecting:
		return "◐ Connecting..."
	case domain.Disconnected:
		return "○ Disconnected"
	default:
		return "○ Unknown"
	}
}

func StatusColor(state domain.ConnectionState) lipgloss.Color {
	switch state {
	case domain.Connected:
		return Success
	case domain.Connecting, domain.Reconnecting:
		return Warning
	case domain.Disconnected:
		return Danger
	default:
		return Muted
	}
}

func renderStatus(state domain.ConnectionState) string {
	return lipgloss.NewStyle().Foreground(StatusColor(state)).Render(StatusText(state))
}
