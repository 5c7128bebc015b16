package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

const defaultBusyMessage = "Working"

func newSpinner(theme Theme) spinner.Model {
	return spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Styles().AccentText),
	)
}

// renderBusyOverlay covers the screen with the spinner and the current busy
// message while the coordinator reports Busy.
func (m Model) renderBusyOverlay() string {
	styles := m.theme.Styles()

	message := strings.TrimSpace(m.status.Message)
	if message == "" {
		message = defaultBusyMessage
	}

	content := m.spinner.View() + " " + styles.Text.Render(message+"...")

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 3)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
