package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: view tabs
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n\n")

	// Main content
	b.WriteString(m.renderContent())

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Height(m.contentHeight()+3).Render(b.String()),
		m.renderFooter(),
	)
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewSearch:
		return m.renderSearch()
	case ViewBookings:
		return m.renderBookings()
	case ViewTrips:
		return m.renderTrips()
	case ViewActivity:
		return m.renderActivity()
	default:
		return ""
	}
}

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	sep := "  "

	parts := []string{styles.Logo.Render("hitch")}

	switch {
	case m.sessionExpired:
		parts = append(parts, styles.DangerText.Render("Session expired, run `hitch login` and restart"))
	case m.snapshot.IsOffline():
		parts = append(parts, styles.DangerText.Render("OFFLINE"), styles.WarningText.Render("Retrying..."))
	case !m.snapshot.HasData:
		parts = append(parts, styles.WarningText.Render("Connecting..."))
	default:
		parts = append(parts,
			styles.Text.Render(fmt.Sprintf("%d %s", len(m.snapshot.Bookings), plural(len(m.snapshot.Bookings), "booking", "bookings"))),
			styles.Text.Render(fmt.Sprintf("%d %s", len(m.snapshot.Trips), plural(len(m.snapshot.Trips), "trip", "trips"))),
		)
	}

	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, styles.MutedText.Render("updated "+m.snapshot.LastUpdated.Format("15:04:05")))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderCommandBar renders the view tabs.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	tabs := make([]string, 0, viewCount)
	for v := ViewSearch; v < viewCount; v++ {
		label := fmt.Sprintf("%d %s", int(v)+1, v)
		if v == m.currentView {
			tabs = append(tabs, styles.Selected.Padding(0, 1).Render(label))
			continue
		}
		tabs = append(tabs, styles.MutedText.Padding(0, 1).Render(label))
	}
	tabs = append(tabs, styles.FaintText.Render("? help"))
	return strings.Join(tabs, " ")
}

// renderFooter renders the last notice.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.notice == "" {
		return styles.Footer.Width(m.width).Render(m.theme.Name)
	}
	text := styles.SuccessText.Render(m.notice)
	if m.noticeIsError {
		text = styles.DangerText.Render(m.notice)
	}
	return styles.Footer.Width(m.width).Render(text)
}

// contentHeight is the number of rows left between the tabs and the footer.
func (m Model) contentHeight() int {
	h := m.height - 4
	if h < 1 {
		return 1
	}
	return h
}

// listHeight is the number of list rows that fit after reserved lines.
func (m Model) listHeight(reserved int) int {
	h := m.contentHeight() - reserved
	if h < 1 {
		return 1
	}
	return h
}

// visibleRange returns the window [start, end) of count rows that keeps
// selected visible within height rows.
func visibleRange(selected, count, height int) (int, int) {
	if height <= 0 || count <= height {
		return 0, count
	}
	start := selected - height/2
	if start < 0 {
		start = 0
	}
	if start+height > count {
		start = count - height
	}
	return start, start + height
}

func joinRow(parts ...string) string {
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}
