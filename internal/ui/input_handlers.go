package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/hitch/internal/prefs"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.typing() {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView((m.currentView + 1) % viewCount)

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView((m.currentView + viewCount - 1) % viewCount)

	case key.Matches(msg, m.keys.ViewSearch):
		return m.switchView(ViewSearch)

	case key.Matches(msg, m.keys.ViewBookings):
		return m.switchView(ViewBookings)

	case key.Matches(msg, m.keys.ViewTrips):
		return m.switchView(ViewTrips)

	case key.Matches(msg, m.keys.ViewActivity):
		return m.switchView(ViewActivity)

	case key.Matches(msg, m.keys.Refresh):
		if !m.refreshLimit.Allow() {
			m.setNotice("Just refreshed, try again in a moment", false)
			return m, nil
		}
		return m, m.refreshCmd("Refreshing rides", true)

	case key.Matches(msg, m.keys.Swap):
		cmd := m.startSwap()
		return m, cmd
	}

	if m.handleNavigation(msg) {
		return m, nil
	}

	switch m.currentView {
	case ViewSearch:
		return m.handleSearchKey(msg)
	case ViewBookings:
		return m.handleBookingsKey(msg)
	}

	return m, nil
}

// handleNavigation moves the selection in list views.
func (m *Model) handleNavigation(msg tea.KeyMsg) bool {
	count := m.rowCount()
	row := &m.selected[m.currentView]

	switch {
	case key.Matches(msg, m.keys.Down):
		if *row < count-1 {
			*row++
		}
	case key.Matches(msg, m.keys.Up):
		if *row > 0 {
			*row--
		}
	case key.Matches(msg, m.keys.Top):
		*row = 0
	case key.Matches(msg, m.keys.Bottom):
		*row = clamp(count-1, count)
	default:
		return false
	}
	return true
}

// handleInputKey processes keys while a search field has focus.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.blurInputs()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.focusIdx == fieldCount-1 {
			m.blurInputs()
			return m, nil
		}
		cmd := m.focusInput(m.focusIdx + 1)
		return m, cmd

	case key.Matches(msg, m.keys.ShiftTab):
		if m.focusIdx == 0 {
			return m, nil
		}
		cmd := m.focusInput(m.focusIdx - 1)
		return m, cmd

	case key.Matches(msg, m.keys.Confirm):
		return m.submitSearch()

	case key.Matches(msg, m.keys.Swap):
		cmd := m.startSwap()
		return m, cmd
	}

	// Fields are read-only while the swap animation runs.
	if m.swapping {
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	if v == ViewActivity {
		return m, m.activityCmd()
	}
	return m, nil
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.spinner.Style = m.theme.Styles().AccentText
	m.prefs.Theme = m.theme.Name
	if m.prefsPath != "" {
		if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
			m.log.WithError(err).Debug("save theme")
		}
	}
}
