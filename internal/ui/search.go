package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/hitch/internal/rides"
)

// swapDelay is how long the swap animation holds before the field values
// trade places.
const swapDelay = 180 * time.Millisecond

type swapDoneMsg struct{}

func (m *Model) initInputs() {
	placeholders := [fieldCount]string{"Where from?", "Where to?"}
	values := [fieldCount]string{m.prefs.LastOrigin, m.prefs.LastDestination}

	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.Prompt = ""
		ti.CharLimit = 80
		ti.Width = 30
		ti.SetValue(values[i])
		ti.CursorEnd()
		m.inputs[i] = ti
	}
	m.focusIdx = focusResults
	m.focusInput(fieldOrigin)
}

func (m *Model) resizeInputs() {
	width := m.width/2 - 16
	if width < 12 {
		width = 12
	}
	if width > 48 {
		width = 48
	}
	for i := range m.inputs {
		m.inputs[i].Width = width
	}
}

// typing reports whether keystrokes belong to a search field.
func (m Model) typing() bool {
	return m.currentView == ViewSearch && m.focusIdx != focusResults
}

func (m *Model) focusInput(idx int) tea.Cmd {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.focusIdx = idx
	return m.inputs[idx].Focus()
}

func (m *Model) blurInputs() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.focusIdx = focusResults
}

// startSwap begins the origin/destination swap. Requests made while a swap
// is already animating are dropped.
func (m *Model) startSwap() tea.Cmd {
	if m.swapping {
		return nil
	}
	m.swapping = true
	return tea.Tick(swapDelay, func(time.Time) tea.Msg {
		return swapDoneMsg{}
	})
}

func (m *Model) finishSwap() {
	if !m.swapping {
		return
	}
	origin := m.inputs[fieldOrigin].Value()
	destination := m.inputs[fieldDestination].Value()
	m.inputs[fieldOrigin].SetValue(destination)
	m.inputs[fieldDestination].SetValue(origin)
	m.inputs[fieldOrigin].CursorEnd()
	m.inputs[fieldDestination].CursorEnd()
	m.swapping = false
}

func (m Model) searchQuery() rides.SearchQuery {
	return rides.SearchQuery{
		Origin:      strings.TrimSpace(m.inputs[fieldOrigin].Value()),
		Destination: strings.TrimSpace(m.inputs[fieldDestination].Value()),
		Seats:       1,
	}
}

func (m Model) submitSearch() (tea.Model, tea.Cmd) {
	query := m.searchQuery()
	switch {
	case query.Origin == "":
		m.setNotice("Enter where you are leaving from", true)
		cmd := m.focusInput(fieldOrigin)
		return m, cmd
	case query.Destination == "":
		m.setNotice("Enter where you are going", true)
		cmd := m.focusInput(fieldDestination)
		return m, cmd
	case m.client == nil:
		return m, nil
	}

	m.blurInputs()
	m.notice = ""
	return m, m.searchCmd(query)
}

// handleSearchKey processes keys for the search results list.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Edit):
		cmd := m.focusInput(fieldOrigin)
		return m, cmd

	case key.Matches(msg, m.keys.Confirm):
		return m.submitSearch()

	case key.Matches(msg, m.keys.Book):
		if len(m.results) == 0 || m.client == nil {
			return m, nil
		}
		trip := m.results[clamp(m.selected[ViewSearch], len(m.results))]
		if trip.SeatsAvailable <= 0 {
			m.setNotice("No seats left on this ride", true)
			return m, nil
		}
		return m, m.bookCmd(trip)
	}
	return m, nil
}

func (m Model) handleSearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if m.handleAPIError("search", msg.err) {
		return m, nil
	}

	m.results = msg.trips
	m.searched = true
	m.selected[ViewSearch] = 0
	m.prefs.LastOrigin = msg.query.Origin
	m.prefs.LastDestination = msg.query.Destination

	if len(msg.trips) == 0 {
		m.setNotice(fmt.Sprintf("No rides from %s to %s", msg.query.Origin, msg.query.Destination), false)
	} else {
		m.setNotice(fmt.Sprintf("%d %s found", len(msg.trips), plural(len(msg.trips), "ride", "rides")), false)
	}
	return m, nil
}

func (m Model) handleBooked(msg bookedMsg) (tea.Model, tea.Cmd) {
	if m.handleAPIError("booking", msg.err) {
		return m, nil
	}

	for i := range m.results {
		if m.results[i].ID == msg.trip.ID && m.results[i].SeatsAvailable > 0 {
			m.results[i].SeatsAvailable--
		}
	}

	m.log.WithField("booking_id", msg.booking.ID).Info("seat booked")
	m.setNotice(fmt.Sprintf("Booked %s (%s)",
		route(msg.trip.Origin.Label(), msg.trip.Destination.Label()), msg.booking.Status), false)

	if m.store == nil {
		return m, nil
	}
	booking := msg.booking
	if booking.Trip.ID == "" {
		booking.Trip = msg.trip
	}
	m.store.ReplaceBooking(booking)
	return m, fetchSnapshotCmd(m.store)
}

// renderSearch renders the search form and its results.
func (m Model) renderSearch() string {
	styles := m.theme.Styles()
	var b strings.Builder

	labels := [fieldCount]string{"From", "To"}
	for i := range m.inputs {
		field := styles.Field
		if i == m.focusIdx {
			field = styles.FocusedField
		}
		value := m.inputs[i].View()
		if m.swapping {
			value = styles.FaintText.Render(m.inputs[i].Value())
		}
		label := styles.MutedText.Width(6).Render(labels[i])
		b.WriteString(joinRow(label, field.Width(m.inputs[i].Width+2).Render(value)))
		b.WriteString("\n")
	}

	hint := "enter search · ctrl+s swap · / edit · b book"
	if m.swapping {
		hint = "⇅ swapping"
	}
	b.WriteString(styles.FaintText.Render(hint))
	b.WriteString("\n\n")

	switch {
	case !m.searched:
		b.WriteString(styles.MutedText.Render("Search for a ride to see matching trips."))
	case len(m.results) == 0:
		b.WriteString(styles.MutedText.Render("No matching rides."))
	default:
		b.WriteString(m.renderTripRows(m.results, m.selected[ViewSearch], m.listHeight(9)))
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
