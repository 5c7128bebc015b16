package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/hitch/internal/rides"
)

const (
	departureLayout = "Mon 02 Jan 15:04"
	bookedLayout    = "02 Jan"
)

// handleBookingsKey processes keys for the bookings view.
func (m Model) handleBookingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Cancel) {
		return m, nil
	}
	bookings := m.snapshot.Bookings
	if len(bookings) == 0 || m.client == nil {
		return m, nil
	}
	booking := bookings[clamp(m.selected[ViewBookings], len(bookings))]
	if !booking.Cancellable() {
		m.setNotice(fmt.Sprintf("A %s booking cannot be cancelled", strings.ToLower(booking.Status)), true)
		return m, nil
	}
	return m, m.cancelCmd(booking)
}

func (m Model) handleCancelled(msg cancelledMsg) (tea.Model, tea.Cmd) {
	if m.handleAPIError("cancellation", msg.err) {
		return m, nil
	}

	m.log.WithField("booking_id", msg.booking.ID).Info("booking cancelled")
	m.setNotice(fmt.Sprintf("Cancelled %s",
		route(msg.booking.Trip.Origin.Label(), msg.booking.Trip.Destination.Label())), false)

	if m.store == nil {
		return m, nil
	}
	booking := msg.booking
	booking.Status = "cancelled"
	m.store.ReplaceBooking(booking)
	return m, fetchSnapshotCmd(m.store)
}

// renderBookings renders the passenger's bookings.
func (m Model) renderBookings() string {
	styles := m.theme.Styles()
	bookings := m.snapshot.Bookings
	if len(bookings) == 0 {
		if !m.snapshot.HasData {
			return styles.MutedText.Render("Waiting for bookings...")
		}
		return styles.MutedText.Render("You have no bookings yet. Press 1 to search for a ride.")
	}

	start, end := visibleRange(m.selected[ViewBookings], len(bookings), m.listHeight(4))
	lines := make([]string, 0, end-start+1)
	lines = append(lines, styles.FaintText.Render(fmt.Sprintf("%-11s  %-34s  %-16s  %5s  %9s  %s",
		"STATUS", "ROUTE", "DEPARTURE", "SEATS", "TOTAL", "BOOKED")))
	for i := start; i < end; i++ {
		b := bookings[i]
		badge := styles.StatusStyle(b.Status).Width(11).Render(truncate(strings.ToLower(b.Status), 9))
		row := fmt.Sprintf("  %-34s  %-16s  %5d  %9.2f  %s",
			truncate(route(b.Trip.Origin.Label(), b.Trip.Destination.Label()), 34),
			formatDeparture(b.Trip),
			b.Seats,
			b.TotalPrice,
			formatBooked(b),
		)
		lines = append(lines, m.renderRow(badge+row, i == m.selected[ViewBookings]))
	}
	return strings.Join(lines, "\n")
}

// renderTrips renders the trips the user publishes as a driver.
func (m Model) renderTrips() string {
	styles := m.theme.Styles()
	if len(m.snapshot.Trips) == 0 {
		if !m.snapshot.HasData {
			return styles.MutedText.Render("Waiting for trips...")
		}
		return styles.MutedText.Render("You are not offering any trips.")
	}
	return m.renderTripRows(m.snapshot.Trips, m.selected[ViewTrips], m.listHeight(4))
}

// renderTripRows renders a trip table with the selected row highlighted.
func (m Model) renderTripRows(trips []rides.Trip, selected, height int) string {
	styles := m.theme.Styles()

	start, end := visibleRange(selected, len(trips), height)
	lines := make([]string, 0, end-start+1)
	lines = append(lines, styles.FaintText.Render(fmt.Sprintf("%-11s  %-34s  %-16s  %5s  %-14s  %s",
		"STATUS", "ROUTE", "DEPARTURE", "SEATS", "PRICE", "DRIVER")))
	for i := start; i < end; i++ {
		t := trips[i]
		badge := styles.StatusStyle(t.Status).Width(11).Render(truncate(strings.ToLower(t.Status), 9))
		row := fmt.Sprintf("  %-34s  %-16s  %2d/%-2d  %-14s  %s",
			truncate(route(t.Origin.Label(), t.Destination.Label()), 34),
			formatDeparture(t),
			t.SeatsAvailable, t.SeatsTotal,
			t.Price(),
			truncate(t.Driver.Name, 20),
		)
		lines = append(lines, m.renderRow(badge+row, i == selected))
	}
	return strings.Join(lines, "\n")
}

// renderActivity renders the tail of the Hitch log file.
func (m Model) renderActivity() string {
	styles := m.theme.Styles()
	if m.logFile == "" {
		return styles.MutedText.Render("Logging to a file is disabled.")
	}
	if len(m.activity) == 0 {
		return styles.MutedText.Render("No activity yet.")
	}

	start, end := visibleRange(m.selected[ViewActivity], len(m.activity), m.listHeight(3))
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		entry := m.activity[i]
		text := truncate(entry.Format(), m.width-2)
		switch strings.ToLower(entry.Level) {
		case "error", "fatal", "panic":
			text = styles.DangerText.Render(text)
		case "warning", "warn":
			text = styles.WarningText.Render(text)
		case "debug", "trace":
			text = styles.FaintText.Render(text)
		}
		lines = append(lines, m.renderRow(text, i == m.selected[ViewActivity]))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(line string, selected bool) string {
	if !selected {
		return line
	}
	return m.theme.Styles().Selected.Width(m.width).Render(line)
}

func formatBooked(b rides.Booking) string {
	created := b.ParsedCreatedAt()
	if created.IsZero() {
		return "-"
	}
	return created.In(time.Local).Format(bookedLayout)
}

func formatDeparture(t rides.Trip) string {
	departure := t.ParsedDeparture()
	if departure.IsZero() {
		return truncate(t.DepartureAt, 16)
	}
	return departure.In(time.Local).Format(departureLayout)
}
