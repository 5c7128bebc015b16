package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/hitch/internal/busy"
	"github.com/five82/hitch/internal/logtail"
	"github.com/five82/hitch/internal/prefs"
	"github.com/five82/hitch/internal/rides"
	"github.com/five82/hitch/internal/state"
)

const activityLines = 200

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// busyMsg carries a coordinator transition into the program.
type busyMsg busy.Status

type refreshDoneMsg struct {
	manual bool
	err    error
}

type searchResultMsg struct {
	query rides.SearchQuery
	trips []rides.Trip
	err   error
}

type bookedMsg struct {
	trip    rides.Trip
	booking rides.Booking
	err     error
}

type cancelledMsg struct {
	booking rides.Booking
	err     error
}

type activityMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// trackCmd runs work inside a Begin/End pair on coord. Begin happens on the
// command goroutine, never in Update, because coordinator listeners block on
// the program's message channel.
func trackCmd(ctx context.Context, coord *busy.Coordinator, message string, work func(context.Context) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		var msg tea.Msg
		err := coord.Track(ctx, message, func(ctx context.Context) error {
			msg = work(ctx)
			return nil
		})
		if err != nil {
			return nil
		}
		return msg
	}
}

// refreshCmd asks the poller for fresh data. manual marks a user-requested
// refresh, which reports success in the footer.
func (m Model) refreshCmd(message string, manual bool) tea.Cmd {
	if m.refresh == nil {
		return nil
	}
	refresh := m.refresh
	return trackCmd(m.ctx, m.busy, message, func(ctx context.Context) tea.Msg {
		return refreshDoneMsg{manual: manual, err: refresh(ctx)}
	})
}

func (m Model) searchCmd(query rides.SearchQuery) tea.Cmd {
	client := m.client
	path := m.prefsPath
	saved := m.prefs
	saved.LastOrigin = query.Origin
	saved.LastDestination = query.Destination
	log := m.log

	message := fmt.Sprintf("Searching rides from %s to %s", query.Origin, query.Destination)
	return trackCmd(m.ctx, m.busy, message, func(ctx context.Context) tea.Msg {
		if err := prefs.Save(path, saved); err != nil {
			log.WithError(err).Debug("save search prefs")
		}
		trips, err := client.SearchTrips(ctx, query)
		return searchResultMsg{query: query, trips: trips, err: err}
	})
}

func (m Model) bookCmd(trip rides.Trip) tea.Cmd {
	client := m.client
	message := fmt.Sprintf("Booking a seat to %s", trip.Destination.Label())
	return trackCmd(m.ctx, m.busy, message, func(ctx context.Context) tea.Msg {
		booking, err := client.BookTrip(ctx, trip.ID, 1)
		return bookedMsg{trip: trip, booking: booking, err: err}
	})
}

func (m Model) cancelCmd(booking rides.Booking) tea.Cmd {
	client := m.client
	return trackCmd(m.ctx, m.busy, "Cancelling booking", func(ctx context.Context) tea.Msg {
		err := client.CancelBooking(ctx, booking.ID)
		return cancelledMsg{booking: booking, err: err}
	})
}

// activityCmd reads the tail of the log file. It is local and fast, so it
// does not go through the busy coordinator.
func (m Model) activityCmd() tea.Cmd {
	if m.logFile == "" {
		return nil
	}
	path := m.logFile
	return func() tea.Msg {
		entries, err := logtail.ReadEntries(path, activityLines)
		return activityMsg{entries: entries, err: err}
	}
}
