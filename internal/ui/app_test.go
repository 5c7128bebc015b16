package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/hitch/internal/busy"
	"github.com/five82/hitch/internal/prefs"
	"github.com/five82/hitch/internal/rides"
	"github.com/five82/hitch/internal/rides/ridestest"
	"github.com/five82/hitch/internal/state"
)

type statusLog struct {
	mu       sync.Mutex
	statuses []busy.Status
}

func (l *statusLog) record(s busy.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, s)
}

func (l *statusLog) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, s := range l.statuses {
		if !s.Busy {
			continue
		}
		if n := len(out); n > 0 && out[n-1] == s.Message {
			continue
		}
		out = append(out, s.Message)
	}
	return out
}

func newTestModel(t *testing.T, fetcher *ridestest.Fetcher) (Model, *busy.Coordinator, *statusLog) {
	t.Helper()
	coord := busy.New(busy.Options{MinVisible: -1, MessageClearDelay: -1})
	log := &statusLog{}
	t.Cleanup(coord.Subscribe(log.record))

	m := New(Options{
		Client:    fetcher,
		Store:     &state.Store{},
		Busy:      coord,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Prefs:     prefs.Prefs{Theme: "Gruvbox", LastOrigin: "Lyon", LastDestination: "Paris"},
	})
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40}), coord, log
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNew_PrefillsSearchFromPrefs(t *testing.T) {
	m, _, _ := newTestModel(t, &ridestest.Fetcher{})

	assert.Equal(t, "Lyon", m.inputs[fieldOrigin].Value())
	assert.Equal(t, "Paris", m.inputs[fieldDestination].Value())
	assert.Equal(t, ViewSearch, m.currentView)
	assert.Equal(t, fieldOrigin, m.focusIdx)
	assert.Equal(t, "Gruvbox", m.theme.Name)
}

func TestUpdate_BusyMsgShowsOverlay(t *testing.T) {
	m, _, _ := newTestModel(t, &ridestest.Fetcher{})

	m = update(t, m, busyMsg{Busy: true, Message: "Searching rides from Lyon to Paris", Active: 1})
	assert.Contains(t, m.View(), "Searching rides from Lyon to Paris")

	m = update(t, m, busyMsg{Busy: false, Message: "Searching rides from Lyon to Paris"})
	assert.NotContains(t, m.View(), "Searching rides")
}

func TestUpdate_BusyWithoutMessageShowsDefault(t *testing.T) {
	m, _, _ := newTestModel(t, &ridestest.Fetcher{})

	m = update(t, m, busyMsg{Busy: true, Active: 1})
	assert.Contains(t, m.View(), defaultBusyMessage)
}

func TestSwap_IgnoresRequestsWhileAnimating(t *testing.T) {
	m, _, _ := newTestModel(t, &ridestest.Fetcher{})

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.True(t, m.swapping)

	m, cmd = updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd, "second swap while animating should be dropped")

	// Typing is ignored during the animation.
	m = update(t, m, runes("x"))
	assert.Equal(t, "Lyon", m.inputs[fieldOrigin].Value())

	m = update(t, m, swapDoneMsg{})
	assert.False(t, m.swapping)
	assert.Equal(t, "Paris", m.inputs[fieldOrigin].Value())
	assert.Equal(t, "Lyon", m.inputs[fieldDestination].Value())

	// A stray completion does not swap back.
	m = update(t, m, swapDoneMsg{})
	assert.Equal(t, "Paris", m.inputs[fieldOrigin].Value())
}

func TestSubmitSearch_RequiresBothFields(t *testing.T) {
	fetcher := &ridestest.Fetcher{}
	m, _, _ := newTestModel(t, fetcher)
	m.inputs[fieldDestination].SetValue("  ")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, m.noticeIsError)
	assert.Equal(t, fieldDestination, m.focusIdx)
	assert.Zero(t, fetcher.Calls("SearchTrips"))
}

func TestSubmitSearch_TracksBusyAndShowsResults(t *testing.T) {
	fetcher := &ridestest.Fetcher{Results: []rides.Trip{
		ridestest.Trip("t1", "Lyon", "Paris"),
		ridestest.Trip("t2", "Lyon", "Paris"),
	}}
	m, coord, log := newTestModel(t, fetcher)

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, focusResults, m.focusIdx)

	msg := cmd()
	result, ok := msg.(searchResultMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, []string{"Searching rides from Lyon to Paris"}, log.messages())
	require.Eventually(t, func() bool { return !coord.Busy() }, time.Second, 5*time.Millisecond,
		"search should end its busy operation")

	require.Len(t, fetcher.Searched, 1)
	assert.Equal(t, "Lyon", fetcher.Searched[0].Origin)
	assert.Equal(t, 1, fetcher.Searched[0].Seats)

	m = update(t, m, result)
	assert.Len(t, m.results, 2)
	assert.Equal(t, "2 rides found", m.notice)
	assert.Equal(t, "Lyon", m.prefs.LastOrigin)
	assert.Contains(t, m.View(), "Lyon → Paris")

	saved := prefs.Load(m.prefsPath)
	assert.Equal(t, "Lyon", saved.LastOrigin)
	assert.Equal(t, "Paris", saved.LastDestination)
}

func TestBook_AddsBookingToStore(t *testing.T) {
	fetcher := &ridestest.Fetcher{}
	m, _, log := newTestModel(t, fetcher)
	m.blurInputs()
	m = update(t, m, searchResultMsg{
		query: rides.SearchQuery{Origin: "Lyon", Destination: "Paris"},
		trips: []rides.Trip{ridestest.Trip("t1", "Lyon", "Paris")},
	})

	m, cmd := updateCmd(t, m, runes("b"))
	require.NotNil(t, cmd)

	booked, ok := cmd().(bookedMsg)
	require.True(t, ok)
	require.NoError(t, booked.err)
	assert.Equal(t, []string{"t1"}, fetcher.Booked)
	assert.Equal(t, []string{"Booking a seat to Paris"}, log.messages())

	m, cmd = updateCmd(t, m, booked)
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.results[0].SeatsAvailable)
	assert.False(t, m.noticeIsError)

	m = update(t, m, cmd())
	require.Len(t, m.snapshot.Bookings, 1)
	assert.Equal(t, "b-t1", m.snapshot.Bookings[0].ID)
}

func TestBook_FullTripIsRefused(t *testing.T) {
	fetcher := &ridestest.Fetcher{}
	m, _, _ := newTestModel(t, fetcher)
	m.blurInputs()
	full := ridestest.Trip("t1", "Lyon", "Paris")
	full.SeatsAvailable = 0
	m = update(t, m, searchResultMsg{trips: []rides.Trip{full}})

	m, cmd := updateCmd(t, m, runes("b"))
	assert.Nil(t, cmd)
	assert.True(t, m.noticeIsError)
	assert.Zero(t, fetcher.Calls("BookTrip"))
}

func TestCancel_OnlyCancellableBookings(t *testing.T) {
	fetcher := &ridestest.Fetcher{}
	m, _, _ := newTestModel(t, fetcher)
	m.blurInputs()
	m = update(t, m, runes("2"))
	require.Equal(t, ViewBookings, m.currentView)

	m = update(t, m, snapshotMsg(state.Snapshot{
		HasData:  true,
		Bookings: []rides.Booking{ridestest.Booking("b1", "completed"), ridestest.Booking("b2", "confirmed")},
	}))
	view := m.View()
	assert.Contains(t, view, "BOOKED")
	assert.Contains(t, view, "May")

	m, cmd := updateCmd(t, m, runes("c"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.notice, "cannot be cancelled")

	m = update(t, m, runes("j"))
	m, cmd = updateCmd(t, m, runes("c"))
	require.NotNil(t, cmd)

	cancelled, ok := cmd().(cancelledMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"b2"}, fetcher.Canceled)

	m, cmd = updateCmd(t, m, cancelled)
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	require.Len(t, m.snapshot.Bookings, 1)
	assert.Equal(t, "cancelled", m.snapshot.Bookings[0].Status)
}

func TestUnauthorizedShowsExpiredBanner(t *testing.T) {
	m, _, _ := newTestModel(t, &ridestest.Fetcher{})

	m = update(t, m, searchResultMsg{err: &rides.APIError{StatusCode: 401, Path: "/trips/search"}})

	assert.True(t, m.sessionExpired)
	assert.Contains(t, m.View(), "hitch login")
}

func TestAPIErrorShowsNotice(t *testing.T) {
	m, _, _ := newTestModel(t, &ridestest.Fetcher{})

	m = update(t, m, bookedMsg{err: errors.New("boom")})

	assert.True(t, m.noticeIsError)
	assert.Equal(t, "Booking failed: boom", m.notice)
	assert.False(t, m.sessionExpired)
}

func TestInit_LoadsThroughCoordinator(t *testing.T) {
	coord := busy.New(busy.Options{MinVisible: -1, MessageClearDelay: -1})
	log := &statusLog{}
	t.Cleanup(coord.Subscribe(log.record))

	var refreshed bool
	m := New(Options{
		Store: &state.Store{},
		Busy:  coord,
		Refresh: func(context.Context) error {
			refreshed = true
			return nil
		},
	})

	msg := m.refreshCmd("Loading your rides", false)()
	done, ok := msg.(refreshDoneMsg)
	require.True(t, ok)
	assert.True(t, refreshed)
	assert.False(t, done.manual)
	assert.Equal(t, []string{"Loading your rides"}, log.messages())
}

func TestTrackCmd_SkipsCancelledContext(t *testing.T) {
	coord := busy.New(busy.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	msg := trackCmd(ctx, coord, "Never", func(context.Context) tea.Msg {
		ran = true
		return nil
	})()

	assert.Nil(t, msg)
	assert.False(t, ran)
	assert.False(t, coord.Busy())
}

func TestKeys_ViewSwitchingAndHelp(t *testing.T) {
	m, _, _ := newTestModel(t, &ridestest.Fetcher{})

	// While typing, digits go to the field.
	m = update(t, m, runes("3"))
	assert.Equal(t, ViewSearch, m.currentView)
	assert.True(t, strings.HasSuffix(m.inputs[fieldOrigin].Value(), "3"))

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m = update(t, m, runes("3"))
	assert.Equal(t, ViewTrips, m.currentView)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewActivity, m.currentView)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, ViewTrips, m.currentView)

	m = update(t, m, runes("?"))
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = update(t, m, runes("x"))
	assert.False(t, m.showHelp)
}

func TestCycleTheme_PersistsPreference(t *testing.T) {
	m, _, _ := newTestModel(t, &ridestest.Fetcher{})
	m.blurInputs()

	m = update(t, m, runes("T"))

	assert.Equal(t, "Nightfox", m.theme.Name)
	saved := prefs.Load(m.prefsPath)
	assert.Equal(t, "Nightfox", saved.Theme)
	assert.Equal(t, "Lyon", saved.LastOrigin)
}

func TestVisibleRange(t *testing.T) {
	tests := []struct {
		selected, count, height int
		start, end              int
	}{
		{0, 5, 10, 0, 5},
		{0, 20, 5, 0, 5},
		{10, 20, 5, 8, 13},
		{19, 20, 5, 15, 20},
	}
	for _, tt := range tests {
		start, end := visibleRange(tt.selected, tt.count, tt.height)
		assert.Equal(t, tt.start, start, "start for %+v", tt)
		assert.Equal(t, tt.end, end, "end for %+v", tt)
	}
}

func TestRefresh_ThrottlesRepeatedPresses(t *testing.T) {
	calls := 0
	m := New(Options{
		Store:     &state.Store{},
		Busy:      busy.New(busy.Options{MinVisible: -1, MessageClearDelay: -1}),
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Refresh: func(context.Context) error {
			calls++
			return nil
		},
	})
	m.blurInputs()

	m, cmd := updateCmd(t, m, runes("r"))
	require.NotNil(t, cmd)
	done, ok := cmd().(refreshDoneMsg)
	require.True(t, ok)
	assert.True(t, done.manual)

	m, cmd = updateCmd(t, m, runes("r"))
	assert.Nil(t, cmd)
	assert.Equal(t, 1, calls)
	assert.Contains(t, m.notice, "Just refreshed")

	m, _ = updateCmd(t, m, done)
	assert.Equal(t, "Rides refreshed", m.notice)
}
