package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/five82/hitch/internal/busy"
	"github.com/five82/hitch/internal/logtail"
	"github.com/five82/hitch/internal/prefs"
	"github.com/five82/hitch/internal/rides"
	"github.com/five82/hitch/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewSearch View = iota
	ViewBookings
	ViewTrips
	ViewActivity
	viewCount
)

// String returns the tab label.
func (v View) String() string {
	switch v {
	case ViewSearch:
		return "Search"
	case ViewBookings:
		return "Bookings"
	case ViewTrips:
		return "My trips"
	case ViewActivity:
		return "Activity"
	default:
		return "?"
	}
}

const (
	fieldOrigin = iota
	fieldDestination
	fieldCount

	// focusResults means no text field has focus.
	focusResults = -1
)

// manualRefreshEvery throttles the refresh key. Extra presses are dropped.
const manualRefreshEvery = 3 * time.Second

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    rides.Fetcher
	Store     *state.Store
	Busy      *busy.Coordinator
	Refresh   func(context.Context) error
	Log       logrus.FieldLogger
	LogFile   string
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    rides.Fetcher
	store     *state.Store
	busy      *busy.Coordinator
	refresh   func(context.Context) error
	log       logrus.FieldLogger
	logFile   string
	prefs     prefs.Prefs
	prefsPath string
	pollTick  time.Duration
	keys      keyMap

	refreshLimit *rate.Limiter

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	selected    [viewCount]int

	// Data state
	snapshot state.Snapshot
	activity []logtail.Entry

	// Busy overlay
	status  busy.Status
	spinner spinner.Model

	// Search form
	inputs   [fieldCount]textinput.Model
	focusIdx int
	swapping bool
	results  []rides.Trip
	searched bool

	// Footer notice
	notice        string
	noticeIsError bool

	sessionExpired bool
	showHelp       bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = time.Second
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	log := opts.Log
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	theme := GetTheme(opts.Prefs.Theme)

	m := Model{
		ctx:          ctx,
		client:       opts.Client,
		store:        opts.Store,
		busy:         opts.Busy,
		refresh:      opts.Refresh,
		log:          log,
		logFile:      opts.LogFile,
		prefs:        opts.Prefs,
		prefsPath:    prefsPath,
		pollTick:     pollTick,
		keys:         DefaultKeyMap(),
		refreshLimit: rate.NewLimiter(rate.Every(manualRefreshEvery), 1),
		theme:        theme,
		currentView:  ViewSearch,
		spinner:      newSpinner(theme),
	}
	m.initInputs()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		m.spinner.Tick,
		textinput.Blink,
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if cmd := m.refreshCmd("Loading your rides", false); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeInputs()
		return m, nil

	case busyMsg:
		m.status = busy.Status(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.clampSelection()
		return m, nil

	case swapDoneMsg:
		m.finishSwap()
		return m, nil

	case refreshDoneMsg:
		m.handleAPIError("refresh", msg.err)
		if msg.err == nil && msg.manual {
			m.setNotice("Rides refreshed", false)
		}
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil

	case searchResultMsg:
		return m.handleSearchResult(msg)

	case bookedMsg:
		return m.handleBooked(msg)

	case cancelledMsg:
		return m.handleCancelled(msg)

	case activityMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Debug("read activity log")
			return m, nil
		}
		m.activity = msg.entries
		m.clampSelection()
		return m, nil
	}

	// Forward everything else (cursor blink) to the focused field.
	if m.typing() {
		var cmd tea.Cmd
		m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.status.Busy {
		return m.renderBusyOverlay()
	}

	return m.renderMain()
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	if m.currentView == ViewActivity {
		if cmd := m.activityCmd(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, tickCmd(m.pollTick))

	return m, tea.Batch(cmds...)
}

// handleAPIError records a failed call in the footer and flips the expired
// session banner on 401s. It reports whether err was non-nil.
func (m *Model) handleAPIError(op string, err error) bool {
	if err == nil {
		return false
	}
	m.log.WithError(err).WithField("op", op).Warn("api call failed")
	if rides.IsUnauthorized(err) {
		m.sessionExpired = true
		m.setNotice("Session expired", true)
		return true
	}
	m.setNotice(fmt.Sprintf("%s failed: %v", capitalize(op), err), true)
	return true
}

func (m *Model) setNotice(text string, isError bool) {
	m.notice = text
	m.noticeIsError = isError
}

func (m *Model) clampSelection() {
	m.selected[ViewSearch] = clamp(m.selected[ViewSearch], len(m.results))
	m.selected[ViewBookings] = clamp(m.selected[ViewBookings], len(m.snapshot.Bookings))
	m.selected[ViewTrips] = clamp(m.selected[ViewTrips], len(m.snapshot.Trips))
	m.selected[ViewActivity] = clamp(m.selected[ViewActivity], len(m.activity))
}

// rowCount returns the number of selectable rows in the current view.
func (m Model) rowCount() int {
	switch m.currentView {
	case ViewSearch:
		return len(m.results)
	case ViewBookings:
		return len(m.snapshot.Bookings)
	case ViewTrips:
		return len(m.snapshot.Trips)
	case ViewActivity:
		return len(m.activity)
	default:
		return 0
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Run starts the Bubble Tea program. Busy coordinator transitions are
// forwarded into the program as busyMsg.
func Run(opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires a data store")
	}
	if opts.Client == nil {
		return fmt.Errorf("ui requires a rides client")
	}

	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))

	unsubscribe := opts.Busy.Subscribe(func(s busy.Status) {
		p.Send(busyMsg(s))
	})
	defer unsubscribe()

	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
