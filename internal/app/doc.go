// Package app provides the orchestration layer for the Hitch application.
//
// # Overview
//
// This package wires together configuration, logging, the stored session,
// the rides API client, the busy coordinator, polling and the UI. It is the
// composition root where all dependencies are initialized and connected.
//
// # Components
//
//   - app.go: Bootstrap (shared with the CLI commands) and Run for the TUI
//   - poller.go: background refresh of bookings and trips with backoff
//   - report.go: prints busy messages for non-interactive commands
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read ~/.config/hitch/config.toml
//	       ├─────> logging.Open()       JSON log file
//	       ├─────> session.Load()       Bearer token (or HITCH_TOKEN)
//	       ├─────> rides.NewClient()    HTTP client
//	       ├─────> busy.New()           One coordinator per session
//	       ├─────> state.Store{}        Shared state container
//	       ├─────> Poller.Start()       Background updates
//	       └─────> ui.Run()             Start TUI (blocks)
//
//	Background Poller Loop:
//	┌─────────────────────────────────────────┐
//	│ Poller.run() goroutine                  │
//	│  ├─> FetchBookings() ┐ errgroup         │
//	│  ├─> FetchTrips()    ┘                  │
//	│  └─> store.Update()                     │
//	│      └─> UI reads store.Snapshot()      │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The first refresh is issued by the UI through the busy coordinator so the
// "Loading your rides" overlay covers it. After that the poller refreshes
// silently every PollInterval (default 30 seconds). Each consecutive
// failure doubles the wait, capped at five minutes, and a success resets it.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration or session file unreadable or invalid
//   - Log file cannot be opened
//   - No session token (the user must run `hitch login`)
//
// Recoverable errors (logged, polling continues):
//   - Periodic bookings or trips fetch failures
//   - Network timeouts during polling
package app
