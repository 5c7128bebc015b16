// Package state provides thread-safe state management for Hitch.
//
// # Overview
//
// The Store shares the signed-in user's bookings and published trips between
// the background poller and the TUI. It is where polling updates meet
// rendering.
//
//	Producer (Poller):               Consumer (UI):
//	┌──────────────────┐            ┌──────────────────┐
//	│ FetchBookings()  │            │                  │
//	│ FetchTrips()     │            │                  │
//	│      ↓           │            │                  │
//	│ store.Update()   │───────────→│ store.Snapshot() │
//	│      ↓           │  (mutex)   │      ↓           │
//	│  repeat...       │            │  render views    │
//	└──────────────────┘            └──────────────────┘
//
// The TUI also writes through ReplaceBooking after a booking or cancellation
// succeeds, so the bookings view is current before the next poll lands.
//
// # Error Semantics
//
// A failed refresh keeps the previous bookings and trips and records the
// error. After two consecutive failures IsOffline reports true and the
// header shows an offline badge. The next success resets the counter.
//
// # Copy Semantics
//
// Snapshot returns cloned slices and a wrapped copy of LastError, so callers
// may hold or mutate a snapshot without affecting the store.
package state
