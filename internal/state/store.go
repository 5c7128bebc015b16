package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/hitch/internal/rides"
)

// Snapshot represents the latest dashboard data available to the UI.
type Snapshot struct {
	Bookings            []rides.Booking
	Trips               []rides.Trip
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive refresh failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(bookings []rides.Booking, trips []rides.Trip, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Bookings = cloneSlice(bookings)
	s.snapshot.Trips = cloneSlice(trips)
	s.snapshot.HasData = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// ReplaceBooking swaps in a booking by ID, or appends it when new. The TUI
// uses it to reflect a booking or cancellation before the next poll.
func (s *Store) ReplaceBooking(b rides.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.snapshot.Bookings {
		if s.snapshot.Bookings[i].ID == b.ID {
			s.snapshot.Bookings[i] = b
			return
		}
	}
	s.snapshot.Bookings = append(s.snapshot.Bookings, b)
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Bookings = cloneSlice(s.snapshot.Bookings)
	snap.Trips = cloneSlice(s.snapshot.Trips)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
