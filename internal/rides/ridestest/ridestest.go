// Package ridestest provides fixtures and an in-memory rides.Fetcher for tests.
package ridestest

import (
	"context"
	"fmt"
	"sync"

	"github.com/five82/hitch/internal/rides"
)

// Trip builds a trip between two named places with seats left.
func Trip(id, origin, destination string) rides.Trip {
	return rides.Trip{
		ID:             id,
		Origin:         rides.Location{Name: origin},
		Destination:    rides.Location{Name: destination},
		DepartureAt:    "2024-05-17T08:30:00Z",
		SeatsTotal:     3,
		SeatsAvailable: 2,
		PricePerSeat:   18,
		Currency:       "EUR",
		Status:         "scheduled",
		Driver:         rides.Driver{ID: "d1", Name: "Chloé", Rating: 4.8},
	}
}

// Booking builds a one-seat booking with the given status.
func Booking(id, status string) rides.Booking {
	trip := Trip("t-"+id, "Lyon", "Paris")
	return rides.Booking{
		ID:         id,
		TripID:     trip.ID,
		Trip:       trip,
		Seats:      1,
		Status:     status,
		TotalPrice: trip.PricePerSeat,
		CreatedAt:  "2024-05-10T12:00:00Z",
	}
}

// Fetcher is an in-memory rides.Fetcher. Set the exported fields to script
// responses; calls are counted.
type Fetcher struct {
	mu sync.Mutex

	Bookings    []rides.Booking
	Trips       []rides.Trip
	Results     []rides.Trip
	Err         error
	BookingsErr error

	calls    map[string]int
	Searched []rides.SearchQuery
	Booked   []string
	Canceled []string
}

var _ rides.Fetcher = (*Fetcher)(nil)

// Calls returns how many times the named method ran.
func (f *Fetcher) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *Fetcher) count(method string) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[method]++
}

func (f *Fetcher) FetchBookings(ctx context.Context) ([]rides.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("FetchBookings")
	if f.BookingsErr != nil {
		return nil, f.BookingsErr
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]rides.Booking(nil), f.Bookings...), ctx.Err()
}

func (f *Fetcher) FetchTrips(ctx context.Context) ([]rides.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("FetchTrips")
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]rides.Trip(nil), f.Trips...), ctx.Err()
}

func (f *Fetcher) SearchTrips(ctx context.Context, query rides.SearchQuery) ([]rides.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("SearchTrips")
	f.Searched = append(f.Searched, query)
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]rides.Trip(nil), f.Results...), ctx.Err()
}

func (f *Fetcher) BookTrip(ctx context.Context, tripID string, seats int) (rides.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("BookTrip")
	if f.Err != nil {
		return rides.Booking{}, f.Err
	}
	f.Booked = append(f.Booked, tripID)
	b := Booking(fmt.Sprintf("b-%s", tripID), "pending")
	b.TripID = tripID
	b.Seats = seats
	return b, ctx.Err()
}

func (f *Fetcher) CancelBooking(ctx context.Context, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("CancelBooking")
	if f.Err != nil {
		return f.Err
	}
	f.Canceled = append(f.Canceled, bookingID)
	return ctx.Err()
}
