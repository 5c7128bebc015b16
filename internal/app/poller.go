package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/five82/hitch/internal/rides"
	"github.com/five82/hitch/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// Poller keeps the store's bookings and trips current.
type Poller struct {
	store    *state.Store
	fetcher  rides.Fetcher
	log      logrus.FieldLogger
	interval time.Duration
}

// NewPoller builds a Poller. A non-positive interval uses the default.
func NewPoller(store *state.Store, fetcher rides.Fetcher, log logrus.FieldLogger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		store:    store,
		fetcher:  fetcher,
		log:      log.WithField("component", "poller"),
		interval: interval,
	}
}

// Start launches a background goroutine that refreshes the store at a fixed
// cadence, backing off while the API keeps failing. It returns immediately;
// the first refresh is left to the caller.
func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	failures := 0
	for {
		timer := time.NewTimer(calculateBackoff(failures, p.interval))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := p.Refresh(ctx); err != nil {
			failures++
			continue
		}
		failures = 0
	}
}

// Refresh fetches bookings and trips concurrently and records the outcome in
// the store.
func (p *Poller) Refresh(ctx context.Context) error {
	var (
		bookings []rides.Booking
		trips    []rides.Trip
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bookings, err = p.fetcher.FetchBookings(gctx)
		if err != nil {
			return fmt.Errorf("fetch bookings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		trips, err = p.fetcher.FetchTrips(gctx)
		if err != nil {
			return fmt.Errorf("fetch trips: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		p.store.Update(nil, nil, err)
		p.log.WithError(err).Warn("refresh failed")
		return err
	}

	p.store.Update(bookings, trips, nil)
	p.log.WithFields(logrus.Fields{
		"bookings": len(bookings),
		"trips":    len(trips),
	}).Debug("refreshed")
	return nil
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
