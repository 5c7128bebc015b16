// Package busy coordinates the "something is happening" indicator shown by
// Hitch while API calls are in flight.
//
// # Overview
//
// A Coordinator counts operations that are in progress and exposes a single
// boolean busy signal plus an optional status message. The TUI renders a
// spinner overlay from that signal; the CLI prints the message to stderr.
//
// A plain boolean breaks as soon as two calls overlap: the first call to
// finish would clear the flag while the second is still running. Counting
// fixes that, and a minimum visible duration keeps fast calls from flashing
// the overlay for a single frame.
//
// # States
//
//	IDLE          active == 0, not visible
//	BUSY          active  > 0, visible
//	COOLING_DOWN  active == 0, visible, hide timer pending
//
//	IDLE         --Begin-->       BUSY
//	BUSY         --Begin/End>0--> BUSY
//	BUSY         --End==0-->      COOLING_DOWN
//	COOLING_DOWN --Begin-->       BUSY          (hide cancelled)
//	COOLING_DOWN --timer-->       IDLE          (message cleared later)
//
// # Timing
//
// When the last operation ends, the hide is scheduled for whatever remains of
// MinVisible since the indicator was shown, or immediately if that window has
// already passed. Showing is never delayed.
//
// Hiding happens in two steps. The busy flag drops first; the message is
// cleared MessageClearDelay later, so an exit transition renders against
// stable text. The clear is only scheduled once the hide has fired, and a
// Begin in between cancels both.
//
// # Usage
//
//	coord := busy.New(busy.Options{})
//	unsubscribe := coord.Subscribe(func(s busy.Status) {
//		program.Send(busyMsg(s))
//	})
//	defer unsubscribe()
//
//	err := coord.Do("Searching rides", func() error {
//		trips, err = client.SearchTrips(ctx, query)
//		return err
//	})
//
// # Concurrency
//
// All methods are safe for concurrent use. Listeners are invoked outside the
// state lock, one delivery at a time, always with the latest Status.
// A listener must not call Begin or End itself.
//
// Calling End more often than Begin is tolerated: the count is floored at
// zero and no extra hide is scheduled. A Begin without an End leaves the
// indicator up for good; that is the caller's bug to fix.
package busy
