// Package ui implements the Hitch terminal dashboard on Bubble Tea.
//
// The Model has four views: trip search, the passenger's bookings, the trips
// they offer as a driver, and the tail of the Hitch log. Data comes from the
// shared state.Store, which the poller refreshes in the background; the model
// re-reads a snapshot every PollTick.
//
// Every API call the user triggers (the first load, searches, bookings,
// cancellations, manual refreshes) runs through trackCmd, which brackets the
// call with Begin/End on the busy.Coordinator. Run subscribes to the
// coordinator and feeds each transition back into the program as a busyMsg;
// while Status.Busy is true the view is replaced by a spinner overlay
// showing the current message.
//
// Begin and End are only ever called from command goroutines. Calling them
// from Update would deadlock, because the subscription blocks on the
// program's message channel until Update returns.
package ui
