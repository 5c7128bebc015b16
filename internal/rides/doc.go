// Package rides provides an HTTP client for the ride-booking API.
//
// # Overview
//
// The client covers account management (sign in, sign up, password reset,
// email verification) and the ride endpoints behind the dashboard: trip
// search, the user's bookings, and the trips they publish as a driver.
//
//   - client.go: HTTP client, request building and envelope decoding
//   - types.go: data structures mirroring the API schema
//   - errors.go: APIError and helpers for classifying failures
//
// # Client Usage
//
//	client, err := rides.NewClient(cfg.APIURL, rides.WithToken(token))
//	if err != nil {
//		return fmt.Errorf("init rides client: %w", err)
//	}
//
//	trips, err := client.SearchTrips(ctx, rides.SearchQuery{
//		Origin:      "Lyon",
//		Destination: "Paris",
//	})
//
// # API Endpoints
//
// Paths are joined onto the configured API URL, so a base of
// https://host/api yields https://host/api/bookings and so on.
//
//   - POST /auth/sign-in, /auth/sign-up, /auth/forgot-password,
//     /auth/reset-password, /auth/verify-email
//   - GET  /auth/me
//   - GET  /trips/search, /trips/mine
//   - GET  /bookings, POST /bookings, POST /bookings/{id}/cancel
//
// Every response is wrapped in an Envelope. List endpoints carry a Page.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Send Accept: application/json and User-Agent: hitch/0.1
//   - Carry a fresh X-Request-ID so client and server logs can be joined
//   - Carry Authorization: Bearer <token> when a token is configured
//   - Have a 10-second timeout
//
// # Error Handling
//
// HTTP statuses >= 400 and envelopes with success=false both surface as
// *APIError. Use IsUnauthorized to detect an expired or missing session.
// Transport and decode failures are wrapped with fmt.Errorf and %w.
package rides
