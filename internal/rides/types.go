package rides

import (
	"fmt"
	"strings"
	"time"
)

const apiDateLayout = "2006-01-02"

// Envelope is the wrapper every API response arrives in.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Unwrap returns Data when the envelope reports success.
func (e Envelope[T]) Unwrap() (T, error) {
	if !e.Success {
		var zero T
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			msg = "request was not successful"
		}
		return zero, &APIError{Message: msg}
	}
	return e.Data, nil
}

// Page is the paginated list payload used by list endpoints.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// HasMore reports whether further pages exist after this one.
func (p Page[T]) HasMore() bool {
	if p.PageSize <= 0 {
		return false
	}
	return p.Page*p.PageSize < p.Total
}

// User is the signed-in account.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone"`
	EmailVerified bool   `json:"emailVerified"`
}

// DisplayName returns "First Last", falling back to the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Session is returned by sign-in.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    string `json:"expiresAt"`
	User         User   `json:"user"`
}

// SignUpRequest is the payload for account creation.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}

// Location is a pickup or drop-off point.
type Location struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Label prefers the short name over the street address.
func (l Location) Label() string {
	if name := strings.TrimSpace(l.Name); name != "" {
		return name
	}
	return strings.TrimSpace(l.Address)
}

// Driver summarises who is offering a trip.
type Driver struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Rating  float64 `json:"rating"`
	Vehicle string  `json:"vehicle"`
}

// Trip is a published ride with seats for sale.
type Trip struct {
	ID             string   `json:"id"`
	Origin         Location `json:"origin"`
	Destination    Location `json:"destination"`
	DepartureAt    string   `json:"departureAt"`
	ArrivalAt      string   `json:"arrivalAt"`
	SeatsTotal     int      `json:"seatsTotal"`
	SeatsAvailable int      `json:"seatsAvailable"`
	PricePerSeat   float64  `json:"pricePerSeat"`
	Currency       string   `json:"currency"`
	Status         string   `json:"status"`
	Driver         Driver   `json:"driver"`
}

// ParsedDeparture returns DepartureAt as time.Time when possible.
func (t Trip) ParsedDeparture() time.Time {
	return parseTime(t.DepartureAt)
}

// Price formats the per-seat price with its currency.
func (t Trip) Price() string {
	currency := strings.ToUpper(strings.TrimSpace(t.Currency))
	if currency == "" {
		currency = "EUR"
	}
	return fmt.Sprintf("%.2f %s", t.PricePerSeat, currency)
}

// Booking is a reservation of seats on a trip.
type Booking struct {
	ID         string  `json:"id"`
	TripID     string  `json:"tripId"`
	Trip       Trip    `json:"trip"`
	Seats      int     `json:"seats"`
	Status     string  `json:"status"`
	TotalPrice float64 `json:"totalPrice"`
	CreatedAt  string  `json:"createdAt"`
}

// Cancellable reports whether the booking can still be cancelled.
func (b Booking) Cancellable() bool {
	switch strings.ToLower(strings.TrimSpace(b.Status)) {
	case "pending", "confirmed":
		return true
	default:
		return false
	}
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (b Booking) ParsedCreatedAt() time.Time {
	return parseTime(b.CreatedAt)
}

// SearchQuery filters trip search.
type SearchQuery struct {
	Origin      string
	Destination string
	Date        time.Time
	Seats       int
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(apiDateLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
