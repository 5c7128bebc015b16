package rides

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Fetcher covers the ride endpoints the poller and TUI use.
// This interface is implemented by *Client and can be used for testing.
type Fetcher interface {
	FetchBookings(ctx context.Context) ([]Booking, error)
	FetchTrips(ctx context.Context) ([]Trip, error)
	SearchTrips(ctx context.Context, query SearchQuery) ([]Trip, error)
	BookTrip(ctx context.Context, tripID string, seats int) (Booking, error)
	CancelBooking(ctx context.Context, bookingID string) error
}

// Authenticator covers the account endpoints used by the CLI.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, req SignUpRequest) (User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	VerifyEmail(ctx context.Context, code string) error
	Me(ctx context.Context) (User, error)
}

// Ensure Client implements both interfaces at compile time.
var (
	_ Fetcher       = (*Client)(nil)
	_ Authenticator = (*Client)(nil)
)

// Client talks to the ride-booking HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	token     string
	log       logrus.FieldLogger
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithLogger routes request logging to log.
func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

const (
	DefaultAPIURL    = "http://127.0.0.1:8080/api"
	defaultUserAgent = "hitch/0.1"
	requestTimeout   = 10 * time.Second
	defaultSeats     = 1
	maxSearchPages   = 5
)

// NewClient builds a Client for the API rooted at apiURL.
func NewClient(apiURL string, opts ...ClientOption) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		log:       discardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// HasToken reports whether the client carries a session token.
func (c *Client) HasToken() bool {
	return c != nil && c.token != ""
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	if c == nil {
		return Session{}, fmt.Errorf("client is nil")
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, fmt.Errorf("email and password required")
	}
	body := map[string]string{"email": email, "password": password}
	return call[Session](ctx, c, http.MethodPost, &url.URL{Path: "/auth/sign-in"}, body)
}

// SignUp creates an account. The API sends a verification email.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (User, error) {
	if c == nil {
		return User{}, fmt.Errorf("client is nil")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return User{}, fmt.Errorf("email and password required")
	}
	return call[User](ctx, c, http.MethodPost, &url.URL{Path: "/auth/sign-up"}, req)
}

// RequestPasswordReset asks the API to email a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email required")
	}
	_, err := call[json.RawMessage](ctx, c, http.MethodPost, &url.URL{Path: "/auth/forgot-password"},
		map[string]string{"email": email})
	return err
}

// ResetPassword completes a reset using the emailed token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	token = strings.TrimSpace(token)
	if token == "" || password == "" {
		return fmt.Errorf("reset token and password required")
	}
	_, err := call[json.RawMessage](ctx, c, http.MethodPost, &url.URL{Path: "/auth/reset-password"},
		map[string]string{"token": token, "password": password})
	return err
}

// VerifyEmail confirms the address with the emailed code.
func (c *Client) VerifyEmail(ctx context.Context, code string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("verification code required")
	}
	_, err := call[json.RawMessage](ctx, c, http.MethodPost, &url.URL{Path: "/auth/verify-email"},
		map[string]string{"code": code})
	return err
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (User, error) {
	if c == nil {
		return User{}, fmt.Errorf("client is nil")
	}
	return call[User](ctx, c, http.MethodGet, &url.URL{Path: "/auth/me"}, nil)
}

// SearchTrips finds published trips between two places.
func (c *Client) SearchTrips(ctx context.Context, query SearchQuery) ([]Trip, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	origin := strings.TrimSpace(query.Origin)
	destination := strings.TrimSpace(query.Destination)
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("origin and destination required")
	}
	values := url.Values{}
	values.Set("origin", origin)
	values.Set("destination", destination)
	if !query.Date.IsZero() {
		values.Set("date", query.Date.Format(apiDateLayout))
	}
	seats := query.Seats
	if seats <= 0 {
		seats = defaultSeats
	}
	values.Set("seats", strconv.Itoa(seats))

	var trips []Trip
	for n := 1; n <= maxSearchPages; n++ {
		values.Set("page", strconv.Itoa(n))
		rel := &url.URL{Path: "/trips/search", RawQuery: values.Encode()}
		page, err := call[Page[Trip]](ctx, c, http.MethodGet, rel, nil)
		if err != nil {
			return nil, err
		}
		trips = append(trips, page.Items...)
		if !page.HasMore() || len(page.Items) == 0 {
			break
		}
	}
	return trips, nil
}

// FetchTrips lists trips published by the signed-in user.
func (c *Client) FetchTrips(ctx context.Context) ([]Trip, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	page, err := call[Page[Trip]](ctx, c, http.MethodGet, &url.URL{Path: "/trips/mine"}, nil)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// FetchBookings lists the signed-in user's bookings.
func (c *Client) FetchBookings(ctx context.Context) ([]Booking, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	page, err := call[Page[Booking]](ctx, c, http.MethodGet, &url.URL{Path: "/bookings"}, nil)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// BookTrip reserves seats on a trip.
func (c *Client) BookTrip(ctx context.Context, tripID string, seats int) (Booking, error) {
	if c == nil {
		return Booking{}, fmt.Errorf("client is nil")
	}
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return Booking{}, fmt.Errorf("trip id required")
	}
	if seats <= 0 {
		return Booking{}, fmt.Errorf("seats must be positive, got %d", seats)
	}
	body := struct {
		TripID string `json:"tripId"`
		Seats  int    `json:"seats"`
	}{TripID: tripID, Seats: seats}
	return call[Booking](ctx, c, http.MethodPost, &url.URL{Path: "/bookings"}, body)
}

// CancelBooking cancels a booking by id.
func (c *Client) CancelBooking(ctx context.Context, bookingID string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return fmt.Errorf("booking id required")
	}
	rel := &url.URL{Path: "/bookings/" + url.PathEscape(bookingID) + "/cancel"}
	_, err := call[json.RawMessage](ctx, c, http.MethodPost, rel, nil)
	return err
}

func call[T any](ctx context.Context, c *Client, method string, rel *url.URL, body any) (T, error) {
	var envelope Envelope[T]
	if err := c.doURL(ctx, method, rel, body, &envelope); err != nil {
		var zero T
		return zero, err
	}
	return envelope.Unwrap()
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body any, dest any) error {
	reqURL := c.baseURL.JoinPath(rel.Path)
	reqURL.RawQuery = rel.RawQuery

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	entry := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       rel.Path,
		"request_id": requestID,
	})
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		entry.WithError(err).Warn("request failed")
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	entry.WithField("status", resp.StatusCode).
		WithField("duration", time.Since(started)).
		Debug("request completed")

	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Path:       rel.Path,
			Message:    errorMessage(resp.Body),
		}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage pulls the envelope message out of an error body, if any.
func errorMessage(body io.Reader) string {
	var envelope Envelope[json.RawMessage]
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&envelope); err != nil {
		return ""
	}
	return strings.TrimSpace(envelope.Message)
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = DefaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func discardLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
