package rides

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Envelope[any]{Success: true, Data: data})
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != DefaultAPIURL {
		t.Fatalf("url = %q, want %q", u.String(), DefaultAPIURL)
	}

	u, err = parseBaseURL("example.com:1234/v1/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Path != "/v1" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL returned nil error for missing host")
	}
}

func TestClient_FetchesEndpointsAndEncodesQueries(t *testing.T) {
	t.Parallel()

	var (
		mu          sync.Mutex
		gotSearch   url.Values
		gotAuth     []string
		gotAgents   []string
		gotRequests []string
		gotBooking  map[string]any
		gotPaths    []string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		gotAgents = append(gotAgents, r.Header.Get("User-Agent"))
		gotRequests = append(gotRequests, r.Header.Get("X-Request-ID"))
		gotPaths = append(gotPaths, r.Method+" "+r.URL.Path)
		mu.Unlock()

		switch r.URL.Path {
		case "/api/trips/search":
			mu.Lock()
			gotSearch = r.URL.Query()
			mu.Unlock()
			writeEnvelope(w, Page[Trip]{Items: []Trip{{ID: "t1", SeatsAvailable: 3}}, Total: 1, Page: 1, PageSize: 20})
		case "/api/trips/mine":
			writeEnvelope(w, Page[Trip]{Items: []Trip{{ID: "t2"}, {ID: "t3"}}})
		case "/api/bookings":
			if r.Method == http.MethodPost {
				body, _ := io.ReadAll(r.Body)
				mu.Lock()
				_ = json.Unmarshal(body, &gotBooking)
				mu.Unlock()
				writeEnvelope(w, Booking{ID: "b9", TripID: "t1", Seats: 2, Status: "pending"})
				return
			}
			writeEnvelope(w, Page[Booking]{Items: []Booking{{ID: "b1", Status: "confirmed"}}})
		case "/api/bookings/b1/cancel":
			writeEnvelope(w, nil)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL+"/api", WithToken(" secret "))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if !c.HasToken() {
		t.Fatalf("HasToken = false, want true")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	trips, err := c.SearchTrips(ctx, SearchQuery{
		Origin:      " Lyon ",
		Destination: "Paris",
		Date:        time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SearchTrips returned error: %v", err)
	}
	if len(trips) != 1 || trips[0].ID != "t1" {
		t.Fatalf("SearchTrips = %#v, want 1 trip id=t1", trips)
	}
	mu.Lock()
	if gotSearch.Get("origin") != "Lyon" ||
		gotSearch.Get("destination") != "Paris" ||
		gotSearch.Get("date") != "2024-05-17" ||
		gotSearch.Get("seats") != "1" ||
		gotSearch.Get("page") != "1" {
		t.Fatalf("SearchTrips query = %v, want params encoded", gotSearch)
	}
	mu.Unlock()

	mine, err := c.FetchTrips(ctx)
	if err != nil {
		t.Fatalf("FetchTrips returned error: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("FetchTrips = %#v, want 2 trips", mine)
	}

	bookings, err := c.FetchBookings(ctx)
	if err != nil {
		t.Fatalf("FetchBookings returned error: %v", err)
	}
	if len(bookings) != 1 || bookings[0].ID != "b1" {
		t.Fatalf("FetchBookings = %#v, want b1", bookings)
	}

	booking, err := c.BookTrip(ctx, "t1", 2)
	if err != nil {
		t.Fatalf("BookTrip returned error: %v", err)
	}
	mu.Lock()
	if booking.ID != "b9" || gotBooking["tripId"] != "t1" || gotBooking["seats"] != float64(2) {
		t.Fatalf("BookTrip = %#v body=%v, want b9 for t1 x2", booking, gotBooking)
	}
	mu.Unlock()

	if err := c.CancelBooking(ctx, "b1"); err != nil {
		t.Fatalf("CancelBooking returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(gotPaths) != 5 || gotPaths[3] != "POST /api/bookings" || gotPaths[4] != "POST /api/bookings/b1/cancel" {
		t.Fatalf("paths = %v", gotPaths)
	}
	seen := map[string]bool{}
	for i := range gotAuth {
		if gotAuth[i] != "Bearer secret" {
			t.Fatalf("Authorization = %q, want bearer token", gotAuth[i])
		}
		if !strings.HasPrefix(gotAgents[i], "hitch/") {
			t.Fatalf("User-Agent = %q, want hitch/*", gotAgents[i])
		}
		if _, err := uuid.Parse(gotRequests[i]); err != nil {
			t.Fatalf("X-Request-ID = %q, want uuid", gotRequests[i])
		}
		if seen[gotRequests[i]] {
			t.Fatalf("X-Request-ID %q reused", gotRequests[i])
		}
		seen[gotRequests[i]] = true
	}
}

type countingTransport struct {
	mu    sync.Mutex
	calls int
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.next.RoundTrip(r)
}

func TestClient_SearchTripsFollowsPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		total     int
		wantTrips int
		wantCalls int
	}{
		{name: "single page", total: 2, wantTrips: 2, wantCalls: 1},
		{name: "three pages", total: 5, wantTrips: 5, wantCalls: 3},
		{name: "capped", total: 1000, wantTrips: 2 * maxSearchPages, wantCalls: maxSearchPages},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			const pageSize = 2
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n, _ := strconv.Atoi(r.URL.Query().Get("page"))
				var items []Trip
				for i := (n - 1) * pageSize; i < n*pageSize && i < tt.total; i++ {
					items = append(items, Trip{ID: "t" + strconv.Itoa(i)})
				}
				writeEnvelope(w, Page[Trip]{Items: items, Total: tt.total, Page: n, PageSize: pageSize})
			}))
			t.Cleanup(server.Close)

			transport := &countingTransport{next: server.Client().Transport}
			c, err := NewClient(server.URL, WithHTTPClient(&http.Client{Transport: transport}))
			if err != nil {
				t.Fatalf("NewClient returned error: %v", err)
			}

			trips, err := c.SearchTrips(context.Background(), SearchQuery{Origin: "Lyon", Destination: "Paris"})
			if err != nil {
				t.Fatalf("SearchTrips returned error: %v", err)
			}
			if len(trips) != tt.wantTrips {
				t.Fatalf("SearchTrips returned %d trips, want %d", len(trips), tt.wantTrips)
			}
			if trips[0].ID != "t0" || trips[len(trips)-1].ID != "t"+strconv.Itoa(tt.wantTrips-1) {
				t.Fatalf("SearchTrips order = %v..%v", trips[0].ID, trips[len(trips)-1].ID)
			}
			transport.mu.Lock()
			defer transport.mu.Unlock()
			if transport.calls != tt.wantCalls {
				t.Fatalf("requests = %d, want %d", transport.calls, tt.wantCalls)
			}
		})
	}
}

func TestClient_AuthEndpoints(t *testing.T) {
	t.Parallel()

	bodies := map[string]map[string]string{}
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			bodies[r.URL.Path] = body
			mu.Unlock()
		}
		switch r.URL.Path {
		case "/auth/sign-in":
			writeEnvelope(w, Session{AccessToken: "tok", User: User{Email: "ana@example.com"}})
		case "/auth/sign-up":
			writeEnvelope(w, User{ID: "u1", Email: "ana@example.com"})
		case "/auth/me":
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(Envelope[any]{Message: "token missing"})
				return
			}
			writeEnvelope(w, User{ID: "u1"})
		case "/auth/forgot-password", "/auth/reset-password", "/auth/verify-email":
			writeEnvelope(w, nil)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	session, err := c.SignIn(ctx, "ana@example.com", "pw")
	if err != nil || session.AccessToken != "tok" {
		t.Fatalf("SignIn = %#v, %v; want token", session, err)
	}
	if _, err := c.SignUp(ctx, SignUpRequest{Email: "ana@example.com", Password: "pw", FirstName: "Ana"}); err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if err := c.RequestPasswordReset(ctx, "ana@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset returned error: %v", err)
	}
	if err := c.ResetPassword(ctx, "reset-tok", "new"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}
	if err := c.VerifyEmail(ctx, "123456"); err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}

	mu.Lock()
	if bodies["/auth/sign-in"]["password"] != "pw" ||
		bodies["/auth/sign-up"]["firstName"] != "Ana" ||
		bodies["/auth/reset-password"]["token"] != "reset-tok" ||
		bodies["/auth/verify-email"]["code"] != "123456" {
		t.Fatalf("bodies = %v", bodies)
	}
	mu.Unlock()

	_, err = c.Me(ctx)
	if !IsUnauthorized(err) {
		t.Fatalf("Me error = %v, want unauthorized", err)
	}
	if !strings.Contains(err.Error(), "token missing") {
		t.Fatalf("Me error = %q, want envelope message", err.Error())
	}
}

func TestClient_ValidatesInputs(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := c.SearchTrips(ctx, SearchQuery{Origin: "Lyon"}); err == nil {
		t.Fatalf("SearchTrips returned nil error without destination")
	}
	if _, err := c.BookTrip(ctx, "t1", 0); err == nil {
		t.Fatalf("BookTrip returned nil error for zero seats")
	}
	if _, err := c.BookTrip(ctx, " ", 1); err == nil {
		t.Fatalf("BookTrip returned nil error for empty id")
	}
	if err := c.CancelBooking(ctx, ""); err == nil {
		t.Fatalf("CancelBooking returned nil error for empty id")
	}
	if _, err := c.SignIn(ctx, "", "pw"); err == nil {
		t.Fatalf("SignIn returned nil error for empty email")
	}
	if err := c.VerifyEmail(ctx, ""); err == nil {
		t.Fatalf("VerifyEmail returned nil error for empty code")
	}

	var nilClient *Client
	if _, err := nilClient.FetchBookings(ctx); err == nil {
		t.Fatalf("nil client FetchBookings returned nil error")
	}
	if nilClient.HasToken() || c.HasToken() {
		t.Fatalf("HasToken = true without a token")
	}
	blank, _ := NewClient("127.0.0.1:1", WithToken("   "))
	if blank.HasToken() {
		t.Fatalf("HasToken = true for a blank token")
	}
}

func TestClient_HTTPErrorDecodeErrorAndEnvelopeFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bookings":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/trips/mine":
			http.Error(w, "nope", http.StatusInternalServerError)
		case "/trips/search":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(Envelope[any]{Success: false, Message: "no rides on that day"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	_, err = c.FetchBookings(ctx)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchBookings error = %v, want decode response error", err)
	}

	_, err = c.FetchTrips(ctx)
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("FetchTrips error = %v, want status 500 error", err)
	}
	if IsUnauthorized(err) {
		t.Fatalf("IsUnauthorized(%v) = true, want false", err)
	}

	_, err = c.SearchTrips(ctx, SearchQuery{Origin: "a", Destination: "b"})
	if err == nil || !strings.Contains(err.Error(), "no rides on that day") {
		t.Fatalf("SearchTrips error = %v, want envelope message", err)
	}
}
