package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/repository"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/service"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/middleware"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var showStart = time.Date(2026, 11, 20, 19, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

// fakeFeed hands out a pre-filled channel per subscription
type fakeFeed struct {
	payloads [][]byte
	err      error
	stopped  bool
}

func (f *fakeFeed) Subscribe(_ context.Context, _ string) (<-chan []byte, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	ch := make(chan []byte, len(f.payloads))
	for _, p := range f.payloads {
		ch <- p
	}
	close(ch)
	return ch, func() { f.stopped = true }, nil
}

type apiFixture struct {
	store  *repository.MemoryStore
	clock  *fixedClock
	feed   *fakeFeed
	router *gin.Engine
}

// newAPIFixture serves the API backed by a seeded MemoryStore. Venue v-1 has
// 100 seats of capacity with 95 allocated and session s-1 at showStart.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := repository.NewMemoryStore()
	store.AddVenue(domain.Venue{ID: "v-1", Name: "Grand Hall", Capacity: 100})
	store.SetSeatCount("v-1", 95)
	store.AddEvent(domain.Event{ID: "e-1", VenueID: "v-1", Name: "Symphony No. 9"})
	store.AddSession(domain.Session{
		ID:        "s-1",
		EventID:   "e-1",
		Name:      "Evening",
		StartTime: showStart,
		EndTime:   showStart.Add(2 * time.Hour),
	})
	store.AddOperator(domain.Operator{ID: "op-1", DisplayName: "Gate A"})

	seat := "B-12"
	store.AddTicket(domain.Ticket{
		ID: "t-1", Code: "GOOD-1", Status: domain.TicketStatusSold, SessionID: "s-1",
		SeatLabel: &seat, Holder: domain.Holder{Name: "Ada Lovelace"},
	})
	usedAt := showStart.Add(-time.Hour)
	usedBy := "op-1"
	store.AddTicket(domain.Ticket{
		ID: "t-2", Code: "USED-1", Status: domain.TicketStatusSold, SessionID: "s-1",
		CheckedInAt: &usedAt, CheckedInBy: &usedBy, Holder: domain.Holder{Name: "Alan Turing"},
	})
	store.AddTicket(domain.Ticket{
		ID: "t-3", Code: "VOID-1", Status: domain.TicketStatusCancelled, SessionID: "s-1",
	})

	low, empty := 2, 0
	store.AddProduct(domain.Product{ID: "p-1", VenueID: "v-1", Name: "Programme", Stock: &low, IsActive: true})
	store.AddProduct(domain.Product{ID: "p-2", VenueID: "v-1", Name: "Poster", Stock: &empty, IsActive: true})

	store.AddAlert(domain.AlertDefinition{
		ID: "a-1", VenueID: "v-1", Name: "Nearly full", Category: domain.AlertCategoryCapacity,
		Threshold: 90, IsActive: true,
	})

	f := &apiFixture{
		store: store,
		clock: &fixedClock{now: showStart.Add(-30 * time.Minute)},
		feed:  &fakeFeed{},
	}

	checkIn := service.NewCheckInService(&service.CheckInServiceConfig{
		Tickets:      store.Tickets(),
		Sessions:     store.Sessions(),
		Operators:    store.Operators(),
		Clock:        f.clock,
		StoreTimeout: time.Second,
	})
	validation := service.NewValidationService(&service.ValidationServiceConfig{
		Venues:       store.Venues(),
		Sessions:     store.Sessions(),
		Seats:        store.Seats(),
		Products:     store.Products(),
		StoreTimeout: time.Second,
	})
	alerts := service.NewAlertService(&service.AlertServiceConfig{
		Alerts:       store.Alerts(),
		Venues:       store.Venues(),
		Validation:   validation,
		Clock:        f.clock,
		StoreTimeout: time.Second,
	})

	routes := &Routes{
		CheckIn:    NewCheckInHandler(checkIn),
		Stream:     NewStreamHandler(checkIn, f.feed, time.Hour, nil),
		Validation: NewValidationHandler(validation, 10),
		Alert:      NewAlertHandler(alerts),
	}

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(fakeAuth())
	routes.Register(api, middleware.RequireRole(string(domain.RoleAdmin)), nil)

	f.router = router
	return f
}

// fakeAuth stands in for the JWT middleware, reading identity from headers
func fakeAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if op := c.GetHeader("X-Test-Operator"); op != "" {
			c.Set(middleware.ContextKeyOperatorID, op)
		}
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(middleware.ContextKeyRole, role)
		}
		c.Next()
	}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, operator, role string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if operator != "" {
		req.Header.Set("X-Test-Operator", operator)
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w, resp
}

func decodeData(t *testing.T, resp apiResponse, v any) {
	t.Helper()
	require.True(t, resp.Success)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

// streamRecorder adds the CloseNotifier that gin's Stream requires
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

var _ http.CloseNotifier = (*streamRecorder)(nil)
