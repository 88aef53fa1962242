package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seatgrid/internal/booking"
	"github.com/iliyamo/seatgrid/internal/bookerr"
	"github.com/iliyamo/seatgrid/internal/lockstore"
	"github.com/iliyamo/seatgrid/internal/seatstore"
)

// fakeLockStore/fakeAdmissionCache/fakeStrategy mirror the in-memory fakes
// in internal/booking's own tests, reimplemented here against the exported
// booking.LockStore/AdmissionCache/CommitStrategy interfaces so a
// *booking.Coordinator can be wired into Dependencies without live
// Redis/MySQL.
type fakeLockStore struct {
	mu     sync.Mutex
	claims map[string]bool
}

func (f *fakeLockStore) TryClaim(_ context.Context, _ string, seatKeys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claims == nil {
		f.claims = map[string]bool{}
	}
	for _, id := range seatKeys {
		if f.claims[id] {
			return lockstore.ErrAlreadyClaimed
		}
	}
	for _, id := range seatKeys {
		f.claims[id] = true
	}
	return nil
}

func (f *fakeLockStore) Release(_ context.Context, _ string, seatKeys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range seatKeys {
		delete(f.claims, id)
	}
	return nil
}

type fakeAdmissionCache struct{}

func (fakeAdmissionCache) Peek(_ context.Context, _ string) (int, bool, error) { return 0, false, nil }
func (fakeAdmissionCache) Decrement(_ context.Context, _ string, _ int) error  { return nil }

type fakeStrategy struct {
	err error
}

func (s fakeStrategy) Commit(_ context.Context, _, _ string, _ []seatstore.RowCol) error {
	return s.err
}

func newTestHandlers(strategy fakeStrategy) *handlers {
	coord := booking.New(&fakeLockStore{}, fakeAdmissionCache{}, strategy, false)
	return &handlers{deps: &Dependencies{
		Coord:     coord,
		JWTSecret: "test-secret",
		AdminUser: "owner",
		AdminPass: "correct-horse",
	}}
}

func TestCreateBooking_Success(t *testing.T) {
	h := newTestHandlers(fakeStrategy{})
	e := echo.New()
	body := strings.NewReader(`{"eventId":"evt-1","userId":"user-1","seats":[{"row":"A","col":"1"},{"row":"A","col":"2"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/bookings", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.createBooking(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success   bool `json:"success"`
		SeatCount int  `json:"seatCount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.SeatCount != 2 {
		t.Fatalf("unexpected response body: %s", rec.Body.String())
	}
}

func TestCreateBooking_InvalidBody(t *testing.T) {
	h := newTestHandlers(fakeStrategy{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`not-json`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.createBooking(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateBooking_CommitConflictMapsToTypedStatus(t *testing.T) {
	h := newTestHandlers(fakeStrategy{err: bookerr.New(bookerr.CodeSeatsUnavailable, "already booked")})
	e := echo.New()
	body := strings.NewReader(`{"eventId":"evt-1","userId":"user-1","seats":[{"row":"A","col":"1"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/bookings", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.createBooking(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success {
		t.Fatalf("expected success=false on a conflict response")
	}
}

func TestCreateBooking_EmptySeatsIsInvalid(t *testing.T) {
	h := newTestHandlers(fakeStrategy{})
	e := echo.New()
	body := strings.NewReader(`{"eventId":"evt-1","userId":"user-1","seats":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/bookings", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.createBooking(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLogin_Success(t *testing.T) {
	h := newTestHandlers(fakeStrategy{})
	e := echo.New()
	body := strings.NewReader(`{"username":"owner","password":"correct-horse"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.login(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected a non-empty access token")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newTestHandlers(fakeStrategy{})
	e := echo.New()
	body := strings.NewReader(`{"username":"owner","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.login(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
