package ticket_api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"ms-concerts/internal/logger"
	"ms-concerts/internal/logscan"
	"ms-concerts/internal/models"
	"ms-concerts/internal/testutil"
	"ms-concerts/internal/tickets/db"
	qr "ms-concerts/internal/tickets/qr_generator"
	tickets "ms-concerts/internal/tickets/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logDay = time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)

type testServer struct {
	router http.Handler
	store  *db.DB
	logDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	log, err := logger.New(logger.Options{
		Dir:      dir,
		Terminal: io.Discard,
		Now:      func() time.Time { return logDay },
	})
	require.NoError(t, err)
	t.Cleanup(log.Close)

	store := testutil.NewSQLiteDB(t)
	svc := tickets.NewTicketService(store,
		tickets.WithLogger(log),
		tickets.WithQRGenerator(qr.NewQRGenerator("handler-test-secret")),
	)

	r := chi.NewRouter()
	r.Use(RequestLogger(log))
	NewHandler(svc, log).RegisterRoutes(r)
	return &testServer{router: r, store: store, logDir: dir}
}

func (s *testServer) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertDetail(t *testing.T, rec *httptest.ResponseRecorder, status int, detail string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	assert.Equal(t, detail, decode(t, rec)["detail"])
}

func (s *testServer) createConcert(t *testing.T, total int) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/concerts", map[string]interface{}{
		"name":          "Summer Fest",
		"date":          "2025-07-12T19:00:00",
		"venue":         "Riverside Park",
		"total_tickets": total,
		"price":         59.9,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Concert created successfully", body["message"])
	return body["concert_id"].(string)
}

func (s *testServer) createUser(t *testing.T, email string) string {
	t.Helper()
	q := url.Values{"email": {email}, "name": {"Fan"}}
	rec := s.do(t, http.MethodPost, "/users?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "User created successfully", body["message"])
	return body["user_id"].(string)
}

func (s *testServer) reserve(t *testing.T, concertID, userID string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, "/tickets/reserve", map[string]string{
		"concert_id": concertID,
		"user_id":    userID,
	})
}

func (s *testServer) reserveOK(t *testing.T, concertID, userID string) string {
	t.Helper()
	rec := s.reserve(t, concertID, userID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Ticket reserved successfully", body["message"])
	return body["ticket_id"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestLastTicketGoesToFirstReservation(t *testing.T) {
	s := newTestServer(t)
	concertID := s.createConcert(t, 1)
	userA := s.createUser(t, "a@example.com")
	userB := s.createUser(t, "b@example.com")

	s.reserveOK(t, concertID, userA)
	assertDetail(t, s.reserve(t, concertID, userB), http.StatusBadRequest, "No tickets available")

	rec := s.do(t, http.MethodGet, "/concerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var concerts []models.ConcertSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &concerts))
	require.Len(t, concerts, 1)
	assert.Equal(t, concertID, concerts[0].ID)
	assert.Equal(t, 0, concerts[0].AvailableTickets)
	assert.Equal(t, "Riverside Park", concerts[0].Venue)
}

func TestFullLifecycle(t *testing.T) {
	s := newTestServer(t)
	concertID := s.createConcert(t, 3)
	userID := s.createUser(t, "life@example.com")
	ticketID := s.reserveOK(t, concertID, userID)

	rec := s.do(t, http.MethodPost, "/tickets/"+ticketID+"/use", nil)
	assertDetail(t, rec, http.StatusBadRequest, "Ticket must be purchased before use")

	rec = s.do(t, http.MethodPost, "/tickets/purchase/"+ticketID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Ticket purchased successfully", decode(t, rec)["message"])

	rec = s.do(t, http.MethodPost, "/tickets/purchase/"+ticketID, nil)
	assertDetail(t, rec, http.StatusBadRequest, "Ticket already purchased")

	rec = s.do(t, http.MethodPost, "/tickets/"+ticketID+"/use", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Ticket marked as used", decode(t, rec)["message"])

	rec = s.do(t, http.MethodPost, "/tickets/cancel/"+ticketID, nil)
	assertDetail(t, rec, http.StatusBadRequest, "Used tickets cannot be cancelled")

	rec = s.do(t, http.MethodGet, "/tickets/"+ticketID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "used", decode(t, rec)["status"])
}

func TestCancelReturnsTicketToInventory(t *testing.T) {
	s := newTestServer(t)
	concertID := s.createConcert(t, 1)
	userID := s.createUser(t, "cancel@example.com")
	ticketID := s.reserveOK(t, concertID, userID)

	rec := s.do(t, http.MethodPost, "/tickets/cancel/"+ticketID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Ticket cancelled successfully", decode(t, rec)["message"])

	rec = s.do(t, http.MethodPost, "/tickets/cancel/"+ticketID, nil)
	assertDetail(t, rec, http.StatusBadRequest, "Ticket is already available")

	rec = s.do(t, http.MethodPost, "/tickets/purchase/"+ticketID, nil)
	assertDetail(t, rec, http.StatusBadRequest, "Ticket must be reserved before purchase")

	s.reserveOK(t, concertID, userID)
}

func TestNotFoundDetails(t *testing.T) {
	s := newTestServer(t)
	concertID := s.createConcert(t, 2)
	userID := s.createUser(t, "nf@example.com")

	assertDetail(t, s.reserve(t, "missing", userID), http.StatusNotFound, "Concert not found")
	assertDetail(t, s.reserve(t, concertID, "missing"), http.StatusNotFound, "User not found")

	for _, target := range []string{"/tickets/purchase/missing", "/tickets/cancel/missing", "/tickets/missing/use"} {
		assertDetail(t, s.do(t, http.MethodPost, target, nil), http.StatusNotFound, "Ticket not found")
	}
	assertDetail(t, s.do(t, http.MethodGet, "/tickets/missing", nil), http.StatusNotFound, "Ticket not found")
	assertDetail(t, s.do(t, http.MethodGet, "/concerts/missing/ticket-counts", nil), http.StatusNotFound, "Concert not found")
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "dup@example.com")

	rec := s.do(t, http.MethodPost, "/users", map[string]string{"email": "DUP@example.com", "name": "Again"})
	assertDetail(t, rec, http.StatusBadRequest, "Email already registered")
}

func TestCreateConcertValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/concerts", map[string]interface{}{
		"name": "Bad", "date": "2025-07-12", "venue": "Hall", "total_tickets": -5, "price": 10,
	})
	assertDetail(t, rec, http.StatusBadRequest, "Total_tickets must not be negative")

	rec = s.do(t, http.MethodPost, "/concerts", map[string]interface{}{
		"name": "Bad", "date": "next friday", "venue": "Hall", "total_tickets": 5, "price": 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	q := url.Values{"name": {"Query"}, "date": {"2025-09-01"}, "venue": {"Hall"}, "price": {"10"}}
	rec = s.do(t, http.MethodPost, "/concerts?"+q.Encode(), nil)
	assertDetail(t, rec, http.StatusBadRequest, "Total_tickets is required")

	q.Set("total_tickets", "10")
	rec = s.do(t, http.MethodPost, "/concerts?"+q.Encode(), nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestTicketCounts(t *testing.T) {
	s := newTestServer(t)
	concertID := s.createConcert(t, 5)
	userID := s.createUser(t, "count@example.com")
	s.reserveOK(t, concertID, userID)
	s.reserveOK(t, concertID, userID)

	rec := s.do(t, http.MethodGet, "/tickets/count", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode(t, rec)["total_count"])

	rec = s.do(t, http.MethodGet, "/concerts/"+concertID+"/ticket-counts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ConcertTicketCountsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, concertID, resp.ConcertID)
	require.Len(t, resp.Counts, 1)
	assert.Equal(t, 2, resp.Counts[0].ReservedCount)
}

func TestTicketQR(t *testing.T) {
	s := newTestServer(t)
	concertID := s.createConcert(t, 2)
	userID := s.createUser(t, "qr@example.com")
	ticketID := s.reserveOK(t, concertID, userID)

	rec := s.do(t, http.MethodGet, "/tickets/"+ticketID+"/qr", nil)
	assertDetail(t, rec, http.StatusBadRequest, "Ticket must be purchased before use")

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/tickets/purchase/"+ticketID, nil).Code)

	rec = s.do(t, http.MethodGet, "/tickets/"+ticketID+"/qr?size=128", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte("\x89PNG"), rec.Body.Bytes()[:4])

	rec = s.do(t, http.MethodGet, "/tickets/"+ticketID+"/qr?size=big", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/tickets/"+ticketID+"/use", nil).Code)
	rec = s.do(t, http.MethodGet, "/tickets/"+ticketID+"/qr", nil)
	assertDetail(t, rec, http.StatusBadRequest, "Ticket already used")
}

func TestTicketListings(t *testing.T) {
	s := newTestServer(t)
	concertID := s.createConcert(t, 3)
	userA := s.createUser(t, "list-a@example.com")
	userB := s.createUser(t, "list-b@example.com")
	first := s.reserveOK(t, concertID, userA)
	s.reserveOK(t, concertID, userA)
	s.reserveOK(t, concertID, userB)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/tickets/purchase/"+first, nil).Code)

	var list []models.Ticket
	rec := s.do(t, http.MethodGet, "/users/"+userA+"/tickets", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = s.do(t, http.MethodGet, "/concerts/"+concertID+"/tickets?status=purchased", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, first, list[0].ID)

	rec = s.do(t, http.MethodGet, "/concerts/"+concertID+"/tickets", nil)
	list = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 3)

	rec = s.do(t, http.MethodGet, "/concerts/"+concertID+"/tickets?status=lost", nil)
	assertDetail(t, rec, http.StatusBadRequest, "Status must be one of available, reserved, purchased or used")

	assertDetail(t, s.do(t, http.MethodGet, "/users/missing/tickets", nil), http.StatusNotFound, "User not found")
	assertDetail(t, s.do(t, http.MethodGet, "/concerts/missing/tickets", nil), http.StatusNotFound, "Concert not found")
}

func TestExecutionReport(t *testing.T) {
	s := newTestServer(t)
	concertID := s.createConcert(t, 1)
	userID := s.createUser(t, "report@example.com")
	s.reserveOK(t, concertID, userID)
	s.reserve(t, concertID, userID)

	day := logDay.Format(logscan.DateLayout)
	rec := s.do(t, http.MethodGet, "/reports/executions?start_date="+day+"&end_date="+day, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var counts logscan.Counts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, logscan.Counts{Successes: 3, Failures: 1}, counts)

	rec = s.do(t, http.MethodGet, "/reports/executions?start_date=2025-05-01&end_date="+day, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecutionReportIgnoresMarkersInRequests(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/concerts", map[string]interface{}{
		"name": logscan.SuccessMarker, "date": "2025-07-12", "venue": "Hall", "total_tickets": -1, "price": 10,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/tickets/purchase/"+url.PathEscape(logscan.SuccessMarker), nil)
	assertDetail(t, rec, http.StatusNotFound, "Ticket not found")

	day := logDay.Format(logscan.DateLayout)
	rec = s.do(t, http.MethodGet, "/reports/executions?start_date="+day+"&end_date="+day, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var counts logscan.Counts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, logscan.Counts{Successes: 0, Failures: 2}, counts)
}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.Bun.Close())

	rec := s.do(t, http.MethodGet, "/concerts", nil)
	assertDetail(t, rec, http.StatusInternalServerError, "Internal server error")
}
