package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/stretchr/testify/require"
)

func newEventsHandler(t *testing.T) (*EventsHandler, *mockEventRepo) {
	t.Helper()
	repo := newMockEventRepo()
	return NewEventsHandler(events.NewService(repo), testEnv), repo
}

func seedEvent(repo *mockEventRepo, status string, registered, capacity int) *events.Event {
	return repo.put(events.Event{
		Title:           "Spring Concert",
		Description:     "Live music on the main lawn.",
		EventDate:       time.Now().Add(72 * time.Hour),
		MaxParticipants: capacity,
		RegisteredCount: registered,
		Status:          status,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	})
}

func TestListEvents(t *testing.T) {
	handler, repo := newEventsHandler(t)
	seedEvent(repo, events.StatusUpcoming, 3, 50)
	seedEvent(repo, events.StatusPast, 10, 10)

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/events?status=upcoming", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp listEventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	require.Equal(t, 1, resp.Total)
	require.Equal(t, 47, resp.Events[0].SpotsLeft)
}

func TestListEventsRejectsBadStatus(t *testing.T) {
	handler, _ := newEventsHandler(t)

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/events?status=cancelled", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEvent(t *testing.T) {
	handler, repo := newEventsHandler(t)
	event := seedEvent(repo, events.StatusUpcoming, 0, 25)

	req := httptest.NewRequest(http.MethodGet, "/api/events/1", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, event.ID, resp.ID)
	require.Equal(t, "Spring Concert", resp.Title)
}

func TestGetEventNotFound(t *testing.T) {
	handler, _ := newEventsHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/events/999", nil)
	req.SetPathValue("id", "999")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEventBadID(t *testing.T) {
	handler, _ := newEventsHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/events/abc", nil)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEvent(t *testing.T) {
	handler, _ := newEventsHandler(t)

	body := `{
		"title": "Career Fair",
		"description": "Meet recruiters from over forty companies.",
		"category": "careers",
		"location": "Main Hall",
		"date": "2027-03-15",
		"time": "10:00",
		"maxParticipants": 500
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req = authedRequest(req, 7, string(auth.RoleAdmin), "Admin", "admin@example.com")
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Career Fair", resp.Title)
	require.Equal(t, "2027-03-15", resp.Date)
	require.Equal(t, events.StatusUpcoming, resp.Status)
	require.Equal(t, int64(7), resp.CreatedBy)
	require.Equal(t, 500, resp.SpotsLeft)
}

func TestCreateEventValidation(t *testing.T) {
	handler, _ := newEventsHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"short title", `{"title":"ab","description":"long enough text","date":"2027-03-15","maxParticipants":10}`},
		{"short description", `{"title":"Career Fair","description":"short","date":"2027-03-15","maxParticipants":10}`},
		{"bad date", `{"title":"Career Fair","description":"long enough text","date":"15/03/2027","maxParticipants":10}`},
		{"zero capacity", `{"title":"Career Fair","description":"long enough text","date":"2027-03-15","maxParticipants":0}`},
		{"capacity too large", `{"title":"Career Fair","description":"long enough text","date":"2027-03-15","maxParticipants":1000000}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(tc.body))
			req = authedRequest(req, 7, string(auth.RoleAdmin), "Admin", "admin@example.com")
			rec := httptest.NewRecorder()
			handler.Create(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateEvent(t *testing.T) {
	handler, repo := newEventsHandler(t)
	seedEvent(repo, events.StatusUpcoming, 20, 50)

	body := `{"title":"Spring Concert (Rescheduled)","maxParticipants":100}`
	req := httptest.NewRequest(http.MethodPut, "/api/events/1", strings.NewReader(body))
	req.SetPathValue("id", "1")
	req = authedRequest(req, 7, string(auth.RoleAdmin), "Admin", "admin@example.com")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Spring Concert (Rescheduled)", resp.Title)
	require.Equal(t, 100, resp.MaxParticipants)
}

func TestUpdateEventCapacityBelowRegistered(t *testing.T) {
	handler, repo := newEventsHandler(t)
	seedEvent(repo, events.StatusUpcoming, 20, 50)

	body := `{"maxParticipants":10}`
	req := httptest.NewRequest(http.MethodPut, "/api/events/1", strings.NewReader(body))
	req.SetPathValue("id", "1")
	req = authedRequest(req, 7, string(auth.RoleAdmin), "Admin", "admin@example.com")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "maxParticipants")
}

func TestDeleteEvent(t *testing.T) {
	handler, repo := newEventsHandler(t)
	seedEvent(repo, events.StatusUpcoming, 0, 10)

	req := httptest.NewRequest(http.MethodDelete, "/api/events/1", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	again := httptest.NewRequest(http.MethodDelete, "/api/events/1", nil)
	again.SetPathValue("id", "1")
	rec = httptest.NewRecorder()
	handler.Delete(rec, again)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
