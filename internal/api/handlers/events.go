package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/campus-events/server/internal/api/problem"
	"github.com/campus-events/server/internal/domain/events"
)

// EventsHandler serves the event catalog endpoints.
type EventsHandler struct {
	events *events.Service
	env    string
}

func NewEventsHandler(eventsService *events.Service, env string) *EventsHandler {
	return &EventsHandler{events: eventsService, env: env}
}

type createEventRequest struct {
	Title           string `json:"title" validate:"required,min=3,max=200"`
	Description     string `json:"description" validate:"required,min=10"`
	Category        string `json:"category" validate:"omitempty,max=100"`
	Location        string `json:"location" validate:"omitempty,max=200"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"omitempty,max=20"`
	ImageURL        string `json:"imageUrl" validate:"omitempty,url,max=500"`
	MaxParticipants int    `json:"maxParticipants" validate:"required,min=1,max=100000"`
}

type updateEventRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=3,max=200"`
	Description     *string `json:"description" validate:"omitempty,min=10"`
	Category        *string `json:"category" validate:"omitempty,max=100"`
	Location        *string `json:"location" validate:"omitempty,max=200"`
	Date            *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time            *string `json:"time" validate:"omitempty,max=20"`
	ImageURL        *string `json:"imageUrl" validate:"omitempty,url,max=500"`
	MaxParticipants *int    `json:"maxParticipants" validate:"omitempty,min=1,max=100000"`
	Status          *string `json:"status" validate:"omitempty,oneof=upcoming past"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// List handles GET /api/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, pagination, err := events.ParseFilters(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.events.List(r.Context(), filters, pagination)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := listEventsResponse{
		Events: make([]eventResponse, 0, len(result.Events)),
		Total:  result.Total,
		Page:   result.Page,
		Limit:  result.Limit,
	}
	for _, event := range result.Events {
		resp.Events = append(resp.Events, toEventResponse(event))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.env)
	if !ok {
		return
	}

	event, err := h.events.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(*event))
}

// Create handles POST /api/events. Admin only, enforced by middleware.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}
	if !validateStruct(w, r, req, h.env) {
		return
	}

	eventDate, err := time.Parse(dateFormat, req.Date)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Failed", nil, h.env,
			problem.WithErrors(map[string]interface{}{"date": "must match format " + dateFormat}))
		return
	}

	actor, _ := actorFromRequest(r)
	event, err := h.events.Create(r.Context(), events.CreateParams{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Location:        req.Location,
		EventDate:       eventDate,
		EventTime:       req.Time,
		ImageURL:        req.ImageURL,
		MaxParticipants: req.MaxParticipants,
		CreatedBy:       actor.ID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(*event))
}

// Update handles PUT /api/events/{id}. Admin only, enforced by middleware.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.env)
	if !ok {
		return
	}

	var req updateEventRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}
	if !validateStruct(w, r, req, h.env) {
		return
	}

	params := events.UpdateParams{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Location:        req.Location,
		EventTime:       req.Time,
		ImageURL:        req.ImageURL,
		MaxParticipants: req.MaxParticipants,
		Status:          req.Status,
	}
	if req.Date != nil {
		eventDate, err := time.Parse(dateFormat, *req.Date)
		if err != nil {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Failed", nil, h.env,
				problem.WithErrors(map[string]interface{}{"date": "must match format " + dateFormat}))
			return
		}
		params.EventDate = &eventDate
	}

	event, err := h.events.Update(r.Context(), id, params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(*event))
}

// Delete handles DELETE /api/events/{id}. Admin only, enforced by middleware.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.env)
	if !ok {
		return
	}

	if err := h.events.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

func (h *EventsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var filterErr events.FilterError
	switch {
	case errors.As(err, &filterErr):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Failed", nil, h.env,
			problem.WithErrors(map[string]interface{}{filterErr.Field: filterErr.Message}))
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event Not Found", err, h.env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Internal Server Error", err, h.env)
	}
}
