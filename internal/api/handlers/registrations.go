package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/campus-events/server/internal/api/problem"
	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/registrations"
	"github.com/campus-events/server/internal/metrics"
)

// RegistrationsHandler serves the registration endpoints backed by the
// transactional registration coordinator.
type RegistrationsHandler struct {
	registrations *registrations.Service
	env           string
}

func NewRegistrationsHandler(registrationsService *registrations.Service, env string) *RegistrationsHandler {
	return &RegistrationsHandler{registrations: registrationsService, env: env}
}

type registrationResponse struct {
	ID               int64  `json:"id"`
	UserID           int64  `json:"userId"`
	EventID          int64  `json:"eventId"`
	ConfirmationCode string `json:"confirmationCode"`
	RegisteredAt     string `json:"registeredAt"`
}

func toRegistrationResponse(reg registrations.Registration) registrationResponse {
	return registrationResponse{
		ID:               reg.ID,
		UserID:           reg.UserID,
		EventID:          reg.EventID,
		ConfirmationCode: reg.ConfirmationCode,
		RegisteredAt:     reg.RegisteredAt.UTC().Format(time.RFC3339),
	}
}

type attendeeResponse struct {
	RegistrationID   int64  `json:"registrationId"`
	UserID           int64  `json:"userId"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	ConfirmationCode string `json:"confirmationCode"`
	RegisteredAt     string `json:"registeredAt"`
}

// Register handles POST /api/events/{id}/register.
func (h *RegistrationsHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, h.env)
	if !ok {
		return
	}
	actor, ok := actorFromRequest(r)
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.env)
		return
	}

	registration, event, err := h.registrations.Register(r.Context(), actor, eventID)
	if err != nil {
		metrics.RecordRegistration("register", outcomeFor(err))
		h.writeError(w, r, err)
		return
	}
	metrics.RecordRegistration("register", "success")

	writeJSON(w, http.StatusCreated, map[string]any{
		"registration": toRegistrationResponse(*registration),
		"event":        toEventResponse(*event),
	})
}

// Unregister handles POST /api/events/{id}/unregister.
func (h *RegistrationsHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, h.env)
	if !ok {
		return
	}
	actor, ok := actorFromRequest(r)
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.env)
		return
	}

	event, err := h.registrations.Unregister(r.Context(), actor, eventID)
	if err != nil {
		metrics.RecordRegistration("unregister", outcomeFor(err))
		h.writeError(w, r, err)
		return
	}
	metrics.RecordRegistration("unregister", "success")

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "registration cancelled",
		"event":   toEventResponse(*event),
	})
}

// MyRegistrations handles GET /api/users/me/registrations.
func (h *RegistrationsHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.env)
		return
	}

	list, err := h.registrations.ListByUser(r.Context(), actor.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userRegistrationsPayload(list))
}

func userRegistrationsPayload(list []registrations.UserRegistration) map[string]any {
	items := make([]map[string]any, 0, len(list))
	for _, item := range list {
		items = append(items, map[string]any{
			"registration": toRegistrationResponse(item.Registration),
			"event":        toEventResponse(item.Event),
		})
	}
	return map[string]any{"registrations": items}
}

// UserRegistrations handles GET /api/users/{id}/registrations. Students
// may only view their own; admins may view anyone's.
func (h *RegistrationsHandler) UserRegistrations(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, h.env)
	if !ok {
		return
	}
	actor, ok := actorFromRequest(r)
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.env)
		return
	}
	if actor.ID != userID && !auth.IsAdmin(actor.Role) {
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", nil, h.env,
			problem.WithDetail("you may only view your own registrations"))
		return
	}

	list, err := h.registrations.ListByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userRegistrationsPayload(list))
}

// EventRegistrations handles GET /api/events/{id}/registrations.
// Admin only, enforced by middleware.
func (h *RegistrationsHandler) EventRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, h.env)
	if !ok {
		return
	}

	attendees, err := h.registrations.ListByEvent(r.Context(), eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]attendeeResponse, 0, len(attendees))
	for _, attendee := range attendees {
		resp = append(resp, attendeeResponse{
			RegistrationID:   attendee.RegistrationID,
			UserID:           attendee.UserID,
			Name:             attendee.Name,
			Email:            attendee.Email,
			ConfirmationCode: attendee.ConfirmationCode,
			RegisteredAt:     attendee.RegisteredAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"attendees": resp,
		"total":     len(resp),
	})
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, registrations.ErrForbiddenRole):
		return "forbidden_role"
	case errors.Is(err, registrations.ErrEventClosed):
		return "event_closed"
	case errors.Is(err, registrations.ErrEventFull):
		return "event_full"
	case errors.Is(err, registrations.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, registrations.ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, events.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (h *RegistrationsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, registrations.ErrForbiddenRole):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Registration Not Permitted", err, h.env,
			problem.WithDetail("admin accounts cannot register for events"))
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event Not Found", err, h.env)
	case errors.Is(err, registrations.ErrEventClosed):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Event Closed", err, h.env,
			problem.WithDetail("this event has already taken place"))
	case errors.Is(err, registrations.ErrEventFull):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Event Full", err, h.env,
			problem.WithDetail("this event has reached its participant limit"))
	case errors.Is(err, registrations.ErrAlreadyRegistered):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Already Registered", err, h.env,
			problem.WithDetail("you are already registered for this event"))
	case errors.Is(err, registrations.ErrNotRegistered):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Not Registered", err, h.env,
			problem.WithDetail("you are not registered for this event"))
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Internal Server Error", err, h.env)
	}
}
