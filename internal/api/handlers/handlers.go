package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/campus-events/server/internal/api/middleware"
	"github.com/campus-events/server/internal/api/problem"
	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/registrations"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const dateFormat = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON parses the request body, distinguishing oversized bodies
// from malformed ones.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, env string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeValidation, "Request Body Too Large", err, env)
			return false
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid Request Body", err, env)
		return false
	}
	return true
}

// validateStruct runs validator tags and writes a field-keyed problem
// response on failure.
func validateStruct(w http.ResponseWriter, r *http.Request, payload any, env string) bool {
	err := validate.Struct(payload)
	if err == nil {
		return true
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Failed", err, env)
		return false
	}

	fields := make(map[string]interface{}, len(invalid))
	for _, fieldErr := range invalid {
		fields[jsonFieldName(fieldErr)] = validationMessage(fieldErr)
	}
	problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Failed", nil, env,
		problem.WithErrors(fields))
	return false
}

func jsonFieldName(fieldErr validator.FieldError) string {
	name := fieldErr.Field()
	if name == "" {
		return "body"
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fieldErr.Param()
	case "max":
		return "must be at most " + fieldErr.Param()
	case "oneof":
		return "must be one of: " + fieldErr.Param()
	case "datetime":
		return "must match format " + fieldErr.Param()
	default:
		return "is invalid"
	}
}

// pathID parses the {id} path value as a positive integer.
func pathID(w http.ResponseWriter, r *http.Request, env string) (int64, bool) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid Request", errInvalidID, env)
		return 0, false
	}
	return id, true
}

var errInvalidID = errors.New("id must be a positive integer")

// actorFromRequest builds the coordinator actor from validated claims.
func actorFromRequest(r *http.Request) (registrations.Actor, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return registrations.Actor{}, false
	}
	userID, err := claims.UserID()
	if err != nil {
		return registrations.Actor{}, false
	}
	return registrations.Actor{
		ID:    userID,
		Role:  auth.NormalizeRole(claims.Role),
		Name:  claims.Name,
		Email: claims.Email,
	}, true
}

type eventResponse struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category,omitempty"`
	Location        string `json:"location,omitempty"`
	Date            string `json:"date"`
	Time            string `json:"time,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
	MaxParticipants int    `json:"maxParticipants"`
	RegisteredCount int    `json:"registeredCount"`
	SpotsLeft       int    `json:"spotsLeft"`
	Status          string `json:"status"`
	CreatedBy       int64  `json:"createdBy,omitempty"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

func toEventResponse(event events.Event) eventResponse {
	return eventResponse{
		ID:              event.ID,
		Title:           event.Title,
		Description:     event.Description,
		Category:        event.Category,
		Location:        event.Location,
		Date:            event.EventDate.Format(dateFormat),
		Time:            event.EventTime,
		ImageURL:        event.ImageURL,
		MaxParticipants: event.MaxParticipants,
		RegisteredCount: event.RegisteredCount,
		SpotsLeft:       event.SpotsLeft(),
		Status:          event.Status,
		CreatedBy:       event.CreatedBy,
		CreatedAt:       event.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       event.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
