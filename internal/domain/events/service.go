package events

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/campus-events/server/internal/sanitize"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ParseFilters reads list query parameters and applies paging defaults.
func ParseFilters(values url.Values) (Filters, Pagination, error) {
	filters := Filters{
		Query:    strings.TrimSpace(values.Get("q")),
		Category: strings.TrimSpace(values.Get("category")),
	}
	pagination := Pagination{Page: 1, Limit: DefaultPageLimit}

	status := strings.ToLower(strings.TrimSpace(values.Get("status")))
	switch status {
	case "", StatusUpcoming, StatusPast:
		filters.Status = status
	default:
		return filters, pagination, FilterError{Field: "status", Message: "must be upcoming or past"}
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filters, pagination, FilterError{Field: "page", Message: "must be a positive integer"}
		}
		pagination.Page = page
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filters, pagination, FilterError{Field: "limit", Message: "must be a positive integer"}
		}
		if limit > MaxPageLimit {
			limit = MaxPageLimit
		}
		pagination.Limit = limit
	}

	return filters, pagination, nil
}

func (s *Service) List(ctx context.Context, filters Filters, pagination Pagination) (ListResult, error) {
	return s.repo.List(ctx, filters, pagination)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new event. The status is derived from the event date
// so a backdated event is immediately closed to registration.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Event, error) {
	params.Title = sanitize.Text(strings.TrimSpace(params.Title))
	params.Description = sanitize.HTML(strings.TrimSpace(params.Description))
	params.Category = sanitize.Text(strings.TrimSpace(params.Category))
	params.Location = sanitize.Text(strings.TrimSpace(params.Location))
	params.EventTime = strings.TrimSpace(params.EventTime)
	params.ImageURL = sanitize.Text(strings.TrimSpace(params.ImageURL))
	params.Status = DeriveStatus(params.EventDate, time.Now())

	return s.repo.Create(ctx, params)
}

func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*Event, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.MaxParticipants != nil && *params.MaxParticipants < current.RegisteredCount {
		return nil, FilterError{
			Field:   "maxParticipants",
			Message: fmt.Sprintf("cannot be below current registration count (%d)", current.RegisteredCount),
		}
	}

	if params.Title != nil {
		title := sanitize.Text(strings.TrimSpace(*params.Title))
		params.Title = &title
	}
	if params.Description != nil {
		description := sanitize.HTML(strings.TrimSpace(*params.Description))
		params.Description = &description
	}
	if params.Category != nil {
		category := sanitize.Text(strings.TrimSpace(*params.Category))
		params.Category = &category
	}
	if params.Location != nil {
		location := sanitize.Text(strings.TrimSpace(*params.Location))
		params.Location = &location
	}
	if params.EventTime != nil {
		eventTime := strings.TrimSpace(*params.EventTime)
		params.EventTime = &eventTime
	}
	if params.ImageURL != nil {
		imageURL := sanitize.Text(strings.TrimSpace(*params.ImageURL))
		params.ImageURL = &imageURL
	}
	if params.EventDate != nil && params.Status == nil {
		status := DeriveStatus(*params.EventDate, time.Now())
		params.Status = &status
	}

	return s.repo.Update(ctx, id, params)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// DeriveStatus classifies an event date relative to now, by calendar day.
func DeriveStatus(eventDate, now time.Time) string {
	y1, m1, d1 := eventDate.Date()
	y2, m2, d2 := now.Date()
	date := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	today := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return StatusPast
	}
	return StatusUpcoming
}
