package events

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("event not found")

const (
	StatusUpcoming = "upcoming"
	StatusPast     = "past"
)

type Event struct {
	ID              int64
	Title           string
	Description     string
	Category        string
	Location        string
	EventDate       time.Time
	EventTime       string
	ImageURL        string
	MaxParticipants int
	RegisteredCount int
	Status          string
	CreatedBy       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SpotsLeft reports remaining capacity, never negative.
func (e *Event) SpotsLeft() int {
	left := e.MaxParticipants - e.RegisteredCount
	if left < 0 {
		return 0
	}
	return left
}

type Filters struct {
	Query    string
	Category string
	Status   string
}

type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

type ListResult struct {
	Events []Event
	Total  int
	Page   int
	Limit  int
}

type CreateParams struct {
	Title           string
	Description     string
	Category        string
	Location        string
	EventDate       time.Time
	EventTime       string
	ImageURL        string
	MaxParticipants int
	Status          string
	CreatedBy       int64
}

// UpdateParams carries partial updates; nil fields are left unchanged.
type UpdateParams struct {
	Title           *string
	Description     *string
	Category        *string
	Location        *string
	EventDate       *time.Time
	EventTime       *string
	ImageURL        *string
	MaxParticipants *int
	Status          *string
}

type Repository interface {
	List(ctx context.Context, filters Filters, pagination Pagination) (ListResult, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	Create(ctx context.Context, params CreateParams) (*Event, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*Event, error)
	Delete(ctx context.Context, id int64) error

	// MarkPast flips upcoming events whose date is before cutoff to past.
	// Returns the number of rows changed.
	MarkPast(ctx context.Context, cutoff time.Time) (int64, error)
}
