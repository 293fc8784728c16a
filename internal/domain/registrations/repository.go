package registrations

import (
	"context"
	"errors"
	"time"

	"github.com/campus-events/server/internal/domain/events"
)

var (
	ErrForbiddenRole     = errors.New("role not permitted to register")
	ErrEventClosed       = errors.New("event is closed to registration")
	ErrEventFull         = errors.New("event is at capacity")
	ErrAlreadyRegistered = errors.New("already registered for event")
	ErrNotRegistered     = errors.New("not registered for event")
)

type Registration struct {
	ID               int64
	UserID           int64
	EventID          int64
	ConfirmationCode string
	RegisteredAt     time.Time
}

// UserRegistration pairs a registration with its event for listing a
// user's registrations.
type UserRegistration struct {
	Registration Registration
	Event        events.Event
}

// Attendee is one registered user on an event's roster.
type Attendee struct {
	RegistrationID   int64
	UserID           int64
	Name             string
	Email            string
	ConfirmationCode string
	RegisteredAt     time.Time
}

type CreateParams struct {
	UserID           int64
	EventID          int64
	ConfirmationCode string
}

type Repository interface {
	// GetEventForUpdate reads the event row under an exclusive row lock.
	// Must be called inside WithTx; the lock is held until the
	// transaction ends.
	GetEventForUpdate(ctx context.Context, eventID int64) (*events.Event, error)

	Find(ctx context.Context, userID, eventID int64) (*Registration, error)
	Create(ctx context.Context, params CreateParams) (*Registration, error)
	Delete(ctx context.Context, id int64) error

	IncrementEventCount(ctx context.Context, eventID int64) error
	// DecrementEventCount lowers the count with a floor of zero and
	// reports whether the floor clamped the result.
	DecrementEventCount(ctx context.Context, eventID int64) (bool, error)

	ListByUser(ctx context.Context, userID int64) ([]UserRegistration, error)
	ListByEvent(ctx context.Context, eventID int64) ([]Attendee, error)

	// WithTx runs fn inside a single transaction. The Repository passed
	// to fn is bound to that transaction; fn returning an error rolls
	// everything back.
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
