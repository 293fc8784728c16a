package registrations

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Actor identifies the caller of a registration operation. Name and
// Email are carried along for the confirmation notification.
type Actor struct {
	ID    int64
	Role  auth.Role
	Name  string
	Email string
}

// Notifier delivers a registration confirmation. Implementations must
// be safe for concurrent use; delivery failures are logged, not
// surfaced to the registrant.
type Notifier interface {
	RegistrationConfirmed(ctx context.Context, email, name string, event events.Event, confirmationCode string) error
}

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Register enrolls the actor in an event. The capacity check and the
// count increment happen under an exclusive lock on the event row, so
// concurrent registrations against the same event serialize and the
// count can never overshoot max_participants.
func (s *Service) Register(ctx context.Context, actor Actor, eventID int64) (*Registration, *events.Event, error) {
	if auth.IsAdmin(actor.Role) {
		return nil, nil, ErrForbiddenRole
	}

	var (
		registration *Registration
		event        *events.Event
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		locked, err := repo.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		if locked.Status == events.StatusPast || events.DeriveStatus(locked.EventDate, time.Now()) == events.StatusPast {
			return ErrEventClosed
		}
		if locked.RegisteredCount >= locked.MaxParticipants {
			return ErrEventFull
		}

		if _, err := repo.Find(ctx, actor.ID, eventID); err == nil {
			return ErrAlreadyRegistered
		} else if !errors.Is(err, ErrNotRegistered) {
			return err
		}

		created, err := repo.Create(ctx, CreateParams{
			UserID:           actor.ID,
			EventID:          eventID,
			ConfirmationCode: NewConfirmationCode(),
		})
		if err != nil {
			return err
		}
		if err := repo.IncrementEventCount(ctx, eventID); err != nil {
			return err
		}

		locked.RegisteredCount++
		registration = created
		event = locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.notify(ctx, actor, *event, registration.ConfirmationCode)
	return registration, event, nil
}

// Unregister removes the actor's registration. The event row is locked
// before the registration lookup so Register and Unregister always take
// locks in the same order.
func (s *Service) Unregister(ctx context.Context, actor Actor, eventID int64) (*events.Event, error) {
	if auth.IsAdmin(actor.Role) {
		return nil, ErrForbiddenRole
	}

	var event *events.Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		locked, err := repo.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		registration, err := repo.Find(ctx, actor.ID, eventID)
		if err != nil {
			return err
		}

		if err := repo.Delete(ctx, registration.ID); err != nil {
			return err
		}
		clamped, err := repo.DecrementEventCount(ctx, eventID)
		if err != nil {
			return err
		}
		if clamped {
			zerolog.Ctx(ctx).Warn().
				Int64("event_id", eventID).
				Msg("registered_count was already zero on unregister")
		} else {
			locked.RegisteredCount--
		}

		event = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]UserRegistration, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListByEvent(ctx context.Context, eventID int64) ([]Attendee, error) {
	return s.repo.ListByEvent(ctx, eventID)
}

func (s *Service) notify(ctx context.Context, actor Actor, event events.Event, code string) {
	if s.notifier == nil || actor.Email == "" {
		return
	}
	if err := s.notifier.RegistrationConfirmed(ctx, actor.Email, actor.Name, event, code); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Int64("event_id", event.ID).
			Msg("failed to send registration confirmation")
	}
}

// NewConfirmationCode returns a ULID string used as the registration's
// human-shareable reference.
func NewConfirmationCode() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
