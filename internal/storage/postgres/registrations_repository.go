package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/registrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ registrations.Repository = (*RegistrationRepository)(nil)

// GetEventForUpdate takes the exclusive row lock that serializes all
// registration traffic against one event. Concurrent transactions on
// the same event queue here until the holder commits or rolls back.
func (r *RegistrationRepository) GetEventForUpdate(ctx context.Context, eventID int64) (*events.Event, error) {
	event, err := scanEvent(r.queryer().QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE id = $1
   FOR UPDATE
`, eventID))
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *RegistrationRepository) Find(ctx context.Context, userID, eventID int64) (*registrations.Registration, error) {
	var registration registrations.Registration
	err := r.queryer().QueryRow(ctx, `
SELECT id, user_id, event_id, confirmation_code, registered_at
  FROM registrations
 WHERE user_id = $1 AND event_id = $2
`, userID, eventID).Scan(
		&registration.ID,
		&registration.UserID,
		&registration.EventID,
		&registration.ConfirmationCode,
		&registration.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, registrations.ErrNotRegistered
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &registration, nil
}

func (r *RegistrationRepository) Create(ctx context.Context, params registrations.CreateParams) (*registrations.Registration, error) {
	var registration registrations.Registration
	err := r.queryer().QueryRow(ctx, `
INSERT INTO registrations (user_id, event_id, confirmation_code)
VALUES ($1, $2, $3)
RETURNING id, user_id, event_id, confirmation_code, registered_at
`, params.UserID, params.EventID, params.ConfirmationCode).Scan(
		&registration.ID,
		&registration.UserID,
		&registration.EventID,
		&registration.ConfirmationCode,
		&registration.RegisteredAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, registrations.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("create registration: %w", err)
	}
	return &registration, nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return registrations.ErrNotRegistered
	}
	return nil
}

func (r *RegistrationRepository) IncrementEventCount(ctx context.Context, eventID int64) error {
	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET registered_count = registered_count + 1, updated_at = now()
 WHERE id = $1
`, eventID)
	if err != nil {
		return fmt.Errorf("increment registered_count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

// DecrementEventCount floors the count at zero and reports whether the
// floor fired, so callers can log the anomaly.
func (r *RegistrationRepository) DecrementEventCount(ctx context.Context, eventID int64) (bool, error) {
	var previous int
	err := r.queryer().QueryRow(ctx, `
UPDATE events e
   SET registered_count = GREATEST(e.registered_count - 1, 0), updated_at = now()
  FROM (SELECT registered_count FROM events WHERE id = $1) prev
 WHERE e.id = $1
RETURNING prev.registered_count
`, eventID).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, events.ErrNotFound
		}
		return false, fmt.Errorf("decrement registered_count: %w", err)
	}
	return previous == 0, nil
}

func (r *RegistrationRepository) ListByUser(ctx context.Context, userID int64) ([]registrations.UserRegistration, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT r.id, r.user_id, r.event_id, r.confirmation_code, r.registered_at,
       e.id, e.title, e.description, e.category, e.location, e.event_date, e.event_time,
       e.image_url, e.max_participants, e.registered_count, e.status, e.created_at, e.updated_at
  FROM registrations r
  JOIN events e ON e.id = r.event_id
 WHERE r.user_id = $1
 ORDER BY e.event_date ASC, r.id ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations by user: %w", err)
	}
	defer rows.Close()

	var result []registrations.UserRegistration
	for rows.Next() {
		var item registrations.UserRegistration
		if err := rows.Scan(
			&item.Registration.ID,
			&item.Registration.UserID,
			&item.Registration.EventID,
			&item.Registration.ConfirmationCode,
			&item.Registration.RegisteredAt,
			&item.Event.ID,
			&item.Event.Title,
			&item.Event.Description,
			&item.Event.Category,
			&item.Event.Location,
			&item.Event.EventDate,
			&item.Event.EventTime,
			&item.Event.ImageURL,
			&item.Event.MaxParticipants,
			&item.Event.RegisteredCount,
			&item.Event.Status,
			&item.Event.CreatedAt,
			&item.Event.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user registration: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user registrations: %w", err)
	}
	return result, nil
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID int64) ([]registrations.Attendee, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT r.id, u.id, u.name, u.email, r.confirmation_code, r.registered_at
  FROM registrations r
  JOIN users u ON u.id = r.user_id
 WHERE r.event_id = $1
 ORDER BY r.registered_at ASC, r.id ASC
`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations by event: %w", err)
	}
	defer rows.Close()

	var result []registrations.Attendee
	for rows.Next() {
		var attendee registrations.Attendee
		if err := rows.Scan(
			&attendee.RegistrationID,
			&attendee.UserID,
			&attendee.Name,
			&attendee.Email,
			&attendee.ConfirmationCode,
			&attendee.RegisteredAt,
		); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		result = append(result, attendee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendees: %w", err)
	}
	return result, nil
}

func (r *RegistrationRepository) WithTx(ctx context.Context, fn func(context.Context, registrations.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &RegistrationRepository{conn{pool: r.pool, tx: tx}}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
