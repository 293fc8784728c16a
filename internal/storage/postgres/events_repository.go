package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
)

var _ events.Repository = (*EventRepository)(nil)

const eventColumns = `id, title, description, category, location, event_date, event_time,
       image_url, max_participants, registered_count, status, created_by, created_at, updated_at`

func (r *EventRepository) List(ctx context.Context, filters events.Filters, pagination events.Pagination) (events.ListResult, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`, count(*) OVER() AS total
  FROM events
 WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
   AND ($2 = '' OR category = $2)
   AND ($3 = '' OR status = $3)
 ORDER BY event_date ASC, id ASC
 LIMIT $4 OFFSET $5
`,
		filters.Query,
		filters.Category,
		filters.Status,
		pagination.Limit,
		pagination.Offset(),
	)
	if err != nil {
		return events.ListResult{}, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	result := events.ListResult{Page: pagination.Page, Limit: pagination.Limit}
	items := make([]events.Event, 0, pagination.Limit)
	for rows.Next() {
		var (
			event events.Event
			total int
		)
		var createdBy *int64
		if err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&event.Category,
			&event.Location,
			&event.EventDate,
			&event.EventTime,
			&event.ImageURL,
			&event.MaxParticipants,
			&event.RegisteredCount,
			&event.Status,
			&createdBy,
			&event.CreatedAt,
			&event.UpdatedAt,
			&total,
		); err != nil {
			return events.ListResult{}, fmt.Errorf("scan events: %w", err)
		}
		if createdBy != nil {
			event.CreatedBy = *createdBy
		}
		result.Total = total
		items = append(items, event)
	}
	if err := rows.Err(); err != nil {
		return events.ListResult{}, fmt.Errorf("iterate events: %w", err)
	}

	result.Events = items
	return result, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*events.Event, error) {
	return scanEvent(r.queryer().QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE id = $1
`, id))
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	var createdBy any
	if params.CreatedBy > 0 {
		createdBy = params.CreatedBy
	}

	return scanEvent(r.queryer().QueryRow(ctx, `
INSERT INTO events (title, description, category, location, event_date, event_time,
                    image_url, max_participants, status, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING `+eventColumns+`
`,
		params.Title,
		params.Description,
		params.Category,
		params.Location,
		params.EventDate,
		params.EventTime,
		params.ImageURL,
		params.MaxParticipants,
		params.Status,
		createdBy,
	))
}

func (r *EventRepository) Update(ctx context.Context, id int64, params events.UpdateParams) (*events.Event, error) {
	event, err := scanEvent(r.queryer().QueryRow(ctx, `
UPDATE events
   SET title            = COALESCE($2, title),
       description      = COALESCE($3, description),
       category         = COALESCE($4, category),
       location         = COALESCE($5, location),
       event_date       = COALESCE($6, event_date),
       event_time       = COALESCE($7, event_time),
       image_url        = COALESCE($8, image_url),
       max_participants = COALESCE($9, max_participants),
       status           = COALESCE($10, status),
       updated_at       = now()
 WHERE id = $1
RETURNING `+eventColumns+`
`,
		id,
		params.Title,
		params.Description,
		params.Category,
		params.Location,
		params.EventDate,
		params.EventTime,
		params.ImageURL,
		params.MaxParticipants,
		params.Status,
	))
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) MarkPast(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET status = 'past', updated_at = now()
 WHERE status = 'upcoming'
   AND event_date < $1::date
`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("mark past events: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var event events.Event
	var createdBy *int64
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Category,
		&event.Location,
		&event.EventDate,
		&event.EventTime,
		&event.ImageURL,
		&event.MaxParticipants,
		&event.RegisteredCount,
		&event.Status,
		&createdBy,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	if createdBy != nil {
		event.CreatedBy = *createdBy
	}
	return &event, nil
}
