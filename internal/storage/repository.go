package storage

import (
	"context"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/registrations"
	"github.com/campus-events/server/internal/domain/users"
)

// Repository groups data access by domain.
type Repository interface {
	Users() users.Repository
	Events() events.Repository
	Registrations() registrations.Repository

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
