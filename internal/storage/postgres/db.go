package postgres

import (
	"context"
	"fmt"

	"github.com/campus-events/server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/registrations"
	"github.com/campus-events/server/internal/domain/users"
)

// conn routes queries to the open transaction when one is in flight,
// otherwise to the pool. All repositories embed it so tx-scoped and
// pool-scoped instances share the same query methods.
type conn struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (c conn) queryer() queryer {
	if c.tx != nil {
		return c.tx
	}
	return c.pool
}

type Repository struct {
	conn
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{conn{pool: pool}}, nil
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{r.conn}
}

func (r *Repository) Events() events.Repository {
	return &EventRepository{r.conn}
}

func (r *Repository) Registrations() registrations.Repository {
	return &RegistrationRepository{r.conn}
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{conn{pool: r.pool, tx: tx}}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type UserRepository struct {
	conn
}

type EventRepository struct {
	conn
}

type RegistrationRepository struct {
	conn
}

type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
