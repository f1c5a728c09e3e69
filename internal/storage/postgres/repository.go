package postgres

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/campus/internal/domain/events"
	"github.com/Togather-Foundation/campus/internal/domain/registrations"
	"github.com/Togather-Foundation/campus/internal/domain/users"
	"github.com/Togather-Foundation/campus/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Repository = (*Repository)(nil)

// Repository implements storage.Repository with a PostgreSQL backend
type Repository struct {
	conn
}

// NewRepository creates a new PostgreSQL-backed repository
func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	return &Repository{conn: conn{pool: pool}}, nil
}

// Events returns the events repository
func (r *Repository) Events() events.Repository {
	return &EventRepository{conn: r.conn}
}

// Registrations returns the registrations repository
func (r *Repository) Registrations() registrations.Repository {
	return &RegistrationRepository{conn: r.conn}
}

// Users returns the users repository
func (r *Repository) Users() users.Repository {
	return &UserRepository{conn: r.conn}
}

// Ping checks database connectivity for readiness probes
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// WithTx executes a function within a database transaction
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	return r.inTx(ctx, func(c conn) error {
		return fn(ctx, &Repository{conn: c})
	})
}
