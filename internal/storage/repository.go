package storage

import (
	"context"

	"github.com/Togather-Foundation/campus/internal/domain/events"
	"github.com/Togather-Foundation/campus/internal/domain/registrations"
	"github.com/Togather-Foundation/campus/internal/domain/users"
)

// Repository groups data access by domain.
type Repository interface {
	Events() events.Repository
	Registrations() registrations.Repository
	Users() users.Repository
	Ping(ctx context.Context) error

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
