package cmd

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/campus/internal/audit"
	"github.com/Togather-Foundation/campus/internal/config"
	"github.com/Togather-Foundation/campus/internal/domain/events"
	"github.com/Togather-Foundation/campus/internal/domain/registrations"
	"github.com/Togather-Foundation/campus/internal/domain/users"
	"github.com/Togather-Foundation/campus/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// services holds the domain services shared by serve and the operator commands.
type services struct {
	pool          *pgxpool.Pool
	repo          *postgres.Repository
	events        *events.Service
	registrations *registrations.Ledger
	users         *users.Service
}

func openServices(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*services, error) {
	pool, err := postgres.Connect(ctx, cfg.Database.URL, int32(cfg.Database.MaxConnections))
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	auditLogger := audit.NewLogger(logger)
	return &services{
		pool: pool,
		repo: repo,
		events: events.NewService(repo.Events(),
			events.WithLocation(cfg.Location()),
			events.WithAuditLogger(auditLogger),
		),
		registrations: registrations.NewLedger(repo.Registrations(),
			registrations.WithAuditLogger(auditLogger),
		),
		users: users.NewService(repo.Users(), auditLogger, logger),
	}, nil
}

func (s *services) Close() {
	s.pool.Close()
}
