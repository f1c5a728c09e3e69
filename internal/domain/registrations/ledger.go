package registrations

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Togather-Foundation/campus/internal/audit"
	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/Togather-Foundation/campus/internal/domain/events"
	"github.com/Togather-Foundation/campus/internal/metrics"
	"github.com/Togather-Foundation/campus/internal/sanitize"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxRemarkLength = 500

var tracer = otel.Tracer("github.com/Togather-Foundation/campus/internal/domain/registrations")

// Ledger records registrations and enforces the per-event capacity limit and
// the one-active-registration-per-user rule.
type Ledger struct {
	repo  Repository
	audit *audit.Logger
}

type Option func(*Ledger)

func WithAuditLogger(logger *audit.Logger) Option {
	return func(l *Ledger) {
		l.audit = logger
	}
}

func NewLedger(repo Repository, opts ...Option) *Ledger {
	l := &Ledger{repo: repo}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register creates a pending registration for p. The event row is locked for
// the whole check-and-insert, so concurrent attempts on one event are decided
// one at a time and the active count never exceeds the limit. Every failure
// rolls the transaction back.
func (l *Ledger) Register(ctx context.Context, p *auth.Principal, eventID int64, remark string) (_ *Registration, err error) {
	ctx, span := tracer.Start(ctx, "registrations.Register")
	span.SetAttributes(attribute.Int64("event.id", eventID))
	defer func() {
		span.SetAttributes(attribute.String("registration.outcome", registerOutcome(err)))
		if err != nil && !isClassified(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if p == nil {
		return nil, domain.Unauthenticated("login required")
	}
	if !p.Can(auth.OpRegister) {
		return nil, domain.Forbidden("registration is not allowed for this role")
	}
	if eventID <= 0 {
		return nil, domain.Validation("eventId", "eventId is required")
	}
	remark = sanitize.Text(strings.TrimSpace(remark))
	if utf8.RuneCountInString(remark) > maxRemarkLength {
		return nil, domain.Validation("remark", fmt.Sprintf("remark must be at most %d characters", maxRemarkLength))
	}

	var created *Registration
	err = l.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		lockStart := time.Now()
		event, err := repo.LockEvent(ctx, eventID)
		metrics.RegistrationLockWait.Observe(time.Since(lockStart).Seconds())
		if err != nil {
			return err
		}
		if event.Status == events.StatusDraft {
			return ErrClosed
		}
		if err := CheckEligibility(p, event).Err(); err != nil {
			return err
		}

		exists, err := repo.HasActive(ctx, p.ID, eventID)
		if err != nil {
			return fmt.Errorf("check existing registration: %w", err)
		}
		if exists {
			return ErrDuplicate
		}

		count, err := repo.CountActive(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count active registrations: %w", err)
		}
		if count >= event.Limit {
			return ErrFull
		}

		created, err = repo.Create(ctx, CreateParams{UserID: p.ID, EventID: eventID, Remark: remark})
		return err
	})

	metrics.RegistrationAttempts.WithLabelValues(registerOutcome(err)).Inc()
	if err != nil {
		if isClassified(err) {
			return nil, err
		}
		return nil, fmt.Errorf("register user %d for event %d: %w", p.ID, eventID, err)
	}

	zerolog.Ctx(ctx).Info().
		Int64("registration_id", created.ID).
		Int64("event_id", eventID).
		Int64("user_id", p.ID).
		Msg("registration created")
	return created, nil
}

// UpdateStatus moves a registration along pending -> approved -> cancelled.
// Capacity is not re-checked; it is enforced when the row is created.
func (l *Ledger) UpdateStatus(ctx context.Context, p *auth.Principal, id int64, status int) (*Registration, error) {
	if p == nil {
		return nil, domain.Unauthenticated("login required")
	}
	target := Status(status)
	if !target.Valid() {
		return nil, domain.Validation("status", "status must be 0, 1 or 2")
	}

	var (
		updated *Registration
		from    Status
	)
	err := l.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if !canManage(p, current) {
			return domain.Forbidden("only the event organizer or an admin can change registration status")
		}
		from = current.Status
		if from == target {
			updated = current
			return nil
		}
		if !transitionAllowed(from, target) {
			return domain.Validation("status", fmt.Sprintf("registration cannot move from %s to %s", from, target))
		}
		updated, err = repo.UpdateStatus(ctx, id, target)
		return err
	})
	if err != nil {
		if isClassified(err) {
			return nil, err
		}
		return nil, fmt.Errorf("update registration %d status: %w", id, err)
	}

	if from != target {
		metrics.RegistrationTransitions.WithLabelValues(target.String()).Inc()
		l.audit.LogSuccess(ctx, "registration.status", p.ID, "registration", strconv.FormatInt(id, 10), map[string]string{
			"from": from.String(),
			"to":   target.String(),
		})
	}
	return updated, nil
}

// List returns registrations visible to p. Admins may filter freely, an
// organizer may list one of their own events, everyone else sees only their
// own registrations.
func (l *Ledger) List(ctx context.Context, p *auth.Principal, filters Filters) ([]Registration, error) {
	if p == nil {
		return nil, domain.Unauthenticated("login required")
	}

	switch {
	case p.Can(auth.OpManageAnyRegistration):
	case filters.EventID != nil && p.Can(auth.OpManageOwnEventRegistrations):
		event, err := l.repo.GetEvent(ctx, *filters.EventID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("load event %d: %w", *filters.EventID, err)
		}
		if err != nil || !event.OwnedBy(p.ID) {
			filters.UserID = &p.ID
		}
	default:
		filters.UserID = &p.ID
	}

	items, err := l.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return items, nil
}

// Get returns one registration to its owner, the event's organizer or an admin.
func (l *Ledger) Get(ctx context.Context, p *auth.Principal, id int64) (*Registration, error) {
	if p == nil {
		return nil, domain.Unauthenticated("login required")
	}
	reg, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.UserID != p.ID && !canManage(p, reg) {
		return nil, ErrNotFound
	}
	return reg, nil
}

func canManage(p *auth.Principal, reg *Registration) bool {
	if p.Can(auth.OpManageAnyRegistration) {
		return true
	}
	return p.Can(auth.OpManageOwnEventRegistrations) && reg.EventCreatorID == p.ID
}

func transitionAllowed(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusCancelled
	case StatusApproved:
		return to == StatusCancelled
	default:
		return false
	}
}

func isClassified(err error) bool {
	var domainErr *domain.Error
	return errors.As(err, &domainErr)
}

func registerOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrClosed):
		return "draft"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, domain.ErrConflict):
		return "duplicate"
	case errors.Is(err, domain.ErrForbidden):
		if domain.ReasonOf(err) != "" {
			return "ineligible"
		}
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
