package events

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Togather-Foundation/campus/internal/audit"
	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/Togather-Foundation/campus/internal/metrics"
	"github.com/Togather-Foundation/campus/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// EventInput is the payload accepted when creating an event.
type EventInput struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description" validate:"max=10000"`
	Cover           string   `json:"cover" validate:"max=1000"`
	Place           string   `json:"place" validate:"required,max=200"`
	StartTime       string   `json:"startTime" validate:"required"`
	EndTime         string   `json:"endTime" validate:"required"`
	Limit           int      `json:"limit" validate:"required,gt=0"`
	Status          *int     `json:"status,omitempty"`
	AllowedColleges []string `json:"allowedColleges" validate:"max=200,dive,max=100"`
	AllowedGrades   []string `json:"allowedGrades" validate:"max=50,dive,len=4,numeric"`
}

// EventPatch is a partial update. Only non-nil fields change.
type EventPatch struct {
	Title           *string   `json:"title,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Cover           *string   `json:"cover,omitempty"`
	Place           *string   `json:"place,omitempty"`
	StartTime       *string   `json:"startTime,omitempty"`
	EndTime         *string   `json:"endTime,omitempty"`
	Limit           *int      `json:"limit,omitempty"`
	Status          *int      `json:"status,omitempty"`
	AllowedColleges *[]string `json:"allowedColleges,omitempty"`
	AllowedGrades   *[]string `json:"allowedGrades,omitempty"`
}

// Service owns event records: creation, creator-scoped edits, deletion, the
// review gate and the visibility rules applied to reads.
type Service struct {
	repo      Repository
	validator *validator.Validate
	audit     *audit.Logger
	location  *time.Location
	now       func() time.Time
}

type Option func(*Service)

// WithLocation sets the zone used to read date-times without an offset.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithAuditLogger(logger *audit.Logger) Option {
	return func(s *Service) {
		s.audit = logger
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		validator: newValidator(),
		location:  time.UTC,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone event times are interpreted and rendered in.
func (s *Service) Location() *time.Location {
	return s.location
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Create stores a new event owned by the calling organizer. The review status
// always starts as pending regardless of input.
func (s *Service) Create(ctx context.Context, p *auth.Principal, input EventInput) (*Event, error) {
	if p == nil {
		return nil, domain.Unauthenticated("login required")
	}
	if !p.Can(auth.OpCreateEvent) {
		return nil, domain.Forbidden("only organizers can create events")
	}
	if p.ID <= 0 {
		return nil, domain.Validation("creatorId", "creator id must be a positive integer")
	}

	input = normalizeInput(input)
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	start, end, err := s.parseWindow(input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}

	status := StatusPublished
	if input.Status != nil {
		status = Status(*input.Status)
		if !status.Valid() {
			return nil, domain.Validation("status", "status must be 0 or 1")
		}
	}

	event, err := s.repo.Create(ctx, CreateParams{
		Title:           input.Title,
		Description:     input.Description,
		Cover:           input.Cover,
		Place:           input.Place,
		StartTime:       start,
		EndTime:         end,
		Limit:           input.Limit,
		Status:          status,
		AllowedColleges: input.AllowedColleges,
		AllowedGrades:   input.AllowedGrades,
		CreatorID:       p.ID,
	})
	if err != nil {
		metrics.EventOperations.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("create event: %w", err)
	}
	metrics.EventOperations.WithLabelValues("create", "success").Inc()
	zerolog.Ctx(ctx).Info().Int64("event_id", event.ID).Int64("creator_id", p.ID).Msg("event created")
	return event, nil
}

// Update applies patch to an event the caller may edit. Date-only times in the
// patch are normalized the same way as on create and the merged result must
// still be a valid event.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, patch EventPatch) (*Event, error) {
	existing, err := s.loadEditable(ctx, p, id)
	if err != nil {
		return nil, err
	}

	params, err := s.buildUpdate(existing, patch)
	if err != nil {
		return nil, err
	}
	if params.Empty() {
		return existing, nil
	}

	var updated *Event
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if params.Limit != nil {
			// Same row lock as registration, so no attempt lands between the
			// count and the new limit.
			if _, err := repo.LockByID(ctx, id); err != nil {
				return err
			}
			active, err := repo.CountActiveRegistrations(ctx, id)
			if err != nil {
				return fmt.Errorf("count active registrations: %w", err)
			}
			if *params.Limit < active {
				return domain.Conflict(fmt.Sprintf("limit %d is below the %d active registrations", *params.Limit, active))
			}
		}
		var err error
		updated, err = repo.Update(ctx, id, params)
		return err
	})
	if err != nil {
		metrics.EventOperations.WithLabelValues("update", outcomeOf(err)).Inc()
		var domainErr *domain.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, fmt.Errorf("update event %d: %w", id, err)
	}
	metrics.EventOperations.WithLabelValues("update", "success").Inc()
	return updated, nil
}

// SetStatus toggles an event between draft and published.
func (s *Service) SetStatus(ctx context.Context, p *auth.Principal, id int64, status int) (*Event, error) {
	value := Status(status)
	if !value.Valid() {
		return nil, domain.Validation("status", "status must be 0 or 1")
	}
	if _, err := s.loadEditable(ctx, p, id); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, UpdateParams{Status: &value})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("set event %d status: %w", id, err)
	}
	metrics.EventOperations.WithLabelValues("set_status", "success").Inc()
	return updated, nil
}

// Delete removes an event. Events that still hold pending or approved
// registrations are kept; the count and the delete happen under the event's
// row lock so a concurrent registration cannot slip in between.
func (s *Service) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	if p == nil {
		return domain.Unauthenticated("login required")
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		event, err := repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if !canEdit(p, event) {
			return domain.Forbidden("only the event creator can delete this event")
		}
		active, err := repo.CountActiveRegistrations(ctx, id)
		if err != nil {
			return fmt.Errorf("count active registrations: %w", err)
		}
		if active > 0 {
			return domain.Conflict("event has active registrations and cannot be deleted")
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		metrics.EventOperations.WithLabelValues("delete", outcomeOf(err)).Inc()
		return err
	}

	metrics.EventOperations.WithLabelValues("delete", "success").Inc()
	s.audit.LogSuccess(ctx, "event.delete", p.ID, "event", strconv.FormatInt(id, 10), nil)
	return nil
}

// List returns the events visible to viewer, which may be nil for anonymous callers.
func (s *Service) List(ctx context.Context, viewer *auth.Principal, filters Filters) ([]Event, error) {
	items, err := s.repo.List(ctx, scopeFilters(viewer, filters))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return items, nil
}

// Get returns one event if viewer may see it. Hidden events are reported as
// not found so their existence is not disclosed.
func (s *Service) Get(ctx context.Context, viewer *auth.Principal, id int64) (*Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(viewer, event) {
		return nil, ErrNotFound
	}
	return event, nil
}

func (s *Service) loadEditable(ctx context.Context, p *auth.Principal, id int64) (*Event, error) {
	if p == nil {
		return nil, domain.Unauthenticated("login required")
	}
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(p, event) {
		return nil, domain.Forbidden("only the event creator can modify this event")
	}
	return event, nil
}

func (s *Service) buildUpdate(existing *Event, patch EventPatch) (UpdateParams, error) {
	merged := inputFromEvent(existing, s.location)
	var params UpdateParams

	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Cover != nil {
		merged.Cover = *patch.Cover
	}
	if patch.Place != nil {
		merged.Place = *patch.Place
	}
	if patch.StartTime != nil {
		merged.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		merged.EndTime = *patch.EndTime
	}
	if patch.Limit != nil {
		merged.Limit = *patch.Limit
		if merged.Limit <= 0 {
			return params, domain.Validation("limit", "limit must be a positive integer")
		}
	}
	if patch.AllowedColleges != nil {
		merged.AllowedColleges = *patch.AllowedColleges
	}
	if patch.AllowedGrades != nil {
		merged.AllowedGrades = *patch.AllowedGrades
	}

	merged = normalizeInput(merged)
	if err := s.validateInput(merged); err != nil {
		return params, err
	}
	start, end, err := s.parseWindow(merged.StartTime, merged.EndTime)
	if err != nil {
		return params, err
	}

	if patch.Title != nil {
		params.Title = &merged.Title
	}
	if patch.Description != nil {
		params.Description = &merged.Description
	}
	if patch.Cover != nil {
		params.Cover = &merged.Cover
	}
	if patch.Place != nil {
		params.Place = &merged.Place
	}
	if patch.StartTime != nil {
		params.StartTime = &start
	}
	if patch.EndTime != nil {
		params.EndTime = &end
	}
	if patch.Limit != nil {
		params.Limit = &merged.Limit
	}
	if patch.Status != nil {
		status := Status(*patch.Status)
		if !status.Valid() {
			return params, domain.Validation("status", "status must be 0 or 1")
		}
		params.Status = &status
	}
	if patch.AllowedColleges != nil {
		params.AllowedColleges = &merged.AllowedColleges
	}
	if patch.AllowedGrades != nil {
		params.AllowedGrades = &merged.AllowedGrades
	}
	return params, nil
}

func (s *Service) validateInput(input EventInput) error {
	err := s.validator.Struct(input)
	if err == nil {
		if err := validation.ValidateImageRef(input.Cover, "cover"); err != nil {
			return domain.Validation("cover", "cover must be an http(s) URL or a site-relative path")
		}
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Validation("", err.Error())
	}

	var missing []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return domain.Validation(missing[0], "missing required fields: "+strings.Join(missing, ", "))
	}

	fe := fieldErrs[0]
	field := fe.Field()
	if strings.HasPrefix(fe.Namespace(), "EventInput.allowedGrades") {
		field = "allowedGrades"
		return domain.Validation(field, "allowedGrades entries must be 4-digit enrollment years")
	}
	if field == "limit" {
		return domain.Validation(field, "limit must be a positive integer")
	}
	return domain.Validation(field, fmt.Sprintf("invalid %s", field))
}

func (s *Service) parseWindow(startValue, endValue string) (time.Time, time.Time, error) {
	start, err := ParseDateTime("startTime", startValue, s.location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDateTime("endTime", endValue, s.location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, domain.Validation("endTime", "endTime must not be before startTime")
	}
	return start, end, nil
}

func inputFromEvent(e *Event, loc *time.Location) EventInput {
	return EventInput{
		Title:           e.Title,
		Description:     e.Description,
		Cover:           e.Cover,
		Place:           e.Place,
		StartTime:       FormatDateTime(e.StartTime, loc),
		EndTime:         FormatDateTime(e.EndTime, loc),
		Limit:           e.Limit,
		AllowedColleges: append([]string(nil), e.AllowedColleges...),
		AllowedGrades:   append([]string(nil), e.AllowedGrades...),
	}
}

func canEdit(p *auth.Principal, e *Event) bool {
	if p.Can(auth.OpEditAnyEvent) {
		return true
	}
	return p.Can(auth.OpEditOwnEvent) && e.OwnedBy(p.ID)
}

// scopeFilters narrows filters to what viewer may list: anonymous callers and
// students get approved events, organizers get their own events, reviewers and
// admins get everything.
func scopeFilters(viewer *auth.Principal, filters Filters) Filters {
	approved := ReviewApproved
	switch {
	case viewer.Can(auth.OpViewAllEvents):
	case viewer.Can(auth.OpCreateEvent) && !filters.Public:
		id := viewer.ID
		filters.CreatorID = &id
	default:
		filters.ReviewStatus = &approved
	}
	return filters
}

func visibleTo(viewer *auth.Principal, e *Event) bool {
	if e.ReviewStatus == ReviewApproved {
		return true
	}
	if viewer.Can(auth.OpViewAllEvents) {
		return true
	}
	return viewer.Can(auth.OpCreateEvent) && e.OwnedBy(viewer.ID)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
