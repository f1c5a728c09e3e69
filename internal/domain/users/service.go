package users

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/campus/internal/audit"
	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/Togather-Foundation/campus/internal/sanitize"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CreateInput describes a user provisioned by an operator.
type CreateInput struct {
	Username  string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Name      string `json:"name" validate:"max=100"`
	Role      string `json:"role" validate:"required,oneof=student organizer reviewer admin"`
	College   string `json:"college" validate:"max=100"`
	StudentID string `json:"studentId" validate:"max=32"`
	Phone     string `json:"phone" validate:"max=32"`
	Major     string `json:"major" validate:"max=100"`
}

// ProfileInput is what a user may change about themselves. College and
// student id drive eligibility and stay operator-managed.
type ProfileInput struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Major *string `json:"major,omitempty" validate:"omitempty,max=100"`
}

// Service handles user provisioning and principal resolution.
type Service struct {
	repo      Repository
	validator *validator.Validate
	audit     *audit.Logger
	logger    zerolog.Logger
}

func NewService(repo Repository, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &Service{
		repo:      repo,
		validator: v,
		audit:     auditLogger,
		logger:    logger.With().Str("component", "users").Logger(),
	}
}

// Create provisions a user with a role.
func (s *Service) Create(ctx context.Context, input CreateInput) (*User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Name = sanitize.Text(strings.TrimSpace(input.Name))
	input.Role = strings.ToLower(strings.TrimSpace(input.Role))
	input.College = strings.TrimSpace(input.College)
	input.StudentID = strings.TrimSpace(input.StudentID)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Major = sanitize.Text(strings.TrimSpace(input.Major))

	if err := s.validator.Struct(input); err != nil {
		return nil, validationError(err)
	}
	role, _ := auth.ParseRole(input.Role)

	user, err := s.repo.Create(ctx, CreateParams{
		Username:  input.Username,
		Name:      input.Name,
		Role:      role,
		College:   input.College,
		StudentID: input.StudentID,
		Phone:     input.Phone,
		Major:     input.Major,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user created")
	s.audit.LogSuccess(ctx, "user.create", 0, "user", strconv.FormatInt(user.ID, 10), map[string]string{
		"username": user.Username,
		"role":     string(user.Role),
	})
	return user, nil
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, strings.TrimSpace(username))
}

// Principal resolves an authenticated user id to the principal passed to the
// event and registration services. Role, college and student id always come
// from the stored row, never from the token.
func (s *Service) Principal(ctx context.Context, id int64) (*auth.Principal, error) {
	if id <= 0 {
		return nil, domain.Unauthenticated("invalid subject")
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthenticated("user no longer exists")
		}
		return nil, fmt.Errorf("resolve principal %d: %w", id, err)
	}
	return user.Principal(), nil
}

// UpdateProfile changes the caller's own self-service fields.
func (s *Service) UpdateProfile(ctx context.Context, p *auth.Principal, input ProfileInput) (*User, error) {
	if p == nil {
		return nil, domain.Unauthenticated("login required")
	}
	if input.Name != nil {
		name := sanitize.Text(strings.TrimSpace(*input.Name))
		input.Name = &name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		input.Phone = &phone
	}
	if input.Major != nil {
		major := sanitize.Text(strings.TrimSpace(*input.Major))
		input.Major = &major
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if input.Name == nil && input.Phone == nil && input.Major == nil {
		return s.repo.GetByID(ctx, p.ID)
	}

	return s.repo.UpdateProfile(ctx, p.ID, ProfileParams{
		Name:  input.Name,
		Phone: input.Phone,
		Major: input.Major,
	})
}

// SetRole changes a user's role. It is an operator action with no principal.
func (s *Service) SetRole(ctx context.Context, id int64, role string) (*User, error) {
	parsed, ok := auth.ParseRole(role)
	if !ok {
		return nil, domain.Validation("role", "role must be one of student, organizer, reviewer, admin")
	}
	user, err := s.repo.SetRole(ctx, id, parsed)
	if err != nil {
		return nil, err
	}
	s.audit.LogSuccess(ctx, "user.role", 0, "user", strconv.FormatInt(id, 10), map[string]string{
		"role": string(parsed),
	})
	return user, nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.Validation("", err.Error())
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return domain.Validation(fe.Field(), fmt.Sprintf("%s is required", fe.Field()))
	case "oneof":
		return domain.Validation(fe.Field(), fmt.Sprintf("%s must be one of %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
	default:
		return domain.Validation(fe.Field(), fmt.Sprintf("invalid %s", fe.Field()))
	}
}
