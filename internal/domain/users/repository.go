package users

import (
	"context"
	"time"

	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/domain"
)

var (
	ErrNotFound      = domain.NotFound("user not found")
	ErrUsernameTaken = domain.Conflict("username is already taken")
)

// User is the identity row the principal is resolved from. Credentials live
// with the external identity provider and are never loaded here.
type User struct {
	ID         int64
	Username   string
	Name       string
	Role       auth.Role
	College    string
	StudentID  string
	Phone      string
	Major      string
	CreateTime time.Time
}

// Principal returns the authorization view of u.
func (u *User) Principal() *auth.Principal {
	return &auth.Principal{
		ID:        u.ID,
		Role:      auth.NormalizeRole(string(u.Role)),
		College:   u.College,
		StudentID: u.StudentID,
	}
}

type CreateParams struct {
	Username  string
	Name      string
	Role      auth.Role
	College   string
	StudentID string
	Phone     string
	Major     string
}

// ProfileParams holds the self-service columns; nil fields are left untouched.
type ProfileParams struct {
	Name  *string
	Phone *string
	Major *string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateProfile(ctx context.Context, id int64, params ProfileParams) (*User, error)
	SetRole(ctx context.Context, id int64, role auth.Role) (*User, error)
}
