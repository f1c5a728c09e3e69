package registrations

import (
	"context"
	"time"

	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/Togather-Foundation/campus/internal/domain/events"
)

var (
	ErrNotFound  = domain.NotFound("registration not found")
	ErrDuplicate = domain.Conflict("duplicate registration")
	ErrFull      = domain.CapacityExceeded("event is full")
	ErrClosed    = domain.Validation("eventId", "event is not open for registration")
)

type Status int

const (
	StatusPending   Status = 0
	StatusApproved  Status = 1
	StatusCancelled Status = 2
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusCancelled
}

// Active registrations count against capacity and block duplicates.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type Registration struct {
	ID         int64
	UserID     int64
	EventID    int64
	Remark     string
	Status     Status
	CreateTime time.Time

	// Joined from users and events on reads.
	UserName       string
	StudentID      string
	Phone          string
	Major          string
	EventTitle     string
	EventCreatorID int64
}

type CreateParams struct {
	UserID  int64
	EventID int64
	Remark  string
}

type Filters struct {
	UserID  *int64
	EventID *int64
	Status  *Status
}

type Repository interface {
	GetEvent(ctx context.Context, eventID int64) (*events.Event, error)
	// LockEvent loads the event and holds its row lock until the surrounding
	// transaction ends. Registration writes for one event serialize on it.
	LockEvent(ctx context.Context, eventID int64) (*events.Event, error)
	HasActive(ctx context.Context, userID, eventID int64) (bool, error)
	CountActive(ctx context.Context, eventID int64) (int, error)
	// Create inserts a pending registration. It returns ErrDuplicate when an
	// active registration for the same user and event already exists.
	Create(ctx context.Context, params CreateParams) (*Registration, error)
	GetByID(ctx context.Context, id int64) (*Registration, error)
	LockByID(ctx context.Context, id int64) (*Registration, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Registration, error)
	List(ctx context.Context, filters Filters) ([]Registration, error)

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
