package events

import (
	"context"
	"time"

	"github.com/Togather-Foundation/campus/internal/domain"
)

var ErrNotFound = domain.NotFound("event not found")

// Status is the publication state. Draft events accept no registrations.
type Status int

const (
	StatusDraft     Status = 0
	StatusPublished Status = 1
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

type Event struct {
	ID              int64
	Title           string
	Description     string
	Cover           string
	Place           string
	StartTime       time.Time
	EndTime         time.Time
	Limit           int
	Status          Status
	ReviewStatus    ReviewStatus
	AllowedColleges []string
	AllowedGrades   []string
	CreatorID       int64
	CreatorName     string
	ReviewerID      *int64
	ReviewTime      *time.Time
	CreateTime      time.Time

	// CurrentCount is the number of active registrations, filled on reads.
	CurrentCount int
}

// OwnedBy reports whether userID created the event.
func (e *Event) OwnedBy(userID int64) bool {
	return e != nil && userID > 0 && e.CreatorID == userID
}

type CreateParams struct {
	Title           string
	Description     string
	Cover           string
	Place           string
	StartTime       time.Time
	EndTime         time.Time
	Limit           int
	Status          Status
	AllowedColleges []string
	AllowedGrades   []string
	CreatorID       int64
}

// UpdateParams holds the columns to change; nil fields are left untouched.
type UpdateParams struct {
	Title           *string
	Description     *string
	Cover           *string
	Place           *string
	StartTime       *time.Time
	EndTime         *time.Time
	Limit           *int
	Status          *Status
	AllowedColleges *[]string
	AllowedGrades   *[]string
}

func (p UpdateParams) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Cover == nil && p.Place == nil &&
		p.StartTime == nil && p.EndTime == nil && p.Limit == nil && p.Status == nil &&
		p.AllowedColleges == nil && p.AllowedGrades == nil
}

// ReviewParams is written as one statement so the reviewer and the review time
// always change together.
type ReviewParams struct {
	Status     ReviewStatus
	ReviewerID int64
	ReviewTime time.Time
}

type Filters struct {
	Status       *Status
	ReviewStatus *ReviewStatus
	CreatorID    *int64
	Query        string
	// Public asks for the approved catalogue even when the caller would
	// otherwise get a narrower view (an organizer's own dashboard).
	Public bool
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	// LockByID loads the event and holds its row lock until the surrounding
	// transaction ends.
	LockByID(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context, filters Filters) ([]Event, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*Event, error)
	SetReview(ctx context.Context, id int64, params ReviewParams) (*Event, error)
	CountActiveRegistrations(ctx context.Context, eventID int64) (int, error)
	Delete(ctx context.Context, id int64) error

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
