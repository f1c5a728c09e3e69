package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/campus/internal/domain/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	conn
}

const eventColumns = `
SELECT e.id, e.title, e.description, e.cover, e.place, e.start_time, e.end_time,
       e.capacity, e.status, e.review_status, e.allowed_colleges, e.allowed_grades,
       e.creator_id, COALESCE((SELECT u.name FROM users u WHERE u.id = e.creator_id), ''),
       e.reviewer_id, e.review_time, e.create_time,
       (SELECT count(*) FROM registrations r WHERE r.event_id = e.id AND r.status IN (0, 1))
  FROM events e`

type eventRow struct {
	ID              int64
	Title           string
	Description     string
	Cover           string
	Place           string
	StartTime       pgtype.Timestamptz
	EndTime         pgtype.Timestamptz
	Capacity        int32
	Status          int16
	ReviewStatus    string
	AllowedColleges []string
	AllowedGrades   []string
	CreatorID       int64
	CreatorName     string
	ReviewerID      *int64
	ReviewTime      pgtype.Timestamptz
	CreateTime      pgtype.Timestamptz
	CurrentCount    int64
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var r eventRow
	if err := row.Scan(
		&r.ID,
		&r.Title,
		&r.Description,
		&r.Cover,
		&r.Place,
		&r.StartTime,
		&r.EndTime,
		&r.Capacity,
		&r.Status,
		&r.ReviewStatus,
		&r.AllowedColleges,
		&r.AllowedGrades,
		&r.CreatorID,
		&r.CreatorName,
		&r.ReviewerID,
		&r.ReviewTime,
		&r.CreateTime,
		&r.CurrentCount,
	); err != nil {
		return nil, err
	}

	event := &events.Event{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		Cover:           r.Cover,
		Place:           r.Place,
		StartTime:       r.StartTime.Time,
		EndTime:         r.EndTime.Time,
		Limit:           int(r.Capacity),
		Status:          events.Status(r.Status),
		ReviewStatus:    events.ReviewStatus(r.ReviewStatus),
		AllowedColleges: nonNil(r.AllowedColleges),
		AllowedGrades:   nonNil(r.AllowedGrades),
		CreatorID:       r.CreatorID,
		CreatorName:     r.CreatorName,
		ReviewerID:      r.ReviewerID,
		CreateTime:      r.CreateTime.Time,
		CurrentCount:    int(r.CurrentCount),
	}
	if r.ReviewTime.Valid {
		t := r.ReviewTime.Time
		event.ReviewTime = &t
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (_ *events.Event, err error) {
	defer observe("events_create", time.Now(), &err)

	var id int64
	err = r.queryer().QueryRow(ctx, `
INSERT INTO events (title, description, cover, place, start_time, end_time, capacity, status,
                    allowed_colleges, allowed_grades, creator_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`,
		params.Title,
		params.Description,
		params.Cover,
		params.Place,
		params.StartTime,
		params.EndTime,
		params.Limit,
		int16(params.Status),
		nonNil(params.AllowedColleges),
		nonNil(params.AllowedGrades),
		params.CreatorID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (_ *events.Event, err error) {
	defer observe("events_get", time.Now(), &err)

	event, err := scanEvent(r.queryer().QueryRow(ctx, eventColumns+` WHERE e.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) LockByID(ctx context.Context, id int64) (_ *events.Event, err error) {
	defer observe("events_lock", time.Now(), &err)
	return lockEvent(ctx, r.queryer(), id)
}

// lockEvent takes the event's row lock. The active count it returns reflects
// the snapshot the statement started with; callers that need the count after
// the lock is granted must query it separately.
func lockEvent(ctx context.Context, q queryer, id int64) (*events.Event, error) {
	event, err := scanEvent(q.QueryRow(ctx, eventColumns+` WHERE e.id = $1 FOR UPDATE OF e`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) List(ctx context.Context, filters events.Filters) (_ []events.Event, err error) {
	defer observe("events_list", time.Now(), &err)

	var status *int16
	if filters.Status != nil {
		v := int16(*filters.Status)
		status = &v
	}
	var reviewStatus *string
	if filters.ReviewStatus != nil {
		v := string(*filters.ReviewStatus)
		reviewStatus = &v
	}

	rows, err := r.queryer().Query(ctx, eventColumns+`
 WHERE ($1::smallint IS NULL OR e.status = $1::smallint)
   AND ($2::text IS NULL OR e.review_status = $2::text)
   AND ($3::bigint IS NULL OR e.creator_id = $3::bigint)
   AND ($4 = '' OR e.title ILIKE '%' || $4 || '%' OR e.place ILIKE '%' || $4 || '%')
 ORDER BY e.start_time ASC, e.id ASC`,
		status,
		reviewStatus,
		filters.CreatorID,
		escapeILIKEPattern(filters.Query),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := []events.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func (r *EventRepository) Update(ctx context.Context, id int64, params events.UpdateParams) (_ *events.Event, err error) {
	defer observe("events_update", time.Now(), &err)

	var status *int16
	if params.Status != nil {
		v := int16(*params.Status)
		status = &v
	}
	var colleges, grades []string
	if params.AllowedColleges != nil {
		colleges = nonNil(*params.AllowedColleges)
	}
	if params.AllowedGrades != nil {
		grades = nonNil(*params.AllowedGrades)
	}

	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET title            = COALESCE($2, title),
       description      = COALESCE($3, description),
       cover            = COALESCE($4, cover),
       place            = COALESCE($5, place),
       start_time       = COALESCE($6, start_time),
       end_time         = COALESCE($7, end_time),
       capacity         = COALESCE($8, capacity),
       status           = COALESCE($9, status),
       allowed_colleges = COALESCE($10::text[], allowed_colleges),
       allowed_grades   = COALESCE($11::text[], allowed_grades)
 WHERE id = $1`,
		id,
		params.Title,
		params.Description,
		params.Cover,
		params.Place,
		params.StartTime,
		params.EndTime,
		params.Limit,
		status,
		colleges,
		grades,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, events.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// SetReview writes the outcome and both stamps in one statement.
func (r *EventRepository) SetReview(ctx context.Context, id int64, params events.ReviewParams) (_ *events.Event, err error) {
	defer observe("events_review", time.Now(), &err)

	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET review_status = $2, reviewer_id = $3, review_time = $4
 WHERE id = $1`,
		id,
		string(params.Status),
		params.ReviewerID,
		params.ReviewTime,
	)
	if err != nil {
		return nil, fmt.Errorf("review event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, events.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *EventRepository) CountActiveRegistrations(ctx context.Context, eventID int64) (_ int, err error) {
	defer observe("events_count_active", time.Now(), &err)
	return countActive(ctx, r.queryer(), eventID)
}

func countActive(ctx context.Context, q queryer, eventID int64) (int, error) {
	var count int64
	if err := q.QueryRow(ctx,
		`SELECT count(*) FROM registrations WHERE event_id = $1 AND status IN (0, 1)`,
		eventID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active registrations: %w", err)
	}
	return int(count), nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) (err error) {
	defer observe("events_delete", time.Now(), &err)

	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	return r.inTx(ctx, func(c conn) error {
		return fn(ctx, &EventRepository{conn: c})
	})
}
