package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/campus/internal/domain/events"
	"github.com/Togather-Foundation/campus/internal/domain/registrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ registrations.Repository = (*RegistrationRepository)(nil)

// activeRegistrationKey is the partial unique index over pending and approved rows.
const activeRegistrationKey = "registrations_active_user_event_key"

type RegistrationRepository struct {
	conn
}

const registrationColumns = `
SELECT r.id, r.user_id, r.event_id, r.remark, r.status, r.create_time,
       COALESCE(u.name, ''), COALESCE(u.student_id, ''), COALESCE(u.phone, ''), COALESCE(u.major, ''),
       COALESCE(e.title, ''), COALESCE(e.creator_id, 0)
  FROM registrations r
  LEFT JOIN users u ON u.id = r.user_id
  LEFT JOIN events e ON e.id = r.event_id`

func scanRegistration(row pgx.Row) (*registrations.Registration, error) {
	var (
		reg        registrations.Registration
		status     int16
		createTime pgtype.Timestamptz
	)
	if err := row.Scan(
		&reg.ID,
		&reg.UserID,
		&reg.EventID,
		&reg.Remark,
		&status,
		&createTime,
		&reg.UserName,
		&reg.StudentID,
		&reg.Phone,
		&reg.Major,
		&reg.EventTitle,
		&reg.EventCreatorID,
	); err != nil {
		return nil, err
	}
	reg.Status = registrations.Status(status)
	reg.CreateTime = createTime.Time
	return &reg, nil
}

func (r *RegistrationRepository) GetEvent(ctx context.Context, eventID int64) (*events.Event, error) {
	return (&EventRepository{conn: r.conn}).GetByID(ctx, eventID)
}

func (r *RegistrationRepository) LockEvent(ctx context.Context, eventID int64) (_ *events.Event, err error) {
	defer observe("registrations_lock_event", time.Now(), &err)
	return lockEvent(ctx, r.queryer(), eventID)
}

func (r *RegistrationRepository) HasActive(ctx context.Context, userID, eventID int64) (_ bool, err error) {
	defer observe("registrations_has_active", time.Now(), &err)

	var exists bool
	err = r.queryer().QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM registrations
   WHERE user_id = $1 AND event_id = $2 AND status IN (0, 1)
)`, userID, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active registration: %w", err)
	}
	return exists, nil
}

func (r *RegistrationRepository) CountActive(ctx context.Context, eventID int64) (_ int, err error) {
	defer observe("registrations_count_active", time.Now(), &err)
	return countActive(ctx, r.queryer(), eventID)
}

func (r *RegistrationRepository) Create(ctx context.Context, params registrations.CreateParams) (_ *registrations.Registration, err error) {
	defer observe("registrations_create", time.Now(), &err)

	var id int64
	err = r.queryer().QueryRow(ctx, `
INSERT INTO registrations (user_id, event_id, remark, status)
VALUES ($1, $2, $3, 0)
RETURNING id`,
		params.UserID,
		params.EventID,
		params.Remark,
	).Scan(&id)
	if isUniqueViolation(err, activeRegistrationKey) {
		return nil, registrations.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *RegistrationRepository) GetByID(ctx context.Context, id int64) (_ *registrations.Registration, err error) {
	defer observe("registrations_get", time.Now(), &err)

	reg, err := scanRegistration(r.queryer().QueryRow(ctx, registrationColumns+` WHERE r.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, registrations.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (r *RegistrationRepository) LockByID(ctx context.Context, id int64) (_ *registrations.Registration, err error) {
	defer observe("registrations_lock", time.Now(), &err)

	reg, err := scanRegistration(r.queryer().QueryRow(ctx, registrationColumns+` WHERE r.id = $1 FOR UPDATE OF r`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, registrations.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock registration: %w", err)
	}
	return reg, nil
}

func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id int64, status registrations.Status) (_ *registrations.Registration, err error) {
	defer observe("registrations_update_status", time.Now(), &err)

	tag, err := r.queryer().Exec(ctx, `UPDATE registrations SET status = $2 WHERE id = $1`, id, int16(status))
	if isUniqueViolation(err, activeRegistrationKey) {
		return nil, registrations.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("update registration status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, registrations.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *RegistrationRepository) List(ctx context.Context, filters registrations.Filters) (_ []registrations.Registration, err error) {
	defer observe("registrations_list", time.Now(), &err)

	var status *int16
	if filters.Status != nil {
		v := int16(*filters.Status)
		status = &v
	}

	rows, err := r.queryer().Query(ctx, registrationColumns+`
 WHERE ($1::bigint IS NULL OR r.user_id = $1::bigint)
   AND ($2::bigint IS NULL OR r.event_id = $2::bigint)
   AND ($3::smallint IS NULL OR r.status = $3::smallint)
 ORDER BY r.create_time DESC, r.id DESC`,
		filters.UserID,
		filters.EventID,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	items := []registrations.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		items = append(items, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return items, nil
}

func (r *RegistrationRepository) WithTx(ctx context.Context, fn func(context.Context, registrations.Repository) error) error {
	return r.inTx(ctx, func(c conn) error {
		return fn(ctx, &RegistrationRepository{conn: c})
	})
}
