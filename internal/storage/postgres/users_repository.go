package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ users.Repository = (*UserRepository)(nil)

const usernameKey = "users_username_key"

type UserRepository struct {
	conn
}

const userColumns = `
SELECT id, username, name, role, college, student_id, phone, major, create_time
  FROM users`

func scanUser(row pgx.Row) (*users.User, error) {
	var (
		u          users.User
		role       string
		createTime pgtype.Timestamptz
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &role, &u.College, &u.StudentID, &u.Phone, &u.Major, &createTime); err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	u.CreateTime = createTime.Time
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (_ *users.User, err error) {
	defer observe("users_create", time.Now(), &err)

	user, err := scanUser(r.queryer().QueryRow(ctx, `
INSERT INTO users (username, name, role, college, student_id, phone, major)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, username, name, role, college, student_id, phone, major, create_time`,
		params.Username,
		params.Name,
		string(params.Role),
		params.College,
		params.StudentID,
		params.Phone,
		params.Major,
	))
	if isUniqueViolation(err, usernameKey) {
		return nil, users.ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (_ *users.User, err error) {
	defer observe("users_get", time.Now(), &err)
	return r.getOne(ctx, userColumns+` WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (_ *users.User, err error) {
	defer observe("users_get_by_username", time.Now(), &err)
	return r.getOne(ctx, userColumns+` WHERE username = $1`, username)
}

func (r *UserRepository) getOne(ctx context.Context, sql string, arg any) (*users.User, error) {
	user, err := scanUser(r.queryer().QueryRow(ctx, sql, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, params users.ProfileParams) (_ *users.User, err error) {
	defer observe("users_update_profile", time.Now(), &err)

	user, err := scanUser(r.queryer().QueryRow(ctx, `
UPDATE users
   SET name  = COALESCE($2, name),
       phone = COALESCE($3, phone),
       major = COALESCE($4, major)
 WHERE id = $1
RETURNING id, username, name, role, college, student_id, phone, major, create_time`,
		id, params.Name, params.Phone, params.Major,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user profile: %w", err)
	}
	return user, nil
}

func (r *UserRepository) SetRole(ctx context.Context, id int64, role auth.Role) (_ *users.User, err error) {
	defer observe("users_set_role", time.Now(), &err)

	user, err := scanUser(r.queryer().QueryRow(ctx, `
UPDATE users SET role = $2 WHERE id = $1
RETURNING id, username, name, role, college, student_id, phone, major, create_time`,
		id, string(role),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set user role: %w", err)
	}
	return user, nil
}
