package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/Togather-Foundation/campus/internal/domain/events"
	"github.com/Togather-Foundation/campus/internal/domain/users"
)

type UserService interface {
	Get(ctx context.Context, id int64) (*users.User, error)
	UpdateProfile(ctx context.Context, p *auth.Principal, input users.ProfileInput) (*users.User, error)
}

type UsersHandler struct {
	Service  UserService
	Location *time.Location
	Env      string
}

func NewUsersHandler(service UserService, loc *time.Location, env string) *UsersHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &UsersHandler{Service: service, Location: loc, Env: env}
}

type userResponse struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	College    string `json:"college"`
	StudentID  string `json:"studentId"`
	Phone      string `json:"phone"`
	Major      string `json:"major"`
	CreateTime string `json:"createTime"`
}

func (h *UsersHandler) toResponse(u *users.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		Role:       string(u.Role),
		College:    u.College,
		StudentID:  u.StudentID,
		Phone:      u.Phone,
		Major:      u.Major,
		CreateTime: events.FormatDateTime(u.CreateTime, h.Location),
	}
}

// Me returns the caller's own profile.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		writeError(w, r, domain.Unauthenticated("login required"), h.Env)
		return
	}

	user, err := h.Service.Get(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(user))
}

// UpdateMe changes the caller's name, phone or major.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var input users.ProfileInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	user, err := h.Service.UpdateProfile(r.Context(), auth.PrincipalFromContext(r.Context()), input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(user))
}
