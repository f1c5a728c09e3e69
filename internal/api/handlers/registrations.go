package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/Togather-Foundation/campus/internal/domain/events"
	"github.com/Togather-Foundation/campus/internal/domain/registrations"
)

// RegistrationService is the part of registrations.Ledger the HTTP layer uses.
type RegistrationService interface {
	Register(ctx context.Context, p *auth.Principal, eventID int64, remark string) (*registrations.Registration, error)
	UpdateStatus(ctx context.Context, p *auth.Principal, id int64, status int) (*registrations.Registration, error)
	List(ctx context.Context, p *auth.Principal, filters registrations.Filters) ([]registrations.Registration, error)
	Get(ctx context.Context, p *auth.Principal, id int64) (*registrations.Registration, error)
}

type RegistrationsHandler struct {
	Ledger   RegistrationService
	Location *time.Location
	Env      string
}

func NewRegistrationsHandler(ledger RegistrationService, loc *time.Location, env string) *RegistrationsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &RegistrationsHandler{Ledger: ledger, Location: loc, Env: env}
}

type registrationResponse struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"userId"`
	EventID    int64  `json:"eventId"`
	Remark     string `json:"remark"`
	Status     int    `json:"status"`
	StatusName string `json:"statusName"`
	CreateTime string `json:"createTime"`
	UserName   string `json:"userName,omitempty"`
	StudentID  string `json:"studentId,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Major      string `json:"major,omitempty"`
	EventTitle string `json:"eventTitle,omitempty"`
}

func (h *RegistrationsHandler) toResponse(reg *registrations.Registration) registrationResponse {
	return registrationResponse{
		ID:         reg.ID,
		UserID:     reg.UserID,
		EventID:    reg.EventID,
		Remark:     reg.Remark,
		Status:     int(reg.Status),
		StatusName: reg.Status.String(),
		CreateTime: events.FormatDateTime(reg.CreateTime, h.Location),
		UserName:   reg.UserName,
		StudentID:  reg.StudentID,
		Phone:      reg.Phone,
		Major:      reg.Major,
		EventTitle: reg.EventTitle,
	}
}

func (h *RegistrationsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := registrations.ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	items, err := h.Ledger.List(r.Context(), auth.PrincipalFromContext(r.Context()), filters)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	out := make([]registrationResponse, 0, len(items))
	for i := range items {
		out = append(out, h.toResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, listResponse[registrationResponse]{Items: out})
}

func (h *RegistrationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	reg, err := h.Ledger.Get(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(reg))
}

type registerRequest struct {
	EventID int64  `json:"eventId"`
	Remark  string `json:"remark"`
}

func (h *RegistrationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	reg, err := h.Ledger.Register(r.Context(), auth.PrincipalFromContext(r.Context()), body.EventID, body.Remark)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, h.toResponse(reg))
}

func (h *RegistrationsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	var body statusRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	if body.Status == nil {
		writeError(w, r, domain.Validation("status", "status is required"), h.Env)
		return
	}

	reg, err := h.Ledger.UpdateStatus(r.Context(), auth.PrincipalFromContext(r.Context()), id, *body.Status)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(reg))
}
