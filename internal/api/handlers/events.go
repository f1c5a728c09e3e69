package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/Togather-Foundation/campus/internal/domain/events"
)

// EventService is the part of events.Service the HTTP layer uses.
type EventService interface {
	List(ctx context.Context, viewer *auth.Principal, filters events.Filters) ([]events.Event, error)
	Get(ctx context.Context, viewer *auth.Principal, id int64) (*events.Event, error)
	Create(ctx context.Context, p *auth.Principal, input events.EventInput) (*events.Event, error)
	Update(ctx context.Context, p *auth.Principal, id int64, patch events.EventPatch) (*events.Event, error)
	SetStatus(ctx context.Context, p *auth.Principal, id int64, status int) (*events.Event, error)
	Review(ctx context.Context, p *auth.Principal, id int64, outcome string) (*events.Event, error)
	Delete(ctx context.Context, p *auth.Principal, id int64) error
}

type EventsHandler struct {
	Service  EventService
	Location *time.Location
	Env      string
}

func NewEventsHandler(service EventService, loc *time.Location, env string) *EventsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EventsHandler{Service: service, Location: loc, Env: env}
}

type eventResponse struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Cover           string   `json:"cover"`
	Place           string   `json:"place"`
	StartTime       string   `json:"startTime"`
	EndTime         string   `json:"endTime"`
	Limit           int      `json:"limit"`
	CurrentCount    int      `json:"currentCount"`
	Status          int      `json:"status"`
	ReviewStatus    string   `json:"reviewStatus"`
	AllowedColleges []string `json:"allowedColleges"`
	AllowedGrades   []string `json:"allowedGrades"`
	CreatorID       int64    `json:"creatorId"`
	CreatorName     string   `json:"creatorName,omitempty"`
	ReviewerID      *int64   `json:"reviewerId"`
	ReviewTime      *string  `json:"reviewTime"`
	CreateTime      string   `json:"createTime"`
}

func (h *EventsHandler) toResponse(e *events.Event) eventResponse {
	resp := eventResponse{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Cover:           e.Cover,
		Place:           e.Place,
		StartTime:       events.FormatDateTime(e.StartTime, h.Location),
		EndTime:         events.FormatDateTime(e.EndTime, h.Location),
		Limit:           e.Limit,
		CurrentCount:    e.CurrentCount,
		Status:          int(e.Status),
		ReviewStatus:    string(e.ReviewStatus),
		AllowedColleges: nonNilStrings(e.AllowedColleges),
		AllowedGrades:   nonNilStrings(e.AllowedGrades),
		CreatorID:       e.CreatorID,
		CreatorName:     e.CreatorName,
		ReviewerID:      e.ReviewerID,
		CreateTime:      events.FormatDateTime(e.CreateTime, h.Location),
	}
	if e.ReviewTime != nil {
		formatted := events.FormatDateTime(*e.ReviewTime, h.Location)
		resp.ReviewTime = &formatted
	}
	return resp
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := events.ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	items, err := h.Service.List(r.Context(), auth.PrincipalFromContext(r.Context()), filters)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	out := make([]eventResponse, 0, len(items))
	for i := range items {
		out = append(out, h.toResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, listResponse[eventResponse]{Items: out})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Get(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(event))
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input events.EventInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), auth.PrincipalFromContext(r.Context()), input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, h.toResponse(event))
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	var patch events.EventPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Update(r.Context(), auth.PrincipalFromContext(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(event))
}

type statusRequest struct {
	Status *int `json:"status"`
}

func (h *EventsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
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

	event, err := h.Service.SetStatus(r.Context(), auth.PrincipalFromContext(r.Context()), id, *body.Status)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(event))
}

type reviewRequest struct {
	ReviewStatus string `json:"reviewStatus"`
}

func (h *EventsHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	var body reviewRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Review(r.Context(), auth.PrincipalFromContext(r.Context()), id, body.ReviewStatus)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(event))
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	if err := h.Service.Delete(r.Context(), auth.PrincipalFromContext(r.Context()), id); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
