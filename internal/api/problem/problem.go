package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

const typeBase = "https://campus.events/problems/"

// Problem type URIs.
const (
	TypeValidation       = typeBase + "validation-error"
	TypeUnauthenticated  = typeBase + "unauthenticated"
	TypeForbidden        = typeBase + "forbidden"
	TypeNotFound         = typeBase + "not-found"
	TypeConflict         = typeBase + "conflict"
	TypeCapacityExceeded = typeBase + "capacity-exceeded"
	TypeRateLimited      = typeBase + "rate-limited"
	TypePayloadTooLarge  = typeBase + "payload-too-large"
	TypeServerError      = typeBase + "server-error"
)

type ProblemDetails struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Errors   map[string]any `json:"errors,omitempty"`
}

type Option func(*ProblemDetails)

func WithDetail(detail string) Option {
	return func(p *ProblemDetails) {
		p.Detail = detail
	}
}

func WithInstance(instance string) Option {
	return func(p *ProblemDetails) {
		p.Instance = instance
	}
}

func WithErrors(errs map[string]any) Option {
	return func(p *ProblemDetails) {
		p.Errors = errs
	}
}

// Write renders a problem response. Raw error text is only exposed in
// development and test; elsewhere the detail falls back to the status text.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	problem := ProblemDetails{
		Type:   typ,
		Title:  title,
		Status: status,
	}

	for _, opt := range opts {
		opt(&problem)
	}

	if problem.Detail == "" && err != nil {
		if env == "development" || env == "test" {
			problem.Detail = err.Error()
		} else {
			problem.Detail = http.StatusText(status)
		}
	}

	if problem.Instance == "" && r != nil {
		problem.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("type", typ).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(title)
	}

	WriteProblem(w, problem)
}

// FromError maps a service error onto its HTTP status. Classified domain errors
// carry stable messages, so their text is always returned as the detail.
func FromError(w http.ResponseWriter, r *http.Request, err error, env string) {
	status, typ, title := classify(err)

	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		Write(w, r, status, typ, title, err, env)
		return
	}

	opts := []Option{WithDetail(domainErr.Error())}
	fields := map[string]any{}
	if domainErr.Field != "" {
		fields["field"] = domainErr.Field
	}
	if domainErr.Reason != "" {
		fields["reason"] = domainErr.Reason
	}
	if len(fields) > 0 {
		opts = append(opts, WithErrors(fields))
	}
	Write(w, r, status, typ, title, err, env, opts...)
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, TypeValidation, "Invalid request"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, TypeUnauthenticated, "Authentication required"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, TypeForbidden, "Forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, TypeNotFound, "Not found"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusConflict, TypeCapacityExceeded, "Event is full"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, TypeConflict, "Conflict"
	default:
		return http.StatusInternalServerError, TypeServerError, "Server error"
	}
}

func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	payload, err := json.Marshal(problem)
	if err != nil {
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":\"%s\",\"status\":500}", http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(problem.Status)
	_, _ = w.Write(payload)
}
