package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Togather-Foundation/campus/internal/api/problem"
	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/domain/events"
	"github.com/Togather-Foundation/campus/internal/domain/registrations"
	"github.com/Togather-Foundation/campus/internal/domain/users"
	"github.com/stretchr/testify/require"
)

type stubEventService struct {
	listFn      func(viewer *auth.Principal, filters events.Filters) ([]events.Event, error)
	getFn       func(viewer *auth.Principal, id int64) (*events.Event, error)
	createFn    func(p *auth.Principal, input events.EventInput) (*events.Event, error)
	updateFn    func(p *auth.Principal, id int64, patch events.EventPatch) (*events.Event, error)
	setStatusFn func(p *auth.Principal, id int64, status int) (*events.Event, error)
	reviewFn    func(p *auth.Principal, id int64, outcome string) (*events.Event, error)
	deleteFn    func(p *auth.Principal, id int64) error
}

func (s *stubEventService) List(_ context.Context, viewer *auth.Principal, filters events.Filters) ([]events.Event, error) {
	return s.listFn(viewer, filters)
}

func (s *stubEventService) Get(_ context.Context, viewer *auth.Principal, id int64) (*events.Event, error) {
	return s.getFn(viewer, id)
}

func (s *stubEventService) Create(_ context.Context, p *auth.Principal, input events.EventInput) (*events.Event, error) {
	return s.createFn(p, input)
}

func (s *stubEventService) Update(_ context.Context, p *auth.Principal, id int64, patch events.EventPatch) (*events.Event, error) {
	return s.updateFn(p, id, patch)
}

func (s *stubEventService) SetStatus(_ context.Context, p *auth.Principal, id int64, status int) (*events.Event, error) {
	return s.setStatusFn(p, id, status)
}

func (s *stubEventService) Review(_ context.Context, p *auth.Principal, id int64, outcome string) (*events.Event, error) {
	return s.reviewFn(p, id, outcome)
}

func (s *stubEventService) Delete(_ context.Context, p *auth.Principal, id int64) error {
	return s.deleteFn(p, id)
}

type stubLedger struct {
	registerFn     func(p *auth.Principal, eventID int64, remark string) (*registrations.Registration, error)
	updateStatusFn func(p *auth.Principal, id int64, status int) (*registrations.Registration, error)
	listFn         func(p *auth.Principal, filters registrations.Filters) ([]registrations.Registration, error)
	getFn          func(p *auth.Principal, id int64) (*registrations.Registration, error)
}

func (s *stubLedger) Register(_ context.Context, p *auth.Principal, eventID int64, remark string) (*registrations.Registration, error) {
	return s.registerFn(p, eventID, remark)
}

func (s *stubLedger) UpdateStatus(_ context.Context, p *auth.Principal, id int64, status int) (*registrations.Registration, error) {
	return s.updateStatusFn(p, id, status)
}

func (s *stubLedger) List(_ context.Context, p *auth.Principal, filters registrations.Filters) ([]registrations.Registration, error) {
	return s.listFn(p, filters)
}

func (s *stubLedger) Get(_ context.Context, p *auth.Principal, id int64) (*registrations.Registration, error) {
	return s.getFn(p, id)
}

type stubUserService struct {
	getFn    func(id int64) (*users.User, error)
	updateFn func(p *auth.Principal, input users.ProfileInput) (*users.User, error)
}

func (s *stubUserService) Get(_ context.Context, id int64) (*users.User, error) {
	return s.getFn(id)
}

func (s *stubUserService) UpdateProfile(_ context.Context, p *auth.Principal, input users.ProfileInput) (*users.User, error) {
	return s.updateFn(p, input)
}

// newRequest builds a request carrying p (which may be nil) and the {id} path value.
func newRequest(method, target, body string, p *auth.Principal, id string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	if id != "" {
		req.SetPathValue("id", id)
	}
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireProblem(t *testing.T, rec *httptest.ResponseRecorder, status int, typ string) problem.ProblemDetails {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	p := decodeBody[problem.ProblemDetails](t, rec)
	require.Equal(t, typ, p.Type)
	return p
}
