package events

import (
	"context"
	"strings"
	"sync"
	"time"
)

type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]Event
	active map[int64]int

	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, events: map[int64]Event{}, active: map[int64]int{}}
}

func (r *fakeRepo) Create(_ context.Context, params CreateParams) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	e := Event{
		ID:              r.nextID,
		Title:           params.Title,
		Description:     params.Description,
		Cover:           params.Cover,
		Place:           params.Place,
		StartTime:       params.StartTime,
		EndTime:         params.EndTime,
		Limit:           params.Limit,
		Status:          params.Status,
		ReviewStatus:    ReviewPending,
		AllowedColleges: params.AllowedColleges,
		AllowedGrades:   params.AllowedGrades,
		CreatorID:       params.CreatorID,
		CreateTime:      time.Now().UTC(),
	}
	r.events[e.ID] = e
	r.nextID++
	return &e, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.CurrentCount = r.active[id]
	return &e, nil
}

func (r *fakeRepo) LockByID(ctx context.Context, id int64) (*Event, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeRepo) List(_ context.Context, filters Filters) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Event{}
	for id := int64(1); id < r.nextID; id++ {
		e, ok := r.events[id]
		if !ok {
			continue
		}
		if filters.Status != nil && e.Status != *filters.Status {
			continue
		}
		if filters.ReviewStatus != nil && e.ReviewStatus != *filters.ReviewStatus {
			continue
		}
		if filters.CreatorID != nil && e.CreatorID != *filters.CreatorID {
			continue
		}
		if filters.Query != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(filters.Query)) {
			continue
		}
		e.CurrentCount = r.active[id]
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, p UpdateParams) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Cover != nil {
		e.Cover = *p.Cover
	}
	if p.Place != nil {
		e.Place = *p.Place
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
	}
	if p.Limit != nil {
		e.Limit = *p.Limit
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.AllowedColleges != nil {
		e.AllowedColleges = *p.AllowedColleges
	}
	if p.AllowedGrades != nil {
		e.AllowedGrades = *p.AllowedGrades
	}
	r.events[id] = e
	return &e, nil
}

func (r *fakeRepo) SetReview(_ context.Context, id int64, p ReviewParams) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	reviewer := p.ReviewerID
	at := p.ReviewTime
	e.ReviewStatus = p.Status
	e.ReviewerID = &reviewer
	e.ReviewTime = &at
	r.events[id] = e
	return &e, nil
}

func (r *fakeRepo) CountActiveRegistrations(_ context.Context, eventID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[eventID], nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}
