package registrations

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/Togather-Foundation/campus/internal/domain/events"
)

// fakeStore keeps rows in memory. WithTx holds the store mutex for the whole
// callback, which stands in for the event row lock, and restores a snapshot
// when the callback fails.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]events.Event
	rows   map[int64]Registration
	users  map[int64]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID: 1,
		events: map[int64]events.Event{},
		rows:   map[int64]Registration{},
		users:  map[int64]string{},
	}
}

func (s *fakeStore) addEvent(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
}

func (s *fakeStore) put(r Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.nextID
		s.nextID++
	}
	s.rows[r.ID] = r
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *fakeStore) activeCount(eventID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&fakeTx{s}).countActive(eventID)
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := maps.Clone(s.rows)
	nextID := s.nextID
	if err := fn(ctx, &fakeTx{s}); err != nil {
		s.rows = rows
		s.nextID = nextID
		return err
	}
	return nil
}

func (s *fakeStore) locked(fn func(tx *fakeTx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&fakeTx{s})
}

func (s *fakeStore) GetEvent(ctx context.Context, eventID int64) (e *events.Event, err error) {
	s.locked(func(tx *fakeTx) { e, err = tx.GetEvent(ctx, eventID) })
	return e, err
}

func (s *fakeStore) LockEvent(ctx context.Context, eventID int64) (*events.Event, error) {
	return s.GetEvent(ctx, eventID)
}

func (s *fakeStore) HasActive(ctx context.Context, userID, eventID int64) (ok bool, err error) {
	s.locked(func(tx *fakeTx) { ok, err = tx.HasActive(ctx, userID, eventID) })
	return ok, err
}

func (s *fakeStore) CountActive(_ context.Context, eventID int64) (int, error) {
	return s.activeCount(eventID), nil
}

func (s *fakeStore) Create(ctx context.Context, params CreateParams) (r *Registration, err error) {
	s.locked(func(tx *fakeTx) { r, err = tx.Create(ctx, params) })
	return r, err
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (r *Registration, err error) {
	s.locked(func(tx *fakeTx) { r, err = tx.GetByID(ctx, id) })
	return r, err
}

func (s *fakeStore) LockByID(ctx context.Context, id int64) (*Registration, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeStore) UpdateStatus(ctx context.Context, id int64, status Status) (r *Registration, err error) {
	s.locked(func(tx *fakeTx) { r, err = tx.UpdateStatus(ctx, id, status) })
	return r, err
}

func (s *fakeStore) List(ctx context.Context, filters Filters) (out []Registration, err error) {
	s.locked(func(tx *fakeTx) { out, err = tx.List(ctx, filters) })
	return out, err
}

// fakeTx runs with the store mutex already held.
type fakeTx struct {
	s *fakeStore
}

func (t *fakeTx) enrich(r Registration) Registration {
	r.UserName = t.s.users[r.UserID]
	if e, ok := t.s.events[r.EventID]; ok {
		r.EventTitle = e.Title
		r.EventCreatorID = e.CreatorID
	}
	return r
}

func (t *fakeTx) countActive(eventID int64) int {
	n := 0
	for _, r := range t.s.rows {
		if r.EventID == eventID && r.Status.Active() {
			n++
		}
	}
	return n
}

func (t *fakeTx) GetEvent(_ context.Context, eventID int64) (*events.Event, error) {
	e, ok := t.s.events[eventID]
	if !ok {
		return nil, events.ErrNotFound
	}
	e.CurrentCount = t.countActive(eventID)
	return &e, nil
}

func (t *fakeTx) LockEvent(ctx context.Context, eventID int64) (*events.Event, error) {
	return t.GetEvent(ctx, eventID)
}

func (t *fakeTx) HasActive(_ context.Context, userID, eventID int64) (bool, error) {
	for _, r := range t.s.rows {
		if r.UserID == userID && r.EventID == eventID && r.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) CountActive(_ context.Context, eventID int64) (int, error) {
	return t.countActive(eventID), nil
}

func (t *fakeTx) Create(ctx context.Context, params CreateParams) (*Registration, error) {
	if dup, _ := t.HasActive(ctx, params.UserID, params.EventID); dup {
		return nil, ErrDuplicate
	}
	r := Registration{
		ID:         t.s.nextID,
		UserID:     params.UserID,
		EventID:    params.EventID,
		Remark:     params.Remark,
		Status:     StatusPending,
		CreateTime: time.Now().UTC(),
	}
	t.s.nextID++
	t.s.rows[r.ID] = r
	r = t.enrich(r)
	return &r, nil
}

func (t *fakeTx) GetByID(_ context.Context, id int64) (*Registration, error) {
	r, ok := t.s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	r = t.enrich(r)
	return &r, nil
}

func (t *fakeTx) LockByID(ctx context.Context, id int64) (*Registration, error) {
	return t.GetByID(ctx, id)
}

func (t *fakeTx) UpdateStatus(_ context.Context, id int64, status Status) (*Registration, error) {
	r, ok := t.s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Status = status
	t.s.rows[id] = r
	r = t.enrich(r)
	return &r, nil
}

func (t *fakeTx) List(_ context.Context, filters Filters) ([]Registration, error) {
	out := []Registration{}
	for id := int64(1); id < t.s.nextID; id++ {
		r, ok := t.s.rows[id]
		if !ok {
			continue
		}
		if filters.UserID != nil && r.UserID != *filters.UserID {
			continue
		}
		if filters.EventID != nil && r.EventID != *filters.EventID {
			continue
		}
		if filters.Status != nil && r.Status != *filters.Status {
			continue
		}
		out = append(out, t.enrich(r))
	}
	return out, nil
}

func (t *fakeTx) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, t)
}
