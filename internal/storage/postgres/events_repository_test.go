package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/Togather-Foundation/campus/internal/domain/events"
	"github.com/stretchr/testify/require"
)

func TestEventRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	creator := insertUser(t, ctx, pool, "olivia", "organizer", "", "")
	repo := &EventRepository{conn: conn{pool: pool}}

	start := time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, events.CreateParams{
		Title:           "Winter Concert",
		Place:           "Auditorium",
		StartTime:       start,
		EndTime:         start.Add(24*time.Hour - time.Second),
		Limit:           120,
		Status:          events.StatusPublished,
		AllowedColleges: []string{"Music", "Arts"},
		CreatorID:       creator,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Winter Concert", got.Title)
	require.Equal(t, 120, got.Limit)
	require.Equal(t, events.ReviewPending, got.ReviewStatus)
	require.Equal(t, []string{"Music", "Arts"}, got.AllowedColleges)
	require.Equal(t, []string{}, got.AllowedGrades)
	require.Equal(t, "Olivia", got.CreatorName)
	require.True(t, start.Equal(got.StartTime))
	require.Nil(t, got.ReviewerID)
	require.Nil(t, got.ReviewTime)
	require.Zero(t, got.CurrentCount)

	_, err = repo.GetByID(ctx, 9999)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventRepositoryPartialUpdate(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	creator := insertUser(t, ctx, pool, "olivia", "organizer", "", "")
	id := insertEvent(t, ctx, pool, "Chess Night", creator, 10, 1, "pending")
	repo := &EventRepository{conn: conn{pool: pool}}

	title := "Chess Tournament"
	grades := []string{"2023"}
	draft := events.StatusDraft
	updated, err := repo.Update(ctx, id, events.UpdateParams{Title: &title, AllowedGrades: &grades, Status: &draft})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, "Main Hall", updated.Place)
	require.Equal(t, 10, updated.Limit)
	require.Equal(t, events.StatusDraft, updated.Status)
	require.Equal(t, grades, updated.AllowedGrades)

	cleared := []string{}
	updated, err = repo.Update(ctx, id, events.UpdateParams{AllowedGrades: &cleared})
	require.NoError(t, err)
	require.Empty(t, updated.AllowedGrades)

	_, err = repo.Update(ctx, 9999, events.UpdateParams{Title: &title})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventRepositorySetReviewStampsTogether(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	creator := insertUser(t, ctx, pool, "olivia", "organizer", "", "")
	reviewerA := insertUser(t, ctx, pool, "rita", "reviewer", "", "")
	reviewerB := insertUser(t, ctx, pool, "ross", "reviewer", "", "")
	id := insertEvent(t, ctx, pool, "Debate", creator, 10, 1, "pending")
	repo := &EventRepository{conn: conn{pool: pool}}

	first := time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)
	approved, err := repo.SetReview(ctx, id, events.ReviewParams{Status: events.ReviewApproved, ReviewerID: reviewerA, ReviewTime: first})
	require.NoError(t, err)
	require.Equal(t, events.ReviewApproved, approved.ReviewStatus)
	require.Equal(t, reviewerA, *approved.ReviewerID)
	require.True(t, first.Equal(*approved.ReviewTime))

	second := first.Add(time.Hour)
	rejected, err := repo.SetReview(ctx, id, events.ReviewParams{Status: events.ReviewRejected, ReviewerID: reviewerB, ReviewTime: second})
	require.NoError(t, err)
	require.Equal(t, events.ReviewRejected, rejected.ReviewStatus)
	require.Equal(t, reviewerB, *rejected.ReviewerID)
	require.True(t, second.Equal(*rejected.ReviewTime))

	_, err = pool.Exec(ctx, `UPDATE events SET reviewer_id = NULL WHERE id = $1`, id)
	require.Error(t, err, "schema must reject a reviewer without a review time")
}

func TestEventRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	alice := insertUser(t, ctx, pool, "alice", "organizer", "", "")
	bob := insertUser(t, ctx, pool, "bob", "organizer", "", "")
	student := insertUser(t, ctx, pool, "sam", "student", "", "")
	a1 := insertEvent(t, ctx, pool, "Jazz 100% Live", alice, 10, 1, "approved")
	a2 := insertEvent(t, ctx, pool, "Jazz_Workshop", alice, 10, 0, "pending")
	b1 := insertEvent(t, ctx, pool, "Robotics", bob, 10, 1, "approved")
	_, err := pool.Exec(ctx, `INSERT INTO registrations (user_id, event_id, status) VALUES ($1, $2, 0), ($1, $3, 2)`, student, a1, b1)
	require.NoError(t, err)
	repo := &EventRepository{conn: conn{pool: pool}}

	ids := func(items []events.Event) []int64 {
		out := []int64{}
		for _, e := range items {
			out = append(out, e.ID)
		}
		return out
	}

	approved := events.ReviewApproved
	items, err := repo.List(ctx, events.Filters{ReviewStatus: &approved})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{a1, b1}, ids(items))

	items, err = repo.List(ctx, events.Filters{CreatorID: &alice})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{a1, a2}, ids(items))

	draft := events.StatusDraft
	items, err = repo.List(ctx, events.Filters{Status: &draft})
	require.NoError(t, err)
	require.Equal(t, []int64{a2}, ids(items))

	items, err = repo.List(ctx, events.Filters{Query: "100%"})
	require.NoError(t, err)
	require.Equal(t, []int64{a1}, ids(items))

	items, err = repo.List(ctx, events.Filters{Query: "z_W"})
	require.NoError(t, err)
	require.Equal(t, []int64{a2}, ids(items))

	items, err = repo.List(ctx, events.Filters{})
	require.NoError(t, err)
	counts := map[int64]int{}
	for _, e := range items {
		counts[e.ID] = e.CurrentCount
	}
	require.Equal(t, map[int64]int{a1: 1, a2: 0, b1: 0}, counts)
}

func TestEventRepositoryDeleteCascadesRegistrations(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	creator := insertUser(t, ctx, pool, "olivia", "organizer", "", "")
	student := insertUser(t, ctx, pool, "sam", "student", "", "")
	id := insertEvent(t, ctx, pool, "Picnic", creator, 10, 1, "approved")
	_, err := pool.Exec(ctx, `INSERT INTO registrations (user_id, event_id, status) VALUES ($1, $2, 2)`, student, id)
	require.NoError(t, err)
	repo := &EventRepository{conn: conn{pool: pool}}

	count, err := repo.CountActiveRegistrations(ctx, id)
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, repo.Delete(ctx, id))
	require.ErrorIs(t, repo.Delete(ctx, id), domain.ErrNotFound)

	var remaining int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM registrations`).Scan(&remaining))
	require.Zero(t, remaining)
}

func TestEventServiceDeleteBlockedByActiveRegistration(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	repo, err := NewRepository(pool)
	require.NoError(t, err)
	creator := insertUser(t, ctx, pool, "olivia", "organizer", "", "")
	student := insertUser(t, ctx, pool, "sam", "student", "", "")
	id := insertEvent(t, ctx, pool, "Picnic", creator, 10, 1, "approved")
	_, err = pool.Exec(ctx, `INSERT INTO registrations (user_id, event_id, status) VALUES ($1, $2, 1)`, student, id)
	require.NoError(t, err)

	svc := events.NewService(repo.Events())
	owner, err := repo.Users().GetByID(ctx, creator)
	require.NoError(t, err)

	err = svc.Delete(ctx, owner.Principal(), id)
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.Events().GetByID(ctx, id)
	require.NoError(t, err)
}

func TestEventServiceLimitNotBelowActiveRegistrations(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	repo, err := NewRepository(pool)
	require.NoError(t, err)
	creator := insertUser(t, ctx, pool, "olivia", "organizer", "", "")
	id := insertEvent(t, ctx, pool, "Hackathon", creator, 3, 1, "approved")
	for i, name := range []string{"sam", "kim", "lee"} {
		student := insertUser(t, ctx, pool, name, "student", "", "")
		_, err = pool.Exec(ctx, `INSERT INTO registrations (user_id, event_id, status) VALUES ($1, $2, $3)`, student, id, i%2)
		require.NoError(t, err)
	}

	svc := events.NewService(repo.Events())
	owner, err := repo.Users().GetByID(ctx, creator)
	require.NoError(t, err)

	one := 1
	_, err = svc.Update(ctx, owner.Principal(), id, events.EventPatch{Limit: &one})
	require.ErrorIs(t, err, domain.ErrConflict)

	got, err := repo.Events().GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 3, got.Limit)
	require.Equal(t, 3, got.CurrentCount)

	_, err = pool.Exec(ctx, `UPDATE registrations SET status = 2 WHERE event_id = $1 AND status = 0`, id)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, owner.Principal(), id, events.EventPatch{Limit: &one})
	require.NoError(t, err)
	require.Equal(t, 1, updated.Limit)
}
