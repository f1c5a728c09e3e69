package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/Togather-Foundation/campus/internal/metrics"
	"github.com/rs/zerolog"
)

// ParseReviewOutcome accepts only the two decisions a reviewer can record.
// Pending is reachable at creation only.
func ParseReviewOutcome(value string) (ReviewStatus, error) {
	switch ReviewStatus(value) {
	case ReviewApproved, ReviewRejected:
		return ReviewStatus(value), nil
	default:
		return "", domain.Validation("reviewStatus", "reviewStatus must be approved or rejected")
	}
}

// Review records a reviewer's decision. Status, reviewer and review time are
// written in one statement; re-reviewing overwrites all three together.
func (s *Service) Review(ctx context.Context, p *auth.Principal, id int64, outcome string) (*Event, error) {
	if p == nil {
		return nil, domain.Unauthenticated("login required")
	}
	if !p.Can(auth.OpReviewEvent) {
		return nil, domain.Forbidden("only reviewers can review events")
	}
	status, err := ParseReviewOutcome(outcome)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.SetReview(ctx, id, ReviewParams{
		Status:     status,
		ReviewerID: p.ID,
		ReviewTime: s.now().UTC(),
	})
	if err != nil {
		metrics.EventOperations.WithLabelValues("review", outcomeOf(err)).Inc()
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("review event %d: %w", id, err)
	}

	metrics.EventOperations.WithLabelValues("review", "success").Inc()
	zerolog.Ctx(ctx).Info().
		Int64("event_id", id).
		Int64("reviewer_id", p.ID).
		Str("review_status", string(status)).
		Msg("event reviewed")
	s.audit.LogSuccess(ctx, "event.review", p.ID, "event", strconv.FormatInt(id, 10), map[string]string{
		"review_status": string(status),
	})
	return updated, nil
}
