package events

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/campus/internal/domain"
)

// ParseFilters reads list filters from query parameters. Visibility scoping is
// applied later by the service, so callers cannot widen their view here.
func ParseFilters(values url.Values) (Filters, error) {
	var filters Filters

	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !Status(n).Valid() {
			return filters, domain.Validation("status", "status must be 0 or 1")
		}
		status := Status(n)
		filters.Status = &status
	}

	if raw := strings.TrimSpace(values.Get("reviewStatus")); raw != "" {
		review := ReviewStatus(raw)
		switch review {
		case ReviewPending, ReviewApproved, ReviewRejected:
			filters.ReviewStatus = &review
		default:
			return filters, domain.Validation("reviewStatus", "reviewStatus must be pending, approved or rejected")
		}
	}

	if raw := strings.TrimSpace(values.Get("creatorId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filters, domain.Validation("creatorId", "creatorId must be a positive integer")
		}
		filters.CreatorID = &id
	}

	filters.Query = strings.TrimSpace(values.Get("q"))

	if raw := strings.TrimSpace(values.Get("public")); raw != "" {
		public, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, domain.Validation("public", "public must be a boolean")
		}
		filters.Public = public
	}

	return filters, nil
}
