package registrations

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/campus/internal/domain"
)

// ParseFilters reads list filters from query parameters. The ledger narrows
// them afterwards to what the caller may see.
func ParseFilters(values url.Values) (Filters, error) {
	var filters Filters

	for _, param := range []struct {
		name string
		dst  **int64
	}{
		{"userId", &filters.UserID},
		{"eventId", &filters.EventID},
	} {
		raw := strings.TrimSpace(values.Get(param.name))
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filters, domain.Validation(param.name, param.name+" must be a positive integer")
		}
		*param.dst = &id
	}

	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !Status(n).Valid() {
			return filters, domain.Validation("status", "status must be 0, 1 or 2")
		}
		status := Status(n)
		filters.Status = &status
	}

	return filters, nil
}
