package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/Togather-Foundation/campus/internal/metrics"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var ilikeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeILIKEPattern escapes wildcard characters so user input matches literally.
func escapeILIKEPattern(value string) string {
	return ilikeEscaper.Replace(value)
}

// isUniqueViolation reports whether err is a unique violation on constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

// observe records query latency. Classified domain outcomes such as not found
// are not counted as database errors.
func observe(operation string, start time.Time, errp *error) {
	err := *errp
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		err = nil
	}
	metrics.RecordQuery(operation, start, err)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
