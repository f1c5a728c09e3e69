package events

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/Togather-Foundation/campus/internal/sanitize"
)

// DateTimeLayout is the canonical wire and storage rendering of event times.
const DateTimeLayout = "2006-01-02 15:04:05"

var dateOnlyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var acceptedLayouts = []string{
	DateTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// NormalizeStartTime expands a bare date to the start of that day. Any other
// value is returned trimmed, so applying it twice is a no-op.
func NormalizeStartTime(value string) string {
	value = strings.TrimSpace(value)
	if dateOnlyPattern.MatchString(value) {
		return value + " 00:00:00"
	}
	return value
}

// NormalizeEndTime expands a bare date to the last second of that day.
func NormalizeEndTime(value string) string {
	value = strings.TrimSpace(value)
	if dateOnlyPattern.MatchString(value) {
		return value + " 23:59:59"
	}
	return value
}

// ParseDateTime parses a normalized date-time. Values without an offset are
// read in loc.
func ParseDateTime(field, value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	for _, layout := range acceptedLayouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, domain.Validation(field, fmt.Sprintf("%s must be a date (YYYY-MM-DD) or date-time (YYYY-MM-DD HH:MM:SS)", field))
}

// FormatDateTime renders t in loc using DateTimeLayout.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateTimeLayout)
}

// NormalizeList trims entries and drops empty ones, keeping order.
func NormalizeList(values []string) []string {
	return sanitize.Fields(values)
}

func normalizeInput(input EventInput) EventInput {
	input.Title = sanitize.Text(strings.TrimSpace(input.Title))
	input.Description = sanitize.HTML(strings.TrimSpace(input.Description))
	input.Cover = strings.TrimSpace(input.Cover)
	input.Place = sanitize.Text(strings.TrimSpace(input.Place))
	input.StartTime = NormalizeStartTime(input.StartTime)
	input.EndTime = NormalizeEndTime(input.EndTime)
	input.AllowedColleges = NormalizeList(input.AllowedColleges)
	input.AllowedGrades = NormalizeList(input.AllowedGrades)
	return input
}
