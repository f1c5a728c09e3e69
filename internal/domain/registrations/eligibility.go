package registrations

import (
	"regexp"
	"slices"
	"strings"

	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/Togather-Foundation/campus/internal/domain/events"
	"github.com/Togather-Foundation/campus/internal/sanitize"
)

var gradePattern = regexp.MustCompile(`^(\d{4})`)

// Eligibility is the outcome of the whitelist checks. Reason is
// domain.ReasonCollege or domain.ReasonGrade when OK is false.
type Eligibility struct {
	OK     bool
	Reason string
}

// Err converts a failed check into a forbidden error carrying the reason.
func (e Eligibility) Err() error {
	if e.OK {
		return nil
	}
	return domain.Ineligible(e.Reason)
}

// GradeOf returns the enrollment year encoded in the first four digits of a
// student id.
func GradeOf(studentID string) (string, bool) {
	m := gradePattern.FindStringSubmatch(studentID)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// CheckEligibility applies the event's college and grade whitelists to p.
// An empty list leaves that axis unrestricted.
func CheckEligibility(p *auth.Principal, event *events.Event) Eligibility {
	var college, studentID string
	if p != nil {
		college = strings.TrimSpace(p.College)
		studentID = p.StudentID
	}

	if colleges := sanitize.Fields(event.AllowedColleges); len(colleges) > 0 {
		if college == "" || !slices.Contains(colleges, college) {
			return Eligibility{Reason: domain.ReasonCollege}
		}
	}

	if grades := sanitize.Fields(event.AllowedGrades); len(grades) > 0 {
		grade, ok := GradeOf(studentID)
		if !ok || !slices.Contains(grades, grade) {
			return Eligibility{Reason: domain.ReasonGrade}
		}
	}

	return Eligibility{OK: true}
}
