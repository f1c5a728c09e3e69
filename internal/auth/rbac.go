package auth

import "strings"

type Role string

const (
	RoleStudent   Role = "student"
	RoleOrganizer Role = "organizer"
	RoleReviewer  Role = "reviewer"
	RoleAdmin     Role = "admin"
)

// Roles lists every role the system knows about. Anything else is rejected by ParseRole.
var Roles = []Role{RoleStudent, RoleOrganizer, RoleReviewer, RoleAdmin}

// Operation names a permission-checked action. Ownership rules (creator of an
// event, owner of a registration) are applied by the services on top of this table.
type Operation string

const (
	OpCreateEvent                 Operation = "event.create"
	OpEditOwnEvent                Operation = "event.edit_own"
	OpEditAnyEvent                Operation = "event.edit_any"
	OpReviewEvent                 Operation = "event.review"
	OpViewAllEvents               Operation = "event.view_all"
	OpRegister                    Operation = "registration.create"
	OpManageOwnEventRegistrations Operation = "registration.manage_own_event"
	OpManageAnyRegistration       Operation = "registration.manage_any"
)

var capabilities = map[Role]map[Operation]bool{
	RoleStudent: {
		OpRegister: true,
	},
	RoleOrganizer: {
		OpCreateEvent:                 true,
		OpEditOwnEvent:                true,
		OpRegister:                    true,
		OpManageOwnEventRegistrations: true,
	},
	RoleReviewer: {
		OpReviewEvent:   true,
		OpViewAllEvents: true,
		OpRegister:      true,
	},
	RoleAdmin: {
		OpEditAnyEvent:          true,
		OpViewAllEvents:         true,
		OpRegister:              true,
		OpManageAnyRegistration: true,
	},
}

// ParseRole returns the role for value and false when value is not a known role.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := capabilities[role]; ok {
		return role, true
	}
	return "", false
}

// NormalizeRole maps unknown roles to the least privileged one.
func NormalizeRole(role string) Role {
	if parsed, ok := ParseRole(role); ok {
		return parsed
	}
	return RoleStudent
}

// Can reports whether role may perform op.
func Can(role Role, op Operation) bool {
	return capabilities[role][op]
}

func HasRole(role string, allowed ...Role) bool {
	if len(allowed) == 0 {
		return false
	}
	current, ok := ParseRole(role)
	if !ok {
		return false
	}
	for _, candidate := range allowed {
		if current == candidate {
			return true
		}
	}
	return false
}

func IsAdmin(role string) bool {
	return HasRole(role, RoleAdmin)
}
