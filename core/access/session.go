package access

import (
	"errors"
	"fmt"
	"strings"
)

// Session is the authenticated request context the predicates operate on.
// It is derived fresh per request from the signed token; SchoolID and
// AllowedFeatures are re-read from storage on every token refresh so admin
// edits are picked up without re-login.
type Session struct {
	UserID          string
	Role            Role
	SchoolID        string
	Mobile          string
	StudentID       string
	AllowedFeatures []string
}

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrSelfAction      = errors.New("you cannot perform this action on your own account")
)

// RoleForbiddenError indicates a valid session whose role is not in the
// allowed set for the operation.
type RoleForbiddenError struct {
	Role Role
}

func (e RoleForbiddenError) Error() string {
	return "permission denied"
}

// TenantMismatchError indicates a resource belonging to a different school
// than the caller's.
type TenantMismatchError struct {
	Resource string
}

func (e TenantMismatchError) Error() string {
	resource := e.Resource
	if resource == "" {
		resource = "resource"
	}
	return fmt.Sprintf("you do not have access to this %s", resource)
}

// FeatureForbiddenError indicates a teacher lacking a required feature, or
// attempting to grant features they do not hold; Invalid lists the
// offending feature ids for diagnostics.
type FeatureForbiddenError struct {
	Message string
	Invalid []string
}

func (e FeatureForbiddenError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "feature not allowed"
}

// RequireSession maps a missing session to ErrUnauthenticated.
func RequireSession(sess *Session) error {
	if sess == nil || sess.UserID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// RequireRole checks that the session's role is one of `allowed`.
// An empty allowed set only requires authentication.
func RequireRole(sess *Session, allowed ...Role) error {
	if err := RequireSession(sess); err != nil {
		return err
	}
	if len(allowed) == 0 {
		return nil
	}
	if !roleIn(sess.Role, allowed) {
		return RoleForbiddenError{Role: sess.Role}
	}
	return nil
}

// RequireSameTenant checks that a resource belongs to the caller's school.
// Superadmins operate across tenants.
func RequireSameTenant(sess *Session, resourceSchoolID, resource string) error {
	if err := RequireSession(sess); err != nil {
		return err
	}
	if sess.Role == RoleSuperAdmin {
		return nil
	}
	if resourceSchoolID != sess.SchoolID {
		return TenantMismatchError{Resource: resource}
	}
	return nil
}

// HasFeature reports whether the session may access the given tab.
// Admin roles always may; teachers are restricted to their allow-list with
// the dashboard tab always available; any other role is denied.
//
// A teacher's allow-list entry matches if it equals the resolved feature id,
// the raw normalized tab name, or the normalized tab case-insensitively —
// historical data stored any of the three. See NormalizeFeatures.
func HasFeature(sess *Session, tab string) bool {
	if sess == nil {
		return false
	}
	if sess.Role.IsAdmin() {
		return true
	}
	if strings.TrimSpace(tab) == "" {
		// no restriction declared
		return true
	}
	if sess.Role != RoleTeacher {
		return false
	}

	norm := NormalizeTab(tab)
	if norm == string(FeatureDashboard) {
		return true
	}
	feature := ResolveTab(norm)
	for _, granted := range sess.AllowedFeatures {
		if granted == string(feature) || granted == norm || strings.ToLower(granted) == norm {
			return true
		}
	}
	return false
}

// TeacherCanCreate checks a teacher-initiated user creation: the new
// account's role must be teacher-creatable and every requested feature must
// already be held by the creating teacher. All offending features are
// reported so the caller can fail the whole request atomically.
func TeacherCanCreate(sess *Session, newRole Role, features []string) error {
	if err := RequireRole(sess, RoleTeacher); err != nil {
		return err
	}
	if !roleIn(newRole, TeacherCreatableRoles) {
		return FeatureForbiddenError{Message: "teachers can only create student accounts"}
	}

	held := make(map[string]bool, len(sess.AllowedFeatures))
	for _, f := range sess.AllowedFeatures {
		held[string(ResolveTab(f))] = true
	}
	var invalid []string
	for _, f := range features {
		if !held[string(ResolveTab(f))] {
			invalid = append(invalid, f)
		}
	}
	if len(invalid) > 0 {
		return FeatureForbiddenError{
			Message: "you cannot grant features you do not hold",
			Invalid: invalid,
		}
	}
	return nil
}

// AuthorizeWrite is the predicate every mutating handler runs before
// touching storage: role check, then tenant check. Feature checks on
// teacher-create paths go through TeacherCanCreate separately.
func AuthorizeWrite(sess *Session, allowed []Role, resourceSchoolID, resource string) error {
	if err := RequireRole(sess, allowed...); err != nil {
		return err
	}
	return RequireSameTenant(sess, resourceSchoolID, resource)
}
