package permission

import "strings"

// Subject is the identity being evaluated, typically a session snapshot.
type Subject interface {
	AdminFlag() bool
	Permissions() Set
	Roles() RoleSet
}

// BypassRoles lists role names that grant every permission.
// Folded names match case-insensitively; Exact names match byte for byte.
type BypassRoles struct {
	Folded []string
	Exact  []string
}

// DefaultBypassRoles returns the role names the backend treats as
// super-administrators.
func DefaultBypassRoles() BypassRoles {
	return BypassRoles{
		Folded: []string{"admin", "system", "超级管理员", "administrator"},
		Exact:  []string{"超级管理员"},
	}
}

// Clone returns a deep copy.
func (b BypassRoles) Clone() BypassRoles {
	return BypassRoles{
		Folded: append([]string(nil), b.Folded...),
		Exact:  append([]string(nil), b.Exact...),
	}
}

// Evaluator holds the bypass-role configuration. It is immutable and safe
// for concurrent use.
type Evaluator struct {
	folded []string
	exact  []string
}

// NewEvaluator returns an Evaluator for the given bypass roles.
func NewEvaluator(bypass BypassRoles) *Evaluator {
	e := &Evaluator{}
	for _, n := range bypass.Folded {
		if n = strings.TrimSpace(n); n != "" {
			e.folded = append(e.folded, strings.ToLower(n))
		}
	}
	for _, n := range bypass.Exact {
		if n != "" {
			e.exact = append(e.exact, n)
		}
	}
	return e
}

// IsAdmin is true when the admin flag is set OR the subject holds a bypass
// role. Both signals are trusted independently.
func (e *Evaluator) IsAdmin(s Subject) bool {
	if s == nil {
		return false
	}
	if s.AdminFlag() {
		return true
	}
	return e.hasBypassRole(s.Roles())
}

func (e *Evaluator) hasBypassRole(roles RoleSet) bool {
	if e == nil {
		return false
	}
	for _, n := range e.folded {
		if roles.HasFold(n) {
			return true
		}
	}
	for _, n := range e.exact {
		if roles.HasExact(n) {
			return true
		}
	}
	return false
}

// HasPermission: an empty code is always granted, admins are always
// granted, otherwise exact membership.
func (e *Evaluator) HasPermission(s Subject, code string) bool {
	if code == "" {
		return true
	}
	if s == nil {
		return false
	}
	if e.IsAdmin(s) {
		return true
	}
	return s.Permissions().Has(code)
}

// HasRole matches case-insensitively against role names and codes.
// The admin bypass does not apply.
func (e *Evaluator) HasRole(s Subject, name string) bool {
	if s == nil || name == "" {
		return false
	}
	return s.Roles().HasFold(name)
}

// HasAnyPermission is vacuously true for an empty list.
func (e *Evaluator) HasAnyPermission(s Subject, codes []string) bool {
	if len(codes) == 0 {
		return true
	}
	if s == nil {
		return false
	}
	if e.IsAdmin(s) {
		return true
	}
	perms := s.Permissions()
	for _, c := range codes {
		if perms.Has(c) {
			return true
		}
	}
	return false
}

// HasAllPermissions is vacuously true for an empty list.
func (e *Evaluator) HasAllPermissions(s Subject, codes []string) bool {
	if len(codes) == 0 {
		return true
	}
	if s == nil {
		return false
	}
	if e.IsAdmin(s) {
		return true
	}
	perms := s.Permissions()
	for _, c := range codes {
		if !perms.Has(c) {
			return false
		}
	}
	return true
}

// Bind fixes the subject so callers can ask questions without passing it.
func (e *Evaluator) Bind(s Subject) Checker {
	return Checker{evaluator: e, subject: s}
}

// Checker is an Evaluator bound to one Subject.
type Checker struct {
	evaluator *Evaluator
	subject   Subject
}

func (c Checker) IsAdmin() bool                  { return c.evaluator.IsAdmin(c.subject) }
func (c Checker) HasPermission(code string) bool { return c.evaluator.HasPermission(c.subject, code) }
func (c Checker) HasRole(name string) bool       { return c.evaluator.HasRole(c.subject, name) }
func (c Checker) HasAnyPermission(codes []string) bool {
	return c.evaluator.HasAnyPermission(c.subject, codes)
}
func (c Checker) HasAllPermissions(codes []string) bool {
	return c.evaluator.HasAllPermissions(c.subject, codes)
}

// HasAnyRole reports whether the subject holds at least one of names.
// An empty list is false, matching HasRole on an empty name.
func (e *Evaluator) HasAnyRole(s Subject, names []string) bool {
	for _, n := range names {
		if e.HasRole(s, n) {
			return true
		}
	}
	return false
}
