package permission

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Role is a role identifier. The backend sends either the bare name or an
// object carrying a name and/or a code.
type Role struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
}

// UnmarshalJSON accepts "editor" or {"id":2,"name":"Editor","code":"editor"}.
func (r *Role) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*r = Role{Name: name}
		return nil
	}
	type plain Role
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Role(p)
	return nil
}

func (r Role) identifiers() []string {
	switch {
	case r.Name != "" && r.Code != "" && r.Name != r.Code:
		return []string{r.Name, r.Code}
	case r.Name != "":
		return []string{r.Name}
	case r.Code != "":
		return []string{r.Code}
	default:
		return nil
	}
}

// RoleSet is an immutable set of roles indexed for exact and
// case-insensitive lookup.
type RoleSet struct {
	roles  []Role
	exact  map[string]struct{}
	folded map[string]struct{}
}

// NewRoleSet indexes roles.
func NewRoleSet(roles ...Role) RoleSet {
	rs := RoleSet{
		roles:  append([]Role(nil), roles...),
		exact:  make(map[string]struct{}, len(roles)),
		folded: make(map[string]struct{}, len(roles)),
	}
	for _, r := range roles {
		for _, id := range r.identifiers() {
			rs.exact[id] = struct{}{}
			rs.folded[strings.ToLower(id)] = struct{}{}
		}
	}
	return rs
}

// NewRoleSetFromNames builds a RoleSet from bare names.
func NewRoleSetFromNames(names ...string) RoleSet {
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		roles = append(roles, Role{Name: n})
	}
	return NewRoleSet(roles...)
}

// HasFold reports case-insensitive membership.
func (rs RoleSet) HasFold(name string) bool {
	_, ok := rs.folded[strings.ToLower(name)]
	return ok
}

// HasExact reports case-sensitive membership.
func (rs RoleSet) HasExact(name string) bool {
	_, ok := rs.exact[name]
	return ok
}

// Len returns the number of roles.
func (rs RoleSet) Len() int {
	return len(rs.roles)
}

// Roles returns a copy of the roles.
func (rs RoleSet) Roles() []Role {
	return append([]Role(nil), rs.roles...)
}

// Names returns the distinct role identifiers in sorted order.
func (rs RoleSet) Names() []string {
	out := make([]string, 0, len(rs.exact))
	for n := range rs.exact {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (rs *RoleSet) UnmarshalJSON(data []byte) error {
	var roles []Role
	if err := json.Unmarshal(data, &roles); err != nil {
		return err
	}
	*rs = NewRoleSet(roles...)
	return nil
}

func (rs RoleSet) MarshalJSON() ([]byte, error) {
	if rs.roles == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(rs.roles)
}
