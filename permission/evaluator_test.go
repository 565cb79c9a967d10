package permission

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subject struct {
	admin bool
	perms Set
	roles RoleSet
}

func (s subject) AdminFlag() bool  { return s.admin }
func (s subject) Permissions() Set { return s.perms }
func (s subject) Roles() RoleSet   { return s.roles }

func newSubject(admin bool, perms []string, roles ...string) subject {
	return subject{admin: admin, perms: NewSetFromCodes(perms...), roles: NewRoleSetFromNames(roles...)}
}

func TestHasPermissionEmptyCodeAlwaysGranted(t *testing.T) {
	e := NewEvaluator(DefaultBypassRoles())
	assert.True(t, e.HasPermission(newSubject(false, nil), ""))
	assert.True(t, e.HasPermission(nil, ""))
}

func TestHasPermissionExactMatch(t *testing.T) {
	e := NewEvaluator(DefaultBypassRoles())
	s := newSubject(false, []string{"files.browse.list"}, "editor")

	assert.True(t, e.HasPermission(s, "files.browse.list"))
	assert.False(t, e.HasPermission(s, "files.browse"))
	assert.False(t, e.HasPermission(s, "FILES.BROWSE.LIST"))
	assert.False(t, e.HasPermission(s, "admin.users.manage"))
}

func TestAdminFlagGrantsEverything(t *testing.T) {
	e := NewEvaluator(DefaultBypassRoles())
	s := newSubject(true, nil)

	assert.True(t, e.IsAdmin(s))
	for _, code := range []string{"files.browse.list", "users.manage.view", "x.y.z"} {
		assert.True(t, e.HasPermission(s, code), code)
	}
	assert.True(t, e.HasAllPermissions(s, []string{"a.b.c", "d.e.f"}))
	assert.True(t, e.HasAnyPermission(s, []string{"a.b.c"}))
}

func TestBypassRoleGrantsAdmin(t *testing.T) {
	e := NewEvaluator(DefaultBypassRoles())
	cases := []struct {
		role string
		want bool
	}{
		{"admin", true},
		{"ADMIN", true},
		{"System", true},
		{"Administrator", true},
		{"超级管理员", true},
		{"editor", false},
		{"administrators", false},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			s := newSubject(false, nil, tc.role)
			assert.Equal(t, tc.want, e.IsAdmin(s))
			assert.Equal(t, tc.want, e.HasPermission(s, "files.browse.list"))
		})
	}
}

func TestBypassRoleMatchesRoleCode(t *testing.T) {
	e := NewEvaluator(DefaultBypassRoles())
	s := subject{roles: NewRoleSet(Role{ID: 1, Name: "Super", Code: "system"})}
	assert.True(t, e.IsAdmin(s))
}

func TestExactBypassRoleIsCaseSensitive(t *testing.T) {
	e := NewEvaluator(BypassRoles{Exact: []string{"Root"}})
	assert.True(t, e.IsAdmin(newSubject(false, nil, "Root")))
	assert.False(t, e.IsAdmin(newSubject(false, nil, "root")))
}

func TestCustomBypassRolesReplaceDefaults(t *testing.T) {
	e := NewEvaluator(BypassRoles{Folded: []string{"owner"}})
	assert.True(t, e.IsAdmin(newSubject(false, nil, "Owner")))
	assert.False(t, e.IsAdmin(newSubject(false, nil, "admin")))
}

func TestHasRoleIgnoresBypass(t *testing.T) {
	e := NewEvaluator(DefaultBypassRoles())
	admin := newSubject(true, nil, "admin")

	assert.True(t, e.HasRole(admin, "Admin"))
	assert.False(t, e.HasRole(admin, "editor"))
	assert.False(t, e.HasRole(admin, ""))
	assert.False(t, e.HasRole(nil, "admin"))
}

func TestHasAnyAndAll(t *testing.T) {
	e := NewEvaluator(DefaultBypassRoles())
	s := newSubject(false, []string{"files.browse.list", "files.upload.create"}, "editor")

	assert.True(t, e.HasAnyPermission(s, nil))
	assert.True(t, e.HasAllPermissions(s, []string{}))

	assert.True(t, e.HasAnyPermission(s, []string{"x.y.z", "files.upload.create"}))
	assert.False(t, e.HasAnyPermission(s, []string{"x.y.z"}))

	assert.True(t, e.HasAllPermissions(s, []string{"files.browse.list", "files.upload.create"}))
	assert.False(t, e.HasAllPermissions(s, []string{"files.browse.list", "x.y.z"}))
}

func TestNilSubjectIsDenied(t *testing.T) {
	e := NewEvaluator(DefaultBypassRoles())
	assert.False(t, e.IsAdmin(nil))
	assert.False(t, e.HasPermission(nil, "files.browse.list"))
	assert.False(t, e.HasAnyPermission(nil, []string{"a.b.c"}))
	assert.False(t, e.HasAllPermissions(nil, []string{"a.b.c"}))
}

func TestCheckerDelegates(t *testing.T) {
	e := NewEvaluator(DefaultBypassRoles())
	c := e.Bind(newSubject(false, []string{"files.browse.list"}, "editor"))

	assert.False(t, c.IsAdmin())
	assert.True(t, c.HasPermission("files.browse.list"))
	assert.True(t, c.HasRole("EDITOR"))
	assert.True(t, c.HasAnyPermission([]string{"files.browse.list"}))
	assert.False(t, c.HasAllPermissions([]string{"files.browse.list", "a.b.c"}))
}

func TestPermissionDecodesBothShapes(t *testing.T) {
	var perms []Permission
	payload := `["files.browse.list", {"namespace":"files","controller":"upload","action":"create"}]`
	require.NoError(t, json.Unmarshal([]byte(payload), &perms))
	require.Len(t, perms, 2)

	assert.False(t, perms[0].IsStructured())
	assert.Equal(t, "files.browse.list", perms[0].Code())
	assert.True(t, perms[1].IsStructured())
	assert.Equal(t, "files.upload.create", perms[1].Code())

	out, err := json.Marshal(perms[1])
	require.NoError(t, err)
	assert.JSONEq(t, `"files.upload.create"`, string(out))
}

func TestPermissionRejectsOtherShapes(t *testing.T) {
	var p Permission
	assert.ErrorIs(t, json.Unmarshal([]byte(`42`), &p), ErrInvalidPermission)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"action":"list"}`), &p), ErrInvalidPermission)
}

func TestSetNormalisesMixedInput(t *testing.T) {
	var s Set
	payload := `["b.c.d", {"namespace":"a","controller":"b","action":"c"}, "b.c.d", ""]`
	require.NoError(t, json.Unmarshal([]byte(payload), &s))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a.b.c", "b.c.d"}, s.Codes())
	assert.True(t, s.Has("a.b.c"))
}

func TestRoleSetDecodesStringsAndObjects(t *testing.T) {
	var rs RoleSet
	payload := `["editor", {"id":3,"name":"Reviewer","code":"reviewer"}, {"code":"system"}]`
	require.NoError(t, json.Unmarshal([]byte(payload), &rs))

	assert.Equal(t, 3, rs.Len())
	assert.True(t, rs.HasFold("REVIEWER"))
	assert.True(t, rs.HasExact("Reviewer"))
	assert.False(t, rs.HasExact("reviewer2"))
	assert.True(t, rs.HasFold("system"))
	assert.Equal(t, []string{"Reviewer", "editor", "reviewer", "system"}, rs.Names())
}

func TestEmptyRoleSetMarshalsAsArray(t *testing.T) {
	out, err := json.Marshal(RoleSet{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestHasAnyRole(t *testing.T) {
	e := NewEvaluator(DefaultBypassRoles())
	s := newSubject(false, nil, "Editor")

	assert.True(t, e.HasAnyRole(s, []string{"viewer", "editor"}))
	assert.False(t, e.HasAnyRole(s, []string{"viewer"}))
	assert.False(t, e.HasAnyRole(s, nil))
}
