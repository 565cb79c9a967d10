package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrEthical07/dmsclient/permission"
	"github.com/MrEthical07/dmsclient/transport"
)

// Groups is the /admin/groups resource.
type Groups struct {
	Resource[Group]
}

// AssignCategories replaces the categories a group may browse.
func (g *Groups) AssignCategories(ctx context.Context, id int64, categoryIDs []int64) error {
	return g.post(ctx, g.path(id)+"/categories", map[string][]int64{"category_ids": categoryIDs}, nil)
}

// AssignRoles replaces a group's roles.
func (g *Groups) AssignRoles(ctx context.Context, id int64, roleIDs []int64) error {
	return g.post(ctx, g.path(id)+"/roles", map[string][]int64{"role_ids": roleIDs}, nil)
}

// Roles is the /admin/roles resource.
type Roles struct {
	Resource[RoleRecord]
}

// AssignPermissions replaces a role's permissions.
func (r *Roles) AssignPermissions(ctx context.Context, id int64, permissionIDs []int64) error {
	return r.post(ctx, r.path(id)+"/permissions", map[string][]int64{"permission_ids": permissionIDs}, nil)
}

// Permissions is the read-only /admin/permissions resource.
type Permissions struct {
	t Transport
}

func (p *Permissions) resource() Resource[PermissionRecord] {
	return Resource[PermissionRecord]{t: p.t, base: "/admin/permissions"}
}

// List fetches permission definitions.
func (p *Permissions) List(ctx context.Context, query url.Values) (Page[PermissionRecord], error) {
	return p.resource().List(ctx, query)
}

// Get fetches one permission definition.
func (p *Permissions) Get(ctx context.Context, id int64) (PermissionRecord, error) {
	return p.resource().Get(ctx, id)
}

// Users is the /admin/users resource.
type Users struct {
	Resource[UserRecord]
}

// UserFilter narrows a user listing.
type UserFilter struct {
	Page     int
	PageSize int
	Username string
	GroupID  int64
	LevelID  int64
	Status   *int
}

// Values encodes the filter as query parameters.
func (f UserFilter) Values() url.Values {
	q := Paging(f.Page, f.PageSize)
	if f.Username != "" {
		q.Set("username", f.Username)
	}
	if f.GroupID > 0 {
		q.Set("group_id", strconv.FormatInt(f.GroupID, 10))
	}
	if f.LevelID > 0 {
		q.Set("level_id", strconv.FormatInt(f.LevelID, 10))
	}
	if f.Status != nil {
		q.Set("status", strconv.Itoa(*f.Status))
	}
	return q
}

// ResetPassword sets a user's password.
func (u *Users) ResetPassword(ctx context.Context, id int64, newPassword string) error {
	return u.post(ctx, u.path(id)+"/reset-password", map[string]string{"new_password": newPassword}, nil)
}

type batchDeleteReply struct {
	Data struct {
		DeletedCount int `json:"deleted_count"`
	} `json:"data"`
}

// BatchDelete removes several users and returns how many were deleted.
func (u *Users) BatchDelete(ctx context.Context, ids []int64) (int, error) {
	var reply batchDeleteReply
	if err := u.post(ctx, u.base+"/batch-delete", map[string][]int64{"ids": ids}, &reply); err != nil {
		return 0, err
	}
	return reply.Data.DeletedCount, nil
}

// SetEnabled enables or disables an account.
func (u *Users) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	status := 0
	if enabled {
		status = 1
	}
	body := map[string]int{"status": status}
	return u.t.Do(ctx, transport.Request{Method: http.MethodPut, Path: u.path(id) + "/status", Body: body}, nil)
}

type userPermissionsReply struct {
	Data struct {
		Permissions permission.Set `json:"permissions"`
	} `json:"data"`
}

// Permissions returns the effective permission set of a user.
func (u *Users) Permissions(ctx context.Context, id int64) (permission.Set, error) {
	var reply userPermissionsReply
	if err := u.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: u.path(id) + "/permissions"}, &reply); err != nil {
		return permission.Set{}, err
	}
	return reply.Data.Permissions, nil
}
