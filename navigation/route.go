package navigation

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Meta is the per-route metadata. Pointer fields distinguish "unset" from
// false so that nested records inherit from their parents.
type Meta struct {
	Title         string   `yaml:"title,omitempty" json:"title,omitempty"`
	Icon          string   `yaml:"icon,omitempty" json:"icon,omitempty"`
	Hidden        *bool    `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	RequiresAuth  *bool    `yaml:"requires_auth,omitempty" json:"requires_auth,omitempty"`
	RequiresAdmin *bool    `yaml:"requires_admin,omitempty" json:"requires_admin,omitempty"`
	Permissions   []string `yaml:"permissions,omitempty" json:"permissions,omitempty"`
}

// AuthRequired defaults to true.
func (m Meta) AuthRequired() bool { return m.RequiresAuth == nil || *m.RequiresAuth }

// AdminRequired defaults to false.
func (m Meta) AdminRequired() bool { return m.RequiresAdmin != nil && *m.RequiresAdmin }

// IsHidden defaults to false.
func (m Meta) IsHidden() bool { return m.Hidden != nil && *m.Hidden }

// merge returns m overlaid with the fields child sets.
func (m Meta) merge(child Meta) Meta {
	if child.Title != "" {
		m.Title = child.Title
	}
	if child.Icon != "" {
		m.Icon = child.Icon
	}
	if child.Hidden != nil {
		m.Hidden = child.Hidden
	}
	if child.RequiresAuth != nil {
		m.RequiresAuth = child.RequiresAuth
	}
	if child.RequiresAdmin != nil {
		m.RequiresAdmin = child.RequiresAdmin
	}
	if child.Permissions != nil {
		m.Permissions = append([]string(nil), child.Permissions...)
	}
	return m
}

// Route is one record of the route table. Child paths without a leading
// slash are relative to the parent.
type Route struct {
	Path     string  `yaml:"path"`
	Name     string  `yaml:"name,omitempty"`
	Redirect string  `yaml:"redirect,omitempty"`
	Meta     Meta    `yaml:"meta,omitempty"`
	Children []Route `yaml:"children,omitempty"`
}

func boolPtr(v bool) *bool { return &v }

// Route names and paths of the default table.
const (
	LoginPath   = "/login"
	LandingPath = "/dashboard"
)

// DefaultRoutes returns the web client's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/test-video", Name: "TestVideoPlayer", Meta: Meta{RequiresAuth: boolPtr(false)}},
		{Path: LoginPath, Name: "Login", Meta: Meta{RequiresAuth: boolPtr(false)}},
		{
			Path:     "/",
			Redirect: LandingPath,
			Meta:     Meta{RequiresAuth: boolPtr(true)},
			Children: []Route{
				{Path: "dashboard", Name: "Dashboard", Meta: Meta{Title: "menu.home", Icon: "HomeFilled"}},
				{Path: "files", Name: "Files", Meta: Meta{Title: "menu.fileList", Icon: "Document", Permissions: []string{"files.browse.list"}}},
				{Path: "files/upload", Name: "FileUpload", Meta: Meta{Title: "menu.fileUpload", Icon: "Upload", Permissions: []string{"files.upload.create"}}},
				{Path: `files/:id(\d+)`, Name: "FileDetail", Meta: Meta{Title: "files.fileDetail", Hidden: boolPtr(true), Permissions: []string{"files.browse.view"}}},
				{Path: `files/:id(\d+)/simple`, Name: "FileDetailSimple", Meta: Meta{Title: "files.fileDetail", Hidden: boolPtr(true), Permissions: []string{"files.browse.view"}}},
				{Path: `files/:id(\d+)/catalog`, Name: "FileCatalog", Meta: Meta{Title: "files.fileCatalog", Icon: "Edit", Hidden: boolPtr(true), Permissions: []string{"files.catalog.edit"}}},
				{Path: "approval", Name: "FileApproval", Meta: Meta{Title: "menu.fileApproval", Icon: "CircleCheck", Permissions: []string{"files.putout.approve"}}},
				{Path: "search", Name: "Search", Meta: Meta{Title: "menu.search", Icon: "Search", Permissions: []string{"files.browse.search"}}},
				{
					Path:     "admin",
					Name:     "Admin",
					Redirect: "/admin/users",
					Meta:     Meta{Title: "menu.admin", Icon: "Setting", RequiresAdmin: boolPtr(true), Permissions: []string{}},
					Children: []Route{
						{Path: "users", Name: "AdminUsers", Meta: Meta{Title: "menu.users", Icon: "User", Permissions: []string{"users.manage.view"}}},
						{Path: "groups", Name: "AdminGroups", Meta: Meta{Title: "menu.groups", Icon: "UserFilled", Permissions: []string{"groups.manage.view"}}},
						{Path: "roles", Name: "AdminRoles", Meta: Meta{Title: "menu.roles", Icon: "Avatar", Permissions: []string{"roles.manage.view"}}},
						{Path: "permissions", Name: "AdminPermissions", Meta: Meta{Title: "menu.permissions", Icon: "Lock", Permissions: []string{"permissions.manage.view"}}},
						{Path: "levels", Name: "AdminLevels", Meta: Meta{Title: "menu.levels", Icon: "TrendCharts", Permissions: []string{"levels.manage.view"}}},
						{Path: "categories", Name: "AdminCategories", Meta: Meta{Title: "menu.categories", Icon: "FolderOpened", Permissions: []string{"categories.manage.create"}}},
						{Path: "catalog", Name: "AdminCatalog", Meta: Meta{Title: "menu.catalog", Icon: "List", Permissions: []string{"catalog.config.view"}}},
					},
				},
			},
		},
	}
}

type routeFile struct {
	Routes []Route `yaml:"routes"`
}

// LoadRoutes decodes a YAML document of the form
//
//	routes:
//	  - path: /login
//	    meta: {requires_auth: false}
func LoadRoutes(r io.Reader) ([]Route, error) {
	var doc routeFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("navigation: decode routes: %w", err)
	}
	if len(doc.Routes) == 0 {
		return nil, ErrNoRoutes
	}
	return doc.Routes, nil
}

// LoadRoutesFile reads LoadRoutes input from path.
func LoadRoutesFile(path string) ([]Route, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadRoutes(f)
}
