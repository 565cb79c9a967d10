package api

import "github.com/MrEthical07/dmsclient/permission"

// File status values.
const (
	FileStatusNew       = 0
	FileStatusPending   = 1
	FileStatusPublished = 2
	FileStatusRejected  = 3
	FileStatusDeleted   = 4
)

// File types.
const (
	FileTypeVideo     = 1
	FileTypeAudio     = 2
	FileTypeImage     = 3
	FileTypeRichMedia = 4
)

// File is a managed media file.
type File struct {
	ID              int64   `json:"id"`
	CategoryID      int64   `json:"category_id"`
	CategoryName    string  `json:"category_name"`
	Type            int     `json:"type"`
	Title           string  `json:"title"`
	Name            string  `json:"name"`
	Ext             string  `json:"ext"`
	Size            int64   `json:"size"`
	Path            string  `json:"path"`
	Status          int     `json:"status"`
	Level           int     `json:"level"`
	Groups          string  `json:"groups"`
	IsDownload      bool    `json:"is_download"`
	CatalogInfo     string  `json:"catalog_info"`
	UploadUsername  string  `json:"upload_username"`
	UploadAt        int64   `json:"upload_at"`
	CatalogUsername *string `json:"catalog_username,omitempty"`
	CatalogAt       *int64  `json:"catalog_at,omitempty"`
	PutoutUsername  *string `json:"putout_username,omitempty"`
	PutoutAt        *int64  `json:"putout_at,omitempty"`
}

// FileStats is the dashboard summary.
type FileStats map[string]any

// Category is a node of the file category tree.
type Category struct {
	ID          int64      `json:"id"`
	ParentID    int64      `json:"parent_id"`
	Path        string     `json:"path"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Weight      int        `json:"weight"`
	Enabled     bool       `json:"enabled"`
	Created     int64      `json:"created"`
	Updated     int64      `json:"updated"`
	Children    []Category `json:"children,omitempty"`
}

// CatalogField describes one metadata field of a file type.
type CatalogField struct {
	ID          int64          `json:"id"`
	Type        int            `json:"type"`
	ParentID    int64          `json:"parent_id"`
	Path        string         `json:"path"`
	Name        string         `json:"name"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	FieldType   string         `json:"field_type"`
	Required    bool           `json:"required"`
	Options     string         `json:"options"`
	Weight      int            `json:"weight"`
	Enabled     bool           `json:"enabled"`
	Created     int64          `json:"created"`
	Updated     int64          `json:"updated"`
	Children    []CatalogField `json:"children,omitempty"`
}

// Group is a user group.
type Group struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Quota       int          `json:"quota"`
	Weight      int          `json:"weight"`
	Enabled     bool         `json:"enabled"`
	Roles       []RoleRecord `json:"roles,omitempty"`
	Categories  []Category   `json:"categories,omitempty"`
}

// RoleRecord is a role as administered.
type RoleRecord struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Weight      int                `json:"weight"`
	Enabled     bool               `json:"enabled"`
	IsSystem    bool               `json:"is_system"`
	Permissions []PermissionRecord `json:"permissions,omitempty"`
}

// Level is a browsing security level.
type Level struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Level       int    `json:"level"`
	Enabled     bool   `json:"enabled"`
}

// PermissionRecord is a permission as administered.
type PermissionRecord struct {
	ID         int64  `json:"id"`
	Namespace  string `json:"namespace"`
	Controller string `json:"controller"`
	Action     string `json:"action"`
	Aliasname  string `json:"aliasname"`
	RBAC       string `json:"rbac"`
}

// Code returns the dotted permission code.
func (p PermissionRecord) Code() string {
	return permission.Structured{Namespace: p.Namespace, Controller: p.Controller, Action: p.Action}.Code()
}

// UserRecord is an account as administered.
type UserRecord struct {
	ID          int64   `json:"id"`
	GroupID     int64   `json:"group_id"`
	LevelID     int64   `json:"level_id"`
	Username    string  `json:"username"`
	Nickname    string  `json:"nickname"`
	Email       *string `json:"email,omitempty"`
	Enabled     bool    `json:"enabled"`
	LoginCount  int     `json:"login_count"`
	LoginAt     int64   `json:"login_at"`
	RegisterAt  int64   `json:"register_at"`
	Group       *Group  `json:"group,omitempty"`
	Level       *Level  `json:"level,omitempty"`
	Description *string `json:"description,omitempty"`
}
