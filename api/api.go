package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrEthical07/dmsclient/transport"
)

// Transport is the HTTP surface the resource clients use.
// transport.Client implements it.
type Transport interface {
	Do(ctx context.Context, req transport.Request, out any) error
	Upload(ctx context.Context, path string, fields map[string]string, file transport.UploadFile, progress transport.ProgressFunc, out any) error
	Stream(ctx context.Context, req transport.Request) (io.ReadCloser, http.Header, error)
	URL(path string, query url.Values) string
}

var _ Transport = (*transport.Client)(nil)

// Client groups every resource client.
type Client struct {
	Auth        *Auth
	Files       *Files
	Categories  *Categories
	Catalog     *Catalog
	Groups      *Groups
	Roles       *Roles
	Levels      Resource[Level]
	Permissions *Permissions
	Users       *Users
	Search      *Search
}

// New returns resource clients sharing t.
func New(t Transport) *Client {
	return &Client{
		Auth:        &Auth{t: t},
		Files:       &Files{Resource: Resource[File]{t: t, base: "/files"}},
		Categories:  &Categories{Resource: Resource[Category]{t: t, base: "/categories"}},
		Catalog:     &Catalog{Resource: Resource[CatalogField]{t: t, base: "/catalog"}},
		Groups:      &Groups{Resource: Resource[Group]{t: t, base: "/admin/groups"}},
		Roles:       &Roles{Resource: Resource[RoleRecord]{t: t, base: "/admin/roles"}},
		Levels:      Resource[Level]{t: t, base: "/admin/levels"},
		Permissions: &Permissions{t: t},
		Users:       &Users{Resource: Resource[UserRecord]{t: t, base: "/admin/users"}},
		Search:      &Search{t: t},
	}
}

// Pagination is the paging block list replies carry.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// Page is one page of a list reply.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

type listReply[T any] struct {
	Data       []T         `json:"data"`
	Pagination *Pagination `json:"pagination"`
	Total      *int64      `json:"total"`
}

func (r listReply[T]) page() Page[T] {
	p := Page[T]{Items: r.Data}
	if r.Pagination != nil {
		p.Pagination = *r.Pagination
	}
	if p.Pagination.Total == 0 {
		if r.Total != nil {
			p.Pagination.Total = *r.Total
		} else {
			p.Pagination.Total = int64(len(r.Data))
		}
	}
	return p
}

type itemReply[T any] struct {
	Data T `json:"data"`
}

// Resource is a REST collection with uniform verbs.
type Resource[T any] struct {
	t    Transport
	base string
}

func (r Resource[T]) path(id int64) string {
	return r.base + "/" + strconv.FormatInt(id, 10)
}

// List fetches one page. query may be nil.
func (r Resource[T]) List(ctx context.Context, query url.Values) (Page[T], error) {
	var reply listReply[T]
	if err := r.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: r.base, Query: query}, &reply); err != nil {
		return Page[T]{}, err
	}
	return reply.page(), nil
}

// Get fetches one item.
func (r Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var reply itemReply[T]
	err := r.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: r.path(id)}, &reply)
	return reply.Data, err
}

// Create posts body and returns the created item when the reply carries it.
func (r Resource[T]) Create(ctx context.Context, body any) (T, error) {
	var reply itemReply[T]
	err := r.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: r.base, Body: body}, &reply)
	return reply.Data, err
}

// Update puts body.
func (r Resource[T]) Update(ctx context.Context, id int64, body any) error {
	return r.t.Do(ctx, transport.Request{Method: http.MethodPut, Path: r.path(id), Body: body}, nil)
}

// Delete removes one item.
func (r Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.t.Do(ctx, transport.Request{Method: http.MethodDelete, Path: r.path(id)}, nil)
}

func (r Resource[T]) post(ctx context.Context, path string, body, out any) error {
	return r.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Paging returns page/page_size query values.
func Paging(page, pageSize int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	return q
}
