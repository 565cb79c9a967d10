package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/MrEthical07/dmsclient/permission"
	"github.com/MrEthical07/dmsclient/session"
	"github.com/MrEthical07/dmsclient/tokenstore"
	"github.com/MrEthical07/dmsclient/transport"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// backend records the last request body per path.
type backend struct {
	mu     sync.Mutex
	bodies map[string]map[string]any
	router chi.Router
}

func (b *backend) capture(r *http.Request) {
	var in map[string]any
	_ = json.NewDecoder(r.Body).Decode(&in)
	b.mu.Lock()
	b.bodies[r.Method+" "+r.URL.Path] = in
	b.mu.Unlock()
}

func (b *backend) body(key string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[key]
}

func ok(w http.ResponseWriter, extra map[string]any) {
	out := map[string]any{"success": true}
	for k, v := range extra {
		out[k] = v
	}
	writeJSON(w, 200, out)
}

func newBackend(t *testing.T, mount func(r chi.Router, b *backend)) (*Client, *tokenstore.Memory, *backend) {
	t.Helper()
	b := &backend{bodies: map[string]map[string]any{}}
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) { mount(r, b) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	tokens := &tokenstore.Memory{}
	tc, err := transport.New(transport.Config{BaseURL: srv.URL + "/api"}, tokens)
	require.NoError(t, err)
	return New(tc), tokens, b
}

func TestLoginScenarioEndToEnd(t *testing.T) {
	c, tokens, _ := newBackend(t, func(r chi.Router, b *backend) {
		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var creds session.Credentials
			_ = json.NewDecoder(r.Body).Decode(&creds)
			if creds.Username != "alice" || creds.Password != "x" {
				writeJSON(w, 200, map[string]any{"success": false, "message": "Invalid username or password"})
				return
			}
			ok(w, map[string]any{"token": "t1", "user": map[string]any{"id": 1, "is_admin": false}})
		})
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer t1" {
				writeJSON(w, 401, map[string]any{"success": false, "message": "unauthorized"})
				return
			}
			ok(w, map[string]any{"permissions": []string{"files.browse.list"}, "roles": []string{"viewer"}})
		})
	})

	store, err := session.New(c.Auth, tokens)
	require.NoError(t, err)

	loggedIn, err := store.Login(context.Background(), session.Credentials{Username: "alice", Password: "x"})
	require.NoError(t, err)
	require.True(t, loggedIn)

	snap := store.Snapshot()
	eval := permission.NewEvaluator(permission.DefaultBypassRoles())
	assert.True(t, snap.IsAuthenticated())
	assert.False(t, eval.IsAdmin(snap))
	assert.Equal(t, []string{"files.browse.list"}, snap.Permissions().Codes())
	assert.True(t, eval.HasPermission(snap, "files.browse.list"))
	assert.False(t, eval.HasPermission(snap, "files.upload.create"))
	assert.True(t, eval.HasRole(snap, "Viewer"))

	rejected, err := store.Login(context.Background(), session.Credentials{Username: "alice", Password: "nope"})
	require.NoError(t, err)
	assert.False(t, rejected)
}

func TestIdentityDecodingShapes(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		token string
		perms []string
		roles []string
		user  int64
	}{
		{
			name:  "root level",
			body:  `{"success":true,"token":"a","user":{"id":1},"permissions":["x.y.z"],"roles":["viewer"]}`,
			token: "a", perms: []string{"x.y.z"}, roles: []string{"viewer"}, user: 1,
		},
		{
			name:  "nested under data",
			body:  `{"success":true,"data":{"token":"b","user":{"id":2},"permissions":["x.y.z"],"roles":[{"id":1,"name":"Editor","code":"editor"}]}}`,
			token: "b", perms: []string{"x.y.z"}, roles: []string{"Editor", "editor"}, user: 2,
		},
		{
			name:  "inside the user record",
			body:  `{"success":true,"user":{"id":3,"username":"c","permissions":[{"namespace":"files","controller":"browse","action":"list"}],"roles":["admin"]}}`,
			perms: []string{"files.browse.list"}, roles: []string{"admin"}, user: 3,
		},
		{
			name:  "root wins over user",
			body:  `{"success":true,"user":{"id":4,"permissions":["u.u.u"]},"permissions":["r.r.r"]}`,
			perms: []string{"r.r.r"}, user: 4,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p identityPayload
			require.NoError(t, json.Unmarshal([]byte(tc.body), &p))
			id := p.identity()

			assert.Equal(t, tc.token, id.Token)
			require.NotNil(t, id.User)
			assert.Equal(t, tc.user, id.User.ID)
			assert.Equal(t, tc.perms, nilIfEmpty(id.Permissions.Codes()))
			assert.Equal(t, tc.roles, nilIfEmpty(id.Roles.Names()))
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestRefreshTokenLocations(t *testing.T) {
	var reply string
	c, _, _ := newBackend(t, func(r chi.Router, b *backend) {
		r.Post("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, reply)
		})
	})
	ctx := context.Background()

	reply = `{"success":true,"token":"root"}`
	token, err := c.Auth.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "root", token)

	reply = `{"success":true,"data":{"token":"nested"}}`
	token, err = c.Auth.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "nested", token)

	reply = `{"success":true,"data":{"user_id":1,"username":"alice"}}`
	_, err = c.Auth.Refresh(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestAuthPassthroughBodies(t *testing.T) {
	c, _, b := newBackend(t, func(r chi.Router, b *backend) {
		for _, p := range []string{"/auth/change-password", "/auth/forgot-password", "/auth/reset-password", "/auth/logout"} {
			r.Post(p, func(w http.ResponseWriter, r *http.Request) { b.capture(r); ok(w, nil) })
		}
		r.Put("/auth/profile", func(w http.ResponseWriter, r *http.Request) {
			b.capture(r)
			ok(w, map[string]any{"message": "Profile updated successfully"})
		})
	})
	ctx := context.Background()

	require.NoError(t, c.Auth.ChangePassword(ctx, "old", "new"))
	assert.Equal(t, map[string]any{"old_password": "old", "new_password": "new"}, b.body("POST /api/auth/change-password"))

	require.NoError(t, c.Auth.ForgotPassword(ctx, "a@b.c"))
	assert.Equal(t, map[string]any{"email": "a@b.c"}, b.body("POST /api/auth/forgot-password"))

	require.NoError(t, c.Auth.ResetPassword(ctx, "tok", "pw"))
	assert.Equal(t, map[string]any{"token": "tok", "new_password": "pw"}, b.body("POST /api/auth/reset-password"))

	user, err := c.Auth.UpdateProfile(ctx, session.ProfileUpdate{Nickname: "Ally"})
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Equal(t, map[string]any{"nickname": "Ally"}, b.body("PUT /api/auth/profile"))

	require.NoError(t, c.Auth.Logout(ctx))
}

func TestFilesEndpoints(t *testing.T) {
	c, _, b := newBackend(t, func(r chi.Router, b *backend) {
		r.Get("/files", func(w http.ResponseWriter, r *http.Request) {
			ok(w, map[string]any{
				"data":       []map[string]any{{"id": 7, "title": "clip", "status": 2}},
				"pagination": map[string]any{"page": 2, "page_size": 1, "total": 9, "total_pages": 9},
				"echo":       r.URL.RawQuery,
			})
		})
		r.Get("/files/recent", func(w http.ResponseWriter, r *http.Request) {
			ok(w, map[string]any{"data": []map[string]any{{"id": 1, "title": r.URL.Query().Get("limit")}}, "total": 1})
		})
		r.Get("/files/stats", func(w http.ResponseWriter, r *http.Request) {
			ok(w, map[string]any{"data": map[string]any{"total": 3}})
		})
		r.Get("/files/{id}", func(w http.ResponseWriter, r *http.Request) {
			ok(w, map[string]any{"data": map[string]any{"id": 7, "title": "clip"}})
		})
		r.Post("/files/{id}/reject", func(w http.ResponseWriter, r *http.Request) { b.capture(r); ok(w, nil) })
		r.Post("/files/{id}/submit", func(w http.ResponseWriter, r *http.Request) { ok(w, nil) })
		r.Post("/files/{id}/publish", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, map[string]any{"success": false, "message": "not pending"})
		})
		r.Get("/files/{id}/download", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "video/mp4")
			_, _ = w.Write([]byte("bytes"))
		})
		r.Post("/files", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				writeJSON(w, 400, map[string]any{"success": false, "message": err.Error()})
				return
			}
			_, hdr, err := r.FormFile("file")
			if err != nil {
				writeJSON(w, 400, map[string]any{"success": false, "message": err.Error()})
				return
			}
			ok(w, map[string]any{"file": map[string]any{
				"id": 11, "title": r.FormValue("title"), "name": hdr.Filename, "category_id": 3,
			}})
		})
	})
	ctx := context.Background()

	page, err := c.Files.List(ctx, FileFilter{Page: 2, PageSize: 1}.Values())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(7), page.Items[0].ID)
	assert.Equal(t, FileStatusPublished, page.Items[0].Status)
	assert.Equal(t, int64(9), page.Pagination.Total)

	f, err := c.Files.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "clip", f.Title)

	recent, err := c.Files.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "10", recent[0].Title)

	stats, err := c.Files.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats["total"])

	require.NoError(t, c.Files.Submit(ctx, 7))
	require.NoError(t, c.Files.Reject(ctx, 7, "blurry"))
	assert.Equal(t, map[string]any{"reason": "blurry"}, b.body("POST /api/files/7/reject"))

	err = c.Files.Publish(ctx, 7)
	assert.ErrorIs(t, err, transport.ErrBusiness)

	body, hdr, err := c.Files.Download(ctx, 7)
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	_ = body.Close()
	assert.Equal(t, "bytes", string(data))
	assert.Equal(t, "video/mp4", hdr.Get("Content-Type"))

	assert.True(t, strings.HasSuffix(c.Files.PreviewURL(7), "/api/files/7/preview"))
	assert.True(t, strings.HasSuffix(c.Files.DownloadURL(7), "/api/files/7/download"))

	var sent int64
	up, err := c.Files.Upload(ctx, NewUpload{
		Title:      "clip",
		CategoryID: 3,
		Name:       "clip.mp4",
		Reader:     strings.NewReader("0123456789"),
		Size:       10,
	}, func(n, _ int64) { sent = n })
	require.NoError(t, err)
	assert.Equal(t, int64(11), up.ID)
	assert.Equal(t, "clip.mp4", up.Name)
	assert.Equal(t, int64(10), sent)
}

func TestFileFilterValues(t *testing.T) {
	pending := FileStatusPending
	q := FileFilter{Page: 1, PageSize: 20, Status: &pending, Type: FileTypeVideo, CategoryID: 5, Keyword: "news"}.Values()
	assert.Equal(t, "category_id=5&keyword=news&page=1&page_size=20&status=1&type=1", q.Encode())
	assert.Empty(t, FileFilter{}.Values().Encode())
}

func TestTaxonomyTrees(t *testing.T) {
	c, _, _ := newBackend(t, func(r chi.Router, b *backend) {
		r.Get("/categories/tree", func(w http.ResponseWriter, r *http.Request) {
			ok(w, map[string]any{"data": []map[string]any{{"id": 1, "name": "root", "children": []map[string]any{{"id": 2, "parent_id": 1, "name": "news"}}}}})
		})
		r.Get("/catalog/tree", func(w http.ResponseWriter, r *http.Request) {
			ok(w, map[string]any{"data": []map[string]any{{"id": 9, "name": "director", "label": "type " + r.URL.Query().Get("type")}}})
		})
	})
	ctx := context.Background()

	tree, err := c.Categories.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "news", tree[0].Children[0].Name)

	fields, err := c.Catalog.Tree(ctx, FileTypeVideo)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "type 1", fields[0].Label)
}

func TestAdminEndpoints(t *testing.T) {
	c, _, b := newBackend(t, func(r chi.Router, b *backend) {
		r.Post("/admin/groups/{id}/roles", func(w http.ResponseWriter, r *http.Request) { b.capture(r); ok(w, nil) })
		r.Post("/admin/roles/{id}/permissions", func(w http.ResponseWriter, r *http.Request) { b.capture(r); ok(w, nil) })
		r.Post("/admin/users/batch-delete", func(w http.ResponseWriter, r *http.Request) {
			b.capture(r)
			ok(w, map[string]any{"data": map[string]any{"deleted_count": 2}})
		})
		r.Put("/admin/users/{id}/status", func(w http.ResponseWriter, r *http.Request) { b.capture(r); ok(w, nil) })
		r.Get("/admin/users/{id}/permissions", func(w http.ResponseWriter, r *http.Request) {
			ok(w, map[string]any{"data": map[string]any{
				"user_id":     3,
				"permissions": []any{"files.browse.list", map[string]any{"namespace": "users", "controller": "manage", "action": "view"}},
			}})
		})
		r.Get("/admin/permissions", func(w http.ResponseWriter, r *http.Request) {
			ok(w, map[string]any{"data": []map[string]any{{"id": 1, "namespace": "files", "controller": "browse", "action": "list"}}})
		})
		r.Delete("/admin/levels/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, map[string]any{"success": false, "message": "level in use"})
		})
	})
	ctx := context.Background()

	require.NoError(t, c.Groups.AssignRoles(ctx, 4, []int64{1, 2}))
	assert.Equal(t, map[string]any{"role_ids": []any{1.0, 2.0}}, b.body("POST /api/admin/groups/4/roles"))

	require.NoError(t, c.Roles.AssignPermissions(ctx, 5, []int64{9}))
	assert.Equal(t, map[string]any{"permission_ids": []any{9.0}}, b.body("POST /api/admin/roles/5/permissions"))

	n, err := c.Users.BatchDelete(ctx, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, c.Users.SetEnabled(ctx, 3, false))
	assert.Equal(t, map[string]any{"status": 0.0}, b.body("PUT /api/admin/users/3/status"))

	perms, err := c.Users.Permissions(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"files.browse.list", "users.manage.view"}, perms.Codes())

	defs, err := c.Permissions.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, defs.Items, 1)
	assert.Equal(t, "files.browse.list", defs.Items[0].Code())
	assert.Equal(t, int64(1), defs.Pagination.Total)

	err = c.Levels.Delete(ctx, 2)
	assert.ErrorIs(t, err, transport.ErrBusiness)
	apiErr, isAPI := transport.AsAPIError(err)
	require.True(t, isAPI)
	assert.Equal(t, "level in use", apiErr.Message)
}

func TestSearchParamsDefaults(t *testing.T) {
	q := SearchParams{Query: "news", Types: []string{"video", "audio"}, Statuses: []string{"2"}}.Values()
	assert.Equal(t, "news", q.Get("q"))
	assert.Equal(t, []string{"video", "audio"}, q["type[]"])
	assert.Equal(t, []string{"2"}, q["status[]"])
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "20", q.Get("page_size"))
	assert.Equal(t, "relevance", q.Get("sort_by"))
}

func TestSearchEndpoints(t *testing.T) {
	c, _, _ := newBackend(t, func(r chi.Router, b *backend) {
		r.Get("/search", func(w http.ResponseWriter, r *http.Request) {
			ok(w, map[string]any{
				"results":    []map[string]any{{"id": 1, "title": "evening news", "score": 1.5}},
				"pagination": map[string]any{"page": 1, "page_size": 20, "total": 1, "total_pages": 1},
				"query":      r.URL.Query().Get("q"),
			})
		})
		r.Get("/search/suggestions", func(w http.ResponseWriter, r *http.Request) {
			ok(w, map[string]any{"suggestions": []string{r.URL.Query().Get("q") + "s"}})
		})
		r.Get("/admin/search/status", func(w http.ResponseWriter, r *http.Request) {
			ok(w, map[string]any{"status": map[string]any{"indexed": 10}})
		})
		r.Post("/admin/search/reindex", func(w http.ResponseWriter, r *http.Request) { ok(w, nil) })
	})
	ctx := context.Background()

	res, err := c.Search.Query(ctx, SearchParams{Query: "news"})
	require.NoError(t, err)
	assert.Equal(t, "news", res.Query)
	require.Len(t, res.Results, 1)
	assert.Equal(t, 1.5, res.Results[0].Score)

	sugg, err := c.Search.Suggestions(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, []string{"news"}, sugg)

	status, err := c.Search.IndexStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, status["indexed"])

	require.NoError(t, c.Search.Reindex(ctx))
}
