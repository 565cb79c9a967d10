package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/dmsclient/tokenstore"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu           sync.Mutex
	notified     []*APIError
	unauthorized int
	observed     []int
}

func (r *recorder) Notify(_ context.Context, err *APIError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, err)
}

func (r *recorder) ObserveRequest(_ string, status int, _ *APIError, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observed = append(r.observed, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/echo-auth", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, map[string]any{
				"success":    true,
				"auth":       r.Header.Get("Authorization"),
				"request_id": r.Header.Get(RequestIDHeader),
				"q":          r.URL.Query().Get("q"),
			})
		})
		r.Post("/echo-body", func(w http.ResponseWriter, r *http.Request) {
			var in map[string]any
			_ = json.NewDecoder(r.Body).Decode(&in)
			writeJSON(w, 200, map[string]any{"success": true, "got": in, "ct": r.Header.Get("Content-Type")})
		})
		r.Get("/business", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, map[string]any{"success": false, "message": "category in use"})
		})
		r.Get("/status/{code}", func(w http.ResponseWriter, r *http.Request) {
			code := map[string]int{"401": 401, "403": 403, "404": 404, "500": 500, "418": 418}[chi.URLParam(r, "code")]
			writeJSON(w, code, map[string]any{"success": false, "message": "server says " + chi.URLParam(r, "code")})
		})
		r.Get("/blob", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("binary-content"))
		})
		r.Post("/files", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				writeJSON(w, 400, map[string]any{"success": false, "message": err.Error()})
				return
			}
			f, hdr, err := r.FormFile("file")
			if err != nil {
				writeJSON(w, 400, map[string]any{"success": false, "message": err.Error()})
				return
			}
			defer f.Close()
			data, _ := io.ReadAll(f)
			writeJSON(w, 200, map[string]any{
				"success":  true,
				"name":     hdr.Filename,
				"content":  string(data),
				"category": r.FormValue("category_id"),
			})
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, store tokenstore.Store, rec *recorder, opts ...Option) *Client {
	t.Helper()
	all := []Option{
		WithNotifier(rec),
		WithObserver(rec),
		WithUnauthorizedHandler(func(context.Context, *APIError) {
			rec.mu.Lock()
			rec.unauthorized++
			rec.mu.Unlock()
		}),
	}
	all = append(all, opts...)
	c, err := New(Config{BaseURL: srv.URL + "/api"}, store, all...)
	require.NoError(t, err)
	return c
}

func TestDoAttachesBearerAndRequestID(t *testing.T) {
	srv := newBackend(t)
	rec := &recorder{}
	c := newTestClient(t, srv, tokenstore.NewMemory("t1"), rec)

	var out struct {
		Auth      string `json:"auth"`
		RequestID string `json:"request_id"`
		Q         string `json:"q"`
	}
	err := c.Do(context.Background(), Request{Path: "/echo-auth", Query: map[string][]string{"q": {"report"}}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Bearer t1", out.Auth)
	assert.Len(t, out.RequestID, 36)
	assert.Equal(t, "report", out.Q)
	assert.Equal(t, []int{200}, rec.observed)
}

func TestDoWithoutTokenSendsNoBearer(t *testing.T) {
	srv := newBackend(t)
	c := newTestClient(t, srv, &tokenstore.Memory{}, &recorder{})

	var out struct {
		Auth string `json:"auth"`
	}
	require.NoError(t, c.Do(context.Background(), Request{Path: "echo-auth"}, &out))
	assert.Empty(t, out.Auth)
}

func TestDoEncodesJSONBody(t *testing.T) {
	srv := newBackend(t)
	c := newTestClient(t, srv, &tokenstore.Memory{}, &recorder{})

	var out struct {
		Got map[string]any `json:"got"`
		CT  string         `json:"ct"`
	}
	err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/echo-body", Body: map[string]string{"username": "alice"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "alice", out.Got["username"])
	assert.Equal(t, "application/json", out.CT)
}

func TestBusinessFailureIsNotNotified(t *testing.T) {
	srv := newBackend(t)
	rec := &recorder{}
	store := tokenstore.NewMemory("t1")
	c := newTestClient(t, srv, store, rec)

	err := c.Do(context.Background(), Request{Path: "/business"}, nil)
	require.ErrorIs(t, err, ErrBusiness)
	apiErr, _ := AsAPIError(err)
	assert.Equal(t, "category in use", apiErr.Message)
	assert.Empty(t, rec.notified)

	token, _ := store.Load(context.Background())
	assert.Equal(t, "t1", token)
}

func TestUnauthorizedClearsTokenAndRedirects(t *testing.T) {
	srv := newBackend(t)
	rec := &recorder{}
	store := tokenstore.NewMemory("t1")
	c := newTestClient(t, srv, store, rec, WithLoginScreenProbe(func() bool { return false }))

	err := c.Do(context.Background(), Request{Path: "/status/401"}, nil)
	require.ErrorIs(t, err, ErrUnauthorized)

	token, _ := store.Load(context.Background())
	assert.Empty(t, token)
	assert.Equal(t, 1, rec.unauthorized)
	require.Len(t, rec.notified, 1)
	assert.Equal(t, MessageUnauthorized, rec.notified[0].Message)
}

func TestUnauthorizedOnLoginScreenKeepsState(t *testing.T) {
	srv := newBackend(t)
	rec := &recorder{}
	store := tokenstore.NewMemory("t1")
	c := newTestClient(t, srv, store, rec, WithLoginScreenProbe(func() bool { return true }))

	err := c.Do(context.Background(), Request{Path: "/status/401"}, nil)
	require.ErrorIs(t, err, ErrUnauthorized)

	token, _ := store.Load(context.Background())
	assert.Equal(t, "t1", token)
	assert.Zero(t, rec.unauthorized)
	require.Len(t, rec.notified, 1)
	assert.Equal(t, "server says 401", rec.notified[0].Message)
}

func TestStatusCategoriesAreNotified(t *testing.T) {
	srv := newBackend(t)

	tests := []struct {
		code    string
		want    error
		message string
	}{
		{code: "403", want: ErrForbidden, message: MessageForbidden},
		{code: "404", want: ErrNotFound, message: MessageNotFound},
		{code: "500", want: ErrServer, message: "server says 500"},
		{code: "418", want: ErrHTTP, message: "server says 418"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := &recorder{}
			store := tokenstore.NewMemory("t1")
			c := newTestClient(t, srv, store, rec)

			err := c.Do(context.Background(), Request{Path: "/status/" + tt.code}, nil)
			require.ErrorIs(t, err, tt.want)
			require.Len(t, rec.notified, 1)
			assert.Equal(t, tt.message, rec.notified[0].Message)
			assert.Zero(t, rec.unauthorized)

			token, _ := store.Load(context.Background())
			assert.Equal(t, "t1", token, "only a 401 clears the token")
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := newBackend(t)
	rec := &recorder{}
	c := newTestClient(t, srv, &tokenstore.Memory{}, rec)
	srv.Close()

	err := c.Do(context.Background(), Request{Path: "/echo-auth"}, nil)
	require.ErrorIs(t, err, ErrNetwork)
	require.Len(t, rec.notified, 1)
	assert.Equal(t, MessageNetwork, rec.notified[0].Message)
}

func TestStream(t *testing.T) {
	srv := newBackend(t)
	c := newTestClient(t, srv, &tokenstore.Memory{}, &recorder{})

	body, header, err := c.Stream(context.Background(), Request{Path: "/blob"})
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "binary-content", string(data))
	assert.Equal(t, "application/octet-stream", header.Get("Content-Type"))

	_, _, err = c.Stream(context.Background(), Request{Path: "/status/404"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadReportsProgress(t *testing.T) {
	srv := newBackend(t)
	c := newTestClient(t, srv, &tokenstore.Memory{}, &recorder{})

	content := strings.Repeat("x", 4096)
	var last, total int64
	var out struct {
		Name     string `json:"name"`
		Content  string `json:"content"`
		Category string `json:"category"`
	}
	err := c.Upload(context.Background(), "/files",
		map[string]string{"category_id": "7"},
		UploadFile{Name: "report.pdf", Reader: bytes.NewReader([]byte(content)), Size: int64(len(content))},
		func(sent, size int64) { last, total = sent, size },
		&out,
	)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", out.Name)
	assert.Equal(t, content, out.Content)
	assert.Equal(t, "7", out.Category)
	assert.Equal(t, int64(len(content)), last)
	assert.Equal(t, int64(len(content)), total)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{BaseURL: "/api"}, &tokenstore.Memory{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "http://localhost/api"}, nil)
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "http://localhost/api/", WithCredentials: true}, &tokenstore.Memory{})
	require.NoError(t, err)
	assert.NotNil(t, c.httpClient.Jar)
	assert.Equal(t, "http://localhost/api/files/3/preview", c.URL("/files/3/preview", nil))
}
