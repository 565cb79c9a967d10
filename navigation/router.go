package navigation

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

var (
	// ErrNotFound is returned when no route matches a path.
	ErrNotFound = errors.New("no route matches path")
	// ErrNoRoutes is returned for an empty route table.
	ErrNoRoutes = errors.New("route table is empty")
	// ErrTooManyRedirects is returned when redirects do not settle.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Location is a resolved navigation target.
type Location struct {
	// Name is the matched leaf record's name, "" if it has none.
	Name     string
	Path     string
	Query    url.Values
	Params   map[string]string
	Pattern  string
	Redirect string
	// Meta is merged from every matched record, root first.
	Meta Meta
}

// FullPath renders path plus query.
func (l Location) FullPath() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + encodeQuery(l.Query)
}

// encodeQuery keeps '/' readable the way browser routers do.
func encodeQuery(v url.Values) string {
	return strings.ReplaceAll(v.Encode(), "%2F", "/")
}

type record struct {
	name     string
	pattern  string
	redirect string
	meta     Meta
}

// Router resolves paths against a route table.
//
// Router is immutable after NewRouter and safe for concurrent use.
type Router struct {
	mux     *chi.Mux
	records map[string]*record
	routes  []Route
}

// NewRouter compiles routes.
func NewRouter(routes []Route) (*Router, error) {
	if len(routes) == 0 {
		return nil, ErrNoRoutes
	}
	r := &Router{
		mux:     chi.NewRouter(),
		records: make(map[string]*record),
		routes:  routes,
	}
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for i := range routes {
		if err := r.add(&routes[i], "/", Meta{}, noop); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Router) add(rt *Route, parent string, inherited Meta, h http.Handler) error {
	full := rt.Path
	if !strings.HasPrefix(full, "/") {
		full = path.Join(parent, full)
	}
	full = cleanPath(full)

	pattern, err := toChiPattern(full)
	if err != nil {
		return err
	}
	rec := &record{
		name:     rt.Name,
		pattern:  pattern,
		redirect: rt.Redirect,
		meta:     inherited.merge(rt.Meta),
	}
	if _, dup := r.records[pattern]; dup {
		return fmt.Errorf("navigation: duplicate route %q", full)
	}
	r.records[pattern] = rec
	r.mux.Method(http.MethodGet, pattern, h)

	for i := range rt.Children {
		if err := r.add(&rt.Children[i], full, rec.meta, h); err != nil {
			return err
		}
	}
	return nil
}

// toChiPattern rewrites :name and :name(regexp) segments as chi params.
func toChiPattern(p string) (string, error) {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if !strings.HasPrefix(s, ":") {
			continue
		}
		name, re := s[1:], ""
		if open := strings.IndexByte(name, '('); open >= 0 {
			if !strings.HasSuffix(name, ")") {
				return "", fmt.Errorf("navigation: bad param segment %q", s)
			}
			name, re = name[:open], name[open+1:len(name)-1]
		}
		if name == "" {
			return "", fmt.Errorf("navigation: unnamed param in %q", p)
		}
		if re != "" {
			segs[i] = "{" + name + ":" + re + "}"
		} else {
			segs[i] = "{" + name + "}"
		}
	}
	return strings.Join(segs, "/"), nil
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	p = path.Clean("/" + p)
	return p
}

// Resolve matches raw, which may carry a query string.
func (r *Router) Resolve(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("navigation: bad path %q: %w", raw, err)
	}
	p := cleanPath(u.Path)

	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, p) {
		return Location{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	rec, ok := r.records[rctx.RoutePattern()]
	if !ok {
		return Location{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		params[k] = rctx.URLParams.Values[i]
	}
	var query url.Values
	if u.RawQuery != "" {
		query = u.Query()
	}
	return Location{
		Name:     rec.name,
		Path:     p,
		Query:    query,
		Params:   params,
		Pattern:  rec.pattern,
		Redirect: rec.redirect,
		Meta:     rec.meta,
	}, nil
}

// Routes returns the table the Router was built from.
func (r *Router) Routes() []Route {
	return r.routes
}
