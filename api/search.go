package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrEthical07/dmsclient/transport"
)

// Search is the full-text search endpoint group.
type Search struct {
	t Transport
}

// SearchParams is a search request. Zero values take the backend defaults.
type SearchParams struct {
	Query      string
	Types      []string
	Statuses   []string
	CategoryID int64
	DateFrom   string
	DateTo     string
	Page       int
	PageSize   int
	SortBy     string
}

// Values encodes the request; arrays use the bracket convention.
func (p SearchParams) Values() url.Values {
	q := url.Values{}
	if p.Query != "" {
		q.Set("q", p.Query)
	}
	for _, t := range p.Types {
		q.Add("type[]", t)
	}
	for _, s := range p.Statuses {
		q.Add("status[]", s)
	}
	if p.CategoryID > 0 {
		q.Set("category_id", strconv.FormatInt(p.CategoryID, 10))
	}
	if p.DateFrom != "" {
		q.Set("date_from", p.DateFrom)
	}
	if p.DateTo != "" {
		q.Set("date_to", p.DateTo)
	}
	page, size, sort := p.Page, p.PageSize, p.SortBy
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if sort == "" {
		sort = "relevance"
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(size))
	q.Set("sort_by", sort)
	return q
}

// SearchHit is one search result.
type SearchHit struct {
	ID           int64               `json:"id"`
	Title        string              `json:"title"`
	Type         int                 `json:"type"`
	Status       int                 `json:"status"`
	CategoryID   int64               `json:"category_id"`
	CategoryName string              `json:"category_name"`
	Score        float64             `json:"score"`
	Highlights   map[string][]string `json:"highlights,omitempty"`
}

// SearchResult is a page of hits plus facets.
type SearchResult struct {
	Results    []SearchHit     `json:"results"`
	Pagination Pagination      `json:"pagination"`
	Facets     json.RawMessage `json:"facets,omitempty"`
	Query      string          `json:"query"`
}

// Query runs a search.
func (s *Search) Query(ctx context.Context, p SearchParams) (SearchResult, error) {
	var reply SearchResult
	err := s.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/search", Query: p.Values()}, &reply)
	return reply, err
}

// Suggestions returns autocomplete suggestions for prefix.
func (s *Search) Suggestions(ctx context.Context, prefix string) ([]string, error) {
	var reply struct {
		Suggestions []string `json:"suggestions"`
	}
	q := url.Values{"q": {prefix}}
	err := s.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/search/suggestions", Query: q}, &reply)
	return reply.Suggestions, err
}

// IndexStatus reports the search index state.
func (s *Search) IndexStatus(ctx context.Context) (map[string]any, error) {
	var reply struct {
		Status map[string]any `json:"status"`
	}
	err := s.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/admin/search/status"}, &reply)
	return reply.Status, err
}

// Reindex starts a full index rebuild.
func (s *Search) Reindex(ctx context.Context) error {
	return s.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/admin/search/reindex"}, nil)
}
