package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrEthical07/dmsclient/transport"
)

// Categories is the /categories resource.
type Categories struct {
	Resource[Category]
}

// Tree returns the whole category tree.
func (c *Categories) Tree(ctx context.Context) ([]Category, error) {
	var reply listReply[Category]
	if err := c.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: c.base + "/tree"}, &reply); err != nil {
		return nil, err
	}
	return reply.Data, nil
}

// Catalog is the /catalog resource: metadata fields per file type.
type Catalog struct {
	Resource[CatalogField]
}

// Tree returns the field tree of one file type.
func (c *Catalog) Tree(ctx context.Context, fileType int) ([]CatalogField, error) {
	var reply listReply[CatalogField]
	q := url.Values{"type": {strconv.Itoa(fileType)}}
	if err := c.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: c.base + "/tree", Query: q}, &reply); err != nil {
		return nil, err
	}
	return reply.Data, nil
}
