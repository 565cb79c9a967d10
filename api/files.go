package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrEthical07/dmsclient/transport"
)

// Files is the /files resource plus its workflow actions.
type Files struct {
	Resource[File]
}

// FileFilter narrows a file listing.
type FileFilter struct {
	Page       int
	PageSize   int
	Status     *int
	Type       int
	CategoryID int64
	Keyword    string
}

// Values encodes the filter as query parameters.
func (f FileFilter) Values() url.Values {
	q := Paging(f.Page, f.PageSize)
	if f.Status != nil {
		q.Set("status", strconv.Itoa(*f.Status))
	}
	if f.Type > 0 {
		q.Set("type", strconv.Itoa(f.Type))
	}
	if f.CategoryID > 0 {
		q.Set("category_id", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.Keyword != "" {
		q.Set("keyword", f.Keyword)
	}
	return q
}

// NewUpload describes a file to upload.
type NewUpload struct {
	Title      string
	CategoryID int64
	Type       int
	Level      int
	Groups     string
	IsDownload *bool
	// Extra form fields, e.g. catalog metadata.
	Extra map[string]string

	Name   string
	Reader io.Reader
	Size   int64
}

func (u NewUpload) fields() map[string]string {
	f := make(map[string]string, len(u.Extra)+6)
	for k, v := range u.Extra {
		f[k] = v
	}
	if u.Title != "" {
		f["title"] = u.Title
	}
	if u.CategoryID > 0 {
		f["category_id"] = strconv.FormatInt(u.CategoryID, 10)
	}
	if u.Type > 0 {
		f["type"] = strconv.Itoa(u.Type)
	}
	if u.Level > 0 {
		f["level"] = strconv.Itoa(u.Level)
	}
	if u.Groups != "" {
		f["groups"] = u.Groups
	}
	if u.IsDownload != nil {
		f["is_download"] = strconv.FormatBool(*u.IsDownload)
	}
	return f
}

type uploadReply struct {
	File *File `json:"file"`
	Data *File `json:"data"`
}

// Upload streams a new file as multipart form data.
func (f *Files) Upload(ctx context.Context, u NewUpload, progress transport.ProgressFunc) (File, error) {
	var reply uploadReply
	file := transport.UploadFile{Field: "file", Name: u.Name, Reader: u.Reader, Size: u.Size}
	if err := f.t.Upload(ctx, f.base, u.fields(), file, progress, &reply); err != nil {
		return File{}, err
	}
	switch {
	case reply.File != nil:
		return *reply.File, nil
	case reply.Data != nil:
		return *reply.Data, nil
	}
	return File{}, nil
}

// Submit sends a file for review.
func (f *Files) Submit(ctx context.Context, id int64) error {
	return f.post(ctx, f.path(id)+"/submit", nil, nil)
}

// Publish approves a file.
func (f *Files) Publish(ctx context.Context, id int64) error {
	return f.post(ctx, f.path(id)+"/publish", nil, nil)
}

// Reject sends a file back with a reason.
func (f *Files) Reject(ctx context.Context, id int64, reason string) error {
	return f.post(ctx, f.path(id)+"/reject", map[string]string{"reason": reason}, nil)
}

// Download streams the file body. The caller closes it.
func (f *Files) Download(ctx context.Context, id int64) (io.ReadCloser, http.Header, error) {
	return f.t.Stream(ctx, transport.Request{Method: http.MethodGet, Path: f.path(id) + "/download"})
}

// PreviewURL is the absolute preview URL of a file.
func (f *Files) PreviewURL(id int64) string {
	return f.t.URL(f.path(id)+"/preview", nil)
}

// DownloadURL is the absolute download URL of a file.
func (f *Files) DownloadURL(id int64) string {
	return f.t.URL(f.path(id)+"/download", nil)
}

// Stats returns the dashboard statistics.
func (f *Files) Stats(ctx context.Context) (FileStats, error) {
	var reply itemReply[FileStats]
	err := f.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: f.base + "/stats"}, &reply)
	return reply.Data, err
}

// Recent returns the most recent files. limit <= 0 uses 10.
func (f *Files) Recent(ctx context.Context, limit int) ([]File, error) {
	if limit <= 0 {
		limit = 10
	}
	var reply listReply[File]
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := f.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: f.base + "/recent", Query: q}, &reply); err != nil {
		return nil, err
	}
	return reply.Data, nil
}
