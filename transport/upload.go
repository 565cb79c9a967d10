package transport

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
)

// ProgressFunc reports bytes of the file part sent so far. total is -1 when
// the size is unknown.
type ProgressFunc func(sent, total int64)

// UploadFile is the file part of a multipart upload.
type UploadFile struct {
	Field  string
	Name   string
	Reader io.Reader
	Size   int64
}

// Upload streams a multipart/form-data request. The body is produced while
// it is sent, so large files are never buffered.
func (c *Client) Upload(ctx context.Context, path string, fields map[string]string, file UploadFile, progress ProgressFunc, out any) error {
	if file.Reader == nil {
		return errors.New("transport: upload requires a file reader")
	}
	if file.Field == "" {
		file.Field = "file"
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, fields, file, progress)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	resp, requestID, finish, err := c.send(ctx, Request{Method: http.MethodPost, Path: path}, pr, mw.FormDataContentType())
	if err != nil {
		pr.CloseWithError(err)
		return finish(0, nil, err)
	}
	return complete(resp, requestID, finish, path, out)
}

func writeMultipart(mw *multipart.Writer, fields map[string]string, file UploadFile, progress ProgressFunc) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile(file.Field, file.Name)
	if err != nil {
		return err
	}

	total := file.Size
	if total <= 0 {
		total = -1
	}
	src := file.Reader
	if progress != nil {
		src = &progressReader{r: file.Reader, total: total, fn: progress}
	}
	_, err = io.Copy(part, src)
	return err
}

type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent, p.total)
	}
	return n, err
}
