package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"time"
)

// DownloadBlob fetches a binary endpoint (template or export download). The
// filename comes from the Content-Disposition header; when absent, a
// date-stamped default is used.
func (c *Client) DownloadBlob(ctx context.Context, path string) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("api: download failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", fmt.Errorf("api: read download body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &Error{
			Status:     resp.StatusCode,
			Body:       raw,
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}

	return raw, filenameFromHeader(resp.Header.Get("Content-Disposition")), nil
}

// Upload sends a multipart/form-data request with one file part plus optional
// extra fields.
func (c *Client) Upload(ctx context.Context, path, field, filename string, file io.Reader, extra map[string]string) ([]byte, error) {
	var buf io.Reader
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	buf = pr

	go func() {
		var err error
		defer func() { pw.CloseWithError(err) }()
		for k, v := range extra {
			if err = writer.WriteField(k, v); err != nil {
				return
			}
		}
		var part io.Writer
		if part, err = writer.CreateFormFile(field, filename); err != nil {
			return
		}
		if _, err = io.Copy(part, file); err != nil {
			return
		}
		err = writer.Close()
	}()

	req, err := c.newRequest(ctx, http.MethodPost, path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(req)
}

// filenameFromHeader parses a Content-Disposition header. The default is a
// date-stamped export name.
func filenameFromHeader(header string) string {
	if header != "" {
		if _, params, err := mime.ParseMediaType(header); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	return "export-" + time.Now().Format("2006-01-02")
}
