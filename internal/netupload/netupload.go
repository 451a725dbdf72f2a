// Package netupload implements the uploader collaborator of spec.md
// §4.6: pushing the finished archive or image to a network
// destination. The teacher's retrieved files carry no fshttp-style
// transport wrapper, so this package builds on net/http directly
// (DESIGN.md records that as a deliberate stdlib choice) with explicit
// timeouts, matching the conservative client construction the pack's
// backends use when they do build their own HTTP clients.
package netupload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Uploader is the network-destination trait spec.md §4.6 describes.
type Uploader interface {
	Upload(ctx context.Context, filename string, size int64, r io.Reader) error
}

// HTTPUploader POSTs the archive as a single multipart/form-data
// "file" part to a fixed URL, per spec.md §6's network-destination
// transfer mode.
type HTTPUploader struct {
	URL    string
	Client *http.Client
}

func NewHTTPUploader(url string) *HTTPUploader {
	return &HTTPUploader{
		URL: url,
		Client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, filename string, size int64, r io.Reader) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("netupload: create form file: %w", err))
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(fmt.Errorf("netupload: copy body: %w", err))
			return
		}
		if err := mw.Close(); err != nil {
			pw.CloseWithError(fmt.Errorf("netupload: close multipart writer: %w", err))
			return
		}
		pw.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, pr)
	if err != nil {
		return fmt.Errorf("netupload: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.Client.Do(req)
	if err != nil {
		return fmt.Errorf("netupload: request to %s: %w", u.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("netupload: %s returned status %d", u.URL, resp.StatusCode)
	}
	return nil
}
