package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"buylog/internal/feed"
)

// DefaultUploadTimeout bounds a single PUT.
const DefaultUploadTimeout = 30 * time.Second

// HTTPTarget PUTs the bytes to the presigned uploadUrl as a block blob.
type HTTPTarget struct {
	client  *http.Client
	timeout time.Duration
}

var _ feed.MediaTarget = (*HTTPTarget)(nil)

// NewHTTPTarget creates an HTTPTarget. A nil client uses http.DefaultClient
// and a zero timeout uses DefaultUploadTimeout.
func NewHTTPTarget(client *http.Client, timeout time.Duration) *HTTPTarget {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	return &HTTPTarget{client: client, timeout: timeout}
}

func (t *HTTPTarget) Put(ctx context.Context, target feed.UploadTarget, body io.Reader, size int64, contentType string, progress func(int)) error {
	if target.UploadURL == "" {
		return fmt.Errorf("upload target has no upload url")
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.UploadURL, newProgressReader(body, size, progress))
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-ms-blob-type", "BlockBlob")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending upload: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newUploadError(resp.StatusCode)
	}
	return nil
}
