package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Uploader PUTs files to pre-signed URLs. It never adds the Authorization header:
// the URL itself carries the grant.
type Uploader struct {
	httpClient HttpRequestDoer
}

func NewUploader(httpClient HttpRequestDoer) *Uploader {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Uploader{httpClient: httpClient}
}

// Upload sends the raw bytes of filePath to url. Any non-2xx answer is an error.
func (u *Uploader) Upload(ctx context.Context, url string, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", filePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.ContentLength = stat.Size()
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", filePath, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("uploading %s: server returned status %d: %s", filePath, resp.StatusCode, string(body))
	}

	// Drain body to enable connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
