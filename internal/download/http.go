package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

type HttpRequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HttpDownloader fetches a plain URL. Result locators handed out by the service are
// pre-signed, so no credentials are attached.
type HttpDownloader struct {
	url    string
	client HttpRequestDoer
}

type HttpOption func(h *HttpDownloader)

func WithHTTPClient(c HttpRequestDoer) HttpOption {
	return func(h *HttpDownloader) {
		h.client = c
	}
}

func NewHttpDownloader(url string, opts ...HttpOption) *HttpDownloader {
	h := &HttpDownloader{url: url, client: http.DefaultClient}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *HttpDownloader) Get(ctx context.Context, dst io.Writer) error {
	if h.url == "" {
		return fmt.Errorf("empty download url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %q, status code: %d", h.url, resp.StatusCode)
	}

	totalSize := int64(0)
	if n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); err == nil {
		totalSize = n
	}

	return copyWithProgress(ctx, dst, resp.Body, totalSize)
}

func (h *HttpDownloader) Type() string {
	return "http"
}
