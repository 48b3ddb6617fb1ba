package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrEmptyResponse = errors.New("empty response")
)

// RequestEditorFn is the function signature for the RequestEditor callback function
type RequestEditorFn func(ctx context.Context, req *http.Request) error

// HttpRequestDoer performs HTTP requests.
type HttpRequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the AutoCAD I/O service. It is built once and shared by every
// component issuing requests; request editors apply to every call.
type Client struct {
	// Server is the base URL with a trailing slash.
	Server         string
	Client         HttpRequestDoer
	RequestEditors []RequestEditorFn
}

// ClientOption allows setting custom parameters during construction
type ClientOption func(*Client) error

func NewClient(server string, opts ...ClientOption) (*Client, error) {
	client := Client{
		Server: server,
	}
	for _, o := range opts {
		if err := o(&client); err != nil {
			return nil, err
		}
	}
	if !strings.HasSuffix(client.Server, "/") {
		client.Server += "/"
	}
	if client.Client == nil {
		client.Client = &http.Client{}
	}
	return &client, nil
}

// WithHTTPClient allows overriding the default Doer, which is
// automatically created using http.Client.
func WithHTTPClient(doer HttpRequestDoer) ClientOption {
	return func(c *Client) error {
		c.Client = doer
		return nil
	}
}

// WithRequestEditorFn allows setting up a callback function, which will be
// called right before sending the request.
func WithRequestEditorFn(fn RequestEditorFn) ClientOption {
	return func(c *Client) error {
		c.RequestEditors = append(c.RequestEditors, fn)
		return nil
	}
}

// WithAuthorization sets the Authorization header to value on every request.
func WithAuthorization(value string) ClientOption {
	return WithRequestEditorFn(func(ctx context.Context, req *http.Request) error {
		req.Header.Set("Authorization", value)
		return nil
	})
}

// APIError is returned when the service answers with an unexpected status code.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("service returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("service returned status %d", e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// entityPath addresses a single entity by its string key, e.g. WorkItems('abc').
func entityPath(set, key string) string {
	return fmt.Sprintf("%s('%s')", set, url.PathEscape(strings.ReplaceAll(key, "'", "''")))
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	u, err := url.Parse(c.Server + path)
	if err != nil {
		return nil, fmt.Errorf("building url for %s: %w", path, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, editor := range c.RequestEditors {
		if err := editor(ctx, req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// do sends the request and decodes the response into out when out is not nil.
// Any status not listed in expected is turned into an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, expected ...int) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if !statusIn(resp.StatusCode, expected) {
		return newAPIError(resp.StatusCode, bodyBytes)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return fmt.Errorf("%s %s: %w", method, path, ErrEmptyResponse)
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusIn(code int, expected []int) bool {
	for _, e := range expected {
		if code == e {
			return true
		}
	}
	return false
}

func newAPIError(code int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: code}
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Code = errResp.Error.Code
		apiErr.Message = errResp.Error.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
