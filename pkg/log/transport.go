package log

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Transport logs every outgoing request. Query strings are never logged since
// upload and download URLs carry signatures.
type Transport struct {
	next   http.RoundTripper
	logger *zap.Logger
}

func NewTransport(next http.RoundTripper, l *zap.Logger, name string) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	if l == nil {
		l = zap.L()
	}
	return &Transport{next: next, logger: l.Named(name)}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	t1 := time.Now()
	resp, err := t.next.RoundTrip(req)
	latency := time.Since(t1)

	fields := []zap.Field{
		zap.String("type", "http_request"),
		zap.String("request_id", req.Header.Get(middleware.RequestIDHeader)),
		zap.String("http_method", req.Method),
		zap.String("http_host", req.URL.Host),
		zap.String("http_path", req.URL.Path),
		zap.Duration("latency", latency),
	}

	msg := fmt.Sprintf("HTTP request completed: %s %s", req.Method, req.URL.Path)
	if err != nil {
		t.logger.Warn(msg, append(fields, zap.Error(err))...)
		return nil, err
	}

	fields = append(fields,
		zap.Int("http_status_code", resp.StatusCode),
		zap.String("http_status_text", statusLabel(resp.StatusCode)),
	)

	switch {
	case resp.StatusCode >= 500:
		t.logger.Error(msg, fields...)
	case resp.StatusCode >= 400:
		t.logger.Warn(msg, fields...)
	default:
		t.logger.Debug(msg, fields...)
	}

	return resp, nil
}

func statusLabel(status int) string {
	switch {
	case status >= 100 && status < 300:
		return fmt.Sprintf("%d OK", status)
	case status >= 300 && status < 400:
		return fmt.Sprintf("%d Redirect", status)
	case status >= 400 && status < 500:
		return fmt.Sprintf("%d Client Error", status)
	case status >= 500:
		return fmt.Sprintf("%d Server Error", status)
	default:
		return fmt.Sprintf("%d Unknown", status)
	}
}
