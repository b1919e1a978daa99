package httpx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPError carries status/body for non-2xx responses.
// It lets callers decide if/when to treat a page as failed.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, Snippet(e.Body, 300))
}

// FromResponse builds an HTTPError from a finished resty response.
func FromResponse(res *resty.Response) *HTTPError {
	herr := &HTTPError{
		StatusCode: res.StatusCode(),
		Header:     res.Header().Clone(),
		Body:       res.Body(),
	}
	if res.Request != nil {
		herr.Method = res.Request.Method
		herr.URL = res.Request.URL
	}
	return herr
}

// Snippet trims b for log lines and error messages.
func Snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// RetryConfig controls transport-level retries of a single request.
// MaxAttempts counts the first try, so 1 disables retries.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// If true, retry any 5xx.
	Retry5xx bool

	// Extra statuses to retry (e.g. 429, 408).
	RetryStatuses map[int]bool
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 1,
		BaseDelay:   700 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Retry5xx:    true,
		RetryStatuses: map[int]bool{
			http.StatusTooManyRequests:    true, // 429
			http.StatusRequestTimeout:     true, // 408
			http.StatusTooEarly:           true, // 425 (rare)
			http.StatusServiceUnavailable: true, // 503
			http.StatusBadGateway:         true, // 502
			http.StatusGatewayTimeout:     true, // 504
		},
	}
}

// ApplyRetry wires cfg into the resty client's retry hooks.
func ApplyRetry(c *resty.Client, cfg RetryConfig) {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 700 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.RetryStatuses == nil {
		cfg.RetryStatuses = DefaultRetryConfig().RetryStatuses
	}
	if cfg.MaxAttempts <= 1 {
		c.SetRetryCount(0)
		return
	}

	c.SetRetryCount(cfg.MaxAttempts - 1).
		SetRetryWaitTime(cfg.BaseDelay).
		SetRetryMaxWaitTime(cfg.MaxDelay).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			if err != nil {
				return IsRetryableNetErr(err)
			}
			return res != nil && IsRetryableStatus(res.StatusCode(), cfg)
		}).
		SetRetryAfter(func(_ *resty.Client, res *resty.Response) (time.Duration, error) {
			// zero falls back to resty's jittered backoff
			if res == nil || res.RawResponse == nil {
				return 0, nil
			}
			return ParseRetryAfter(res.RawResponse), nil
		})
}

func IsRetryableStatus(code int, cfg RetryConfig) bool {
	if cfg.RetryStatuses != nil && cfg.RetryStatuses[code] {
		return true
	}
	if cfg.Retry5xx && code >= 500 && code <= 599 {
		return true
	}
	return false
}

func IsRetryableNetErr(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}

	// common transient I/O errors
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection reset") || strings.Contains(msg, "broken pipe") || strings.Contains(msg, "eof") {
		return true
	}
	return false
}

// ParseRetryAfter parses Retry-After header (seconds or HTTP date).
// Returns 0 when header is missing/invalid.
func ParseRetryAfter(resp *http.Response) time.Duration {
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		return d
	}
	return 0
}
