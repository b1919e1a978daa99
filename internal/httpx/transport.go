package httpx

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// NewTransport returns a transport holding at most maxConns sockets per host
// that transparently decodes brotli and gzip bodies.
func NewTransport(maxConns int) http.RoundTripper {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if maxConns > 0 {
		base.MaxConnsPerHost = maxConns
		base.MaxIdleConnsPerHost = maxConns
	}
	return &decodingTransport{next: base}
}

type decodingTransport struct {
	next http.RoundTripper
}

func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Callers that negotiate encoding themselves get the raw body.
	if req.Header.Get("Accept-Encoding") != "" {
		return t.next.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	req.Header.Set("Accept-Encoding", "br, gzip")

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	var decoded io.Reader
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		decoded = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		decoded = gz
	default:
		return resp, nil
	}

	resp.Body = &decodedBody{Reader: decoded, raw: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

type decodedBody struct {
	io.Reader
	raw io.Closer
}

func (b *decodedBody) Close() error { return b.raw.Close() }
