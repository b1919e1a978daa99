package mftplus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/httpx"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultAPIURL  = "https://mftplus.com/ajax/default/calendar?need=search"
	DefaultSiteURL = "https://mftplus.com"
)

type ClientOptions struct {
	APIURL   string
	SiteURL  string // used for the Referer header
	Timeout  time.Duration
	MaxConns int
	Retry    httpx.RetryConfig
}

type Client struct {
	APIURL string
	HTTP   *resty.Client
}

func New(opts ClientOptions) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.SiteURL == "" {
		opts.SiteURL = DefaultSiteURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	hc := resty.New().
		SetTransport(httpx.NewTransport(opts.MaxConns)).
		SetTimeout(opts.Timeout). // per request
		SetHeaders(map[string]string{
			"User-Agent":       "Mozilla/5.0",
			"X-Requested-With": "XMLHttpRequest",
			"Content-Type":     "application/x-www-form-urlencoded; charset=UTF-8",
			"Referer":          strings.TrimRight(opts.SiteURL, "/") + "/calendar",
		})
	httpx.ApplyRetry(hc, opts.Retry)

	return &Client{APIURL: opts.APIURL, HTTP: hc}
}

// SearchResult is one decoded page. Invalid holds per-element decode errors;
// those elements are left out of Courses.
type SearchResult struct {
	Courses []domain.RemoteCourse
	Invalid []error
}

// SearchPage posts the search form for the page starting at skip.
func (c *Client) SearchPage(ctx context.Context, filter domain.Filter, skip int) (*SearchResult, error) {
	res, err := c.HTTP.R().
		SetContext(ctx).
		SetFormDataFromValues(FormValues(filter, skip)).
		Post(c.APIURL)
	if err != nil {
		return nil, fmt.Errorf("mftplus: skip=%d request: %w", skip, err)
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return nil, fmt.Errorf("mftplus: skip=%d: %w", skip, httpx.FromResponse(res))
	}

	return decodePage(res.Body(), skip)
}

func decodePage(body []byte, skip int) (*SearchResult, error) {
	body = bytes.TrimSpace(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")))
	if httpx.LooksLikeHTML(body) {
		return nil, fmt.Errorf("mftplus: skip=%d got html instead of json (%q)", skip, httpx.HTMLTitle(body))
	}
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return &SearchResult{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("mftplus: skip=%d json parse error: %w body=%s", skip, err, httpx.Snippet(body, 300))
	}

	out := &SearchResult{Courses: make([]domain.RemoteCourse, 0, len(raw))}
	for i, el := range raw {
		var rc domain.RemoteCourse
		if err := json.Unmarshal(el, &rc); err != nil {
			out.Invalid = append(out.Invalid, fmt.Errorf("skip=%d item=%d: %w", skip, i, err))
			continue
		}
		out.Courses = append(out.Courses, rc)
	}
	return out, nil
}

// FormValues builds the search form. Category lists are only sent when set.
func FormValues(filter domain.Filter, skip int) url.Values {
	typ := filter.Type
	if typ == "" {
		typ = "all"
	}

	v := url.Values{}
	v.Set("term", "")
	v.Set("sort", filter.Sort)
	v.Set("skip", strconv.Itoa(skip))
	v.Set("pSkip", "0")
	v.Set("type", typ)

	for key, ids := range map[string][]string{
		"place[]":      filter.Places,
		"department[]": filter.Departments,
		"group[]":      filter.Groups,
		"course[]":     filter.Courses,
		"month[]":      filter.Months,
	} {
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				v.Add(key, id)
			}
		}
	}
	return v
}
