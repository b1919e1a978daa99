package httpx

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LooksLikeHTML reports whether b is an HTML document rather than JSON,
// which is what proxies and WAFs return on errors.
func LooksLikeHTML(b []byte) bool {
	s := strings.ToLower(strings.TrimSpace(string(bytes.TrimPrefix(b, []byte("\xef\xbb\xbf")))))
	for _, prefix := range []string{"<!doctype", "<html", "<head", "<body"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// HTMLTitle extracts a short human label from an HTML error page.
func HTMLTitle(b []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return ""
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}
