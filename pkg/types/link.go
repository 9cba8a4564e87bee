package types

import (
	"net/url"
	"strings"
)

// UsableLink reports whether link is an absolute http(s) URL with a host.
// Records whose link fails this check never enter a ResultTable.
func UsableLink(link string) (*url.URL, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, false
	}
	u, err := url.Parse(link)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	if u.Hostname() == "" {
		return nil, false
	}
	return u, true
}

// Domain returns the lowercased host of link without a leading "www.".
func Domain(link string) string {
	u, ok := UsableLink(link)
	if !ok {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
