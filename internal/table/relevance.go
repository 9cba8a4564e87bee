package table

import (
	"strings"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// RelevanceFilter drops results from sites that never carry press coverage
// (social networks, paper repositories, shops, weather) and from pages
// whose URL or title marks them as something other than an article.
type RelevanceFilter struct {
	BlacklistedDomains []string
	URLStopWords       []string
	TitleStopWords     []string
}

// Apply returns the relevant records in their original order.
func (f RelevanceFilter) Apply(t types.ResultTable) types.ResultTable {
	domains := lowerNonEmpty(f.BlacklistedDomains)
	for i, d := range domains {
		domains[i] = strings.TrimPrefix(d, "www.")
	}
	urlWords := lowerNonEmpty(f.URLStopWords)
	titleWords := lowerNonEmpty(f.TitleStopWords)

	out := make(types.ResultTable, 0, len(t))
	for _, r := range t {
		if blacklisted(types.Domain(r.Link), domains) {
			continue
		}
		if containsAny(strings.ToLower(r.Link), urlWords) {
			continue
		}
		if containsAny(strings.ToLower(r.Title), titleWords) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// blacklisted reports whether domain is one of blocked, a subdomain of
// one ("m.facebook.com"), or one followed by a further label
// ("facebook.com.ua").
func blacklisted(domain string, blocked []string) bool {
	if domain == "" {
		return false
	}
	for _, b := range blocked {
		if domain == b || strings.HasSuffix(domain, "."+b) || strings.HasPrefix(domain, b+".") {
			return true
		}
	}
	return false
}
