package web2pdf

import (
	"net/url"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-web2pdf/internal/urlutil"
)

// discoverLinks extracts same-origin hyperlinks from the rendered DOM. The
// returned list always starts with the origin URL itself; discovered links
// are deduplicated in first-seen order and truncated to maxLinks additional
// entries.
//
// Failure to query the DOM degrades gracefully to the origin-only list; link
// discovery never fails the overall request.
func discoverLinks(page renderedPage, origin *url.URL, maxLinks int, logger *log.Logger) []string {
	result := []string{origin.String()}
	if maxLinks <= 0 {
		return result
	}

	hrefs, err := page.Links()
	if err != nil {
		logger.Warn("link discovery failed, capturing origin only", "err", err)
		return result
	}

	seen := map[string]bool{normalizeLink(origin): true}
	for _, href := range hrefs {
		if len(result)-1 >= maxLinks {
			break
		}
		u, err := url.Parse(href)
		if err != nil || !u.IsAbs() {
			continue
		}
		if !urlutil.SameOrigin(u, origin) {
			continue
		}
		key := normalizeLink(u)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, u.String())
	}

	return result
}

// normalizeLink keys a URL for deduplication: fragments never change the
// captured page, so they are ignored.
func normalizeLink(u *url.URL) string {
	c := *u
	c.Fragment = ""
	return c.String()
}
