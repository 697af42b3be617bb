package inbox

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"'\[\]]+`)

// textLinks returns the http(s) URLs in plain text in order of appearance
func textLinks(text string) []string {
	found := urlPattern.FindAllString(text, -1)
	links := make([]string, 0, len(found))
	for _, raw := range found {
		if link := cleanLink(raw); link != "" {
			links = append(links, link)
		}
	}
	return links
}

// htmlLinks returns the http(s) hrefs of anchors in an HTML body
func htmlLinks(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if link := cleanLink(href); link != "" {
			links = append(links, link)
		}
	})
	return links, nil
}

// cleanLink trims trailing sentence punctuation and unbalanced closing parens,
// and drops anything that is not an absolute http(s) URL
func cleanLink(raw string) string {
	link := strings.TrimSpace(raw)
	for {
		trimmed := strings.TrimRight(link, ".,;:!?")
		if strings.HasSuffix(trimmed, ")") && strings.Count(trimmed, "(") < strings.Count(trimmed, ")") {
			trimmed = strings.TrimSuffix(trimmed, ")")
		}
		if trimmed == link {
			break
		}
		link = trimmed
	}

	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return link
}

// uniqueLinks keeps the first occurrence of each link
func uniqueLinks(links []string) []string {
	seen := make(map[string]bool, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		key := normalizeURL(link)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, link)
	}
	return out
}

func normalizeURL(u string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(u)), "/")
}

var forwardPrefix = regexp.MustCompile(`(?i)^\s*((fwd?|re|aw|wg)\s*:\s*)+`)

// cleanSubject strips reply and forward prefixes
func cleanSubject(subject string) string {
	return strings.TrimSpace(forwardPrefix.ReplaceAllString(subject, ""))
}
