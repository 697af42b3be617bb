package crawler

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/models"
)

// noiseSelectors are removed before the main content is read
const noiseSelectors = "script, style, nav, footer, header, noscript"

// ExtractPageInfo parses an HTML document fetched from pageURL.
// og:title wins over <title>, og:description over meta description.
// Content is the whitespace-collapsed text of main, article or body, capped at maxChars runes.
func ExtractPageInfo(doc *goquery.Document, pageURL string, maxChars int) *models.PageInfo {
	info := &models.PageInfo{URL: pageURL}

	info.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if og := metaContent(doc, `meta[property="og:title"]`); og != "" {
		info.Title = og
	}

	info.Description = metaContent(doc, `meta[name="description"]`)
	if og := metaContent(doc, `meta[property="og:description"]`); og != "" {
		info.Description = og
	}

	info.Favicon = extractFavicon(doc, pageURL)

	doc.Find(noiseSelectors).Remove()

	main := doc.Find("main").First()
	if main.Length() == 0 {
		main = doc.Find("article").First()
	}
	if main.Length() == 0 {
		main = doc.Find("body").First()
	}
	if main.Length() == 0 {
		return info
	}

	info.Content = common.Truncate(common.CollapseWhitespace(main.Text()), maxChars)

	converter := md.NewConverter(pageURL, true, nil)
	if markdown := converter.Convert(main); markdown != "" {
		info.Markdown = common.Truncate(strings.TrimSpace(markdown), maxChars)
	}

	return info
}

func metaContent(doc *goquery.Document, selector string) string {
	value, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(value)
}

// extractFavicon returns the first link whose rel contains "icon", resolved against pageURL
func extractFavicon(doc *goquery.Document, pageURL string) string {
	var href string
	doc.Find("link[rel][href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		if !strings.Contains(strings.ToLower(rel), "icon") {
			return true
		}
		href, _ = s.Attr("href")
		href = strings.TrimSpace(href)
		return href == ""
	})
	if href == "" {
		return ""
	}
	return common.ResolveURL(pageURL, href)
}
