package article

import (
	"net/url"
	"strings"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/PuerkitoBio/goquery"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// linkGroups run from the most article-specific selectors to the most generic.
var linkGroups = [][]string{
	{"article h1 a[href]", "article h2 a[href]", "article h3 a[href]",
		"article .entry-title a[href]", "article a[href]"},
	{"h2 a[href]", "h3 a[href]", ".entry-title a[href]", ".post-title a[href]",
		".news-title a[href]", ".article-title a[href]"},
	{".result a[href]", ".search-result a[href]", "[class*='search-result'] a[href]"},
	{".post a[href]", ".article a[href]", "[class*='article'] a[href]",
		"[class*='post-item'] a[href]", "[class*='news-item'] a[href]"},
	{"main a[href]", "#content a[href]", ".content a[href]"},
}

var ignoredHrefPrefixes = []string{"#", "javascript", "mailto", "tel"}

// Harvest collects article links from a result page. Only the first selector
// group that yields an accepted link contributes; later groups are ignored.
func Harvest(doc *goquery.Document, baseURL string) []model.ArticleCandidate {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	baseHost := strings.ToLower(base.Host)

	for _, group := range linkGroups {
		found := orderedmap.New[string, string]()
		for _, sel := range group {
			doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
				href := strings.TrimSpace(a.AttrOr("href", ""))
				if href == "" || hasAnyPrefix(href, ignoredHrefPrefixes) {
					return
				}
				ref, err := url.Parse(href)
				if err != nil {
					return
				}
				abs := base.ResolveReference(ref)
				if !strings.Contains(strings.ToLower(abs.Host), baseHost) {
					return
				}
				link := abs.String()
				if _, seen := found.Get(link); seen {
					return
				}
				text := strings.Join(strings.Fields(a.Text()), " ")
				if IsArticleLink(link, text, baseURL) {
					found.Set(link, text)
				}
			})
		}
		if found.Len() == 0 {
			continue
		}
		out := make([]model.ArticleCandidate, 0, found.Len())
		for pair := found.Oldest(); pair != nil; pair = pair.Next() {
			out = append(out, model.ArticleCandidate{URL: pair.Key, AnchorText: pair.Value})
		}
		return out
	}
	return nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
