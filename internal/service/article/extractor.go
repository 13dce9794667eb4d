package article

import (
	"context"
	"regexp"
	"strings"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/LouYuanbo1/searchagent/internal/infra/crawler/collector"
	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	maxTitleLength   = 500
	minBodyLength    = 100
	maxBodyLength    = 5000
	locationScanSize = 500
	maxCompanies     = 10
	maxLocations     = 5
)

var (
	titleSelectors = []string{"h1.entry-title", "h1.post-title", "h1[class*='title']", "article h1", "h1"}
	dateSelectors  = []string{"time[datetime]", "[itemprop='datePublished']", ".published",
		".post-date", ".entry-date", "[class*='date']", "meta[property='article:published_time']"}
	bodySelectors = []string{"article .entry-content", "article .post-content",
		"[itemprop='articleBody']", ".article-content", "article", "main"}

	companyRe = regexp.MustCompile(`\b([A-Z][A-Za-z0-9&.\-]+(?: [A-Z][A-Za-z0-9&.\-]+)*` +
		`\s*(?:Inc\.?|Corp\.?|Ltd\.?|LLC|PLC|GmbH|Co\.?|Group|Holdings?` +
		`|Technologies?|Solutions?|Services?))\b`)
	locationRe = regexp.MustCompile(`\b([A-Z][a-z]+(?: [A-Z][a-z]+)*),\s*` +
		`([A-Z]{2}|[A-Z][a-z]+(?: [A-Z][a-z]+)*)\b`)
)

// Extractor turns article detail pages into ExtractedArticle values.
type Extractor struct {
	fetcher collector.Fetcher
}

func NewExtractor(fetcher collector.Fetcher) *Extractor {
	return &Extractor{fetcher: fetcher}
}

// Extract fetches url and pulls its fields. Fetch failures and error
// statuses yield an empty article.
func (e *Extractor) Extract(ctx context.Context, url string) model.ExtractedArticle {
	resp, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		logrus.WithError(err).WithField("url", url).Warn("article fetch failed")
		return model.ExtractedArticle{}
	}
	if resp.Status >= 400 || resp.Doc == nil {
		logrus.WithFields(logrus.Fields{"url": url, "status": resp.Status}).Debug("article page not usable")
		return model.ExtractedArticle{}
	}
	return ExtractFields(resp.Doc)
}

// ExtractFields reads title, date, body and entity mentions from doc.
func ExtractFields(doc *goquery.Document) model.ExtractedArticle {
	doc.Find("script, style, noscript").Remove()

	var a model.ExtractedArticle
	a.Title = firstText(doc, titleSelectors, 0)
	if a.Title == "" {
		a.Title = collapse(doc.Find("title").First().Text())
	}
	a.Title = truncate(a.Title, maxTitleLength)

	for _, sel := range dateSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		raw := lo.CoalesceOrEmpty(
			strings.TrimSpace(el.AttrOr("content", "")),
			strings.TrimSpace(el.AttrOr("datetime", "")),
			collapse(el.Text()),
		)
		if raw != "" {
			a.PublishedAt = NormalizeDate(raw)
			break
		}
	}

	a.BodyText = truncate(firstText(doc, bodySelectors, minBodyLength), maxBodyLength)
	a.Companies = Companies(a.BodyText)
	a.Locations = Locations(a.BodyText)
	return a
}

// Companies finds capitalized names ending in a corporate suffix.
func Companies(text string) []string {
	var found []string
	for _, m := range companyRe.FindAllStringSubmatch(text, -1) {
		found = append(found, m[1])
	}
	return capped(found, maxCompanies)
}

// Locations finds "City, Region" pairs near the start of text.
func Locations(text string) []string {
	text = truncate(text, locationScanSize)
	var found []string
	for _, m := range locationRe.FindAllStringSubmatch(text, -1) {
		found = append(found, m[1]+","+m[2])
	}
	return capped(found, maxLocations)
}

// firstText returns the text of the first selector whose first match is
// longer than minLen.
func firstText(doc *goquery.Document, selectors []string, minLen int) string {
	for _, sel := range selectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if txt := strings.TrimSpace(el.Text()); txt != "" && len([]rune(txt)) > minLen {
			return txt
		}
	}
	return ""
}

func capped(items []string, limit int) []string {
	items = lo.Uniq(items)
	if len(items) > limit {
		items = items[:limit]
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
