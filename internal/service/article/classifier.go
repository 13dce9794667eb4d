package article

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"
)

const minAnchorLength = 20

var nonArticleExtensions = map[string]bool{
	".pdf": true, ".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true,
	".zip": true, ".xml": true, ".json": true, ".css": true, ".js": true,
}

// section names that never host a single article
var nonArticleSegments = map[string]bool{
	"topics": true, "topic": true, "category": true, "categories": true, "cat": true,
	"tag": true, "tags": true, "label": true, "labels": true, "explore": true,
	"browse": true, "author": true, "authors": true, "contributor": true, "page": true,
	"archive": true, "archives": true, "search": true, "feed": true, "rss": true,
	"newsletter": true, "subscribe": true, "about": true, "contact": true,
	"advertise": true, "careers": true, "events": true, "webinar": true,
	"conference": true, "podcast": true, "video": true, "gallery": true,
	"product": true, "products": true, "shop": true, "store": true, "login": true,
	"register": true, "signup": true, "account": true,
}

// IsArticleLink reports whether link looks like a single article.
func IsArticleLink(link, anchorText, baseURL string) bool {
	ok, _ := ClassifyLink(link, anchorText, baseURL)
	return ok
}

// ClassifyLink is IsArticleLink with the reason for a rejection.
func ClassifyLink(link, anchorText, baseURL string) (bool, string) {
	if anchorText != "" && utf8.RuneCountInString(strings.TrimSpace(anchorText)) < minAnchorLength {
		return false, "anchor too short"
	}
	u, err := url.Parse(link)
	if err != nil {
		return false, "unparseable url"
	}
	p := strings.TrimRight(u.Path, "/")

	segments := splitPath(p)
	if n := len(segments); n > 0 {
		if ext := strings.ToLower(path.Ext(segments[n-1])); nonArticleExtensions[ext] {
			return false, fmt.Sprintf("bad ext %s", ext)
		}
	}
	for _, seg := range segments {
		if nonArticleSegments[strings.ToLower(seg)] {
			return false, fmt.Sprintf("non-article seg '%s'", seg)
		}
	}
	if len(segments) < 2 {
		return false, "path too shallow"
	}
	if base, err := url.Parse(baseURL); err == nil && p == strings.TrimRight(base.Path, "/") {
		return false, "is base url"
	}
	return true, "ok"
}

func splitPath(p string) []string {
	var out []string
	for seg := range strings.SplitSeq(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
