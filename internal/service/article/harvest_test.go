package article

import (
	"strings"
	"testing"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestHarvest_FirstGroupWins(t *testing.T) {
	doc := parse(t, `<html><body>
		<article><h2><a href="/2024/05/solar-farm-approved">Solar farm approved by county board</a></h2></article>
		<main>
			<a href="/2024/05/unrelated-generic-link">A generic link inside the main column</a>
		</main>
	</body></html>`)

	got := Harvest(doc, base)
	assert.Equal(t, []model.ArticleCandidate{
		{URL: base + "/2024/05/solar-farm-approved", AnchorText: "Solar farm approved by county board"},
	}, got)
}

func TestHarvest_FallsThroughEmptyGroups(t *testing.T) {
	doc := parse(t, `<html><body>
		<article><a href="/tag/solar">Solar</a></article>
		<div class="search-result"><a href="https://news.example.com/industry/wind-turbine-orders-rise">Wind turbine orders rise for third quarter</a></div>
		<main><a href="/industry/ignored-because-later-group">Ignored because a later group never runs</a></main>
	</body></html>`)

	got := Harvest(doc, base)
	require.Len(t, got, 1)
	assert.Equal(t, base+"/industry/wind-turbine-orders-rise", got[0].URL)
}

func TestHarvest_FiltersAndDedupes(t *testing.T) {
	doc := parse(t, `<html><body><main>
		<a href="#top">Back to the top of this page please</a>
		<a href="javascript:void(0)">Open the interactive story viewer</a>
		<a href="mailto:desk@example.com">Email the news desk about this story</a>
		<a href="https://other.example.org/world/big-story-elsewhere">A big story on some other website</a>
		<a href="/business/markets-close-higher">Markets close higher on strong earnings</a>
		<a href="/business/markets-close-higher">Markets close higher on strong earnings</a>
		<a href="/business/banks-raise-rates-again">Banks raise rates again amid inflation</a>
	</main></body></html>`)

	got := Harvest(doc, base)
	require.Len(t, got, 2)
	assert.Equal(t, base+"/business/markets-close-higher", got[0].URL)
	assert.Equal(t, base+"/business/banks-raise-rates-again", got[1].URL)
}

func TestHarvest_NothingAccepted(t *testing.T) {
	doc := parse(t, `<html><body><main><a href="/about/team">Meet the people behind the newsroom</a></main></body></html>`)
	assert.Empty(t, Harvest(doc, base))
}
