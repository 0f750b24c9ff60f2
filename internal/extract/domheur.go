package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cartscope/internal/page"
)

// domHeuristicExtractor is the last resort for sites with no machine-readable
// cart data. The cart-region pass is the noisiest source on purpose and leans
// on the admission gate plus set dedup to bound damage.

const (
	codeMarkerSelector = `[data-sku],[data-artikelnummer],[data-product-id],.sku,.artikelnummer,.product-sku`
	cartRegionSelector = `[id*=cart],[class*=cart],[id*=basket],[class*=basket],[id*=checkout],[class*=checkout]`
)

var codeAttrs = []string{"data-sku", "data-artikelnummer", "data-product-id"}

// cartText is stricter than the admission shape: the token must start with
// an alphanumeric so punctuation runs in free text don't qualify.
var cartText = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-/_.]{3,31}$`)

func extractDOMHeuristics(snap *page.Snapshot, set *CandidateSet) {
	snap.Doc.Find(codeMarkerSelector).Each(func(_ int, el *goquery.Selection) {
		value := ""
		for _, attr := range codeAttrs {
			if v, ok := el.Attr(attr); ok && strings.TrimSpace(v) != "" {
				value = v
				break
			}
		}
		if value == "" {
			value = el.Text()
		}
		set.Admit(value, nil, nil)
	})

	snap.Doc.Find(cartRegionSelector).Each(func(_ int, root *goquery.Selection) {
		root.Find("*").Each(func(_ int, el *goquery.Selection) {
			text := strings.TrimSpace(el.Text())
			if cartText.MatchString(text) {
				set.Admit(text, nil, nil)
			}
		})
	})
}
