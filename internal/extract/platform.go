package extract

import (
	"encoding/json"
	"regexp"

	"cartscope/internal/page"
)

// platformExtractor probes known client-framework state shapes. It is
// explicitly low-confidence: the two probes are guarded independently so a
// failure in one never prevents the other, and the regex scan can be
// disabled without touching any other extractor.

type shopifyState struct {
	Cart *struct {
		Lines []shopifyLine `json:"lines"`
	} `json:"cart"`
}

type shopifyLine struct {
	Merchandise *struct {
		SKU     flexString `json:"sku"`
		Product *struct {
			Title string `json:"title"`
		} `json:"product"`
	} `json:"merchandise"`
	Quantity flexFloat `json:"quantity"`
}

// skuValue matches an identifier-shaped value next to a "sku" key anywhere
// in serialized framework state, regardless of nesting. A structural parse
// is infeasible without knowing the framework's shape; every match still
// passes the admission gate, which bounds the false positives.
var skuValue = regexp.MustCompile(`"sku"\s*:\s*"([^"]{4,32})"`)

func extractPlatform(snap *page.Snapshot, set *CandidateSet, scanState bool) {
	if raw := snap.Global(page.GlobalShopifyState); raw != nil {
		var state shopifyState
		if err := json.Unmarshal(raw, &state); err == nil && state.Cart != nil {
			for _, line := range state.Cart.Lines {
				if line.Merchandise == nil || line.Merchandise.SKU == "" {
					continue
				}
				var namePtr *string
				if line.Merchandise.Product != nil && line.Merchandise.Product.Title != "" {
					title := line.Merchandise.Product.Title
					namePtr = &title
				}
				set.Admit(string(line.Merchandise.SKU), namePtr, line.Quantity.Ptr())
			}
		}
	}

	if !scanState {
		return
	}
	for _, key := range []string{page.GlobalNextData, page.GlobalApolloState} {
		raw := snap.Global(key)
		if raw == nil {
			continue
		}
		for _, m := range skuValue.FindAllSubmatch(raw, -1) {
			set.Admit(string(m[1]), nil, nil)
		}
	}
}
