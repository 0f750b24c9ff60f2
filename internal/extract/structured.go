package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cartscope/internal/page"
)

// structuredExtractor reads schema.org product markup embedded as JSON-LD.
// A malformed block is skipped in isolation and never aborts the rest of the
// page.
type ldNode struct {
	Type            ldType            `json:"@type"`
	SKU             flexString        `json:"sku"`
	MPN             flexString        `json:"mpn"`
	GTIN            flexString        `json:"gtin"`
	GTIN13          flexString        `json:"gtin13"`
	GTIN14          flexString        `json:"gtin14"`
	Name            string            `json:"name"`
	Offers          json.RawMessage   `json:"offers"`
	Item            json.RawMessage   `json:"item"`
	ItemListElement []json.RawMessage `json:"itemListElement"`
}

// ldType accepts the string and list forms of a JSON-LD @type declaration.
type ldType []string

func (t *ldType) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*t = ldType{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err == nil {
		*t = ldType(many)
	}
	return nil
}

func (t ldType) declares(name string) bool {
	for _, v := range t {
		if v == name {
			return true
		}
	}
	return false
}

type ldOffer struct {
	EligibleQuantity *struct {
		Value flexFloat `json:"value"`
	} `json:"eligibleQuantity"`
}

func extractStructured(snap *page.Snapshot, set *CandidateSet) {
	snap.Doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sc *goquery.Selection) {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			return
		}
		for _, raw := range asNodeList(json.RawMessage(text)) {
			var node ldNode
			if err := json.Unmarshal(raw, &node); err != nil {
				continue
			}
			if node.Type.declares("Product") {
				collectProduct(node, set)
			}
			for _, entry := range node.ItemListElement {
				var el ldNode
				if err := json.Unmarshal(entry, &el); err != nil {
					continue
				}
				if present(el.Item) {
					var item ldNode
					if err := json.Unmarshal(el.Item, &item); err == nil {
						collectProduct(item, set)
					}
					continue
				}
				collectProduct(el, set)
			}
		}
	})
}

func collectProduct(node ldNode, set *CandidateSet) {
	id := firstNonEmpty(node.SKU, node.MPN, node.GTIN, node.GTIN13, node.GTIN14)
	if id == "" {
		return
	}

	var namePtr *string
	if node.Name != "" {
		name := node.Name
		namePtr = &name
	}

	// Several offers may declare an eligible quantity; the last one wins.
	var qtyPtr *float64
	for _, raw := range asNodeList(node.Offers) {
		var offer ldOffer
		if err := json.Unmarshal(raw, &offer); err != nil {
			continue
		}
		if offer.EligibleQuantity != nil {
			if v := offer.EligibleQuantity.Value.Ptr(); v != nil {
				qtyPtr = v
			}
		}
	}

	set.Admit(id, namePtr, qtyPtr)
}

// asNodeList normalizes a JSON value that may be one object or an array of
// objects. Unparseable input yields nothing.
func asNodeList(raw json.RawMessage) []json.RawMessage {
	if !present(raw) {
		return nil
	}
	var many []json.RawMessage
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") && json.Valid(raw) {
		return []json.RawMessage{raw}
	}
	return nil
}
