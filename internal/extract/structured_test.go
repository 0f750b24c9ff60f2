package extract

import (
	"testing"

	"cartscope/internal/page"
)

func snapFromHTML(t *testing.T, html string) *page.Snapshot {
	t.Helper()
	snap, err := page.FromHTML(html, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return snap
}

func TestStructuredProductBlock(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@type":"Product","sku":"ABC-1234","name":"Widget","offers":{"eligibleQuantity":{"value":2}}}
</script></head><body></body></html>`
	set := NewCandidateSet(0)
	extractStructured(snapFromHTML(t, html), set)

	ids := set.Identifiers()
	if len(ids) != 1 || ids[0] != "ABC-1234" {
		t.Fatalf("ids=%v", ids)
	}
	names := set.Names()
	if len(names) != 1 || names[0] != "Widget" {
		t.Fatalf("names=%v", names)
	}
	items := set.Items()
	if len(items) != 1 || items[0].Qty == nil || *items[0].Qty != 2 {
		t.Fatalf("items=%+v", items)
	}
}

func TestStructuredMalformedBlockIsIsolated(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">{not valid json</script>
<script type="application/ld+json">{"@type":"Product","sku":"GOOD-001","name":"Good"}</script>
</head><body></body></html>`
	set := NewCandidateSet(0)
	extractStructured(snapFromHTML(t, html), set)

	ids := set.Identifiers()
	if len(ids) != 1 || ids[0] != "GOOD-001" {
		t.Fatalf("ids=%v", ids)
	}
}

func TestStructuredArrayAndTypeList(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
[{"@type":["Thing","Product"],"sku":"LIST-001"},{"@type":"WebPage","name":"ignored"}]
</script></head><body></body></html>`
	set := NewCandidateSet(0)
	extractStructured(snapFromHTML(t, html), set)

	ids := set.Identifiers()
	if len(ids) != 1 || ids[0] != "LIST-001" {
		t.Fatalf("ids=%v", ids)
	}
}

func TestStructuredIdentifierPreference(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">{"@type":"Product","mpn":"MPN-001","gtin13":"4006381333931"}</script>
<script type="application/ld+json">{"@type":"Product","sku":"","gtin":"40063813"}</script>
</head><body></body></html>`
	set := NewCandidateSet(0)
	extractStructured(snapFromHTML(t, html), set)

	ids := set.Identifiers()
	if len(ids) != 2 || ids[0] != "MPN-001" || ids[1] != "40063813" {
		t.Fatalf("ids=%v", ids)
	}
}

func TestStructuredItemList(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@type":"ItemList","itemListElement":[
  {"item":{"@type":"Product","sku":"NEST-001","name":"Nested"}},
  {"sku":"FLAT-002","name":"Flat"}
]}
</script></head><body></body></html>`
	set := NewCandidateSet(0)
	extractStructured(snapFromHTML(t, html), set)

	ids := set.Identifiers()
	if len(ids) != 2 || ids[0] != "NEST-001" || ids[1] != "FLAT-002" {
		t.Fatalf("ids=%v", ids)
	}
}

func TestStructuredOffersArrayLastWins(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@type":"Product","sku":"OFR-001","offers":[
  {"eligibleQuantity":{"value":1}},
  {"price":"9.99"},
  {"eligibleQuantity":{"value":"5"}}
]}
</script></head><body></body></html>`
	set := NewCandidateSet(0)
	extractStructured(snapFromHTML(t, html), set)

	items := set.Items()
	if len(items) != 1 || items[0].Qty == nil || *items[0].Qty != 5 {
		t.Fatalf("items=%+v", items)
	}
}
