package extract

import (
	"encoding/json"
	"testing"

	"cartscope/internal/page"
)

func TestPlatformShopifyCartLines(t *testing.T) {
	state := `{"cart":{"lines":[
	  {"merchandise":{"sku":"SHOP-001","product":{"title":"Lamp"}},"quantity":2},
	  {"merchandise":{"sku":""},"quantity":1},
	  {"quantity":4}
	]}}`
	set := NewCandidateSet(0)
	extractPlatform(snapWithGlobals(t, map[string]json.RawMessage{page.GlobalShopifyState: json.RawMessage(state)}), set, true)

	ids := set.Identifiers()
	if len(ids) != 1 || ids[0] != "SHOP-001" {
		t.Fatalf("ids=%v", ids)
	}
	items := set.Items()
	if len(items) != 1 || items[0].Name == nil || *items[0].Name != "Lamp" || items[0].Qty == nil || *items[0].Qty != 2 {
		t.Fatalf("items=%+v", items)
	}
}

func TestPlatformStateScan(t *testing.T) {
	next := `{"props":{"pageProps":{"lines":[{"sku":"NEXT-001"},{"deep":{"sku":"NEXT-002"}}]}}}`
	apollo := `{"Product:1":{"sku":"APLO-001"},"noise":{"sku":"a b"}}`
	globals := map[string]json.RawMessage{
		page.GlobalNextData:    json.RawMessage(next),
		page.GlobalApolloState: json.RawMessage(apollo),
	}
	set := NewCandidateSet(0)
	extractPlatform(snapWithGlobals(t, globals), set, true)

	ids := set.Identifiers()
	if len(ids) != 3 || ids[0] != "NEXT-001" || ids[1] != "NEXT-002" || ids[2] != "APLO-001" {
		t.Fatalf("ids=%v", ids)
	}
}

func TestPlatformScanDisabled(t *testing.T) {
	globals := map[string]json.RawMessage{
		page.GlobalNextData:     json.RawMessage(`{"sku":"NEXT-001"}`),
		page.GlobalShopifyState: json.RawMessage(`{"cart":{"lines":[{"merchandise":{"sku":"SHOP-001"},"quantity":1}]}}`),
	}
	set := NewCandidateSet(0)
	extractPlatform(snapWithGlobals(t, globals), set, false)

	// only the structured Shopify probe runs; the loose scan is off
	ids := set.Identifiers()
	if len(ids) != 1 || ids[0] != "SHOP-001" {
		t.Fatalf("ids=%v", ids)
	}
}

func TestPlatformMalformedStateIgnored(t *testing.T) {
	globals := map[string]json.RawMessage{
		page.GlobalShopifyState: json.RawMessage(`{"cart":"oops"}`),
	}
	set := NewCandidateSet(0)
	extractPlatform(snapWithGlobals(t, globals), set, true)
	if len(set.Identifiers()) != 0 {
		t.Fatalf("ids=%v", set.Identifiers())
	}
}
