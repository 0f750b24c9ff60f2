package extract

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"cartscope/internal/config"
	"cartscope/internal/page"
)

func testConfig() config.Config {
	return config.Config{CandidateCap: 50, PlatformScan: true}
}

func TestOrchestratorScenarioA(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@type":"Product","sku":"ABC-1234","name":"Widget","offers":{"eligibleQuantity":{"value":2}}}
</script></head><body></body></html>`
	snap := snapFromHTML(t, html)

	res := New(testConfig()).Run(snap)
	if !reflect.DeepEqual(res.Identifiers, []string{"ABC-1234"}) {
		t.Fatalf("ids=%v", res.Identifiers)
	}
	if !reflect.DeepEqual(res.Names, []string{"Widget"}) {
		t.Fatalf("names=%v", res.Names)
	}
	if len(res.Items) != 1 {
		t.Fatalf("items=%d", len(res.Items))
	}
	item := res.Items[0]
	if item.Identifier != "ABC-1234" || item.Name == nil || *item.Name != "Widget" || item.Qty == nil || *item.Qty != 2 {
		t.Fatalf("item=%+v", item)
	}
}

func TestOrchestratorScenarioB(t *testing.T) {
	html := `<html><body><span class="sku">XZ99-1</span></body></html>`
	res := New(testConfig()).Run(snapFromHTML(t, html))

	if !reflect.DeepEqual(res.Identifiers, []string{"XZ99-1"}) {
		t.Fatalf("ids=%v", res.Identifiers)
	}
	if len(res.Names) != 0 {
		t.Fatalf("names=%v", res.Names)
	}
}

func TestOrchestratorIdempotent(t *testing.T) {
	html := `<html><head><script type="application/ld+json">{"@type":"Product","sku":"ABC-1234","name":"Widget"}</script></head>
<body><div class="cart"><span>DOM-5678</span></div></body></html>`
	snap, err := page.FromHTML(html, map[string]json.RawMessage{
		page.GlobalDataLayer: json.RawMessage(`[{"items":[{"item_id":"EVT-0001","item_name":"Tracked"}]}]`),
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	orch := New(testConfig())
	first := orch.Run(snap)
	second := orch.Run(snap)
	if !reflect.DeepEqual(first.Identifiers, second.Identifiers) || !reflect.DeepEqual(first.Names, second.Names) {
		t.Fatalf("runs differ: %v vs %v", first, second)
	}
}

func TestOrchestratorCrossSourceDedup(t *testing.T) {
	// same identifier from JSON-LD and from the DOM: one set entry, two items
	html := `<html><head><script type="application/ld+json">{"@type":"Product","sku":"ABC-1234","name":"Widget"}</script></head>
<body><div class="cart"><span>ABC-1234</span></div></body></html>`
	res := New(testConfig()).Run(snapFromHTML(t, html))

	if !reflect.DeepEqual(res.Identifiers, []string{"ABC-1234"}) {
		t.Fatalf("ids=%v", res.Identifiers)
	}
	if len(res.Items) != 2 {
		t.Fatalf("items=%d", len(res.Items))
	}
}

func TestOrchestratorPriorityUnderCap(t *testing.T) {
	// structured data fills the cap; later extractors add items but no new ids
	var blocks strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&blocks, `<script type="application/ld+json">{"@type":"Product","sku":"LD-%04d"}</script>`, i)
	}
	html := `<html><head>` + blocks.String() + `</head><body><div class="cart"><span>DOM-9999</span></div></body></html>`
	res := New(testConfig()).Run(snapFromHTML(t, html))

	if len(res.Identifiers) != 50 {
		t.Fatalf("len=%d", len(res.Identifiers))
	}
	for i, id := range res.Identifiers {
		if id != fmt.Sprintf("LD-%04d", i) {
			t.Fatalf("ids[%d]=%s", i, id)
		}
	}
	// the DOM observation is preserved as a line item even though capped out
	found := false
	for _, item := range res.Items {
		if item.Identifier == "DOM-9999" {
			found = true
		}
	}
	if !found {
		t.Fatalf("DOM observation lost")
	}
}

func TestOrchestratorExtractorOrder(t *testing.T) {
	html := `<html><head><script type="application/ld+json">{"@type":"Product","sku":"LD-0001"}</script></head>
<body><div class="cart"><span>DOM-0001</span></div></body></html>`
	snap, err := page.FromHTML(html, map[string]json.RawMessage{
		page.GlobalDataLayer:    json.RawMessage(`[{"items":[{"item_id":"EVT-0001"}]}]`),
		page.GlobalShopifyState: json.RawMessage(`{"cart":{"lines":[{"merchandise":{"sku":"SHOP-0001"},"quantity":1}]}}`),
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	res := New(testConfig()).Run(snap)
	want := []string{"LD-0001", "EVT-0001", "SHOP-0001", "DOM-0001"}
	if !reflect.DeepEqual(res.Identifiers, want) {
		t.Fatalf("ids=%v want %v", res.Identifiers, want)
	}
}
