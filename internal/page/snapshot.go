package page

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page-global state objects consumed by the extractors. They are owned by the
// host page: a snapshot carries them as opaque JSON captured at one point in
// time and never mutates them.
const (
	GlobalDataLayer    = "dataLayer"
	GlobalShopifyState = "__SHOPIFY_STATE__"
	GlobalNextData     = "__NEXT_DATA__"
	GlobalApolloState  = "__APOLLO_STATE__"
)

// CapturedGlobals lists the globals a live session serializes from the page.
var CapturedGlobals = []string{GlobalDataLayer, GlobalShopifyState, GlobalNextData, GlobalApolloState}

type Snapshot struct {
	URL     string
	Doc     *goquery.Document
	globals map[string]json.RawMessage
}

// FromHTML parses markup into a snapshot. Globals that live as inline JSON
// script tags (Next.js bootstrap blob) are lifted from the markup unless the
// caller already supplied them.
func FromHTML(html string, globals map[string]json.RawMessage) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Doc: doc, globals: map[string]json.RawMessage{}}
	for key, value := range globals {
		if len(value) > 0 {
			snap.globals[key] = value
		}
	}

	if _, ok := snap.globals[GlobalNextData]; !ok {
		if raw := inlineJSON(doc, "script#__NEXT_DATA__"); raw != nil {
			snap.globals[GlobalNextData] = raw
		}
	}

	return snap, nil
}

func LoadFile(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := FromHTML(string(raw), nil)
	if err != nil {
		return nil, err
	}
	snap.URL = path
	return snap, nil
}

// Global returns the captured value for key, or nil when the page never
// exposed it.
func (s *Snapshot) Global(key string) json.RawMessage {
	raw, ok := s.globals[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	return raw
}

func inlineJSON(doc *goquery.Document, selector string) json.RawMessage {
	text := strings.TrimSpace(doc.Find(selector).First().Text())
	if text == "" || !json.Valid([]byte(text)) {
		return nil
	}
	return json.RawMessage(text)
}
