package extract

import (
	"math"
	"regexp"
	"strings"

	"cartscope/internal"
)

// identifierShape is the single admission gate for every source. It is also
// the wire contract with the inventory service, so it must not drift.
var identifierShape = regexp.MustCompile(`^[A-Za-z0-9\-/_.]{4,32}$`)

const DefaultCap = 50

// CandidateSet accumulates validated identifiers, names and line items for
// one extraction run. Identifier and name sets are insertion-ordered,
// deduplicated and capped; the cap stops admission of new members, it never
// evicts accepted ones. Line items are append-only and not deduplicated: one
// record per raw observation.
type CandidateSet struct {
	cap       int
	ids       []string
	seenIDs   map[string]struct{}
	names     []string
	seenNames map[string]struct{}
	items     []internal.CartItem
}

func NewCandidateSet(cap int) *CandidateSet {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &CandidateSet{
		cap:       cap,
		seenIDs:   map[string]struct{}{},
		seenNames: map[string]struct{}{},
	}
}

// Admit validates rawID and, on acceptance, records the observation. Invalid
// input is dropped silently: page content is noisy by nature and rejections
// are expected filtering, not errors. Side effects are only ever additive.
func (s *CandidateSet) Admit(rawID string, rawName *string, rawQty *float64) bool {
	id := strings.TrimSpace(rawID)
	if !identifierShape.MatchString(id) {
		return false
	}

	if _, seen := s.seenIDs[id]; !seen && len(s.ids) < s.cap {
		s.seenIDs[id] = struct{}{}
		s.ids = append(s.ids, id)
	}

	item := internal.CartItem{Identifier: id}
	if rawName != nil {
		name := strings.TrimSpace(*rawName)
		if name != "" {
			item.Name = &name
			if _, seen := s.seenNames[name]; !seen && len(s.names) < s.cap {
				s.seenNames[name] = struct{}{}
				s.names = append(s.names, name)
			}
		}
	}
	if rawQty != nil && !math.IsNaN(*rawQty) && !math.IsInf(*rawQty, 0) {
		qty := *rawQty
		item.Qty = &qty
	}
	s.items = append(s.items, item)
	return true
}

func (s *CandidateSet) Identifiers() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *CandidateSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *CandidateSet) Items() []internal.CartItem {
	out := make([]internal.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *CandidateSet) Result() internal.ExtractResult {
	return internal.ExtractResult{
		Identifiers: s.Identifiers(),
		Names:       s.Names(),
		Items:       s.Items(),
	}
}
