package extract

import (
	"cartscope/internal"
	"cartscope/internal/config"
	"cartscope/internal/page"
)

// Orchestrator runs the four extractors in a fixed order against one shared
// candidate set. Order decides which entries survive the cap: earlier
// sources are authoritative under truncation. The extractors share the
// mutable set, so no concurrency between them is permitted within a run.
type Orchestrator struct {
	cap          int
	platformScan bool
}

func New(cfg config.Config) *Orchestrator {
	return &Orchestrator{cap: cfg.CandidateCap, platformScan: cfg.PlatformScan}
}

func (o *Orchestrator) Run(snap *page.Snapshot) internal.ExtractResult {
	set := NewCandidateSet(o.cap)
	extractStructured(snap, set)
	extractAnalytics(snap, set)
	extractPlatform(snap, set, o.platformScan)
	extractDOMHeuristics(snap, set)
	return set.Result()
}
