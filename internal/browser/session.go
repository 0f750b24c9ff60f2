package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"cartscope/internal/config"
	"cartscope/internal/page"
)

// Session owns one headless browser attached to the shopper's page. It
// produces snapshots for the extractors and executes removal actions on the
// live DOM.
type Session struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	settle      time.Duration
}

func NewSession(cfg config.Config) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.BrowserHeadless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         ctx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		timeout:     time.Duration(cfg.BrowserTimeoutMs) * time.Millisecond,
		settle:      time.Duration(cfg.RemovalSettleMs) * time.Millisecond,
	}

	// spin the browser up front so Navigate fails fast when Chrome is missing
	if err := chromedp.Run(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser start: %w", err)
	}
	return s, nil
}

func (s *Session) Close() {
	s.cancelCtx()
	s.cancelAlloc()
}

func (s *Session) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	if err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Capture serializes the current DOM and the known page globals into a
// snapshot. The globals are read-only host state: they are stringified in the
// page and never written back.
func (s *Session) Capture() (*page.Snapshot, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	var markup string
	var currentURL string
	if err := chromedp.Run(ctx,
		chromedp.Location(&currentURL),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("capture dom: %w", err)
	}

	globals := map[string]json.RawMessage{}
	for _, key := range page.CapturedGlobals {
		var serialized string
		expr := fmt.Sprintf(`(() => { try { return JSON.stringify(window[%q] ?? null); } catch (e) { return "null"; } })()`, key)
		if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &serialized)); err != nil {
			continue
		}
		if serialized != "" && serialized != "null" && json.Valid([]byte(serialized)) {
			globals[key] = json.RawMessage(serialized)
		}
	}

	snap, err := page.FromHTML(markup, globals)
	if err != nil {
		return nil, err
	}
	snap.URL = currentURL
	return snap, nil
}
