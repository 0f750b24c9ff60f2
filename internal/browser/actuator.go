package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/net/html"
)

// LiveActuator executes removal actions on the live page. Located nodes come
// from the captured snapshot, so each node is addressed by a CSS path
// computed from its position in that snapshot; the page is assumed unchanged
// between capture and action, which is the same best-effort bet the rest of
// the pipeline makes.
type LiveActuator struct {
	session *Session
}

func NewLiveActuator(s *Session) *LiveActuator {
	return &LiveActuator{session: s}
}

func (a *LiveActuator) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(a.session.ctx, a.session.timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (a *LiveActuator) Click(n *html.Node) error {
	return a.run(chromedp.Click(CSSPath(n), chromedp.ByQuery))
}

func (a *LiveActuator) SetValue(n *html.Node, value string) error {
	return a.run(chromedp.SetValue(CSSPath(n), value, chromedp.ByQuery))
}

func (a *LiveActuator) FireInputEvents(n *html.Node) error {
	expr := fmt.Sprintf(`(() => {
	  const el = document.querySelector(%q);
	  if (!el) return false;
	  el.dispatchEvent(new Event("input", { bubbles: true }));
	  el.dispatchEvent(new Event("change", { bubbles: true }));
	  return true;
	})()`, CSSPath(n))
	var ok bool
	if err := a.run(chromedp.Evaluate(expr, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("element not found: %s", CSSPath(n))
	}
	return nil
}

func (a *LiveActuator) Hide(n *html.Node) error {
	expr := fmt.Sprintf(`(() => {
	  const el = document.querySelector(%q);
	  if (!el) return false;
	  el.style.display = "none";
	  return true;
	})()`, CSSPath(n))
	var ok bool
	if err := a.run(chromedp.Evaluate(expr, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("element not found: %s", CSSPath(n))
	}
	return nil
}

func (a *LiveActuator) Reload() error {
	return a.run(chromedp.Reload())
}

func (a *LiveActuator) Settle() {
	select {
	case <-a.session.ctx.Done():
	case <-time.After(a.session.settle):
	}
}

// CSSPath builds a selector for a node from its ancestry: the nearest
// ancestor with an id anchors the path, every step below is positional.
func CSSPath(n *html.Node) string {
	var steps []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if id := attrVal(cur, "id"); id != "" {
			steps = append(steps, fmt.Sprintf("#%s", id))
			break
		}
		if cur.Data == "html" || cur.Data == "body" {
			steps = append(steps, cur.Data)
			break
		}
		steps = append(steps, fmt.Sprintf("%s:nth-child(%d)", cur.Data, elementIndex(cur)))
	}

	// steps were collected leaf-first
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return strings.Join(steps, " > ")
}

func elementIndex(n *html.Node) int {
	idx := 1
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode {
			idx++
		}
	}
	return idx
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
