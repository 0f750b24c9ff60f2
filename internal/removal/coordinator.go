package removal

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"cartscope/internal"
)

var (
	deleteAffordance = regexp.MustCompile(`(?i)(remove|delete|entfernen|löschen|trash)`)
	updateAffordance = regexp.MustCompile(`(?i)(update|aktualisieren)`)
)

// Coordinator removes confirmed cart items from a page. Per identifier it
// runs a prioritized chain: dedicated delete control, quantity-to-zero with
// the page's update control, then hiding the container. Hiding always
// succeeds structurally, so true removal failure is not representable; the
// outcome records keep "hidden" distinguishable from a genuine deletion.
type Coordinator struct {
	act Actuator
}

func NewCoordinator(act Actuator) *Coordinator {
	return &Coordinator{act: act}
}

// Process handles the identifiers strictly sequentially: a DOM mutation for
// one item can invalidate containers located for another, so each item is
// fully resolved before the next begins. A reload, when requested, happens
// after the whole list.
func (c *Coordinator) Process(doc *goquery.Document, req internal.RemovalRequest) []internal.RemovalRecord {
	records := make([]internal.RemovalRecord, 0, len(req.Items))
	for _, item := range req.Items {
		records = append(records, c.removeOne(doc, item.Identifier))
	}
	if req.Reload {
		if err := c.act.Reload(); err != nil {
			fmt.Printf("removal: reload failed: %v\n", err)
		}
	}
	return records
}

// ProcessFresh is Process for live pages: a mutation fired for one identifier
// shifts the positions later containers are addressed by, so the document is
// re-resolved before every identifier instead of once per request.
func (c *Coordinator) ProcessFresh(fresh func() (*goquery.Document, error), req internal.RemovalRequest) []internal.RemovalRecord {
	records := make([]internal.RemovalRecord, 0, len(req.Items))
	for _, item := range req.Items {
		doc, err := fresh()
		if err != nil {
			fmt.Printf("removal: page re-read failed for %s: %v\n", item.Identifier, err)
			records = append(records, internal.RemovalRecord{Identifier: item.Identifier, Outcome: internal.RemovalNotFound, Detail: "page re-read failed"})
			continue
		}
		records = append(records, c.removeOne(doc, item.Identifier))
	}
	if req.Reload {
		if err := c.act.Reload(); err != nil {
			fmt.Printf("removal: reload failed: %v\n", err)
		}
	}
	return records
}

func (c *Coordinator) removeOne(doc *goquery.Document, identifier string) internal.RemovalRecord {
	container := FindItemContainer(doc, identifier)
	if container == nil {
		fmt.Printf("removal: no container for %s\n", identifier)
		return internal.RemovalRecord{Identifier: identifier, Outcome: internal.RemovalNotFound}
	}

	if btn := findDeleteControl(container); btn != nil {
		if err := c.act.Click(btn); err == nil {
			c.act.Settle()
			return internal.RemovalRecord{Identifier: identifier, Outcome: internal.RemovalDeleted, Detail: describeControl(btn)}
		}
	}

	qty := findQtyInput(container)
	update := findUpdateControl(doc)
	if qty != nil && update != nil {
		if err := c.setQtyZero(qty, update); err == nil {
			c.act.Settle()
			return internal.RemovalRecord{Identifier: identifier, Outcome: internal.RemovalQtyZeroed, Detail: describeControl(update)}
		}
	}

	if err := c.act.Hide(container); err != nil {
		fmt.Printf("removal: hide failed for %s: %v\n", identifier, err)
	}
	fmt.Printf("removal: %s only hidden, still in cart server-side\n", identifier)
	return internal.RemovalRecord{Identifier: identifier, Outcome: internal.RemovalHidden}
}

func (c *Coordinator) setQtyZero(qty, update *html.Node) error {
	if err := c.act.SetValue(qty, "0"); err != nil {
		return err
	}
	if err := c.act.FireInputEvents(qty); err != nil {
		return err
	}
	return c.act.Click(update)
}

// findDeleteControl looks for a per-line delete affordance inside the
// container: a button/link/submit whose class, label or text reads like a
// removal action.
func findDeleteControl(container *html.Node) *html.Node {
	var found *html.Node
	eachElement(container, func(n *html.Node) bool {
		if !clickable(n) {
			return true
		}
		if deleteAffordance.MatchString(controlLabel(n)) {
			found = n
			return false
		}
		return true
	})
	return found
}

// findQtyInput returns the first numeric quantity input inside the container.
func findQtyInput(container *html.Node) *html.Node {
	var found *html.Node
	eachElement(container, func(n *html.Node) bool {
		if n.Data == "input" && strings.EqualFold(attrVal(n, "type"), "number") {
			found = n
			return false
		}
		return true
	})
	return found
}

// findUpdateControl scans the whole page for a submit/update control whose
// label matches an update affordance.
func findUpdateControl(doc *goquery.Document) *html.Node {
	root := doc.Get(0)
	if root == nil {
		return nil
	}
	var found *html.Node
	eachElement(root, func(n *html.Node) bool {
		if !clickable(n) {
			return true
		}
		if updateAffordance.MatchString(controlLabel(n)) {
			found = n
			return false
		}
		return true
	})
	return found
}

func clickable(n *html.Node) bool {
	switch n.Data {
	case "button", "a":
		return true
	case "input":
		t := strings.ToLower(attrVal(n, "type"))
		return t == "submit" || t == "button"
	}
	return false
}

func controlLabel(n *html.Node) string {
	parts := []string{
		attrVal(n, "class"),
		attrVal(n, "aria-label"),
		attrVal(n, "title"),
		attrVal(n, "data-action"),
		attrVal(n, "value"),
		nodeText(n),
	}
	return strings.Join(parts, " ")
}

func describeControl(n *html.Node) string {
	label := strings.TrimSpace(nodeText(n))
	if label == "" {
		label = attrVal(n, "value")
	}
	if label == "" {
		label = attrVal(n, "aria-label")
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", n.Data, label))
}
