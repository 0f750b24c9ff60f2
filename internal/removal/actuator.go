package removal

import (
	"fmt"
	"time"

	"golang.org/x/net/html"
)

// Actuator executes removal actions against a page. The coordinator decides
// what to do; the actuator decides how it reaches the page (live browser,
// parsed tree for dry runs and tests).
type Actuator interface {
	Click(n *html.Node) error
	SetValue(n *html.Node, value string) error
	// FireInputEvents emits input/change notifications so the host page's own
	// logic reacts to a programmatic value change.
	FireInputEvents(n *html.Node) error
	Hide(n *html.Node) error
	Reload() error
	// Settle waits out the fixed DOM-mutation settle delay after an action.
	Settle()
}

// TreeActuator mutates the parsed tree directly. Clicks have no host page to
// react, so they only log; value and visibility changes are applied to the
// tree so a mutated document can be rendered back out.
type TreeActuator struct {
	SettleDelay time.Duration
}

func (a *TreeActuator) Click(n *html.Node) error {
	fmt.Printf("removal: click <%s class=%q>\n", n.Data, attrVal(n, "class"))
	return nil
}

func (a *TreeActuator) SetValue(n *html.Node, value string) error {
	setAttrVal(n, "value", value)
	return nil
}

func (a *TreeActuator) FireInputEvents(n *html.Node) error {
	return nil
}

func (a *TreeActuator) Hide(n *html.Node) error {
	style := attrVal(n, "style")
	if style != "" && style[len(style)-1] != ';' {
		style += ";"
	}
	setAttrVal(n, "style", style+"display:none")
	return nil
}

func (a *TreeActuator) Reload() error {
	fmt.Println("removal: reload requested (no live page)")
	return nil
}

func (a *TreeActuator) Settle() {
	if a.SettleDelay > 0 {
		time.Sleep(a.SettleDelay)
	}
}
