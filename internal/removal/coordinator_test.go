package removal

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"cartscope/internal"
)

// recordingActuator captures every action in order instead of touching a page.
type recordingActuator struct {
	calls []string
}

func (a *recordingActuator) record(format string, args ...any) {
	a.calls = append(a.calls, fmt.Sprintf(format, args...))
}

func (a *recordingActuator) Click(n *html.Node) error {
	a.record("click %s %s", n.Data, attrVal(n, "class"))
	return nil
}

func (a *recordingActuator) SetValue(n *html.Node, value string) error {
	a.record("set %s=%s", n.Data, value)
	return nil
}

func (a *recordingActuator) FireInputEvents(n *html.Node) error {
	a.record("events %s", n.Data)
	return nil
}

func (a *recordingActuator) Hide(n *html.Node) error {
	a.record("hide %s", n.Data)
	return nil
}

func (a *recordingActuator) Reload() error {
	a.record("reload")
	return nil
}

func (a *recordingActuator) Settle() {
	a.record("settle")
}

func docFrom(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func request(reload bool, ids ...string) internal.RemovalRequest {
	req := internal.RemovalRequest{Reload: reload}
	for _, id := range ids {
		req.Items = append(req.Items, internal.RemovalItem{Identifier: id})
	}
	return req
}

func TestRemovalDeleteButton(t *testing.T) {
	doc := docFrom(t, `<html><body><ul>
	  <li><span>ABC-1234</span><input type="number" value="1"><button class="line-delete">Remove</button></li>
	</ul><button>Update cart</button></body></html>`)
	act := &recordingActuator{}
	records := NewCoordinator(act).Process(doc, request(true, "ABC-1234"))

	if len(records) != 1 || records[0].Outcome != internal.RemovalDeleted {
		t.Fatalf("records=%+v", records)
	}
	want := []string{"click button line-delete", "settle", "reload"}
	if fmt.Sprint(act.calls) != fmt.Sprint(want) {
		t.Fatalf("calls=%v", act.calls)
	}
}

func TestRemovalQtyZero(t *testing.T) {
	doc := docFrom(t, `<html><body>
	  <div class="line"><span>ABC-1234</span><input type="number" value="2"></div>
	  <form><input type="submit" value="Aktualisieren"></form>
	</body></html>`)
	act := &recordingActuator{}
	records := NewCoordinator(act).Process(doc, request(false, "ABC-1234"))

	if len(records) != 1 || records[0].Outcome != internal.RemovalQtyZeroed {
		t.Fatalf("records=%+v", records)
	}
	want := []string{"set input=0", "events input", "click input ", "settle"}
	if fmt.Sprint(act.calls) != fmt.Sprint(want) {
		t.Fatalf("calls=%v", act.calls)
	}
}

func TestRemovalHideFallback(t *testing.T) {
	doc := docFrom(t, `<html><body><div class="line"><span>ABC-1234</span></div></body></html>`)
	act := &recordingActuator{}
	records := NewCoordinator(act).Process(doc, request(false, "ABC-1234"))

	if len(records) != 1 || records[0].Outcome != internal.RemovalHidden {
		t.Fatalf("records=%+v", records)
	}
	if fmt.Sprint(act.calls) != fmt.Sprint([]string{"hide div"}) {
		t.Fatalf("calls=%v", act.calls)
	}
}

func TestRemovalNotFound(t *testing.T) {
	doc := docFrom(t, `<html><body><div>nothing here</div></body></html>`)
	act := &recordingActuator{}
	records := NewCoordinator(act).Process(doc, request(false, "ABC-1234"))

	if len(records) != 1 || records[0].Outcome != internal.RemovalNotFound {
		t.Fatalf("records=%+v", records)
	}
	if len(act.calls) != 0 {
		t.Fatalf("calls=%v", act.calls)
	}
}

func TestRemovalSequential(t *testing.T) {
	doc := docFrom(t, `<html><body><ul>
	  <li><span>AAA-1111</span><button class="delete-line">x</button></li>
	  <li><span>BBB-2222</span></li>
	</ul></body></html>`)
	act := &recordingActuator{}
	records := NewCoordinator(act).Process(doc, request(false, "AAA-1111", "BBB-2222"))

	if len(records) != 2 {
		t.Fatalf("records=%+v", records)
	}
	if records[0].Outcome != internal.RemovalDeleted || records[1].Outcome != internal.RemovalHidden {
		t.Fatalf("records=%+v", records)
	}
	want := []string{"click button delete-line", "settle", "hide li"}
	if fmt.Sprint(act.calls) != fmt.Sprint(want) {
		t.Fatalf("calls=%v", act.calls)
	}
}

func TestProcessFreshRereadsPerIdentifier(t *testing.T) {
	// after the first line is deleted on the page, the second line moves up;
	// each identifier must be located in a re-read document, not the first one
	pages := []string{
		`<html><body><ul>
		  <li><span>AAA-1111</span><button class="del-a">Remove</button></li>
		  <li><span>BBB-2222</span><button class="del-b">Remove</button></li>
		</ul></body></html>`,
		`<html><body><ul>
		  <li><span>BBB-2222</span><button class="del-b">Remove</button></li>
		</ul></body></html>`,
	}
	reads := 0
	fresh := func() (*goquery.Document, error) {
		doc := docFrom(t, pages[reads])
		reads++
		return doc, nil
	}

	act := &recordingActuator{}
	records := NewCoordinator(act).ProcessFresh(fresh, request(true, "AAA-1111", "BBB-2222"))

	if reads != 2 {
		t.Fatalf("reads=%d", reads)
	}
	if len(records) != 2 || records[0].Outcome != internal.RemovalDeleted || records[1].Outcome != internal.RemovalDeleted {
		t.Fatalf("records=%+v", records)
	}
	want := []string{"click button del-a", "settle", "click button del-b", "settle", "reload"}
	if fmt.Sprint(act.calls) != fmt.Sprint(want) {
		t.Fatalf("calls=%v", act.calls)
	}
}

func TestProcessFreshRereadFailure(t *testing.T) {
	fresh := func() (*goquery.Document, error) {
		return nil, fmt.Errorf("page gone")
	}
	act := &recordingActuator{}
	records := NewCoordinator(act).ProcessFresh(fresh, request(false, "AAA-1111"))

	if len(records) != 1 || records[0].Outcome != internal.RemovalNotFound {
		t.Fatalf("records=%+v", records)
	}
	if len(act.calls) != 0 {
		t.Fatalf("calls=%v", act.calls)
	}
}

func TestScriptTextDoesNotAnchorContainer(t *testing.T) {
	doc := docFrom(t, `<html><body>
	  <div class="meta"><script type="application/ld+json">{"sku":"ABC-1234"}</script></div>
	  <div class="line"><span>ABC-1234</span></div>
	</body></html>`)
	n := FindItemContainer(doc, "ABC-1234")
	if n == nil {
		t.Fatalf("container not found")
	}
	if cls := attrVal(n, "class"); cls != "line" {
		t.Fatalf("anchored to %q", cls)
	}
}

func TestNearestContainerTag(t *testing.T) {
	doc := docFrom(t, `<html><body><table><tbody><tr class="row"><td><b>ABC-1234</b></td></tr></tbody></table></body></html>`)
	n := FindItemContainer(doc, "ABC-1234")
	if n == nil || n.Data != "tr" {
		t.Fatalf("node=%+v", n)
	}
}
