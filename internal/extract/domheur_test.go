package extract

import "testing"

func TestDOMCodeMarkerPass(t *testing.T) {
	html := `<html><body>
	  <div data-sku="ATTR-001">irrelevant text</div>
	  <span class="sku">XZ99-1</span>
	  <li data-product-id="PID-003"></li>
	  <p class="artikelnummer">not a valid token!</p>
	</body></html>`
	set := NewCandidateSet(0)
	extractDOMHeuristics(snapFromHTML(t, html), set)

	ids := set.Identifiers()
	if len(ids) != 3 || ids[0] != "ATTR-001" || ids[1] != "XZ99-1" || ids[2] != "PID-003" {
		t.Fatalf("ids=%v", ids)
	}
	if len(set.Names()) != 0 {
		t.Fatalf("names=%v", set.Names())
	}
}

func TestDOMCartRegionPass(t *testing.T) {
	html := `<html><body>
	  <div class="cart-list">
	    <table><tr class="line"><td>AB-1234</td><td>Some product name</td></tr></table>
	  </div>
	  <div id="checkoutSummary"><span>CHK.99-X</span></div>
	  <div class="unrelated"><span>ZZ-9999</span></div>
	</body></html>`
	set := NewCandidateSet(0)
	extractDOMHeuristics(snapFromHTML(t, html), set)

	ids := set.Identifiers()
	if len(ids) != 2 || ids[0] != "AB-1234" || ids[1] != "CHK.99-X" {
		t.Fatalf("ids=%v", ids)
	}
}

func TestDOMCartRegionStricterShape(t *testing.T) {
	// admission shape would allow a leading dash, the cart-region pass must not
	html := `<html><body><div class="cart">
	  <span>-AB-1234</span>
	  <span>OK-1234</span>
	</div></body></html>`
	set := NewCandidateSet(0)
	extractDOMHeuristics(snapFromHTML(t, html), set)

	ids := set.Identifiers()
	if len(ids) != 1 || ids[0] != "OK-1234" {
		t.Fatalf("ids=%v", ids)
	}
}
