package extract

import (
	"encoding/json"

	"cartscope/internal/page"
)

// analyticsExtractor scans the page's e-commerce tracking event log
// (dataLayer). The log is host-owned and may not exist; absence and shape
// mismatches are skipped silently.

type analyticsEvent struct {
	Ecommerce *ecommercePayload `json:"ecommerce"`
	Items     json.RawMessage   `json:"items"`
}

type ecommercePayload struct {
	Cart     json.RawMessage  `json:"cart"`
	Items    json.RawMessage  `json:"items"`
	Add      *productsPayload `json:"add"`
	Checkout *productsPayload `json:"checkout"`
	Purchase *productsPayload `json:"purchase"`
}

type productsPayload struct {
	Products json.RawMessage `json:"products"`
}

type analyticsItem struct {
	ItemID   flexString `json:"item_id"`
	ID       flexString `json:"id"`
	SKU      flexString `json:"sku"`
	ItemName string     `json:"item_name"`
	Name     string     `json:"name"`
	Quantity flexFloat  `json:"quantity"`
}

func extractAnalytics(snap *page.Snapshot, set *CandidateSet) {
	raw := snap.Global(page.GlobalDataLayer)
	if raw == nil {
		return
	}
	var events []json.RawMessage
	if err := json.Unmarshal(raw, &events); err != nil {
		return
	}

	for _, rawEvent := range events {
		var event analyticsEvent
		if err := json.Unmarshal(rawEvent, &event); err != nil {
			continue
		}
		listRaw := resolveCartList(event)
		if listRaw == nil {
			continue
		}
		var items []analyticsItem
		if err := json.Unmarshal(listRaw, &items); err != nil {
			continue
		}
		for _, item := range items {
			id := firstNonEmpty(item.ItemID, item.ID, item.SKU)
			if id == "" {
				continue
			}
			var namePtr *string
			if name := pickName(item.ItemName, item.Name); name != "" {
				namePtr = &name
			}
			set.Admit(id, namePtr, item.Quantity.Ptr())
		}
	}
}

// resolveCartList picks the first cart-like payload present on an event:
// dedicated cart container, generic items list, nested product lists under
// the add/checkout/purchase actions, then a top-level items field.
func resolveCartList(event analyticsEvent) json.RawMessage {
	if ec := event.Ecommerce; ec != nil {
		if present(ec.Cart) {
			return ec.Cart
		}
		if present(ec.Items) {
			return ec.Items
		}
		if ec.Add != nil && present(ec.Add.Products) {
			return ec.Add.Products
		}
		if ec.Checkout != nil && present(ec.Checkout.Products) {
			return ec.Checkout.Products
		}
		if ec.Purchase != nil && present(ec.Purchase.Products) {
			return ec.Purchase.Products
		}
	}
	if present(event.Items) {
		return event.Items
	}
	return nil
}

func pickName(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
