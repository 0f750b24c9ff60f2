package internal

// CartItem is one raw observation of a cart line. Observations are kept
// per-source even when the identifier repeats, so downstream matching can
// disambiguate later.
type CartItem struct {
	Identifier string   `json:"identifier"`
	Name       *string  `json:"name,omitempty"`
	Qty        *float64 `json:"quantity,omitempty"`
}

type ExtractResult struct {
	Identifiers []string   `json:"identifiers"`
	Names       []string   `json:"names"`
	Items       []CartItem `json:"items,omitempty"`
}

func (r ExtractResult) Empty() bool {
	return len(r.Identifiers) == 0 && len(r.Names) == 0
}

type RemovalItem struct {
	Identifier string   `json:"identifier"`
	Qty        *float64 `json:"quantity,omitempty"`
}

type RemovalRequest struct {
	Items  []RemovalItem `json:"items"`
	Reload bool          `json:"reload"`
}

type RemovalOutcome string

const (
	// RemovalDeleted: a per-line delete control was invoked.
	RemovalDeleted RemovalOutcome = "deleted"
	// RemovalQtyZeroed: quantity forced to zero and the update control invoked.
	RemovalQtyZeroed RemovalOutcome = "qty_zeroed"
	// RemovalHidden: no compatible affordance, the container was only hidden.
	// The line item is still present server-side.
	RemovalHidden RemovalOutcome = "hidden"
	// RemovalNotFound: no DOM representation of the identifier was located.
	RemovalNotFound RemovalOutcome = "not_found"
)

type RemovalRecord struct {
	Identifier string         `json:"identifier"`
	Outcome    RemovalOutcome `json:"outcome"`
	Detail     string         `json:"detail,omitempty"`
}

type RunRow struct {
	ID          int
	TraceID     string
	PageURL     string
	Identifiers []string
	Names       []string
	ItemCount   int
	CreatedAt   string
}

type RunExportRow struct {
	Position   int
	Identifier string
	Name       *string
	Qty        *float64
	Outcome    *string
	Detail     *string
}

// Payload shapes of the external inventory service. Field names follow its
// wire contract and are consumed, not defined, here.

type BulkCheckRequest struct {
	Artikelnummern []string `json:"artikelnummern"`
	Namen          []string `json:"namen"`
}

type StockPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type BulkCheckHit struct {
	Name          *string        `json:"name"`
	Quelle        string         `json:"quelle"`
	Artikelnummer *string        `json:"artikelnummer"`
	Menge         *float64       `json:"menge"`
	Position      *StockPosition `json:"position"`
}

type BulkCheckResult struct {
	Hits     []BulkCheckHit `json:"hits"`
	NotFound []string       `json:"not_found"`
}

type ReservationItem struct {
	Artikelnummer string   `json:"artikelnummer"`
	Menge         *float64 `json:"menge,omitempty"`
}

type ReservationResult struct {
	Reserved []ReservationItem `json:"reserviert"`
}
