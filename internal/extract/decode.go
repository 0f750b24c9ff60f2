package extract

import (
	"encoding/json"

	"cartscope/internal/util"
)

// External payloads mix types freely: identifiers arrive as strings or bare
// numbers, quantities as numbers or numeric strings. The flex types absorb
// both forms so extractor structs stay explicit about the fields they read.

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

func (f flexString) String() string { return string(f) }

type flexFloat struct {
	val *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		f.val = util.Finite(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f.val = util.ParseQuantity(s)
	}
	return nil
}

func (f flexFloat) Ptr() *float64 { return f.val }

// present reports whether raw carries an actual value.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// firstNonEmpty returns the first non-empty candidate string.
func firstNonEmpty(values ...flexString) string {
	for _, v := range values {
		if v != "" {
			return string(v)
		}
	}
	return ""
}
