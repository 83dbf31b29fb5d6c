package proposal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PricingRow is one line of the pricing breakdown.
type PricingRow struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
}

// UnmarshalJSON accepts both the object form and the legacy
// [description, qty, price] triple.
func (r *PricingRow) UnmarshalJSON(b []byte) error {
	var triple []json.RawMessage
	if err := json.Unmarshal(b, &triple); err == nil {
		cells := make([]string, 3)
		for i := 0; i < len(triple) && i < 3; i++ {
			cells[i] = scalarString(triple[i])
		}
		*r = PricingRow{Description: cells[0], Quantity: cells[1], Price: cells[2]}
		return nil
	}
	type plain PricingRow
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("pricing row: %w", err)
	}
	*r = PricingRow(p)
	return nil
}

func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// Amount parses the price, ignoring currency symbols and separators. Prices
// that do not parse count as zero.
func (r PricingRow) Amount() float64 {
	var b strings.Builder
	for _, c := range r.Price {
		if (c >= '0' && c <= '9') || c == '.' {
			b.WriteRune(c)
		}
	}
	s := b.String()
	if i := strings.Index(s, "."); i >= 0 {
		if j := strings.Index(s[i+1:], "."); j >= 0 {
			s = s[:i+1+j]
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Total sums the row prices and formats the result with two decimals.
func Total(rows []PricingRow) string {
	var total float64
	for _, r := range rows {
		total += r.Amount()
	}
	return strconv.FormatFloat(total, 'f', 2, 64)
}
