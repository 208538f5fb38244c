package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Price is an item price as stored. Numeric prices are the normal case;
// legacy documents may hold other values, which are kept and shown verbatim.
type Price struct {
	amount  float64
	numeric bool
	raw     any
}

// NumericPrice returns a numeric price.
func NumericPrice(amount float64) Price {
	return Price{amount: amount, numeric: true, raw: amount}
}

// PriceFromValue builds a Price from a decoded document value.
func PriceFromValue(v any) Price {
	switch n := v.(type) {
	case float64:
		return finitePrice(n, v)
	case float32:
		return finitePrice(float64(n), v)
	case int:
		return NumericPrice(float64(n))
	case int32:
		return NumericPrice(float64(n))
	case int64:
		return NumericPrice(float64(n))
	case uint64:
		return NumericPrice(float64(n))
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return finitePrice(f, v)
		}
	}
	return Price{raw: v}
}

func finitePrice(f float64, raw any) Price {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Price{raw: raw}
	}
	return NumericPrice(f)
}

// Amount returns the numeric amount and whether the price is numeric.
func (p Price) Amount() (float64, bool) {
	return p.amount, p.numeric
}

// Display renders numeric prices with two decimals and anything else verbatim.
// A missing price renders as the empty string.
func (p Price) Display() string {
	if p.numeric {
		return strconv.FormatFloat(p.amount, 'f', 2, 64)
	}
	switch v := p.raw.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Raw returns the value suitable for writing back to a store.
func (p Price) Raw() any {
	if p.numeric {
		return p.amount
	}
	return p.raw
}

// MarshalJSON writes the price as stored: a number, or the legacy value.
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Raw())
}

// UnmarshalJSON accepts any JSON value.
func (p *Price) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = PriceFromValue(v)
	return nil
}
