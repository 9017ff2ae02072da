// Package pricing holds the wood pricing engine and the document totals
// calculator. Every function here is pure and total: malformed or missing
// numeric input degrades to zero instead of returning an error, so a
// half-filled line prices as 0 and stays visible to the user for correction.
package pricing

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds for numeric input. Nothing outside them fits the amount and
// dimension columns, and an unbounded exponent makes every later Add or
// Round rescale through a huge power of ten.
const (
	maxLargoTexto = 64
	maxEscala     = 40
	escala        = 8
	maxEnteros    = 15
)

var (
	cien = decimal.NewFromInt(100)
	half = decimal.NewFromFloat(0.5)
	uno  = decimal.NewFromInt(1)
)

// ToNumber coerces v into a decimal. Strings accept a comma as decimal
// separator ("12,5" == 12.5). nil, empty strings, unparseable text,
// non-finite floats and values outside Acotar's range all yield zero.
func ToNumber(v any) decimal.Decimal {
	d, _ := Acotar(toDecimal(v))
	return d
}

// Acotar rounds d to 8 decimal places and reports false, returning zero,
// when d has more than 15 integer digits or a scale beyond 40 places. The
// exponent is checked before any arithmetic touches the coefficient.
func Acotar(d decimal.Decimal) (decimal.Decimal, bool) {
	e := d.Exponent()
	if e < -maxEscala || e > maxEnteros {
		return decimal.Zero, false
	}
	if e < -escala {
		d = d.Round(escala)
	}
	if d.IsZero() {
		return decimal.Zero, true
	}
	if int64(d.NumDigits())+int64(d.Exponent()) > maxEnteros {
		return decimal.Zero, false
	}
	return d, true
}

func toDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero
		}
		return *n
	case string:
		return parseString(n)
	case json.Number:
		return parseString(n.String())
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case uint32:
		return decimal.NewFromInt(int64(n))
	default:
		return decimal.Zero
	}
}

func parseString(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || len(s) > maxLargoTexto {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Round rounds to the nearest integer with halves going up (2.5 -> 3,
// -2.5 -> -2), the rule every aggregate in this package uses.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// RoundToHundreds is the business rounding policy: prices are quoted in
// round hundreds of local currency.
func RoundToHundreds(d decimal.Decimal) decimal.Decimal {
	return Round(d.Div(cien)).Mul(cien)
}

func redondeo(d decimal.Decimal, sinRedondeo bool) decimal.Decimal {
	if sinRedondeo {
		return d
	}
	return RoundToHundreds(d)
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
