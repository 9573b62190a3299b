// Package units converts dosage amounts between mass and volume units.
//
// Each unit is stored as "units per one canonical unit" of its dimension:
// grams for mass, litres for volume. Converting between two units of the same
// dimension is amount / factor(from) * factor(to).
package units

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"poolchem/internal/errors"
)

// Dimension is the physical quantity a unit measures
type Dimension string

const (
	Mass   Dimension = "mass"
	Volume Dimension = "volume"
)

// Unit is one row of the conversion table
type Unit struct {
	Symbol    string
	Dimension Dimension
	// PerCanonical is how many of this unit make one gram (mass) or one litre (volume)
	PerCanonical decimal.Decimal
}

var table = map[string]Unit{
	"g":  {Symbol: "g", Dimension: Mass, PerCanonical: decimal.NewFromInt(1)},
	"mg": {Symbol: "mg", Dimension: Mass, PerCanonical: decimal.NewFromInt(1000)},
	"kg": {Symbol: "kg", Dimension: Mass, PerCanonical: decimal.RequireFromString("0.001")},
	"oz": {Symbol: "oz", Dimension: Mass, PerCanonical: decimal.RequireFromString("0.03527396195")},
	"lb": {Symbol: "lb", Dimension: Mass, PerCanonical: decimal.RequireFromString("0.00220462262")},

	"l":     {Symbol: "l", Dimension: Volume, PerCanonical: decimal.NewFromInt(1)},
	"ml":    {Symbol: "ml", Dimension: Volume, PerCanonical: decimal.NewFromInt(1000)},
	"gal":   {Symbol: "gal", Dimension: Volume, PerCanonical: decimal.RequireFromString("0.26417205236")},
	"qt":    {Symbol: "qt", Dimension: Volume, PerCanonical: decimal.RequireFromString("1.05668820943")},
	"pt":    {Symbol: "pt", Dimension: Volume, PerCanonical: decimal.RequireFromString("2.11337641887")},
	"fl_oz": {Symbol: "fl_oz", Dimension: Volume, PerCanonical: decimal.RequireFromString("33.8140227018")},
}

var aliases = map[string]string{
	"gram": "g", "grams": "g",
	"kilogram": "kg", "kilograms": "kg",
	"ounce": "oz", "ounces": "oz",
	"lbs": "lb", "pound": "lb", "pounds": "lb",
	"litre": "l", "litres": "l", "liter": "l", "liters": "l", "lt": "l",
	"millilitre": "ml", "millilitres": "ml", "milliliter": "ml", "milliliters": "ml",
	"gallon": "gal", "gallons": "gal",
	"quart": "qt", "quarts": "qt",
	"pint": "pt", "pints": "pt",
	"fl oz": "fl_oz", "fl-oz": "fl_oz",
}

// Lookup returns the table row for a unit symbol or alias (case-insensitive)
func Lookup(symbol string) (Unit, bool) {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if canonical, ok := aliases[s]; ok {
		s = canonical
	}
	u, ok := table[s]
	return u, ok
}

// Normalize returns the canonical symbol for a unit
func Normalize(symbol string) (string, error) {
	u, ok := Lookup(symbol)
	if !ok {
		return "", errors.UnsupportedUnit(symbol, "")
	}
	return u.Symbol, nil
}

// Compatible reports whether amounts can be converted between the two units
func Compatible(from, to string) bool {
	f, ok := Lookup(from)
	if !ok {
		return false
	}
	t, ok := Lookup(to)
	return ok && f.Dimension == t.Dimension
}

// Convert converts amount from one unit to another
func Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	f, ok := Lookup(from)
	if !ok {
		return decimal.Zero, errors.UnsupportedUnit(from, to)
	}
	t, ok := Lookup(to)
	if !ok {
		return decimal.Zero, errors.UnsupportedUnit(from, to)
	}
	if f.Dimension != t.Dimension {
		return decimal.Zero, errors.UnsupportedUnit(from, to).
			WithContext("from_dimension", f.Dimension).
			WithContext("to_dimension", t.Dimension)
	}
	if f.Symbol == t.Symbol {
		return amount, nil
	}
	return amount.Div(f.PerCanonical).Mul(t.PerCanonical), nil
}

// Symbols lists supported canonical symbols, sorted
func Symbols() []string {
	out := make([]string, 0, len(table))
	for s := range table {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
