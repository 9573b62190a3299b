package derive

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Test keys read or written by the built-in formulas
const (
	KeyPH                 = "ph"
	KeyFreeChlorine       = "free_chlorine"
	KeyTotalChlorine      = "total_chlorine"
	KeyCombinedChlorine   = "combined_chlorine"
	KeyTotalAlkalinity    = "total_alkalinity"
	KeyCyanuricAcid       = "cyanuric_acid"
	KeyAdjustedAlkalinity = "adjusted_alkalinity"
	KeyCalciumHardness    = "calcium_hardness"
	KeyMagnesiumHardness  = "magnesium_hardness"
	KeyCalculatedHardness = "calculated_hardness"
	KeyTDS                = "tds"
	KeyTemperature        = "temperature"
	KeyLSI                = "lsi"
)

// Inputs carries the present input values of one formula evaluation.
// Keys missing from Values have no reading.
type Inputs struct {
	Values map[string]decimal.Decimal
	Units  map[string]string
}

func (in Inputs) get(key string) (decimal.Decimal, bool) {
	v, ok := in.Values[key]
	return v, ok
}

// Formula derives one test value from others
type Formula struct {
	Key    string
	Inputs []string
	// Compute returns false when the value cannot be derived from the inputs
	Compute func(in Inputs) (decimal.Decimal, bool)
}

var three = decimal.NewFromInt(3)

// Builtin returns the standard water-balance formulas
func Builtin() []Formula {
	return []Formula{
		{
			Key:    KeyCombinedChlorine,
			Inputs: []string{KeyTotalChlorine, KeyFreeChlorine},
			Compute: func(in Inputs) (decimal.Decimal, bool) {
				total, ok1 := in.get(KeyTotalChlorine)
				free, ok2 := in.get(KeyFreeChlorine)
				if !ok1 || !ok2 {
					return decimal.Zero, false
				}
				return decimal.Max(total.Sub(free), decimal.Zero), true
			},
		},
		{
			Key:    KeyAdjustedAlkalinity,
			Inputs: []string{KeyTotalAlkalinity, KeyCyanuricAcid},
			Compute: func(in Inputs) (decimal.Decimal, bool) {
				ta, ok1 := in.get(KeyTotalAlkalinity)
				cya, ok2 := in.get(KeyCyanuricAcid)
				if !ok1 || !ok2 {
					return decimal.Zero, false
				}
				adj := ta.Sub(cya.Div(three)).Round(2)
				return decimal.Max(adj, decimal.Zero), true
			},
		},
		{
			Key:    KeyCalculatedHardness,
			Inputs: []string{KeyCalciumHardness, KeyMagnesiumHardness},
			Compute: func(in Inputs) (decimal.Decimal, bool) {
				ca, ok1 := in.get(KeyCalciumHardness)
				mg, ok2 := in.get(KeyMagnesiumHardness)
				if !ok1 || !ok2 {
					return decimal.Zero, false
				}
				return ca.Add(mg), true
			},
		},
		{
			Key:     KeyLSI,
			Inputs:  []string{KeyPH, KeyCalciumHardness, KeyAdjustedAlkalinity, KeyTDS, KeyTemperature},
			Compute: computeLSI,
		},
	}
}

// computeLSI evaluates the Langelier Saturation Index:
//
//	pHs = (9.3 + A + B) - (C + D)
//	A = (log10(TDS) - 1) / 10
//	B = -13.12 * log10(T[°C] + 273) + 34.55
//	C = log10(calcium hardness) - 0.4
//	D = log10(adjusted alkalinity)
//	LSI = pH - pHs
func computeLSI(in Inputs) (decimal.Decimal, bool) {
	ph, ok1 := in.get(KeyPH)
	ca, ok2 := in.get(KeyCalciumHardness)
	alk, ok3 := in.get(KeyAdjustedAlkalinity)
	tds, ok4 := in.get(KeyTDS)
	temp, ok5 := in.get(KeyTemperature)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return decimal.Zero, false
	}

	celsius := temp.InexactFloat64()
	if isFahrenheit(in.Units[KeyTemperature]) {
		celsius = (celsius - 32) * 5 / 9
	}
	kelvin := celsius + 273
	caF, alkF, tdsF := ca.InexactFloat64(), alk.InexactFloat64(), tds.InexactFloat64()
	if caF <= 0 || alkF <= 0 || tdsF <= 0 || kelvin <= 0 {
		return decimal.Zero, false
	}

	a := (math.Log10(tdsF) - 1) / 10
	b := -13.12*math.Log10(kelvin) + 34.55
	c := math.Log10(caF) - 0.4
	d := math.Log10(alkF)
	phs := (9.3 + a + b) - (c + d)

	lsi := ph.InexactFloat64() - phs
	if math.IsNaN(lsi) || math.IsInf(lsi, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(lsi).Round(2), true
}

func isFahrenheit(unit string) bool {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "F", "°F", "DEGF", "FAHRENHEIT":
		return true
	}
	return false
}
