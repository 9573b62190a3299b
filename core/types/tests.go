// Package types defines the water-chemistry data model: reference tests,
// dosage groups, job-scoped results and the pool/product specifications
// that exceptions are resolved against.
package types

import "github.com/shopspring/decimal"

// TestKind separates numeric chemical tests from boolean observation tests
type TestKind string

const (
	KindChemical    TestKind = "chemical"
	KindObservation TestKind = "observation"
)

// ChemicalTest is immutable reference data for one numeric measurement
type ChemicalTest struct {
	ID             int    `json:"id"`
	Key            string `json:"key"`
	Name           string `json:"name"`
	Unit           string `json:"unit,omitempty"`
	IsDefault      bool   `json:"is_default"`
	AutoCalculated bool   `json:"auto_calculated,omitempty"`
}

// ObservationTest is immutable reference data for one presence/absence check
type ObservationTest struct {
	ID        int    `json:"id"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// Range is the resolved acceptable band of a chemical test
type Range struct {
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	Target decimal.Decimal `json:"target"`
}

// Classify compares value against the range
func (r Range) Classify(value decimal.Decimal) Status {
	switch {
	case value.LessThan(r.Min):
		return StatusLow
	case value.GreaterThan(r.Max):
		return StatusHigh
	default:
		return StatusGood
	}
}

// String renders "min - max"
func (r Range) String() string {
	return r.Min.String() + " - " + r.Max.String()
}

// DosageGroup is one named remediation strategy
type DosageGroup struct {
	ID   int      `json:"id"`
	Key  string   `json:"key"`
	Name string   `json:"name"`
	Kind TestKind `json:"kind"`
}

// DosageBasis controls how a dosage amount scales
type DosageBasis string

const (
	// BasisFixed uses the amount as is
	BasisFixed DosageBasis = "fixed"
	// BasisPerVolume scales by pool volume / PerLitres
	BasisPerVolume DosageBasis = "per_volume"
	// BasisPerDeviation additionally scales by |target - value| / Step
	BasisPerDeviation DosageBasis = "per_deviation"
)

// Dosage is one exception-scoped dosing rule of a recommendation
type Dosage struct {
	Amount    decimal.Decimal `json:"amount"`
	Unit      string          `json:"unit"`
	ProductID int             `json:"product_id,omitempty"`
	Basis     DosageBasis     `json:"basis"`
	PerLitres decimal.Decimal `json:"per_litres,omitempty"`
	Step      decimal.Decimal `json:"step,omitempty"`
}
