// Package exception resolves which exception-scoped variant of a threshold or
// dosage definition applies to a pool.
//
// Conditions form a closed taxonomy. Each Kind has exactly one evaluator in
// the evaluators table and a fixed priority given by its position in Kinds.
package exception

import (
	"fmt"

	"github.com/shopspring/decimal"

	"poolchem/core/types"
)

// Kind identifies one condition axis
type Kind int

// Priority order: lower values are evaluated first.
const (
	CustomException Kind = iota
	PoolVolume
	PoolType
	Classification
	GroundLevel
	Location
	SurfaceType
	SanitiserClassification
	Sanitiser
	ResultValue
	EnabledModule
	PHReducer
	Algaecide
	Clarifier

	kindCount
)

var kindNames = [kindCount]string{
	CustomException:         "custom_exception",
	PoolVolume:              "pool_volume",
	PoolType:                "pool_type",
	Classification:          "classification",
	GroundLevel:             "ground_level",
	Location:                "location",
	SurfaceType:             "surface_type",
	SanitiserClassification: "sanitiser_classification",
	Sanitiser:               "sanitiser",
	ResultValue:             "result_value",
	EnabledModule:           "enabled_module",
	PHReducer:               "ph_reducer",
	Algaecide:               "algaecide",
	Clarifier:               "clarifier",
}

// Kinds returns every kind in priority order
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// String returns the catalog name of the kind
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a catalog name to a Kind
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown exception kind %q", name)
}

// Op is a numeric comparison operator
type Op string

const (
	OpLT      Op = "lt"
	OpLTE     Op = "lte"
	OpGT      Op = "gt"
	OpGTE     Op = "gte"
	OpEQ      Op = "eq"
	OpBetween Op = "between"
)

// Comparison is a numeric test against a bound (or an inclusive band for between)
type Comparison struct {
	Op    Op              `json:"op"`
	Value decimal.Decimal `json:"value"`
	Upper decimal.Decimal `json:"upper,omitempty"`
}

// Holds reports whether x satisfies the comparison
func (c Comparison) Holds(x decimal.Decimal) bool {
	switch c.Op {
	case OpLT:
		return x.LessThan(c.Value)
	case OpLTE:
		return x.LessThanOrEqual(c.Value)
	case OpGT:
		return x.GreaterThan(c.Value)
	case OpGTE:
		return x.GreaterThanOrEqual(c.Value)
	case OpEQ:
		return x.Equal(c.Value)
	case OpBetween:
		return x.GreaterThanOrEqual(c.Value) && x.LessThanOrEqual(c.Upper)
	default:
		return false
	}
}

// Validate checks the operator and bounds
func (c Comparison) Validate() error {
	switch c.Op {
	case OpLT, OpLTE, OpGT, OpGTE, OpEQ:
		return nil
	case OpBetween:
		if c.Upper.LessThan(c.Value) {
			return fmt.Errorf("between: upper %s is below lower %s", c.Upper, c.Value)
		}
		return nil
	default:
		return fmt.Errorf("unknown comparison operator %q", c.Op)
	}
}

// Condition is one tagged exception condition.
// IDs is used by the set-membership kinds and by the product kinds (optional filter),
// Compare by pool_volume and result_value, Module by enabled_module.
type Condition struct {
	Kind    Kind        `json:"kind"`
	IDs     []int       `json:"ids,omitempty"`
	Compare *Comparison `json:"compare,omitempty"`
	Module  string      `json:"module,omitempty"`
}

// Validate checks that the condition carries the operands its kind needs
func (c Condition) Validate() error {
	if c.Kind < 0 || c.Kind >= kindCount {
		return fmt.Errorf("unknown exception kind %d", int(c.Kind))
	}
	switch c.Kind {
	case PoolVolume, ResultValue:
		if c.Compare == nil {
			return fmt.Errorf("%s requires a comparison", c.Kind)
		}
		return c.Compare.Validate()
	case EnabledModule:
		if c.Module == "" {
			return fmt.Errorf("%s requires a module name", c.Kind)
		}
	case PHReducer, Algaecide, Clarifier:
		// ids optional
	default:
		if len(c.IDs) == 0 {
			return fmt.Errorf("%s requires at least one id", c.Kind)
		}
	}
	return nil
}

// Facts is everything a condition may be evaluated against
type Facts struct {
	Pool     types.PoolSpecs
	Products types.ProductSpecs

	// Value is the current measurement; HasValue is false when there is no reading
	Value    decimal.Decimal
	HasValue bool
}

// WithValue returns a copy of f carrying the given measurement
func (f Facts) WithValue(v decimal.Decimal) Facts {
	f.Value = v
	f.HasValue = true
	return f
}

type evaluator func(c Condition, f Facts) bool

var evaluators = [kindCount]evaluator{
	CustomException: func(c Condition, f Facts) bool { return inIDs(c.IDs, f.Pool.Pool.CustomExceptionID) },
	PoolVolume:      func(c Condition, f Facts) bool { return c.Compare.Holds(f.Pool.Pool.Volume) },
	PoolType:        func(c Condition, f Facts) bool { return inIDs(c.IDs, f.Pool.Pool.PoolTypeID) },
	Classification:  func(c Condition, f Facts) bool { return inIDs(c.IDs, f.Pool.Pool.ClassificationID) },
	GroundLevel:     func(c Condition, f Facts) bool { return inIDs(c.IDs, f.Pool.Pool.GroundLevelID) },
	Location:        func(c Condition, f Facts) bool { return inIDs(c.IDs, f.Pool.Pool.LocationID) },
	SurfaceType:     func(c Condition, f Facts) bool { return inIDs(c.IDs, f.Pool.Pool.SurfaceTypeID) },
	SanitiserClassification: func(c Condition, f Facts) bool {
		return f.Pool.HasSanitiserClassification(c.IDs)
	},
	Sanitiser:     func(c Condition, f Facts) bool { return f.Pool.HasSanitiser(c.IDs) },
	ResultValue:   func(c Condition, f Facts) bool { return f.HasValue && c.Compare.Holds(f.Value) },
	EnabledModule: func(c Condition, f Facts) bool { return f.Pool.HasModule(c.Module) },
	PHReducer:     func(c Condition, f Facts) bool { return f.Products.HasCategory(types.ProductPHReducer, c.IDs) },
	Algaecide:     func(c Condition, f Facts) bool { return f.Products.HasCategory(types.ProductAlgaecide, c.IDs) },
	Clarifier:     func(c Condition, f Facts) bool { return f.Products.HasCategory(types.ProductClarifier, c.IDs) },
}

// Satisfied evaluates the condition. Invalid conditions are never satisfied.
func (c Condition) Satisfied(f Facts) bool {
	if c.Validate() != nil {
		return false
	}
	return evaluators[c.Kind](c, f)
}

// inIDs treats a zero pool attribute as unset, so it never matches
func inIDs(ids []int, v int) bool {
	if v == 0 {
		return false
	}
	for _, id := range ids {
		if id == v {
			return true
		}
	}
	return false
}

// AllSatisfied reports whether every condition holds. An empty list holds.
func AllSatisfied(conds []Condition, f Facts) bool {
	for _, c := range conds {
		if !c.Satisfied(f) {
			return false
		}
	}
	return true
}
