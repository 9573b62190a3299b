// Package catalog - Catalog validation
// Ensures catalog integrity before any job is built from it.
package catalog

import (
	stderrors "errors"
	"fmt"

	"poolchem/core/derive"
	"poolchem/core/exception"
	"poolchem/core/types"
	"poolchem/core/units"
	"poolchem/internal/errors"
)

// ValidationRule is a catalog validation rule
type ValidationRule func(*Catalog) []error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateUniqueIdentities,
		validateRanges,
		validateAutoCalculated,
		validateApplicability,
		validateRecommendations,
	}
}

// Validate checks a catalog against validation rules
func (c *Catalog) Validate(rules []ValidationRule) []error {
	var errs []error
	for _, rule := range rules {
		errs = append(errs, rule(c)...)
	}
	return errs
}

// Check runs the default rules and folds every problem into one error.
// A missing default variant keeps its UNRESOLVED_EXCEPTION type in the tree.
func (c *Catalog) Check() error {
	errs := c.Validate(DefaultValidationRules())
	if len(errs) == 0 {
		return nil
	}
	return errors.Wrapf(errors.TypeCatalog, stderrors.Join(errs...), "catalog has %d problem(s)", len(errs))
}

func validateUniqueIdentities(c *Catalog) []error {
	var errs []error
	testIDs := make(map[int]bool)
	keys := make(map[string]bool)
	for _, t := range c.chemical {
		if t.Test.ID <= 0 {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "chemical test %q: id must be positive", t.Test.Key))
		}
		if testIDs[t.Test.ID] {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "duplicate chemical test id %d", t.Test.ID))
		}
		if keys[t.Test.Key] {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "duplicate test key %q", t.Test.Key))
		}
		testIDs[t.Test.ID] = true
		keys[t.Test.Key] = true
	}

	obsIDs := make(map[int]bool)
	for _, t := range c.observation {
		if t.Test.ID <= 0 {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "observation test %q: id must be positive", t.Test.Key))
		}
		if obsIDs[t.Test.ID] {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "duplicate observation test id %d", t.Test.ID))
		}
		if keys[t.Test.Key] {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "duplicate test key %q", t.Test.Key))
		}
		obsIDs[t.Test.ID] = true
		keys[t.Test.Key] = true
	}

	groupIDs := make(map[int]bool)
	for _, g := range c.groups {
		if g.ID <= 0 {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "dosage group %q: id must be positive", g.Key))
		}
		if groupIDs[g.ID] {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "duplicate dosage group id %d", g.ID))
		}
		if g.Kind != types.KindChemical && g.Kind != types.KindObservation {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "dosage group %q: unknown kind %q", g.Key, g.Kind))
		}
		groupIDs[g.ID] = true
	}
	return errs
}

func validateRanges(c *Catalog) []error {
	var errs []error
	for _, t := range c.chemical {
		if err := exception.CheckDefaults(t.Ranges); err != nil {
			errs = append(errs, errors.Wrapf(errors.TypeOf(err), err, "test %q ranges", t.Test.Key))
		}
		for i, v := range t.Ranges {
			r := v.Value
			if r.Min.GreaterThan(r.Max) {
				errs = append(errs, errors.Newf(errors.TypeCatalog, "test %q range %d: min %s above max %s", t.Test.Key, i, r.Min, r.Max))
			}
			if r.Target.LessThan(r.Min) || r.Target.GreaterThan(r.Max) {
				errs = append(errs, errors.Newf(errors.TypeCatalog, "test %q range %d: target %s outside %s", t.Test.Key, i, r.Target, r))
			}
			for _, cond := range v.Conditions {
				if cond.Kind == exception.ResultValue {
					errs = append(errs, errors.Newf(errors.TypeCatalog, "test %q range %d: result_value cannot scope a range", t.Test.Key, i))
					continue
				}
				if err := cond.Validate(); err != nil {
					errs = append(errs, errors.Wrapf(errors.TypeCatalog, err, "test %q range %d", t.Test.Key, i))
				}
			}
		}
	}
	return errs
}

func validateAutoCalculated(c *Catalog) []error {
	var errs []error
	formulas := make(map[string]derive.Formula)
	for _, f := range derive.Builtin() {
		formulas[f.Key] = f
	}
	keys := make(map[string]bool)
	for _, t := range c.chemical {
		keys[t.Test.Key] = true
	}
	for _, t := range c.chemical {
		f, hasFormula := formulas[t.Test.Key]
		switch {
		case t.Test.AutoCalculated && !hasFormula:
			errs = append(errs, errors.Newf(errors.TypeCatalog, "test %q is auto-calculated but has no formula", t.Test.Key))
		case !t.Test.AutoCalculated && hasFormula:
			errs = append(errs, errors.Newf(errors.TypeCatalog, "test %q has a formula and must be auto_calculated", t.Test.Key))
		case hasFormula:
			for _, in := range f.Inputs {
				if !keys[in] {
					errs = append(errs, errors.Newf(errors.TypeCatalog, "test %q reads %q which is not in the catalog", t.Test.Key, in))
				}
			}
		}
	}
	return errs
}

func validateApplicability(c *Catalog) []error {
	var errs []error
	check := func(key string, conds []exception.Condition) {
		for _, cond := range conds {
			if cond.Kind == exception.ResultValue {
				errs = append(errs, errors.Newf(errors.TypeCatalog, "test %q: result_value cannot scope applicability", key))
				continue
			}
			if err := cond.Validate(); err != nil {
				errs = append(errs, errors.Wrapf(errors.TypeCatalog, err, "test %q applicability", key))
			}
		}
	}
	for _, t := range c.chemical {
		check(t.Test.Key, t.AppliesWhen)
	}
	for _, t := range c.observation {
		check(t.Test.Key, t.AppliesWhen)
	}
	return errs
}

func validateRecommendations(c *Catalog) []error {
	var errs []error
	seen := make(map[string]bool)
	for i, r := range c.recommendations {
		where := fmt.Sprintf("recommendation %d (%s test %d, group %d)", i, r.Kind, r.TestID, r.GroupID)

		switch r.Kind {
		case types.KindChemical:
			if _, ok := c.ChemicalTest(r.TestID); !ok {
				errs = append(errs, errors.Newf(errors.TypeCatalog, "%s: unknown chemical test", where))
			}
			if r.Trigger != types.TriggerLow && r.Trigger != types.TriggerHigh {
				errs = append(errs, errors.Newf(errors.TypeCatalog, "%s: chemical trigger must be low or high, got %q", where, r.Trigger))
			}
		case types.KindObservation:
			if _, ok := c.ObservationTest(r.TestID); !ok {
				errs = append(errs, errors.Newf(errors.TypeCatalog, "%s: unknown observation test", where))
			}
			if r.Trigger != types.TriggerPresent {
				errs = append(errs, errors.Newf(errors.TypeCatalog, "%s: observation trigger must be present, got %q", where, r.Trigger))
			}
		default:
			errs = append(errs, errors.Newf(errors.TypeCatalog, "%s: unknown kind", where))
		}

		g, ok := c.Group(r.GroupID)
		if !ok {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "%s: unknown dosage group", where))
		} else if g.Kind != r.Kind {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "%s: group %q is a %s group", where, g.Key, g.Kind))
		}

		dedup := fmt.Sprintf("%s/%d/%d/%s", r.Kind, r.TestID, r.GroupID, r.Trigger)
		if seen[dedup] {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "%s: duplicate for trigger %s", where, r.Trigger))
		}
		seen[dedup] = true

		if r.Action == "" {
			errs = append(errs, errors.Newf(errors.TypeCatalog, "%s: action text is required", where))
		}
		if len(r.Dosages) == 0 {
			continue
		}
		if err := exception.CheckDefaults(r.Dosages); err != nil {
			errs = append(errs, errors.Wrapf(errors.TypeOf(err), err, "%s dosages", where))
		}
		for j, v := range r.Dosages {
			if err := validateDosage(v.Value); err != nil {
				errs = append(errs, errors.Wrapf(errors.TypeOf(err), err, "%s dosage %d", where, j))
			}
			if r.Kind == types.KindObservation && v.Value.Basis == types.BasisPerDeviation {
				errs = append(errs, errors.Newf(errors.TypeCatalog, "%s dosage %d: observations have no value to deviate from", where, j))
			}
			for _, cond := range v.Conditions {
				if err := cond.Validate(); err != nil {
					errs = append(errs, errors.Wrapf(errors.TypeCatalog, err, "%s dosage %d", where, j))
				}
			}
		}
	}
	return errs
}

func validateDosage(d types.Dosage) error {
	if _, ok := units.Lookup(d.Unit); !ok {
		return errors.UnsupportedUnit(d.Unit, "")
	}
	if d.Amount.IsNegative() {
		return errors.Newf(errors.TypeCatalog, "negative amount %s", d.Amount)
	}
	switch d.Basis {
	case types.BasisFixed:
	case types.BasisPerVolume:
		if !d.PerLitres.IsPositive() {
			return errors.Newf(errors.TypeCatalog, "per_volume basis requires positive per_litres")
		}
	case types.BasisPerDeviation:
		if !d.PerLitres.IsPositive() || !d.Step.IsPositive() {
			return errors.Newf(errors.TypeCatalog, "per_deviation basis requires positive per_litres and step")
		}
	default:
		return errors.Newf(errors.TypeCatalog, "unknown dosage basis %q", d.Basis)
	}
	return nil
}

// CheckProducts verifies that every dosage bound to an available product can
// be converted into that product's metric unit.
func (c *Catalog) CheckProducts(products types.ProductSpecs) error {
	var errs []error
	for _, p := range products.Products {
		if p.MetricID == 0 {
			continue
		}
		m, ok := products.Metric(p.MetricID)
		if !ok {
			errs = append(errs, errors.NotFound("metric", p.MetricID).WithContext("product", p.ID))
			continue
		}
		if _, ok := units.Lookup(m.Unit); !ok {
			errs = append(errs, errors.UnsupportedUnit(m.Unit, "").WithContext("metric", m.ID))
		}
	}
	for _, r := range c.recommendations {
		for _, v := range r.Dosages {
			target := products.ProductUnit(v.Value.ProductID)
			if v.Value.ProductID == 0 || target == "" {
				continue
			}
			if !units.Compatible(v.Value.Unit, target) {
				errs = append(errs, errors.UnsupportedUnit(v.Value.Unit, target).
					WithContext("test", r.TestID).
					WithContext("group", r.GroupID).
					WithContext("product", v.Value.ProductID))
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Wrap(errors.TypeUnsupportedUnit, "product units do not match catalog dosages", stderrors.Join(errs...))
}
