package engine

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"poolchem/core/derive"
	"poolchem/core/types"
	"poolchem/internal/errors"
)

// RecommendationChange is an operator override of one result's recommendation
type RecommendationChange struct {
	// GroupID pins a dosage group; 0 unpins and returns to automatic selection
	GroupID int

	ShowOnReport   bool
	CustomerAction string
}

// ProcessChemicalValue records a reading ("" clears it), reclassifies the
// result, re-resolves its recommendations and recomputes every derived
// value that depends on it.
func (e *Engine) ProcessChemicalValue(testID int, raw string) (types.Results, error) {
	return e.mutate(func(next *types.Results) error {
		idx, err := e.chemicalAt(testID)
		if err != nil {
			return err
		}
		r := &next.Chemical[idx]
		if r.AutoCalculated {
			return errors.Newf(errors.TypeAutoCalculated, "%q is derived from other readings and cannot be written", r.Key).
				WithContext("test_id", testID)
		}
		if !r.Enabled {
			return errors.Newf(errors.TypeInput, "%q is disabled", r.Key).WithContext("test_id", testID)
		}
		v, err := normalizeValue(raw)
		if err != nil {
			return errors.Wrapf(errors.TypeInput, err, "value for %q", r.Key)
		}
		r.Value = v
		if err := e.evaluateChemical(next, idx); err != nil {
			return err
		}
		return e.cascade(next, r.Key)
	})
}

// ChangeChemicalRecommendation applies an operator override. A pinned group
// survives later value edits; show_on_report and customer_action edits do too.
func (e *Engine) ChangeChemicalRecommendation(testID int, change RecommendationChange) (types.Results, error) {
	return e.mutate(func(next *types.Results) error {
		idx, err := e.chemicalAt(testID)
		if err != nil {
			return err
		}
		r := &next.Chemical[idx]
		if !r.Enabled {
			return errors.Newf(errors.TypeInput, "%q is disabled", r.Key).WithContext("test_id", testID)
		}
		if change.GroupID != 0 && !e.catalog.HasGroupFor(types.KindChemical, testID, change.GroupID) {
			return errors.Wrap(errors.TypeInput, "pin dosage group for "+r.Key,
				errors.NotFound("dosage group", change.GroupID))
		}
		r.PinnedGroupID = change.GroupID
		r.ShowOnReport = change.ShowOnReport
		r.SelectedGroupID = selectGroup(r.Recommendations, r.PinnedGroupID)

		sel, _ := r.Selected()
		r.CustomerAction = change.CustomerAction
		r.CustomerActionEdited = change.CustomerAction != sel.CustomAction
		return nil
	})
}

// SetChemicalEnabled adds a test to or removes it from the active panel.
// Disabling keeps the result's state so re-enabling restores it; re-enabling
// re-resolves the range and recomputes the result.
func (e *Engine) SetChemicalEnabled(testID int, enabled bool) (types.Results, error) {
	return e.mutate(func(next *types.Results) error {
		idx, err := e.chemicalAt(testID)
		if err != nil {
			return err
		}
		r := &next.Chemical[idx]
		if !enabled && r.IsDefault {
			return errors.Newf(errors.TypeInput, "%q is a default test and cannot be disabled", r.Key).
				WithContext("test_id", testID)
		}
		if r.Enabled == enabled {
			return nil
		}
		r.Enabled = enabled
		if enabled {
			def, _ := e.catalog.ChemicalTest(testID)
			rng, err := e.resolveRange(def)
			if err != nil {
				return err
			}
			r.Range = rng
			e.derive(next, idx)
			if err := e.evaluateChemical(next, idx); err != nil {
				return err
			}
		}
		return e.cascade(next, r.Key)
	})
}

func (e *Engine) chemicalAt(testID int) (int, error) {
	idx, ok := e.chemicalIndex[testID]
	if !ok {
		return 0, errors.Wrap(errors.TypeInput, "unknown result", errors.NotFound("chemical result", testID))
	}
	return idx, nil
}

// cascade recomputes every derived value reachable from key, inputs first
func (e *Engine) cascade(res *types.Results, key string) error {
	for _, dep := range e.graph.Dependents(key) {
		idx, ok := e.chemicalKeys[dep]
		if !ok {
			continue
		}
		before := res.Chemical[idx].Value
		e.derive(res, idx)
		if err := e.evaluateChemical(res, idx); err != nil {
			return err
		}
		e.logger.Debug("recomputed derived value",
			zap.String("trigger", key),
			zap.String("test", dep),
			zap.String("before", before),
			zap.String("after", res.Chemical[idx].Value))
	}
	return nil
}

// derive recomputes an enabled auto-calculated result. Inputs that are
// missing, disabled or outside the job leave the value empty.
func (e *Engine) derive(res *types.Results, idx int) {
	r := &res.Chemical[idx]
	f, ok := e.formulas[r.Key]
	if !ok || !r.AutoCalculated || !r.Enabled {
		return
	}
	in := derive.Inputs{
		Values: make(map[string]decimal.Decimal, len(f.Inputs)),
		Units:  make(map[string]string, len(f.Inputs)),
	}
	for _, key := range f.Inputs {
		i, ok := e.chemicalKeys[key]
		if !ok {
			continue
		}
		src := res.Chemical[i]
		if !src.Enabled {
			continue
		}
		if v, ok := src.Decimal(); ok {
			in.Values[key] = v
			in.Units[key] = src.Unit
		}
	}
	if v, ok := f.Compute(in); ok {
		r.Value = v.String()
	} else {
		r.Value = ""
	}
}

// evaluateChemical classifies an enabled result and resolves its
// recommendations. Disabled results are left exactly as they are.
func (e *Engine) evaluateChemical(res *types.Results, idx int) error {
	r := &res.Chemical[idx]
	if !r.Enabled {
		return nil
	}
	r.Status = types.StatusNone
	r.Recommendations = nil

	if v, ok := r.Decimal(); ok {
		r.Status = r.Range.Classify(v)
		if trigger, fires := r.Status.Trigger(); fires {
			rng := r.Range
			recs, err := e.recommendations(types.KindChemical, r.TestID, r.Key, trigger, &rng, e.facts.WithValue(v), r.Value)
			if err != nil {
				return err
			}
			r.Recommendations = recs
		}
	}

	r.SelectedGroupID = selectGroup(r.Recommendations, r.PinnedGroupID)
	if !r.CustomerActionEdited {
		sel, _ := r.Selected()
		r.CustomerAction = sel.CustomAction
	}
	return nil
}
