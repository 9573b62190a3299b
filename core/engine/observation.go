package engine

import (
	"poolchem/core/types"
	"poolchem/internal/errors"
)

// ProcessObservationValue records whether the observed condition is present.
// Presence resolves the observation's recommendations; absence clears the
// selection and keeps show_on_report and customer_action edits.
func (e *Engine) ProcessObservationValue(testID int, present bool) (types.Results, error) {
	return e.mutate(func(next *types.Results) error {
		idx, err := e.observationAt(testID)
		if err != nil {
			return err
		}
		r := &next.Observation[idx]
		if !r.Enabled {
			return errors.Newf(errors.TypeInput, "%q is disabled", r.Key).WithContext("test_id", testID)
		}
		r.Value = present
		return e.evaluateObservation(next, idx)
	})
}

// ChangeObservationRecommendation applies an operator override to an observation result
func (e *Engine) ChangeObservationRecommendation(testID int, change RecommendationChange) (types.Results, error) {
	return e.mutate(func(next *types.Results) error {
		idx, err := e.observationAt(testID)
		if err != nil {
			return err
		}
		r := &next.Observation[idx]
		if !r.Enabled {
			return errors.Newf(errors.TypeInput, "%q is disabled", r.Key).WithContext("test_id", testID)
		}
		if change.GroupID != 0 && !e.catalog.HasGroupFor(types.KindObservation, testID, change.GroupID) {
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

// SetObservationEnabled adds an observation test to or removes it from the active panel
func (e *Engine) SetObservationEnabled(testID int, enabled bool) (types.Results, error) {
	return e.mutate(func(next *types.Results) error {
		idx, err := e.observationAt(testID)
		if err != nil {
			return err
		}
		r := &next.Observation[idx]
		if !enabled && r.IsDefault {
			return errors.Newf(errors.TypeInput, "%q is a default test and cannot be disabled", r.Key).
				WithContext("test_id", testID)
		}
		if r.Enabled == enabled {
			return nil
		}
		r.Enabled = enabled
		return e.evaluateObservation(next, idx)
	})
}

func (e *Engine) observationAt(testID int) (int, error) {
	idx, ok := e.observationIndex[testID]
	if !ok {
		return 0, errors.Wrap(errors.TypeInput, "unknown result", errors.NotFound("observation result", testID))
	}
	return idx, nil
}

func (e *Engine) evaluateObservation(res *types.Results, idx int) error {
	r := &res.Observation[idx]
	if !r.Enabled {
		return nil
	}
	r.Recommendations = nil
	if r.Value {
		recs, err := e.recommendations(types.KindObservation, r.TestID, r.Key, types.TriggerPresent, nil, e.facts, "")
		if err != nil {
			return err
		}
		r.Recommendations = recs
	}

	r.SelectedGroupID = selectGroup(r.Recommendations, r.PinnedGroupID)
	if !r.CustomerActionEdited {
		sel, _ := r.Selected()
		r.CustomerAction = sel.CustomAction
	}
	return nil
}
