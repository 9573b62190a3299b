// Package types - Job-scoped results
package types

import "github.com/shopspring/decimal"

// Status is the range classification of a chemical result
type Status string

const (
	StatusNone Status = ""
	StatusLow  Status = "LOW"
	StatusGood Status = "GOOD"
	StatusHigh Status = "HIGH"
)

// Trigger is the condition under which a recommendation applies
type Trigger string

const (
	TriggerLow     Trigger = "low"
	TriggerHigh    Trigger = "high"
	TriggerPresent Trigger = "present"
)

// Trigger maps an out-of-range status to the recommendation trigger it fires.
// GOOD and no-value results fire nothing.
func (s Status) Trigger() (Trigger, bool) {
	switch s {
	case StatusLow:
		return TriggerLow, true
	case StatusHigh:
		return TriggerHigh, true
	default:
		return "", false
	}
}

// DosageRecommendation is the resolved advice for one (result, dosage group) pair
type DosageRecommendation struct {
	GroupID      int                 `json:"group_id"`
	GroupName    string              `json:"group_name"`
	Action       string              `json:"action"`
	Description  string              `json:"description,omitempty"`
	CustomAction string              `json:"custom_action,omitempty"`
	Amount       decimal.NullDecimal `json:"amount"`
	Unit         string              `json:"unit,omitempty"`
	ProductID    int                 `json:"product_id,omitempty"`
	ProductName  string              `json:"product_name,omitempty"`
}

// ChemicalResult is the live state of one chemical test in a job
type ChemicalResult struct {
	TestID         int    `json:"test_id"`
	Key            string `json:"key"`
	Name           string `json:"name"`
	Unit           string `json:"unit,omitempty"`
	IsDefault      bool   `json:"is_default"`
	AutoCalculated bool   `json:"auto_calculated,omitempty"`

	// Value is a normalized decimal string, "" when there is no reading
	Value  string `json:"value"`
	Range  Range  `json:"range"`
	Status Status `json:"status"`

	Enabled bool `json:"enabled"`

	Recommendations []DosageRecommendation `json:"recommendations,omitempty"`

	// SelectedGroupID is the group of the selected recommendation, 0 for none
	SelectedGroupID int `json:"selected_group_id,omitempty"`

	// PinnedGroupID is an operator override that survives value edits, 0 when unpinned
	PinnedGroupID int `json:"pinned_group_id,omitempty"`

	ShowOnReport         bool   `json:"show_on_report"`
	CustomerAction       string `json:"customer_action,omitempty"`
	CustomerActionEdited bool   `json:"customer_action_edited,omitempty"`
}

// HasValue reports whether a reading (or derived value) is present
func (r ChemicalResult) HasValue() bool {
	return r.Value != ""
}

// Decimal returns the parsed value
func (r ChemicalResult) Decimal() (decimal.Decimal, bool) {
	if r.Value == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(r.Value)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// IsPinned reports whether the operator pinned a dosage group
func (r ChemicalResult) IsPinned() bool {
	return r.PinnedGroupID != 0
}

// Selected returns the selected recommendation, if any
func (r ChemicalResult) Selected() (DosageRecommendation, bool) {
	return findRecommendation(r.Recommendations, r.SelectedGroupID)
}

// ObservationResult is the live state of one observation test in a job
type ObservationResult struct {
	TestID    int    `json:"test_id"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`

	Value   bool `json:"value"`
	Enabled bool `json:"enabled"`

	Recommendations []DosageRecommendation `json:"recommendations,omitempty"`
	SelectedGroupID int                    `json:"selected_group_id,omitempty"`
	PinnedGroupID   int                    `json:"pinned_group_id,omitempty"`

	ShowOnReport         bool   `json:"show_on_report"`
	CustomerAction       string `json:"customer_action,omitempty"`
	CustomerActionEdited bool   `json:"customer_action_edited,omitempty"`
}

// IsPinned reports whether the operator pinned a dosage group
func (r ObservationResult) IsPinned() bool {
	return r.PinnedGroupID != 0
}

// Selected returns the selected recommendation, if any
func (r ObservationResult) Selected() (DosageRecommendation, bool) {
	return findRecommendation(r.Recommendations, r.SelectedGroupID)
}

func findRecommendation(recs []DosageRecommendation, groupID int) (DosageRecommendation, bool) {
	if groupID == 0 {
		return DosageRecommendation{}, false
	}
	for _, rec := range recs {
		if rec.GroupID == groupID {
			return rec, true
		}
	}
	return DosageRecommendation{}, false
}

// Results is an immutable snapshot of a job's results
type Results struct {
	// Version increases by one with every accepted mutation
	Version     uint64              `json:"version"`
	Chemical    []ChemicalResult    `json:"chemical_results"`
	Observation []ObservationResult `json:"observation_results"`
}

// Clone returns a deep copy
func (r Results) Clone() Results {
	out := Results{
		Version:     r.Version,
		Chemical:    make([]ChemicalResult, len(r.Chemical)),
		Observation: make([]ObservationResult, len(r.Observation)),
	}
	for i, c := range r.Chemical {
		c.Recommendations = cloneRecommendations(c.Recommendations)
		out.Chemical[i] = c
	}
	for i, o := range r.Observation {
		o.Recommendations = cloneRecommendations(o.Recommendations)
		out.Observation[i] = o
	}
	return out
}

// ChemicalByKey returns the chemical result for a test key
func (r Results) ChemicalByKey(key string) (ChemicalResult, bool) {
	for _, c := range r.Chemical {
		if c.Key == key {
			return c, true
		}
	}
	return ChemicalResult{}, false
}

// ObservationByKey returns the observation result for a test key
func (r Results) ObservationByKey(key string) (ObservationResult, bool) {
	for _, o := range r.Observation {
		if o.Key == key {
			return o, true
		}
	}
	return ObservationResult{}, false
}

func cloneRecommendations(in []DosageRecommendation) []DosageRecommendation {
	if in == nil {
		return nil
	}
	out := make([]DosageRecommendation, len(in))
	copy(out, in)
	return out
}

// SavedChemicalResult is a previously persisted chemical result, keyed by test id
type SavedChemicalResult struct {
	TestID         int
	Value          string
	Enabled        bool
	ShowOnReport   *bool
	CustomerAction *string
	PinnedGroupID  int
}

// SavedObservationResult is a previously persisted observation result, keyed by test id
type SavedObservationResult struct {
	TestID         int
	Value          bool
	Enabled        bool
	ShowOnReport   *bool
	CustomerAction *string
	PinnedGroupID  int
}
