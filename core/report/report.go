// Package report projects engine results onto the customer-facing report.
// The renderer only sees active results and their status, range, action and
// description text.
package report

import (
	"poolchem/core/determinism"
	"poolchem/core/types"
	"poolchem/internal/errors"
)

var reportIDs = determinism.NewIDGenerator("poolchem-report")

// Meta identifies the job a report belongs to
type Meta struct {
	JobID    string `json:"job_id"`
	PoolName string `json:"pool_name,omitempty"`
}

// Dosage is the amount of the selected recommendation
type Dosage struct {
	Amount  string `json:"amount"`
	Unit    string `json:"unit"`
	Product string `json:"product,omitempty"`
}

// Line is one reported test result
type Line struct {
	Kind   types.TestKind `json:"kind"`
	TestID int            `json:"test_id"`
	Key    string         `json:"key"`
	Name   string         `json:"name"`

	// Value is the reading, "PRESENT" for observations
	Value  string       `json:"value"`
	Unit   string       `json:"unit,omitempty"`
	Status types.Status `json:"status,omitempty"`
	Range  *types.Range `json:"range,omitempty"`

	Group          string  `json:"group,omitempty"`
	Action         string  `json:"action,omitempty"`
	Description    string  `json:"description,omitempty"`
	CustomerAction string  `json:"customer_action,omitempty"`
	Dosage         *Dosage `json:"dosage,omitempty"`
}

// Report is a rendered view of one results snapshot
type Report struct {
	ID   determinism.StableID `json:"id"`
	Meta Meta                 `json:"meta"`

	// Version and Hash identify the snapshot the report was built from
	Version uint64 `json:"version"`
	Hash    string `json:"hash"`

	Chemical    []Line `json:"chemical"`
	Observation []Line `json:"observation"`
}

// ActiveChemical returns the enabled chemical results that have a value and are shown on the report
func ActiveChemical(res types.Results) []types.ChemicalResult {
	var out []types.ChemicalResult
	for _, c := range res.Chemical {
		if c.Enabled && c.HasValue() && c.ShowOnReport {
			out = append(out, c)
		}
	}
	return out
}

// ActiveObservation returns the enabled, present observations that are shown on the report
func ActiveObservation(res types.Results) []types.ObservationResult {
	var out []types.ObservationResult
	for _, o := range res.Observation {
		if o.Enabled && o.Value && o.ShowOnReport {
			out = append(out, o)
		}
	}
	return out
}

// Build projects a snapshot onto a report. The report id is stable for a
// given job and snapshot content; the snapshot version is not hashed.
func Build(meta Meta, res types.Results) (*Report, error) {
	content := res
	content.Version = 0
	hash, err := determinism.HashJSON(content)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "hash results snapshot", err)
	}

	r := &Report{
		ID:          reportIDs.Generate(meta.JobID, hash.Hex()),
		Meta:        meta,
		Version:     res.Version,
		Hash:        hash.Hex(),
		Chemical:    []Line{},
		Observation: []Line{},
	}

	for _, c := range ActiveChemical(res) {
		rng := c.Range
		line := Line{
			Kind:           types.KindChemical,
			TestID:         c.TestID,
			Key:            c.Key,
			Name:           c.Name,
			Value:          c.Value,
			Unit:           c.Unit,
			Status:         c.Status,
			Range:          &rng,
			CustomerAction: c.CustomerAction,
		}
		if rec, ok := c.Selected(); ok {
			fillRecommendation(&line, rec)
		}
		r.Chemical = append(r.Chemical, line)
	}

	for _, o := range ActiveObservation(res) {
		line := Line{
			Kind:           types.KindObservation,
			TestID:         o.TestID,
			Key:            o.Key,
			Name:           o.Name,
			Value:          "PRESENT",
			CustomerAction: o.CustomerAction,
		}
		if rec, ok := o.Selected(); ok {
			fillRecommendation(&line, rec)
		}
		r.Observation = append(r.Observation, line)
	}

	return r, nil
}

func fillRecommendation(line *Line, rec types.DosageRecommendation) {
	line.Group = rec.GroupName
	line.Action = rec.Action
	line.Description = rec.Description
	if rec.Amount.Valid {
		line.Dosage = &Dosage{
			Amount:  rec.Amount.Decimal.String(),
			Unit:    rec.Unit,
			Product: rec.ProductName,
		}
	}
}

// NeedsAction reports whether any line carries a recommendation
func (r *Report) NeedsAction() bool {
	for _, l := range r.Chemical {
		if l.Action != "" {
			return true
		}
	}
	for _, l := range r.Observation {
		if l.Action != "" {
			return true
		}
	}
	return false
}
