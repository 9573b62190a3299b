// Package session loads job files: the pool and product specifications of a
// service visit, the readings taken on site and any results saved by an
// earlier session. Tests and dosage groups are referenced by catalog key.
package session

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"poolchem/core/catalog"
	"poolchem/core/determinism"
	"poolchem/core/engine"
	"poolchem/core/types"
	"poolchem/internal/errors"
)

// Job is the YAML job file
type Job struct {
	ID         string          `yaml:"id"`
	Pool       PoolFile        `yaml:"pool"`
	Sanitisers []SanitiserFile `yaml:"sanitisers"`
	Metrics    []MetricFile    `yaml:"metrics"`
	Products   []ProductFile   `yaml:"products"`

	// Enabled adds optional tests to the panel (true) or removes them (false)
	Enabled map[string]bool `yaml:"enabled"`

	// Readings are raw chemical values keyed by test key. "" clears a reading.
	Readings map[string]string `yaml:"readings"`

	// Observations are presence flags keyed by test key
	Observations map[string]bool `yaml:"observations"`

	// Overrides are operator recommendation changes, applied in file order
	Overrides []Override `yaml:"overrides"`

	Saved SavedFile `yaml:"saved"`
}

// PoolFile holds the pool attributes. Volume is in litres and kept as text so
// it converts to a decimal exactly.
type PoolFile struct {
	ID                int      `yaml:"id"`
	Name              string   `yaml:"name"`
	Volume            string   `yaml:"volume"`
	PoolTypeID        int      `yaml:"pool_type_id"`
	SurfaceTypeID     int      `yaml:"surface_type_id"`
	ClassificationID  int      `yaml:"classification_id"`
	GroundLevelID     int      `yaml:"ground_level_id"`
	LocationID        int      `yaml:"location_id"`
	CustomExceptionID int      `yaml:"custom_exception_id"`
	EnabledModules    []string `yaml:"enabled_modules"`
}

// SanitiserFile is one sanitiser fitted to the pool
type SanitiserFile struct {
	ID               int    `yaml:"id"`
	Name             string `yaml:"name"`
	ClassificationID int    `yaml:"classification_id"`
}

// MetricFile is one measurement unit used by the products
type MetricFile struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
	Unit string `yaml:"unit"`
}

// ProductFile is one product stocked for the job
type ProductFile struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	MetricID int    `yaml:"metric_id"`
}

// Override is one operator recommendation change
type Override struct {
	Test string `yaml:"test"`

	// Group pins a dosage group by key; empty returns to automatic selection
	Group string `yaml:"group"`

	// ShowOnReport defaults to true
	ShowOnReport *bool `yaml:"show_on_report"`

	// CustomerAction defaults to the selected recommendation's text
	CustomerAction *string `yaml:"customer_action"`
}

// SavedFile holds results persisted by an earlier session, keyed by test id
type SavedFile struct {
	Chemical    []SavedChemical    `yaml:"chemical"`
	Observation []SavedObservation `yaml:"observation"`
}

// SavedChemical is a persisted chemical test result
type SavedChemical struct {
	TestID         int     `yaml:"test_id"`
	Value          string  `yaml:"value"`
	Enabled        bool    `yaml:"enabled"`
	ShowOnReport   *bool   `yaml:"show_on_report"`
	CustomerAction *string `yaml:"customer_action"`
	PinnedGroupID  int     `yaml:"pinned_group_id"`
}

// SavedObservation is a persisted observation test result
type SavedObservation struct {
	TestID         int     `yaml:"test_id"`
	Value          bool    `yaml:"value"`
	Enabled        bool    `yaml:"enabled"`
	ShowOnReport   *bool   `yaml:"show_on_report"`
	CustomerAction *string `yaml:"customer_action"`
	PinnedGroupID  int     `yaml:"pinned_group_id"`
}

// Load reads a job file
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "read job file", err)
	}
	return Parse(data)
}

// Parse decodes a job file. Unknown fields are rejected and a job without an
// id is assigned a random one.
func Parse(data []byte) (*Job, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var job Job
	if err := dec.Decode(&job); err != nil {
		if err == io.EOF {
			return nil, errors.Input("job file is empty")
		}
		return nil, errors.Parsing("decode job file", err)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	return &job, nil
}

// PoolSpecs converts the pool section
func (j *Job) PoolSpecs() (types.PoolSpecs, error) {
	raw := strings.TrimSpace(j.Pool.Volume)
	if raw == "" {
		return types.PoolSpecs{}, errors.Input("pool.volume is required")
	}
	volume, err := decimal.NewFromString(raw)
	if err != nil {
		return types.PoolSpecs{}, errors.Wrap(errors.TypeInput, "pool.volume", err)
	}

	specs := types.PoolSpecs{
		Pool: types.Pool{
			ID:                j.Pool.ID,
			Name:              j.Pool.Name,
			SurfaceTypeID:     j.Pool.SurfaceTypeID,
			PoolTypeID:        j.Pool.PoolTypeID,
			ClassificationID:  j.Pool.ClassificationID,
			GroundLevelID:     j.Pool.GroundLevelID,
			LocationID:        j.Pool.LocationID,
			CustomExceptionID: j.Pool.CustomExceptionID,
			Volume:            volume,
			EnabledModules:    j.Pool.EnabledModules,
		},
	}
	for _, s := range j.Sanitisers {
		specs.Sanitisers = append(specs.Sanitisers, types.Sanitiser{
			ID:               s.ID,
			Name:             s.Name,
			ClassificationID: s.ClassificationID,
		})
	}
	return specs, nil
}

// ProductSpecs converts the metrics and products sections
func (j *Job) ProductSpecs() (types.ProductSpecs, error) {
	var specs types.ProductSpecs
	for _, m := range j.Metrics {
		specs.Metrics = append(specs.Metrics, types.Metric{ID: m.ID, Name: m.Name, Unit: m.Unit})
	}
	for _, p := range j.Products {
		cat := types.ProductCategory(p.Category)
		switch cat {
		case "":
			cat = types.ProductOther
		case types.ProductPHReducer, types.ProductAlgaecide, types.ProductClarifier, types.ProductOther:
		default:
			return types.ProductSpecs{}, errors.Newf(errors.TypeInput, "product %d has unknown category %q", p.ID, p.Category)
		}
		specs.Products = append(specs.Products, types.Product{
			ID:       p.ID,
			Name:     p.Name,
			Category: cat,
			MetricID: p.MetricID,
		})
	}
	return specs, nil
}

// Input assembles the engine input for the job
func (j *Job) Input(c *catalog.Catalog) (engine.Input, error) {
	pool, err := j.PoolSpecs()
	if err != nil {
		return engine.Input{}, err
	}
	products, err := j.ProductSpecs()
	if err != nil {
		return engine.Input{}, err
	}

	in := engine.Input{Catalog: c, Pool: pool, Products: products}
	for _, s := range j.Saved.Chemical {
		in.SavedChemical = append(in.SavedChemical, types.SavedChemicalResult{
			TestID:         s.TestID,
			Value:          s.Value,
			Enabled:        s.Enabled,
			ShowOnReport:   s.ShowOnReport,
			CustomerAction: s.CustomerAction,
			PinnedGroupID:  s.PinnedGroupID,
		})
	}
	for _, s := range j.Saved.Observation {
		in.SavedObservation = append(in.SavedObservation, types.SavedObservationResult{
			TestID:         s.TestID,
			Value:          s.Value,
			Enabled:        s.Enabled,
			ShowOnReport:   s.ShowOnReport,
			CustomerAction: s.CustomerAction,
			PinnedGroupID:  s.PinnedGroupID,
		})
	}
	return in, nil
}

// Apply drives the engine with the job's on-site edits: panel changes first,
// then readings and observations in key order, then overrides in file order.
// It stops at the first rejected edit.
func (j *Job) Apply(e *engine.Engine) (types.Results, error) {
	c := e.Catalog()

	err := determinism.RangeMapSorted(j.Enabled, func(key string, enabled bool) error {
		kind, id, err := lookupTest(c, key)
		if err != nil {
			return err
		}
		if kind == types.KindObservation {
			_, err = e.SetObservationEnabled(id, enabled)
		} else {
			_, err = e.SetChemicalEnabled(id, enabled)
		}
		return wrapEdit(err, "enabled", key)
	})
	if err != nil {
		return e.Results(), err
	}

	err = determinism.RangeMapSorted(j.Readings, func(key, raw string) error {
		id, ok := c.TestID(types.KindChemical, key)
		if !ok {
			return errors.Wrap(errors.TypeInput, "readings", errors.NotFound("chemical test", key))
		}
		_, err := e.ProcessChemicalValue(id, raw)
		return wrapEdit(err, "readings", key)
	})
	if err != nil {
		return e.Results(), err
	}

	err = determinism.RangeMapSorted(j.Observations, func(key string, present bool) error {
		id, ok := c.TestID(types.KindObservation, key)
		if !ok {
			return errors.Wrap(errors.TypeInput, "observations", errors.NotFound("observation test", key))
		}
		_, err := e.ProcessObservationValue(id, present)
		return wrapEdit(err, "observations", key)
	})
	if err != nil {
		return e.Results(), err
	}

	for _, o := range j.Overrides {
		if err := applyOverride(e, o); err != nil {
			return e.Results(), err
		}
	}
	return e.Results(), nil
}

func applyOverride(e *engine.Engine, o Override) error {
	c := e.Catalog()
	kind, id, err := lookupTest(c, o.Test)
	if err != nil {
		return err
	}

	change := engine.RecommendationChange{ShowOnReport: true}
	if o.ShowOnReport != nil {
		change.ShowOnReport = *o.ShowOnReport
	}
	if o.Group != "" {
		g, ok := c.GroupByKey(o.Group)
		if !ok {
			return errors.Wrap(errors.TypeInput, "overrides", errors.NotFound("dosage group", o.Group))
		}
		change.GroupID = g.ID
	}

	res := e.Results()
	var recs []types.DosageRecommendation
	if kind == types.KindObservation {
		if r, ok := res.ObservationByKey(o.Test); ok {
			recs = r.Recommendations
		}
	} else if r, ok := res.ChemicalByKey(o.Test); ok {
		recs = r.Recommendations
	}
	if o.CustomerAction != nil {
		change.CustomerAction = *o.CustomerAction
	} else {
		change.CustomerAction = defaultCustomerAction(recs, change.GroupID)
	}

	if kind == types.KindObservation {
		_, err = e.ChangeObservationRecommendation(id, change)
	} else {
		_, err = e.ChangeChemicalRecommendation(id, change)
	}
	return wrapEdit(err, "overrides", o.Test)
}

// defaultCustomerAction is the customer action of the recommendation the
// engine will select for the pin: the pinned group when it is a candidate,
// else the first candidate.
func defaultCustomerAction(recs []types.DosageRecommendation, groupID int) string {
	for _, r := range recs {
		if r.GroupID == groupID {
			return r.CustomAction
		}
	}
	if len(recs) > 0 {
		return recs[0].CustomAction
	}
	return ""
}

// lookupTest resolves a key that may name a test of either kind
func lookupTest(c *catalog.Catalog, key string) (types.TestKind, int, error) {
	chemID, chem := c.TestID(types.KindChemical, key)
	obsID, obs := c.TestID(types.KindObservation, key)
	switch {
	case chem && obs:
		return "", 0, errors.Newf(errors.TypeInput, "test key %q names both a chemical and an observation test", key)
	case chem:
		return types.KindChemical, chemID, nil
	case obs:
		return types.KindObservation, obsID, nil
	default:
		return "", 0, errors.Wrap(errors.TypeInput, "job file", errors.NotFound("test", key))
	}
}

func wrapEdit(err error, section, key string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(errors.TypeOf(err), err, "%s.%s", section, key)
}
