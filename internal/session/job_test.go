package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolchem/core/catalog"
	"poolchem/core/engine"
	"poolchem/core/types"
	"poolchem/internal/errors"
)

const backyardJob = `
id: job-42
pool:
  id: 7
  name: Backyard
  volume: 50000
  pool_type_id: 1
  surface_type_id: 1
  location_id: 1
sanitisers:
  - id: 1
    name: Liquid chlorine feeder
    classification_id: 1
metrics:
  - {id: 1, name: Litres, unit: l}
  - {id: 2, name: Millilitres, unit: ml}
  - {id: 3, name: Kilograms, unit: kg}
products:
  - {id: 1, name: Liquid Chlorine 12.5%, metric_id: 1}
  - {id: 2, name: Granular Chlorine, metric_id: 3}
  - {id: 3, name: Hydrochloric Acid, category: ph_reducer, metric_id: 1}
readings:
  free_chlorine: 0.5
  total_chlorine: "0.5"
  ph: 7.50
observations:
  cloudy_water: true
overrides:
  - test: free_chlorine
    group: granular_chlorine
`

func loadDefault(t *testing.T, src string) (*Job, *engine.Engine) {
	t.Helper()
	job, err := Parse([]byte(src))
	require.NoError(t, err)

	c, err := catalog.Default()
	require.NoError(t, err)
	in, err := job.Input(c)
	require.NoError(t, err)
	e, err := engine.Initialize(in, engine.DefaultConfig())
	require.NoError(t, err)
	return job, e
}

func TestParseJob(t *testing.T) {
	job, err := Parse([]byte(backyardJob))
	require.NoError(t, err)

	assert.Equal(t, "job-42", job.ID)
	assert.Equal(t, "0.5", job.Readings["free_chlorine"])
	assert.Equal(t, "7.50", job.Readings["ph"])

	pool, err := job.PoolSpecs()
	require.NoError(t, err)
	assert.True(t, pool.Pool.Volume.Equal(decimal.NewFromInt(50000)))
	assert.True(t, pool.HasSanitiserClassification([]int{1}))

	products, err := job.ProductSpecs()
	require.NoError(t, err)
	assert.Equal(t, "kg", products.ProductUnit(2))
	assert.True(t, products.HasCategory(types.ProductPHReducer, nil))

	p, _ := products.Product(1)
	assert.Equal(t, types.ProductOther, p.Category)
}

func TestParseAssignsID(t *testing.T) {
	job, err := Parse([]byte("pool:\n  volume: 1000\n"))
	require.NoError(t, err)
	_, err = uuid.Parse(job.ID)
	assert.NoError(t, err)
}

func TestParseRejectsBadJobs(t *testing.T) {
	tests := []struct {
		name string
		src  string
		typ  errors.Type
	}{
		{name: "empty", src: "", typ: errors.TypeInput},
		{name: "unknown field", src: "pool:\n  volume: 1\n  depth: 2\n", typ: errors.TypeParsing},
		{name: "malformed", src: "pool: [\n", typ: errors.TypeParsing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.typ), "got %v", err)
		})
	}
}

func TestSpecsValidation(t *testing.T) {
	job := &Job{}
	_, err := job.PoolSpecs()
	assert.True(t, errors.IsType(err, errors.TypeInput))

	job.Pool.Volume = "lots"
	_, err = job.PoolSpecs()
	assert.True(t, errors.IsType(err, errors.TypeInput))

	job.Products = []ProductFile{{ID: 1, Name: "Mystery", Category: "fertiliser"}}
	_, err = job.ProductSpecs()
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestApply(t *testing.T) {
	job, e := loadDefault(t, backyardJob)

	res, err := job.Apply(e)
	require.NoError(t, err)

	ph, _ := res.ChemicalByKey("ph")
	assert.Equal(t, "7.5", ph.Value)
	assert.Equal(t, types.StatusGood, ph.Status)

	fc, _ := res.ChemicalByKey("free_chlorine")
	assert.Equal(t, types.StatusLow, fc.Status)
	assert.Equal(t, 2, fc.PinnedGroupID)
	assert.Equal(t, 2, fc.SelectedGroupID)
	assert.Equal(t, "Keep swimmers out for one hour after dosing.", fc.CustomerAction)
	assert.False(t, fc.CustomerActionEdited)

	cc, _ := res.ChemicalByKey("combined_chlorine")
	assert.Equal(t, "0", cc.Value)

	cloudy, _ := res.ObservationByKey("cloudy_water")
	assert.True(t, cloudy.Value)
	assert.NotZero(t, cloudy.SelectedGroupID)
}

func TestApplyEditedCustomerAction(t *testing.T) {
	src := backyardJob + `
  - test: cloudy_water
    show_on_report: false
    customer_action: Call us if it is still cloudy on Friday.
`
	job, e := loadDefault(t, src)
	res, err := job.Apply(e)
	require.NoError(t, err)

	cloudy, _ := res.ObservationByKey("cloudy_water")
	assert.False(t, cloudy.ShowOnReport)
	assert.True(t, cloudy.CustomerActionEdited)
	assert.Equal(t, "Call us if it is still cloudy on Friday.", cloudy.CustomerAction)
}

func TestApplyEnablesOptionalTests(t *testing.T) {
	src := `
pool:
  volume: 50000
enabled:
  magnesium_hardness: true
  calculated_hardness: true
readings:
  calcium_hardness: 300
  magnesium_hardness: 50
`
	job, e := loadDefault(t, src)
	res, err := job.Apply(e)
	require.NoError(t, err)

	hardness, _ := res.ChemicalByKey("calculated_hardness")
	assert.Equal(t, "350", hardness.Value)
}

func TestApplyStopsAtRejectedEdit(t *testing.T) {
	tests := []struct {
		name string
		src  string
		typ  errors.Type
	}{
		{
			name: "derived reading",
			src:  "pool:\n  volume: 50000\nreadings:\n  lsi: 0.2\n",
			typ:  errors.TypeAutoCalculated,
		},
		{
			name: "non numeric reading",
			src:  "pool:\n  volume: 50000\nreadings:\n  ph: high\n",
			typ:  errors.TypeInput,
		},
		{
			name: "unknown test",
			src:  "pool:\n  volume: 50000\nreadings:\n  iron: 1\n",
			typ:  errors.TypeNotFound,
		},
		{
			name: "default test disabled",
			src:  "pool:\n  volume: 50000\nenabled:\n  ph: false\n",
			typ:  errors.TypeInput,
		},
		{
			name: "unknown group",
			src:  "pool:\n  volume: 50000\noverrides:\n  - test: ph\n    group: magic\n",
			typ:  errors.TypeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, e := loadDefault(t, tt.src)
			before := e.Results()
			res, err := job.Apply(e)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.typ), "got %v", err)
			assert.Equal(t, before.Version, res.Version)
		})
	}
}

func TestSavedResultsResume(t *testing.T) {
	src := `
pool:
  volume: 50000
saved:
  chemical:
    - test_id: 2
      value: "0.5"
      enabled: true
      pinned_group_id: 2
      customer_action: Dose after sunset.
    - test_id: 9
      value: "40"
      enabled: false
  observation:
    - test_id: 1
      value: true
      enabled: true
      show_on_report: false
`
	_, e := loadDefault(t, src)
	res := e.Results()

	fc, _ := res.ChemicalByKey("free_chlorine")
	assert.Equal(t, "0.5", fc.Value)
	assert.Equal(t, 2, fc.SelectedGroupID)
	assert.Equal(t, "Dose after sunset.", fc.CustomerAction)
	assert.True(t, fc.CustomerActionEdited)

	mg, _ := res.ChemicalByKey("magnesium_hardness")
	assert.False(t, mg.Enabled)
	assert.Equal(t, "40", mg.Value)

	cloudy, _ := res.ObservationByKey("cloudy_water")
	assert.True(t, cloudy.Value)
	assert.False(t, cloudy.ShowOnReport)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(backyardJob), 0644))

	job, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Backyard", job.Pool.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsType(err, errors.TypeInput))
}
