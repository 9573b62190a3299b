package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolchem/core/types"
	"poolchem/internal/errors"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, 15, stats.ChemicalTests)
	assert.Equal(t, 3, stats.ObservationTests)
	assert.Equal(t, 4, stats.AutoCalculated)
	assert.Equal(t, 12, stats.Groups)
	assert.Equal(t, 20, stats.Recommendations)

	fc, ok := c.ChemicalTest(2)
	require.True(t, ok)
	assert.Equal(t, "free_chlorine", fc.Test.Key)
	assert.True(t, fc.Test.IsDefault)
	require.Len(t, fc.Ranges, 2)
	assert.True(t, fc.Ranges[0].IsDefault())
	assert.True(t, fc.Ranges[0].Value.Min.Equal(decimal.NewFromInt(1)))
	assert.True(t, fc.Ranges[0].Value.Max.Equal(decimal.NewFromInt(3)))

	salt, ok := c.ChemicalTest(14)
	require.True(t, ok)
	assert.Len(t, salt.AppliesWhen, 1)
}

func TestForOrdersByGroupDeclaration(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	recs := c.For(types.KindChemical, 2, types.TriggerLow)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].GroupID)
	assert.Equal(t, 2, recs[1].GroupID)

	assert.Empty(t, c.For(types.KindChemical, 2, types.TriggerPresent))
	assert.Len(t, c.For(types.KindObservation, 2, types.TriggerPresent), 2)

	assert.True(t, c.HasGroupFor(types.KindChemical, 2, 8))
	assert.False(t, c.HasGroupFor(types.KindChemical, 2, 3))
}

func TestTargetDefaultsToMidpoint(t *testing.T) {
	c, err := Parse([]byte(`
chemical_test "ph" {
  id   = 1
  name = "pH"
  range {
    min = 7.2
    max = 7.8
  }
}
`), "mid.hcl")
	require.NoError(t, err)
	ph, _ := c.ChemicalTest(1)
	assert.Equal(t, "7.5", ph.Ranges[0].Value.Target.String())
}

func TestParseRejectsBrokenCatalogs(t *testing.T) {
	tests := []struct {
		name string
		src  string
		typ  errors.Type
	}{
		{
			name: "syntax error",
			src:  `chemical_test "ph" {`,
			typ:  errors.TypeParsing,
		},
		{
			name: "missing default range",
			src: `
chemical_test "ph" {
  id   = 1
  name = "pH"
  range {
    when "pool_type" {
      ids = [2]
    }
    min = 7.2
    max = 7.6
  }
}`,
			typ: errors.TypeUnresolved,
		},
		{
			name: "unknown exception kind",
			src: `
chemical_test "ph" {
  id   = 1
  name = "pH"
  range {
    when "moon_phase" {
      ids = [1]
    }
    min = 7.2
    max = 7.6
  }
}`,
			typ: errors.TypeParsing,
		},
		{
			name: "duplicate test id",
			src: `
chemical_test "ph" {
  id   = 1
  name = "pH"
  range {
    min = 7.2
    max = 7.8
  }
}
chemical_test "salt" {
  id   = 1
  name = "Salt"
  range {
    min = 3000
    max = 4500
  }
}`,
			typ: errors.TypeCatalog,
		},
		{
			name: "auto calculated without formula",
			src: `
chemical_test "phosphate" {
  id              = 1
  name            = "Phosphate"
  auto_calculated = true
  range {
    min = 0
    max = 100
  }
}`,
			typ: errors.TypeCatalog,
		},
		{
			name: "unknown dosage group",
			src: `
chemical_test "ph" {
  id   = 1
  name = "pH"
  range {
    min = 7.2
    max = 7.8
  }
}
recommendation {
  test    = "ph"
  group   = "acid"
  trigger = "high"
  action  = "Add acid."
}`,
			typ: errors.TypeCatalog,
		},
		{
			name: "unknown dosage unit",
			src: `
chemical_test "ph" {
  id   = 1
  name = "pH"
  range {
    min = 7.2
    max = 7.8
  }
}
dosage_group "acid" {
  id   = 1
  name = "Acid"
  kind = "chemical"
}
recommendation {
  test    = "ph"
  group   = "acid"
  trigger = "high"
  action  = "Add {amount} {unit} of acid."
  dosage {
    amount = 1
    unit   = "bucket"
  }
}`,
			typ: errors.TypeUnsupportedUnit,
		},
		{
			name: "observation trigger on chemical test",
			src: `
chemical_test "ph" {
  id   = 1
  name = "pH"
  range {
    min = 7.2
    max = 7.8
  }
}
dosage_group "acid" {
  id   = 1
  name = "Acid"
  kind = "chemical"
}
recommendation {
  test    = "ph"
  group   = "acid"
  trigger = "present"
  action  = "Add acid."
}`,
			typ: errors.TypeCatalog,
		},
		{
			name: "result value on range",
			src: `
chemical_test "ph" {
  id   = 1
  name = "pH"
  range {
    min = 7.2
    max = 7.8
  }
  range {
    when "result_value" {
      op    = "gt"
      value = 8
    }
    min = 7.0
    max = 7.6
  }
}`,
			typ: errors.TypeCatalog,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), tt.name+".hcl")
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.typ), "expected %s in %v", tt.typ, err)
		})
	}
}

func TestCheckProducts(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	compatible := types.ProductSpecs{
		Metrics: []types.Metric{
			{ID: 1, Name: "Litres", Unit: "l"},
			{ID: 2, Name: "Kilograms", Unit: "kg"},
		},
		Products: []types.Product{
			{ID: 1, Name: "Liquid Chlorine 12.5%", MetricID: 1},
			{ID: 4, Name: "Buffer", MetricID: 2},
		},
	}
	assert.NoError(t, c.CheckProducts(compatible))

	mismatched := compatible
	mismatched.Products = []types.Product{{ID: 1, Name: "Liquid Chlorine 12.5%", MetricID: 2}}
	err = c.CheckProducts(mismatched)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeUnsupportedUnit))

	missingMetric := compatible
	missingMetric.Products = []types.Product{{ID: 1, Name: "Liquid Chlorine 12.5%", MetricID: 9}}
	err = c.CheckProducts(missingMetric)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))
}

func TestKeyLookups(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	id, ok := c.TestID(types.KindChemical, "lsi")
	require.True(t, ok)
	assert.Equal(t, 13, id)

	id, ok = c.TestID(types.KindObservation, "staining")
	require.True(t, ok)
	assert.Equal(t, 3, id)

	_, ok = c.TestID(types.KindObservation, "ph")
	assert.False(t, ok)

	g, ok := c.GroupByKey("granular_chlorine")
	require.True(t, ok)
	assert.Equal(t, 2, g.ID)
}
