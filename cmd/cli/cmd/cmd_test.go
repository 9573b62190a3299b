package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolchem/core/report"
	"poolchem/core/types"
	"poolchem/core/ui"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.json")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	out, err := run(t, "convert", "750", "ml", "l")
	require.NoError(t, err)
	assert.Equal(t, "750 ml = 0.75 l\n", out)

	_, err = run(t, "convert", "1", "kg", "l")
	assert.Error(t, err)
}

func TestEvaluateCommand(t *testing.T) {
	job := `
id: job-1
pool:
  name: Backyard
  volume: 50000
metrics:
  - {id: 1, name: Litres, unit: l}
products:
  - {id: 1, name: Liquid Chlorine 12.5%, metric_id: 1}
readings:
  free_chlorine: 0.5
  ph: 7.5
`
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(job), 0644))

	out, err := run(t, "evaluate", "--job", path, "--format", "json")
	require.NoError(t, err)

	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "job-1", r.Meta.JobID)
	require.Len(t, r.Chemical, 2)

	fc := r.Chemical[1]
	assert.Equal(t, "free_chlorine", fc.Key)
	assert.Equal(t, types.StatusLow, fc.Status)
	require.NotNil(t, fc.Dosage)
	assert.Equal(t, "0.6", fc.Dosage.Amount)
	assert.Equal(t, "l", fc.Dosage.Unit)
}

func TestCatalogValidateCommand(t *testing.T) {
	out, err := run(t, "catalog", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog is valid.")

	broken := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(broken, []byte(`chemical_test "ph" {`), 0644))
	_, err = run(t, "catalog", "validate", broken)
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	tests := []struct {
		name string
		r    *report.Report
		want string
	}{
		{
			name: "in range",
			r:    &report.Report{Chemical: []report.Line{{Name: "pH", Status: types.StatusGood}}},
			want: "✓ All reported readings are in range.\n",
		},
		{
			name: "needs attention",
			r: &report.Report{
				Chemical:    []report.Line{{Name: "pH", Status: types.StatusHigh}, {Name: "Free chlorine", Status: types.StatusGood}},
				Observation: []report.Line{{Name: "Cloudy water"}},
			},
			want: "⚠ Needs attention: pH HIGH, Cloudy water\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printSummary(ui.NewWriter(&buf, true), tt.r)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
