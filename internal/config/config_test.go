package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolchem/internal/errors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poolchem.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "catalog": {"path": "/etc/poolchem/catalog.hcl"},
  "resolver": {"strict_ambiguity": true},
  "report": {"format": "json", "decimal_places": 1}
}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/poolchem/catalog.hcl", cfg.Catalog.Path)
	assert.True(t, cfg.Resolver.StrictAmbiguity)
	assert.Equal(t, "json", cfg.Report.Format)
	assert.Equal(t, int32(1), cfg.Report.DecimalPlaces)
	// untouched sections keep their defaults
	assert.Equal(t, "ml", cfg.Units.DisplayVolume)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{"report":`},
		{"bad format", `{"report": {"format": "pdf"}}`},
		{"bad places", `{"report": {"format": "text", "decimal_places": 12}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeConfig))
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.json")
	cfg := Default()
	cfg.Resolver.StrictAmbiguity = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
