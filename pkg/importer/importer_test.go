package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMapping(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMappingConfig(t *testing.T) {
	t.Run("Parses a valid mapping", func(t *testing.T) {
		path := writeMapping(t, `
version: 1
sheets:
  Notebooks:
    category: Notebooks
    serialized: true
    columns:
      Brand: brand
      Model: model
      Serial: serial
    aliases:
      Serial:
        - "Serial Number"
        - "S/N"
  Toner:
    category: Consumables
    serialized: false
    columns:
      Brand: brand
      Model: model
      Qty: quantity
`)

		cfg, err := loadMappingConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.Version)
		require.Len(t, cfg.Sheets, 2)

		notebooks := cfg.Sheets["Notebooks"]
		assert.Equal(t, "Notebooks", notebooks.Category)
		assert.True(t, notebooks.Serialized)
		assert.Equal(t, "serial", notebooks.Columns["Serial"])
		assert.Equal(t, []string{"Serial Number", "S/N"}, notebooks.Aliases["Serial"])

		toner := cfg.Sheets["Toner"]
		assert.False(t, toner.Serialized)
		assert.Equal(t, "quantity", toner.Columns["Qty"])
	})

	t.Run("Rejects a mapping with no sheets", func(t *testing.T) {
		path := writeMapping(t, "version: 1\n")

		_, err := loadMappingConfig(path)
		assert.ErrorContains(t, err, "no sheets")
	})

	t.Run("Fails on a missing file", func(t *testing.T) {
		_, err := loadMappingConfig("does/not/exist.yaml")
		assert.Error(t, err)
	})

	t.Run("Fails on malformed YAML", func(t *testing.T) {
		path := writeMapping(t, "sheets: [not a map")

		_, err := loadMappingConfig(path)
		assert.Error(t, err)
	})
}
