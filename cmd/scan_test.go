package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dictscan/dictscan"
)

func TestWriteReport(t *testing.T) {
	findings := []dictscan.Finding{{
		PatternID:   "he",
		Match:       "he",
		StartLine:   1,
		EndLine:     1,
		StartColumn: 3,
		EndColumn:   4,
		Metadata:    map[string]string{dictscan.MetaPath: "a.txt"},
	}}

	t.Run("json from extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.json")
		require.NoError(t, writeReport(path, "", findings))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.True(t, gjson.ValidBytes(data))
		assert.Equal(t, "he", gjson.GetBytes(data, "0.PatternID").String())
		assert.Equal(t, int64(3), gjson.GetBytes(data, "0.StartColumn").Int())
	})

	t.Run("explicit csv", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.out")
		require.NoError(t, writeReport(path, "csv", findings))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "PatternID")
		assert.Contains(t, string(data), "a.txt")
	})

	t.Run("unknown format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.xml")
		assert.Error(t, writeReport(path, "", findings))
		assert.NoFileExists(t, path)
	})

	t.Run("unwritable path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "report.json")
		assert.Error(t, writeReport(path, "", findings))
	})
}
