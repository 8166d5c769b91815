package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dictscan/dictscan"
)

func sampleFindings() []dictscan.Finding {
	return []dictscan.Finding{
		{
			PatternID:   "pw",
			Description: "password, plain",
			Match:       "password",
			Line:        "my password",
			StartLine:   1,
			EndLine:     2,
			StartColumn: 4,
			EndColumn:   11,
			Fingerprint: "file!file_content!path=auth.py!pw!00000000#L1-2#C4-11",
			Tags:        []string{"tag1", "tag2"},
			Metadata: map[string]string{
				dictscan.MetaPath: "auth.py",
			},
		},
	}
}

func writeReport(t *testing.T, r dictscan.Reporter, findings []dictscan.Finding) string {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "report"))
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, r.Write(f, findings))
	got, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return string(got)
}

func TestNew(t *testing.T) {
	r, err := New("JSON")
	require.NoError(t, err)
	assert.IsType(t, &JsonReporter{}, r)

	r, err = New("csv")
	require.NoError(t, err)
	assert.IsType(t, &CsvReporter{}, r)

	_, err = New("sarif")
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	out := writeReport(t, &JsonReporter{}, sampleFindings())
	require.True(t, gjson.Valid(out))

	assert.Equal(t, int64(1), gjson.Get(out, "#").Int())
	assert.Equal(t, "pw", gjson.Get(out, "0.PatternID").String())
	assert.Equal(t, "password", gjson.Get(out, "0.Match").String())
	assert.Equal(t, int64(2), gjson.Get(out, "0.EndLine").Int())
	assert.Equal(t, int64(4), gjson.Get(out, "0.StartColumn").Int())
	assert.Equal(t, "auth.py", gjson.Get(out, "0.Metadata.path").String())
	assert.Equal(t, []any{"tag1", "tag2"}, gjson.Get(out, "0.Tags").Value())
	assert.False(t, gjson.Get(out, "0.Line").Exists())
}

func TestWriteJSONEmpty(t *testing.T) {
	assert.Equal(t, "[]\n", writeReport(t, &JsonReporter{}, nil))
}

func TestWriteCSV(t *testing.T) {
	want := "PatternID,Description,File,SymlinkFile,Match,StartLine,EndLine,StartColumn,EndColumn,Fingerprint,Tags\n" +
		"pw,\"password, plain\",auth.py,,password,1,2,4,11,file!file_content!path=auth.py!pw!00000000#L1-2#C4-11,tag1 tag2\n"
	assert.Equal(t, want, writeReport(t, &CsvReporter{}, sampleFindings()))
}

func TestWriteCSVEmpty(t *testing.T) {
	assert.Empty(t, writeReport(t, &CsvReporter{}, []dictscan.Finding{}))
}
