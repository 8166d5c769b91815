package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/dictscan/dictscan"
)

type CsvReporter struct {
}

var _ dictscan.Reporter = (*CsvReporter)(nil)

// Write emits a header and one row per finding. No findings produce no
// output at all.
func (r *CsvReporter) Write(w io.WriteCloser, findings []dictscan.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	columns := []string{
		"PatternID",
		"Description",
		"File",
		"SymlinkFile",
		"Match",
		"StartLine",
		"EndLine",
		"StartColumn",
		"EndColumn",
		"Fingerprint",
		"Tags",
	}
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, f := range findings {
		row := []string{
			f.PatternID,
			f.Description,
			f.File(),
			f.Metadata[dictscan.MetaSymlinkFile],
			f.Match,
			strconv.Itoa(f.StartLine),
			strconv.Itoa(f.EndLine),
			strconv.Itoa(f.StartColumn),
			strconv.Itoa(f.EndColumn),
			f.Fingerprint,
			strings.Join(f.Tags, " "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
