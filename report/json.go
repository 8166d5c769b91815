package report

import (
	"encoding/json"
	"io"

	"github.com/dictscan/dictscan"
)

type JsonReporter struct {
}

var _ dictscan.Reporter = (*JsonReporter)(nil)

// Write encodes findings as an indented JSON array. No findings produce "[]".
func (t *JsonReporter) Write(w io.WriteCloser, findings []dictscan.Finding) error {
	if findings == nil {
		findings = []dictscan.Finding{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", " ")
	return encoder.Encode(findings)
}
