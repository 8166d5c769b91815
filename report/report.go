// Package report writes findings as JSON or CSV.
package report

import (
	"fmt"
	"strings"

	"github.com/dictscan/dictscan"
)

const (
	JSON = "json"
	CSV  = "csv"
)

// New returns the reporter for format. Format names are case-insensitive.
func New(format string) (dictscan.Reporter, error) {
	switch strings.ToLower(format) {
	case JSON:
		return &JsonReporter{}, nil
	case CSV:
		return &CsvReporter{}, nil
	}
	return nil, fmt.Errorf("unknown report format %q (expected json or csv)", format)
}
