package dictscan

import (
	"encoding/json"
	"math"
	"strings"
)

// Finding is a dictionary match located inside a resource.
type Finding struct {
	// PatternID is the id of the dictionary pattern that matched
	PatternID   string
	Description string

	// Location Information
	// Line number _within_ the resource
	StartLine   int
	EndLine     int
	StartColumn int
	EndColumn   int

	// Line is the full line content containing the finding.
	Line string `json:"-"`

	// Match is the matched text as it appears in the resource
	Match string

	// Tags are arbitrary labels associated with the pattern
	Tags []string

	// unique identifier
	Fingerprint string

	// Used for bookkeeping back to the fragment
	Fragment *Fragment `json:"-"`

	// Metadata holds per-finding metadata copied from the resource at creation
	// time.
	Metadata map[string]string `json:"-"`
}

// File returns the path of the resource the finding was found in.
func (f *Finding) File() string {
	if p := f.Metadata[MetaPath]; p != "" {
		return p
	}
	if f.Fragment != nil {
		return f.Fragment.Path
	}
	return ""
}

// Redact masks the matched text in Match and Line.
func (f *Finding) Redact(percent uint) {
	masked := MaskMatch(f.Match, percent)
	if percent >= 100 {
		masked = "REDACTED"
	}
	if f.Match != "" {
		f.Line = strings.ReplaceAll(f.Line, f.Match, masked)
	}
	f.Match = masked
}

// MaskMatch keeps the leading (100-percent)% of s and appends "...".
func MaskMatch(s string, percent uint) string {
	if percent > 100 {
		percent = 100
	}
	n := float64(len(s))
	if n <= 0 {
		return s
	}
	keep := int64(math.RoundToEven(n * float64(100-percent) / 100))
	return s[:keep] + "..."
}

// ResourceContext returns the source type and metadata of the resource the
// finding came from.
func (f *Finding) ResourceContext() (string, map[string]string) {
	if f == nil || f.Fragment == nil || f.Fragment.Resource == nil {
		return "", nil
	}
	return f.Fragment.Resource.Source, f.Fragment.Resource.Metadata
}

// findingJSON is the JSON representation of a Finding. Metadata is emitted
// as a flat key-value object.
type findingJSON struct {
	PatternID   string            `json:"PatternID"`
	Description string            `json:"Description"`
	StartLine   int               `json:"StartLine"`
	EndLine     int               `json:"EndLine"`
	StartColumn int               `json:"StartColumn"`
	EndColumn   int               `json:"EndColumn"`
	Match       string            `json:"Match"`
	Tags        []string          `json:"Tags"`
	Fingerprint string            `json:"Fingerprint"`
	Metadata    map[string]string `json:"Metadata"`
}

func (f Finding) MarshalJSON() ([]byte, error) {
	return json.Marshal(findingJSON{
		PatternID:   f.PatternID,
		Description: f.Description,
		StartLine:   f.StartLine,
		EndLine:     f.EndLine,
		StartColumn: f.StartColumn,
		EndColumn:   f.EndColumn,
		Match:       f.Match,
		Tags:        f.Tags,
		Fingerprint: f.Fingerprint,
		Metadata:    f.Metadata,
	})
}

func (f *Finding) UnmarshalJSON(data []byte) error {
	var j findingJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	f.PatternID = j.PatternID
	f.Description = j.Description
	f.StartLine = j.StartLine
	f.EndLine = j.EndLine
	f.StartColumn = j.StartColumn
	f.EndColumn = j.EndColumn
	f.Match = j.Match
	f.Tags = j.Tags
	f.Fingerprint = j.Fingerprint
	f.Metadata = j.Metadata

	// Reconstruct a synthetic Fragment + Resource so File and
	// ResourceContext keep working on decoded findings.
	path := j.Metadata[MetaPath]
	f.Fragment = &Fragment{
		Path: path,
		Resource: &Resource{
			Path:     path,
			Metadata: j.Metadata,
		},
	}
	return nil
}
