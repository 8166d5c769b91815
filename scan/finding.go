package scan

import (
	"sort"
	"strings"

	"github.com/dictscan/dictscan"
	"github.com/dictscan/dictscan/config"
)

// CreateFinding creates a Finding from a fragment, match, and pattern
// without location data. Call AddLocationToFinding to add it.
func CreateFinding(fragment dictscan.Fragment, match dictscan.Match, pattern config.Pattern) *dictscan.Finding {
	var metadata map[string]string
	if fragment.Resource != nil && len(fragment.Resource.Metadata) > 0 {
		metadata = make(map[string]string, len(fragment.Resource.Metadata))
		for k, v := range fragment.Resource.Metadata {
			metadata[k] = v
		}
	}
	return &dictscan.Finding{
		PatternID:   match.PatternID,
		Description: pattern.Description,
		Match:       match.MatchString,
		Tags:        pattern.Tags,
		Fragment:    &fragment,
		Metadata:    metadata,
	}
}

// AddLocationToFinding populates location fields and the line on a finding.
func AddLocationToFinding(finding *dictscan.Finding, fragment dictscan.Fragment, match dictscan.Match, newLineIndices [][]int) {
	loc := location(newLineIndices, fragment.Raw, match.MatchStart, match.MatchEnd)

	// fragment.StartLine is 1-based; 0 means the fragment starts the resource.
	fragmentOffset := 0
	if fragment.StartLine > 0 {
		fragmentOffset = fragment.StartLine - 1
	}

	finding.StartLine = loc.startLine + 1 + fragmentOffset
	finding.EndLine = loc.endLine + 1 + fragmentOffset
	finding.StartColumn = loc.startColumn
	finding.EndColumn = loc.endColumn
	finding.Line = strings.TrimSuffix(fragment.Raw[loc.startLineIndex:loc.endLineIndex], "\r")
}

// Location represents a location in a fragment. Lines are 0-based, columns
// 1-based byte columns. The line indexes bound the full text of the lines
// the match spans.
type Location struct {
	startLine      int
	endLine        int
	startColumn    int
	endColumn      int
	startLineIndex int
	endLineIndex   int
}

// location resolves the byte range [start, end) of raw against the newline
// positions found in raw.
func location(newlineIndices [][]int, raw string, start, end int) Location {
	// lineOf returns the 0-based line holding byte i.
	lineOf := func(i int) int {
		return sort.Search(len(newlineIndices), func(n int) bool {
			return newlineIndices[n][0] >= i
		})
	}
	lineStart := func(line int) int {
		if line == 0 {
			return 0
		}
		return newlineIndices[line-1][0] + 1
	}
	lineEnd := func(line int) int {
		if line < len(newlineIndices) {
			return newlineIndices[line][0]
		}
		return len(raw)
	}

	last := end - 1
	if last < start {
		last = start
	}

	var loc Location
	loc.startLine = lineOf(start)
	loc.endLine = lineOf(last)
	loc.startLineIndex = lineStart(loc.startLine)
	loc.endLineIndex = lineEnd(loc.endLine)
	loc.startColumn = start - loc.startLineIndex + 1
	loc.endColumn = last - lineStart(loc.endLine) + 1
	return loc
}
