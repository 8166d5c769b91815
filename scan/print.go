package scan

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dictscan/dictscan"
)

var (
	lineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5d445"))
	matchStyle = lipgloss.NewStyle().Bold(true).Italic(true).Foreground(lipgloss.Color("#f05c07"))
)

// contextWidth is the number of bytes of the line shown on each side of the
// match.
const contextWidth = 20

// PrintFinding writes a human readable finding to w with optional color
// formatting.
func PrintFinding(w io.Writer, f dictscan.Finding, noColor bool) {
	line := strings.TrimSpace(f.Line)
	match := strings.TrimSpace(f.Match)

	finding := match
	if idx := strings.Index(line, match); idx >= 0 && match != "" {
		start := line[:idx]
		if len(start) > contextWidth {
			start = "..." + start[len(start)-contextWidth:]
		}
		end := line[idx+len(match):]
		if len(end) > contextWidth {
			end = end[:contextWidth] + "..."
		}
		if noColor {
			finding = start + match + end
		} else {
			finding = lineStyle.Render(start) + matchStyle.Render(match) + lineStyle.Render(end)
		}
	} else if !noColor {
		finding = matchStyle.Render(match)
	}

	fmt.Fprintf(w, "%-12s %s\n", "Finding:", finding)
	fmt.Fprintf(w, "%-12s %s\n", "Match:", match)
	fmt.Fprintf(w, "%-12s %s\n", "PatternID:", f.PatternID)
	if f.Description != "" {
		fmt.Fprintf(w, "%-12s %s\n", "Description:", f.Description)
	}
	if len(f.Tags) > 0 {
		fmt.Fprintf(w, "%-12s %s\n", "Tags:", f.Tags)
	}
	if file := f.File(); file != "" {
		fmt.Fprintf(w, "%-12s %s\n", "File:", file)
	}
	if symlink := f.Metadata[dictscan.MetaSymlinkFile]; symlink != "" {
		fmt.Fprintf(w, "%-12s %s\n", "SymlinkFile:", symlink)
	}
	fmt.Fprintf(w, "%-12s %d\n", "Line:", f.StartLine)
	fmt.Fprintf(w, "%-12s %d\n", "Column:", f.StartColumn)
	fmt.Fprintf(w, "%-12s %s\n", "Fingerprint:", f.Fingerprint)
	fmt.Fprintln(w)
}
