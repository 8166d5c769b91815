package scan

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dictscan/dictscan"
	"github.com/dictscan/dictscan/logging"
)

// IgnoreFileName is the ignore file looked up next to the scan target.
const IgnoreFileName = ".dictscanignore"

// IgnoreMatcher is a parsed ignore entry. Empty fields are wildcards.
//
// Entries follow the fingerprint layout:
//
//	{source}!{resource_kind}!{identity_kvs}!{pattern_id}!{match_hash}#L{a}-{b}#C{c}-{d}
//
// Any segment may be "*", and trailing segments may be omitted, so
// "*!*!*!password" ignores every finding of the password pattern and
// "file!*!path=docs/glossary.md" ignores a whole file.
//
// Pattern ids may contain "!" and "#": source, kind and identity are read
// from the left, the hash and ranges from after the last "!", and the
// pattern id is everything in between.
type IgnoreMatcher struct {
	Source       string
	ResourceKind string
	IdentityKVs  map[string]string
	PatternID    string
	MatchHash    string
	StartLine    int
	EndLine      int
	StartColumn  int
	EndColumn    int

	hasLines   bool
	hasColumns bool
}

// ParseIgnoreEntry parses one ignore file line. It returns nil for blank
// lines, comments and malformed entries. isExact reports an entry without
// wildcards, which is matched by plain fingerprint comparison.
func ParseIgnoreEntry(line string) (m *IgnoreMatcher, isExact bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}

	m = &IgnoreMatcher{}
	isExact = true
	field := func(seg string) string {
		if seg == "*" || seg == "" {
			isExact = false
			return ""
		}
		return seg
	}

	head := strings.SplitN(line, "!", 4)
	m.Source = field(head[0])
	if len(head) > 1 {
		m.ResourceKind = field(head[1])
	}
	if len(head) > 2 {
		if seg := field(head[2]); seg != "" {
			kvs, ok := parseIdentity(seg)
			if !ok {
				return nil, false
			}
			m.IdentityKVs = kvs
		}
	}
	if len(head) < 4 {
		return m, false
	}

	rest := head[3]
	i := strings.LastIndex(rest, "!")
	if i < 0 {
		m.PatternID = field(rest)
		return m, false
	}
	m.PatternID = field(rest[:i])

	tail := rest[i+1:]
	hash, ranges, hasRanges := strings.Cut(tail, "#")
	m.MatchHash = field(hash)
	if !hasRanges {
		return m, false
	}
	lines, cols, hasCols := strings.Cut(ranges, "#")
	a, b, ok := parseRange(lines, 'L')
	if !ok {
		return nil, false
	}
	m.StartLine, m.EndLine, m.hasLines = a, b, true
	if !hasCols {
		return m, false
	}
	c, d, ok := parseRange(cols, 'C')
	if !ok {
		return nil, false
	}
	m.StartColumn, m.EndColumn, m.hasColumns = c, d, true
	return m, isExact
}

func parseIdentity(seg string) (map[string]string, bool) {
	kvs := make(map[string]string)
	for _, kv := range strings.Split(seg, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, false
		}
		kvs[k] = v
	}
	return kvs, true
}

// parseRange parses "{prefix}{a}-{b}".
func parseRange(seg string, prefix byte) (int, int, bool) {
	if len(seg) < 2 || seg[0] != prefix {
		return 0, 0, false
	}
	as, bs, ok := strings.Cut(seg[1:], "-")
	if !ok {
		return 0, 0, false
	}
	a, err := strconv.Atoi(as)
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(bs)
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

// matches compares m against the fingerprint fields fp of a finding. The
// finding's identity is its full resource metadata.
func (m *IgnoreMatcher) matches(fp *IgnoreMatcher) bool {
	if m.Source != "" && m.Source != fp.Source {
		return false
	}
	if m.ResourceKind != "" && m.ResourceKind != fp.ResourceKind {
		return false
	}
	if m.PatternID != "" && m.PatternID != fp.PatternID {
		return false
	}
	if m.MatchHash != "" && m.MatchHash != fp.MatchHash {
		return false
	}
	for k, v := range m.IdentityKVs {
		if got, ok := fp.IdentityKVs[k]; !ok || got != v {
			return false
		}
	}
	if m.hasLines && (m.StartLine != fp.StartLine || m.EndLine != fp.EndLine) {
		return false
	}
	if m.hasColumns && (m.StartColumn != fp.StartColumn || m.EndColumn != fp.EndColumn) {
		return false
	}
	return true
}

// IgnoreSet holds exact fingerprints plus wildcard matchers. Matchers naming
// a pattern id are indexed by it.
type IgnoreSet struct {
	exact     map[string]struct{}
	matchers  map[string][]*IgnoreMatcher
	unindexed []*IgnoreMatcher
}

func NewIgnoreSet() *IgnoreSet {
	return &IgnoreSet{
		exact:    make(map[string]struct{}),
		matchers: make(map[string][]*IgnoreMatcher),
	}
}

// Add parses line and adds it to the set. It reports whether line was a
// valid entry.
func (s *IgnoreSet) Add(line string) bool {
	m, isExact := ParseIgnoreEntry(line)
	if m == nil {
		return false
	}
	if isExact {
		s.exact[strings.TrimSpace(line)] = struct{}{}
		return true
	}
	if m.PatternID != "" {
		s.matchers[m.PatternID] = append(s.matchers[m.PatternID], m)
	} else {
		s.unindexed = append(s.unindexed, m)
	}
	return true
}

// Len returns the number of entries in the set.
func (s *IgnoreSet) Len() int {
	n := len(s.exact) + len(s.unindexed)
	for _, ms := range s.matchers {
		n += len(ms)
	}
	return n
}

// IsIgnored reports whether the fingerprinted finding f is suppressed.
func (s *IgnoreSet) IsIgnored(f *dictscan.Finding) bool {
	if s == nil {
		return false
	}
	if _, ok := s.exact[f.Fingerprint]; ok {
		return true
	}
	candidates := s.matchers[f.PatternID]
	if len(candidates) == 0 && len(s.unindexed) == 0 {
		return false
	}

	fp := findingFields(f)
	for _, m := range candidates {
		if m.matches(fp) {
			return true
		}
	}
	for _, m := range s.unindexed {
		if m.matches(fp) {
			return true
		}
	}
	return false
}

// findingFields takes the fingerprint fields of f from the finding itself, so
// pattern ids and paths containing "!" need no parsing. Only the match hash
// is read back, from after the last "!" of the fingerprint.
func findingFields(f *dictscan.Finding) *IgnoreMatcher {
	fp := &IgnoreMatcher{
		PatternID:   f.PatternID,
		StartLine:   f.StartLine,
		EndLine:     f.EndLine,
		StartColumn: f.StartColumn,
		EndColumn:   f.EndColumn,
	}
	fp.Source, fp.IdentityKVs = f.ResourceContext()
	if f.Fragment != nil && f.Fragment.Resource != nil {
		fp.ResourceKind = string(f.Fragment.Resource.Kind)
	}
	tail := f.Fingerprint[strings.LastIndex(f.Fingerprint, "!")+1:]
	fp.MatchHash, _, _ = strings.Cut(tail, "#")
	return fp
}

// LoadIgnoreFile adds the entries of the ignore file at path to set.
func LoadIgnoreFile(path string, set *IgnoreSet) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !set.Add(line) {
			logging.Warn().Str("fingerprint", line).Msg("invalid ignore file entry")
		}
	}
	return scanner.Err()
}

// LoadIgnoreFiles loads ignorePath, if it is a file, and the ignore files
// found in the ignorePath and sourcePath directories.
func LoadIgnoreFiles(ignorePath string, sourcePath string) *IgnoreSet {
	set := NewIgnoreSet()
	seen := make(map[string]bool)

	tryLoad := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return
		}
		logging.Debug().Str("path", path).Msg("loading ignore file")
		if err := LoadIgnoreFile(path, set); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("failed to load ignore file")
		}
	}

	tryLoad(ignorePath)
	tryLoad(filepath.Join(ignorePath, IgnoreFileName))
	tryLoad(filepath.Join(sourcePath, IgnoreFileName))
	return set
}
