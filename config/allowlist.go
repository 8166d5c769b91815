package config

import (
	"errors"
	"fmt"
	"strings"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
	"golang.org/x/exp/maps"

	"github.com/dictscan/dictscan"
	"github.com/dictscan/dictscan/logging"
	"github.com/dictscan/dictscan/regexp"
)

// ResourceMatcher matches a resource metadata key against a regex pattern.
// Parsed from "source:key:pattern" strings, e.g.:
//   - "file:path:vendor/.*"
//   - "[file,stdin]:path:\.lock$"
//   - "*:size:^0$"
type ResourceMatcher struct {
	Sources []string // nil means wildcard (match any source)
	Key     string
	Pattern *regexp.Regexp
}

// ParseResourceMatcher parses a resource matcher string into a ResourceMatcher.
// Supported formats:
//   - "source:key:pattern"             single source
//   - "[source1,source2]:key:pattern"  multiple sources
//   - "*:key:pattern"                  all sources
func ParseResourceMatcher(s string) (*ResourceMatcher, error) {
	var sources []string
	var rest string

	if strings.HasPrefix(s, "[") {
		closeBracket := strings.Index(s, "]")
		if closeBracket < 0 {
			return nil, fmt.Errorf("invalid resource matcher %q: unclosed bracket", s)
		}
		inner := s[1:closeBracket]
		if inner == "" {
			return nil, fmt.Errorf("invalid resource matcher %q: empty source list", s)
		}
		for _, src := range strings.Split(inner, ",") {
			src = strings.TrimSpace(src)
			if src == "" {
				return nil, fmt.Errorf("invalid resource matcher %q: empty source in list", s)
			}
			sources = append(sources, src)
		}
		if closeBracket+1 >= len(s) || s[closeBracket+1] != ':' {
			return nil, fmt.Errorf("invalid resource matcher %q: expected \":\" after \"]\"", s)
		}
		rest = s[closeBracket+2:]
	} else {
		firstColon := strings.Index(s, ":")
		if firstColon <= 0 {
			return nil, fmt.Errorf("invalid resource matcher %q: expected \"source:key:pattern\"", s)
		}
		if src := s[:firstColon]; src != "*" {
			sources = []string{src}
		}
		rest = s[firstColon+1:]
	}

	colonIdx := strings.Index(rest, ":")
	if colonIdx <= 0 {
		return nil, fmt.Errorf("invalid resource matcher %q: expected \"source:key:pattern\"", s)
	}
	key := rest[:colonIdx]
	pattern := rest[colonIdx+1:]
	if pattern == "" {
		return nil, fmt.Errorf("invalid resource matcher %q: pattern cannot be empty", s)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid resource matcher %q: %w", s, err)
	}
	return &ResourceMatcher{Sources: sources, Key: key, Pattern: re}, nil
}

// matchesSource reports whether source is covered. nil Sources is a wildcard.
func (m *ResourceMatcher) matchesSource(source string) bool {
	if m.Sources == nil {
		return true
	}
	for _, s := range m.Sources {
		if s == source {
			return true
		}
	}
	return false
}

type AllowlistMatchCondition int

const (
	AllowlistMatchOr AllowlistMatchCondition = iota
	AllowlistMatchAnd
)

func (a AllowlistMatchCondition) String() string {
	return [...]string{
		"OR",
		"AND",
	}[a]
}

// Allowlist suppresses findings by resource, by regex or by stop word.
type Allowlist struct {
	// Short human readable description of the allowlist.
	Description string

	// MatchCondition determines whether all criteria must match. Defaults to "OR".
	MatchCondition AllowlistMatchCondition

	// Paths is a slice of path regular expressions that are allowed to be ignored.
	Paths []*regexp.Regexp

	// RegexTarget is "match" (default) or "line".
	RegexTarget string

	// Regexes is slice of content regular expressions that are allowed to be ignored.
	Regexes []*regexp.Regexp

	// StopWords are matched case-insensitively against the matched text.
	StopWords []string

	// Resources is a slice of resource matchers in "source:key:pattern" format.
	Resources []*ResourceMatcher

	validated bool

	regexPat     *regexp.Regexp
	stopwordTrie *ahocorasick.Trie
	// resourceMap is indexed by [source][key]. The wildcard source is "".
	resourceMap map[string]map[string]*regexp.Regexp
}

func (ac AllowlistConfig) translate() (*Allowlist, error) {
	a := &Allowlist{
		Description: ac.Description,
		RegexTarget: ac.RegexTarget,
		StopWords:   ac.StopWords,
	}
	switch strings.ToUpper(ac.Condition) {
	case "", "OR":
		a.MatchCondition = AllowlistMatchOr
	case "AND", "&&":
		a.MatchCondition = AllowlistMatchAnd
	default:
		return nil, fmt.Errorf("unknown allowlist condition %q (expected OR or AND)", ac.Condition)
	}
	switch ac.RegexTarget {
	case "", "match", "line":
	default:
		return nil, fmt.Errorf("unknown allowlist regex-target %q (expected match or line)", ac.RegexTarget)
	}

	for _, p := range ac.Paths {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("allowlist path %q: %w", p, err)
		}
		a.Paths = append(a.Paths, re)
	}
	for _, p := range ac.Regexes {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("allowlist regex %q: %w", p, err)
		}
		a.Regexes = append(a.Regexes, re)
	}
	for _, s := range ac.Resources {
		rm, err := ParseResourceMatcher(s)
		if err != nil {
			return nil, err
		}
		a.Resources = append(a.Resources, rm)
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Allowlist) Validate() error {
	if a.validated {
		return nil
	}

	if len(a.Paths) == 0 &&
		len(a.Regexes) == 0 &&
		len(a.StopWords) == 0 &&
		len(a.Resources) == 0 {
		return errors.New("must contain at least one check for: paths, regexes, stopwords, or resources")
	}

	if len(a.StopWords) > 0 {
		unique := make(map[string]struct{})
		for _, stopWord := range a.StopWords {
			unique[strings.ToLower(stopWord)] = struct{}{}
		}
		values := maps.Keys(unique)
		a.StopWords = values
		a.stopwordTrie = ahocorasick.NewTrieBuilder().AddStrings(values).Build()
	}

	if len(a.Regexes) > 0 {
		pat, err := regexp.JoinOr(a.Regexes)
		if err != nil {
			return err
		}
		a.regexPat = pat
	}

	// Paths become a wildcard resource matcher on the path key.
	if len(a.Paths) > 0 {
		pathPat, err := regexp.JoinOr(a.Paths)
		if err != nil {
			return err
		}
		a.Resources = append(a.Resources, &ResourceMatcher{
			Key:     dictscan.MetaPath,
			Pattern: pathPat,
		})
	}

	if len(a.Resources) > 0 {
		type sourceKey struct {
			source string
			key    string
		}
		grouped := make(map[sourceKey][]*regexp.Regexp)
		for _, rm := range a.Resources {
			if rm.Sources == nil {
				sk := sourceKey{key: rm.Key}
				grouped[sk] = append(grouped[sk], rm.Pattern)
				continue
			}
			for _, src := range rm.Sources {
				sk := sourceKey{source: src, key: rm.Key}
				grouped[sk] = append(grouped[sk], rm.Pattern)
			}
		}

		a.resourceMap = make(map[string]map[string]*regexp.Regexp)
		for sk, patterns := range grouped {
			pat, err := regexp.JoinOr(patterns)
			if err != nil {
				return err
			}
			if a.resourceMap[sk.source] == nil {
				a.resourceMap[sk.source] = make(map[string]*regexp.Regexp)
			}
			a.resourceMap[sk.source][sk.key] = pat
		}
	}

	a.validated = true
	return nil
}

// RegexAllowed returns true if s matches one of the allowlist regexes.
func (a *Allowlist) RegexAllowed(s string) bool {
	if a == nil || s == "" {
		return false
	}
	if a.regexPat != nil {
		return a.regexPat.MatchString(s)
	}
	for _, re := range a.Regexes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// ResourceAllowed returns true if any resource matcher matches (OR logic).
func (a *Allowlist) ResourceAllowed(source string, metadata map[string]string) bool {
	if a == nil || len(a.Resources) == 0 || metadata == nil {
		return false
	}

	if a.resourceMap != nil {
		for _, src := range []string{"", source} {
			for key, pattern := range a.resourceMap[src] {
				if val, ok := metadata[key]; ok && pattern.MatchString(val) {
					return true
				}
			}
		}
		return false
	}

	for _, m := range a.Resources {
		if !m.matchesSource(source) {
			continue
		}
		if val, ok := metadata[m.Key]; ok && m.Pattern.MatchString(val) {
			return true
		}
	}
	return false
}

// ResourceKeyAllowed returns true if any resource matcher matches the given
// source and single key/value pair. Sources use it to skip paths before
// reading them.
func (a *Allowlist) ResourceKeyAllowed(source, key, value string) bool {
	if a == nil || len(a.Resources) == 0 || value == "" {
		return false
	}

	if a.resourceMap != nil {
		for _, src := range []string{"", source} {
			if pattern, ok := a.resourceMap[src][key]; ok && pattern.MatchString(value) {
				return true
			}
		}
		return false
	}

	for _, m := range a.Resources {
		if m.matchesSource(source) && m.Key == key && m.Pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// ContainsStopWord reports the first stop word found in s.
func (a *Allowlist) ContainsStopWord(s string) (bool, string) {
	if a == nil || s == "" {
		return false, ""
	}

	s = strings.ToLower(s)
	if a.stopwordTrie != nil {
		if m := a.stopwordTrie.MatchFirstString(s); m != nil {
			return true, m.MatchString()
		}
		return false, ""
	}
	for _, stopWord := range a.StopWords {
		if strings.Contains(s, strings.ToLower(stopWord)) {
			return true, stopWord
		}
	}
	return false, ""
}

// fragmentAllowed evaluates only resource checks. In AND mode a content
// check can never be satisfied at fragment level.
func (a *Allowlist) fragmentAllowed(source string, metadata map[string]string) bool {
	if a == nil {
		return false
	}
	resourceAllowed := a.ResourceAllowed(source, metadata)

	if a.MatchCondition == AllowlistMatchAnd {
		if len(a.Regexes) > 0 || len(a.StopWords) > 0 {
			return false
		}
		return len(a.Resources) > 0 && resourceAllowed
	}
	return resourceAllowed
}

func (a *Allowlist) findingAllowed(regexTarget, match, source string, metadata map[string]string) bool {
	if a == nil {
		return false
	}

	resourceAllowed := a.ResourceAllowed(source, metadata)
	regexAllowed := a.RegexAllowed(regexTarget)
	containsStopword, _ := a.ContainsStopWord(match)

	if a.MatchCondition == AllowlistMatchAnd {
		var checks []bool
		if len(a.Regexes) > 0 {
			checks = append(checks, regexAllowed)
		}
		if len(a.StopWords) > 0 {
			checks = append(checks, containsStopword)
		}
		if len(a.Resources) > 0 {
			checks = append(checks, resourceAllowed)
		}
		for _, c := range checks {
			if !c {
				return false
			}
		}
		return len(checks) > 0
	}

	return regexAllowed || containsStopword || resourceAllowed
}

// PathAllowed reports whether a source may skip path without reading it.
func (c *Config) PathAllowed(source, path string) bool {
	if c == nil {
		return false
	}
	if c.Path != "" && path == c.Path {
		return true
	}
	for _, a := range c.Allowlists {
		if a.MatchCondition == AllowlistMatchAnd && (len(a.Regexes) > 0 || len(a.StopWords) > 0) {
			continue
		}
		if a.ResourceKeyAllowed(source, dictscan.MetaPath, path) {
			return true
		}
	}
	return false
}

// FragmentAllowed returns true if the fragment should be scanned (not allowlisted).
func (c *Config) FragmentAllowed(fragment dictscan.Fragment) bool {
	if fragment.Path != "" && fragment.Path == c.Path {
		logging.Trace().Msg("skipping file: matches config path")
		return false
	}

	source, metadata := fragment.ResourceContext()
	for _, a := range c.Allowlists {
		if a.fragmentAllowed(source, metadata) {
			return false
		}
	}
	return true
}

// FindingAllowed returns true if the finding should be reported (not allowlisted).
func (c *Config) FindingAllowed(finding dictscan.Finding) bool {
	source, metadata := finding.ResourceContext()
	for _, a := range c.Allowlists {
		target := finding.Match
		if a.RegexTarget == "line" {
			target = finding.Line
		}
		if a.findingAllowed(target, finding.Match, source, metadata) {
			return false
		}
	}
	return true
}
