// Package scan turns fragments into findings using a dictionary automaton.
package scan

import (
	"context"
	"fmt"

	"github.com/dictscan/dictscan"
	"github.com/dictscan/dictscan/alphabet"
	"github.com/dictscan/dictscan/automaton"
	"github.com/dictscan/dictscan/config"
	"github.com/dictscan/dictscan/logging"
)

// chunkSize is the number of symbols scanned between context checks.
const chunkSize = 64 * 1024

// Scanner finds dictionary patterns in fragments. It is safe for concurrent
// use once built.
type Scanner struct {
	Config *config.Config

	encoder   alphabet.Encoder
	automaton *automaton.Automaton[dictscan.Symbol]

	// patterns is indexed by automaton pattern index.
	patterns []config.Pattern

	ignore *IgnoreSet
}

// NewScanner registers every configured pattern and compiles the automaton.
// A pattern whose symbols equal an earlier one shadows it; the shadowed id
// is logged and never reported.
func NewScanner(cfg *config.Config) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scanner{
		Config:    cfg,
		encoder:   cfg.Encoder,
		automaton: automaton.New[dictscan.Symbol](),
		patterns:  make([]config.Pattern, 0, len(cfg.Patterns)),
	}
	for _, p := range cfg.Patterns {
		symbols := s.encoder.Symbols(p.Value)
		if prev := s.automaton.Index(symbols); prev >= 0 && s.patterns[prev].ID != p.ID {
			logging.Warn().
				Str("pattern", p.ID).
				Str("shadowed", s.patterns[prev].ID).
				Msg("duplicate pattern value, the later pattern wins")
		}
		idx, err := s.automaton.Register(symbols)
		if err != nil {
			return nil, fmt.Errorf("register pattern %q: %w", p.ID, err)
		}
		if idx != len(s.patterns) {
			return nil, fmt.Errorf("register pattern %q: unexpected index %d", p.ID, idx)
		}
		s.patterns = append(s.patterns, p)
	}
	s.automaton.Compile()

	logging.Debug().
		Int("patterns", s.automaton.Patterns()).
		Int("states", s.automaton.Len()).
		Str("symbols", s.encoder.Mode.String()).
		Msg("dictionary compiled")
	return s, nil
}

// Pattern returns the pattern reported under index i.
func (s *Scanner) Pattern(i int) config.Pattern {
	return s.patterns[i]
}

// Contains reports whether term is a registered pattern, after the same
// encoding and case folding applied to scanned text.
func (s *Scanner) Contains(term string) bool {
	return s.automaton.Contains(s.encoder.Symbols(term))
}

// SetIgnore installs the fingerprints to suppress.
func (s *Scanner) SetIgnore(set *IgnoreSet) {
	s.ignore = set
}

// ScanFragment returns every pattern occurrence in the fragment, ordered by
// end offset and, for a shared end, longest first. Offsets are byte offsets
// into fragment.Raw.
func (s *Scanner) ScanFragment(ctx context.Context, fragment dictscan.Fragment) ([]dictscan.Match, error) {
	symbols, offsets := s.encoder.Encode(fragment.Raw)
	stream := s.automaton.NewStream()

	var matches []dictscan.Match
	yield := func(m automaton.Match) bool {
		start, end := offsets[m.Start], offsets[m.End]
		matches = append(matches, dictscan.Match{
			PatternID:    s.patterns[m.Pattern].ID,
			PatternIndex: m.Pattern,
			MatchStart:   start,
			MatchEnd:     end,
			MatchString:  fragment.Raw[start:end],
		})
		return true
	}

	for len(symbols) > 0 {
		if err := ctx.Err(); err != nil {
			return matches, err
		}
		n := min(chunkSize, len(symbols))
		stream.FeedFunc(symbols[:n], yield)
		symbols = symbols[n:]
	}
	return matches, nil
}
