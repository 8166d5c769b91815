package dictscan

// Symbol is the unit the automaton matches on. Text is turned into symbols
// by the alphabet package: one per byte or one per rune.
type Symbol = uint32

// Match represents a dictionary pattern found in a fragment.
// MatchStart and MatchEnd are byte offsets into the fragment's Raw content.
type Match struct {
	PatternID    string
	PatternIndex int
	MatchStart   int
	MatchEnd     int
	MatchString  string
}
