package automaton

import "golang.org/x/exp/constraints"

// Scan returns every occurrence of every registered pattern in text.
//
// Matches are ordered by end position. Matches sharing an end position go
// from the longest to the shortest. Scanning the same text twice yields the
// same sequence.
func (a *Automaton[S]) Scan(text []S) []Match {
	var matches []Match
	a.ScanFunc(text, func(m Match) bool {
		matches = append(matches, m)
		return true
	})
	return matches
}

// ScanFunc is Scan without the intermediate slice. Scanning stops as soon as
// yield returns false.
func (a *Automaton[S]) ScanFunc(text []S, yield func(Match) bool) {
	a.seal()
	state := Root
	for i, s := range text {
		state = a.transition(state, s)
		if !a.report(state, i, 0, yield) {
			return
		}
	}
}

// report walks the output chain of state, emitting every pattern that ends at
// position end. base is added to every reported position.
func (a *Automaton[S]) report(state Handle, end, base int, yield func(Match) bool) bool {
	for cur := state; cur != Root; cur = a.outputLink(cur) {
		n := a.node(cur)
		if !n.terminal {
			continue
		}
		m := Match{
			Pattern: n.pattern,
			Start:   base + end - a.patternLen(cur) + 1,
			End:     base + end + 1,
		}
		if !yield(m) {
			return false
		}
	}
	return true
}

func (a *Automaton[S]) seal() {
	// Compiled automata are already sealed; skipping the write keeps
	// concurrent readers race free.
	if !a.sealed {
		a.sealed = true
	}
}

// Stream scans a text delivered in chunks. Positions in reported matches are
// relative to the start of the whole stream, so a pattern split across two
// chunks is found with its true start.
//
// A Stream shares the automaton's caches; streams of a compiled automaton
// may run concurrently, each on its own goroutine.
type Stream[S constraints.Ordered] struct {
	a      *Automaton[S]
	state  Handle
	offset int
}

// NewStream seals the automaton and returns a stream positioned at offset 0.
func (a *Automaton[S]) NewStream() *Stream[S] {
	a.seal()
	return &Stream[S]{a: a, state: Root}
}

// Feed scans chunk and returns the matches that end inside it.
func (st *Stream[S]) Feed(chunk []S) []Match {
	var matches []Match
	st.FeedFunc(chunk, func(m Match) bool {
		matches = append(matches, m)
		return true
	})
	return matches
}

// FeedFunc is Feed without the intermediate slice. If yield returns false the
// remaining symbols of chunk are dropped; the stream resumes after the symbol
// that produced the rejected match.
func (st *Stream[S]) FeedFunc(chunk []S, yield func(Match) bool) bool {
	for i, s := range chunk {
		st.state = st.a.transition(st.state, s)
		if !st.a.report(st.state, i, st.offset, yield) {
			st.offset += i + 1
			return false
		}
	}
	st.offset += len(chunk)
	return true
}

// Offset returns the number of symbols consumed so far.
func (st *Stream[S]) Offset() int {
	return st.offset
}

// Reset returns the stream to the root state at offset 0.
func (st *Stream[S]) Reset() {
	st.state = Root
	st.offset = 0
}
