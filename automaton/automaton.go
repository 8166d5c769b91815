// Package automaton implements a multi-pattern exact-match automaton
// (Aho-Corasick) over sequences of ordered symbols.
//
// The trie is built eagerly by Register. Everything else the deterministic
// automaton needs is resolved lazily and memoized on first use:
//
//   - suffix links (the failure function)
//   - the goto transition of each (node, symbol) pair actually visited
//   - output links, the nearest pattern-terminal node on the suffix chain
//
// Each of those cells is written at most once. Once matching has begun the
// automaton is sealed and Register fails with ErrSealed.
//
// An Automaton is not safe for concurrent use while it is lazy: scanning
// writes to the caches. Compile resolves every suffix and output link; after
// it Scan, ScanFunc and Stream only read, so a compiled automaton may be
// shared by concurrent readers.
package automaton

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Handle addresses a node in the arena. Handles are never reused or
// invalidated.
type Handle int

const (
	// Root is the handle of the root node.
	Root Handle = 0

	// unresolved marks a lazy cell that has not been computed yet.
	unresolved Handle = -1
	// noParent is the parent of the root.
	noParent Handle = -1
)

var (
	// ErrEmptyPattern is returned by Register for a zero-length pattern.
	// An empty pattern would mark the root terminal, and the root is never
	// reported by the output-link walk.
	ErrEmptyPattern = errors.New("automaton: empty pattern")

	// ErrSealed is returned by Register once the automaton has been
	// scanned or compiled.
	ErrSealed = errors.New("automaton: registration after matching has begun")
)

// Match is one occurrence of a registered pattern in a scanned text.
// Start and End are symbol positions, End is exclusive.
type Match struct {
	Pattern int
	Start   int
	End     int
}

type node[S constraints.Ordered] struct {
	children map[S]Handle
	cache    map[S]Handle

	suffix Handle
	output Handle

	parent Handle
	symbol S

	terminal bool
	pattern  int
}

// Automaton is an Aho-Corasick automaton over symbols of type S.
// The zero value is not usable; create one with New.
type Automaton[S constraints.Ordered] struct {
	nodes    []node[S]
	patterns [][]S

	sealed   bool
	compiled bool
}

// New returns an empty automaton holding only the root node.
func New[S constraints.Ordered]() *Automaton[S] {
	a := &Automaton[S]{}
	a.nodes = append(a.nodes, node[S]{
		children: make(map[S]Handle),
		cache:    make(map[S]Handle),
		suffix:   Root,
		output:   Root,
		parent:   noParent,
	})
	return a
}

// Len returns the number of nodes, root included.
func (a *Automaton[S]) Len() int {
	return len(a.nodes)
}

// Patterns returns the number of registered patterns.
func (a *Automaton[S]) Patterns() int {
	return len(a.patterns)
}

// Pattern returns a copy of the pattern registered with index i.
func (a *Automaton[S]) Pattern(i int) []S {
	if i < 0 || i >= len(a.patterns) {
		panic(fmt.Sprintf("automaton: pattern index %d out of range [0,%d)", i, len(a.patterns)))
	}
	p := make([]S, len(a.patterns[i]))
	copy(p, a.patterns[i])
	return p
}

// Sealed reports whether matching has begun.
func (a *Automaton[S]) Sealed() bool {
	return a.sealed
}

// Compiled reports whether Compile has run.
func (a *Automaton[S]) Compiled() bool {
	return a.compiled
}

// node returns the node for h. An out of range handle is an internal
// inconsistency, never a caller error.
func (a *Automaton[S]) node(h Handle) *node[S] {
	if h < 0 || int(h) >= len(a.nodes) {
		panic(fmt.Sprintf("automaton: handle %d out of range [0,%d)", h, len(a.nodes)))
	}
	return &a.nodes[h]
}

// patternLen returns the length of the pattern ending at the terminal node h.
func (a *Automaton[S]) patternLen(h Handle) int {
	return len(a.patterns[a.node(h).pattern])
}
