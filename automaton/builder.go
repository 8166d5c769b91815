package automaton

// Register adds pattern to the trie and returns its index in the pattern
// table. Existing edges are reused; missing ones are appended to the arena.
//
// Registering the same sequence twice is allowed: the node stays terminal
// and later matches report the newer index.
func (a *Automaton[S]) Register(pattern []S) (int, error) {
	if a.sealed {
		return 0, ErrSealed
	}
	if len(pattern) == 0 {
		return 0, ErrEmptyPattern
	}

	cur := Root
	for _, s := range pattern {
		child, ok := a.node(cur).children[s]
		if !ok {
			a.nodes = append(a.nodes, node[S]{
				children: make(map[S]Handle),
				cache:    make(map[S]Handle),
				suffix:   unresolved,
				output:   unresolved,
				parent:   cur,
				symbol:   s,
			})
			child = Handle(len(a.nodes) - 1)
			// a.nodes may have been reallocated by append.
			a.node(cur).children[s] = child
		}
		cur = child
	}

	p := make([]S, len(pattern))
	copy(p, pattern)
	a.patterns = append(a.patterns, p)

	end := a.node(cur)
	end.terminal = true
	end.pattern = len(a.patterns) - 1
	return end.pattern, nil
}

// Contains reports whether pattern was registered. It walks trie edges only
// and never touches the lazy caches.
func (a *Automaton[S]) Contains(pattern []S) bool {
	h, ok := a.walk(pattern)
	return ok && a.node(h).terminal
}

// Index returns the pattern index reported for pattern, or -1 if pattern
// was never registered.
func (a *Automaton[S]) Index(pattern []S) int {
	h, ok := a.walk(pattern)
	if !ok || !a.node(h).terminal {
		return -1
	}
	return a.node(h).pattern
}

// walk follows trie edges from the root. It fails on a missing edge and on
// the empty pattern.
func (a *Automaton[S]) walk(pattern []S) (Handle, bool) {
	if len(pattern) == 0 {
		return Root, false
	}
	cur := Root
	for _, s := range pattern {
		child, ok := a.node(cur).children[s]
		if !ok {
			return Root, false
		}
		cur = child
	}
	return cur, true
}
