package automaton

// transition is the total goto function of the automaton. A missing trie
// edge falls back through suffix links until an edge, a cached entry or the
// root is found. Every node visited on the way caches the result, so each
// (node, symbol) pair is resolved at most once.
func (a *Automaton[S]) transition(h Handle, s S) Handle {
	if a.compiled {
		return a.lookup(h, s)
	}

	var chain []Handle
	cur := h
	var next Handle
	for {
		n := a.node(cur)
		if cached, ok := n.cache[s]; ok {
			next = cached
			break
		}
		if child, ok := n.children[s]; ok {
			next = child
			n.cache[s] = child
			break
		}
		if cur == Root {
			next = Root
			n.cache[s] = Root
			break
		}
		chain = append(chain, cur)
		cur = a.suffixLink(cur)
	}

	for _, c := range chain {
		a.node(c).cache[s] = next
	}
	return next
}

// suffixLink returns the node of the longest proper suffix of h's path that
// is also a path from the root.
//
// Unresolved ancestors are resolved top-down from an explicit stack: each
// link only needs the parent's link and one transition.
func (a *Automaton[S]) suffixLink(h Handle) Handle {
	if link := a.node(h).suffix; link != unresolved {
		return link
	}

	// Root's link is preset, so the walk always stops.
	var stack []Handle
	for cur := h; a.node(cur).suffix == unresolved; cur = a.node(cur).parent {
		stack = append(stack, cur)
	}

	for i := len(stack) - 1; i >= 0; i-- {
		n := a.node(stack[i])
		if n.parent == Root {
			n.suffix = Root
			continue
		}
		n.suffix = a.transition(a.node(n.parent).suffix, n.symbol)
	}
	return a.node(h).suffix
}

// outputLink returns the nearest terminal node strictly down h's suffix
// chain, or Root when there is none.
func (a *Automaton[S]) outputLink(h Handle) Handle {
	if link := a.node(h).output; link != unresolved {
		return link
	}

	// Every node on chain shares the same output link: the chain only
	// crosses non-terminal suffixes.
	var chain []Handle
	cur := h
	var out Handle
	for {
		if link := a.node(cur).output; link != unresolved {
			out = link
			break
		}
		chain = append(chain, cur)
		s := a.suffixLink(cur)
		if s == Root {
			out = Root
			break
		}
		if a.node(s).terminal {
			out = s
			break
		}
		cur = s
	}

	for _, c := range chain {
		a.node(c).output = out
	}
	return out
}

// lookup is transition for a compiled automaton. Every suffix link is
// resolved, so the fallback walk needs no writes. Entries cached before
// Compile are still used.
func (a *Automaton[S]) lookup(h Handle, s S) Handle {
	for cur := h; ; {
		n := a.node(cur)
		if next, ok := n.cache[s]; ok {
			return next
		}
		if child, ok := n.children[s]; ok {
			return child
		}
		if cur == Root {
			return Root
		}
		cur = n.suffix
	}
}

// Compile seals the automaton and resolves every suffix link and output
// link. Afterwards scanning never writes, which makes the automaton safe for
// concurrent readers. Transitions are not tabulated: a scan follows suffix
// links on a miss, amortized O(1) per symbol.
//
// Cost is linear in the total length of the registered patterns.
func (a *Automaton[S]) Compile() {
	if a.compiled {
		return
	}
	a.sealed = true
	for i := range a.nodes {
		h := Handle(i)
		a.suffixLink(h)
		a.outputLink(h)
	}
	a.compiled = true
}
