package automaton

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/constraints"
)

func bytesOf(s string) []byte { return []byte(s) }

func newBytes(t testing.TB, patterns ...string) *Automaton[byte] {
	t.Helper()
	a := New[byte]()
	for _, p := range patterns {
		_, err := a.Register(bytesOf(p))
		require.NoError(t, err)
	}
	return a
}

func TestScanUshers(t *testing.T) {
	a := newBytes(t, "he", "she", "his", "hers")

	got := a.Scan(bytesOf("ushers"))
	want := []Match{
		{Pattern: 1, Start: 1, End: 4},
		{Pattern: 0, Start: 2, End: 4},
		{Pattern: 3, Start: 2, End: 6},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan(ushers) mismatch (-want +got):\n%s", diff)
	}
}

func TestScanUint32Symbols(t *testing.T) {
	a := New[uint32]()
	for _, p := range [][]uint32{{1, 2, 3, 0}, {1, 2, 0}, {2, 0}, {3, 1}, {2, 3, 4}} {
		_, err := a.Register(p)
		require.NoError(t, err)
	}

	got := a.Scan([]uint32{1, 2, 0, 4, 1, 2, 3, 0, 1, 2, 3, 0})
	want := []Match{
		{Pattern: 1, Start: 0, End: 3},
		{Pattern: 2, Start: 1, End: 3},
		{Pattern: 0, Start: 4, End: 8},
		{Pattern: 0, Start: 8, End: 12},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestRegister(t *testing.T) {
	a := New[byte]()

	idx, err := a.Register(bytesOf("abc"))
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 4, a.Len())

	// shares the "ab" prefix
	idx, err = a.Register(bytesOf("abd"))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 5, a.Len())

	// a prefix of an existing path adds no node
	idx, err = a.Register(bytesOf("a"))
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Equal(t, 5, a.Len())

	assert.Equal(t, 3, a.Patterns())
	assert.Equal(t, bytesOf("abd"), a.Pattern(1))
}

func TestRegisterCopiesPattern(t *testing.T) {
	a := New[byte]()
	p := bytesOf("abc")
	_, err := a.Register(p)
	require.NoError(t, err)

	p[0] = 'x'
	assert.True(t, a.Contains(bytesOf("abc")))
	assert.Equal(t, bytesOf("abc"), a.Pattern(0))

	// mutating the returned copy does not leak back either
	a.Pattern(0)[1] = 'y'
	assert.Equal(t, bytesOf("abc"), a.Pattern(0))
}

func TestRegisterEmptyPattern(t *testing.T) {
	a := New[byte]()
	_, err := a.Register(nil)
	require.ErrorIs(t, err, ErrEmptyPattern)
	_, err = a.Register([]byte{})
	require.ErrorIs(t, err, ErrEmptyPattern)

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 0, a.Patterns())
	assert.False(t, a.Contains(nil))
}

func TestRegisterAfterScan(t *testing.T) {
	tests := []struct {
		name  string
		start func(a *Automaton[byte])
	}{
		{"scan", func(a *Automaton[byte]) { a.Scan(bytesOf("xyz")) }},
		{"scan empty text", func(a *Automaton[byte]) { a.Scan(nil) }},
		{"stream", func(a *Automaton[byte]) { a.NewStream() }},
		{"compile", func(a *Automaton[byte]) { a.Compile() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newBytes(t, "he")
			assert.False(t, a.Sealed())
			tt.start(a)
			assert.True(t, a.Sealed())

			_, err := a.Register(bytesOf("she"))
			require.ErrorIs(t, err, ErrSealed)
			assert.False(t, a.Contains(bytesOf("she")))
			assert.Equal(t, 1, a.Patterns())
		})
	}
}

func TestDuplicateRegistration(t *testing.T) {
	a := newBytes(t, "ab", "b", "ab")

	assert.True(t, a.Contains(bytesOf("ab")))
	assert.Equal(t, 3, a.Patterns())
	assert.Equal(t, 2, a.Index(bytesOf("ab")))
	assert.Equal(t, 1, a.Index(bytesOf("b")))

	got := a.Scan(bytesOf("xab"))
	want := []Match{
		{Pattern: 2, Start: 1, End: 3},
		{Pattern: 1, Start: 2, End: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestContains(t *testing.T) {
	a := newBytes(t, "he", "she", "his", "hers")

	tests := []struct {
		pattern string
		want    bool
	}{
		{"he", true},
		{"she", true},
		{"his", true},
		{"hers", true},
		{"", false},
		{"h", false},
		{"her", false},
		{"hersx", false},
		{"sh", false},
		{"x", false},
		{"ushers", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Contains(bytesOf(tt.pattern)))
		})
	}
}

func TestContainsLeavesCachesEmpty(t *testing.T) {
	a := newBytes(t, "he", "she", "his", "hers")
	for _, p := range []string{"he", "she", "hx", "hers", "ushers"} {
		a.Contains(bytesOf(p))
	}
	assert.Zero(t, cacheEntries(a))
	for i := 1; i < a.Len(); i++ {
		assert.Equal(t, unresolved, a.nodes[i].suffix, "node %d", i)
		assert.Equal(t, unresolved, a.nodes[i].output, "node %d", i)
	}
	assert.False(t, a.Sealed())
}

// handleOf returns the node reached by following pattern's trie edges.
func handleOf(t *testing.T, a *Automaton[byte], pattern string) Handle {
	t.Helper()
	h, ok := a.walk(bytesOf(pattern))
	require.True(t, ok, "no trie path for %q", pattern)
	return h
}

func TestSuffixLinks(t *testing.T) {
	a := newBytes(t, "he", "she", "his", "hers")

	assert.Equal(t, Root, a.suffixLink(Root))

	tests := []struct {
		node string
		want string // "" is the root
	}{
		{"h", ""},
		{"s", ""},
		{"he", ""},
		{"hi", ""},
		{"sh", "h"},
		{"she", "he"},
		{"his", "s"},
		{"her", ""},
		{"hers", "s"},
	}
	for _, tt := range tests {
		t.Run(tt.node, func(t *testing.T) {
			want := Root
			if tt.want != "" {
				want = handleOf(t, a, tt.want)
			}
			assert.Equal(t, want, a.suffixLink(handleOf(t, a, tt.node)))
		})
	}
}

func TestOutputLinks(t *testing.T) {
	a := newBytes(t, "he", "she", "his", "hers", "e", "rs")

	tests := []struct {
		node string
		want string
	}{
		{"she", "he"},
		{"he", "e"},
		{"sh", ""}, // h is not terminal
		{"hers", "rs"},
		{"his", ""},
		{"e", ""},
	}
	for _, tt := range tests {
		t.Run(tt.node, func(t *testing.T) {
			want := Root
			if tt.want != "" {
				want = handleOf(t, a, tt.want)
			}
			assert.Equal(t, want, a.outputLink(handleOf(t, a, tt.node)))
		})
	}

	// the nested chain she -> he -> e is reported longest first
	got := a.Scan(bytesOf("she"))
	want := []Match{
		{Pattern: 1, Start: 0, End: 3},
		{Pattern: 0, Start: 1, End: 3},
		{Pattern: 4, Start: 2, End: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestOutputLinkSkipsNonTerminalSuffixes(t *testing.T) {
	a := newBytes(t, "abcd", "bcd", "cd", "d")
	// abcd -> bcd -> cd -> d; only d is a pattern.
	b := newBytes(t, "abcdx", "bcdx", "cdx", "d")

	assert.Equal(t, handleOf(t, a, "bcd"), a.outputLink(handleOf(t, a, "abcd")))
	assert.Equal(t, handleOf(t, b, "d"), b.outputLink(handleOf(t, b, "abcd")))
	assert.Equal(t, handleOf(t, b, "d"), b.outputLink(handleOf(t, b, "bcd")))
}

func TestTransitionMemoization(t *testing.T) {
	a := newBytes(t, "he", "she", "his", "hers")
	she := handleOf(t, a, "she")

	// she --r--> her through the suffix link she -> he
	her := handleOf(t, a, "her")
	assert.Equal(t, her, a.transition(she, 'r'))
	assert.Equal(t, her, a.nodes[she].cache['r'])

	// unknown symbol falls all the way to the root and is cached on the way
	assert.Equal(t, Root, a.transition(she, 'z'))
	assert.Equal(t, Root, a.nodes[she].cache['z'])
	assert.Equal(t, Root, a.nodes[handleOf(t, a, "he")].cache['z'])
	assert.Equal(t, Root, a.nodes[Root].cache['z'])

	before := cacheEntries(a)
	assert.Equal(t, her, a.transition(she, 'r'))
	assert.Equal(t, before, cacheEntries(a))
}

func TestScanEmpty(t *testing.T) {
	a := newBytes(t, "he", "she")
	assert.Empty(t, a.Scan(nil))
	assert.Empty(t, a.Scan(bytesOf("xyzzy")))

	empty := New[byte]()
	assert.Empty(t, empty.Scan(bytesOf("anything")))
}

func TestScanIsDeterministic(t *testing.T) {
	a := newBytes(t, "a", "aa", "aaa", "ab", "ba")
	text := bytesOf("aabaaabab")

	first := a.Scan(text)
	require.NotEmpty(t, first)
	second := a.Scan(text)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second scan differs (-first +second):\n%s", diff)
	}
}

func TestScanFuncStops(t *testing.T) {
	a := newBytes(t, "a", "aa")
	var got []Match
	a.ScanFunc(bytesOf("aaaa"), func(m Match) bool {
		got = append(got, m)
		return len(got) < 2
	})
	want := []Match{
		{Pattern: 0, Start: 0, End: 1},
		{Pattern: 1, Start: 0, End: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ScanFunc mismatch (-want +got):\n%s", diff)
	}
}

func TestLongPattern(t *testing.T) {
	const n = 100_000
	long := strings.Repeat("a", n)
	a := newBytes(t, long, "aa")

	got := a.Scan(bytesOf(long + "a"))
	var longMatches int
	for _, m := range got {
		if m.Pattern == 0 {
			longMatches++
		}
	}
	assert.Equal(t, 2, longMatches)
	// "aa" ends at every position from 1 to n
	assert.Len(t, got, 2+n)
}

func TestCompile(t *testing.T) {
	patterns := []string{"he", "she", "his", "hers", "e", "rs"}
	lazy := newBytes(t, patterns...)
	compiled := newBytes(t, patterns...)
	compiled.Compile()
	assert.True(t, compiled.Compiled())
	assert.True(t, compiled.Sealed())

	entries := cacheEntries(compiled)
	for _, text := range []string{"ushers", "she sells his hers", "", "zzz", "hhhhers"} {
		t.Run(text, func(t *testing.T) {
			want := lazy.Scan(bytesOf(text))
			got := compiled.Scan(bytesOf(text))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("compiled scan differs (-lazy +compiled):\n%s", diff)
			}
			assert.Equal(t, entries, cacheEntries(compiled), "compiled scan wrote to the cache")
		})
	}

	// idempotent
	compiled.Compile()
	assert.Equal(t, entries, cacheEntries(compiled))
}

func TestCompileLargeDictionaryCacheBounded(t *testing.T) {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0"
	r := rand.New(rand.NewPCG(9, 9))

	lazy, compiled := New[byte](), New[byte]()
	totalLen := 0
	for i := 0; i < 20000; i++ {
		w := randomBytes(r, letters, 5, 12)
		totalLen += len(w)
		_, err := lazy.Register(w)
		require.NoError(t, err)
		_, err = compiled.Register(w)
		require.NoError(t, err)
	}
	compiled.Compile()

	// resolving the links touches O(total pattern length) cells, never
	// nodes times alphabet
	entries := cacheEntries(compiled)
	assert.LessOrEqual(t, entries, 2*totalLen)
	assert.Less(t, entries, compiled.Len()*len(letters)/10)

	text := randomBytes(r, letters+" ", 32*1024, 32*1024)
	if diff := cmp.Diff(lazy.Scan(text), compiled.Scan(text)); diff != "" {
		t.Fatalf("compiled scan differs (-lazy +compiled):\n%s", diff)
	}
	assert.Equal(t, entries, cacheEntries(compiled), "compiled scan wrote to the cache")
}

func TestStreamMatchesScan(t *testing.T) {
	a := newBytes(t, "he", "she", "his", "hers")
	text := bytesOf("ushers and his hershe")
	want := a.Scan(text)

	for size := 1; size <= len(text); size++ {
		st := a.NewStream()
		var got []Match
		for off := 0; off < len(text); off += size {
			end := min(off+size, len(text))
			got = append(got, st.Feed(text[off:end])...)
		}
		assert.Equal(t, len(text), st.Offset())
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("chunk size %d (-scan +stream):\n%s", size, diff)
		}
	}
}

func TestStreamReset(t *testing.T) {
	a := newBytes(t, "abc")
	st := a.NewStream()
	assert.Empty(t, st.Feed(bytesOf("ab")))
	st.Reset()
	assert.Zero(t, st.Offset())
	assert.Empty(t, st.Feed(bytesOf("c")))

	got := st.Feed(bytesOf("xabc"))
	assert.Equal(t, []Match{{Pattern: 0, Start: 2, End: 5}}, got)
}

func TestStreamFeedFuncStops(t *testing.T) {
	a := newBytes(t, "a")
	st := a.NewStream()
	ok := st.FeedFunc(bytesOf("xaxa"), func(Match) bool { return false })
	assert.False(t, ok)
	assert.Equal(t, 2, st.Offset())

	got := st.Feed(bytesOf("a"))
	assert.Equal(t, []Match{{Pattern: 0, Start: 2, End: 3}}, got)
}

func TestInvalidHandlePanics(t *testing.T) {
	a := newBytes(t, "he")
	assert.Panics(t, func() { a.suffixLink(Handle(a.Len())) })
	assert.Panics(t, func() { a.transition(Handle(-2), 'h') })
	assert.Panics(t, func() { a.Pattern(1) })
}

func cacheEntries[S constraints.Ordered](a *Automaton[S]) int {
	n := 0
	for i := range a.nodes {
		n += len(a.nodes[i].cache)
	}
	return n
}
