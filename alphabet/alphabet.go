// Package alphabet turns text into automaton symbols. In byte mode every
// byte is a symbol; in rune mode every UTF-8 code point is.
package alphabet

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/dictscan/dictscan"
)

var ErrUnknownMode = errors.New("unknown symbol mode")

// Mode selects the symbol unit.
type Mode int

const (
	Bytes Mode = iota
	Runes
)

func (m Mode) String() string {
	switch m {
	case Bytes:
		return "bytes"
	case Runes:
		return "runes"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// UnmarshalText accepts "bytes" or "runes". An empty value selects Bytes.
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "bytes":
		*m = Bytes
	case "runes":
		*m = Runes
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, text)
	}
	return nil
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Encoder converts strings into symbol sequences.
type Encoder struct {
	Mode     Mode
	FoldCase bool
}

// Encode returns the symbols of s and, for each symbol, the byte offset in s
// where it starts. offsets has one extra trailing entry equal to len(s), so
// the symbol range [i, j) covers s[offsets[i]:offsets[j]].
func (e Encoder) Encode(s string) (symbols []dictscan.Symbol, offsets []int) {
	if e.Mode == Runes {
		symbols = make([]dictscan.Symbol, 0, utf8.RuneCountInString(s))
		offsets = make([]int, 0, cap(symbols)+1)
		for i, r := range s {
			if e.FoldCase {
				r = unicode.ToLower(r)
			}
			symbols = append(symbols, dictscan.Symbol(r))
			offsets = append(offsets, i)
		}
		return symbols, append(offsets, len(s))
	}

	symbols = make([]dictscan.Symbol, len(s))
	offsets = make([]int, len(s)+1)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if e.FoldCase && 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		symbols[i] = dictscan.Symbol(c)
		offsets[i] = i
	}
	offsets[len(s)] = len(s)
	return symbols, offsets
}

// Symbols is Encode without the offsets.
func (e Encoder) Symbols(s string) []dictscan.Symbol {
	symbols, _ := e.Encode(s)
	return symbols
}
