// Package regexp selects the regular expression engine used for allowlists.
// The default is the standard library; "re2" switches to go-re2.
package regexp

import (
	"fmt"
	stdlib "regexp"
	"strings"

	gore2 "github.com/wasilibs/go-re2"
)

// engine is satisfied by both *stdlib.Regexp and *gore2.Regexp.
type engine interface {
	MatchString(s string) bool
	FindString(s string) string
	FindAllStringIndex(s string, n int) [][]int
	String() string
}

// Regexp wraps a compiled regular expression. It is a concrete struct
// so that *Regexp works as a normal pointer (not pointer-to-interface).
type Regexp struct{ e engine }

func (r *Regexp) MatchString(s string) bool {
	return r.e.MatchString(s)
}
func (r *Regexp) FindString(s string) string {
	return r.e.FindString(s)
}
func (r *Regexp) FindAllStringIndex(s string, n int) [][]int {
	return r.e.FindAllStringIndex(s, n)
}
func (r *Regexp) String() string {
	return r.e.String()
}

var currentEngine = "stdlib"

// Version returns the name of the active regex engine.
func Version() string { return currentEngine }

// SetEngine selects the regex engine used by subsequent Compile calls.
func SetEngine(name string) error {
	switch name {
	case "stdlib", "re2":
		currentEngine = name
		return nil
	}
	return fmt.Errorf("regexp: unknown engine %q", name)
}

// Compile compiles a regular expression using the currently selected engine.
func Compile(str string) (*Regexp, error) {
	if currentEngine == "re2" {
		re, err := gore2.Compile(str)
		if err != nil {
			return nil, err
		}
		return &Regexp{e: re}, nil
	}
	re, err := stdlib.Compile(str)
	if err != nil {
		return nil, err
	}
	return &Regexp{e: re}, nil
}

// MustCompile is like Compile but panics if the expression cannot be parsed.
func MustCompile(str string) *Regexp {
	re, err := Compile(str)
	if err != nil {
		panic(fmt.Sprintf("regexp: Compile(%q): %v", str, err))
	}
	return re
}

// JoinOr combines expressions into one alternation. A single expression is
// returned as is.
func JoinOr(res []*Regexp) (*Regexp, error) {
	if len(res) == 1 {
		return res[0], nil
	}
	parts := make([]string, len(res))
	for i, re := range res {
		parts[i] = "(?:" + re.String() + ")"
	}
	return Compile(strings.Join(parts, "|"))
}
