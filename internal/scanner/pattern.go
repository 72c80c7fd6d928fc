// Package scanner locates a byte signature inside a module snapshot and
// derives the address of the field that follows it.
package scanner

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Pattern is a byte signature with wildcards and save points.
//
// Syntax is whitespace separated tokens:
//
//	01     literal byte (hex)
//	? ??   any byte
//	'      save the current offset as the next capture
//
// A save marker may also prefix a byte token, e.g. "'73".
type Pattern struct {
	bytes []byte
	mask  []bool // true when the byte must match
	saves []int  // pattern offsets recorded as captures 1..n
}

// Match is one occurrence of a pattern.
// Captures[0] is the match start; Captures[i] is the offset of save point i.
type Match struct {
	Captures []int
}

// ParsePattern parses the signature syntax described on Pattern.
func ParsePattern(s string) (Pattern, error) {
	var p Pattern
	for _, tok := range strings.Fields(s) {
		for strings.HasPrefix(tok, "'") {
			p.saves = append(p.saves, len(p.bytes))
			tok = tok[1:]
		}
		if tok == "" {
			continue
		}
		if tok == "?" || tok == "??" {
			p.bytes = append(p.bytes, 0)
			p.mask = append(p.mask, false)
			continue
		}
		if len(tok) != 2 {
			return Pattern{}, fmt.Errorf("invalid pattern token %q", tok)
		}
		b, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid pattern token %q: %w", tok, err)
		}
		p.bytes = append(p.bytes, byte(b))
		p.mask = append(p.mask, true)
	}
	if len(p.bytes) == 0 {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	if p.anchor() < 0 {
		return Pattern{}, fmt.Errorf("pattern %q has no literal bytes", s)
	}
	return p, nil
}

// MustParsePattern is like ParsePattern but panics on error.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the pattern length in bytes.
func (p Pattern) Len() int {
	return len(p.bytes)
}

// Saves returns the number of save points.
func (p Pattern) Saves() int {
	return len(p.saves)
}

// Find returns the first occurrence of p in buf.
func (p Pattern) Find(buf []byte) (Match, bool) {
	m := p.FindAll(buf, 1)
	if len(m) == 0 {
		return Match{}, false
	}
	return m[0], true
}

// FindAll returns up to limit occurrences in buffer order. limit <= 0 means no limit.
func (p Pattern) FindAll(buf []byte, limit int) []Match {
	var out []Match
	anchor := p.anchor()
	last := len(buf) - len(p.bytes)

	for start := 0; start <= last; {
		// Jump to the next position where the anchor byte lines up.
		i := bytes.IndexByte(buf[start+anchor:last+anchor+1], p.bytes[anchor])
		if i < 0 {
			break
		}
		pos := start + i
		if p.matchAt(buf, pos) {
			out = append(out, p.match(pos))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		start = pos + 1
	}
	return out
}

func (p Pattern) matchAt(buf []byte, pos int) bool {
	for j, b := range p.bytes {
		if p.mask[j] && buf[pos+j] != b {
			return false
		}
	}
	return true
}

func (p Pattern) match(pos int) Match {
	caps := make([]int, 0, len(p.saves)+1)
	caps = append(caps, pos)
	for _, s := range p.saves {
		caps = append(caps, pos+s)
	}
	return Match{Captures: caps}
}

// anchor returns the index of the first literal byte, or -1.
func (p Pattern) anchor() int {
	for i, m := range p.mask {
		if m {
			return i
		}
	}
	return -1
}
