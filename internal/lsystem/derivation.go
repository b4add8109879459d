package lsystem

import (
	"sort"
	"strings"
)

// Symbol is one element of a derived sequence together with its immediate
// neighbours (0 at either end).
type Symbol struct {
	Char  rune
	Left  rune
	Right rune
}

// Derivation is the frozen output of Grammar.Derive. It is never mutated and
// may be shared by any number of growth instances.
type Derivation struct {
	grammar *Grammar
	symbols []Symbol
}

func (d *Derivation) Grammar() *Grammar { return d.grammar }
func (d *Derivation) Len() int          { return len(d.symbols) }
func (d *Derivation) At(i int) Symbol   { return d.symbols[i] }

// Symbols returns a copy of the sequence.
func (d *Derivation) Symbols() []Symbol {
	return append([]Symbol(nil), d.symbols...)
}

func (d *Derivation) String() string {
	var b strings.Builder
	b.Grow(len(d.symbols))
	for _, s := range d.symbols {
		b.WriteRune(s.Char)
	}
	return b.String()
}

// Alphabet returns the distinct symbols in order of first appearance.
func (d *Derivation) Alphabet() []rune {
	seen := make(map[rune]bool)
	var out []rune
	for _, s := range d.symbols {
		if !seen[s.Char] {
			seen[s.Char] = true
			out = append(out, s.Char)
		}
	}
	return out
}

// Histogram counts occurrences of each symbol.
func (d *Derivation) Histogram() map[rune]int {
	h := make(map[rune]int)
	for _, s := range d.symbols {
		h[s.Char]++
	}
	return h
}

// MaxDepth is the deepest bracket nesting in the sequence. It returns -1 when
// a ']' appears without a matching '['.
func (d *Derivation) MaxDepth() int {
	depth, deepest := 0, 0
	for _, s := range d.symbols {
		switch s.Char {
		case '[':
			depth++
			if depth > deepest {
				deepest = depth
			}
		case ']':
			depth--
			if depth < 0 {
				return -1
			}
		}
	}
	return deepest
}

// SortedHistogram returns Histogram as (symbol, count) pairs, most frequent first.
func (d *Derivation) SortedHistogram() []SymbolCount {
	h := d.Histogram()
	out := make([]SymbolCount, 0, len(h))
	for c, n := range h {
		out = append(out, SymbolCount{Symbol: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

type SymbolCount struct {
	Symbol rune
	Count  int
}
