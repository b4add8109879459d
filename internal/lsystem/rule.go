package lsystem

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule is one production. Left and Right are 0 when the rule carries no
// context on that side.
type Rule struct {
	Pred  rune
	Left  rune
	Right rune
	Succ  []rune
}

// HasContext reports whether the rule is context-sensitive.
func (r Rule) HasContext() bool { return r.Left != 0 || r.Right != 0 }

// specificity orders matching rules: both contexts, one context, none.
func (r Rule) specificity() int {
	n := 0
	if r.Left != 0 {
		n++
	}
	if r.Right != 0 {
		n++
	}
	return n
}

func (r Rule) String() string {
	var b strings.Builder
	if r.Left != 0 {
		b.WriteRune(r.Left)
		b.WriteByte('<')
	}
	b.WriteRune(r.Pred)
	if r.Right != 0 {
		b.WriteByte('>')
		b.WriteRune(r.Right)
	}
	b.WriteString("->")
	b.WriteString(string(r.Succ))
	return b.String()
}

// ParseRules parses one rule per line. The predecessor is `S`, `L<S`, `S>R`
// or `L<S>R`; every symbol is a single rune and may itself be '<', '>' or
// '-', so `F>-->X` has right context '-' and `<->X` rewrites '<'. Spaces
// between symbols are ignored. Blank lines are skipped.
func ParseRules(text string) ([]Rule, error) {
	var rules []Rule
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r, err := parseRule(line)
		if err != nil {
			return nil, fmt.Errorf("line %d %q: %w", n+1, line, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func parseRule(line string) (Rule, error) {
	sc := ruleScanner{s: line}

	var r Rule
	c, ok := sc.symbol()
	if !ok {
		return Rule{}, fmt.Errorf("%w: missing predecessor", ErrMalformedRule)
	}
	r.Pred = c
	if sc.accept('<') {
		if c, ok = sc.symbol(); !ok {
			return Rule{}, fmt.Errorf("%w: missing predecessor after left context", ErrMalformedRule)
		}
		r.Left, r.Pred = r.Pred, c
	}
	if sc.accept('>') {
		if c, ok = sc.symbol(); !ok {
			return Rule{}, fmt.Errorf("%w: missing right context", ErrMalformedRule)
		}
		r.Right = c
	}
	if !sc.arrow() {
		return Rule{}, fmt.Errorf("%w: missing -> after %q", ErrMalformedRule, line[:sc.pos])
	}
	r.Succ = []rune(strings.TrimSpace(line[sc.pos:]))
	return r, nil
}

// ruleScanner walks a rule's predecessor one symbol at a time.
type ruleScanner struct {
	s   string
	pos int
}

func (sc *ruleScanner) skipSpace() {
	for sc.pos < len(sc.s) {
		c, n := utf8.DecodeRuneInString(sc.s[sc.pos:])
		if !unicode.IsSpace(c) {
			return
		}
		sc.pos += n
	}
}

// symbol consumes the next non-space rune.
func (sc *ruleScanner) symbol() (rune, bool) {
	sc.skipSpace()
	if sc.pos >= len(sc.s) {
		return 0, false
	}
	c, n := utf8.DecodeRuneInString(sc.s[sc.pos:])
	sc.pos += n
	return c, true
}

// accept consumes want if it is the next non-space rune.
func (sc *ruleScanner) accept(want rune) bool {
	save := sc.pos
	if c, ok := sc.symbol(); ok && c == want {
		return true
	}
	sc.pos = save
	return false
}

func (sc *ruleScanner) arrow() bool {
	sc.skipSpace()
	if !strings.HasPrefix(sc.s[sc.pos:], "->") {
		return false
	}
	sc.pos += len("->")
	return true
}
