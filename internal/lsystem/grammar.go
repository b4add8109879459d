package lsystem

import (
	"fmt"
	"math"
	"strings"
)

// Rand is the randomness used to pick between alternative successors.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Spec describes a grammar before validation.
type Spec struct {
	Name        string
	Axiom       string
	Rules       string
	Angle       float64 // radians
	Step        float64
	Generations int
	Speed       float64
}

// production groups every alternative sharing one predecessor and context.
type production struct {
	left, right rune
	alts        [][]rune
	spec        int
}

// Grammar is an immutable L-system: axiom, productions and the turtle
// constants that go with it.
type Grammar struct {
	name        string
	axiom       []rune
	rules       []Rule
	angle       float64
	step        float64
	generations int
	speed       float64

	index map[rune][]*production
}

// New validates spec and builds a Grammar.
func New(spec Spec) (*Grammar, error) {
	rules, err := ParseRules(spec.Rules)
	if err != nil {
		return nil, fmt.Errorf("grammar %q: %w", spec.Name, err)
	}
	return FromRules(spec, rules)
}

// FromRules builds a Grammar from already parsed rules; spec.Rules is ignored.
func FromRules(spec Spec, rules []Rule) (*Grammar, error) {
	if err := validate(spec); err != nil {
		return nil, err
	}

	g := &Grammar{
		name:        spec.Name,
		axiom:       []rune(strings.TrimSpace(spec.Axiom)),
		rules:       append([]Rule(nil), rules...),
		angle:       spec.Angle,
		step:        spec.Step,
		generations: spec.Generations,
		speed:       spec.Speed,
		index:       make(map[rune][]*production),
	}

	if err := g.checkContexts(); err != nil {
		return nil, err
	}

	for _, r := range g.rules {
		g.add(r)
	}
	return g, nil
}

func validate(spec Spec) error {
	switch {
	case strings.TrimSpace(spec.Name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidGrammar)
	case strings.TrimSpace(spec.Axiom) == "":
		return fmt.Errorf("%w: grammar %q has an empty axiom", ErrInvalidGrammar, spec.Name)
	case !(spec.Speed > 0) || math.IsInf(spec.Speed, 0):
		return fmt.Errorf("%w: grammar %q speed must be positive, got %v", ErrInvalidGrammar, spec.Name, spec.Speed)
	case spec.Step < 0 || math.IsNaN(spec.Step) || math.IsInf(spec.Step, 0):
		return fmt.Errorf("%w: grammar %q step must be non-negative, got %v", ErrInvalidGrammar, spec.Name, spec.Step)
	case spec.Generations < 0:
		return fmt.Errorf("%w: grammar %q generations must be non-negative, got %d", ErrInvalidGrammar, spec.Name, spec.Generations)
	case math.IsNaN(spec.Angle) || math.IsInf(spec.Angle, 0):
		return fmt.Errorf("%w: grammar %q angle is not finite", ErrInvalidGrammar, spec.Name)
	}
	return nil
}

// checkContexts rejects context symbols that can never appear in any
// generation, i.e. symbols absent from both the axiom and every successor.
func (g *Grammar) checkContexts() error {
	reachable := make(map[rune]bool)
	for _, c := range g.axiom {
		reachable[c] = true
	}
	for _, r := range g.rules {
		for _, c := range r.Succ {
			reachable[c] = true
		}
	}
	for _, r := range g.rules {
		for _, c := range []rune{r.Left, r.Right} {
			if c != 0 && !reachable[c] {
				return fmt.Errorf("%w: grammar %q rule %s uses %q", ErrUndefinedContext, g.name, r, c)
			}
		}
	}
	return nil
}

func (g *Grammar) add(r Rule) {
	for _, p := range g.index[r.Pred] {
		if p.left == r.Left && p.right == r.Right {
			p.alts = append(p.alts, r.Succ)
			return
		}
	}
	g.index[r.Pred] = append(g.index[r.Pred], &production{
		left:  r.Left,
		right: r.Right,
		alts:  [][]rune{r.Succ},
		spec:  r.specificity(),
	})
}

func (g *Grammar) Name() string     { return g.name }
func (g *Grammar) Axiom() string    { return string(g.axiom) }
func (g *Grammar) Angle() float64   { return g.angle }
func (g *Grammar) Step() float64    { return g.step }
func (g *Grammar) Generations() int { return g.generations }
func (g *Grammar) Speed() float64   { return g.speed }
func (g *Grammar) Rules() []Rule    { return append([]Rule(nil), g.rules...) }

// match returns the alternatives of the most specific production for c
// between left and right, or nil when c is terminal here.
func (g *Grammar) match(c, left, right rune) [][]rune {
	var best *production
	for _, p := range g.index[c] {
		if p.left != 0 && p.left != left {
			continue
		}
		if p.right != 0 && p.right != right {
			continue
		}
		if best == nil || p.spec > best.spec {
			best = p
		}
	}
	if best == nil {
		return nil
	}
	return best.alts
}

// Derive rewrites the axiom Generations times. With a nil rng the first
// alternative of every stochastic rule is taken.
func (g *Grammar) Derive(rng Rand) *Derivation {
	cur := append([]rune(nil), g.axiom...)
	for gen := 0; gen < g.generations; gen++ {
		next := make([]rune, 0, len(cur)*2)
		for i, c := range cur {
			var left, right rune
			if i > 0 {
				left = cur[i-1]
			}
			if i+1 < len(cur) {
				right = cur[i+1]
			}
			alts := g.match(c, left, right)
			switch {
			case alts == nil:
				next = append(next, c)
			case len(alts) == 1 || rng == nil:
				next = append(next, alts[0]...)
			default:
				next = append(next, alts[rng.Intn(len(alts))]...)
			}
		}
		cur = next
	}

	syms := make([]Symbol, len(cur))
	for i, c := range cur {
		syms[i].Char = c
		if i > 0 {
			syms[i].Left = cur[i-1]
		}
		if i+1 < len(cur) {
			syms[i].Right = cur[i+1]
		}
	}
	return &Derivation{grammar: g, symbols: syms}
}
