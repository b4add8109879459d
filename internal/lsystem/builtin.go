package lsystem

import "math"

// DefaultGrammar is selected when nothing else is configured.
const DefaultGrammar = "simpleTree"

// BuiltinSpecs are the grammars shipped with the tree tool.
var BuiltinSpecs = []Spec{
	{
		Name:  "bush",
		Axiom: "A",
		Rules: `A->[&FLA]/////[&FLA]///////[&FLA]
			F->S/////F
			S->F`,
		Angle:       22.5 / 180.0 * math.Pi,
		Generations: 7,
		Step:        0.1,
		Speed:       0.5,
	},
	{
		Name:  "hilbertCube",
		Axiom: "A",
		Rules: `A->B-F+CFC+F-D&F^D-F+&&CFC+F+B//
			B->A&F^CFB^F^D^^-F-D^|F^B|FC^F^A//
			C->|D^|F^B-F+C^F^A&&FA&F^C+F+B^F^D//
			D->|CFB-F+B|FA&F^A&&FB-F+B|FC//`,
		Angle:       math.Pi / 2.0,
		Generations: 2,
		Step:        0.5,
		Speed:       1,
	},
	{
		Name:  "contextSensitive",
		Axiom: "F",
		Rules: `F->F[-EF]E[+F]
			F<E->F[&F][^F]`,
		Angle:       25.0 / 180.0 * math.Pi,
		Generations: 4,
		Step:        0.1,
		Speed:       1,
	},
	{
		Name:  "simpleTree",
		Axiom: "X",
		Rules: `X->F[+X][-X]FX
			F->FF`,
		Angle:       25.7 / 180.0 * math.Pi,
		Generations: 5,
		Step:        0.1,
		Speed:       1,
	},
	{
		Name:        "tiltTree",
		Axiom:       "F",
		Rules:       `F->FF-[-F+F+F]+[+F-F-F]`,
		Angle:       22.5 / 180.0 * math.Pi,
		Generations: 3,
		Step:        0.1,
		Speed:       1,
	},
}

// Builtin returns a frozen registry holding BuiltinSpecs.
func Builtin() *Registry {
	r, err := RegisterSpecs(NewRegistry(), BuiltinSpecs)
	if err != nil {
		panic(err)
	}
	r.Freeze()
	return r
}

// RegisterSpecs builds and registers every spec, stopping at the first error.
func RegisterSpecs(r *Registry, specs []Spec) (*Registry, error) {
	for _, s := range specs {
		g, err := New(s)
		if err != nil {
			return nil, err
		}
		if err := r.Register(g); err != nil {
			return nil, err
		}
	}
	return r, nil
}
