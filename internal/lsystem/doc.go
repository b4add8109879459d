// Package lsystem implements the grammar engine behind procedural growth.
//
// A [Grammar] holds an axiom, a set of production [Rule]s and the turtle
// constants (turn angle, step length, growth speed) used when its output is
// interpreted. [Grammar.Derive] rewrites the axiom a fixed number of
// generations and returns an immutable [Derivation].
//
// Rules are written one per line:
//
//	X->F[+X][-X]FX   plain rule
//	F<E->F[&F][^F]   E rewritten only when its left neighbour is F
//	A>B->C           A rewritten only when its right neighbour is B
//
// Several lines with the same predecessor are stochastic alternatives; one is
// drawn uniformly per occurrence from the [Rand] passed to Derive.
//
// # Registry
//
// Grammars are looked up by name through a [Registry]. The registry is
// populated at startup and frozen; lookups are safe from any goroutine.
package lsystem
