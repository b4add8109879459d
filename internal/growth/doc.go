// Package growth runs procedural growths: L-system derivations interpreted
// by a 3D turtle, paced by elapsed time, and committed as brush segments.
//
// An [Interpreter] owns every live growth [Instance]. The host forwards its
// input as [Action] values (or calls the matching methods directly):
//
//	interp.Dispatch(growth.TriggerAction{})
//	interp.Dispatch(growth.ReleaseAction{Position: p, Orientation: q, Pressure: 0.5})
//	for each frame {
//	    interp.Dispatch(growth.TickAction{Delta: dt})
//	}
//
// Each tick converts elapsed seconds into grammar time (x100 by default) and
// consumes one symbol for every Speed units accumulated, carrying the
// remainder to the next tick. Geometry is handed to a [Sink] one segment at a
// time; every closed segment yields a [Command] pushed onto the [History].
//
// # Thread Safety
//
// An Interpreter is NOT safe for concurrent use. All instances advance
// synchronously inside Tick; none of them shares mutable state with another.
package growth
