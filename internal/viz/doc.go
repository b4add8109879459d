// Package viz is a terminal viewer for growing trees.
//
//   - [Canvas]: braille dot raster
//   - [Camera]: orbit camera with perspective projection
//   - [Model]: Bubble Tea model that drives a growth.Interpreter live
//
// # Key Bindings
//
//	Space  - plant a tree (trigger and release)
//	Tab    - next grammar
//	U / R  - undo / redo the last segment
//	C      - next brush colour
//	A      - abandon every growing tree
//	F      - toggle camera auto-fit
//	Arrows - rotate camera
//	+ / -  - zoom
//	Q      - quit
package viz
