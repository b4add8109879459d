// Package turtle implements the 3D turtle used to interpret derived symbol
// sequences: a stack of frames, each a position plus an orthonormal basis
// whose columns are heading, left and up.
package turtle

import (
	"errors"
	"math"

	"github.com/san-kum/artgrow/internal/geom"
)

// ErrStackUnderflow is returned by Pop on a stack holding only its root
// frame. It means the symbol sequence closes more branches than it opens.
var ErrStackUnderflow = errors.New("turtle: pop would empty the frame stack")

type Frame struct {
	Position geom.Vec3
	Basis    geom.Mat3
}

func (f Frame) Heading() geom.Vec3 { return f.Basis.Col(0) }
func (f Frame) Left() geom.Vec3    { return f.Basis.Col(1) }
func (f Frame) Up() geom.Vec3      { return f.Basis.Col(2) }

// DefaultBasis points the heading along world +Y, left along -X and up
// along +Z.
func DefaultBasis() geom.Mat3 {
	return geom.Rows(
		[3]float64{0, -1, 0},
		[3]float64{1, 0, 0},
		[3]float64{0, 0, 1},
	)
}

// Stack is a non-empty stack of frames. The top frame is the turtle's
// current state. Frames are values, so Push never aliases the parent.
type Stack struct {
	frames []Frame
}

func NewStack(pos geom.Vec3, basis geom.Mat3) *Stack {
	return &Stack{frames: []Frame{{Position: pos, Basis: basis}}}
}

func (s *Stack) Depth() int { return len(s.frames) }

// Current returns a pointer to the top frame; it is invalidated by Push and Pop.
func (s *Stack) Current() *Frame { return &s.frames[len(s.frames)-1] }

// Push opens a branch with a copy of the current frame.
func (s *Stack) Push() {
	s.frames = append(s.frames, *s.Current())
}

// Pop closes a branch. The root frame can never be popped.
func (s *Stack) Pop() error {
	if len(s.frames) <= 1 {
		return ErrStackUnderflow
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

func (s *Stack) rotate(r geom.Mat3) {
	f := s.Current()
	f.Basis = f.Basis.Mul(r)
}

// TurnLeft rotates about the up axis by angle*sign.
func (s *Stack) TurnLeft(angle, sign float64) { s.rotate(geom.RotU(angle * sign)) }

// TurnDown rotates about the left axis by angle*sign.
func (s *Stack) TurnDown(angle, sign float64) { s.rotate(geom.RotL(angle * sign)) }

// RollLeft rotates about the heading axis by angle*sign.
func (s *Stack) RollLeft(angle, sign float64) { s.rotate(geom.RotH(angle * sign)) }

// TurnAround reverses the heading.
func (s *Stack) TurnAround() { s.rotate(geom.RotU(math.Pi)) }

// Advance moves the current frame step units along its heading.
func (s *Stack) Advance(step float64) {
	f := s.Current()
	f.Position = f.Position.Add(f.Heading().Scale(step))
}
