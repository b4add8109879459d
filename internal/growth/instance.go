package growth

import (
	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/lsystem"
	"github.com/san-kum/artgrow/internal/turtle"
)

type State int

const (
	Pending State = iota
	Active
	Retired
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Retired:
		return "retired"
	}
	return "unknown"
}

// Instance is one growing tree. It is owned by its Interpreter and never
// shared: its frame stack, cursor and budget are touched only by Tick.
type Instance struct {
	id    int
	state State
	brush brush.Brush

	grammar *lsystem.Grammar
	deriv   *lsystem.Derivation
	stack   *turtle.Stack
	cursor  int
	budget  float64

	// pendingSegment: the next F opens a fresh segment.
	// needsSample: the turtle turned since the last recorded sample.
	pendingSegment bool
	needsSample    bool

	// Captured once at release and reused for every sample.
	orientation geom.Quat
	pressure    float64

	segment     SegmentID
	segmentOpen bool
	segments    int
	samples     int
	err         error
}

func newInstance(id int, b brush.Brush) *Instance {
	return &Instance{id: id, state: Pending, brush: b}
}

// activate seeds the frame stack and binds the derivation.
func (in *Instance) activate(d *lsystem.Derivation, pos geom.Vec3, ori geom.Quat, pressure float64) {
	in.grammar = d.Grammar()
	in.deriv = d
	in.stack = turtle.NewStack(pos, turtle.DefaultBasis())
	in.orientation = ori
	in.pressure = pressure
	in.pendingSegment = true
	in.state = Active
}

func (in *Instance) done() bool { return in.cursor >= in.deriv.Len() }

// InstanceInfo is a read-only snapshot of an Instance.
type InstanceInfo struct {
	ID       int
	State    State
	Grammar  string
	Cursor   int
	Length   int
	Depth    int
	Position geom.Vec3
	Heading  geom.Vec3
	Segments int
	Samples  int
	Budget   float64
	Color    brush.Color
	Err      error
}

func (in *Instance) info() InstanceInfo {
	info := InstanceInfo{
		ID:       in.id,
		State:    in.state,
		Cursor:   in.cursor,
		Segments: in.segments,
		Samples:  in.samples,
		Budget:   in.budget,
		Color:    in.brush.Color,
		Err:      in.err,
	}
	if in.grammar != nil {
		info.Grammar = in.grammar.Name()
		info.Length = in.deriv.Len()
	}
	if in.stack != nil {
		info.Depth = in.stack.Depth()
		info.Position = in.stack.Current().Position
		info.Heading = in.stack.Current().Heading()
	}
	return info
}
