package growth

import (
	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
)

// SegmentID identifies an open segment within a Sink.
type SegmentID int

// Sink turns sampled polylines into scene geometry. For every segment the
// interpreter calls OpenSegment, then AppendSample any number of times, then
// CloseSegment exactly once; it never appends after closing.
type Sink interface {
	OpenSegment(b brush.Brush) (SegmentID, error)
	AppendSample(id SegmentID, pos geom.Vec3, ori geom.Quat, pressure float64) error
	CloseSegment(id SegmentID) (Command, error)
}

// Command is an undoable scene mutation.
type Command interface {
	Name() string
	Undo() error
	Redo() error
}

// History receives the command produced by each closed segment.
type History interface {
	Push(c Command)
}
