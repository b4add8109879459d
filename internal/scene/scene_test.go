package scene

import (
	"errors"
	"testing"

	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/growth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ growth.Sink = (*Scene)(nil)
var _ growth.History = (*UndoStack)(nil)

func TestSegmentLifecycle(t *testing.T) {
	s := New()
	id, err := s.OpenSegment(brush.Default())
	require.NoError(t, err)

	require.NoError(t, s.AppendSample(id, geom.V3(0, 0, 0), geom.IdentityQuat(), 0.5))
	require.NoError(t, s.AppendSample(id, geom.V3(0, 1, 0), geom.IdentityQuat(), 0.5))

	cmd, err := s.CloseSegment(id)
	require.NoError(t, err)
	require.NotNil(t, cmd)

	seg, ok := s.Segment(id)
	require.True(t, ok)
	assert.True(t, seg.Closed)
	assert.True(t, seg.Visible)
	assert.Equal(t, []geom.Vec3{{}, {Y: 1}}, seg.Points())
	assert.Equal(t, 2, s.SampleCount())

	err = s.AppendSample(id, geom.Vec3{}, geom.IdentityQuat(), 1)
	assert.ErrorIs(t, err, ErrSegmentClosed)

	_, err = s.CloseSegment(id)
	assert.ErrorIs(t, err, ErrSegmentClosed)
}

func TestUnknownSegment(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.AppendSample(42, geom.Vec3{}, geom.IdentityQuat(), 1), ErrUnknownSegment)
	_, err := s.CloseSegment(42)
	assert.ErrorIs(t, err, ErrUnknownSegment)
}

func TestSegmentsAreCopies(t *testing.T) {
	s := New()
	id, _ := s.OpenSegment(brush.Default())
	_ = s.AppendSample(id, geom.V3(1, 1, 1), geom.IdentityQuat(), 1)

	segs := s.Segments()
	segs[0].Samples[0].Position = geom.V3(9, 9, 9)

	seg, _ := s.Segment(id)
	assert.Equal(t, geom.V3(1, 1, 1), seg.Samples[0].Position)
}

func TestBounds(t *testing.T) {
	s := New()
	_, _, ok := s.Bounds()
	assert.False(t, ok)

	id, _ := s.OpenSegment(brush.Default())
	_ = s.AppendSample(id, geom.V3(-1, 2, 0), geom.IdentityQuat(), 1)
	_ = s.AppendSample(id, geom.V3(3, -4, 5), geom.IdentityQuat(), 1)

	lo, hi, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, geom.V3(-1, -4, 0), lo)
	assert.Equal(t, geom.V3(3, 2, 5), hi)
}

func TestUndoRedo(t *testing.T) {
	s := New()
	u := NewUndoStack(0)

	for i := 0; i < 3; i++ {
		id, _ := s.OpenSegment(brush.Default())
		cmd, err := s.CloseSegment(id)
		require.NoError(t, err)
		u.Push(cmd)
	}
	assert.Len(t, s.Visible(), 3)

	c, err := u.Undo()
	require.NoError(t, err)
	assert.Equal(t, "add segment 3", c.Name())
	assert.Len(t, s.Visible(), 2)
	assert.True(t, u.CanRedo())

	_, err = u.Redo()
	require.NoError(t, err)
	assert.Len(t, s.Visible(), 3)

	_, err = u.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)

	for u.CanUndo() {
		_, err := u.Undo()
		require.NoError(t, err)
	}
	assert.Empty(t, s.Visible())
	_, err = u.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.Len(t, s.Segments(), 3, "undo hides segments, it does not delete them")
}

func TestPushTruncatesRedoTail(t *testing.T) {
	s := New()
	u := NewUndoStack(0)
	for i := 0; i < 3; i++ {
		id, _ := s.OpenSegment(brush.Default())
		cmd, _ := s.CloseSegment(id)
		u.Push(cmd)
	}
	_, _ = u.Undo()
	_, _ = u.Undo()

	id, _ := s.OpenSegment(brush.Default())
	cmd, _ := s.CloseSegment(id)
	u.Push(cmd)

	assert.Equal(t, 2, u.Len())
	assert.False(t, u.CanRedo())
}

func TestUndoLimit(t *testing.T) {
	s := New()
	u := NewUndoStack(2)
	for i := 0; i < 5; i++ {
		id, _ := s.OpenSegment(brush.Default())
		cmd, _ := s.CloseSegment(id)
		u.Push(cmd)
	}
	assert.Equal(t, 2, u.Len())

	c, err := u.Undo()
	require.NoError(t, err)
	assert.Equal(t, "add segment 5", c.Name())
}

type failingCommand struct{}

func (failingCommand) Name() string { return "fail" }
func (failingCommand) Undo() error  { return errors.New("boom") }
func (failingCommand) Redo() error  { return errors.New("boom") }

func TestUndoFailureKeepsPosition(t *testing.T) {
	u := NewUndoStack(0)
	u.Push(failingCommand{})

	_, err := u.Undo()
	assert.Error(t, err)
	assert.True(t, u.CanUndo())
}
