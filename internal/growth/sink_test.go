package growth_test

import (
	"errors"
	"fmt"

	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/growth"
)

var errSinkDown = errors.New("sink down")

type event struct {
	op  string
	id  growth.SegmentID
	pos geom.Vec3
}

// recordingSink logs every call and rejects calls that break the
// open, append, close ordering.
type recordingSink struct {
	events   []event
	open     map[growth.SegmentID]bool
	closed   map[growth.SegmentID]bool
	samples  map[growth.SegmentID][]geom.Vec3
	brushes  map[growth.SegmentID]brush.Brush
	next     growth.SegmentID
	failOpen bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		open:    make(map[growth.SegmentID]bool),
		closed:  make(map[growth.SegmentID]bool),
		samples: make(map[growth.SegmentID][]geom.Vec3),
		brushes: make(map[growth.SegmentID]brush.Brush),
	}
}

func (s *recordingSink) OpenSegment(b brush.Brush) (growth.SegmentID, error) {
	if s.failOpen {
		return 0, errSinkDown
	}
	s.next++
	s.open[s.next] = true
	s.brushes[s.next] = b
	s.events = append(s.events, event{op: "open", id: s.next})
	return s.next, nil
}

func (s *recordingSink) AppendSample(id growth.SegmentID, pos geom.Vec3, _ geom.Quat, _ float64) error {
	if !s.open[id] {
		return fmt.Errorf("append to segment %d which is not open", id)
	}
	s.samples[id] = append(s.samples[id], pos)
	s.events = append(s.events, event{op: "append", id: id, pos: pos})
	return nil
}

func (s *recordingSink) CloseSegment(id growth.SegmentID) (growth.Command, error) {
	if !s.open[id] {
		return nil, fmt.Errorf("close of segment %d which is not open", id)
	}
	delete(s.open, id)
	s.closed[id] = true
	s.events = append(s.events, event{op: "close", id: id})
	return nopCommand{id: id}, nil
}

func (s *recordingSink) ops() []string {
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.op
	}
	return out
}

type nopCommand struct{ id growth.SegmentID }

func (c nopCommand) Name() string { return fmt.Sprintf("segment %d", c.id) }
func (nopCommand) Undo() error    { return nil }
func (nopCommand) Redo() error    { return nil }

type countingHistory struct{ cmds []growth.Command }

func (h *countingHistory) Push(c growth.Command) { h.cmds = append(h.cmds, c) }
