// Package scene is an in-memory scene graph of committed brush segments. It
// implements growth.Sink and keeps the undo history of what was added.
package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/growth"
)

var (
	ErrUnknownSegment = errors.New("scene: unknown segment")
	ErrSegmentClosed  = errors.New("scene: segment already closed")
)

type Sample struct {
	Position    geom.Vec3 `json:"position"`
	Orientation geom.Quat `json:"orientation"`
	Pressure    float64   `json:"pressure"`
}

// Segment is one independently committed polyline.
type Segment struct {
	ID      growth.SegmentID `json:"id"`
	Brush   brush.Brush      `json:"brush"`
	Samples []Sample         `json:"samples"`
	Closed  bool             `json:"closed"`
	Visible bool             `json:"visible"`
}

type Scene struct {
	mu       sync.RWMutex
	segments map[growth.SegmentID]*Segment
	order    []growth.SegmentID
	nextID   growth.SegmentID
}

func New() *Scene {
	return &Scene{segments: make(map[growth.SegmentID]*Segment)}
}

// OpenSegment adds an empty visible segment.
func (s *Scene) OpenSegment(b brush.Brush) (growth.SegmentID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.segments[id] = &Segment{ID: id, Brush: b, Visible: true}
	s.order = append(s.order, id)
	return id, nil
}

func (s *Scene) AppendSample(id growth.SegmentID, pos geom.Vec3, ori geom.Quat, pressure float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, err := s.open(id)
	if err != nil {
		return err
	}
	seg.Samples = append(seg.Samples, Sample{Position: pos, Orientation: ori, Pressure: pressure})
	return nil
}

// CloseSegment freezes the segment and returns the command that undoes its
// addition.
func (s *Scene) CloseSegment(id growth.SegmentID) (growth.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, err := s.open(id)
	if err != nil {
		return nil, err
	}
	seg.Closed = true
	return &AddCommand{scene: s, id: id}, nil
}

func (s *Scene) open(id growth.SegmentID) (*Segment, error) {
	seg, ok := s.segments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSegment, id)
	}
	if seg.Closed {
		return nil, fmt.Errorf("%w: %d", ErrSegmentClosed, id)
	}
	return seg, nil
}

func (s *Scene) setVisible(id growth.SegmentID, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segments[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSegment, id)
	}
	seg.Visible = v
	return nil
}

// Segment returns a copy of one segment.
func (s *Scene) Segment(id growth.SegmentID) (Segment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seg, ok := s.segments[id]
	if !ok {
		return Segment{}, false
	}
	return seg.clone(), true
}

// Segments returns copies of every segment in creation order.
func (s *Scene) Segments() []Segment {
	return s.collect(func(*Segment) bool { return true })
}

// Visible returns copies of the segments currently shown.
func (s *Scene) Visible() []Segment {
	return s.collect(func(seg *Segment) bool { return seg.Visible })
}

func (s *Scene) collect(keep func(*Segment) bool) []Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Segment, 0, len(s.order))
	for _, id := range s.order {
		if seg := s.segments[id]; keep(seg) {
			out = append(out, seg.clone())
		}
	}
	return out
}

func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// SampleCount is the total number of samples over all segments.
func (s *Scene) SampleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, seg := range s.segments {
		n += len(seg.Samples)
	}
	return n
}

// Bounds returns the axis-aligned box around every visible sample. ok is
// false when nothing is visible.
func (s *Scene) Bounds() (lo, hi geom.Vec3, ok bool) {
	for _, seg := range s.Visible() {
		for _, smp := range seg.Samples {
			if !ok {
				lo, hi, ok = smp.Position, smp.Position, true
				continue
			}
			lo = lo.Min(smp.Position)
			hi = hi.Max(smp.Position)
		}
	}
	return lo, hi, ok
}

// Clear removes every segment.
func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = make(map[growth.SegmentID]*Segment)
	s.order = nil
}

// IDs returns segment ids in creation order.
func (s *Scene) IDs() []growth.SegmentID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]growth.SegmentID(nil), s.order...)
}

func (seg *Segment) clone() Segment {
	c := *seg
	c.Samples = append([]Sample(nil), seg.Samples...)
	return c
}

// Points returns the sample positions of a segment.
func (seg Segment) Points() []geom.Vec3 {
	pts := make([]geom.Vec3, len(seg.Samples))
	for i, smp := range seg.Samples {
		pts[i] = smp.Position
	}
	return pts
}

// AddCommand undoes and redoes the addition of one segment.
type AddCommand struct {
	scene *Scene
	id    growth.SegmentID
}

func (c *AddCommand) Name() string              { return fmt.Sprintf("add segment %d", c.id) }
func (c *AddCommand) Undo() error               { return c.scene.setVisible(c.id, false) }
func (c *AddCommand) Redo() error               { return c.scene.setVisible(c.id, true) }
func (c *AddCommand) Segment() growth.SegmentID { return c.id }
