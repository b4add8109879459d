package growth

// interpret applies one symbol of the turtle alphabet to in. Symbols outside
// the alphabet are no-ops.
func (it *Interpreter) interpret(in *Instance, c rune) error {
	angle := in.grammar.Angle()
	s := in.stack

	switch c {
	case 'F':
		if in.pendingSegment {
			if err := it.openSegment(in); err != nil {
				return err
			}
			if err := it.record(in); err != nil {
				return err
			}
			in.pendingSegment = false
		} else if in.needsSample {
			if err := it.record(in); err != nil {
				return err
			}
		}
		s.Advance(in.grammar.Step())
	case 'f':
		// A jump never bridges geometry.
		s.Advance(in.grammar.Step())
		in.pendingSegment = true
	case '+':
		s.TurnLeft(angle, 1)
		in.needsSample = true
	case '-':
		s.TurnLeft(angle, -1)
		in.needsSample = true
	case '&':
		s.TurnDown(angle, 1)
		in.needsSample = true
	case '^':
		s.TurnDown(angle, -1)
		in.needsSample = true
	case '\\':
		s.RollLeft(angle, 1)
		in.needsSample = true
	case '/':
		s.RollLeft(angle, -1)
		in.needsSample = true
	case '|':
		s.TurnAround()
		in.needsSample = true
	case '[':
		s.Push()
	case ']':
		if in.needsSample {
			if err := it.record(in); err != nil {
				return err
			}
		}
		if err := s.Pop(); err != nil {
			return err
		}
		in.pendingSegment = true
	}
	return nil
}

// record appends the current turtle position to the open segment. Before the
// first segment opens there is nothing to join, so the sample is dropped.
func (it *Interpreter) record(in *Instance) error {
	in.needsSample = false
	if !in.segmentOpen {
		return nil
	}
	pos := in.stack.Current().Position
	if err := it.sink.AppendSample(in.segment, pos, in.orientation, in.pressure); err != nil {
		return err
	}
	in.samples++
	return nil
}

// openSegment closes the instance's current segment, if any, and opens a
// fresh one.
func (it *Interpreter) openSegment(in *Instance) error {
	if err := it.closeSegment(in); err != nil {
		return err
	}
	id, err := it.sink.OpenSegment(in.brush)
	if err != nil {
		return err
	}
	in.segment = id
	in.segmentOpen = true
	in.segments++
	return nil
}

func (it *Interpreter) closeSegment(in *Instance) error {
	if !in.segmentOpen {
		return nil
	}
	in.segmentOpen = false
	cmd, err := it.sink.CloseSegment(in.segment)
	if err != nil {
		return err
	}
	if it.history != nil && cmd != nil {
		it.history.Push(cmd)
	}
	return nil
}
