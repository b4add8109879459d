package growth

import (
	"fmt"

	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
)

// Action is one input event for the interpreter. The set of variants is
// closed; see Dispatch.
type Action interface {
	action()
}

// TriggerAction starts a pending growth (trigger pressed).
type TriggerAction struct{}

// ReleaseAction activates the most recent pending growth (trigger released).
// An empty Grammar means the current selection.
type ReleaseAction struct {
	Position    geom.Vec3
	Orientation geom.Quat
	Pressure    float64
	Grammar     string
}

// TickAction advances time by Delta seconds.
type TickAction struct {
	Delta float64
}

// SelectAction changes the grammar used by future growths.
type SelectAction struct {
	Grammar string
}

// ColorAction changes the colour of future growths.
type ColorAction struct {
	Color brush.Color
}

// AbandonAction drops every live growth.
type AbandonAction struct{}

func (TriggerAction) action() {}
func (ReleaseAction) action() {}
func (TickAction) action()    {}
func (SelectAction) action()  {}
func (ColorAction) action()   {}
func (AbandonAction) action() {}

// Dispatch routes a to the matching interpreter method.
func (it *Interpreter) Dispatch(a Action) error {
	switch a := a.(type) {
	case TriggerAction:
		it.Trigger()
		return nil
	case ReleaseAction:
		return it.Release(a.Position, a.Orientation, a.Pressure, a.Grammar)
	case TickAction:
		return it.Tick(a.Delta)
	case SelectAction:
		return it.SelectGrammar(a.Grammar)
	case ColorAction:
		it.SetColor(a.Color)
		return nil
	case AbandonAction:
		return it.Abandon()
	default:
		return fmt.Errorf("growth: unhandled action %T", a)
	}
}
