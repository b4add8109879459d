package growth

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/logging"
	"github.com/san-kum/artgrow/internal/lsystem"
)

const (
	// DefaultMaxInstances bounds the pending plus active instances.
	DefaultMaxInstances = 3

	// DefaultTimeScale converts seconds into grammar time units.
	DefaultTimeScale = 100.0

	// budgetTolerance is the relative slack allowed when a budget built from
	// many small deltas is compared against the symbol cost.
	budgetTolerance = 1e-9
)

// Interpreter advances every live growth instance.
type Interpreter struct {
	registry  *lsystem.Registry
	sink      Sink
	history   History
	rng       lsystem.Rand
	observers []Observer

	maxInstances int
	timeScale    float64

	selected    string
	derivations map[string]*lsystem.Derivation
	brush       brush.Brush

	instances []*Instance
	nextID    int
}

type Option func(*Interpreter) error

// WithRand sets the randomness used for stochastic rules.
func WithRand(r lsystem.Rand) Option {
	return func(it *Interpreter) error {
		it.rng = r
		return nil
	}
}

// WithSeed is WithRand over a math/rand source.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

func WithHistory(h History) Option {
	return func(it *Interpreter) error {
		it.history = h
		return nil
	}
}

func WithMaxInstances(n int) Option {
	return func(it *Interpreter) error {
		if n < 1 {
			return fmt.Errorf("%w: max instances must be at least 1, got %d", ErrInvalidOption, n)
		}
		it.maxInstances = n
		return nil
	}
}

func WithTimeScale(f float64) Option {
	return func(it *Interpreter) error {
		if !(f > 0) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: time scale must be positive, got %v", ErrInvalidOption, f)
		}
		it.timeScale = f
		return nil
	}
}

// WithSelection sets the initially selected grammar.
func WithSelection(name string) Option {
	return func(it *Interpreter) error {
		it.selected = name
		return nil
	}
}

func WithBrush(b brush.Brush) Option {
	return func(it *Interpreter) error {
		it.brush = b
		return nil
	}
}

func WithObserver(o Observer) Option {
	return func(it *Interpreter) error {
		it.observers = append(it.observers, o)
		return nil
	}
}

// New builds an interpreter and derives the selected grammar.
func New(reg *lsystem.Registry, sink Sink, opts ...Option) (*Interpreter, error) {
	if reg == nil {
		return nil, ErrNoRegistry
	}
	if sink == nil {
		return nil, ErrNoSink
	}

	it := &Interpreter{
		registry:     reg,
		sink:         sink,
		maxInstances: DefaultMaxInstances,
		timeScale:    DefaultTimeScale,
		derivations:  make(map[string]*lsystem.Derivation),
		brush:        brush.Default(),
	}
	for _, opt := range opts {
		if err := opt(it); err != nil {
			return nil, err
		}
	}
	if it.rng == nil {
		it.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if it.selected == "" {
		if reg.Has(lsystem.DefaultGrammar) {
			it.selected = lsystem.DefaultGrammar
		} else if names := reg.Names(); len(names) > 0 {
			it.selected = names[0]
		} else {
			return nil, fmt.Errorf("%w: registry is empty", lsystem.ErrUnknownGrammar)
		}
	}
	if err := it.SelectGrammar(it.selected); err != nil {
		return nil, err
	}
	return it, nil
}

// Trigger creates a pending instance. It reports false, and does nothing,
// when the instance cap is reached.
func (it *Interpreter) Trigger() bool {
	if len(it.instances) >= it.maxInstances {
		logging.Logger().Debug("growth trigger ignored at capacity", "max", it.maxInstances)
		return false
	}
	it.nextID++
	it.instances = append(it.instances, newInstance(it.nextID, it.brush))
	logging.Logger().Debug("growth triggered", "id", it.nextID)
	return true
}

// Release activates the most recent pending instance at pos. An empty
// grammar name means the current selection. Without a pending instance
// Release is a no-op.
func (it *Interpreter) Release(pos geom.Vec3, ori geom.Quat, pressure float64, grammar string) error {
	idx := -1
	for i := len(it.instances) - 1; i >= 0; i-- {
		if it.instances[i].state == Pending {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	in := it.instances[idx]

	if grammar == "" {
		grammar = it.selected
	}
	d, err := it.derivation(grammar)
	if err != nil {
		it.remove(idx)
		return err
	}

	in.activate(d, pos, ori, pressure)
	logging.Logger().Debug("growth released",
		"id", in.id, "grammar", grammar, "symbols", d.Len(),
		"x", pos.X, "y", pos.Y, "z", pos.Z)
	return nil
}

// SelectGrammar re-derives name and makes it the grammar for instances
// released from now on. Running instances keep their own derivation.
func (it *Interpreter) SelectGrammar(name string) error {
	g, err := it.registry.Get(name)
	if err != nil {
		return err
	}
	d := g.Derive(it.rng)
	it.derivations[name] = d
	it.selected = name
	logging.Logger().Debug("grammar selected", "grammar", name, "symbols", d.Len())
	return nil
}

func (it *Interpreter) derivation(name string) (*lsystem.Derivation, error) {
	if d, ok := it.derivations[name]; ok {
		return d, nil
	}
	g, err := it.registry.Get(name)
	if err != nil {
		return nil, err
	}
	d := g.Derive(it.rng)
	it.derivations[name] = d
	return d, nil
}

// SetColor changes the colour of instances triggered from now on.
func (it *Interpreter) SetColor(c brush.Color) {
	it.brush = it.brush.WithColor(c)
}

// Tick advances every active instance by delta seconds. Instances that
// violate an invariant are aborted and reported; the rest keep growing.
func (it *Interpreter) Tick(delta float64) error {
	if !(delta >= 0) || math.IsInf(delta, 0) {
		return fmt.Errorf("%w: got %v", ErrNegativeDelta, delta)
	}

	stats := TickStats{Delta: delta}
	var errs []error

	for _, in := range it.instances {
		if in.state != Active {
			continue
		}
		segs := in.segments
		n, err := it.advance(in, delta)
		stats.Consumed += n

		switch {
		case err != nil:
			it.abort(in, err)
			errs = append(errs, err)
			stats.Failed = append(stats.Failed, in.id)
		case in.done():
			if err := it.retire(in); err != nil {
				errs = append(errs, err)
				stats.Failed = append(stats.Failed, in.id)
			} else {
				stats.Retired = append(stats.Retired, in.id)
			}
		}
		stats.Opened += in.segments - segs
	}

	it.compact()
	for _, in := range it.instances {
		switch in.state {
		case Pending:
			stats.Pending++
		case Active:
			stats.Active++
		}
	}
	for _, o := range it.observers {
		o.OnTick(stats)
	}

	return errors.Join(errs...)
}

// advance consumes as many symbols as the accumulated budget pays for.
func (it *Interpreter) advance(in *Instance, delta float64) (int, error) {
	in.budget += delta * it.timeScale
	speed := in.grammar.Speed()

	n := 0
	for in.budget >= speed*(1-budgetTolerance) && !in.done() {
		in.budget -= speed
		if in.budget < 0 {
			in.budget = 0
		}
		sym := in.deriv.At(in.cursor)
		if err := it.interpret(in, sym.Char); err != nil {
			return n, &InstanceError{
				ID:      in.id,
				Grammar: in.grammar.Name(),
				Cursor:  in.cursor,
				Symbol:  sym.Char,
				Wrapped: err,
			}
		}
		in.cursor++
		n++
	}
	return n, nil
}

// retire flushes the last pending sample and closes the open segment.
func (it *Interpreter) retire(in *Instance) error {
	var err error
	if in.needsSample {
		err = it.record(in)
	}
	if cerr := it.closeSegment(in); err == nil {
		err = cerr
	}
	in.state = Retired

	if err != nil {
		in.err = &InstanceError{ID: in.id, Grammar: in.grammar.Name(), Cursor: in.cursor, Wrapped: err}
		logging.Logger().Error("growth retire failed", "id", in.id, "err", err)
		return in.err
	}
	logging.Logger().Debug("growth retired", "id", in.id, "segments", in.segments, "samples", in.samples)
	return nil
}

// abort stops an instance after an invariant violation. Geometry already
// committed stays in the scene.
func (it *Interpreter) abort(in *Instance, err error) {
	in.err = err
	if cerr := it.closeSegment(in); cerr != nil {
		logging.Logger().Warn("closing segment of aborted growth", "id", in.id, "err", cerr)
	}
	in.state = Retired
	logging.Logger().Error("growth aborted", "id", in.id, "err", err)
}

// Abandon drops every instance, e.g. on tool switch. Open segments are
// closed so that what was drawn so far remains in the scene.
func (it *Interpreter) Abandon() error {
	var errs []error
	for _, in := range it.instances {
		if err := it.closeSegment(in); err != nil {
			errs = append(errs, err)
		}
		in.state = Retired
	}
	n := len(it.instances)
	it.instances = it.instances[:0]
	if n > 0 {
		logging.Logger().Debug("growths abandoned", "count", n)
	}
	return errors.Join(errs...)
}

func (it *Interpreter) compact() {
	live := it.instances[:0]
	for _, in := range it.instances {
		if in.state != Retired {
			live = append(live, in)
		}
	}
	for i := len(live); i < len(it.instances); i++ {
		it.instances[i] = nil
	}
	it.instances = live
}

func (it *Interpreter) remove(idx int) {
	it.instances = append(it.instances[:idx], it.instances[idx+1:]...)
}

// Len is the number of pending plus active instances.
func (it *Interpreter) Len() int { return len(it.instances) }

func (it *Interpreter) Selected() string { return it.selected }

// Brush is the brush given to instances triggered from now on.
func (it *Interpreter) Brush() brush.Brush { return it.brush }

func (it *Interpreter) MaxInstances() int { return it.maxInstances }

func (it *Interpreter) Registry() *lsystem.Registry { return it.registry }

// Derivation returns the cached derivation of the selected grammar.
func (it *Interpreter) Derivation() *lsystem.Derivation { return it.derivations[it.selected] }

// Instances returns a snapshot of the live instances, oldest first.
func (it *Interpreter) Instances() []InstanceInfo {
	out := make([]InstanceInfo, len(it.instances))
	for i, in := range it.instances {
		out[i] = in.info()
	}
	return out
}
