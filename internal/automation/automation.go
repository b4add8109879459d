package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/growth"
	"github.com/san-kum/artgrow/internal/logging"
	"github.com/san-kum/artgrow/internal/lsystem"
	"github.com/san-kum/artgrow/internal/scene"
)

const DefaultFPS = 60

var (
	ErrUnknownAction = errors.New("automation: unknown action")
	ErrInvalidStep   = errors.New("automation: invalid step")
)

// Scenario is a scripted painting session.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	FPS         int    `yaml:"fps"`
	Seed        int64  `yaml:"seed"`
	Steps       []Step `yaml:"steps"`
}

// Step is one scripted input. Which fields matter depends on Action:
//
//	trigger            press the trigger
//	release            grammar, position, pressure (default 1)
//	select             grammar
//	wait               seconds of ticks at the scenario frame rate
//	color              color
//	abandon            drop every live growth
type Step struct {
	Action   string      `yaml:"action"`
	Grammar  string      `yaml:"grammar,omitempty"`
	Position geom.Vec3   `yaml:"position,omitempty"`
	Pressure *float64    `yaml:"pressure,omitempty"`
	Seconds  float64     `yaml:"seconds,omitempty"`
	Color    brush.Color `yaml:"color,omitempty"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if scenario.FPS == 0 {
		scenario.FPS = DefaultFPS
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if s.FPS < 1 {
		return fmt.Errorf("%w: fps must be at least 1, got %d", ErrInvalidStep, s.FPS)
	}
	for i, st := range s.Steps {
		switch st.Action {
		case "trigger", "abandon", "color":
		case "release":
			if st.Pressure != nil && !(*st.Pressure >= 0 && *st.Pressure <= 1) {
				return fmt.Errorf("%w: step %d: pressure must be within [0, 1]", ErrInvalidStep, i+1)
			}
		case "select":
			if st.Grammar == "" {
				return fmt.Errorf("%w: step %d: select needs a grammar", ErrInvalidStep, i+1)
			}
		case "wait":
			if !(st.Seconds >= 0) || math.IsInf(st.Seconds, 0) {
				return fmt.Errorf("%w: step %d: seconds must be non-negative", ErrInvalidStep, i+1)
			}
		default:
			return fmt.Errorf("%w: step %d: %q", ErrUnknownAction, i+1, st.Action)
		}
	}
	return nil
}

// FillSeed gives a scenario without a seed the one it will actually run
// with, so that the run can be recorded and replayed.
func (s *Scenario) FillSeed(seed int64) {
	if s.Seed == 0 {
		s.Seed = seed
	}
}

// Options returns the interpreter options the scenario asks for.
func (s *Scenario) Options() []growth.Option {
	if s.Seed == 0 {
		return nil
	}
	return []growth.Option{growth.WithSeed(s.Seed)}
}

// Actions expands the scenario into interpreter actions. A wait becomes
// round(seconds*fps) ticks of 1/fps.
func (s *Scenario) Actions() []growth.Action {
	fps := s.FPS
	if fps < 1 {
		fps = DefaultFPS
	}
	delta := 1 / float64(fps)

	var out []growth.Action
	for _, st := range s.Steps {
		switch st.Action {
		case "trigger":
			out = append(out, growth.TriggerAction{})
		case "release":
			p := 1.0
			if st.Pressure != nil {
				p = *st.Pressure
			}
			out = append(out, growth.ReleaseAction{
				Position:    st.Position,
				Orientation: geom.IdentityQuat(),
				Pressure:    p,
				Grammar:     st.Grammar,
			})
		case "select":
			out = append(out, growth.SelectAction{Grammar: st.Grammar})
		case "color":
			out = append(out, growth.ColorAction{Color: st.Color})
		case "abandon":
			out = append(out, growth.AbandonAction{})
		case "wait":
			n := int(math.Round(st.Seconds * float64(fps)))
			for i := 0; i < n; i++ {
				out = append(out, growth.TickAction{Delta: delta})
			}
		}
	}
	return out
}

// Report summarises a scenario run.
type Report struct {
	Scenario string
	Actions  int
	Ticks    int
	Elapsed  float64
	Ignored  int // triggers dropped at capacity
	Failures []error
}

// Run feeds the scenario to interp. Instance failures during ticks are
// collected in the report; configuration errors such as an unknown grammar
// stop the run.
func Run(ctx context.Context, scenario *Scenario, interp *growth.Interpreter) (*Report, error) {
	report := &Report{Scenario: scenario.Name}
	log := logging.Logger().With("scenario", scenario.Name)

	for i, a := range scenario.Actions() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Actions++

		switch a := a.(type) {
		case growth.TriggerAction:
			if !interp.Trigger() {
				report.Ignored++
			}
			continue
		case growth.TickAction:
			report.Ticks++
			report.Elapsed += a.Delta
			if err := interp.Tick(a.Delta); err != nil {
				if errors.Is(err, growth.ErrNegativeDelta) {
					return report, err
				}
				log.Warn("growth failed during scenario", "action", i, "err", err)
				report.Failures = append(report.Failures, err)
			}
			continue
		}

		if err := interp.Dispatch(a); err != nil {
			return report, fmt.Errorf("action %d (%T): %w", i+1, a, err)
		}
	}

	log.Info("scenario complete", "actions", report.Actions, "ticks", report.Ticks, "live", interp.Len())
	return report, nil
}

// Variation is the outcome of growing one grammar with one seed.
type Variation struct {
	Seed     int64
	Symbols  int
	Segments int
	Samples  int
	Min, Max geom.Vec3
	Err      error
}

// RunVariations grows grammar once per seed, each on its own scene in an
// errgroup, and reports how much the stochastic rules changed the result.
// Each growth runs until it retires or maxSeconds elapse.
func RunVariations(ctx context.Context, reg *lsystem.Registry, grammar string, seeds []int64, fps int, maxSeconds float64) ([]Variation, error) {
	if fps < 1 {
		fps = DefaultFPS
	}
	results := make([]Variation, len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			v, err := growVariation(ctx, reg, grammar, seed, fps, maxSeconds)
			results[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func growVariation(ctx context.Context, reg *lsystem.Registry, grammar string, seed int64, fps int, maxSeconds float64) (Variation, error) {
	delta := 1 / float64(fps)
	frames := int(math.Ceil(maxSeconds * float64(fps)))

	sc := scene.New()
	it, err := growth.New(reg, sc, growth.WithSeed(seed), growth.WithSelection(grammar))
	if err != nil {
		return Variation{}, err
	}
	it.Trigger()
	if err := it.Release(geom.Vec3{}, geom.IdentityQuat(), 1, ""); err != nil {
		return Variation{}, err
	}

	v := Variation{Seed: seed, Symbols: it.Derivation().Len()}
	for f := 0; f < frames && it.Len() > 0; f++ {
		if err := ctx.Err(); err != nil {
			return v, err
		}
		if err := it.Tick(delta); err != nil {
			v.Err = err
		}
	}
	if err := it.Abandon(); err != nil && v.Err == nil {
		v.Err = err
	}

	v.Segments = sc.Len()
	v.Samples = sc.SampleCount()
	v.Min, v.Max, _ = sc.Bounds()

	logging.Logger().Debug("variation grown", "grammar", grammar, "seed", seed, "segments", v.Segments)
	return v, nil
}
