package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/growth"
	"github.com/san-kum/artgrow/internal/lsystem"
)

const (
	DefaultFPS       = 60
	DefaultDuration  = 10.0
	DefaultPressure  = 1.0
	DefaultUndoLimit = 256
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Tool     ToolConfig      `yaml:"tool" toml:"tool"`
	Grammars []GrammarConfig `yaml:"grammars,omitempty" toml:"grammars,omitempty"`
	Session  SessionConfig   `yaml:"session" toml:"session"`
}

// ToolConfig holds the tree tool settings shared by every session.
type ToolConfig struct {
	MaxInstances int         `yaml:"max_instances" toml:"max_instances"`
	TimeScale    float64     `yaml:"time_scale" toml:"time_scale"`
	UndoLimit    int         `yaml:"undo_limit" toml:"undo_limit"`
	Brush        brush.Brush `yaml:"brush" toml:"brush"`
}

// GrammarConfig is a user grammar. Angle is in degrees; each entry of Rules
// is one production such as "F<E->F[&F][^F]".
type GrammarConfig struct {
	Name        string   `yaml:"name" toml:"name"`
	Axiom       string   `yaml:"axiom" toml:"axiom"`
	Rules       []string `yaml:"rules" toml:"rules"`
	Angle       float64  `yaml:"angle" toml:"angle"`
	Step        float64  `yaml:"step" toml:"step"`
	Generations int      `yaml:"generations" toml:"generations"`
	Speed       float64  `yaml:"speed" toml:"speed"`
}

// SessionConfig describes one headless or live painting session.
type SessionConfig struct {
	Grammar  string    `yaml:"grammar" toml:"grammar"`
	FPS      int       `yaml:"fps" toml:"fps"`
	Duration float64   `yaml:"duration" toml:"duration"`
	Seed     int64     `yaml:"seed" toml:"seed"`
	Position geom.Vec3 `yaml:"position" toml:"position"`
	Pressure float64   `yaml:"pressure" toml:"pressure"`
}

func DefaultConfig() *Config {
	return &Config{
		Tool: ToolConfig{
			MaxInstances: growth.DefaultMaxInstances,
			TimeScale:    growth.DefaultTimeScale,
			UndoLimit:    DefaultUndoLimit,
			Brush:        brush.Default(),
		},
		Session: SessionConfig{
			Grammar:  lsystem.DefaultGrammar,
			FPS:      DefaultFPS,
			Duration: DefaultDuration,
			Pressure: DefaultPressure,
		},
	}
}

// Load reads a YAML file, or TOML when path ends in .toml. Fields missing
// from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func (c *Config) Validate() error {
	t, s := c.Tool, c.Session
	switch {
	case t.MaxInstances < 1:
		return fmt.Errorf("%w: tool.max_instances must be at least 1, got %d", ErrInvalidConfig, t.MaxInstances)
	case !(t.TimeScale > 0) || math.IsInf(t.TimeScale, 0):
		return fmt.Errorf("%w: tool.time_scale must be positive, got %v", ErrInvalidConfig, t.TimeScale)
	case t.UndoLimit < 0:
		return fmt.Errorf("%w: tool.undo_limit must be non-negative, got %d", ErrInvalidConfig, t.UndoLimit)
	case s.FPS < 1:
		return fmt.Errorf("%w: session.fps must be at least 1, got %d", ErrInvalidConfig, s.FPS)
	case !(s.Duration >= 0) || math.IsInf(s.Duration, 0):
		return fmt.Errorf("%w: session.duration must be non-negative, got %v", ErrInvalidConfig, s.Duration)
	case !(s.Pressure >= 0 && s.Pressure <= 1):
		return fmt.Errorf("%w: session.pressure must be within [0, 1], got %v", ErrInvalidConfig, s.Pressure)
	case !s.Position.IsValid():
		return fmt.Errorf("%w: session.position is not finite", ErrInvalidConfig)
	}
	return nil
}

// Spec converts a grammar entry into an lsystem.Spec.
func (g GrammarConfig) Spec() lsystem.Spec {
	return lsystem.Spec{
		Name:        g.Name,
		Axiom:       g.Axiom,
		Rules:       strings.Join(g.Rules, "\n"),
		Angle:       geom.DegToRad(g.Angle),
		Step:        g.Step,
		Generations: g.Generations,
		Speed:       g.Speed,
	}
}

// Registry returns a frozen registry holding the builtin grammars followed
// by the grammars of c. A user grammar may not reuse a builtin name.
func (c *Config) Registry() (*lsystem.Registry, error) {
	r, err := lsystem.RegisterSpecs(lsystem.NewRegistry(), lsystem.BuiltinSpecs)
	if err != nil {
		return nil, err
	}
	specs := make([]lsystem.Spec, len(c.Grammars))
	for i, g := range c.Grammars {
		specs[i] = g.Spec()
	}
	if _, err := lsystem.RegisterSpecs(r, specs); err != nil {
		return nil, fmt.Errorf("config: grammars: %w", err)
	}
	r.Freeze()
	return r, nil
}

// Options translates the tool and session settings into interpreter options.
// A zero seed leaves the interpreter on a time-seeded source.
func (c *Config) Options() []growth.Option {
	opts := []growth.Option{
		growth.WithMaxInstances(c.Tool.MaxInstances),
		growth.WithTimeScale(c.Tool.TimeScale),
		growth.WithBrush(c.Tool.Brush),
		growth.WithSelection(c.Session.Grammar),
	}
	if c.Session.Seed != 0 {
		opts = append(opts, growth.WithSeed(c.Session.Seed))
	}
	return opts
}

// Frames is the number of ticks a session of Duration seconds takes at FPS.
func (s SessionConfig) Frames() int {
	return int(math.Round(s.Duration * float64(s.FPS)))
}

// Delta is the tick length in seconds.
func (s SessionConfig) Delta() float64 {
	return 1 / float64(s.FPS)
}
