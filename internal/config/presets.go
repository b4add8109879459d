package config

import (
	"sort"

	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
)

// Presets are named ready-to-run sessions.
var Presets = map[string]*Config{
	"sapling": preset(SessionConfig{
		Grammar: "simpleTree", FPS: 60, Duration: 5, Seed: 1, Pressure: 1,
	}, brush.Bark, nil),
	"forest": preset(SessionConfig{
		Grammar: "fern", FPS: 60, Duration: 20, Seed: 42, Pressure: 0.8,
	}, brush.RGB(0x2e, 0x8b, 0x57), []GrammarConfig{{
		Name:  "fern",
		Axiom: "X",
		Rules: []string{
			"X->F+[[X]-X]-F[-FX]+X",
			"F->FF",
		},
		Angle:       25,
		Step:        0.05,
		Generations: 5,
		Speed:       0.5,
	}}),
	"cube": preset(SessionConfig{
		Grammar: "hilbertCube", FPS: 30, Duration: 10, Seed: 7, Pressure: 1,
		Position: geom.V3(0, 1, 0),
	}, brush.RGB(0x46, 0x82, 0xb4), nil),
}

func preset(s SessionConfig, c brush.Color, grammars []GrammarConfig) *Config {
	cfg := DefaultConfig()
	cfg.Session = s
	cfg.Grammars = grammars
	cfg.Tool.Brush = cfg.Tool.Brush.WithColor(c)
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Grammars = append([]GrammarConfig(nil), p.Grammars...)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
