package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/artgrow/internal/automation"
	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/config"
	"github.com/san-kum/artgrow/internal/export"
	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/growth"
	"github.com/san-kum/artgrow/internal/logging"
	"github.com/san-kum/artgrow/internal/scene"
	"github.com/san-kum/artgrow/internal/storage"
	"github.com/san-kum/artgrow/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool

	seed     int64
	fps      int
	duration float64
	pressure float64
	color    string

	histogram bool
	saveRun   bool
	numSeeds  int
	format    string
	outFile   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "artgrow",
		Short: "procedural growth brush for 3d painting",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetLogger(logging.NewText(os.Stderr, verbose))
		},
		RunE: runLive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".artgrow", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	grammarsCmd := &cobra.Command{
		Use:   "grammars",
		Short: "list available grammars",
		Args:  cobra.NoArgs,
		RunE:  listGrammars,
	}

	deriveCmd := &cobra.Command{
		Use:   "derive [grammar]",
		Short: "print the derived symbol string of a grammar",
		Args:  cobra.ExactArgs(1),
		RunE:  deriveGrammar,
	}
	deriveCmd.Flags().Int64Var(&seed, "seed", 0, "random seed for stochastic rules")
	deriveCmd.Flags().BoolVar(&histogram, "histogram", false, "print symbol counts instead of the string")

	growCmd := &cobra.Command{
		Use:   "grow [grammar]",
		Short: "grow one instance headless and save the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  growRun,
	}
	addSessionFlags(growCmd)
	growCmd.Flags().StringVar(&color, "color", "", "brush colour (#rrggbb)")

	replayCmd := &cobra.Command{
		Use:   "replay [scenario]",
		Short: "replay a scripted session",
		Args:  cobra.ExactArgs(1),
		RunE:  replayScenario,
	}
	replayCmd.Flags().BoolVar(&saveRun, "save", false, "save the resulting scene as a run")

	liveCmd := &cobra.Command{
		Use:   "live [grammar]",
		Short: "grow trees interactively in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSessionFlags(liveCmd)

	varyCmd := &cobra.Command{
		Use:   "vary [grammar]",
		Short: "grow a grammar with several seeds and compare",
		Args:  cobra.ExactArgs(1),
		RunE:  varyGrammar,
	}
	varyCmd.Flags().IntVar(&numSeeds, "seeds", 5, "number of seeds")
	varyCmd.Flags().Int64Var(&seed, "seed", 1, "first seed")
	varyCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	varyCmd.Flags().Float64Var(&duration, "time", 60, "maximum seconds per growth")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "svg", "svg, json or obj")
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-8s %s\n", name, p.Session.Grammar)
			}
		},
	}

	rootCmd.AddCommand(grammarsCmd, deriveCmd, growCmd, replayCmd, liveCmd, varyCmd, runsCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "session length in seconds")
	cmd.Flags().Float64Var(&pressure, "pressure", config.DefaultPressure, "trigger pressure")
}

// loadConfig starts from the defaults, then a preset, then the config file,
// then explicitly set flags.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Session.Seed = seed
	}
	if flags.Changed("fps") {
		cfg.Session.FPS = fps
	}
	if flags.Changed("time") {
		cfg.Session.Duration = duration
	}
	if flags.Changed("pressure") {
		cfg.Session.Pressure = pressure
	}
	if flags.Changed("color") {
		c, err := brush.ParseColor(color)
		if err != nil {
			return nil, err
		}
		cfg.Tool.Brush.Color = c
	}
	if len(args) > 0 {
		cfg.Session.Grammar = args[0]
	}
	if cfg.Session.Seed == 0 {
		cfg.Session.Seed = time.Now().UnixNano()
	}
	return cfg, cfg.Validate()
}

// session wires an interpreter to a fresh scene with undo history and stats.
type session struct {
	interp *growth.Interpreter
	scene  *scene.Scene
	undo   *scene.UndoStack
	stats  *growth.Stats
}

func newSession(cfg *config.Config, extra ...growth.Option) (*session, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	s := &session{
		scene: scene.New(),
		undo:  scene.NewUndoStack(cfg.Tool.UndoLimit),
		stats: growth.NewStats(),
	}
	opts := append(cfg.Options(), growth.WithHistory(s.undo), growth.WithObserver(s.stats))
	s.interp, err = growth.New(reg, s.scene, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func listGrammars(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAXIOM\tGEN\tANGLE\tSTEP\tSPEED\tRULES")
	for _, name := range reg.Names() {
		g, err := reg.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f°\t%g\t%g\t%d\n",
			g.Name(),
			g.Axiom(),
			g.Generations(),
			g.Angle()*180/math.Pi,
			g.Step(),
			g.Speed(),
			len(g.Rules()),
		)
	}
	return w.Flush()
}

func deriveGrammar(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	g, err := reg.Get(args[0])
	if err != nil {
		return err
	}

	d := g.Derive(rand.New(rand.NewSource(cfg.Session.Seed)))
	if !histogram {
		fmt.Println(d.String())
		return nil
	}

	fmt.Printf("grammar: %s\n", g.Name())
	fmt.Printf("symbols: %d\n", d.Len())
	fmt.Printf("max depth: %d\n\n", d.MaxDepth())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tCOUNT")
	for _, sc := range d.SortedHistogram() {
		fmt.Fprintf(w, "%c\t%d\n", sc.Symbol, sc.Count)
	}
	return w.Flush()
}

func growRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := newSession(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	sess := cfg.Session
	fmt.Printf("growing %s...\n", sess.Grammar)
	start := time.Now()

	s.interp.Trigger()
	if err := s.interp.Release(sess.Position, geom.IdentityQuat(), sess.Pressure, ""); err != nil {
		return err
	}
	symbols := s.interp.Derivation().Len()

	delta := sess.Delta()
	for f := 0; f < sess.Frames() && s.interp.Len() > 0; f++ {
		if err := s.interp.Tick(delta); err != nil {
			logging.Logger().Warn("tick failed", "frame", f, "err", err)
		}
	}
	unfinished := s.interp.Len()
	if err := s.interp.Abandon(); err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(storage.Run{
		Grammar:  sess.Grammar,
		Seed:     sess.Seed,
		FPS:      sess.FPS,
		Duration: s.stats.Elapsed,
		Symbols:  symbols,
		Brush:    s.interp.Brush(),
		Metrics:  storage.MetricsFromStats(s.stats),
		Segments: s.scene.Segments(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("symbols: %d\n", symbols)
	fmt.Printf("segments: %d\n", s.scene.Len())
	fmt.Printf("samples: %d\n", s.scene.SampleCount())
	if unfinished > 0 {
		fmt.Printf("unfinished after %.2fs, abandoned\n", sess.Duration)
	}

	if len(s.stats.PerTick) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(s.stats.PerTick,
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption("symbols per tick"),
		))
	}
	return nil
}

func replayScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	cfg.Session.FPS = scenario.FPS
	scenario.FillSeed(cfg.Session.Seed)
	s, err := newSession(cfg, scenario.Options()...)
	if err != nil {
		return err
	}

	report, err := automation.Run(context.Background(), scenario, s.interp)
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s (seed %d)\n", report.Scenario, scenario.Seed)
	if scenario.Description != "" {
		fmt.Printf("  %s\n", scenario.Description)
	}
	fmt.Printf("actions: %d\n", report.Actions)
	fmt.Printf("ticks: %d (%.2fs)\n", report.Ticks, report.Elapsed)
	fmt.Printf("ignored triggers: %d\n", report.Ignored)
	fmt.Printf("segments: %d\n", s.scene.Len())
	fmt.Printf("still growing: %d\n", s.interp.Len())
	for _, f := range report.Failures {
		fmt.Printf("failure: %v\n", f)
	}

	if !saveRun {
		return nil
	}
	if err := s.interp.Abandon(); err != nil {
		return err
	}
	st := storage.New(dataDir)
	runID, err := st.Save(storage.Run{
		Grammar:  s.interp.Selected(),
		Seed:     scenario.Seed,
		FPS:      scenario.FPS,
		Duration: report.Elapsed,
		Brush:    s.interp.Brush(),
		Metrics:  storage.MetricsFromStats(s.stats),
		Segments: s.scene.Segments(),
	})
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	// the terminal belongs to the view
	logging.SetLogger(logging.NewText(io.Discard, false))

	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	return viz.RunLive(viz.NewModel(viz.Session{
		Interp:   s.interp,
		Scene:    s.scene,
		Undo:     s.undo,
		Stats:    s.stats,
		FPS:      cfg.Session.FPS,
		Pressure: cfg.Session.Pressure,
	}))
}

func varyGrammar(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}

	seeds := make([]int64, numSeeds)
	for i := range seeds {
		seeds[i] = seed + int64(i)
	}
	results, err := automation.RunVariations(context.Background(), reg, args[0], seeds, fps, duration)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSYMBOLS\tSEGMENTS\tSAMPLES\tHEIGHT\tERROR")
	for _, v := range results {
		errText := "-"
		if v.Err != nil {
			errText = v.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%.3f\t%s\n",
			v.Seed, v.Symbols, v.Segments, v.Samples, v.Max.Y-v.Min.Y, errText)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGRAMMAR\tTIME\tDURATION\tSEGMENTS\tSAMPLES\tCOLOR")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%d\t%d\t%s\n",
			run.ID,
			run.Grammar,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Segments,
			run.Samples,
			run.Brush.Color,
		)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	sc, err := st.LoadScene(runID)
	if err != nil {
		return err
	}
	segs := sc.Segments()

	var out io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch strings.ToLower(format) {
	case "svg":
		cam := viz.NewCamera()
		if lo, hi, ok := sc.Bounds(); ok {
			cam.Fit(lo, hi)
		}
		err = export.WriteSVG(out, segs, cam, 800, 800)
	case "json":
		err = export.WriteJSON(out, meta.Grammar, segs)
	case "obj":
		err = export.WriteOBJ(out, segs)
	default:
		return fmt.Errorf("unknown format: %s (want svg, json or obj)", format)
	}
	if err != nil {
		return err
	}
	if outFile != "" {
		fmt.Fprintf(os.Stderr, "exported %s to %s\n", runID, outFile)
	}
	return nil
}
