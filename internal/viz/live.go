package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/growth"
	"github.com/san-kum/artgrow/internal/logging"
	"github.com/san-kum/artgrow/internal/scene"
)

const (
	canvasWidth  = 60
	canvasHeight = 22
	panelWidth   = 40
	graphWidth   = 30
	plantSpacing = 0.6
)

type TickMsg time.Time

// Session is what the live view drives. Stats should be registered as an
// observer of Interp.
type Session struct {
	Interp   *growth.Interpreter
	Scene    *scene.Scene
	Undo     *scene.UndoStack
	Stats    *growth.Stats
	FPS      int
	Pressure float64
}

// Model is the bubbletea model of the live growth view. Space plants a
// tree at the next spot, tab selects the next grammar.
type Model struct {
	interp   *growth.Interpreter
	scene    *scene.Scene
	undo     *scene.UndoStack
	stats    *growth.Stats
	canvas   *Canvas
	cam      *Camera
	grammars []string
	delta    float64
	last     time.Time
	pressure float64

	plants  int
	hue     float64
	autoFit bool
	status  string
	err     error
}

func NewModel(s Session) Model {
	fps := s.FPS
	if fps < 1 {
		fps = 60
	}
	if s.Stats == nil {
		s.Stats = growth.NewStats()
	}
	return Model{
		interp:   s.Interp,
		scene:    s.Scene,
		undo:     s.Undo,
		stats:    s.Stats,
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		cam:      NewCamera(),
		grammars: s.Interp.Registry().Names(),
		delta:    1 / float64(fps),
		pressure: s.Pressure,
		autoFit:  true,
		status:   "idle",
	}
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Duration(m.delta*float64(time.Second)), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.plant()
		case "tab":
			m.nextGrammar()
		case "u":
			m.history(m.undo.Undo, "undo")
		case "r":
			m.history(m.undo.Redo, "redo")
		case "c":
			m.hue = math.Mod(m.hue+37, 360)
			m.interp.SetColor(brush.FromHSV(m.hue, 0.7, 0.8))
		case "a":
			m.err = m.interp.Abandon()
			m.status = "abandoned"
		case "f":
			m.autoFit = !m.autoFit
		case "left", "h":
			m.cam.RotateY(-0.1)
		case "right", "l":
			m.cam.RotateY(0.1)
		case "up", "k":
			m.cam.RotateX(-0.1)
		case "down", "j":
			m.cam.RotateX(0.1)
		case "+", "=":
			m.cam.ZoomIn()
		case "-", "_":
			m.cam.ZoomOut()
		}
	case tea.WindowSizeMsg:
		w := max(10, msg.Width-panelWidth-4)
		h := max(5, msg.Height-2)
		m.canvas = NewCanvas(w, h)
	case TickMsg:
		now := time.Time(msg)
		m.step(m.elapsed(now))
		m.last = now
		return m, m.tick()
	}
	return m, nil
}

// plant presses and releases the trigger at the next planting spot.
func (m *Model) plant() {
	if !m.interp.Trigger() {
		m.status = "at capacity"
		return
	}
	x := float64(m.plants%5-2) * plantSpacing
	m.plants++
	m.err = m.interp.Release(geom.V3(x, 0, 0), geom.IdentityQuat(), m.pressure, "")
	m.status = "growing"
}

func (m *Model) nextGrammar() {
	if len(m.grammars) == 0 {
		return
	}
	next := 0
	for i, name := range m.grammars {
		if name == m.interp.Selected() {
			next = (i + 1) % len(m.grammars)
			break
		}
	}
	m.err = m.interp.SelectGrammar(m.grammars[next])
}

func (m *Model) history(op func() (growth.Command, error), verb string) {
	if m.undo == nil {
		return
	}
	cmd, err := op()
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = verb + " " + cmd.Name()
}

// elapsed is the wall time since the previous tick. The first tick, or one
// without a timestamp, counts as one nominal frame.
func (m Model) elapsed(now time.Time) float64 {
	if m.last.IsZero() || now.IsZero() {
		return m.delta
	}
	return max(0, now.Sub(m.last).Seconds())
}

func (m *Model) step(delta float64) {
	if err := m.interp.Tick(delta); err != nil {
		logging.Logger().Warn("live tick", "err", err)
		m.err = err
	}
	if m.interp.Len() == 0 && m.status == "growing" {
		m.status = "idle"
	}
}

func (m Model) tips() []geom.Vec3 {
	var pts []geom.Vec3
	for _, in := range m.interp.Instances() {
		if in.State == growth.Active {
			pts = append(pts, in.Position)
		}
	}
	return pts
}

func (m Model) draw() {
	m.canvas.Clear()
	tips := m.tips()
	if m.autoFit {
		lo, hi, ok := m.scene.Bounds()
		for _, p := range tips {
			if !ok {
				lo, hi, ok = p, p, true
			}
			lo, hi = lo.Min(p), hi.Max(p)
		}
		if ok {
			m.cam.Fit(lo, hi)
		}
	}
	RenderScene(m.canvas, m.scene.Visible(), m.cam)
	RenderMarkers(m.canvas, tips, m.cam)
}

func (m Model) View() string {
	m.draw()

	var s strings.Builder
	s.WriteString(Title.Render("ARTGROW") + "  " + Swatch(m.interp.Brush().Color) + "\n")
	s.WriteString(Subtle.Render(m.interp.Selected()) + "\n\n")

	status := StatusIdle.Render(m.status)
	switch {
	case m.err != nil:
		status = StatusError.Render(m.err.Error())
	case m.interp.Len() > 0:
		status = StatusGrowing.Render(m.status)
	}
	s.WriteString(status + "\n\n")

	s.WriteString(Metric("live", fmt.Sprintf("%d/%d", m.interp.Len(), m.interp.MaxInstances())) + "\n")
	s.WriteString(Metric("segments", fmt.Sprint(m.scene.Len())) + "\n")
	s.WriteString(Metric("samples", fmt.Sprint(m.scene.SampleCount())) + "\n")
	if m.undo != nil {
		s.WriteString(Metric("history", fmt.Sprint(m.undo.Len())) + "\n")
	}
	s.WriteString(Metric("rate", fmt.Sprintf("%.0f sym/s", m.stats.Rate())) + "\n\n")

	for _, in := range m.interp.Instances() {
		frac := 0.0
		if in.Length > 0 {
			frac = float64(in.Cursor) / float64(in.Length)
		}
		s.WriteString(fmt.Sprintf("#%-3d %s %s\n", in.ID, ProgressBar(frac, 16), Subtle.Render(in.State.String())))
	}

	if per := m.stats.PerTick; len(per) > 1 {
		tail := per[max(0, len(per)-graphWidth):]
		s.WriteString("\n" + asciigraph.Plot(tail, asciigraph.Height(4), asciigraph.Width(graphWidth), asciigraph.Caption("symbols/tick")) + "\n")
		s.WriteString(Sparkline(per, graphWidth) + "\n")
	}

	s.WriteString("\n" + KeyHint.Render("space plant  tab grammar  u/r undo/redo\nc colour  a abandon  f fit  arrows rotate\n+/- zoom  q quit"))

	panel := Panel.Width(panelWidth).Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, m.canvas.String(), panel)
}

// RunLive runs m full screen until the user quits.
func RunLive(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
