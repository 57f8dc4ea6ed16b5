package viz

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/export"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/sim"
)

const (
	hudWidth      = 44
	orbitStep     = 0.05
	rollStep      = 0.05
	panStep       = 10.0
	fpsSmoothing  = 0.1
	graphSamples  = 120
	defaultWidth  = 80
	defaultHeight = 24
)

type TickMsg time.Time

// Model is the live bubbletea view: one loop tick per display frame, with
// keyboard input writing to the shared store.
type Model struct {
	loop     *sim.Loop
	store    *sim.Store
	renderer *TrailRenderer
	camera   *Camera
	canvas   *Canvas
	cfg      *config.Config

	theme    Theme
	mode     string
	showAxes bool
	hideUI   bool
	showHelp bool

	selected int
	editing  bool
	editBuf  string

	termW, termH int
	interval     time.Duration
	lastTick     time.Time
	fps          float64

	outDir  string
	message string
	failed  bool
}

// NewModel builds the view and its simulation loop from cfg. Snapshots are
// written to outDir.
func NewModel(cfg *config.Config, outDir string) (Model, error) {
	r := NewTrailRenderer()
	loop, err := sim.FromConfig(cfg, r)
	if err != nil {
		return Model{}, err
	}
	fps := max(cfg.View.FPS, 1)
	m := Model{
		loop:     loop,
		store:    loop.Store(),
		renderer: r,
		camera:   NewCamera(cfg.View.Camera),
		cfg:      cfg,
		theme:    GetTheme(cfg.View.Theme),
		mode:     cfg.View.VisualMode,
		showAxes: cfg.View.ShowAxes,
		hideUI:   cfg.View.HideUI,
		termW:    defaultWidth + hudWidth,
		termH:    defaultHeight,
		interval: time.Second / time.Duration(fps),
		outDir:   outDir,
	}
	m.resize()
	return m, nil
}

// Run starts the view on the alternate screen and blocks until it quits.
func Run(cfg *config.Config, outDir string, autostart bool) error {
	m, err := NewModel(cfg, outDir)
	if err != nil {
		return err
	}
	m.store.SetRunning(autostart)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) Store() *sim.Store { return m.store }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termW, m.termH = msg.Width, msg.Height
		m.resize()
	case tea.KeyMsg:
		if m.editing {
			m.editKey(msg)
			return m, nil
		}
		return m.key(msg)
	case TickMsg:
		now := time.Time(msg)
		if !m.lastTick.IsZero() {
			if d := now.Sub(m.lastTick).Seconds(); d > 0 {
				if m.fps == 0 {
					m.fps = 1 / d
				} else {
					m.fps += fpsSmoothing * (1/d - m.fps)
				}
			}
		}
		m.lastTick = now
		m.loop.Tick()
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) resize() {
	w, h := m.termW, m.termH
	if !m.hideUI {
		w -= hudWidth + 3
	}
	m.canvas = NewCanvas(max(w, 10), max(h-1, 5))
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.store
	m.message, m.failed = "", false
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		s.ToggleRunning()
	case "r":
		s.RequestReset()
	case "p":
		m.report(s.LoadPreset(nextPreset(s.Preset())))
	case "c":
		m.message = "palette " + s.CyclePalette()
	case "s":
		m.message = fmt.Sprintf("speed %gx", s.CycleSpeed())
	case "n":
		m.message = fmt.Sprintf("max points %d", s.CycleMaxPoints())
	case "tab":
		m.selected = (m.selected + 1) % len(config.ParamNames)
	case "shift+tab":
		m.selected = (m.selected + len(config.ParamNames) - 1) % len(config.ParamNames)
	case "]":
		m.nudge(1)
	case "[":
		m.nudge(-1)
	case "enter":
		m.editing, m.editBuf = true, ""
	case "left":
		m.camera.Orbit(-orbitStep, 0)
	case "right":
		m.camera.Orbit(orbitStep, 0)
	case "up":
		m.camera.Orbit(0, -orbitStep)
	case "down":
		m.camera.Orbit(0, orbitStep)
	case "+", "=":
		m.camera.Zoom(-1)
	case "-", "_":
		m.camera.Zoom(1)
	case "A":
		m.camera.PanBy(panStep, 0)
	case "D":
		m.camera.PanBy(-panStep, 0)
	case "W":
		m.camera.PanBy(0, panStep)
	case "S":
		m.camera.PanBy(0, -panStep)
	case ",":
		m.camera.RollBy(-rollStep)
	case ".":
		m.camera.RollBy(rollStep)
	case "0":
		m.camera.Apply(m.cfg.View.Camera)
	case "v":
		if m.mode == config.VisualModeLine {
			m.mode = config.VisualModeDots
		} else {
			m.mode = config.VisualModeLine
		}
	case "g":
		m.showAxes = !m.showAxes
	case "h":
		m.hideUI = !m.hideUI
		m.resize()
	case "t":
		m.theme = NextTheme(m.theme.Name)
	case "x":
		m.report(m.snapshot("png"))
	case "X":
		m.report(m.snapshot("svg"))
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) editKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		name := config.ParamNames[m.selected]
		v, err := strconv.ParseFloat(m.editBuf, 64)
		if err != nil {
			m.report(fmt.Errorf("%s: %q is not a number", name, m.editBuf))
		} else {
			m.report(m.store.SetParam(name, config.ParamBounds[name].Clamp(v)))
		}
		m.editing, m.editBuf = false, ""
	case tea.KeyEsc:
		m.editing, m.editBuf = false, ""
	case tea.KeyBackspace:
		if len(m.editBuf) > 0 {
			m.editBuf = m.editBuf[:len(m.editBuf)-1]
		}
	case tea.KeyRunes:
		for _, c := range msg.Runes {
			if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
				m.editBuf += string(c)
			}
		}
	}
}

// nudge moves the selected parameter by one slider step.
func (m *Model) nudge(dir float64) {
	name := config.ParamNames[m.selected]
	b := config.ParamBounds[name]
	cur := paramValue(m.store.Params(), name)
	m.report(m.store.SetParam(name, b.Clamp(cur+dir*b.Step)))
}

func (m *Model) report(err error) {
	if err != nil {
		m.message, m.failed = err.Error(), true
		dynamo.Logger().Warn("live view action failed", "err", err)
	}
}

// snapshot writes the current trail as seen by the camera.
func (m *Model) snapshot(ext string) error {
	points, colors := m.loop.Engine().Buffer().Chronological()
	opts := export.DefaultOptions()
	opts.Mode = m.mode
	opts.Caption = export.Caption(m.store.Params(), len(points))

	name := filepath.Join(m.outDir, export.SnapshotName(time.Now(), ext))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	switch ext {
	case "svg":
		err = export.SVG(f, points, colors, m.camera, opts)
	default:
		opts.Scale = export.DefaultScale
		opts.Contrast = export.DefaultContrast
		err = export.PNG(f, points, colors, m.camera, opts)
	}
	if err != nil {
		return err
	}
	m.message = "saved " + name
	return nil
}

func nextPreset(cur string) string {
	names := config.ListPresets()
	for i, n := range names {
		if n == cur {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

func paramValue(p physics.Params, name string) float64 {
	switch name {
	case "sigma":
		return p.Sigma
	case "rho":
		return p.Rho
	case "beta":
		return p.Beta
	default:
		return p.Dt
	}
}

func (m Model) View() string {
	m.canvas.Clear()
	if m.showAxes {
		DrawEdges(m.canvas, m.camera, AxesEdges(AxisLength))
	}
	m.renderer.Paint(m.canvas, m.camera, m.mode)

	if m.hideUI {
		return m.canvas.String()
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.canvas.String(), m.hud())
	if m.showHelp {
		return helpText + "\n" + body
	}
	return body
}

func (m Model) hud() string {
	st := m.theme.styles()
	snap := m.store.Snapshot()
	var s strings.Builder

	s.WriteString(st.header.Render(GradientText("LORENZ ATTRACTOR", m.theme.Primary, m.theme.Secondary)) + "\n")
	switch {
	case snap.NeedsReset:
		s.WriteString(st.paused.Render("RESETTING") + "\n\n")
	case snap.Running:
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}

	preset := m.store.Preset()
	if preset == "" {
		preset = "custom"
	}
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Preset", preset)
	for i, name := range config.ParamNames {
		v := strconv.FormatFloat(paramValue(snap.Params, name), 'f', 3, 64)
		switch {
		case i == m.selected && m.editing:
			s.WriteString(st.active.Render(fmt.Sprintf("> %-8s %s_", name, m.editBuf)) + "\n")
		case i == m.selected:
			s.WriteString(st.active.Render(fmt.Sprintf("> %-8s %s", name, v)) + "\n")
		default:
			row("  "+name, v)
		}
	}
	s.WriteString("\n")

	buf := m.loop.Engine().Buffer()
	fill := float64(buf.ValidCount()) / float64(buf.Capacity())
	row("Speed", fmt.Sprintf("%gx", snap.Speed))
	row("Palette", snap.Palette)
	row("Mode", m.mode)
	row("Trail", fmt.Sprintf("%d/%d", buf.ValidCount(), buf.Capacity()))
	s.WriteString(ProgressBar(fill, hudWidth-6, m.theme.Accent) + "\n\n")

	cur := m.store.CurrentPoint()
	row("X", fmt.Sprintf("%.3f", cur.X))
	row("Y", fmt.Sprintf("%.3f", cur.Y))
	row("Z", fmt.Sprintf("%.3f", cur.Z))
	row("Points", strconv.Itoa(len(m.store.History())))
	row("FPS", fmt.Sprintf("%.0f", m.fps))

	if z := zSeries(m.store.History(), graphSamples); len(z) > 1 {
		chart := asciigraph.Plot(z, asciigraph.Height(4), asciigraph.Width(hudWidth-12), asciigraph.Caption("z"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	if m.message != "" {
		style := st.value
		if m.failed {
			style = st.err
		}
		s.WriteString("\n" + style.Render(m.message) + "\n")
	}
	s.WriteString(st.help.Render(Separator(hudWidth-4, m.theme.Muted) + "\nSP:Run R:Reset P:Preset Q:Quit\nTAB/[ ]:Tune H:Hide ?:Help"))
	return st.panel.Render(s.String())
}

func zSeries(history []physics.Point3D, n int) []float64 {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	out := make([]float64, 0, len(history))
	for _, p := range history {
		if p.IsFinite() {
			out = append(out, p.Z)
		}
	}
	return out
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Run/Pause                ║
║  R        - Reset trail (pauses)     ║
║  P        - Next preset              ║
║  C / S / N - Palette, speed, length  ║
║  Tab      - Select parameter         ║
║  [ ]      - Adjust parameter         ║
║  Enter    - Type parameter value     ║
║  Arrows   - Orbit camera             ║
║  + / -    - Zoom                     ║
║  W A S D  - Pan (shifted)            ║
║  , .      - Roll                     ║
║  0        - Reset camera             ║
║  V / G    - Line-dots, axes          ║
║  T / H    - Theme, hide UI           ║
║  x / X    - Save PNG / SVG           ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`
