package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/mobility/internal/experiment"
)

const (
	width           = 60
	height          = 22
	historyCapacity = 600
	frameRate       = 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(48)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

// SampleMsg carries a copy of an experiment sample into the UI.
type SampleMsg experiment.Sample

// DoneMsg reports the end of the run.
type DoneMsg struct {
	Result *experiment.Result
	Err    error
}

// LiveModel shows a running experiment. It only reads from updates and
// never touches the solver.
type LiveModel struct {
	title     string
	steps     int
	updates   <-chan tea.Msg
	canvas    *Canvas
	camera    *Camera
	box       *Wireframe
	center    Vec3
	positions []float64
	msd       []float64
	step      int
	t         float64
	frame     int
	rotating  bool
	done      bool
	err       error
	result    *experiment.Result
}

// NewLiveModel draws particles inside the box [lo, hi].
func NewLiveModel(title string, steps int, lo, hi Vec3, updates <-chan tea.Msg) LiveModel {
	center, cam, box := fitBox(lo, hi)
	return LiveModel{
		title:    title,
		steps:    steps,
		updates:  updates,
		canvas:   NewCanvas(width, height),
		camera:   cam,
		box:      box,
		center:   center,
		msd:      make([]float64, 0, historyCapacity),
		rotating: true,
	}
}

func waitFor(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return DoneMsg{}
		}
		return msg
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return tea.Batch(waitFor(m.updates), tick())
}

// Update handles input, samples and animation ticks.
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.camera.RotateY(-0.1)
		case "right", "l":
			m.camera.RotateY(0.1)
		case "up", "k":
			m.camera.RotateX(-0.1)
		case "down", "j":
			m.camera.RotateX(0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-":
			m.camera.ZoomOut()
		case " ":
			m.rotating = !m.rotating
		}
		return m, nil

	case SampleMsg:
		m.step, m.t = msg.Step, msg.Time
		m.positions = msg.Positions
		if msg.Step > 0 {
			if len(m.msd) == historyCapacity {
				m.msd = m.msd[1:]
			}
			m.msd = append(m.msd, msg.MSD)
		}
		return m, waitFor(m.updates)

	case DoneMsg:
		m.done = true
		m.result, m.err = msg.Result, msg.Err
		return m, nil

	case TickMsg:
		m.frame++
		if m.rotating {
			m.camera.RotateY(0.01)
		}
		return m, tick()
	}
	return m, nil
}

func (m *LiveModel) draw() {
	m.canvas.Clear()
	scene := NewWireframe()
	scene.Append(m.box)
	scene.Append(ParticleWireframe(m.positions, m.center))
	Render3D(m.canvas, scene, m.camera)
}

// View renders the particle view beside the statistics panel.
func (m LiveModel) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "\n\n")
	switch {
	case m.err != nil:
		s.WriteString(StatusFailed.Render("FAILED") + "\n" + Subtle.Render(m.err.Error()) + "\n\n")
	case m.done:
		s.WriteString(StatusDone.Render("DONE") + "\n\n")
	default:
		s.WriteString(StatusRunning.Render(AnimatedSpinner(m.frame)+" RUNNING") + "\n\n")
	}

	progress := 0.0
	if m.steps > 0 {
		progress = float64(m.step) / float64(m.steps)
	}
	s.WriteString(ProgressBar(progress, 30) + fmt.Sprintf(" %d/%d\n\n", m.step, m.steps))

	if len(m.msd) > 1 {
		chart := asciigraph.Plot(m.msd, asciigraph.Height(6), asciigraph.Width(34), asciigraph.Caption("MSD"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}
	s.WriteString(Metric("Time", fmt.Sprintf("%.3f", m.t)) + "\n")
	if len(m.msd) > 0 {
		s.WriteString(Metric("MSD", fmt.Sprintf("%.4f", m.msd[len(m.msd)-1])) + "\n")
	}
	s.WriteString(Metric("Particles", fmt.Sprintf("%d", len(m.positions)/3)) + "\n")
	if m.result != nil {
		for _, key := range []string{"diffusion", "diffusion_ideal", "r_squared"} {
			if v, ok := m.result.Metrics[key]; ok {
				s.WriteString(Metric(key, fmt.Sprintf("%.4g", v)) + "\n")
			}
		}
	}
	s.WriteString("\n" + KeyHint.Render("arrows:rotate +/-:zoom space:spin q:quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

// RunLive runs e while showing it in a full-screen view. Quitting the view
// cancels the run.
func RunLive(ctx context.Context, e *experiment.Experiment, title string, steps int, lo, hi Vec3) (*experiment.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan tea.Msg, 16)
	e.AddObserver(func(s experiment.Sample) {
		s.Positions = append([]float64(nil), s.Positions...)
		select {
		case updates <- SampleMsg(s):
		case <-ctx.Done():
		}
	})

	finished := make(chan DoneMsg, 1)
	go func() {
		res, err := e.Run(ctx)
		done := DoneMsg{Result: res, Err: err}
		finished <- done
		select {
		case updates <- done:
		case <-ctx.Done():
		}
	}()

	p := tea.NewProgram(NewLiveModel(title, steps, lo, hi, updates), tea.WithAltScreen(), tea.WithContext(ctx))
	_, uiErr := p.Run()
	cancel()
	done := <-finished
	if done.Err != nil {
		return nil, done.Err
	}
	return done.Result, uiErr
}
