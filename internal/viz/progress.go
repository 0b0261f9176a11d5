package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/dfba/internal/dynamo"
)

// StepMsg reports one accepted step of a running simulation.
type StepMsg struct {
	T float64
	X dynamo.State
}

type DoneMsg struct {
	Result *dynamo.Result
	Err    error
}

type TickMsg time.Time

// ProgramObserver forwards accepted steps to a Bubble Tea program. Steps
// closer together than Interval are dropped to keep the UI responsive.
type ProgramObserver struct {
	Program  *tea.Program
	Interval time.Duration
	last     time.Time
}

func (o *ProgramObserver) OnStep(x dynamo.State, t float64) {
	now := time.Now()
	if now.Sub(o.last) < o.Interval {
		return
	}
	o.last = now
	o.Program.Send(StepMsg{T: t, X: x.Clone()})
}

// Progress follows a simulation from t0 to tEnd.
type Progress struct {
	t0, tEnd float64
	current  StepMsg
	biomass  []float64
	glucose  []float64
	frame    int
	done     *DoneMsg
	cancel   context.CancelFunc
	width    int
}

func NewProgress(t0, tEnd float64, cancel context.CancelFunc) Progress {
	return Progress{t0: t0, tEnd: tEnd, cancel: cancel, width: 60}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Progress) Init() tea.Cmd {
	return tick()
}

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-4, 20)
	case StepMsg:
		m.current = msg
		if len(msg.X) >= 2 {
			m.biomass = append(m.biomass, msg.X[0])
			m.glucose = append(m.glucose, msg.X[1])
		}
	case DoneMsg:
		m.done = &msg
		return m, tea.Quit
	case TickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m Progress) fraction() float64 {
	if m.tEnd <= m.t0 {
		return 1
	}
	return (m.current.T - m.t0) / (m.tEnd - m.t0)
}

func (m Progress) View() string {
	var sb strings.Builder

	spinner := AnimatedSpinner(m.frame)
	if m.done != nil {
		spinner = "✓"
	}
	sb.WriteString(fmt.Sprintf("%s %s  t = %.3f h\n", spinner, Title.Render("integrating"), m.current.T))
	sb.WriteString(ProgressBar(m.fraction(), m.width) + "\n")

	if len(m.current.X) >= 2 {
		sb.WriteString(MetricLabel.Render("biomass") + " " + BiomassText.Render(fmt.Sprintf("%.5f gDW/L", m.current.X[0])) + "\n")
		sb.WriteString(MetricLabel.Render("glucose") + " " + GlucoseText.Render(fmt.Sprintf("%.5f mmol/L", m.current.X[1])) + "\n")
		sb.WriteString(Sparkline(m.biomass, m.width, BiomassText) + "\n")
		sb.WriteString(Sparkline(m.glucose, m.width, GlucoseText) + "\n")
	}

	if m.done == nil {
		sb.WriteString(KeyHint.Render("q to cancel") + "\n")
	}
	return sb.String()
}

// RunWithProgress runs the simulation under a progress view and returns
// its result once both have finished.
func RunWithProgress(ctx context.Context, sim *dynamo.Simulator, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgress(cfg.T0, cfg.T0+cfg.Duration, cancel))
	sim.AddObserver(&ProgramObserver{Program: p, Interval: 50 * time.Millisecond})

	done := make(chan DoneMsg, 1)
	go func() {
		res, err := sim.Run(ctx, x0, cfg)
		msg := DoneMsg{Result: res, Err: err}
		done <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}

	msg := <-done
	return msg.Result, msg.Err
}
