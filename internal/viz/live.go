package viz

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/markovsim/internal/markov"
)

const historyCapacity = 120

type TickMsg time.Time

// MachineFactory builds the machine shown by the live view. It is called
// again on restart.
type MachineFactory func() (*markov.Machine, error)

// Model repeatedly accumulates one machine, one cutoff window per tick.
type Model struct {
	name     string
	factory  MachineFactory
	machine  *markov.Machine
	ctrl     []float64
	cutoff   float64
	rng      *rand.Rand
	interval time.Duration

	occupancy   []float64
	transitions int
	windows     int
	simTime     float64
	activity    []float64
	running     bool
	showHelp    bool
	err         error
}

// NewModel builds the first machine eagerly so that configuration errors
// surface before the program starts.
func NewModel(name string, factory MachineFactory, ctrl []float64, cutoff float64, rng *rand.Rand, fps int) (Model, error) {
	if fps < 1 {
		fps = 30
	}
	m := Model{
		name:     name,
		factory:  factory,
		ctrl:     ctrl,
		cutoff:   cutoff,
		rng:      rng,
		interval: time.Second / time.Duration(fps),
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) reset() error {
	machine, err := m.factory()
	if err != nil {
		return err
	}
	m.machine = machine
	m.occupancy = make([]float64, machine.NumStates())
	m.activity = make([]float64, 0, historyCapacity)
	m.transitions = 0
	m.windows = 0
	m.simTime = 0
	m.running = true
	m.err = nil
	return nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
				m.running = false
			}
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

// step accumulates one window and folds it into the occupancy totals.
func (m *Model) step() {
	start := m.machine.CurrentState()
	traj, err := m.machine.Accumulate(m.ctrl, m.rng)
	if err != nil {
		m.err = err
		m.running = false
		return
	}

	prev, state := 0.0, start
	for _, tr := range traj {
		m.occupancy[tr.From] += tr.Time - prev
		prev, state = tr.Time, tr.To
	}
	m.occupancy[state] += m.cutoff - prev

	m.transitions += len(traj)
	m.windows++
	m.simTime += m.cutoff

	if len(m.activity) == historyCapacity {
		m.activity = m.activity[1:]
	}
	m.activity = append(m.activity, float64(len(traj))/m.cutoff)
}

// Occupancy returns the fraction of simulated time spent in each state.
func (m Model) Occupancy() []float64 {
	out := make([]float64, len(m.occupancy))
	if m.simTime == 0 {
		return out
	}
	for i, v := range m.occupancy {
		out[i] = v / m.simTime
	}
	return out
}

func (m Model) Transitions() int { return m.transitions }
func (m Model) Running() bool    { return m.running }
func (m Model) Err() error       { return m.err }

func (m Model) status() string {
	switch {
	case m.err != nil && errors.Is(m.err, markov.ErrStopped):
		return statusStyle(CurrentTheme.Warning).Render("STOPPED")
	case m.err != nil:
		return statusStyle(CurrentTheme.Error).Render("FAILED")
	case !m.running:
		return statusStyle(CurrentTheme.Muted).Render("PAUSED")
	default:
		return statusStyle(CurrentTheme.Success).Render("RUNNING")
	}
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(headerStyle.Foreground(CurrentTheme.Primary).Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	s.WriteString(labelStyle.Render("state") + valueStyle.Render(fmt.Sprintf("%d", m.machine.CurrentState())) + "\n")
	s.WriteString(labelStyle.Render("sim time") + valueStyle.Render(fmt.Sprintf("%.2f", m.simTime)) + "\n")
	s.WriteString(labelStyle.Render("windows") + valueStyle.Render(fmt.Sprintf("%d", m.windows)) + "\n")
	s.WriteString(labelStyle.Render("transitions") + valueStyle.Render(fmt.Sprintf("%d", m.transitions)) + "\n")
	if m.err != nil {
		s.WriteString(labelStyle.Render("error") + statusStyle(CurrentTheme.Error).Render(m.err.Error()) + "\n")
	}

	s.WriteString("\nOCCUPANCY\n")
	for i, f := range m.Occupancy() {
		s.WriteString(fmt.Sprintf("  %-3d %s %5.1f%%\n", i, OccupancyBar(i, f, 30), 100*f))
	}

	if len(m.activity) > 1 {
		chart := asciigraph.Plot(m.activity, asciigraph.Height(4), asciigraph.Width(40), asciigraph.Caption("transitions / unit time"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	} else {
		s.WriteString("\n" + SparklineChart(m.activity, 40) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause R:Restart T:Theme ?:Help Q:Quit"))
	view := panelStyle.Render(s.String())

	if m.showHelp {
		help := lipgloss.JoinVertical(lipgloss.Left,
			"Space  pause or resume",
			"R      restart from a fresh machine",
			"T      cycle themes",
			"?      toggle this help",
			"Q      quit",
		)
		return panelStyle.Render(help) + "\n" + view
	}
	return view
}

// Run starts the live view in the alternate screen and blocks until quit.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
