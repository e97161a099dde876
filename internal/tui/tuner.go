// Package tui is an interactive terminal voltage tuner: adjust
// electrode voltages and watch the equilibrium and mode spectrum
// re-solve live.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/iontools/trapmode/internal/equilibrium"
	"github.com/iontools/trapmode/internal/field"
	"github.com/iontools/trapmode/internal/modes"
	"github.com/iontools/trapmode/internal/numeric"
	"github.com/iontools/trapmode/internal/potential"
	"github.com/iontools/trapmode/internal/trap"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type model struct {
	sample  *field.AxialSample
	chain   trap.Chain
	eqCfg   equilibrium.Config
	modeCfg modes.Config

	labels   []string
	voltages field.Voltages
	cursor   int
	step     float64

	editing bool
	editBuf string

	eq      *equilibrium.State
	result  *modes.Result
	pot     *potential.Model
	lastErr error

	width  int
	height int
}

// NewTuner builds the tuner over a loaded field sample.
func NewTuner(sample *field.AxialSample, chain trap.Chain, volts field.Voltages, eqCfg equilibrium.Config, modeCfg modes.Config) *model {
	m := &model{
		sample:   sample,
		chain:    chain,
		eqCfg:    eqCfg,
		modeCfg:  modeCfg,
		labels:   sample.Electrodes(),
		voltages: make(field.Voltages),
		step:     0.1,
		width:    80,
		height:   24,
	}
	for label, v := range volts {
		m.voltages[label] = v
	}
	m.solve()
	return m
}

// Run starts the tuner and blocks until quit.
func Run(sample *field.AxialSample, chain trap.Chain, volts field.Voltages, eqCfg equilibrium.Config, modeCfg modes.Config) error {
	p := tea.NewProgram(NewTuner(sample, chain, volts, eqCfg, modeCfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *model) solve() {
	m.eq, m.result, m.pot, m.lastErr = nil, nil, nil, nil

	pot, err := potential.NewModel(m.sample, m.voltages)
	if err != nil {
		m.lastErr = err
		return
	}
	m.pot = pot

	eq, err := equilibrium.Solve(pot, m.chain, m.eqCfg)
	if err != nil {
		m.lastErr = err
		return
	}
	m.eq = eq

	res, err := modes.Solve(pot, m.chain, eq, m.modeCfg)
	if err != nil {
		m.lastErr = err
		return
	}
	m.result = res
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.labels)-1 {
				m.cursor++
			}
		case "left", "h":
			m.adjust(-m.step)
		case "right", "l":
			m.adjust(m.step)
		case "+":
			m.step *= 10
		case "-":
			m.step /= 10
		case "0":
			m.voltages[m.labels[m.cursor]] = 0
			m.solve()
		case "e", "enter":
			m.editing = true
			m.editBuf = ""
		}
	}
	return m, nil
}

func (m *model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
			m.voltages[m.labels[m.cursor]] = v
			m.solve()
		}
		m.editing = false
	case "esc":
		m.editing = false
	case "backspace":
		if len(m.editBuf) > 0 {
			m.editBuf = m.editBuf[:len(m.editBuf)-1]
		}
	default:
		s := msg.String()
		if len(s) == 1 && strings.ContainsAny(s, "0123456789.-+e") {
			m.editBuf += s
		}
	}
	return m, nil
}

func (m *model) adjust(dv float64) {
	label := m.labels[m.cursor]
	m.voltages[label] += dv
	m.solve()
}

func (m *model) View() string {
	var sb strings.Builder

	sb.WriteString(cyan.Render("trapmode voltage tuner"))
	sb.WriteString(dim.Render(fmt.Sprintf("  (%d ions, step %g V)", len(m.chain), m.step)))
	sb.WriteString("\n\n")

	for i, label := range m.labels {
		line := fmt.Sprintf("  %-8s %+9.4f V", label, m.voltages[label])
		if i == m.cursor {
			if m.editing {
				line = fmt.Sprintf("> %-8s %s_", label, m.editBuf)
			}
			sb.WriteString(yellow.Render(line))
		} else {
			sb.WriteString(white.Render(line))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if m.pot != nil {
		sb.WriteString(m.plotPotential())
		sb.WriteString("\n")
	}

	if m.lastErr != nil {
		sb.WriteString(red.Render(fmt.Sprintf("  solve failed: %v", m.lastErr)))
		sb.WriteString("\n")
	} else if m.result != nil {
		sb.WriteString(green.Render("  modes:"))
		sb.WriteString("\n")
		for k, f := range m.result.FrequenciesHz() {
			sb.WriteString(white.Render(fmt.Sprintf("    %d: %10.4f kHz", k, f/1e3)))
			sb.WriteString("\n")
		}
		sb.WriteString(dim.Render(fmt.Sprintf("  positions (um): %s  [%d iterations]",
			formatPositions(m.eq.Positions), m.eq.Iterations)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(dim.Render("  j/k select  h/l adjust  +/- step  e edit  0 zero  q quit"))
	return sb.String()
}

func (m *model) plotPotential() string {
	min, max := m.pot.Domain()
	xs := numeric.Linspace(min, max, 72)
	vs := make([]float64, 0, len(xs))
	for _, x := range xs {
		v, err := m.pot.Eval(x)
		if err != nil {
			continue
		}
		vs = append(vs, v)
	}
	if len(vs) < 2 {
		return ""
	}
	return asciigraph.Plot(vs, asciigraph.Height(8), asciigraph.Offset(4))
}

func formatPositions(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = fmt.Sprintf("%.3f", v*1e6)
	}
	return strings.Join(parts, ", ")
}
