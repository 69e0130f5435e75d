package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zonepipe/zonepipe/internal/domain/runset"
)

// Model is the live DAG step-status grid `pipelineadm --watch` renders
// (§6). It polls the StepSet rather than subscribing to events, since a
// terminal repaint every tick is simpler than reconciling a bubbletea
// model against a stream of domain events.
type Model struct {
	set      *runset.StepSet
	done     bool
	pipeline string
	spin     spinner.Model
}

// New constructs a dashboard model for set.
func New(pipelineName string, set *runset.StepSet) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	return Model{pipeline: pipelineName, set: set, spin: spin}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.spin.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tickMsg:
		if m.set.AllTerminal() {
			m.done = true
			return m, tea.Quit
		}
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	statusColors = map[string]lipgloss.Color{
		"pending":   lipgloss.Color("243"),
		"running":   lipgloss.Color("214"),
		"finished":  lipgloss.Color("82"),
		"failed":    lipgloss.Color("196"),
		"skipped":   lipgloss.Color("245"),
		"cancelled": lipgloss.Color("245"),
	}
)

// View implements tea.Model.
func (m Model) View() string {
	out := headerStyle.Render("pipeline: "+m.pipeline) + "\n\n"
	for _, step := range m.set.Steps() {
		status := step.Status().String()
		style := lipgloss.NewStyle().Foreground(statusColors[status])
		marker := "  "
		if status == "running" {
			marker = m.spin.View()
		}
		line := marker + " " + style.Render(padRight(step.Step.Name, 24)+status)
		if status == "skipped" {
			line += style.Render(" (blocked by " + step.BlockedBy() + ")")
		}
		out += line + "\n"
	}
	if m.done {
		out += "\n" + headerStyle.Render("run complete, press q to exit") + "\n"
	} else {
		out += "\n(press q to quit)\n"
	}
	return out
}

func padRight(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}
