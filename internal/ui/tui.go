package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/accelara/batchdl/internal/batch"
	"github.com/accelara/batchdl/internal/utils"
)

const maxLogLines = 100

// EventMsg carries an orchestrator event into the bubbletea loop.
type EventMsg batch.Event

// Model is the bubbletea model of a batch run. The first ctrl+c cancels
// the run and waits for it to wind down; a second one quits at once.
type Model struct {
	progress progress.Model
	viewport viewport.Model
	state    batch.State
	lines    []string
	width    int
	height   int

	started     bool
	done        bool
	noLinks     bool
	interrupted bool
	cancel      context.CancelFunc
}

func NewModel(cancel context.CancelFunc) Model {
	prog := progress.New(progress.WithDefaultGradient())
	vp := viewport.New(80, 10)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		PaddingLeft(1).
		PaddingRight(1)

	return Model{
		progress: prog,
		viewport: vp,
		cancel:   cancel,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.interrupted {
				return m, tea.Quit
			}
			m.interrupted = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(msg.Width-4, 10)
		m.viewport.Width = max(msg.Width-4, 10)
		// header, bar and stats take 7 lines
		m.viewport.Height = max(msg.Height-7, 5)

	case EventMsg:
		m.state = msg.State
		switch msg.Type {
		case batch.EventNoLinks:
			m.noLinks = true
			m.done = true
			return m, tea.Quit
		case batch.EventStarted:
			m.started = true
		case batch.EventItem:
			m.appendLine(ItemLine(batch.Event(msg)))
		case batch.EventFinished:
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if m.noLinks {
		return MsgNoLinks + "\n"
	}
	if m.done {
		return Summary(m.state) + "\n"
	}
	if !m.started {
		return "Reading manifest and probing sizes...\n"
	}

	title := FoundMessage(m.state.TotalCandidates)
	if m.interrupted {
		title += " Interrupted, finishing up..."
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("211")).
		MarginBottom(1).
		Render(title)

	ratio := utils.Ratio(m.state.CompletedUnits, m.state.TotalUnits)
	bar := m.progress.ViewAs(ratio)

	var statsText string
	if m.state.Mode == batch.ModeBytes {
		statsText = fmt.Sprintf("%s %.1f%% | %s/%s",
			Description(m.state), ratio*100,
			utils.HumanBytes(m.state.CompletedUnits), utils.HumanBytes(m.state.TotalUnits))
	} else {
		statsText = fmt.Sprintf("%s %.1f%% | %d/%d links",
			Description(m.state), ratio*100, m.state.Processed(), m.state.TotalCandidates)
	}
	statsText += fmt.Sprintf(" | %d failed", m.state.Failed)

	stats := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1).
		Render(statsText)

	return lipgloss.JoinVertical(lipgloss.Left, header, bar, stats, m.viewport.View())
}

// ProgramReporter forwards events to a running bubbletea program.
type ProgramReporter struct {
	p *tea.Program
}

func (r ProgramReporter) Report(e batch.Event) {
	r.p.Send(EventMsg(e))
}

// RunTUI shows the TUI while run executes in the background and returns
// what run returned. cancel is invoked on ctrl+c. An error from run closes
// the TUI at once.
func RunTUI(out io.Writer, cancel context.CancelFunc, run func(batch.Reporter) (batch.State, error), opts ...tea.ProgramOption) (batch.State, error) {
	opts = append([]tea.ProgramOption{tea.WithOutput(out)}, opts...)
	p := tea.NewProgram(NewModel(cancel), opts...)

	var (
		st     batch.State
		runErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		st, runErr = run(ProgramReporter{p: p})
		if runErr != nil {
			p.Quit()
		}
	}()

	_, err := p.Run()
	if err != nil {
		// the run may still be blocked sending to the dead program
		cancel()
	}
	<-done
	if runErr != nil {
		return st, runErr
	}
	if err != nil {
		return st, fmt.Errorf("running TUI: %w", err)
	}
	return st, nil
}
