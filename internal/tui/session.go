// Package tui provides the Bubble Tea interactive session interface:
// a live view of the interview with an answer input, question card and
// status bar. The model never mutates orchestration state directly; it
// calls the controller, which serializes everything internally.
package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joss/viva/internal/interview"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	questionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	intentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	waitingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	inputBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("205")).
				Padding(0, 1)
)

type (
	tickMsg     time.Time
	refreshMsg  struct{}
	stopDoneMsg struct {
		bundle *interview.Bundle
		err    error
	}
)

// Model is the session TUI model.
type Model struct {
	ctrl *interview.Controller
	ctx  context.Context

	ready    bool
	stopping bool
	quitting bool

	bundle *interview.Bundle
	err    error

	lastQuestionID string

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	width    int
	height   int
	log      strings.Builder
}

// New creates the session TUI around a started controller.
func New(ctx context.Context, ctrl *interview.Controller) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textarea.New()
	ti.Placeholder = "Type your answer... (Enter to submit, Ctrl+S to skip)"
	ti.CharLimit = 4000
	ti.SetWidth(80)
	ti.SetHeight(3)
	ti.Focus()

	return Model{
		ctrl:    ctrl,
		ctx:     ctx,
		spinner: s,
		input:   ti,
	}
}

// Run drives the TUI to completion and returns the final bundle.
func Run(ctx context.Context, ctrl *interview.Controller) (*interview.Bundle, error) {
	program := tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(Model)
	if !ok {
		return nil, nil
	}
	return m.bundle, m.err
}

// Init starts the UI clock and spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case tickMsg:
		m.syncQuestion()
		m.viewport.SetContent(m.log.String())
		return m, tick()

	case refreshMsg:
		m.syncQuestion()
		m.viewport.SetContent(m.log.String())
		return m, nil

	case stopDoneMsg:
		m.bundle = msg.bundle
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.stopping {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.stopping {
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		return m.stop()

	case "enter":
		answer := strings.TrimSpace(m.input.Value())
		if answer == "" || m.ctrl.CurrentQuestion() == nil {
			return m, nil
		}
		m.input.SetValue("")
		m.log.WriteString(answerStyle.Render("A: "+answer) + "\n\n")
		m.viewport.SetContent(m.log.String())
		m.viewport.GotoBottom()
		ctrl, ctx := m.ctrl, m.ctx
		return m, func() tea.Msg {
			ctrl.SubmitAnswer(ctx, answer, interview.AnswerTyped)
			return tickMsg(time.Now())
		}

	case "ctrl+s":
		if m.ctrl.CurrentQuestion() == nil {
			return m, nil
		}
		m.log.WriteString(waitingStyle.Render("(skipped)") + "\n\n")
		m.viewport.SetContent(m.log.String())
		ctrl, ctx := m.ctrl, m.ctx
		return m, func() tea.Msg {
			ctrl.SkipQuestion(ctx)
			return tickMsg(time.Now())
		}

	case "ctrl+f":
		ctrl, ctx := m.ctrl, m.ctx
		return m, func() tea.Msg {
			ctrl.AskFollowupNow(ctx)
			return tickMsg(time.Now())
		}

	case "alt+enter", "ctrl+j":
		m.input.SetValue(m.input.Value() + "\n")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) stop() (tea.Model, tea.Cmd) {
	m.stopping = true
	m.input.Blur()
	ctrl, ctx := m.ctrl, m.ctx
	return *m, func() tea.Msg {
		bundle, err := ctrl.Stop(ctx)
		return stopDoneMsg{bundle: bundle, err: err}
	}
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 2
	questionHeight := 5
	statusHeight := 1
	inputHeight := 5
	vpHeight := msg.Height - headerHeight - questionHeight - statusHeight - inputHeight

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.viewport.SetContent(m.log.String())
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
		m.viewport.SetContent(m.log.String())
	}

	m.input.SetWidth(msg.Width - 4)
	return m, nil
}

// syncQuestion appends newly asked questions to the scrollback.
func (m *Model) syncQuestion() {
	q := m.ctrl.CurrentQuestion()
	if q == nil || q.ID == m.lastQuestionID {
		return
	}
	m.lastQuestionID = q.ID
	m.log.WriteString(intentStyle.Render("Q ["+string(q.Intent)+"]") + " " + q.Text + "\n")
	m.viewport.GotoBottom()
}

// View renders the interface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("viva session") + "\n\n")
	sb.WriteString(m.viewport.View() + "\n")

	if q := m.ctrl.CurrentQuestion(); q != nil {
		card := intentStyle.Render(string(q.Intent)) + " (difficulty " + difficultyDots(q.Difficulty) + ")\n" + q.Text
		sb.WriteString(questionStyle.Width(m.width-2).Render(card) + "\n")
	} else if m.stopping {
		sb.WriteString(waitingStyle.Render(m.spinner.View()+" Generating report...") + "\n")
	} else {
		sb.WriteString(waitingStyle.Render(m.spinner.View()+" Listening for evidence...") + "\n")
	}

	sb.WriteString(m.statusBar() + "\n")
	sb.WriteString(inputBorderStyle.Width(m.width - 2).Render(m.input.View()))

	return sb.String()
}

func (m Model) statusBar() string {
	transcript, ocr := m.ctrl.EvidenceCounts()
	parts := []string{
		m.ctrl.Elapsed().Truncate(time.Second).String(),
		statusLabel("q", m.ctrl.QuestionCount()),
		statusLabel("transcript", transcript),
		statusLabel("ocr", ocr),
	}
	if depth := m.ctrl.FollowupDepth(); depth > 0 {
		parts = append(parts, statusLabel("followups", depth))
	}
	bar := statusStyle.Render(strings.Join(parts, " │ "))
	if warning := m.ctrl.Warning(); warning != "" {
		bar += " " + warnStyle.Render(warning)
	}
	return bar
}

func statusLabel(name string, n int) string {
	return name + ":" + strconv.Itoa(n)
}

func difficultyDots(d int) string {
	switch d {
	case 2:
		return "••"
	case 3:
		return "•••"
	default:
		return "•"
	}
}
