package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

// SessionPort is the TUI-facing subset of the interactive session service.
type SessionPort interface {
	ProcessFile(ctx context.Context, path string) error
	Ask(ctx context.Context, question string) (domain.PolicyDecision, error)
	Reset()
}

// Model is the Bubble Tea model for the interactive claims console.
// "/load <path>" processes a document, "/reset" clears the session, any
// other input is asked as a question against the loaded document.
type Model struct {
	session SessionPort
	input   textinput.Model
	view    viewport.Model
	lines   []string
	status  string
	loaded  string
	ready   bool
}

func New(session SessionPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "/load <path>, then ask a question"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		session: session,
		input:   ti,
		view:    vp,
		status:  "No document loaded.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, frameH := chatBoxStyle.GetFrameSize()
		_, inputH := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + inputH + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - frameH
		if vh < 3 {
			vh = 3
		}
		m.view.Width = maxInt(20, msg.Width)
		m.view.Height = vh
		m.view.SetContent(m.transcript())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" {
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				break
			}
			m.input.SetValue("")
			m = m.execute(line)
			m.view.SetContent(m.transcript())
			m.view.GotoBottom()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) execute(line string) Model {
	switch {
	case strings.HasPrefix(line, "/load "):
		path := strings.TrimSpace(strings.TrimPrefix(line, "/load "))
		if err := m.session.ProcessFile(context.Background(), path); err != nil {
			m.lines = append(m.lines, errorStyle.Render("error: ")+err.Error())
			m.status = "Load failed."
			return m
		}
		m.loaded = path
		m.lines = nil
		m.status = fmt.Sprintf("Loaded %s. Ask away.", path)
	case line == "/reset":
		m.session.Reset()
		m.loaded = ""
		m.lines = nil
		m.status = "Session cleared."
	default:
		m.lines = append(m.lines, userStyle.Render("you: ")+line)
		decision, err := m.session.Ask(context.Background(), line)
		if err != nil {
			m.lines = append(m.lines, errorStyle.Render("error: ")+err.Error())
			m.status = "Question failed."
			return m
		}
		m.lines = append(m.lines, renderDecision(decision))
		m.status = fmt.Sprintf("Answered against %s.", m.loaded)
	}
	return m
}

func renderDecision(d domain.PolicyDecision) string {
	var b strings.Builder
	b.WriteString(assistantStyle.Render("decision: ") + d.Decision + "\n")
	b.WriteString(assistantStyle.Render("amount: ") + fmt.Sprintf("%.2f", d.Amount) + "\n")
	b.WriteString(assistantStyle.Render("justification: ") + d.Justification)
	for _, clause := range d.SourceClauses {
		b.WriteString("\n" + clauseStyle.Render("clause: ") + clause)
	}
	return b.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Policy Decision Console")
	doc := m.loaded
	if doc == "" {
		doc = "(no document)"
	}
	subtitle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(doc)
	chat := chatBoxStyle.Render(m.view.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + subtitle + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) transcript() string {
	if len(m.lines) == 0 {
		return "No questions asked yet."
	}
	return strings.Join(m.lines, "\n\n")
}

var (
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	clauseStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
