// Package tui is the interactive terminal client for asking HR questions.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hrchat/internal/domain"
)

// AskPort is the TUI-facing subset of the service.
type AskPort interface {
	Ask(ctx context.Context, userID, question string, topK int) (domain.AnswerEnvelope, error)
	ChunkCount() int
}

type exchange struct {
	question string
	envelope domain.AnswerEnvelope
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	service  AskPort
	userID   string
	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	summary  string
	status   string
	ready    bool
}

// New creates a new chat model instance.
func New(service AskPort, userID, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask an HR question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	status := fmt.Sprintf("Indexed %d chunks. Ask away.", service.ChunkCount())
	return Model{service: service, userID: userID, input: ti, viewport: vp, summary: summary, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := chatBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				env, err := m.service.Ask(context.Background(), m.userID, q, 0)
				if err != nil {
					m.status = "Error: " + err.Error()
				} else {
					m.history = append(m.history, exchange{question: q, envelope: env})
					m.status = fmt.Sprintf("Confidence %.2f", env.Confidence)
					if env.NeedsEscalation {
						m.status += "  (escalated to HR)"
					}
					m.input.SetValue("")
				}
				m.viewport.SetContent(m.renderHistory())
				m.viewport.GotoBottom()
				return m, nil
			}
		case "up":
			m.viewport.LineUp(3)
			return m, nil
		case "down":
			m.viewport.LineDown(3)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and chat transcript.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("HR Chat")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "No questions yet."
	}
	var sb strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(questionStyle.Render("You: " + ex.question))
		sb.WriteString("\n")
		sb.WriteString(ex.envelope.Answer)
		sb.WriteString("\n")
		meta := fmt.Sprintf("confidence %.2f", ex.envelope.Confidence)
		if ex.envelope.NeedsEscalation {
			meta += ", needs escalation"
		}
		if ex.envelope.Reason != "" {
			meta += " (" + ex.envelope.Reason + ")"
		}
		sb.WriteString(metaStyle.Render(meta))
	}
	return sb.String()
}

var (
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
