package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"coursechat/internal/orchestrator"
)

// ChatPort is the TUI-facing subset of the orchestrator.
type ChatPort interface {
	Query(ctx context.Context, sessionID, query string) (orchestrator.Answer, error)
}

type entry struct {
	query   string
	answer  string
	sources []string
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	service   ChatPort
	input     textinput.Model
	viewport  viewport.Model
	entries   []entry
	summary   string
	status    string
	sessionID string
	ready     bool
}

// New creates a new chat model. summary is the one-line corpus description
// shown under the header.
func New(service ChatPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the courses and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+summary, status, input frame, spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				break
			}
			m.input.Reset()
			answer, err := m.service.Query(context.Background(), m.sessionID, q)
			if err != nil {
				m.status = "Error: " + err.Error()
			} else {
				m.sessionID = answer.SessionID
				m.entries = append(m.entries, entry{query: q, answer: answer.Text, sources: answer.Sources})
				m.status = fmt.Sprintf("Session %s", shortID(m.sessionID))
			}
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Course Materials Chat")
	summary := summaryStyle.Render(m.summary)
	transcript := transcriptStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.entries) == 0 {
		return "No messages yet. Ask a question about the loaded courses."
	}
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(userStyle.Render("You: ") + e.query)
		b.WriteString("\n")
		b.WriteString(assistantStyle.Render("Assistant: ") + e.answer)
		if len(e.sources) > 0 {
			b.WriteString("\n")
			b.WriteString(sourceStyle.Render("Sources: " + strings.Join(e.sources, ", ")))
		}
	}
	return b.String()
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	summaryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
