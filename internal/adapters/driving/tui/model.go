// Package tui implements the interactive chat session. Questions are
// answered against the library with citations, and the transcript
// scrolls in a viewport.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driving"
)

// AskPort is the chat-facing subset of the ask service.
type AskPort interface {
	Ask(ctx context.Context, question string, opts driving.AskOptions) (*domain.Answer, []domain.RetrievalResult, error)
}

// exchange is one question and its response in the transcript.
type exchange struct {
	question string
	answer   *domain.Answer
	results  []domain.RetrievalResult
	errText  string
}

// answerMsg carries the result of an asynchronous ask back to Update.
type answerMsg struct {
	question string
	answer   *domain.Answer
	results  []domain.RetrievalResult
	err      error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	ask      AskPort
	ctx      context.Context
	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	waiting  bool
	ready    bool
	status   string
}

// New creates a chat model.
func New(ask AskPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your saved articles"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ask:      ask,
		ctx:      context.Background(),
		input:    ti,
		viewport: vp,
		status:   "Type a question and press Enter. Ctrl+C to quit.",
	}
}

// WithContext sets the context used for ask calls.
func (m Model) WithContext(ctx context.Context) Model {
	m.ctx = ctx
	return m
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := inputStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case answerMsg:
		m.waiting = false
		ex := exchange{question: msg.question, answer: msg.answer, results: msg.results}
		if msg.err != nil {
			ex.errText = msg.err.Error()
		}
		m.history = append(m.history, ex)
		m.status = "Type a question and press Enter. Ctrl+C to quit."
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
			if q != "" && !m.waiting {
				m.waiting = true
				m.status = "Thinking..."
				m.input.SetValue("")
				return m, m.askCmd(q)
			}
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
	header := headerStyle.Render("Lecta Chat")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

// askCmd runs the question asynchronously so the UI stays responsive.
func (m Model) askCmd(question string) tea.Cmd {
	ask, ctx := m.ask, m.ctx
	return func() tea.Msg {
		answer, results, err := ask.Ask(ctx, question, driving.AskOptions{})
		return answerMsg{question: question, answer: answer, results: results, err: err}
	}
}

func (m Model) renderTranscript() string {
	if len(m.history) == 0 {
		return "No questions yet."
	}
	var sb strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(questionStyle.Render("You: "+ex.question) + "\n\n")
		sb.WriteString(renderResponse(ex))
	}
	return sb.String()
}

func renderResponse(ex exchange) string {
	// Generation failed but passages were retrieved; show them.
	if ex.errText != "" && len(ex.results) > 0 {
		var sb strings.Builder
		sb.WriteString(errorStyle.Render("Could not generate an answer: "+ex.errText) + "\n")
		sb.WriteString("Retrieved passages:\n")
		for i, r := range ex.results {
			fmt.Fprintf(&sb, "  [%d] %s (%.2f)\n", i+1, r.Citation.Title, r.Score)
		}
		return sb.String()
	}
	if ex.errText != "" {
		return errorStyle.Render("Error: "+ex.errText) + "\n"
	}
	if ex.answer == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(ex.answer.Text + "\n")
	if len(ex.answer.Citations) > 0 {
		sb.WriteString("\nSources:\n")
		for i, c := range ex.answer.Citations {
			fmt.Fprintf(&sb, "  [%d] %s\n      %s\n", i+1, c.Title, c.SourceURL)
		}
	} else if !ex.answer.Grounded {
		sb.WriteString(errorStyle.Render("\n(No citations; this answer may not be grounded.)") + "\n")
	}
	return sb.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
