package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driving"
)

type mockAsk struct {
	answer  *domain.Answer
	results []domain.RetrievalResult
	err     error
	asked   []string
}

func (m *mockAsk) Ask(_ context.Context, question string, _ driving.AskOptions) (*domain.Answer, []domain.RetrievalResult, error) {
	m.asked = append(m.asked, question)
	return m.answer, m.results, m.err
}

func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func TestViewBeforeFirstSize(t *testing.T) {
	m := New(&mockAsk{})
	assert.Equal(t, "Loading...", m.View())
}

func TestEnterSubmitsQuestion(t *testing.T) {
	ask := &mockAsk{answer: &domain.Answer{Text: "An answer [1].", Grounded: true}}
	m := sized(New(ask))
	m.input.SetValue("what is go?")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	require.NotNil(t, cmd)
	assert.True(t, m.waiting)
	assert.Empty(t, m.input.Value())

	// The command performs the ask and yields the answer message.
	msg := cmd()
	answer, ok := msg.(answerMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"what is go?"}, ask.asked)
	assert.Equal(t, "what is go?", answer.question)
}

func TestAnswerAppendsToTranscript(t *testing.T) {
	m := sized(New(&mockAsk{}))
	m.waiting = true

	updated, _ := m.Update(answerMsg{
		question: "what is go?",
		answer: &domain.Answer{
			Text:     "Go is a language [1].",
			Grounded: true,
			Citations: []domain.Citation{
				{Title: "Go at Scale", SourceURL: "https://example.com/go"},
			},
		},
	})
	m = updated.(Model)

	assert.False(t, m.waiting)
	view := m.View()
	assert.Contains(t, view, "You: what is go?")
	assert.Contains(t, view, "Go is a language [1].")
	assert.Contains(t, view, "Go at Scale")
}

func TestGenerationFailureShowsPassages(t *testing.T) {
	m := sized(New(&mockAsk{}))

	updated, _ := m.Update(answerMsg{
		question: "what is go?",
		results: []domain.RetrievalResult{
			{Score: 0.88, Citation: domain.Citation{Title: "Go at Scale"}},
		},
		err: errors.New("model unavailable"),
	})
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "Could not generate an answer")
	assert.Contains(t, view, "Go at Scale")
}

func TestEmptyInputIsIgnored(t *testing.T) {
	m := sized(New(&mockAsk{}))
	m.input.SetValue("   ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestCtrlCQuits(t *testing.T) {
	m := sized(New(&mockAsk{}))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
