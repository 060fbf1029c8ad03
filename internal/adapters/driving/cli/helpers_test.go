package cli

import (
	"context"
	"errors"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driving"
)

// mockLibraryService implements driving.LibraryService for CLI tests.
type mockLibraryService struct {
	docs      []domain.Document
	addErr    error
	removeErr error
	removed   []string
}

func (m *mockLibraryService) AddDocument(_ context.Context, url string) (*domain.Document, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return &domain.Document{
		ID:         "doc-1",
		SourceURL:  url,
		Title:      "Test Article",
		WordCount:  1200,
		ChunkCount: 4,
		Tags:       []string{"go", "testing"},
		Summary:    "An article about testing.",
		Stage:      domain.StageIndexed,
	}, nil
}

func (m *mockLibraryService) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLibraryService) ListDocuments(_ context.Context) ([]domain.Document, error) {
	return m.docs, nil
}

func (m *mockLibraryService) RemoveDocument(_ context.Context, id string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removed = append(m.removed, id)
	return nil
}

// mockAskService implements driving.AskService for CLI tests.
type mockAskService struct {
	answer  *domain.Answer
	results []domain.RetrievalResult
	askErr  error
}

func (m *mockAskService) Ask(_ context.Context, _ string, _ driving.AskOptions) (*domain.Answer, []domain.RetrievalResult, error) {
	return m.answer, m.results, m.askErr
}

func (m *mockAskService) Summarize(_ context.Context, _ string) (string, error) {
	return "A short summary.", nil
}

func (m *mockAskService) Synthesize(_ context.Context, _ string) (string, error) {
	return "A synthesis of your articles.", nil
}

func (m *mockAskService) Related(_ context.Context, _ string, _ int) ([]domain.RetrievalResult, error) {
	return m.results, nil
}

var errMockFailure = errors.New("mock failure")

// setupTestServices installs mock services and returns a cleanup func
// restoring the previous ones.
func setupTestServices() func() {
	oldLibrary, oldAsk := libraryService, askService

	libraryService = &mockLibraryService{
		docs: []domain.Document{
			{
				ID:        "doc-1",
				SourceURL: "https://example.com/go",
				Title:     "Go at Scale",
				Stage:     domain.StageIndexed,
			},
		},
	}
	askService = &mockAskService{
		answer: &domain.Answer{
			Text:     "Go was designed at Google [1].",
			Grounded: true,
			Citations: []domain.Citation{
				{Title: "Go at Scale", SourceURL: "https://example.com/go", ChunkIndex: 0},
			},
		},
		results: []domain.RetrievalResult{
			{
				ChunkID:    "doc-1:0",
				DocumentID: "doc-1",
				Score:      0.91,
				Text:       "Go was designed at Google.",
				Citation:   domain.Citation{Title: "Go at Scale", SourceURL: "https://example.com/go"},
			},
		},
	}

	return func() {
		libraryService = oldLibrary
		askService = oldAsk
	}
}
