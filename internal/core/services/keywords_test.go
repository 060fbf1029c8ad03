package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	text := "Go compilers compile Go code. The Go toolchain builds compilers fast. Compilers everywhere."
	got := extractKeywords(text, 3)
	assert.Equal(t, []string{"compilers", "builds", "code"}, got)
}

func TestExtractKeywordsEmptyText(t *testing.T) {
	assert.Empty(t, extractKeywords("", 5))
}

func TestExtractKeywordsSkipsStopWords(t *testing.T) {
	got := extractKeywords("the and was with from", 5)
	assert.Empty(t, got)
}
