package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Go at Scale | Example Blog</title>
  <meta property="og:title" content="Go at Scale">
  <meta name="author" content="Jordan Doe">
  <script>trackVisitor();</script>
  <style>body { color: red }</style>
</head>
<body>
  <nav>Home About Contact</nav>
  <article>
    <h1>Go at Scale</h1>
    <p>Go works well for large services.</p>
    <p>Its toolchain is fast.</p>
  </article>
  <footer>Copyright 2026</footer>
</body>
</html>`

func newFetcherFor(t *testing.T, handler http.HandlerFunc) (*Fetcher, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewFetcher(Config{
		Timeout: 5 * time.Second,
		Retry:   domain.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	})
	return f, srv.URL
}

func TestFetchExtractsArticle(t *testing.T) {
	f, url := newFetcherFor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "lecta")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, samplePage)
	})

	article, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, "Go at Scale", article.Title)
	assert.Equal(t, "Jordan Doe", article.Author)
	assert.Contains(t, article.Text, "Go works well for large services.")
	assert.Contains(t, article.Text, "Its toolchain is fast.")

	// Chrome, scripts and styles stay out of the text.
	assert.NotContains(t, article.Text, "trackVisitor")
	assert.NotContains(t, article.Text, "color: red")
	assert.NotContains(t, article.Text, "Home About Contact")
	assert.NotContains(t, article.Text, "Copyright")
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	f, url := newFetcherFor(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, samplePage)
	})

	article, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "Go at Scale", article.Title)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	f, url := newFetcherFor(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := f.Fetch(context.Background(), url)
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRejectsNonHTML(t *testing.T) {
	f, url := newFetcherFor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4")
	})

	_, err := f.Fetch(context.Background(), url)
	var extErr *domain.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Contains(t, extErr.Reason, "application/pdf")
}

func TestFetchEmptyPage(t *testing.T) {
	f, url := newFetcherFor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><script>render()</script></body></html>`)
	})

	_, err := f.Fetch(context.Background(), url)
	var extErr *domain.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Contains(t, extErr.Reason, "no readable text")
}

func TestExtractFallsBackToDocumentTitle(t *testing.T) {
	article, err := extract("https://example.com/a",
		`<html><head><title>Plain Title</title></head><body><p>Some body text.</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Plain Title", article.Title)
	assert.Empty(t, article.Author)
}
