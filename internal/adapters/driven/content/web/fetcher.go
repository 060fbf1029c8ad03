// Package web provides a content source adapter that fetches articles
// over HTTP and extracts their readable text from the HTML.
package web

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driven"
	"github.com/lecta-labs/lecta-cli/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.ContentSource = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 10 << 20 // 10 MiB

	// DefaultUserAgent identifies the client to origin servers.
	DefaultUserAgent = "lecta/1.0 (+https://github.com/lecta-labs/lecta-cli)"
)

// Config holds configuration for the web fetcher.
type Config struct {
	// UserAgent is sent with every request (default: lecta/1.0).
	UserAgent string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// MaxBodyBytes caps the response body size (default: 10 MiB).
	MaxBodyBytes int64

	// Retry controls backoff for transient failures.
	Retry domain.RetryPolicy
}

// Fetcher downloads a page and extracts the article text. Pages that
// render their content with JavaScript come back empty; that is
// reported as an extraction failure, not worked around.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	retry        domain.RetryPolicy
}

// NewFetcher creates a web content source.
func NewFetcher(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = domain.DefaultRetryPolicy()
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
		retry:        cfg.Retry,
	}
}

// Fetch retrieves the page at url and returns the cleaned article.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.Article, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	article, err := extract(url, body)
	if err != nil {
		return nil, err
	}

	logger.Debug("Extracted %d bytes of text from %s", len(article.Text), url)
	return article, nil
}

// get downloads the page body, retrying transient failures.
func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= f.retry.MaxAttempts; attempt++ {
		body, retryable, err := f.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable || attempt == f.retry.MaxAttempts {
			break
		}

		delay := f.retry.Backoff(attempt)
		logger.Warn("Fetch attempt %d/%d failed, retrying in %s: %v",
			attempt, f.retry.MaxAttempts, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// getOnce issues a single GET. The bool reports whether the failure is
// worth retrying.
func (f *Fetcher) getOnce(ctx context.Context, url string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", false, &domain.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", true, &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, &domain.FetchError{
			URL: url,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err == nil && mediaType != "text/html" && mediaType != "application/xhtml+xml" {
			return "", false, &domain.ExtractionError{URL: url, Reason: "not an HTML page: " + mediaType}
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return "", true, &domain.FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	return string(body), false, nil
}

// blockTags produce a paragraph break around their text.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "blockquote": true, "pre": true, "br": true, "tr": true,
}

// skipTags are never part of the article text.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"nav": true, "header": true, "footer": true, "aside": true,
	"form": true, "iframe": true, "svg": true, "button": true,
}

// extract parses the HTML and pulls out the title, author and body text.
func extract(url, page string) (*domain.Article, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, &domain.ExtractionError{URL: url, Reason: "parse HTML: " + err.Error()}
	}

	title := findTitle(root)

	// Prefer a semantic content element over the whole body.
	content := findFirst(root, "article")
	if content == nil {
		content = findFirst(root, "main")
	}
	if content == nil {
		content = findFirst(root, "body")
	}
	if content == nil {
		content = root
	}

	var sb strings.Builder
	collectText(content, &sb)
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, &domain.ExtractionError{URL: url, Reason: "no readable text found"}
	}

	return &domain.Article{
		SourceURL: url,
		Title:     title,
		Author:    findMeta(root, "author"),
		Text:      text,
	}, nil
}

// findTitle prefers og:title over the document title, which often
// carries site-name suffixes.
func findTitle(root *html.Node) string {
	if t := findMetaProperty(root, "og:title"); t != "" {
		return t
	}
	if node := findFirst(root, "title"); node != nil {
		return strings.TrimSpace(textOf(node))
	}
	if node := findFirst(root, "h1"); node != nil {
		return strings.TrimSpace(textOf(node))
	}
	return ""
}

// findFirst returns the first element with the given tag, depth first.
func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// findMeta returns the content of <meta name=...>.
func findMeta(root *html.Node, name string) string {
	return findMetaAttr(root, "name", name)
}

// findMetaProperty returns the content of <meta property=...>.
func findMetaProperty(root *html.Node, property string) string {
	return findMetaAttr(root, "property", property)
}

func findMetaAttr(n *html.Node, attr, want string) string {
	if n.Type == html.ElementNode && n.Data == "meta" {
		var key, content string
		for _, a := range n.Attr {
			switch a.Key {
			case attr:
				key = a.Val
			case "content":
				content = a.Val
			}
		}
		if strings.EqualFold(key, want) {
			return strings.TrimSpace(content)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findMetaAttr(c, attr, want); found != "" {
			return found
		}
	}
	return ""
}

// collectText walks the subtree appending text content, with paragraph
// breaks around block elements and skip-listed elements pruned.
func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode && skipTags[n.Data] {
		return
	}

	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		sb.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
	if block {
		sb.WriteString("\n")
	}
}

// textOf returns the concatenated text of a subtree.
func textOf(n *html.Node) string {
	var sb strings.Builder
	collectText(n, &sb)
	return sb.String()
}
