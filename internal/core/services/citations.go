package services

import "strings"

// Citation marker grammar, version 1.
//
// The model is instructed to mark supporting passages with bracketed
// one-based indices: "[1]", "[3]", or the compact form "[1,3]". The
// parser below is the single authority on what counts as a marker, so
// groundedness is reproducible rather than a best-effort string scan.
//
// Accepted:   [n]  [n,m,...]   with optional spaces after commas
// Rejected:   empty brackets, zero, non-numeric content, unclosed brackets

// parseCitationMarkers extracts the one-based passage indices referenced
// in text, in order of first appearance, without duplicates. Indices
// outside [1, max] are ignored.
func parseCitationMarkers(text string, max int) []int {
	var (
		order []int
		seen  = make(map[int]bool)
	)

	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		end := strings.IndexByte(text[i:], ']')
		if end < 0 {
			break
		}
		end += i

		for _, part := range strings.Split(text[i+1:end], ",") {
			n, ok := parseIndex(strings.TrimSpace(part))
			if !ok {
				continue
			}
			if n < 1 || n > max || seen[n] {
				continue
			}
			seen[n] = true
			order = append(order, n)
		}
		i = end
	}

	return order
}

// parseIndex parses a decimal passage index. Returns false for empty
// strings and anything non-numeric.
func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
		if n > 1<<20 {
			return 0, false
		}
	}
	return n, true
}
