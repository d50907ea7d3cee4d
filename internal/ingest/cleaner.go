package ingest

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	allowListRe  = regexp.MustCompile(`[^\w\s.,%():/-]`)
	urlRe        = regexp.MustCompile(`https?://\S+`)
	percentRe    = regexp.MustCompile(`(\d+)\s*%`)
)

// CleanText normalizes scraped text: collapses whitespace, strips
// characters outside the allow-list, truncates URLs to their domain,
// normalizes "N %" to "N%", and removes duplicate sentences
// (case-insensitive, first occurrence kept). Applying it to already
// cleaned text is a no-op.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = whitespaceRe.ReplaceAllString(text, " ")
	text = allowListRe.ReplaceAllString(text, "")

	text = urlRe.ReplaceAllStringFunc(text, func(url string) string {
		parts := strings.Split(url, "/")
		if len(parts) > 2 {
			return parts[2]
		}
		return url
	})

	text = percentRe.ReplaceAllString(text, "${1}%")

	// Deduplicate sentences, preserving first occurrence and order.
	sentences := strings.Split(text, ".")
	seen := make(map[string]struct{}, len(sentences))
	unique := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		normalized := strings.ToLower(strings.TrimSpace(sentence))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		unique = append(unique, strings.TrimSpace(sentence))
	}

	return strings.Join(unique, ". ")
}
