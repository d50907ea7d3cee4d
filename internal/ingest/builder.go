package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bom-labs/loan-assistant/internal/store"
)

// SourceLabel is attached to every document built from provider results.
const SourceLabel = "Bank of Maharashtra"

// DefaultQueries is the fixed ordered query set the corpus is built from.
var DefaultQueries = []string{
	"site:bankofmaharashtra.bank.in interest rates home loan",
	"site:bankofmaharashtra.bank.in personal loan eligibility",
	"site:bankofmaharashtra.bank.in Maha Super Flexi Housing Loan",
	"site:bankofmaharashtra.bank.in processing fee home loan",
	"site:bankofmaharashtra.bank.in education loan",
	"site:bankofmaharashtra.bank.in vehicle loan rates",
}

// Builder fetches search results and accumulates cleaned documents.
// Raw and cleaned text are appended to audit files as it goes.
type Builder struct {
	search      Searcher
	queries     []string
	rawPath     string
	cleanedPath string
}

func NewBuilder(search Searcher, rawPath, cleanedPath string) *Builder {
	return &Builder{
		search:      search,
		queries:     DefaultQueries,
		rawPath:     rawPath,
		cleanedPath: cleanedPath,
	}
}

// Fetch runs every configured query and returns one document per query
// that yielded content. A failed query reduces the yield but never
// aborts the remaining queries.
func (b *Builder) Fetch(ctx context.Context) ([]store.Document, error) {
	log.Println("Starting data collection and processing")

	for _, path := range []string{b.rawPath, b.cleanedPath} {
		if err := os.Remove(path); err == nil {
			log.Printf("Removed existing file: %s", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Could not remove existing file %s: %v", path, err)
		}
	}

	var documents []store.Document
	successful := 0

	for _, query := range b.queries {
		log.Printf("Processing query: %s", query)

		raw, err := b.search.Search(ctx, query)
		if err != nil {
			log.Printf("Failed to process query %q: %v", query, err)
			continue
		}

		if err := appendToFile(b.rawPath, fmt.Sprintf("QUERY: %s\nRAW_RESULT:\n%s", query, raw)); err != nil {
			log.Printf("Failed to process query %q: %v", query, err)
			continue
		}

		cleanContent, formattedContent := RenderResult(ParseResult(raw))

		if err := appendToFile(b.cleanedPath, fmt.Sprintf("QUERY: %s\n%s", query, formattedContent)); err != nil {
			log.Printf("Failed to process query %q: %v", query, err)
			continue
		}

		if strings.TrimSpace(cleanContent) == "" {
			log.Printf("No content extracted from: %s", query)
			continue
		}

		documents = append(documents, store.Document{
			Text: cleanContent,
			Metadata: store.DocumentMetadata{
				Query:  query,
				Source: SourceLabel,
			},
		})
		successful++
		log.Printf("Successfully processed: %s", query)
	}

	log.Printf("Completed: %d/%d queries successful", successful, len(b.queries))
	return documents, nil
}

// RenderResult turns a parsed provider response into the cleaned
// document text and the formatted block written to the cleaned audit
// file. Records whose text cleans down to nothing are dropped.
func RenderResult(parsed ParsedResult) (cleanContent, formattedContent string) {
	switch parsed.Shape {
	case ShapeUnstructured:
		cleaned := CleanText(parsed.Opaque)
		if cleaned == "" {
			return "", ""
		}
		return cleaned, fmt.Sprintf("=== UNSTRUCTURED DATA ===\n%s\n", cleaned)
	case ShapeOpaque:
		cleaned := CleanText(parsed.Opaque)
		if cleaned == "" {
			return "", ""
		}
		cleanContent = fmt.Sprintf("Source: Exa Search Result\nContent: %s", cleaned)
		formattedContent = fmt.Sprintf("=== RAW TEXT ===\n%s\n", cleaned)
		return cleanContent, formattedContent
	}

	var clean, formatted strings.Builder
	for idx, record := range parsed.Records {
		cleaned := CleanText(record.Text)
		if cleaned == "" {
			continue
		}

		clean.WriteString(fmt.Sprintf("Source: %s\nURL: %s\nContent: %s\n\n", record.Title, record.URL, cleaned))

		formatted.WriteString(fmt.Sprintf("=== DOCUMENT %d ===\n", idx+1))
		formatted.WriteString(fmt.Sprintf("TITLE: %s\n", record.Title))
		formatted.WriteString(fmt.Sprintf("URL: %s\n", record.URL))
		formatted.WriteString(fmt.Sprintf("CONTENT:\n%s\n", cleaned))
		formatted.WriteString(strings.Repeat("=", 50) + "\n")
	}
	return clean.String(), formatted.String()
}

func appendToFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content + "\n\n"); err != nil {
		return fmt.Errorf("failed to write to %s: %w", path, err)
	}
	return nil
}
