package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResult_JSON(t *testing.T) {
	raw := `{"results": [
		{"title": "Home Loans", "url": "https://bankofmaharashtra.bank.in/home-loan", "text": "Rates start at 8.5% per annum."},
		{"title": "Fees", "url": "https://bankofmaharashtra.bank.in/fees", "text": "Processing fee is 0.25%."}
	]}`

	parsed := ParseResult(raw)
	require.Equal(t, ShapeJSON, parsed.Shape)
	require.Len(t, parsed.Records, 2)
	assert.Equal(t, "Home Loans", parsed.Records[0].Title)
	assert.Equal(t, "https://bankofmaharashtra.bank.in/fees", parsed.Records[1].URL)
	assert.Equal(t, "Rates start at 8.5% per annum.", parsed.Records[0].Text)
}

func TestParseResult_JSONWithoutResults(t *testing.T) {
	raw := `{"message": "rate limited"}`
	parsed := ParseResult(raw)
	assert.Equal(t, ShapeUnstructured, parsed.Shape)
	assert.Equal(t, raw, parsed.Opaque)
}

func TestParseResult_StructuredText(t *testing.T) {
	raw := "Title: Home Loans\nURL: https://bankofmaharashtra.bank.in/home-loan\nText: Rates start at 8.5% per annum.\nTitle: Education Loans\nURL: https://bankofmaharashtra.bank.in/education\nText: Margin is 5% above 4 lakh."

	parsed := ParseResult(raw)
	require.Equal(t, ShapeStructured, parsed.Shape)
	require.Len(t, parsed.Records, 2)
	assert.Equal(t, "Home Loans", parsed.Records[0].Title)
	assert.Equal(t, "https://bankofmaharashtra.bank.in/education", parsed.Records[1].URL)
	assert.Equal(t, "Margin is 5% above 4 lakh.", parsed.Records[1].Text)
}

func TestParseResult_StructuredTextDropsIncompleteBlocks(t *testing.T) {
	raw := "Title: Complete\nURL: https://example.com/a\nText: body here\nTitle: Missing the rest"

	parsed := ParseResult(raw)
	require.Equal(t, ShapeStructured, parsed.Shape)
	require.Len(t, parsed.Records, 1)
	assert.Equal(t, "Complete", parsed.Records[0].Title)
}

func TestParseResult_Opaque(t *testing.T) {
	raw := "just some prose about loans with no recognizable structure"
	parsed := ParseResult(raw)
	assert.Equal(t, ShapeOpaque, parsed.Shape)
	assert.Equal(t, raw, parsed.Opaque)
}

func TestParseResult_NeverFails(t *testing.T) {
	for _, raw := range []string{"", "{", "Title:", "null", "[]"} {
		parsed := ParseResult(raw)
		assert.Contains(t, []ResultShape{ShapeJSON, ShapeStructured, ShapeUnstructured, ShapeOpaque}, parsed.Shape, "input %q", raw)
	}
}

func TestRenderResult_Records(t *testing.T) {
	cleanContent, formattedContent := RenderResult(ParsedResult{
		Shape: ShapeJSON,
		Records: []Record{
			{Title: "Home Loans", URL: "https://bankofmaharashtra.bank.in/home", Text: "Rates from 8 % onwards."},
			{Title: "Empty", URL: "https://bankofmaharashtra.bank.in/none", Text: "  "},
		},
	})

	assert.Contains(t, cleanContent, "Source: Home Loans")
	assert.Contains(t, cleanContent, "Rates from 8% onwards")
	assert.NotContains(t, cleanContent, "Empty")

	assert.Contains(t, formattedContent, "=== DOCUMENT 1 ===")
	assert.Contains(t, formattedContent, "TITLE: Home Loans")
	assert.NotContains(t, formattedContent, "=== DOCUMENT 2 ===")
}

func TestRenderResult_Opaque(t *testing.T) {
	cleanContent, formattedContent := RenderResult(ParsedResult{
		Shape:  ShapeOpaque,
		Opaque: "loan rates are 9 % flat",
	})

	assert.Contains(t, cleanContent, "Source: Exa Search Result")
	assert.Contains(t, cleanContent, "9% flat")
	assert.Contains(t, formattedContent, "=== RAW TEXT ===")
	assert.NotContains(t, formattedContent, "=== UNSTRUCTURED DATA ===")
}

func TestRenderResult_Unstructured(t *testing.T) {
	cleanContent, formattedContent := RenderResult(ParsedResult{
		Shape:  ShapeUnstructured,
		Opaque: `{"message": "loan rates are 9 % flat"}`,
	})

	assert.NotContains(t, cleanContent, "Source: Exa Search Result")
	assert.Contains(t, cleanContent, "9% flat")
	assert.Contains(t, formattedContent, "=== UNSTRUCTURED DATA ===")
	assert.NotContains(t, formattedContent, "=== RAW TEXT ===")
}
