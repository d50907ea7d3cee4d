package ingest

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ResultShape identifies which of the three provider response shapes a
// raw result matched.
type ResultShape int

const (
	// ShapeJSON is a valid JSON body carrying a "results" array.
	ShapeJSON ResultShape = iota
	// ShapeStructured is plain text made of repeated Title:/URL:/Text:
	// record blocks.
	ShapeStructured
	// ShapeUnstructured is valid JSON that carries no results array.
	ShapeUnstructured
	// ShapeOpaque is non-JSON text with no recognizable record blocks,
	// kept as one opaque document.
	ShapeOpaque
)

func (s ResultShape) String() string {
	switch s {
	case ShapeJSON:
		return "json"
	case ShapeStructured:
		return "structured"
	case ShapeUnstructured:
		return "unstructured"
	default:
		return "opaque"
	}
}

// Record is one search hit extracted from a provider response.
type Record struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

// ParsedResult is the outcome of parsing a raw provider response.
// Records is populated for the JSON and structured shapes; Opaque holds
// the raw text for the unstructured and opaque shapes.
type ParsedResult struct {
	Shape   ResultShape
	Records []Record
	Opaque  string
}

var (
	titleMarkerRe = regexp.MustCompile(`Title:`)
	recordBlockRe = regexp.MustCompile(`(?s)Title:[ \t]*(.*?)\n.*?URL:[ \t]*(.*?)\n.*?Text:[ \t]*(.*)`)
)

// ParseResult classifies a raw provider response into one of the three
// shapes. It is total: any input yields at least the opaque variant.
func ParseResult(raw string) ParsedResult {
	var body struct {
		Results []Record `json:"results"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err == nil {
		if strings.Contains(raw, `"results"`) && body.Results != nil {
			return ParsedResult{Shape: ShapeJSON, Records: body.Results}
		}
		return ParsedResult{Shape: ShapeUnstructured, Opaque: raw}
	}

	if records := parseRecordBlocks(raw); len(records) > 0 {
		return ParsedResult{Shape: ShapeStructured, Records: records}
	}

	return ParsedResult{Shape: ShapeOpaque, Opaque: raw}
}

// parseRecordBlocks extracts Title:/URL:/Text: records. Each block runs
// from one Title: marker to the next; blocks missing a URL or Text
// field are dropped.
func parseRecordBlocks(raw string) []Record {
	markers := titleMarkerRe.FindAllStringIndex(raw, -1)
	if markers == nil {
		return nil
	}

	var records []Record
	for i, marker := range markers {
		end := len(raw)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		block := raw[marker[0]:end]

		m := recordBlockRe.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		records = append(records, Record{
			Title: strings.TrimSpace(m[1]),
			URL:   strings.TrimSpace(m[2]),
			Text:  strings.TrimSpace(m[3]),
		})
	}
	return records
}
