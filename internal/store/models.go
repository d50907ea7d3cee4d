package store

import "time"

// Document is a cleaned search result produced by the corpus builder.
// Documents only exist during ingestion; after indexing, their text
// survives as chunks.
type Document struct {
	Text     string
	Metadata DocumentMetadata
}

type DocumentMetadata struct {
	Query  string `json:"query"`
	Source string `json:"source"`
}

// Chunk is an immutable index entry: a bounded slice of document text
// plus its embedding and inherited metadata.
type Chunk struct {
	ID            string           `json:"id"`
	Content       string           `json:"content"`
	Metadata      DocumentMetadata `json:"metadata"`
	Embedding     []float32        `json:"-"` // Stored as JSON string in DB
	EmbeddingJSON string           `json:"-"`
}

// Exchange is one recorded question/answer turn within a session.
type Exchange struct {
	Timestamp      time.Time `json:"timestamp"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	ContextSources int       `json:"context_sources"`
}
