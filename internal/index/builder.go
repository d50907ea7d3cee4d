// Package index builds the persisted retrieval index: it splits
// documents into overlapping chunks and embeds each chunk.
package index

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bom-labs/loan-assistant/internal/store"
)

// EmbedFunc computes the embedding vector for one piece of text.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// embedInterval spaces out embedding calls to stay under the provider's
// rate limit.
const embedInterval = 40 * time.Millisecond

// Build splits the documents into chunks and embeds each one, returning
// the fully constructed chunk set ready for persistence. It fails when
// the document list is empty. A chunk whose embedding call fails is
// logged and dropped.
func Build(ctx context.Context, docs []store.Document, splitter *Splitter, embed EmbedFunc) ([]store.Chunk, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents available for index construction")
	}

	log.Println("Starting text chunking")
	var chunks []store.Chunk
	for _, doc := range docs {
		for _, content := range splitter.Split(doc.Text) {
			chunks = append(chunks, store.Chunk{
				ID:       uuid.NewString(),
				Content:  content,
				Metadata: doc.Metadata,
			})
		}
	}
	log.Printf("Created %d chunks from %d documents", len(chunks), len(docs))

	log.Println("Creating embeddings (this may take a while)...")
	ticker := time.NewTicker(embedInterval)
	defer ticker.Stop()

	embedded := make([]store.Chunk, 0, len(chunks))
	for i := range chunks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		vector, err := embed(ctx, chunks[i].Content)
		if err != nil {
			log.Printf("Failed to generate embedding for chunk %d (%.50s...): %v. Skipping.", i+1, chunks[i].Content, err)
			continue
		}
		chunks[i].Embedding = vector
		embedded = append(embedded, chunks[i])

		if len(embedded)%10 == 0 || i == len(chunks)-1 {
			log.Printf("Embedded %d/%d chunks...", len(embedded), len(chunks))
		}
	}

	if len(embedded) == 0 {
		return nil, fmt.Errorf("no chunks could be embedded")
	}
	return embedded, nil
}
