package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ChunkStore persists the vector index: chunk text, metadata, and
// embedding vectors. The index is rebuilt wholesale by the offline
// ingest job and loaded read-only at serving time.
type ChunkStore struct {
	db *sql.DB
}

func NewChunkStore(dataSourceName string) (*ChunkStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &ChunkStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *ChunkStore) Close() error {
	return s.db.Close()
}

func (s *ChunkStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS chunks (
        id TEXT PRIMARY KEY, -- UUID
        content TEXT NOT NULL,
        query TEXT NOT NULL DEFAULT '',
        source TEXT NOT NULL DEFAULT '',
        embedding_json TEXT -- JSON string of []float32
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// ReplaceAll overwrites the persisted index with the given chunk set in
// a single transaction. A concurrent loader sees either the old index
// or the new one, never a partial write.
func (s *ChunkStore) ReplaceAll(chunks []Chunk) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chunks"); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO chunks (id, content, query, source, embedding_json) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		embeddingBytes, err := json.Marshal(chunks[i].Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}
		chunks[i].EmbeddingJSON = string(embeddingBytes)

		_, err = stmt.Exec(chunks[i].ID, chunks[i].Content, chunks[i].Metadata.Query, chunks[i].Metadata.Source, chunks[i].EmbeddingJSON)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunks[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index transaction: %w", err)
	}
	return nil
}

// LoadAll reads every persisted chunk. Rows with an unreadable
// embedding column are kept with a nil embedding and logged.
func (s *ChunkStore) LoadAll() ([]Chunk, error) {
	rows, err := s.db.Query("SELECT id, content, query, source, embedding_json FROM chunks")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var chunk Chunk
		var embeddingJSON sql.NullString
		if err := rows.Scan(&chunk.ID, &chunk.Content, &chunk.Metadata.Query, &chunk.Metadata.Source, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if embeddingJSON.Valid && embeddingJSON.String != "" {
			if err := json.Unmarshal([]byte(embeddingJSON.String), &chunk.Embedding); err != nil {
				log.Printf("Warning: failed to unmarshal embedding for chunk %s: %v. Embedding will be empty.", chunk.ID, err)
				chunk.Embedding = nil
			}
		} else {
			log.Printf("Warning: empty embedding_json for chunk %s. Embedding will be empty.", chunk.ID)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk rows: %w", err)
	}
	return chunks, nil
}

// Count returns the number of persisted chunks.
func (s *ChunkStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}
