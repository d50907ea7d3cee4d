package core

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bom-labs/loan-assistant/internal/store"
	"github.com/bom-labs/loan-assistant/internal/utils"
)

const (
	// FallbackAnswer is returned when retrieval yields no chunks; no
	// model call is made in that case.
	FallbackAnswer = "I couldn't find relevant information in the bank's documentation. Please contact Bank of Maharashtra directly for assistance."

	noHistoryMarker = "No previous conversation"
	contextDivider  = "\n\n---\n\n"

	historyWindow      = 3   // exchanges of history included in the prompt
	answerPreviewLimit = 200 // characters of each stored answer shown as history
	snippetLimit       = 300 // characters of each chunk shown as a context snippet
)

// Embedder converts text into an embedding vector.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// AnswerGenerator produces a plain-text answer from a rendered prompt.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}

// ChunkLoader loads the persisted index entries.
type ChunkLoader interface {
	LoadAll() ([]store.Chunk, error)
}

// QueryResult is the answer to one question plus the context that
// grounded it.
type QueryResult struct {
	Answer      string
	ContextUsed []string
	Sources     []string
}

// RAGService is the retrieval-augmented query pipeline. It owns the
// in-memory chunk set loaded from the persisted index, which is
// read-only for the lifetime of the process.
type RAGService struct {
	chunkStore    ChunkLoader
	conversations *store.ConversationStore
	embedder      Embedder
	llm           AnswerGenerator
	topK          int

	mu          sync.Mutex
	chunks      []store.Chunk
	initialized bool
}

func NewRAGService(chunkStore ChunkLoader, conversations *store.ConversationStore, embedder Embedder, llm AnswerGenerator, topK int) *RAGService {
	if topK <= 0 {
		topK = 5
	}
	return &RAGService{
		chunkStore:    chunkStore,
		conversations: conversations,
		embedder:      embedder,
		llm:           llm,
		topK:          topK,
	}
}

// Initialize loads the persisted index into memory. Calling it again
// once initialized is a no-op.
func (s *RAGService) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		log.Println("System already initialized")
		return nil
	}

	chunks, err := s.chunkStore.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	if len(chunks) == 0 {
		log.Println("Warning: index is empty. Run the server with -ingest first.")
	} else {
		log.Printf("Loaded %d chunks from the persisted index.", len(chunks))
	}

	s.chunks = chunks
	s.initialized = true
	return nil
}

// Ready reports whether the index has been loaded.
func (s *RAGService) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// ClearConversation removes the session's history and reports whether
// any existed.
func (s *RAGService) ClearConversation(sessionID string) (bool, error) {
	existed, err := s.conversations.Clear(sessionID)
	if err != nil {
		return false, err
	}
	if existed {
		log.Printf("Cleared conversation for session: %s", sessionID)
	}
	return existed, nil
}

// Process answers one question for a session: it validates the
// question, retrieves the most similar chunks, renders the prompt with
// recent history, calls the model once, records the exchange, and
// returns the answer with its supporting snippets and source labels.
func (s *RAGService) Process(ctx context.Context, question, sessionID string) (*QueryResult, error) {
	question, err := validateQuestion(question)
	if err != nil {
		return nil, err
	}
	log.Printf("Processing query: %.100s", question)

	if !s.Ready() {
		if err := s.Initialize(); err != nil {
			return nil, err
		}
	}

	history, err := s.conversations.Load(sessionID)
	if err != nil {
		log.Printf("Failed to load conversation for session %s: %v. Proceeding without history.", sessionID, err)
		history = nil
	}
	historyText := formatHistory(history)

	queryEmbedding, err := s.embedder.GetEmbedding(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	docs := s.retrieve(queryEmbedding)
	log.Printf("Retrieved %d relevant chunks", len(docs))

	if len(docs) == 0 {
		log.Println("No relevant chunks found")
		return &QueryResult{
			Answer:      FallbackAnswer,
			ContextUsed: []string{},
			Sources:     []string{},
		}, nil
	}

	var contextParts []string
	for i, chunk := range docs {
		contextParts = append(contextParts, fmt.Sprintf("Source %d:\n%s", i+1, chunk.Content))
	}
	contextText := strings.Join(contextParts, contextDivider)

	prompt := RenderPrompt(contextText, historyText, question)
	answer, err := s.llm.GenerateAnswer(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	snippets := make([]string, 0, len(docs))
	sourceSet := make(map[string]struct{})
	for _, chunk := range docs {
		snippets = append(snippets, truncateRunes(chunk.Content, snippetLimit))
		sourceSet[chunk.Metadata.Source] = struct{}{}
	}
	sources := make([]string, 0, len(sourceSet))
	for source := range sourceSet {
		sources = append(sources, source)
	}

	if err := s.conversations.Append(sessionID, store.Exchange{
		Question:       question,
		Answer:         answer,
		ContextSources: len(snippets),
	}); err != nil {
		log.Printf("Failed to save conversation for session %s: %v", sessionID, err)
	}

	return &QueryResult{
		Answer:      answer,
		ContextUsed: snippets,
		Sources:     sources,
	}, nil
}

// retrieve returns the topK most similar chunks by cosine similarity.
func (s *RAGService) retrieve(queryEmbedding []float32) []store.Chunk {
	s.mu.Lock()
	chunks := s.chunks
	s.mu.Unlock()

	type scoredChunk struct {
		chunk      store.Chunk
		similarity float32
	}

	scored := make([]scoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		similarity, err := utils.CosineSimilarity(queryEmbedding, chunk.Embedding)
		if err != nil {
			log.Printf("Error scoring chunk %s: %v. Skipping.", chunk.ID, err)
			continue
		}
		scored = append(scored, scoredChunk{chunk: chunk, similarity: similarity})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].similarity > scored[j].similarity
	})

	k := s.topK
	if k > len(scored) {
		k = len(scored)
	}
	result := make([]store.Chunk, 0, k)
	for i := 0; i < k; i++ {
		result = append(result, scored[i].chunk)
	}
	return result
}

// validateQuestion normalizes whitespace and rejects questions shorter
// than 3 characters.
func validateQuestion(question string) (string, error) {
	question = strings.Join(strings.Fields(question), " ")
	if question == "" {
		return "", &ValidationError{Reason: "question cannot be empty"}
	}
	if utf8.RuneCountInString(question) < 3 {
		return "", &ValidationError{Reason: "question is too short"}
	}
	return question, nil
}

// formatHistory renders the last few exchanges as alternating User/
// Assistant lines, truncating each stored answer.
func formatHistory(history []store.Exchange) string {
	if len(history) == 0 {
		return noHistoryMarker
	}

	start := len(history) - historyWindow
	if start < 0 {
		start = 0
	}

	var lines []string
	for _, exchange := range history[start:] {
		lines = append(lines, "User: "+exchange.Question)
		lines = append(lines, "Assistant: "+truncateRunes(exchange.Answer, answerPreviewLimit))
	}
	return strings.Join(lines, "\n")
}

// truncateRunes cuts text to at most limit runes, marking the cut with
// an ellipsis.
func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
