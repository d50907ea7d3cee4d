package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bom-labs/loan-assistant/internal/core"
	"github.com/bom-labs/loan-assistant/internal/store"
)

type stubChunkLoader struct {
	chunks []store.Chunk
}

func (s *stubChunkLoader) LoadAll() ([]store.Chunk, error) {
	return s.chunks, nil
}

type stubEmbedder struct{}

func (stubEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type stubLLM struct {
	answer string
}

func (s stubLLM) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	return s.answer, nil
}

func newTestServer(t *testing.T, chunks []store.Chunk, initialize bool) (http.Handler, *store.ConversationStore) {
	t.Helper()
	conversations := store.NewConversationStore(t.TempDir())
	ragService := core.NewRAGService(
		&stubChunkLoader{chunks: chunks},
		conversations,
		stubEmbedder{},
		stubLLM{answer: "Home loans start at 8.5% per annum."},
		5,
	)
	if initialize {
		require.NoError(t, ragService.Initialize())
	}
	return NewRouter(NewAPIHandler(ragService)), conversations
}

func indexedChunk() store.Chunk {
	return store.Chunk{
		ID:        "chunk-1",
		Content:   "Home loan interest rate is 8.5% per annum.",
		Embedding: []float32{1, 0},
		Metadata: store.DocumentMetadata{
			Query:  "site:bankofmaharashtra.bank.in interest rates home loan",
			Source: "Bank of Maharashtra",
		},
	}
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestQueryHandler_Success(t *testing.T) {
	handler, _ := newTestServer(t, []store.Chunk{indexedChunk()}, true)

	rec := postJSON(t, handler, "/api/query", QueryRequest{Question: "What is the home loan interest rate?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Home loans start at 8.5% per annum.", resp.Answer)
	assert.Equal(t, []string{"Home loan interest rate is 8.5% per annum."}, resp.ContextUsed)
	assert.Equal(t, []string{"Bank of Maharashtra"}, resp.Sources)
	assert.Equal(t, "default", resp.SessionID, "omitted session id falls back to the default")
}

func TestQueryHandler_CustomSessionID(t *testing.T) {
	handler, conversations := newTestServer(t, []store.Chunk{indexedChunk()}, true)

	rec := postJSON(t, handler, "/api/query", QueryRequest{
		Question:  "What is the home loan interest rate?",
		SessionID: "user-42",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "user-42", resp.SessionID)

	exchanges, err := conversations.Load("user-42")
	require.NoError(t, err)
	assert.Len(t, exchanges, 1)
}

func TestQueryHandler_QuestionLengthBounds(t *testing.T) {
	handler, _ := newTestServer(t, []store.Chunk{indexedChunk()}, true)

	rec := postJSON(t, handler, "/api/query", QueryRequest{Question: "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, handler, "/api/query", QueryRequest{Question: strings.Repeat("x", 501)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandler_WhitespaceOnlyQuestion(t *testing.T) {
	handler, _ := newTestServer(t, []store.Chunk{indexedChunk()}, true)

	// Long enough to pass the boundary length check but empty after
	// whitespace normalization; the pipeline rejects it as a client fault.
	rec := postJSON(t, handler, "/api/query", QueryRequest{Question: "     "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandler_InvalidSessionID(t *testing.T) {
	handler, _ := newTestServer(t, []store.Chunk{indexedChunk()}, true)

	for _, sessionID := range []string{"../evil", "has space", "semi;colon", strings.Repeat("s", 101)} {
		rec := postJSON(t, handler, "/api/query", QueryRequest{
			Question:  "What is the home loan interest rate?",
			SessionID: sessionID,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "session id %q should be rejected", sessionID)
	}
}

func TestQueryHandler_InvalidBody(t *testing.T) {
	handler, _ := newTestServer(t, []store.Chunk{indexedChunk()}, true)

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearHistoryHandler(t *testing.T) {
	handler, conversations := newTestServer(t, []store.Chunk{indexedChunk()}, true)

	// Nothing recorded yet.
	rec := postJSON(t, handler, "/api/clear-history", ClearHistoryRequest{SessionID: "session-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "info", resp.Status)

	// Record something, then clear it.
	require.NoError(t, conversations.Append("session-1", store.Exchange{Question: "q", Answer: "a"}))

	rec = postJSON(t, handler, "/api/clear-history", ClearHistoryRequest{SessionID: "session-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "success", resp.Status)

	exchanges, err := conversations.Load("session-1")
	require.NoError(t, err)
	assert.Empty(t, exchanges)
}

func TestClearHistoryHandler_InvalidSessionID(t *testing.T) {
	handler, _ := newTestServer(t, nil, true)

	rec := postJSON(t, handler, "/api/clear-history", ClearHistoryRequest{SessionID: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, handler, "/api/clear-history", ClearHistoryRequest{SessionID: "../../etc/passwd"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	handler, _ := newTestServer(t, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	handler, _ = newTestServer(t, nil, true)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestRootHandler(t *testing.T) {
	handler, _ := newTestServer(t, nil, true)

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
}
