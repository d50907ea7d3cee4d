package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"unicode/utf8"

	"github.com/bom-labs/loan-assistant/internal/core"
)

const (
	defaultSessionID = "default"

	minQuestionLen  = 3
	maxQuestionLen  = 500
	maxSessionIDLen = 100
)

var sessionIDRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

type APIHandler struct {
	ragService *core.RAGService
}

func NewAPIHandler(rs *core.RAGService) *APIHandler {
	return &APIHandler{ragService: rs}
}

type QueryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type QueryResponse struct {
	Answer      string   `json:"answer"`
	ContextUsed []string `json:"context_used"`
	Sources     []string `json:"sources"`
	SessionID   string   `json:"session_id"`
}

type ClearHistoryRequest struct {
	SessionID string `json:"session_id"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *APIHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if n := utf8.RuneCountInString(req.Question); n < minQuestionLen || n > maxQuestionLen {
		http.Error(w, fmt.Sprintf("Question must be between %d and %d characters", minQuestionLen, maxQuestionLen), http.StatusBadRequest)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = defaultSessionID
	}
	if !validSessionID(sessionID) {
		http.Error(w, "Invalid session id", http.StatusBadRequest)
		return
	}

	result, err := h.ragService.Process(r.Context(), req.Question, sessionID)
	if err != nil {
		var validationErr *core.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Reason, http.StatusBadRequest)
			return
		}
		log.Printf("Error processing query for session %s: %v", sessionID, err)
		http.Error(w, "Failed to process query. Please try again.", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(QueryResponse{
		Answer:      result.Answer,
		ContextUsed: result.ContextUsed,
		Sources:     result.Sources,
		SessionID:   sessionID,
	})
}

func (h *APIHandler) ClearHistoryHandler(w http.ResponseWriter, r *http.Request) {
	var req ClearHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.SessionID == "" || !validSessionID(req.SessionID) {
		http.Error(w, "Invalid session id", http.StatusBadRequest)
		return
	}

	existed, err := h.ragService.ClearConversation(req.SessionID)
	if err != nil {
		log.Printf("Error clearing history for session %s: %v", req.SessionID, err)
		http.Error(w, "Failed to clear conversation history", http.StatusInternalServerError)
		return
	}

	resp := StatusResponse{
		Status:  "info",
		Message: "No conversation history found for this session",
	}
	if existed {
		resp = StatusResponse{
			Status:  "success",
			Message: "Conversation history cleared for session: " + req.SessionID,
		}
	}
	json.NewEncoder(w).Encode(resp)
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !h.ragService.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(StatusResponse{
			Status:  "unavailable",
			Message: "System not initialized",
		})
		return
	}
	json.NewEncoder(w).Encode(StatusResponse{
		Status:  "healthy",
		Message: "All systems operational",
	})
}

func (h *APIHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(StatusResponse{
		Status:  "ok",
		Message: "Bank of Maharashtra Loan Assistant API is running",
	})
}

func validSessionID(sessionID string) bool {
	return len(sessionID) <= maxSessionIDLen && sessionIDRe.MatchString(sessionID)
}
