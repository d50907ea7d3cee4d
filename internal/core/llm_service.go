package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/bom-labs/loan-assistant/internal/config"
)

// LLMService owns the GenAI client and exposes the two model calls the
// assistant needs: text embeddings and a single non-streaming answer
// generation.
type LLMService struct {
	client *genai.Client
}

func NewLLMService() *LLMService {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GoogleAPIKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	return &LLMService{client: client}
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

func (s *LLMService) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	em := s.client.EmbeddingModel(config.AppConfig.EmbeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from model")
	}
	return res.Embedding.Values, nil
}

// GenerateAnswer sends the fully rendered prompt to the model and
// returns the plain-text answer. Single shot, non-streaming.
func (s *LLMService) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(config.AppConfig.LLMModel)

	temp := config.AppConfig.LLMTemperature
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: &temp,
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("answer generation request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("model returned an empty response")
	}

	var answer strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			answer.WriteString(string(txt))
		} else {
			log.Printf("Model response part was not text: %T", part)
		}
	}

	if answer.Len() == 0 {
		return "", fmt.Errorf("model response contained no text parts")
	}
	return answer.String(), nil
}
