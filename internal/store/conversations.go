package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ConversationStore persists per-session conversation history as one
// JSON array file per session id.
//
// Appends to the same session from concurrent requests are not
// serialized: each append rewrites the whole file, and the last writer
// wins.
type ConversationStore struct {
	dir string
}

func NewConversationStore(dir string) *ConversationStore {
	return &ConversationStore{dir: dir}
}

func (s *ConversationStore) filePath(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// Append adds one exchange to the session's record, creating the record
// if it does not exist. The timestamp is set here if the caller left it
// zero.
func (s *ConversationStore) Append(sessionID string, exchange Exchange) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create conversations directory: %w", err)
	}

	if exchange.Timestamp.IsZero() {
		exchange.Timestamp = time.Now()
	}

	conversation, err := s.Load(sessionID)
	if err != nil {
		return err
	}
	conversation = append(conversation, exchange)

	data, err := json.MarshalIndent(conversation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	if err := os.WriteFile(s.filePath(sessionID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write conversation file: %w", err)
	}
	return nil
}

// Load returns the session's full ordered exchange sequence, or an
// empty sequence when no record exists.
func (s *ConversationStore) Load(sessionID string) ([]Exchange, error) {
	data, err := os.ReadFile(s.filePath(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Exchange{}, nil
		}
		return nil, fmt.Errorf("failed to read conversation file: %w", err)
	}

	var conversation []Exchange
	if err := json.Unmarshal(data, &conversation); err != nil {
		return nil, fmt.Errorf("failed to parse conversation file: %w", err)
	}
	return conversation, nil
}

// Clear removes the session's record entirely and reports whether a
// record existed.
func (s *ConversationStore) Clear(sessionID string) (bool, error) {
	err := os.Remove(s.filePath(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove conversation file: %w", err)
	}
	return true, nil
}
