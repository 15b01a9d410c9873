// Package chat keeps conversation state for the LLM tab: the running
// history, the per-conversation output directory and its transcript file.
package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/eltociear/NeuroSandboxWebUI/internal/outputs"
	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

// Sampling constants shared by both text runtimes.
const (
	RepeatPenalty = 1.15
)

// LlamaStopWords terminate a llama completion at the next question or line.
var LlamaStopWords = []string{"Q:", "\n"}

// Session is one conversation. The output directory is created lazily on
// the first exchange and then reused for the rest of the conversation.
type Session struct {
	mu    sync.Mutex
	store *outputs.Store
	dir   string
	turns []types.ChatTurn
}

// NewSession builds an empty conversation writing under store.
func NewSession(store *outputs.Store) *Session {
	return &Session{store: store}
}

// Dir returns the conversation directory, creating LLM_<timestamp> with
// its text/ and audio/ subdirectories on first call.
func (s *Session) Dir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirLocked()
}

func (s *Session) dirLocked() (string, error) {
	if s.dir != "" {
		return s.dir, nil
	}
	dir, err := s.store.NewChatDir()
	if err != nil {
		return "", err
	}
	s.dir = dir
	return dir, nil
}

// AppendExchange records one prompt/answer pair in memory and appends it
// to the transcript. An empty answer still logs the human line.
func (s *Session) AppendExchange(human, ai string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.dirLocked()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "text", "chat_history.txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "Human: %s\n", human); err != nil {
		return err
	}
	if ai != "" {
		if _, err := fmt.Fprintf(f, "AI: %s\n\n", ai); err != nil {
			return err
		}
	}
	s.turns = append(s.turns, types.ChatTurn{Human: human, AI: ai})
	return nil
}

// AppendNotice adds a system message turn to the in-memory history only.
func (s *Session) AppendNotice(human, notice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, types.ChatTurn{Human: human, AI: notice})
}

// History returns a copy of the conversation so far.
func (s *Session) History() []types.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ChatTurn(nil), s.turns...)
}

// AudioPath returns a fresh TTS_<timestamp>.wav path under the
// conversation's audio directory.
func (s *Session) AudioPath() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, err := s.dirLocked()
	if err != nil {
		return "", err
	}
	return s.store.FilePath(filepath.Join(dir, "audio"), "TTS", "wav"), nil
}

// WithDir calls fn with the conversation directory when one exists. It
// never creates the directory.
func (s *Session) WithDir(fn func(string)) {
	s.mu.Lock()
	dir := s.dir
	s.mu.Unlock()
	if dir != "" {
		fn(dir)
	}
}

// Reset drops the history and detaches from the current directory so the
// next exchange starts a new conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = ""
	s.turns = nil
}
