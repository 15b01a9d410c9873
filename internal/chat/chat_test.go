package chat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eltociear/NeuroSandboxWebUI/internal/outputs"
)

func newSession(t *testing.T) (*Session, string) {
	t.Helper()
	root := t.TempDir()
	fixed := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
	store := outputs.NewWithClock(root, func() time.Time { return fixed })
	return NewSession(store), root
}

func TestDirCreatedOnceWithSubdirs(t *testing.T) {
	s, root := newSession(t)

	dir, err := s.Dir()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dir) != "LLM_20240512_093000" {
		t.Fatalf("dir = %q", dir)
	}
	for _, sub := range []string{"text", "audio"} {
		if fi, err := os.Stat(filepath.Join(dir, sub)); err != nil || !fi.IsDir() {
			t.Fatalf("missing subdir %q: %v", sub, err)
		}
	}

	again, err := s.Dir()
	if err != nil {
		t.Fatal(err)
	}
	if again != dir {
		t.Fatalf("second Dir = %q, want %q", again, dir)
	}
	_ = root
}

func TestAppendExchangeWritesTranscript(t *testing.T) {
	s, _ := newSession(t)

	if err := s.AppendExchange("hello", "hi there"); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendExchange("stopped one", ""); err != nil {
		t.Fatal(err)
	}

	dir, _ := s.Dir()
	b, err := os.ReadFile(filepath.Join(dir, "text", "chat_history.txt"))
	if err != nil {
		t.Fatal(err)
	}
	want := "Human: hello\nAI: hi there\n\nHuman: stopped one\n"
	if string(b) != want {
		t.Fatalf("transcript = %q, want %q", b, want)
	}

	hist := s.History()
	if len(hist) != 2 || hist[0].AI != "hi there" || hist[1].AI != "" {
		t.Fatalf("history = %+v", hist)
	}
}

func TestAudioPathUnderConversation(t *testing.T) {
	s, _ := newSession(t)
	p, err := s.AudioPath()
	if err != nil {
		t.Fatal(err)
	}
	dir, _ := s.Dir()
	if filepath.Dir(p) != filepath.Join(dir, "audio") {
		t.Fatalf("audio path = %q", p)
	}
	if !strings.HasPrefix(filepath.Base(p), "TTS_") || !strings.HasSuffix(p, ".wav") {
		t.Fatalf("audio name = %q", filepath.Base(p))
	}
}

func TestResetStartsFreshDir(t *testing.T) {
	s, _ := newSession(t)
	if err := s.AppendExchange("one", "two"); err != nil {
		t.Fatal(err)
	}
	s.Reset()
	if len(s.History()) != 0 {
		t.Fatal("history not cleared")
	}
}

func TestPromptLanguageRouting(t *testing.T) {
	en := TransformersPrompt("What is the capital of France and why is it famous?")
	if !strings.HasPrefix(en, "I am a chatbot") {
		t.Fatalf("english preamble missing: %q", en[:40])
	}
	ru := TransformersPrompt("Какая столица Франции и чем она знаменита?")
	if !strings.HasPrefix(ru, "Я чат-бот") {
		t.Fatalf("russian preamble missing")
	}

	llama := LlamaPrompt("What is the capital of France and why is it famous?")
	if !strings.Contains(llama, "\n\nHuman: ") || !strings.HasSuffix(llama, "\nAssistant: ") {
		t.Fatalf("llama framing = %q", llama)
	}
	llamaRU := LlamaPrompt("Какая столица Франции и чем она знаменита?")
	if !strings.Contains(llamaRU, "\n\nЧеловек: ") {
		t.Fatalf("llama russian framing = %q", llamaRU)
	}
}
