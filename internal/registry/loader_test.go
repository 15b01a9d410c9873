package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := r.EnsureLayout(); err != nil {
		t.Fatalf("ensure layout: %v", err)
	}
	return r
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSDModelsStripSuffixAndSkipNotes(t *testing.T) {
	r := newTestRegistry(t)
	touch(t, r.Path("image", "sd_models", "dreamlike.safetensors"))
	touch(t, r.Path("image", "sd_models", "readme.txt"))
	touch(t, r.Path("image", "sd_models", "other.ckpt"))

	models := r.SDModels()
	if len(models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(models))
	}
	if models[0].ID != "dreamlike" {
		t.Fatalf("expected stripped id, got %q", models[0].ID)
	}
}

func TestLoraModelsKeepFullName(t *testing.T) {
	r := newTestRegistry(t)
	touch(t, r.Path("image", "sd_models", "lora", "detail.safetensors"))

	models := r.LoraModels()
	if len(models) != 1 || models[0].ID != "detail.safetensors" {
		t.Fatalf("unexpected lora list: %+v", models)
	}
}

func TestLLMModelsIncludeDirectories(t *testing.T) {
	r := newTestRegistry(t)
	// transformers-format model directory and a single-file llama model
	touch(t, r.Path("text", "llm_models", "tiny-transformer", "config.json"))
	touch(t, r.Path("text", "llm_models", "tiny.gguf"))
	touch(t, r.Path("text", "llm_models", "notes.txt"))

	models := r.LLMModels()
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d: %+v", len(models), models)
	}
}

func TestVoicesAndAvatars(t *testing.T) {
	r := newTestRegistry(t)
	touch(t, r.Path("audio", "voices", "narrator.wav"))
	touch(t, r.Path("image", "avatars", "robot.png"))

	if v := r.Voices(); len(v) != 1 || v[0] != "narrator.wav" {
		t.Fatalf("unexpected voices: %v", v)
	}
	if a := r.Avatars(); len(a) != 1 || a[0] != "robot.png" {
		t.Fatalf("unexpected avatars: %v", a)
	}
}

func TestSnapshotHasFixedAudiocraftCatalogue(t *testing.T) {
	r := newTestRegistry(t)
	snap := r.Snapshot()
	if len(snap.AudiocraftModels) != len(AudiocraftModels) {
		t.Fatalf("expected fixed audiocraft catalogue, got %v", snap.AudiocraftModels)
	}
	if snap.AudiocraftModels[0] != "musicgen-stereo-medium" {
		t.Fatalf("unexpected first catalogue entry: %q", snap.AudiocraftModels[0])
	}
}

func TestMissingCategoryDirIsEmpty(t *testing.T) {
	r, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if got := r.SDModels(); got != nil {
		t.Fatalf("expected nil list for missing dir, got %v", got)
	}
}
