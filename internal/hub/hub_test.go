package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/eltociear/NeuroSandboxWebUI/internal/registry"
)

func newTestClient(t *testing.T) (*Client, *registry.Registry) {
	t.Helper()
	reg, err := registry.New(t.TempDir())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return New(reg, "", "git", zerolog.Nop()), reg
}

func TestEnsureRepoSkipsExisting(t *testing.T) {
	c, reg := newTestClient(t)
	dest := reg.Path("audio", "XTTS-v2")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// git would fail against the bogus base; the existing dir short-circuits.
	c.base = "https://invalid.invalid"
	if err := c.EnsureRepo(context.Background(), "coqui/XTTS-v2", dest); err != nil {
		t.Fatalf("expected existing dir to be trusted: %v", err)
	}
}

func TestEnsureFileDownloads(t *testing.T) {
	c, reg := newTestClient(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("weights"))
	}))
	defer srv.Close()

	dest := reg.Path("text", "whisper-medium", "medium.pt")
	if err := c.EnsureFile(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("ensure file: %v", err)
	}
	b, err := os.ReadFile(dest)
	if err != nil || string(b) != "weights" {
		t.Fatalf("unexpected file contents: %q err=%v", b, err)
	}
	// leftover .part files would indicate a non-atomic write
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Fatalf("expected no partial file")
	}
}

func TestEnsureFileHTTPError(t *testing.T) {
	c, reg := newTestClient(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := reg.Path("text", "whisper-medium", "medium.pt")
	if err := c.EnsureFile(context.Background(), srv.URL, dest); err == nil {
		t.Fatalf("expected error on 404")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("expected no file written on failure")
	}
}

func TestEnsureAudiocraftUnknownModel(t *testing.T) {
	c, _ := newTestClient(t)
	if _, err := c.EnsureAudiocraft(context.Background(), "made-up-model"); err == nil {
		t.Fatalf("expected error for unknown model")
	}
}

func TestEnsureAudiocraftExistingSkipsClone(t *testing.T) {
	c, reg := newTestClient(t)
	dest := reg.Path("audio", "audiocraft", "musicgen-stereo-medium")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	got, err := c.EnsureAudiocraft(context.Background(), "musicgen-stereo-medium")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if got != dest {
		t.Fatalf("expected %q, got %q", dest, got)
	}
}

func TestEnsureUpscalerPaths(t *testing.T) {
	c, reg := newTestClient(t)
	for _, tc := range []struct {
		factor     int
		wantDir    string
		wantConfig string
	}{
		{2, "x2-upscaler", ""},
		{4, "x4-upscaler", "configs/sd/x4-upscaling.yaml"},
	} {
		dest := reg.Path("image", "sd_models", "upscale", tc.wantDir)
		if err := os.MkdirAll(dest, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		up, err := c.EnsureUpscaler(context.Background(), tc.factor)
		if err != nil {
			t.Fatalf("factor %d: %v", tc.factor, err)
		}
		if filepath.Base(up.Path) != tc.wantDir {
			t.Fatalf("factor %d: unexpected path %q", tc.factor, up.Path)
		}
		if up.ConfigFile != tc.wantConfig {
			t.Fatalf("factor %d: unexpected config %q", tc.factor, up.ConfigFile)
		}
	}
	if _, err := c.EnsureUpscaler(context.Background(), 3); err == nil {
		t.Fatalf("expected error for unsupported factor")
	}
}
