package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/eltociear/NeuroSandboxWebUI/internal/config"
	"github.com/eltociear/NeuroSandboxWebUI/internal/device"
	"github.com/eltociear/NeuroSandboxWebUI/internal/dispatch"
	"github.com/eltociear/NeuroSandboxWebUI/internal/httpapi"
	"github.com/eltociear/NeuroSandboxWebUI/internal/hub"
	"github.com/eltociear/NeuroSandboxWebUI/internal/loader"
	"github.com/eltociear/NeuroSandboxWebUI/internal/outputs"
	"github.com/eltociear/NeuroSandboxWebUI/internal/registry"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/audiocraft"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/diffusion"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/text"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/voice"
	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

// fakeImages serves canned PNG bytes; block, when set, holds the generation
// open until released.
type fakeImages struct {
	png   []byte
	block chan struct{}
}

func (f *fakeImages) generate() ([]byte, error) {
	if f.block != nil {
		<-f.block
	}
	return f.png, nil
}

func (f *fakeImages) Txt2Img(ctx context.Context, p diffusion.GenerateParams) ([]byte, error) {
	return f.generate()
}
func (f *fakeImages) Img2Img(ctx context.Context, p diffusion.GenerateParams) ([]byte, error) {
	return f.generate()
}
func (f *fakeImages) Inpaint(ctx context.Context, p diffusion.GenerateParams) ([]byte, error) {
	return f.generate()
}
func (f *fakeImages) Upscale(ctx context.Context, p diffusion.UpscaleParams) ([]byte, error) {
	return f.generate()
}
func (f *fakeImages) Video(ctx context.Context, p diffusion.VideoParams) ([]byte, error) {
	return f.generate()
}

type fakeAudio struct{}

func (fakeAudio) Generate(ctx context.Context, p audiocraft.GenerateParams) (audiocraft.Result, error) {
	return audiocraft.Result{Audio: []byte("RIFFwav")}, nil
}
func (fakeAudio) DecodeTokens(ctx context.Context, p audiocraft.DecodeParams) ([]byte, error) {
	return []byte("RIFFwav"), nil
}

type fakeTTS struct{}

func (fakeTTS) Synthesize(ctx context.Context, p voice.TTSParams) ([]byte, error) {
	return []byte("RIFFwav"), nil
}

type fakeSTT struct{}

func (fakeSTT) Transcribe(ctx context.Context, audioPath, modelPath, device string) (string, error) {
	return "transcribed", nil
}

type fakeText struct{ reply string }

func (f *fakeText) Start(modelPath string, params text.InferParams) (text.InferSession, error) {
	return &fakeSession{reply: f.reply}, nil
}

type fakeSession struct{ reply string }

func (s *fakeSession) Generate(ctx context.Context, prompt string, onToken func(string) error) (text.FinalResult, error) {
	return text.FinalResult{Content: s.reply, FinishReason: "stop"}, nil
}
func (s *fakeSession) Close() error { return nil }

type stack struct {
	server  *httptest.Server
	outputs string
	images  *fakeImages
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// newStack wires the real registry, loader, dispatcher and HTTP mux around
// fake inference engines.
func newStack(t *testing.T, maxWaitSeconds int) *stack {
	t.Helper()
	inputs := t.TempDir()
	outRoot := t.TempDir()

	reg, err := registry.New(inputs)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.EnsureLayout(); err != nil {
		t.Fatal(err)
	}
	// Seed one llama-format LLM and one SD checkpoint.
	if err := os.WriteFile(reg.Path("text", "llm_models", "tiny.gguf"), []byte("gguf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(reg.Path("image", "sd_models", "dreamlike.safetensors"), []byte("sd"), 0o644); err != nil {
		t.Fatal(err)
	}

	log := zerolog.Nop()
	hubClient := hub.New(reg, "", filepath.Join(inputs, "no-such-git"), log)
	ld := loader.New(reg, hubClient, device.Device{Kind: device.CPU}, log)
	store := outputs.New(outRoot)

	images := &fakeImages{png: pngBytes(t)}
	adapter := &fakeText{reply: "hello from the model"}
	svc := dispatch.New(dispatch.Deps{
		Config:  config.Config{MaxWaitSeconds: maxWaitSeconds},
		Loader:  ld,
		Outputs: store,
		Images:  images,
		Audio:   fakeAudio{},
		TTS:     fakeTTS{},
		STT:     fakeSTT{},
		Llama:   adapter,
		Server:  adapter,
		Log:     log,
	})

	mux := httpapi.NewMux(svc, httpapi.Options{
		Models:     reg.Snapshot,
		Status:     func() types.StatusResponse { return types.StatusResponse{Device: "cpu", Busy: svc.Busy()} },
		OutputsDir: outRoot,
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &stack{server: srv, outputs: outRoot, images: images}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestModelsListingOverHTTP(t *testing.T) {
	s := newStack(t, 1)
	resp, err := http.Get(s.server.URL + "/api/models")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var snap types.ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.LLMModels) != 1 || snap.LLMModels[0].Name != "tiny.gguf" {
		t.Fatalf("llm models = %+v", snap.LLMModels)
	}
	if len(snap.SDModels) != 1 || snap.SDModels[0].Name != "dreamlike" {
		t.Fatalf("sd models = %+v", snap.SDModels)
	}
}

func TestTxt2ImgArtifactServedFromOutputs(t *testing.T) {
	s := newStack(t, 1)
	resp := postJSON(t, s.server.URL+"/api/sd/txt2img", types.Txt2ImgRequest{
		Prompt:    "a red square",
		ModelName: "dreamlike",
		ModelType: types.SDTypeSD,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var gen types.GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		t.Fatal(err)
	}
	if gen.Message != "" || gen.Artifact == nil {
		t.Fatalf("response = %+v", gen)
	}
	if _, err := os.Stat(gen.Artifact.Path); err != nil {
		t.Fatalf("artifact not on disk: %v", err)
	}
	rel, err := filepath.Rel(s.outputs, gen.Artifact.Path)
	if err != nil {
		t.Fatal(err)
	}
	served, err := http.Get(s.server.URL + "/outputs/" + filepath.ToSlash(rel))
	if err != nil {
		t.Fatal(err)
	}
	defer served.Body.Close()
	if served.StatusCode != http.StatusOK {
		t.Fatalf("outputs file server status = %d", served.StatusCode)
	}
}

func TestChatWritesTranscript(t *testing.T) {
	s := newStack(t, 1)
	resp := postJSON(t, s.server.URL+"/api/llm/chat", types.ChatRequest{
		Text:      "hi there",
		ModelName: "tiny.gguf",
		ModelType: types.LLMTypeLlama,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var chat types.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		t.Fatal(err)
	}
	if len(chat.History) == 0 {
		t.Fatalf("empty history: %+v", chat)
	}
	last := chat.History[len(chat.History)-1]
	if last.AI != "hello from the model" {
		t.Fatalf("reply = %+v", last)
	}
	if chat.ChatDir == "" {
		t.Fatal("no chat dir")
	}
	data, err := os.ReadFile(filepath.Join(chat.ChatDir, "text", "chat_history.txt"))
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if !bytes.Contains(data, []byte("Human: hi there")) || !bytes.Contains(data, []byte("AI: hello from the model")) {
		t.Fatalf("transcript = %q", data)
	}
}

func TestBusyGenerationRejectedWith429(t *testing.T) {
	s := newStack(t, 0)
	s.images.block = make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		resp := postJSON(t, s.server.URL+"/api/sd/txt2img", types.Txt2ImgRequest{
			Prompt: "slow", ModelName: "dreamlike", ModelType: types.SDTypeSD,
		})
		resp.Body.Close()
	}()

	// Wait for the first request to take the generation slot.
	deadline := time.After(2 * time.Second)
	for {
		resp, err := http.Get(s.server.URL + "/api/status")
		if err != nil {
			t.Fatal(err)
		}
		var st types.StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if st.Busy {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first generation never became busy")
		case <-time.After(10 * time.Millisecond):
		}
	}

	resp := postJSON(t, s.server.URL+"/api/sd/txt2img", types.Txt2ImgRequest{
		Prompt: "second", ModelName: "dreamlike", ModelType: types.SDTypeSD,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}

	close(s.images.block)
	<-done
}
