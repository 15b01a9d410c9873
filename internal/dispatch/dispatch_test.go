package dispatch

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/eltociear/NeuroSandboxWebUI/internal/config"
	"github.com/eltociear/NeuroSandboxWebUI/internal/device"
	"github.com/eltociear/NeuroSandboxWebUI/internal/hub"
	"github.com/eltociear/NeuroSandboxWebUI/internal/loader"
	"github.com/eltociear/NeuroSandboxWebUI/internal/outputs"
	"github.com/eltociear/NeuroSandboxWebUI/internal/registry"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/audiocraft"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/diffusion"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/text"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/voice"
)

// fakeImages records calls and returns canned bytes. The onCall hook runs
// before returning, letting tests trip the stop token mid-flight.
type fakeImages struct {
	calls   []string
	img     []byte
	upImg   []byte
	video   []byte
	err     error
	onCall  func(name string)
	lastGen diffusion.GenerateParams
}

func (f *fakeImages) run(name string) {
	f.calls = append(f.calls, name)
	if f.onCall != nil {
		f.onCall(name)
	}
}

func (f *fakeImages) Txt2Img(_ context.Context, p diffusion.GenerateParams) ([]byte, error) {
	f.lastGen = p
	f.run("txt2img")
	return f.img, f.err
}

func (f *fakeImages) Img2Img(_ context.Context, p diffusion.GenerateParams) ([]byte, error) {
	f.lastGen = p
	f.run("img2img")
	return f.img, f.err
}

func (f *fakeImages) Inpaint(_ context.Context, p diffusion.GenerateParams) ([]byte, error) {
	f.lastGen = p
	f.run("inpaint")
	return f.img, f.err
}

func (f *fakeImages) Upscale(_ context.Context, p diffusion.UpscaleParams) ([]byte, error) {
	f.run("upscale")
	return f.upImg, f.err
}

func (f *fakeImages) Video(_ context.Context, p diffusion.VideoParams) ([]byte, error) {
	f.run("video")
	return f.video, f.err
}

type fakeAudio struct {
	calls   []string
	result  audiocraft.Result
	decoded []byte
	err     error
	lastGen audiocraft.GenerateParams
	onCall  func(name string)
}

func (f *fakeAudio) Generate(_ context.Context, p audiocraft.GenerateParams) (audiocraft.Result, error) {
	f.lastGen = p
	f.calls = append(f.calls, "generate")
	if f.onCall != nil {
		f.onCall("generate")
	}
	return f.result, f.err
}

func (f *fakeAudio) DecodeTokens(_ context.Context, p audiocraft.DecodeParams) ([]byte, error) {
	f.calls = append(f.calls, "decode")
	if f.onCall != nil {
		f.onCall("decode")
	}
	return f.decoded, f.err
}

type fakeTTS struct {
	wav    []byte
	err    error
	called bool
	last   voice.TTSParams
}

func (f *fakeTTS) Synthesize(_ context.Context, p voice.TTSParams) ([]byte, error) {
	f.called = true
	f.last = p
	return f.wav, f.err
}

type fakeSTT struct {
	text string
	err  error
}

func (f *fakeSTT) Transcribe(_ context.Context, _, _, _ string) (string, error) {
	return f.text, f.err
}

// fakeText is a canned InferenceAdapter.
type fakeText struct {
	content    string
	startErr   error
	genErr     error
	started    int
	closed     int
	lastPrompt string
	lastParams text.InferParams
	onGenerate func()
}

func (f *fakeText) Start(_ string, params text.InferParams) (text.InferSession, error) {
	f.started++
	f.lastParams = params
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &fakeTextSession{owner: f}, nil
}

type fakeTextSession struct{ owner *fakeText }

func (s *fakeTextSession) Generate(_ context.Context, prompt string, _ func(string) error) (text.FinalResult, error) {
	s.owner.lastPrompt = prompt
	if s.owner.onGenerate != nil {
		s.owner.onGenerate()
	}
	if s.owner.genErr != nil {
		return text.FinalResult{}, s.owner.genErr
	}
	return text.FinalResult{Content: s.owner.content}, nil
}

func (s *fakeTextSession) Close() error {
	s.owner.closed++
	return nil
}

// env bundles a Service wired to fakes over temp input/output trees.
type env struct {
	svc    *Service
	inputs string
	out    string
	images *fakeImages
	audio  *fakeAudio
	tts    *fakeTTS
	stt    *fakeSTT
	llama  *fakeText
	server *fakeText
}

func newEnv(t *testing.T) *env {
	t.Helper()
	inputs := t.TempDir()
	outDir := t.TempDir()
	reg, err := registry.New(inputs)
	if err != nil {
		t.Fatal(err)
	}
	// A bogus git binary keeps fetch-on-miss hermetic: anything not
	// seeded on disk fails immediately instead of cloning.
	hubClient := hub.New(reg, "", filepath.Join(inputs, "no-such-git"), zerolog.Nop())
	ld := loader.New(reg, hubClient, device.Device{Kind: device.CPU, Name: "cpu"}, zerolog.Nop())
	e := &env{
		inputs: inputs,
		out:    outDir,
		images: &fakeImages{img: []byte("png"), upImg: []byte("bigpng"), video: []byte("mp4")},
		audio:  &fakeAudio{result: audiocraft.Result{Audio: []byte("wav")}, decoded: []byte("mbwav")},
		tts:    &fakeTTS{wav: []byte("speech")},
		stt:    &fakeSTT{text: "transcribed"},
		llama:  &fakeText{content: "llama says"},
		server: &fakeText{content: "transformers says"},
	}
	e.svc = New(Deps{
		Config:  config.Config{},
		Loader:  ld,
		Outputs: outputs.New(outDir),
		Images:  e.images,
		Audio:   e.audio,
		TTS:     e.tts,
		STT:     e.stt,
		Llama:   e.llama,
		Server:  e.server,
		Log:     zerolog.Nop(),
	})
	return e
}

func (e *env) seed(t *testing.T, rel string) string {
	t.Helper()
	p := filepath.Join(e.inputs, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("weights"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func (e *env) seedDir(t *testing.T, rel string) string {
	t.Helper()
	p := filepath.Join(e.inputs, filepath.FromSlash(rel))
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func decodePNG(b []byte) (image.Image, error) {
	return png.Decode(bytes.NewReader(b))
}

// outputFiles walks the outputs tree and returns relative paths.
func (e *env) outputFiles(t *testing.T) []string {
	t.Helper()
	var files []string
	err := filepath.Walk(e.out, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(e.out, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return files
}
