// Package dispatch orchestrates one generation per request: validate the
// selection, load (or fetch) weights, run the engine, write the artifact
// under outputs/ and release everything on the way out. User-correctable
// failures come back as messages, never as HTTP errors.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eltociear/NeuroSandboxWebUI/internal/chat"
	"github.com/eltociear/NeuroSandboxWebUI/internal/config"
	"github.com/eltociear/NeuroSandboxWebUI/internal/loader"
	"github.com/eltociear/NeuroSandboxWebUI/internal/outputs"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/audiocraft"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/diffusion"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/text"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/voice"
	"github.com/eltociear/NeuroSandboxWebUI/internal/stop"
)

// ImageEngine is the diffusion server surface the dispatchers call.
type ImageEngine interface {
	Txt2Img(ctx context.Context, p diffusion.GenerateParams) ([]byte, error)
	Img2Img(ctx context.Context, p diffusion.GenerateParams) ([]byte, error)
	Inpaint(ctx context.Context, p diffusion.GenerateParams) ([]byte, error)
	Upscale(ctx context.Context, p diffusion.UpscaleParams) ([]byte, error)
	Video(ctx context.Context, p diffusion.VideoParams) ([]byte, error)
}

// AudioEngine is the audiocraft server surface the dispatchers call.
type AudioEngine interface {
	Generate(ctx context.Context, p audiocraft.GenerateParams) (audiocraft.Result, error)
	DecodeTokens(ctx context.Context, p audiocraft.DecodeParams) ([]byte, error)
}

// SpeechSynth renders text to a spoken wav.
type SpeechSynth interface {
	Synthesize(ctx context.Context, p voice.TTSParams) ([]byte, error)
}

// Transcriber converts recorded speech to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, modelPath, device string) (string, error)
}

// Deps collects everything a Service needs.
type Deps struct {
	Config  config.Config
	Loader  *loader.Loader
	Outputs *outputs.Store
	Images  ImageEngine
	Audio   AudioEngine
	TTS     SpeechSynth
	STT     Transcriber
	Llama   text.InferenceAdapter
	Server  text.InferenceAdapter
	Log     zerolog.Logger
}

// Service runs generations one at a time.
type Service struct {
	cfg     config.Config
	loader  *loader.Loader
	out     *outputs.Store
	images  ImageEngine
	audio   AudioEngine
	tts     SpeechSynth
	stt     Transcriber
	llama   text.InferenceAdapter
	server  text.InferenceAdapter
	session *chat.Session
	stopc   *stop.Controller
	gate    gate
	log     zerolog.Logger

	mu       sync.Mutex
	counters map[string]uint64
}

// New builds a Service.
func New(d Deps) *Service {
	return &Service{
		cfg:      d.Config,
		loader:   d.Loader,
		out:      d.Outputs,
		images:   d.Images,
		audio:    d.Audio,
		tts:      d.TTS,
		stt:      d.STT,
		llama:    d.Llama,
		server:   d.Server,
		session:  chat.NewSession(d.Outputs),
		stopc:    stop.NewController(),
		gate:     newGate(),
		log:      d.Log.With().Str("component", "dispatch").Logger(),
		counters: make(map[string]uint64),
	}
}

// Stop trips the active generation's stop token.
func (s *Service) Stop() { s.stopc.Stop() }

// Busy reports whether a generation is in flight.
func (s *Service) Busy() bool { return s.gate.busy() }

// ClearChat resets the conversation; the next exchange starts a new
// output directory.
func (s *Service) ClearChat() { s.session.Reset() }

// Counters returns a copy of per-modality completion totals.
func (s *Service) Counters() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out
}

func (s *Service) countSuccess(modality string) {
	s.mu.Lock()
	s.counters[modality]++
	s.mu.Unlock()
}

// begin claims the generation slot and arms a fresh stop token.
func (s *Service) begin(ctx context.Context) (*stop.Token, func(), error) {
	maxWait := time.Duration(s.cfg.MaxWaitSeconds) * time.Second
	if err := s.gate.acquire(ctx, maxWait); err != nil {
		return nil, nil, err
	}
	return s.stopc.Begin(), s.gate.release, nil
}
