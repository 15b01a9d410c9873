// Package loader resolves selected model names to usable on-disk weights.
// It checks that a selection structurally matches the requested runtime
// and fetches hub-hosted weights on first use.
package loader

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/eltociear/NeuroSandboxWebUI/internal/device"
	"github.com/eltociear/NeuroSandboxWebUI/internal/hub"
	"github.com/eltociear/NeuroSandboxWebUI/internal/registry"
	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

// incompatibleError carries the user-facing model/type mismatch message.
type incompatibleError struct{ msg string }

func (e incompatibleError) Error() string { return e.msg }

// IsIncompatible reports whether err is a model/type pairing failure.
func IsIncompatible(err error) bool {
	_, ok := err.(incompatibleError)
	return ok
}

// notFoundError carries the user-facing missing-weights message.
type notFoundError struct{ msg string }

func (e notFoundError) Error() string { return e.msg }

// IsNotFound reports whether err indicates missing weights on disk.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// Loader binds the registry layout, the hub fetcher and the chosen device.
type Loader struct {
	reg *registry.Registry
	hub *hub.Client
	dev device.Device
	log zerolog.Logger
}

// New builds a Loader.
func New(reg *registry.Registry, hubClient *hub.Client, dev device.Device, log zerolog.Logger) *Loader {
	return &Loader{reg: reg, hub: hubClient, dev: dev, log: log.With().Str("component", "loader").Logger()}
}

// Device returns the device assigned to inference runs.
func (l *Loader) Device() device.Device { return l.dev }

// TextModel is a resolved LLM selection.
type TextModel struct {
	Name string
	Path string
	Type types.LLMModelType
}

// TextModel resolves an LLM by name and verifies it matches the requested
// runtime: transformers selections must be directories carrying a
// config.json, llama selections must be a single weights file.
func (l *Loader) TextModel(name string, mtype types.LLMModelType) (TextModel, error) {
	path := l.reg.Path(filepath.FromSlash(registry.LLMModelsDir), name)
	fi, err := os.Stat(path)
	if err != nil {
		return TextModel{}, notFoundError{msg: "LLM model not found: " + path}
	}
	switch mtype {
	case types.LLMTypeTransformers:
		if !fi.IsDir() || !hasFile(path, "config.json") {
			return TextModel{}, incompatibleError{msg: "The selected model is not compatible with the 'transformers' model type"}
		}
	case types.LLMTypeLlama:
		if fi.IsDir() {
			return TextModel{}, incompatibleError{msg: "The selected model is not compatible with the 'llama' model type"}
		}
	default:
		return TextModel{}, incompatibleError{msg: "The selected model is not compatible with the chosen model type"}
	}
	l.log.Debug().Str("model", name).Str("type", string(mtype)).Msg("text model resolved")
	return TextModel{Name: name, Path: path, Type: mtype}, nil
}

func hasFile(dir, name string) bool {
	fi, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !fi.IsDir()
}

// SDModelPath resolves a base checkpoint by its extensionless name.
func (l *Loader) SDModelPath(name string) (string, error) {
	return l.safetensors(registry.SDModelsDir, name, "StableDiffusion model not found: ")
}

// InpaintModelPath resolves an inpaint checkpoint by its extensionless name.
func (l *Loader) InpaintModelPath(name string) (string, error) {
	return l.safetensors(registry.InpaintModelsDir, name, "Inpaint model not found: ")
}

func (l *Loader) safetensors(sub, name, missingPrefix string) (string, error) {
	path := l.reg.Path(filepath.FromSlash(sub), name+".safetensors")
	if _, err := os.Stat(path); err != nil {
		return "", notFoundError{msg: missingPrefix + path}
	}
	return path, nil
}

// VAEPath resolves an optional alternate decoder. An empty or missing
// selection resolves to no VAE rather than an error.
func (l *Loader) VAEPath(name string) string {
	if name == "" {
		return ""
	}
	path := l.reg.Path(filepath.FromSlash(registry.VAEModelsDir), name+".safetensors")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// LoraPaths resolves adapter filenames, dropping any that are missing.
func (l *Loader) LoraPaths(names []string) []string {
	var out []string
	for _, n := range names {
		if n == "" {
			continue
		}
		path := l.reg.Path(filepath.FromSlash(registry.LoraModelsDir), n)
		if _, err := os.Stat(path); err != nil {
			l.log.Warn().Str("lora", n).Msg("lora adapter missing, skipped")
			continue
		}
		out = append(out, path)
	}
	return out
}

// VoicePath resolves a reference voice sample for TTS cloning.
func (l *Loader) VoicePath(name string) (string, error) {
	path := l.reg.Path(filepath.FromSlash(registry.VoicesDir), name)
	if _, err := os.Stat(path); err != nil {
		return "", notFoundError{msg: "voice sample not found: " + path}
	}
	return path, nil
}

// AvatarPath resolves a chat avatar image; missing avatars resolve empty.
func (l *Loader) AvatarPath(name string) string {
	if name == "" {
		return ""
	}
	path := l.reg.Path(filepath.FromSlash(registry.AvatarsDir), name)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// WhisperModel fetches the speech-to-text checkpoint on first use.
func (l *Loader) WhisperModel(ctx context.Context) (string, error) {
	return l.hub.EnsureWhisper(ctx)
}

// XTTSModel fetches the voice synthesis weights on first use.
func (l *Loader) XTTSModel(ctx context.Context) (string, error) {
	return l.hub.EnsureXTTS(ctx)
}

// AudiocraftModel fetches an audiocraft checkpoint on first use.
func (l *Loader) AudiocraftModel(ctx context.Context, name string) (string, error) {
	return l.hub.EnsureAudiocraft(ctx, name)
}

// MultibandModel fetches the multiband diffusion decoder on first use.
func (l *Loader) MultibandModel(ctx context.Context) (string, error) {
	return l.hub.EnsureMultiband(ctx)
}

// Upscaler fetches the x2 or x4 latent upscaler on first use.
func (l *Loader) Upscaler(ctx context.Context, factor int) (hub.Upscaler, error) {
	return l.hub.EnsureUpscaler(ctx, factor)
}

// VideoModel fetches the image-to-video weights on first use.
func (l *Loader) VideoModel(ctx context.Context) (string, error) {
	return l.hub.EnsureVideoModel(ctx)
}
