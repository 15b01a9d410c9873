package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eltociear/NeuroSandboxWebUI/internal/common/fsutil"
	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

// Subdirectories of the inputs tree, one per model category.
const (
	LLMModelsDir     = "text/llm_models"
	WhisperDir       = "text/whisper-medium"
	SDModelsDir      = "image/sd_models"
	VAEModelsDir     = "image/sd_models/vae"
	LoraModelsDir    = "image/sd_models/lora"
	InpaintModelsDir = "image/sd_models/inpaint"
	UpscaleModelsDir = "image/sd_models/upscale"
	VideoModelDir    = "image/sd_models/video"
	AvatarsDir       = "image/avatars"
	VoicesDir        = "audio/voices"
	AudiocraftDir    = "audio/audiocraft"
	XTTSDir          = "audio/XTTS-v2"
)

// AudiocraftModels is the fixed selectable catalogue; weights are fetched
// from the hub on first use rather than scanned from disk.
var AudiocraftModels = []string{
	"musicgen-stereo-medium",
	"audiogen-medium",
	"musicgen-stereo-melody",
	"magnet-medium-30sec",
	"magnet-medium-10sec",
	"audio-magnet-medium",
}

// Registry resolves model names to on-disk paths under a fixed inputs layout.
// Presence of files in the layout is what populates the UI's selectable lists.
type Registry struct {
	inputs string
}

// New builds a Registry rooted at inputsDir ('~' is expanded).
func New(inputsDir string) (*Registry, error) {
	base, err := fsutil.ExpandHome(inputsDir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	return &Registry{inputs: abs}, nil
}

// Root returns the absolute inputs directory.
func (r *Registry) Root() string { return r.inputs }

// Path joins the inputs root with the given category-relative elements.
func (r *Registry) Path(elem ...string) string {
	return filepath.Join(append([]string{r.inputs}, elem...)...)
}

// EnsureLayout creates the full inputs tree so a fresh install starts with
// every selectable directory in place.
func (r *Registry) EnsureLayout() error {
	for _, d := range []string{
		LLMModelsDir, SDModelsDir, VAEModelsDir, LoraModelsDir,
		InpaintModelsDir, AvatarsDir, VoicesDir, AudiocraftDir,
	} {
		if err := fsutil.EnsureDir(r.Path(filepath.FromSlash(d))); err != nil {
			return err
		}
	}
	return nil
}

// LLMModels lists entries (files or directories) under the LLM models dir.
func (r *Registry) LLMModels() []types.Model {
	return r.scan(LLMModelsDir, scanOpts{allowDirs: true})
}

// SDModels lists base checkpoints; the id is the name without .safetensors.
func (r *Registry) SDModels() []types.Model {
	return r.scan(SDModelsDir, scanOpts{suffix: ".safetensors", stripSuffix: true})
}

// VAEModels lists alternate decoders; the id is the name without .safetensors.
func (r *Registry) VAEModels() []types.Model {
	return r.scan(VAEModelsDir, scanOpts{suffix: ".safetensors", stripSuffix: true})
}

// LoraModels lists low-rank adapters; the id keeps the full filename.
func (r *Registry) LoraModels() []types.Model {
	return r.scan(LoraModelsDir, scanOpts{suffix: ".safetensors"})
}

// InpaintModels lists inpaint checkpoints; the id is the name without .safetensors.
func (r *Registry) InpaintModels() []types.Model {
	return r.scan(InpaintModelsDir, scanOpts{suffix: ".safetensors", stripSuffix: true})
}

// Avatars lists display images for the chat tab.
func (r *Registry) Avatars() []string { return names(r.scan(AvatarsDir, scanOpts{})) }

// Voices lists reference voice samples for TTS cloning.
func (r *Registry) Voices() []string { return names(r.scan(VoicesDir, scanOpts{})) }

// Snapshot gathers every selectable list for the UI in one call.
func (r *Registry) Snapshot() types.ModelsResponse {
	return types.ModelsResponse{
		LLMModels:        r.LLMModels(),
		SDModels:         r.SDModels(),
		VAEModels:        r.VAEModels(),
		LoraModels:       r.LoraModels(),
		InpaintModels:    r.InpaintModels(),
		AudiocraftModels: append([]string(nil), AudiocraftModels...),
		Avatars:          r.Avatars(),
		Voices:           r.Voices(),
	}
}

type scanOpts struct {
	// suffix restricts matches; empty accepts everything except .txt notes.
	suffix      string
	stripSuffix bool
	allowDirs   bool
}

func (r *Registry) scan(sub string, opts scanOpts) []types.Model {
	dir := r.Path(filepath.FromSlash(sub))
	entries, err := os.ReadDir(dir)
	if err != nil {
		// A missing category dir just means nothing is selectable yet.
		return nil
	}
	var models []types.Model
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if !opts.allowDirs {
				continue
			}
		} else {
			if strings.HasSuffix(strings.ToLower(name), ".txt") {
				continue
			}
			if opts.suffix != "" && !strings.HasSuffix(strings.ToLower(name), opts.suffix) {
				continue
			}
		}
		id := name
		if opts.stripSuffix && opts.suffix != "" {
			id = strings.TrimSuffix(name, opts.suffix)
		}
		models = append(models, types.Model{ID: id, Name: id, Path: filepath.Join(dir, name)})
	}
	return models
}

func names(models []types.Model) []string {
	out := make([]string, 0, len(models))
	for _, m := range models {
		out = append(out, m.ID)
	}
	return out
}
