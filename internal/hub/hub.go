// Package hub fetches pretrained weights on first use. Every fetch is a
// blocking clone or download into the inputs tree; a directory that already
// exists is trusted as-is (no resume, no integrity verification beyond what
// the transfer tool provides).
package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/eltociear/NeuroSandboxWebUI/internal/common/fsutil"
	"github.com/eltociear/NeuroSandboxWebUI/internal/registry"
)

// DefaultBase is the remote model repository root.
const DefaultBase = "https://huggingface.co"

// WhisperMediumURL is the fixed checkpoint for speech-to-text.
const WhisperMediumURL = "https://openaipublic.azureedge.net/main/whisper/models" +
	"/345ae4da62f9b3d59415adc60127b97c714f32e89e936602e85993674d08dcb1/medium.pt"

// Repo slugs for the models with fixed hub locations. The magnet entries keep
// the upstream "secs" spelling even though the UI names say "sec".
var audiocraftRepos = map[string]string{
	"musicgen-stereo-medium": "facebook/musicgen-stereo-medium",
	"audiogen-medium":        "facebook/audiogen-medium",
	"musicgen-stereo-melody": "facebook/musicgen-stereo-melody",
	"magnet-medium-30sec":    "facebook/magnet-medium-30secs",
	"magnet-medium-10sec":    "facebook/magnet-medium-10secs",
	"audio-magnet-medium":    "facebook/audio-magnet-medium",
}

const (
	xttsRepo      = "coqui/XTTS-v2"
	multibandRepo = "facebook/multiband-diffusion"
	upscalerX2    = "stabilityai/sd-x2-latent-upscaler"
	upscalerX4    = "stabilityai/stable-diffusion-x4-upscaler"
	videoRepo     = "vdo/stable-video-diffusion-img2vid-xt-1-1"
)

// Client performs hub fetches into a Registry's inputs tree.
type Client struct {
	reg    *registry.Registry
	base   string
	gitBin string
	http   *http.Client
	log    zerolog.Logger
}

// New builds a hub client. base defaults to DefaultBase, gitBin to "git".
func New(reg *registry.Registry, base, gitBin string, log zerolog.Logger) *Client {
	if base == "" {
		base = DefaultBase
	}
	if gitBin == "" {
		gitBin = "git"
	}
	// Timeout stays 0: model downloads are long and bounded by ctx only.
	return &Client{reg: reg, base: base, gitBin: gitBin, http: &http.Client{}, log: log}
}

// EnsureRepo clones base/<repo> into dest unless dest already exists.
func (c *Client) EnsureRepo(ctx context.Context, repo, dest string) error {
	if fsutil.PathExists(dest) {
		return nil
	}
	if err := fsutil.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}
	url := c.base + "/" + repo
	c.log.Info().Str("repo", repo).Str("dest", dest).Msg("downloading model")
	cmd := exec.CommandContext(ctx, c.gitBin, "clone", "--depth", "1", url, dest)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		// Leave no half-cloned tree behind; the next call retries from scratch.
		_ = os.RemoveAll(dest)
		return fmt.Errorf("clone %s: %w", repo, err)
	}
	c.log.Info().Str("repo", repo).Msg("model downloaded")
	return nil
}

// EnsureFile downloads url to dest unless dest already exists.
func (c *Client) EnsureFile(ctx context.Context, url, dest string) error {
	if fsutil.PathExists(dest) {
		return nil
	}
	if err := fsutil.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	c.log.Info().Str("url", url).Msg("downloading file")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download %s: %s", url, resp.Status)
	}
	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// EnsureWhisper fetches the whisper-medium checkpoint and returns its path.
func (c *Client) EnsureWhisper(ctx context.Context) (string, error) {
	dest := c.reg.Path(filepath.FromSlash(registry.WhisperDir), "medium.pt")
	if err := c.EnsureFile(ctx, WhisperMediumURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// EnsureXTTS fetches the voice-clone model and returns its directory.
func (c *Client) EnsureXTTS(ctx context.Context) (string, error) {
	dest := c.reg.Path(filepath.FromSlash(registry.XTTSDir))
	if err := c.EnsureRepo(ctx, xttsRepo, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// EnsureAudiocraft fetches the named audiocraft model and returns its
// directory. Unknown names are an error before any network traffic.
func (c *Client) EnsureAudiocraft(ctx context.Context, name string) (string, error) {
	repo, ok := audiocraftRepos[name]
	if !ok {
		return "", fmt.Errorf("unknown audiocraft model: %s", name)
	}
	dest := c.reg.Path(filepath.FromSlash(registry.AudiocraftDir), name)
	if err := c.EnsureRepo(ctx, repo, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// EnsureMultiband fetches the multiband-diffusion refiner.
func (c *Client) EnsureMultiband(ctx context.Context) (string, error) {
	dest := c.reg.Path(filepath.FromSlash(registry.AudiocraftDir), "multiband-diffusion")
	if err := c.EnsureRepo(ctx, multibandRepo, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Upscaler describes a resolved upscale model.
type Upscaler struct {
	Factor int
	Path   string
	// ConfigFile is only set for the x4 pipeline.
	ConfigFile string
}

// EnsureUpscaler fetches the x2 latent or x4 upscaler for the given factor.
func (c *Client) EnsureUpscaler(ctx context.Context, factor int) (Upscaler, error) {
	up := Upscaler{Factor: factor}
	switch factor {
	case 2:
		up.Path = c.reg.Path(filepath.FromSlash(registry.UpscaleModelsDir), "x2-upscaler")
		if err := c.EnsureRepo(ctx, upscalerX2, up.Path); err != nil {
			return Upscaler{}, err
		}
	case 4:
		up.Path = c.reg.Path(filepath.FromSlash(registry.UpscaleModelsDir), "x4-upscaler")
		up.ConfigFile = "configs/sd/x4-upscaling.yaml"
		if err := c.EnsureRepo(ctx, upscalerX4, up.Path); err != nil {
			return Upscaler{}, err
		}
	default:
		return Upscaler{}, fmt.Errorf("unsupported upscale factor: %d", factor)
	}
	return up, nil
}

// EnsureVideoModel fetches the fixed image-to-video model and returns its
// directory.
func (c *Client) EnsureVideoModel(ctx context.Context) (string, error) {
	dest := c.reg.Path(filepath.FromSlash(registry.VideoModelDir))
	if err := c.EnsureRepo(ctx, videoRepo, dest); err != nil {
		return "", err
	}
	return dest, nil
}
