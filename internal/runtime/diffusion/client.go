// Package diffusion is the HTTP client for the stable-diffusion inference
// server. All denoising math lives behind the wire; this package only
// marshals call parameters and decodes returned media.
package diffusion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

// Preset pins the base config file for one of the three pipeline variants.
type Preset struct {
	Config string
	XL     bool
}

// PresetFor maps the closed model-type enum onto its pipeline preset.
// The bool is false for an unknown type; callers return the invalid-type
// message instead of guessing.
func PresetFor(t types.SDModelType) (Preset, bool) {
	switch t {
	case types.SDTypeSD:
		return Preset{Config: "configs/sd/v1-inference.yaml"}, true
	case types.SDTypeSD2:
		return Preset{Config: "configs/sd/v2-inference.yaml"}, true
	case types.SDTypeSDXL:
		return Preset{Config: "configs/sd/sd_xl_base.yaml", XL: true}, true
	default:
		return Preset{}, false
	}
}

// incompatibleError marks a backend-reported model/type mismatch.
type incompatibleError struct{ msg string }

func (e incompatibleError) Error() string { return e.msg }

// IsIncompatible reports whether err is a model/type pairing failure.
func IsIncompatible(err error) bool {
	_, ok := err.(incompatibleError)
	return ok
}

// Client talks to one diffusion server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a client for the server at baseURL.
func New(baseURL string) *Client {
	// Timeout stays 0: diffusion runs are long and bounded by ctx only.
	return &Client{baseURL: baseURL, httpClient: &http.Client{}}
}

// Healthy reports whether the server answers its health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// GenerateParams is the common parameter block for the image pipelines.
type GenerateParams struct {
	ModelPath      string   `json:"model_path"`
	Config         string   `json:"config_file"`
	XL             bool     `json:"xl"`
	VAEPath        string   `json:"vae_path,omitempty"`
	LoraPaths      []string `json:"lora_paths,omitempty"`
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negative_prompt,omitempty"`
	Sampler        string   `json:"sampler,omitempty"`
	Steps          int      `json:"steps,omitempty"`
	CFGScale       float64  `json:"cfg_scale,omitempty"`
	Width          int      `json:"width,omitempty"`
	Height         int      `json:"height,omitempty"`
	ClipSkip       int      `json:"clip_skip,omitempty"`
	Device         string   `json:"device,omitempty"`
	// DisableSafetyChecker drops the content filter on the loaded pipeline.
	DisableSafetyChecker bool `json:"disable_safety_checker,omitempty"`

	// img2img / inpaint extensions.
	InitImage string  `json:"init_image_b64,omitempty"`
	MaskImage string  `json:"mask_image_b64,omitempty"`
	Strength  float64 `json:"strength,omitempty"`
}

// UpscaleParams drives the secondary upscale pass.
type UpscaleParams struct {
	ModelPath string  `json:"model_path"`
	Config    string  `json:"config_file,omitempty"`
	Factor    int     `json:"factor"`
	Prompt    string  `json:"prompt"`
	Image     string  `json:"image_b64"`
	Steps     int     `json:"steps,omitempty"`
	CFGScale  float64 `json:"cfg_scale,omitempty"`
	Device    string  `json:"device,omitempty"`
}

// VideoParams drives the image-to-video pipeline.
type VideoParams struct {
	ModelPath        string  `json:"model_path"`
	Image            string  `json:"image_b64"`
	MotionBucketID   int     `json:"motion_bucket_id,omitempty"`
	NoiseAugStrength float64 `json:"noise_aug_strength,omitempty"`
	FPS              int     `json:"fps,omitempty"`
	DecodeChunkSize  int     `json:"decode_chunk_size,omitempty"`
	Seed             int64   `json:"seed"`
	Device           string  `json:"device,omitempty"`
}

type mediaResponse struct {
	Image string `json:"image_b64,omitempty"`
	Video string `json:"video_b64,omitempty"`
	Error string `json:"error,omitempty"`
}

// Txt2Img runs one text-to-image call and returns the PNG bytes.
func (c *Client) Txt2Img(ctx context.Context, p GenerateParams) ([]byte, error) {
	return c.image(ctx, "/txt2img", p)
}

// Img2Img runs one image-to-image call and returns the PNG bytes.
func (c *Client) Img2Img(ctx context.Context, p GenerateParams) ([]byte, error) {
	return c.image(ctx, "/img2img", p)
}

// Inpaint runs one inpainting call and returns the PNG bytes.
func (c *Client) Inpaint(ctx context.Context, p GenerateParams) ([]byte, error) {
	return c.image(ctx, "/inpaint", p)
}

// Upscale runs the secondary upscale inference and returns the PNG bytes.
func (c *Client) Upscale(ctx context.Context, p UpscaleParams) ([]byte, error) {
	var out mediaResponse
	if err := c.post(ctx, "/upscale", p, &out); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(out.Image)
}

// Video runs the image-to-video pipeline and returns the MP4 bytes.
func (c *Client) Video(ctx context.Context, p VideoParams) ([]byte, error) {
	var out mediaResponse
	if err := c.post(ctx, "/video", p, &out); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(out.Video)
}

func (c *Client) image(ctx context.Context, path string, p GenerateParams) ([]byte, error) {
	var out mediaResponse
	if err := c.post(ctx, path, p, &out); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(out.Image)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	// 422 is the backend's "weights do not match the requested pipeline".
	if resp.StatusCode == http.StatusUnprocessableEntity {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return incompatibleError{msg: string(bytes.TrimSpace(b))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("diffusion server %s: %s: %s", path, resp.Status, bytes.TrimSpace(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// EncodeMedia base64-encodes raw media bytes for a request payload.
func EncodeMedia(b []byte) string { return base64.StdEncoding.EncodeToString(b) }
