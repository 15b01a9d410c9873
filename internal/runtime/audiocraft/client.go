// Package audiocraft is the HTTP client for the audiocraft inference
// server (musicgen, audiogen, magnet and the multiband diffusion decoder).
package audiocraft

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

// Client talks to one audiocraft server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a client for the server at baseURL.
func New(baseURL string) *Client {
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

// GenerateParams is one audio generation call.
type GenerateParams struct {
	ModelPath   string               `json:"model_path"`
	ModelType   types.AudioModelType `json:"model_type"`
	Prompt      string               `json:"prompt"`
	Duration    int                  `json:"duration,omitempty"`
	TopK        int                  `json:"top_k,omitempty"`
	TopP        float64              `json:"top_p,omitempty"`
	Temperature float64              `json:"temperature,omitempty"`
	CFGCoef     float64              `json:"cfg_coef,omitempty"`
	// Melody is the chroma conditioning wav, base64, musicgen only.
	Melody string `json:"melody_b64,omitempty"`
	// KeepTokens asks the server to retain the EnCodec tokens so a
	// follow-up multiband decode can reuse them.
	KeepTokens bool   `json:"keep_tokens,omitempty"`
	Device     string `json:"device,omitempty"`
}

// Result is one finished generation. TokensRef is empty unless
// KeepTokens was set on the request.
type Result struct {
	Audio     []byte
	TokensRef string
}

type generateResponse struct {
	Audio     string `json:"audio_b64"`
	TokensRef string `json:"tokens_ref,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Generate runs one generation call and returns the wav bytes.
func (c *Client) Generate(ctx context.Context, p GenerateParams) (Result, error) {
	var out generateResponse
	if err := c.post(ctx, "/generate", p, &out); err != nil {
		return Result{}, err
	}
	audio, err := base64.StdEncoding.DecodeString(out.Audio)
	if err != nil {
		return Result{}, err
	}
	return Result{Audio: audio, TokensRef: out.TokensRef}, nil
}

// DecodeParams re-decodes retained tokens through multiband diffusion.
type DecodeParams struct {
	TokensRef string `json:"tokens_ref"`
	ModelPath string `json:"model_path"`
	// PeakClip caps sample amplitude when writing the decoded wav.
	PeakClip float64 `json:"peak_clip,omitempty"`
	Device   string  `json:"device,omitempty"`
}

// DefaultPeakClip is the amplitude ceiling applied to multiband output.
const DefaultPeakClip = 0.99

// DecodeTokens runs the multiband diffusion decoder over retained
// tokens and returns the wav bytes.
func (c *Client) DecodeTokens(ctx context.Context, p DecodeParams) ([]byte, error) {
	if p.PeakClip == 0 {
		p.PeakClip = DefaultPeakClip
	}
	var out generateResponse
	if err := c.post(ctx, "/multiband", p, &out); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(out.Audio)
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
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("audiocraft server %s: %s: %s", path, resp.Status, bytes.TrimSpace(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// EncodeMedia base64-encodes raw media bytes for a request payload.
func EncodeMedia(b []byte) string { return base64.StdEncoding.EncodeToString(b) }
