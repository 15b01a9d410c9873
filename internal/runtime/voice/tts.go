// Package voice holds the speech clients: XTTS synthesis and whisper
// transcription, both spoken over HTTP to their inference servers.
package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// TTSParams is one synthesis request.
type TTSParams struct {
	Text       string
	ModelDir   string
	SpeakerWav string
	Language   string
	// Temperature, TopP, TopK and Speed shape sampling on the server.
	Temperature       float64
	TopP              float64
	TopK              int
	Speed             float64
	LengthPenalty     float64
	RepetitionPenalty float64
	Device            string
}

// TTSClient talks to one XTTS server.
type TTSClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTTS builds a synthesis client for the server at baseURL.
func NewTTS(baseURL string) *TTSClient {
	return &TTSClient{baseURL: baseURL, httpClient: &http.Client{}}
}

// Healthy reports whether the server answers its health endpoint.
func (c *TTSClient) Healthy(ctx context.Context) bool {
	return probeHealth(ctx, c.httpClient, c.baseURL)
}

// Synthesize renders text to speech and returns the wav bytes. The
// speaker wav file is uploaded alongside the form fields.
func (c *TTSClient) Synthesize(ctx context.Context, p TTSParams) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"text":               p.Text,
		"model_dir":          p.ModelDir,
		"language":           p.Language,
		"temperature":        strconv.FormatFloat(p.Temperature, 'f', -1, 64),
		"top_p":              strconv.FormatFloat(p.TopP, 'f', -1, 64),
		"top_k":              strconv.Itoa(p.TopK),
		"speed":              strconv.FormatFloat(p.Speed, 'f', -1, 64),
		"length_penalty":     strconv.FormatFloat(p.LengthPenalty, 'f', -1, 64),
		"repetition_penalty": strconv.FormatFloat(p.RepetitionPenalty, 'f', -1, 64),
	}
	if p.Device != "" {
		fields["device"] = p.Device
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := attachFile(mw, "speaker_wav", p.SpeakerWav); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tts server: %s: %s", resp.Status, bytes.TrimSpace(b))
	}
	return io.ReadAll(resp.Body)
}

func attachFile(mw *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	part, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func probeHealth(ctx context.Context, hc *http.Client, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := hc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
