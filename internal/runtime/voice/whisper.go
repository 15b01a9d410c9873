package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// WhisperClient talks to one whisper transcription server.
type WhisperClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewWhisper builds a transcription client for the server at baseURL.
func NewWhisper(baseURL string) *WhisperClient {
	return &WhisperClient{baseURL: baseURL, httpClient: &http.Client{}}
}

// Healthy reports whether the server answers its health endpoint.
func (c *WhisperClient) Healthy(ctx context.Context) bool {
	return probeHealth(ctx, c.httpClient, c.baseURL)
}

type transcribeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Transcribe uploads an audio file and returns the recognized text.
// modelPath points at the local whisper checkpoint the server should use.
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath, modelPath, device string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("model_path", modelPath); err != nil {
		return "", err
	}
	if device != "" {
		if err := mw.WriteField("device", device); err != nil {
			return "", err
		}
	}
	if err := attachFile(mw, "audio", audioPath); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("whisper server: %s: %s", resp.Status, bytes.TrimSpace(b))
	}
	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Text, nil
}
