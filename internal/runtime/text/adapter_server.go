package text

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// serverAdapter spawns an OpenAI-compatible inference server for one request
// and tears it down when the session closes. Used for directory-format
// ("transformers") model repositories, which have no in-process Go runtime.
type serverAdapter struct {
	bin        string
	host       string
	httpClient *http.Client
}

// NewServerAdapter builds an adapter that spawns bin per session.
func NewServerAdapter(bin string) InferenceAdapter {
	// Timeout stays 0: generation length is bounded by request contexts.
	return &serverAdapter{bin: bin, host: "127.0.0.1", httpClient: &http.Client{}}
}

type serverSession struct {
	a       *serverAdapter
	cmd     *exec.Cmd
	baseURL string
	params  InferParams
}

func (a *serverAdapter) Start(modelPath string, params InferParams) (InferSession, error) {
	if strings.TrimSpace(a.bin) == "" {
		return nil, ErrUnavailable("no text server binary configured (--text-server-bin)")
	}
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	port, err := pickFreePort(a.host)
	if err != nil {
		return nil, err
	}
	baseURL := fmt.Sprintf("http://%s:%d", a.host, port)

	args := []string{"--model", modelPath, "--host", a.host, "--port", strconv.Itoa(port)}
	if params.CtxSize > 0 {
		args = append(args, "--ctx-size", strconv.Itoa(params.CtxSize))
	}
	if params.GPULayers != 0 {
		args = append(args, "--n-gpu-layers", strconv.Itoa(params.GPULayers))
	}
	cmd := exec.Command(a.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start text server: %w", err)
	}

	// Early-exit watcher: surface a crash before readiness.
	waitErrCh := make(chan error, 1)
	go func() { waitErrCh <- cmd.Wait() }()

	deadline := time.Now().Add(120 * time.Second)
	for {
		if time.Now().After(deadline) {
			_ = cmd.Process.Kill()
			return nil, fmt.Errorf("text server not ready in time: %s", baseURL)
		}
		select {
		case werr := <-waitErrCh:
			tail := stderr.String()
			if len(tail) > 4096 {
				tail = tail[len(tail)-4096:]
			}
			return nil, fmt.Errorf("text server exited early: %v; stderr tail: %s", werr, tail)
		default:
		}
		if a.isHealthy(baseURL, time.Second) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	return &serverSession{a: a, cmd: cmd, baseURL: baseURL, params: params}, nil
}

func (a *serverAdapter) isHealthy(baseURL string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/models", nil)
	if err != nil {
		return false
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

type completionRequest struct {
	Prompt        string   `json:"prompt"`
	MaxTokens     int      `json:"max_tokens,omitempty"`
	Temperature   float32  `json:"temperature,omitempty"`
	TopP          float32  `json:"top_p,omitempty"`
	TopK          int      `json:"top_k,omitempty"`
	Stop          []string `json:"stop,omitempty"`
	Seed          int      `json:"seed,omitempty"`
	RepeatPenalty float32  `json:"repeat_penalty,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (s *serverSession) Generate(ctx context.Context, prompt string, onToken func(string) error) (FinalResult, error) {
	payload := completionRequest{
		Prompt:        prompt,
		MaxTokens:     s.params.MaxTokens,
		Temperature:   s.params.Temperature,
		TopP:          s.params.TopP,
		TopK:          s.params.TopK,
		Stop:          s.params.Stop,
		Seed:          s.params.Seed,
		RepeatPenalty: s.params.RepeatPenalty,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return FinalResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return FinalResult{}, ctx.Err()
		}
		return FinalResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return FinalResult{}, fmt.Errorf("text server http error: %s: %s", resp.Status, string(b))
	}
	var cr completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return FinalResult{}, err
	}
	if len(cr.Choices) == 0 {
		return FinalResult{}, errors.New("text server returned no choices")
	}
	out := cr.Choices[0].Text
	if onToken != nil {
		if err := onToken(out); err != nil {
			return FinalResult{}, err
		}
	}
	return FinalResult{
		Content: out,
		Usage: Usage{
			PromptTokens:     cr.Usage.PromptTokens,
			CompletionTokens: cr.Usage.CompletionTokens,
			TotalTokens:      cr.Usage.TotalTokens,
		},
		FinishReason: cr.Choices[0].FinishReason,
	}, nil
}

// Close terminates the backing process. Model memory is released with it.
func (s *serverSession) Close() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	err := s.cmd.Process.Kill()
	s.cmd = nil
	return err
}

func pickFreePort(host string) (int, error) {
	l, err := net.Listen("tcp", host+":0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	addr := l.Addr().String()
	lastColon := strings.LastIndex(addr, ":")
	if lastColon < 0 {
		return 0, fmt.Errorf("unexpected addr: %s", addr)
	}
	return strconv.Atoi(addr[lastColon+1:])
}
