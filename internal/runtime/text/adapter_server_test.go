package text

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestServerSessionGenerate(t *testing.T) {
	var gotReq completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"text": "a quiet wave", "finish_reason": "stop"}},
			"usage":   map[string]int{"prompt_tokens": 4, "completion_tokens": 3, "total_tokens": 7},
		})
	}))
	defer srv.Close()

	s := &serverSession{
		a:       &serverAdapter{httpClient: srv.Client()},
		baseURL: srv.URL,
		params:  InferParams{MaxTokens: 64, Temperature: 0.7, Stop: []string{"Q:", "\n"}},
	}
	res, err := s.Generate(context.Background(), "Human: hi\nAssistant: ", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Content != "a quiet wave" {
		t.Fatalf("unexpected content: %q", res.Content)
	}
	if res.Usage.TotalTokens != 7 {
		t.Fatalf("unexpected usage: %+v", res.Usage)
	}
	if len(gotReq.Stop) != 2 || gotReq.Stop[0] != "Q:" {
		t.Fatalf("stop words not forwarded: %+v", gotReq.Stop)
	}
}

func TestServerSessionGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model blew up", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := &serverSession{a: &serverAdapter{httpClient: srv.Client()}, baseURL: srv.URL}
	if _, err := s.Generate(context.Background(), "hi", nil); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestServerAdapterRequiresBinary(t *testing.T) {
	a := NewServerAdapter("")
	_, err := a.Start("/tmp/model", InferParams{})
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestPickFreePort(t *testing.T) {
	p, err := pickFreePort("127.0.0.1")
	if err != nil {
		t.Fatalf("pick port: %v", err)
	}
	if p <= 0 || p > 65535 {
		t.Fatalf("bad port: %d", p)
	}
}
