package diffusion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

func TestPresetFor(t *testing.T) {
	cases := []struct {
		in     types.SDModelType
		config string
		xl     bool
		ok     bool
	}{
		{types.SDTypeSD, "configs/sd/v1-inference.yaml", false, true},
		{types.SDTypeSD2, "configs/sd/v2-inference.yaml", false, true},
		{types.SDTypeSDXL, "configs/sd/sd_xl_base.yaml", true, true},
		{types.SDModelType("sd3"), "", false, false},
	}
	for _, tc := range cases {
		p, ok := PresetFor(tc.in)
		if ok != tc.ok {
			t.Fatalf("PresetFor(%q) ok=%v want %v", tc.in, ok, tc.ok)
		}
		if p.Config != tc.config || p.XL != tc.xl {
			t.Fatalf("PresetFor(%q) = %+v", tc.in, p)
		}
	}
}

func TestTxt2ImgDecodesImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/txt2img" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var p GenerateParams
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatal(err)
		}
		if p.Prompt != "a cat" || p.Config != "configs/sd/v1-inference.yaml" {
			t.Errorf("params = %+v", p)
		}
		json.NewEncoder(w).Encode(mediaResponse{Image: base64.StdEncoding.EncodeToString(png)})
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.Txt2Img(context.Background(), GenerateParams{
		Prompt: "a cat",
		Config: "configs/sd/v1-inference.yaml",
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(png) {
		t.Fatalf("image bytes = %q", got)
	}
}

func TestIncompatibleMapsFrom422(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte("weights do not match pipeline"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Txt2Img(context.Background(), GenerateParams{Prompt: "x"})
	if err == nil || !IsIncompatible(err) {
		t.Fatalf("err = %v, want incompatible", err)
	}
	if err.Error() != "weights do not match pipeline" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestServerErrorIsPlainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Video(context.Background(), VideoParams{Seed: 42})
	if err == nil || IsIncompatible(err) {
		t.Fatalf("err = %v, want plain error", err)
	}
}

func TestContextCancelWins(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(srv.URL)
	_, err := c.Upscale(ctx, UpscaleParams{Factor: 2})
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
