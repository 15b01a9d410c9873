package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eltociear/NeuroSandboxWebUI/internal/dispatch"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/text"
	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

//go:embed static
var staticFS embed.FS

// Service defines the generation methods required by the HTTP API layer.
type Service interface {
	Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error)
	Txt2Img(ctx context.Context, req types.Txt2ImgRequest) (types.GenerateResponse, error)
	Img2Img(ctx context.Context, req types.Img2ImgRequest) (types.GenerateResponse, error)
	Inpaint(ctx context.Context, req types.InpaintRequest) (types.GenerateResponse, error)
	Video(ctx context.Context, req types.VideoRequest) (types.GenerateResponse, error)
	Extras(ctx context.Context, req types.ExtrasRequest) (types.GenerateResponse, error)
	Audio(ctx context.Context, req types.AudioRequest) (types.GenerateResponse, error)
	Stop()
	ClearChat()
}

// Options carries the non-generation wiring for the mux.
type Options struct {
	// Models returns the current selectable model lists.
	Models func() types.ModelsResponse
	// Status returns the current service status.
	Status func() types.StatusResponse
	// UploadsDir receives files posted to /api/upload.
	UploadsDir string
	// OutputsDir is served read-only under /outputs/.
	OutputsDir string
	// OpenOutputs opens the outputs folder in the host file browser.
	OpenOutputs func() error
	// ApplySettings handles runtime settings changes.
	ApplySettings func(types.SettingsRequest)
	// Shutdown requests a graceful process exit.
	Shutdown func()
}

// NewMux builds the complete HTTP surface: the JSON API, the embedded UI,
// the outputs file server and the operational endpoints.
func NewMux(svc Service, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/llm/chat", handleChat(svc))
		r.Post("/llm/clear", func(w http.ResponseWriter, _ *http.Request) {
			svc.ClearChat()
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/sd/txt2img", handleGenerate("txt2img", svc.Txt2Img))
		r.Post("/sd/img2img", handleGenerate("img2img", svc.Img2Img))
		r.Post("/sd/inpaint", handleGenerate("inpaint", svc.Inpaint))
		r.Post("/sd/video", handleGenerate("video", svc.Video))
		r.Post("/sd/extras", handleGenerate("extras", svc.Extras))
		r.Post("/audiocraft/generate", handleGenerate("audio", svc.Audio))

		r.Get("/models", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, opts.Models())
		})
		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, opts.Status())
		})
		r.Post("/stop", func(w http.ResponseWriter, _ *http.Request) {
			svc.Stop()
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/settings", handleSettings(opts))
		r.Post("/upload", handleUpload(opts.UploadsDir))
		r.Post("/outputs/open", func(w http.ResponseWriter, _ *http.Request) {
			if opts.OpenOutputs == nil {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			if err := opts.OpenOutputs(); err != nil {
				writeJSONError(w, http.StatusInternalServerError, err.Error())
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/terminal/close", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
			if opts.Shutdown != nil {
				// Let the response flush before tearing the listener down.
				go opts.Shutdown()
			}
		})
	})

	if opts.OutputsDir != "" {
		fileServer := http.FileServer(http.Dir(opts.OutputsDir))
		r.Get("/outputs/*", func(w http.ResponseWriter, req *http.Request) {
			http.StripPrefix("/outputs/", fileServer).ServeHTTP(w, req)
		})
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	if sub, err := fs.Sub(staticFS, "static"); err == nil {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.FileServer(http.FS(sub)).ServeHTTP(w, req)
		})
	}

	return r
}

// decodeJSON enforces content type and size limits before decoding.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps dispatcher failures onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, start time.Time, err error) {
	switch {
	case dispatch.IsBusy(err):
		IncrementBackpressure("busy")
		writeJSONError(w, http.StatusTooManyRequests, err.Error())
		logRequest(r, http.StatusTooManyRequests, start, err)
	case text.IsUnavailable(err):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		logRequest(r, http.StatusServiceUnavailable, start, err)
	default:
		if he, ok := err.(HTTPError); ok {
			writeJSONError(w, he.StatusCode(), he.Error())
			logRequest(r, he.StatusCode(), start, err)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		logRequest(r, http.StatusInternalServerError, start, err)
	}
}

// handleGenerate adapts one dispatcher method into a JSON handler.
func handleGenerate[Req any](modality string, run func(context.Context, Req) (types.GenerateResponse, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if !decodeJSON(w, r, &req) {
			return
		}
		start := time.Now()
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp, err := run(ctx, req)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeServiceError(w, r, start, err)
			return
		}
		if resp.Artifact != nil {
			IncrementGeneration(modality)
		}
		writeJSON(w, resp)
		logRequest(r, http.StatusOK, start, nil)
	}
}

func handleChat(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		start := time.Now()
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp, err := svc.Chat(ctx, req)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeServiceError(w, r, start, err)
			return
		}
		if resp.Message == "" {
			IncrementGeneration("chat")
		}
		writeJSON(w, resp)
		logRequest(r, http.StatusOK, start, nil)
	}
}

func handleSettings(opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SettingsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if opts.ApplySettings != nil {
			opts.ApplySettings(req)
		}
		writeJSON(w, map[string]string{"message": "Settings updated successfully!"})
	}
}

func handleUpload(uploadsDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if uploadsDir == "" {
			writeJSONError(w, http.StatusNotImplemented, "uploads are not configured")
			return
		}
		// Media uploads are larger than JSON payloads.
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes*8)
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "missing 'file' form field")
			return
		}
		defer file.Close()

		if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		name := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
		dest := filepath.Join(uploadsDir, name)
		out, err := os.Create(dest)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if _, err := io.Copy(out, file); err != nil {
			out.Close()
			_ = os.Remove(dest)
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := out.Close(); err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, types.UploadResponse{Path: dest})
	}
}
