package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eltociear/NeuroSandboxWebUI/internal/common/fsutil"
	"github.com/eltociear/NeuroSandboxWebUI/internal/config"
	"github.com/eltociear/NeuroSandboxWebUI/internal/device"
	"github.com/eltociear/NeuroSandboxWebUI/internal/dispatch"
	"github.com/eltociear/NeuroSandboxWebUI/internal/httpapi"
	"github.com/eltociear/NeuroSandboxWebUI/internal/hub"
	"github.com/eltociear/NeuroSandboxWebUI/internal/loader"
	"github.com/eltociear/NeuroSandboxWebUI/internal/outputs"
	"github.com/eltociear/NeuroSandboxWebUI/internal/registry"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/audiocraft"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/diffusion"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/text"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/voice"
	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// Flags with environment variable defaults
	cfgPath := flag.String("config", envDefault("NEUROSANDBOX_CONFIG", ""), "Path to a yaml/json/toml config file")
	addr := flag.String("addr", envDefault("NEUROSANDBOX_ADDR", ""), "HTTP listen address, e.g. :7860")
	inputsDir := flag.String("inputs-dir", envDefault("NEUROSANDBOX_INPUTS", ""), "Root directory for model weights and uploads")
	outputsDir := flag.String("outputs-dir", envDefault("NEUROSANDBOX_OUTPUTS", ""), "Root directory for generated artifacts")
	deviceOverride := flag.String("device", envDefault("NEUROSANDBOX_DEVICE", ""), "Compute device: auto|cuda|cpu")
	logLevel := flag.String("log-level", envDefault("NEUROSANDBOX_LOG_LEVEL", ""), "Log level: debug|info|warn|error")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
	share := flag.Bool("share", false, "Bind on all interfaces instead of localhost")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// Flags override the file when set.
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *inputsDir != "" {
		cfg.InputsDir = *inputsDir
	}
	if *outputsDir != "" {
		cfg.OutputsDir = *outputsDir
	}
	if *deviceOverride != "" {
		cfg.Device = *deviceOverride
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if origins := splitCSV(*corsOrigins); len(origins) > 0 {
		cfg.CORSEnabled = true
		cfg.CORSOrigins = origins
	}
	if *share {
		cfg.ShareMode = true
	}
	applyDefaults(&cfg)

	logger := newLogger(cfg.LogLevel)

	inputs, err := fsutil.ExpandHome(cfg.InputsDir)
	if err != nil {
		log.Fatalf("bad inputs dir: %v", err)
	}
	outRoot, err := fsutil.ExpandHome(cfg.OutputsDir)
	if err != nil {
		log.Fatalf("bad outputs dir: %v", err)
	}

	reg, err := registry.New(inputs)
	if err != nil {
		log.Fatalf("failed to open inputs dir: %v", err)
	}
	if err := reg.EnsureLayout(); err != nil {
		log.Fatalf("failed to prepare inputs layout: %v", err)
	}

	dev := device.Resolve(cfg.Device)
	logger.Info().Str("device", string(dev.Kind)).Str("name", dev.Name).Msg("compute device selected")

	hubClient := hub.New(reg, cfg.HubBase, cfg.GitBin, logger)
	ld := loader.New(reg, hubClient, dev, logger)
	store := outputs.New(outRoot)

	svc := dispatch.New(dispatch.Deps{
		Config:  cfg,
		Loader:  ld,
		Outputs: store,
		Images:  diffusion.New(cfg.SDServerURL),
		Audio:   audiocraft.New(cfg.AudiocraftServerURL),
		TTS:     voice.NewTTS(cfg.TTSServerURL),
		STT:     voice.NewWhisper(cfg.WhisperServerURL),
		Llama:   text.NewLlamaAdapter(),
		Server:  text.NewServerAdapter(cfg.TextServerBin),
		Log:     logger,
	})

	httpapi.SetLogger(logger)
	httpapi.SetMaxBodyBytes(int64(cfg.MaxBodyMB) << 20)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins)

	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetBaseContext(baseCtx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	start := time.Now()
	mux := httpapi.NewMux(svc, httpapi.Options{
		Models: reg.Snapshot,
		Status: func() types.StatusResponse {
			return types.StatusResponse{
				Device:           string(dev.Kind),
				DeviceName:       dev.Name,
				FreeMemoryMB:     device.FreeMemoryMB(),
				Busy:             svc.Busy(),
				UptimeSeconds:    int64(time.Since(start).Seconds()),
				ServerTime:       time.Now().Unix(),
				GenerationsTotal: svc.Counters(),
			}
		},
		UploadsDir:  reg.Path("uploads"),
		OutputsDir:  outRoot,
		OpenOutputs: store.OpenFolder,
		ApplySettings: func(req types.SettingsRequest) {
			logger.Info().Bool("share_mode", req.ShareMode).Msg("settings updated; restart to change the listener binding")
		},
		Shutdown: func() { stop <- syscall.SIGTERM },
	})

	listen := listenAddr(cfg.Addr, cfg.ShareMode)
	srv := &http.Server{Addr: listen, Handler: mux}

	go func() {
		logger.Info().Str("addr", listen).Str("inputs", inputs).Str("outputs", outRoot).Msg("neurosandbox listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM / terminal close)
	<-stop
	svc.Stop()
	baseCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown error")
	}
}

// loadConfig reads the config file when one is given. Without a file the
// zero config is used and flags plus applyDefaults fill everything in.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, nil
	}
	return config.Load(path)
}

func applyDefaults(cfg *config.Config) {
	if cfg.Addr == "" {
		cfg.Addr = ":7860"
	}
	if cfg.InputsDir == "" {
		cfg.InputsDir = "inputs"
	}
	if cfg.OutputsDir == "" {
		cfg.OutputsDir = "outputs"
	}
	if cfg.MaxWaitSeconds <= 0 {
		cfg.MaxWaitSeconds = 5
	}
	if cfg.MaxBodyMB <= 0 {
		cfg.MaxBodyMB = 64
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// listenAddr pins the listener to localhost unless share mode is on.
func listenAddr(addr string, share bool) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if share {
		if host == "localhost" || host == "127.0.0.1" {
			return net.JoinHostPort("", port)
		}
		return addr
	}
	if host == "" {
		return net.JoinHostPort("127.0.0.1", port)
	}
	return addr
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
