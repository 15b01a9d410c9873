package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off":
		return LevelOff
	case "error":
		return LevelError
	case "info", "":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// requestLogLevel resolves the level for one request. Per-request overrides
// via the "log" query parameter or the X-Log-Level header beat the default.
func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return LevelInfo
}

// logRequest emits one line per generation request with its outcome.
func logRequest(r *http.Request, status int, start time.Time, err error) {
	lvl := requestLogLevel(r)
	if lvl == LevelOff {
		return
	}
	if lvl == LevelError && err == nil && status < http.StatusInternalServerError {
		return
	}
	if zlog == nil {
		if err != nil {
			log.Printf("%s %s status=%d dur=%s err=%v", r.Method, r.URL.Path, status, time.Since(start), err)
		} else {
			log.Printf("%s %s status=%d dur=%s", r.Method, r.URL.Path, status, time.Since(start))
		}
		return
	}
	ev := zlog.Info().Str("method", r.Method).Str("path", r.URL.Path).
		Int("status", status).Dur("dur", time.Since(start))
	if lvl == LevelDebug {
		ev = ev.Str("remote", r.RemoteAddr).Str("user_agent", r.UserAgent())
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("request end")
}
