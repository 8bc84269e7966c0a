package control

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/tternquist/conduit-proxy/internal/config"
	"github.com/tternquist/conduit-proxy/internal/dnsresolver"
	"github.com/tternquist/conduit-proxy/internal/metrics"
)

// Config holds dependencies for the control server.
type Config struct {
	Proxy    config.Config
	Identity config.Identity
	Resolv   *dnsresolver.ResolvConf
	Recorder *metrics.Recorder
	Logger   *slog.Logger
}

// Handler returns the control mux.
func Handler(cfg Config) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", handleMetrics(cfg.Recorder))
	mux.HandleFunc("/config", rateLimitHandler(handleConfig(cfg.Proxy, cfg.Logger), rate.Every(time.Second), 5))
	mux.HandleFunc("/identity", handleIdentity(cfg.Identity))
	mux.HandleFunc("/resolv", handleResolv(cfg.Resolv))
	return mux
}

// Start serves the control API on ln in the background. Shut the returned
// server down to stop it.
func Start(ln net.Listener, cfg Config) *http.Server {
	server := &http.Server{
		Handler:           Handler(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			if cfg.Logger != nil {
				cfg.Logger.Error("control server error", "err", err)
			}
		}
	}()
	if cfg.Logger != nil {
		cfg.Logger.Info("control server listening", "addr", ln.Addr().String())
	}
	return server
}

// rateLimitHandler wraps h with a rate limiter. Allows burst requests, refills at refill interval.
func rateLimitHandler(h http.HandlerFunc, refill rate.Limit, burst int) http.HandlerFunc {
	limiter := rate.NewLimiter(refill, burst)
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": "rate limit exceeded"})
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func handleMetrics(recorder *metrics.Recorder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if recorder != nil {
			metrics.EventBufferUsed.Set(float64(recorder.Buffered()))
		}
		promhttp.HandlerFor(metrics.Init(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

func handleConfig(cfg config.Config, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var buf bytes.Buffer
		if err := config.WriteSnapshot(&buf, cfg); err != nil {
			if logger != nil {
				logger.Error("config snapshot failed", "err", err)
			}
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func handleIdentity(id config.Identity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"node_name":     id.NodeName,
			"pod_name":      id.PodName,
			"pod_namespace": id.PodNamespace,
		})
	}
}

func handleResolv(rc *dnsresolver.ResolvConf) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if rc == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "resolver configuration not loaded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"path":     rc.Path,
			"servers":  rc.Servers,
			"search":   rc.Search,
			"ndots":    rc.Ndots,
			"timeout":  rc.Timeout.String(),
			"attempts": rc.Attempts,
		})
	}
}
