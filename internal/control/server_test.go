package control

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tternquist/conduit-proxy/internal/config"
	"github.com/tternquist/conduit-proxy/internal/dnsresolver"
	"github.com/tternquist/conduit-proxy/internal/logging"
	"github.com/tternquist/conduit-proxy/internal/metrics"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	proxyCfg, err := config.LoadFrom(config.MapEnv{config.EnvPrivateForward: "tcp://127.0.0.1:8080"})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	return Config{
		Proxy:    proxyCfg,
		Identity: config.Identity{NodeName: "node-1", PodName: "web-0", PodNamespace: "default"},
		Recorder: metrics.NewRecorder(8, time.Hour),
		Logger:   logging.NewDiscardLogger(),
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	rec := get(t, Handler(testConfig(t)), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true {
		t.Errorf("expected ok=true, got %v", body)
	}
}

func TestHandleMetrics(t *testing.T) {
	cfg := testConfig(t)
	metrics.Init()
	metrics.ApplyConfig(cfg.Proxy)
	cfg.Recorder.Record(metrics.Event{Kind: metrics.EventAccepted})

	rec := get(t, Handler(cfg), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{
		"proxy_event_buffer_capacity 10000",
		"proxy_metrics_flush_interval_seconds 10",
		"proxy_event_buffer_used 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}

func TestHandleConfig(t *testing.T) {
	rec := get(t, Handler(testConfig(t)), "/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "private_forward: tcp://127.0.0.1:8080") {
		t.Errorf("unexpected body:\n%s", rec.Body.String())
	}
}

func TestHandleConfig_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/config", nil)
	rec := httptest.NewRecorder()
	Handler(testConfig(t)).ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandleConfig_RateLimited(t *testing.T) {
	h := Handler(testConfig(t))
	limited := false
	for i := 0; i < 20; i++ {
		if get(t, h, "/config").Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected /config to be rate limited after a burst")
	}
}

func TestHandleIdentity(t *testing.T) {
	rec := get(t, Handler(testConfig(t)), "/identity")
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["node_name"] != "node-1" || body["pod_name"] != "web-0" || body["pod_namespace"] != "default" {
		t.Errorf("unexpected identity %v", body)
	}
}

func TestHandleResolv(t *testing.T) {
	cfg := testConfig(t)
	if rec := get(t, Handler(cfg), "/resolv"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without resolver config, got %d", rec.Code)
	}

	cfg.Resolv = &dnsresolver.ResolvConf{Path: "/etc/resolv.conf", Servers: []string{"10.96.0.10:53"}, Ndots: 5}
	rec := get(t, Handler(cfg), "/resolv")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "10.96.0.10:53") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestStart(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := Start(ln, testConfig(t))
	defer server.Shutdown(context.Background())

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
}
