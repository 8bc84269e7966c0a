package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tternquist/conduit-proxy/internal/config"
)

func TestInit(t *testing.T) {
	reg := Init()
	if reg == nil {
		t.Fatal("Init returned nil registry")
	}
	// Second call should return same registry (sync.Once)
	reg2 := Init()
	if reg != reg2 {
		t.Error("Init should return same registry on subsequent calls")
	}
}

func TestRegistry_AfterInit(t *testing.T) {
	reg := Init()
	if Registry() != reg {
		t.Error("Registry should return the registry from Init")
	}
}

func TestApplyConfig(t *testing.T) {
	Init()
	cfg, err := config.LoadFrom(config.MapEnv{})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	ApplyConfig(cfg)
	if got := testutil.ToFloat64(EventBufferCapacity); got != 10000 {
		t.Errorf("event buffer capacity gauge = %v, want 10000", got)
	}
	if got := testutil.ToFloat64(FlushIntervalSeconds); got != 10 {
		t.Errorf("flush interval gauge = %v, want 10", got)
	}
}

func TestRecordConfigLoadError(t *testing.T) {
	Init()
	_, err := config.LoadFrom(config.MapEnv{config.EnvEventBufferCapacity: "abc"})
	if err == nil {
		t.Fatal("expected load error")
	}
	counter := ConfigLoadErrorsTotal.WithLabelValues("invalid_env_var")
	before := testutil.ToFloat64(counter)
	RecordConfigLoadError(err)
	RecordConfigLoadError(nil) // nil is ignored
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("config load errors = %v, want %v", got, before+1)
	}
}
