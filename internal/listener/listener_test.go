package listener

import (
	"context"
	"net"
	"testing"

	"github.com/tternquist/conduit-proxy/internal/config"
)

func loopbackConfig(t *testing.T, env config.MapEnv) config.Config {
	t.Helper()
	base := config.MapEnv{
		config.EnvPrivateListener: "tcp://127.0.0.1:0",
		config.EnvPublicListener:  "tcp://127.0.0.1:0",
		config.EnvControlListener: "tcp://127.0.0.1:0",
	}
	for k, v := range env {
		base[k] = v
	}
	cfg, err := config.LoadFrom(base)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	return cfg
}

func TestBind(t *testing.T) {
	set, err := Bind(context.Background(), loopbackConfig(t, nil))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer set.Close()

	for name, ln := range map[string]net.Listener{"private": set.Private, "public": set.Public, "control": set.Control} {
		if ln == nil {
			t.Fatalf("%s listener not bound", name)
		}
		conn, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			t.Fatalf("dial %s listener: %v", name, err)
		}
		conn.Close()
	}
}

func TestBind_ClosesOnFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer taken.Close()

	cfg := loopbackConfig(t, config.MapEnv{
		config.EnvControlListener: "tcp://" + taken.Addr().String(),
	})
	set, err := Bind(context.Background(), cfg)
	if err == nil {
		set.Close()
		t.Fatal("expected bind of an address in use to fail")
	}
}

func TestSet_CloseTwice(t *testing.T) {
	set, err := Bind(context.Background(), loopbackConfig(t, nil))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := set.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := set.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
