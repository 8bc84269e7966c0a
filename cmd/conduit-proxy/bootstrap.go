package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tternquist/conduit-proxy/internal/config"
	"github.com/tternquist/conduit-proxy/internal/control"
	"github.com/tternquist/conduit-proxy/internal/dnsresolver"
	"github.com/tternquist/conduit-proxy/internal/forward"
	"github.com/tternquist/conduit-proxy/internal/listener"
	"github.com/tternquist/conduit-proxy/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// loadConfig loads the proxy configuration, counting and logging a rejection.
func loadConfig(env config.Env, logger *slog.Logger) (config.Config, config.Identity, error) {
	cfg, err := config.LoadFrom(env)
	if err != nil {
		metrics.RecordConfigLoadError(err)
		logger.Error("invalid configuration", "kind", config.ErrorKind(err), "err", err)
		return config.Config{}, config.Identity{}, fmt.Errorf("load config: %w", err)
	}
	id, err := config.LoadIdentity(env)
	if err != nil {
		metrics.RecordConfigLoadError(err)
		return config.Config{}, config.Identity{}, fmt.Errorf("load identity: %w", err)
	}
	return cfg, id, nil
}

// runPrintConfig writes the effective configuration to w.
func runPrintConfig(w io.Writer, env config.Env) error {
	cfg, err := config.LoadFrom(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return config.WriteSnapshot(w, cfg)
}

// runProxy loads config, wires components, starts all servers, and blocks until shutdown.
func runProxy(ctx context.Context, env config.Env, logger *slog.Logger) error {
	metrics.Init()

	cfg, id, err := loadConfig(env, logger)
	if err != nil {
		return err
	}
	metrics.ApplyConfig(cfg)

	logArgs := []any{
		"private", cfg.PrivateListener.Addr.String(),
		"public", cfg.PublicListener.Addr.String(),
		"control", cfg.ControlListener.Addr.String(),
		"control_plane", cfg.ControlHostAndPort.String(),
		"node", id.NodeName,
		"pod", id.PodNamespace + "/" + id.PodName,
	}
	if cfg.PublicConnectTimeout != nil {
		logArgs = append(logArgs, "public_connect_timeout", cfg.PublicConnectTimeout.String())
	}
	logger.Info("configuration loaded", logArgs...)

	// A missing resolver config is not fatal; the proxy can still relay.
	resolv, err := dnsresolver.LoadResolvConf(cfg.ResolvConfPath)
	if err != nil {
		logger.Warn("resolver configuration unavailable", "path", cfg.ResolvConfPath, "err", err)
	} else {
		logger.Info("resolver configuration loaded", "path", resolv.Path, "servers", resolv.Servers)
	}

	listeners, err := listener.Bind(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = listeners.Close() }()

	recorder := metrics.NewRecorder(cfg.EventBufferCapacity, cfg.MetricsFlushInterval)
	recorderDone := make(chan struct{})
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		recorder.Run(runCtx)
		close(recorderDone)
	}()

	controlServer := control.Start(listeners.Control, control.Config{
		Proxy:    cfg,
		Identity: id,
		Resolv:   resolv,
		Recorder: recorder,
		Logger:   logger,
	})

	errCh := make(chan error, 1)
	forwardDone := make(chan struct{})
	if cfg.PrivateForward != nil {
		fwd := forward.New(listeners.Public, *cfg.PrivateForward, cfg.PrivateConnectTimeout, recorder, logger)
		go func() {
			defer close(forwardDone)
			if err := fwd.Serve(runCtx); err != nil {
				errCh <- fmt.Errorf("forward: %w", err)
			}
		}()
		logger.Info("forwarding public connections", "listen", listeners.Public.Addr().String(), "target", cfg.PrivateForward.String())
	} else {
		close(forwardDone)
		logger.Info("no private forward configured; public listener idle")
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case runErr = <-errCh:
		logger.Error("server error", "err", runErr)
	}

	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	_ = controlServer.Shutdown(shutdownCtx)
	<-forwardDone
	<-recorderDone

	return runErr
}
