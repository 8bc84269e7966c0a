package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/tternquist/conduit-proxy/internal/config"
	"github.com/tternquist/conduit-proxy/internal/logging"
	"github.com/tternquist/conduit-proxy/internal/metrics"
)

func main() {
	metrics.Init()

	printConfig := flag.Bool("print-config", false, "Print the effective configuration as YAML and exit")
	flag.Parse()

	logCfg, err := logging.FromEnv(logging.EnvPrefix)
	if err != nil {
		logging.Fatal(logging.NewDefaultLogger(os.Stderr), "invalid logging configuration", "err", err)
	}
	logger := logging.NewLogger(os.Stderr, logCfg)

	if *printConfig {
		if err := runPrintConfig(os.Stdout, config.OSEnv); err != nil {
			logging.Fatal(logger, "failed to load config", "kind", config.ErrorKind(err), "err", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runProxy(ctx, config.OSEnv, logger); err != nil {
		logging.Fatal(logger, "proxy stopped", "err", err)
	}
}
