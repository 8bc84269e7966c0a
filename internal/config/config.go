package config

import (
	"strconv"
	"time"
)

// Environment variables read by Load.
const (
	EnvEventBufferCapacity     = "CONDUIT_PROXY_EVENT_BUFFER_CAPACITY"
	EnvMetricsFlushIntervalSec = "CONDUIT_PROXY_METRICS_FLUSH_INTERVAL_SECS"
	EnvPrivateListener         = "CONDUIT_PROXY_PRIVATE_LISTENER"
	EnvPrivateForward          = "CONDUIT_PROXY_PRIVATE_FORWARD"
	EnvPublicListener          = "CONDUIT_PROXY_PUBLIC_LISTENER"
	EnvControlListener         = "CONDUIT_PROXY_CONTROL_LISTENER"
	EnvPrivateConnectTimeout   = "CONDUIT_PROXY_PRIVATE_CONNECT_TIMEOUT"
	EnvPublicConnectTimeout    = "CONDUIT_PROXY_PUBLIC_CONNECT_TIMEOUT"
	EnvControlURL              = "CONDUIT_PROXY_CONTROL_URL"
	EnvResolvConf              = "CONDUIT_RESOLV_CONF"
)

const (
	defaultEventBufferCapacity     = 10000
	defaultMetricsFlushIntervalSec = 10
	defaultPrivateListener         = "tcp://127.0.0.1:4140"
	defaultPublicListener          = "tcp://0.0.0.0:4143"
	defaultControlListener         = "tcp://0.0.0.0:4190"
	defaultControlURL              = "tcp://proxy-api.conduit.svc.cluster.local:8086/"
	defaultResolvConf              = "/etc/resolv.conf"
)

// Config holds every setting the proxy needs at startup. A Config returned by
// Load is fully validated; it is not modified afterwards.
type Config struct {
	// PrivateListener accepts connections initiated on the host.
	PrivateListener Listener
	// PublicListener accepts connections initiated by external sources.
	PublicListener Listener
	// ControlListener accepts connections initiated by the control plane.
	ControlListener Listener

	// PrivateForward is where externally received connections are sent.
	// Nil disables forwarding.
	PrivateForward *Addr

	// PublicConnectTimeout bounds connecting to the public peer. Nil means no timeout.
	PublicConnectTimeout *time.Duration
	// PrivateConnectTimeout bounds connecting to the private peer. Nil means no timeout.
	PrivateConnectTimeout *time.Duration

	// ResolvConfPath is recorded as given; the file is not read here.
	ResolvConfPath string

	// ControlHostAndPort addresses the control plane.
	ControlHostAndPort HostAndPort

	EventBufferCapacity  int
	MetricsFlushInterval time.Duration
}

// Listener is the endpoint a listening role binds.
type Listener struct {
	Addr Addr
}

// Load builds a Config from the process environment.
func Load() (Config, error) {
	return LoadFrom(OSEnv)
}

// LoadFrom builds a Config from env. Unset variables take their defaults; the
// first invalid variable aborts the load and its error is returned.
func LoadFrom(env Env) (Config, error) {
	var cfg Config
	var err error

	if cfg.EventBufferCapacity, err = envParseOr(env, EnvEventBufferCapacity, parsePositiveInt, defaultEventBufferCapacity); err != nil {
		return Config{}, err
	}
	if cfg.MetricsFlushInterval, err = envParseOr(env, EnvMetricsFlushIntervalSec, parseSeconds, defaultMetricsFlushIntervalSec*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PrivateListener.Addr, err = envParseOr(env, EnvPrivateListener, ParseAddr, mustParseAddr(defaultPrivateListener)); err != nil {
		return Config{}, err
	}
	if cfg.PublicListener.Addr, err = envParseOr(env, EnvPublicListener, ParseAddr, mustParseAddr(defaultPublicListener)); err != nil {
		return Config{}, err
	}
	if cfg.ControlListener.Addr, err = envParseOr(env, EnvControlListener, ParseAddr, mustParseAddr(defaultControlListener)); err != nil {
		return Config{}, err
	}
	if cfg.PrivateForward, err = envParseOptional(env, EnvPrivateForward, ParseAddr); err != nil {
		return Config{}, err
	}
	if cfg.PublicConnectTimeout, err = envParseOptional(env, EnvPublicConnectTimeout, parseMillis); err != nil {
		return Config{}, err
	}
	if cfg.PrivateConnectTimeout, err = envParseOptional(env, EnvPrivateConnectTimeout, parseMillis); err != nil {
		return Config{}, err
	}
	if cfg.ResolvConfPath, err = envParseOr(env, EnvResolvConf, parseText, defaultResolvConf); err != nil {
		return Config{}, err
	}
	if cfg.ControlHostAndPort, err = controlHostAndPortFromEnv(env, EnvControlURL, defaultControlURL); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseText(s string) (string, error) { return s, nil }

func parseUint(s string, bits int) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, NotANumberError{Value: s}
	}
	return n, nil
}

func parsePositiveInt(s string) (int, error) {
	n, err := parseUint(s, strconv.IntSize-1)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, NotANumberError{Value: s}
	}
	return int(n), nil
}

// maxDurationUnits returns the largest count of unit that fits in a Duration.
func maxDurationUnits(unit time.Duration) uint64 {
	return uint64(1<<63-1) / uint64(unit)
}

func parseSeconds(s string) (time.Duration, error) {
	n, err := parseUint(s, 64)
	if err != nil {
		return 0, err
	}
	if n == 0 || n > maxDurationUnits(time.Second) {
		return 0, NotANumberError{Value: s}
	}
	return time.Duration(n) * time.Second, nil
}

func parseMillis(s string) (time.Duration, error) {
	n, err := parseUint(s, 64)
	if err != nil {
		return 0, err
	}
	if n > maxDurationUnits(time.Millisecond) {
		return 0, NotANumberError{Value: s}
	}
	return time.Duration(n) * time.Millisecond, nil
}
