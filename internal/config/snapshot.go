package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Snapshot is the printable form of a Config. Durations are rendered with
// time.Duration.String so the output reads like "10s".
type Snapshot struct {
	PrivateListener       string `yaml:"private_listener"`
	PublicListener        string `yaml:"public_listener"`
	ControlListener       string `yaml:"control_listener"`
	PrivateForward        string `yaml:"private_forward,omitempty"`
	PublicConnectTimeout  string `yaml:"public_connect_timeout,omitempty"`
	PrivateConnectTimeout string `yaml:"private_connect_timeout,omitempty"`
	ResolvConfPath        string `yaml:"resolv_conf_path"`
	ControlPlane          string `yaml:"control_plane"`
	EventBufferCapacity   int    `yaml:"event_buffer_capacity"`
	MetricsFlushInterval  string `yaml:"metrics_flush_interval"`
}

// SnapshotOf returns the printable form of cfg.
func SnapshotOf(cfg Config) Snapshot {
	s := Snapshot{
		PrivateListener:      cfg.PrivateListener.Addr.URL(),
		PublicListener:       cfg.PublicListener.Addr.URL(),
		ControlListener:      cfg.ControlListener.Addr.URL(),
		ResolvConfPath:       cfg.ResolvConfPath,
		ControlPlane:         cfg.ControlHostAndPort.String(),
		EventBufferCapacity:  cfg.EventBufferCapacity,
		MetricsFlushInterval: cfg.MetricsFlushInterval.String(),
	}
	if cfg.PrivateForward != nil {
		s.PrivateForward = cfg.PrivateForward.URL()
	}
	if cfg.PublicConnectTimeout != nil {
		s.PublicConnectTimeout = cfg.PublicConnectTimeout.String()
	}
	if cfg.PrivateConnectTimeout != nil {
		s.PrivateConnectTimeout = cfg.PrivateConnectTimeout.String()
	}
	return s
}

// WriteSnapshot writes cfg to w as YAML.
func WriteSnapshot(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(SnapshotOf(cfg)); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return nil
}
