package listener

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/tternquist/conduit-proxy/internal/config"
)

// Set holds one bound listener per role.
type Set struct {
	Private net.Listener
	Public  net.Listener
	Control net.Listener
}

// Bind binds the private, public and control listeners in that order. If any
// bind fails, the listeners already bound are closed.
func Bind(ctx context.Context, cfg config.Config) (*Set, error) {
	var lc net.ListenConfig
	set := &Set{}
	roles := []struct {
		name string
		addr config.Addr
		dst  *net.Listener
	}{
		{"private", cfg.PrivateListener.Addr, &set.Private},
		{"public", cfg.PublicListener.Addr, &set.Public},
		{"control", cfg.ControlListener.Addr, &set.Control},
	}
	for _, r := range roles {
		ln, err := lc.Listen(ctx, "tcp", r.addr.String())
		if err != nil {
			_ = set.Close()
			return nil, fmt.Errorf("bind %s listener %s: %w", r.name, r.addr, err)
		}
		*r.dst = ln
	}
	return set, nil
}

// Close closes every bound listener.
func (s *Set) Close() error {
	var errs []error
	for _, ln := range []net.Listener{s.Private, s.Public, s.Control} {
		if ln == nil {
			continue
		}
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
