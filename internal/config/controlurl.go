package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// HostAndPort is a host, possibly a symbolic name, and a port. It addresses the
// control plane, whose name is resolved later by the connecting component.
type HostAndPort struct {
	Host string
	Port uint16
}

// String returns host:port, bracketing IPv6 hosts.
func (hp HostAndPort) String() string {
	return net.JoinHostPort(hp.Host, strconv.Itoa(int(hp.Port)))
}

// ParseControlURL validates a control-plane URL of the form
// tcp://<host>:<port>/. Checks run in a fixed order and the first failure is
// returned as a ControlPlaneError carrying raw.
func ParseControlURL(raw string) (HostAndPort, error) {
	fail := func(kind URLError) (HostAndPort, error) {
		return HostAndPort{}, ControlPlaneError{Raw: raw, Kind: kind}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fail(URLSyntaxError)
	}
	host := u.Hostname()
	if host == "" {
		return fail(URLMissingHost)
	}
	// The host is checked before the scheme.
	if u.Scheme != "tcp" {
		return fail(URLUnsupportedScheme)
	}
	p := u.Port()
	if p == "" {
		return fail(URLMissingPort)
	}
	port, err := strconv.ParseUint(p, 10, 16)
	if err != nil {
		return fail(URLSyntaxError)
	}
	if u.Path != "/" {
		return fail(URLPathNotAllowed)
	}
	// url.URL cannot tell an empty fragment from none; any '#' starts one.
	if u.Fragment != "" || strings.Contains(raw, "#") {
		return fail(URLFragmentNotAllowed)
	}
	return HostAndPort{Host: host, Port: uint16(port)}, nil
}

// controlHostAndPortFromEnv validates the control URL in key, or def when key
// is unset.
func controlHostAndPortFromEnv(env Env, key, def string) (HostAndPort, error) {
	raw, ok, err := envVar(env, key)
	if err != nil {
		return HostAndPort{}, err
	}
	if !ok {
		raw = def
	}
	return ParseControlURL(raw)
}
