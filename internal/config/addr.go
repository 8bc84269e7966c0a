package config

import (
	"net"
	"net/netip"
	"net/url"
	"strconv"
)

// Addr is a resolved network endpoint: a literal IP address and a port.
type Addr struct {
	ap netip.AddrPort
}

// ParseAddr parses an endpoint of the form tcp://<ip>:<port>. The host must be
// a literal IPv4 or IPv6 address and the port must be explicit; there is no
// default port. Path and fragment are not inspected.
func ParseAddr(s string) (Addr, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Addr{}, InvalidAddrError{}
	}
	if u.Scheme != "tcp" {
		return Addr{}, InvalidAddrError{}
	}
	ip, err := netip.ParseAddr(u.Hostname())
	if err != nil {
		return Addr{}, InvalidAddrError{}
	}
	port, ok := explicitPort(u)
	if !ok {
		return Addr{}, InvalidAddrError{}
	}
	return Addr{ap: netip.AddrPortFrom(ip, port)}, nil
}

func mustParseAddr(s string) Addr {
	a, err := ParseAddr(s)
	if err != nil {
		panic("config: bad default address " + s)
	}
	return a
}

// explicitPort returns the port written in u. Ports are never inferred from
// the scheme.
func explicitPort(u *url.URL) (uint16, bool) {
	p := u.Port()
	if p == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(p, 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(n), true
}

// IP returns the address without the port.
func (a Addr) IP() netip.Addr { return a.ap.Addr() }

// Port returns the port number.
func (a Addr) Port() uint16 { return a.ap.Port() }

// AddrPort returns the endpoint as a netip.AddrPort.
func (a Addr) AddrPort() netip.AddrPort { return a.ap }

// TCPAddr returns the endpoint in the form the net package dials and binds.
func (a Addr) TCPAddr() *net.TCPAddr { return net.TCPAddrFromAddrPort(a.ap) }

// String returns host:port, bracketing IPv6 hosts.
func (a Addr) String() string { return a.ap.String() }

// URL returns the endpoint in the tcp:// form accepted by ParseAddr.
func (a Addr) URL() string { return "tcp://" + a.ap.String() }

// IsValid reports whether a holds a parsed endpoint.
func (a Addr) IsValid() bool { return a.ap.IsValid() }
