package dnsresolver

import (
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// ResolvConf is the part of a resolver configuration file the proxy uses.
type ResolvConf struct {
	Path     string
	Servers  []string // host:port
	Search   []string
	Ndots    int
	Timeout  time.Duration
	Attempts int
}

// LoadResolvConf parses the resolver configuration at path.
func LoadResolvConf(path string) (*ResolvConf, error) {
	cc, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resolv.conf %s: %w", path, err)
	}
	return fromClientConfig(path, cc)
}

func fromClientConfig(path string, cc *dns.ClientConfig) (*ResolvConf, error) {
	if len(cc.Servers) == 0 {
		return nil, fmt.Errorf("resolv.conf %s: no nameservers", path)
	}
	servers := make([]string, 0, len(cc.Servers))
	for _, s := range cc.Servers {
		servers = append(servers, net.JoinHostPort(s, cc.Port))
	}
	return &ResolvConf{
		Path:     path,
		Servers:  servers,
		Search:   cc.Search,
		Ndots:    cc.Ndots,
		Timeout:  time.Duration(cc.Timeout) * time.Second,
		Attempts: cc.Attempts,
	}, nil
}

// NameList returns the fully qualified names to try for name, in order,
// applying the search list and ndots rule.
func (rc *ResolvConf) NameList(name string) []string {
	cc := &dns.ClientConfig{Search: rc.Search, Ndots: rc.Ndots}
	return cc.NameList(name)
}
