package auth

import (
	"net"
	"strings"
)

// IPAllowlist restricts access to a set of IPs and CIDR ranges.
// An empty list allows everything.
type IPAllowlist struct {
	ips      []net.IP
	networks []*net.IPNet
}

// NewIPAllowlist parses entries, returning the ones that failed to parse.
func NewIPAllowlist(entries []string) (*IPAllowlist, []string) {
	l := &IPAllowlist{}
	var invalid []string
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, network, err := net.ParseCIDR(entry)
			if err != nil {
				invalid = append(invalid, entry)
				continue
			}
			l.networks = append(l.networks, network)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			invalid = append(invalid, entry)
			continue
		}
		l.ips = append(l.ips, ip)
	}
	return l, invalid
}

// Empty reports whether no entries are configured.
func (l *IPAllowlist) Empty() bool {
	return l == nil || (len(l.ips) == 0 && len(l.networks) == 0)
}

// Allows checks clientIP, which may carry a port.
func (l *IPAllowlist) Allows(clientIP string) bool {
	if l.Empty() {
		return true
	}

	ip := net.ParseIP(clientIP)
	if ip == nil {
		host, _, err := net.SplitHostPort(clientIP)
		if err != nil {
			return false
		}
		if ip = net.ParseIP(host); ip == nil {
			return false
		}
	}

	for _, allowed := range l.ips {
		if ip.Equal(allowed) {
			return true
		}
	}
	for _, network := range l.networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
