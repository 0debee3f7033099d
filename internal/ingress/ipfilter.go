package ingress

import "net"

// IPFilter evaluates a remote address against an allow-list and a
// deny-list, each a set of CIDR ranges parsed once at construction.
// If the allow-list is non-empty, the remote must match it; otherwise
// everything passes that stage. The deny-list is evaluated next and
// takes priority: a deny-list match is always rejected.
type IPFilter struct {
	allow []*net.IPNet
	deny  []*net.IPNet
}

// NewIPFilter parses the given CIDR lists. A malformed entry is a
// ConfigError.
func NewIPFilter(allowList, denyList []string) (*IPFilter, error) {
	allow, err := parseCIDRList(allowList)
	if err != nil {
		return nil, ConfigError("invalid IP allow-list entry", err)
	}
	deny, err := parseCIDRList(denyList)
	if err != nil {
		return nil, ConfigError("invalid IP deny-list entry", err)
	}
	return &IPFilter{allow: allow, deny: deny}, nil
}

func parseCIDRList(entries []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		cidr := entry
		if !hasSlash(cidr) {
			// Accept bare IPs by widening to a single-address CIDR.
			ip := net.ParseIP(cidr)
			if ip == nil {
				_, _, err := net.ParseCIDR(cidr)
				return nil, err
			}
			if ip.To4() != nil {
				cidr += "/32"
			} else {
				cidr += "/128"
			}
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, err
		}
		nets = append(nets, ipNet)
	}
	return nets, nil
}

func hasSlash(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return true
		}
	}
	return false
}

// Allowed reports whether the remote address is admitted.
func (f *IPFilter) Allowed(remote net.IP) bool {
	if len(f.allow) > 0 && !matchesAny(f.allow, remote) {
		return false
	}
	if matchesAny(f.deny, remote) {
		return false
	}
	return true
}

func matchesAny(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
