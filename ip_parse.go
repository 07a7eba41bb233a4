package ipfilter

import (
	"net"
	"net/netip"
	"strings"
)

// parseIP extracts an IP address from the textual forms found in proxy
// headers and transport peer addresses. It handles:
//   - Leading/trailing whitespace: "  192.168.1.1  "
//   - Port suffixes: "192.168.1.1:8080" or "[::1]:8080"
//   - Quoted values: "\"192.168.1.1\"" or "'192.168.1.1'"
//   - IPv6 brackets: "[::1]"
//
// A port is only split off when net.SplitHostPort accepts the value, which
// requires exactly one colon or a bracketed IPv6 literal. Bare IPv6 forms such
// as "::1" or "::ffff:10.0.0.1" are therefore never mistaken for host:port.
//
// Returns an invalid netip.Addr (IsValid() == false) if parsing fails.
func parseIP(s string) netip.Addr {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}
	}

	s = trimMatchedChar(s, '"')
	s = trimMatchedChar(s, '\'')
	if s == "" {
		return netip.Addr{}
	}

	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}

	s = trimMatchedPair(s, '[', ']')

	ip, _ := netip.ParseAddr(s)
	return ip
}

// normalizeIP maps an address into the form used for all comparisons:
// IPv4-mapped IPv6 addresses become plain IPv4 and zones are dropped.
func normalizeIP(ip netip.Addr) netip.Addr {
	if !ip.IsValid() {
		return ip
	}
	if ip.Is4In6() {
		ip = ip.Unmap()
	}
	if ip.Zone() != "" {
		ip = ip.WithZone("")
	}
	return ip
}

// firstChainEntry returns the leftmost element of a comma-separated
// forwarded-for chain, trimmed of surrounding whitespace.
func firstChainEntry(value string) string {
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}

// chainLength counts the entries of a comma-separated chain, stopping once
// limit is exceeded.
func chainLength(value string, limit int) int {
	n := 1
	for i := 0; i < len(value); i++ {
		if value[i] != ',' {
			continue
		}
		n++
		if n > limit {
			return n
		}
	}
	return n
}

// trimMatchedPair removes one leading and trailing delimiter when both match.
func trimMatchedPair(s string, start, end byte) string {
	if len(s) < 2 {
		return s
	}

	if s[0] != start || s[len(s)-1] != end {
		return s
	}

	return s[1 : len(s)-1]
}

// trimMatchedChar removes one matching leading and trailing character.
func trimMatchedChar(s string, ch byte) string {
	return trimMatchedPair(s, ch, ch)
}
