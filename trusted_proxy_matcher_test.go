package ipfilter

import (
	"net/netip"
	"testing"
)

func TestTrustedProxyMatcher_Contains(t *testing.T) {
	matcher := buildTrustedProxyMatcher([]netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.7/32"),
		netip.MustParsePrefix("2001:db8::/32"),
	})

	tests := []struct {
		name string
		ip   netip.Addr
		want bool
	}{
		{name: "IPv4 in range", ip: netip.MustParseAddr("10.42.1.2"), want: true},
		{name: "IPv4 out of range", ip: netip.MustParseAddr("11.0.0.1"), want: false},
		{name: "IPv4 host prefix", ip: netip.MustParseAddr("192.168.1.7"), want: true},
		{name: "IPv4 host prefix neighbour", ip: netip.MustParseAddr("192.168.1.8"), want: false},
		{name: "IPv6 in range", ip: netip.MustParseAddr("2001:db8::1"), want: true},
		{name: "IPv6 out of range", ip: netip.MustParseAddr("2001:db9::1"), want: false},
		{name: "invalid address", ip: netip.Addr{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matcher.contains(tt.ip); got != tt.want {
				t.Fatalf("matcher.contains(%v) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestTrustedProxyMatcher_ZeroPrefix(t *testing.T) {
	v4Matcher := buildTrustedProxyMatcher([]netip.Prefix{netip.MustParsePrefix("0.0.0.0/0")})
	if !v4Matcher.contains(netip.MustParseAddr("8.8.8.8")) {
		t.Fatal("expected IPv4 matcher to trust all IPv4 addresses")
	}
	if v4Matcher.contains(netip.MustParseAddr("2001:4860:4860::8888")) {
		t.Fatal("expected IPv4 matcher to reject IPv6 addresses")
	}

	v6Matcher := buildTrustedProxyMatcher([]netip.Prefix{netip.MustParsePrefix("::/0")})
	if !v6Matcher.contains(netip.MustParseAddr("2001:4860:4860::8888")) {
		t.Fatal("expected IPv6 matcher to trust all IPv6 addresses")
	}
	if v6Matcher.contains(netip.MustParseAddr("8.8.8.8")) {
		t.Fatal("expected IPv6 matcher to reject IPv4 addresses")
	}
}

func TestTrustedProxyMatcher_Empty(t *testing.T) {
	var matcher trustedProxyMatcher
	if matcher.contains(netip.MustParseAddr("10.0.0.1")) {
		t.Fatal("expected empty matcher to trust nothing")
	}
}

func TestTrustProxyPrefixes_MappedPrefixFolded(t *testing.T) {
	filter := mustNewFilter(t,
		DenyList("203.0.113.7"),
		TrustProxyPrefixes(netip.MustParsePrefix("::ffff:10.0.0.0/104")),
	)

	if !filter.config.trustedProxyMatch.contains(netip.MustParseAddr("10.1.2.3")) {
		t.Fatal("expected IPv4-mapped trusted prefix to cover plain IPv4 peers")
	}
}
