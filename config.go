package ipfilter

import (
	"fmt"
	"net/http"
	"net/netip"
)

const (
	// DefaultMaxChainLength is the maximum number of entries accepted in a
	// forwarded chain. Longer chains are treated as an invalid address rather
	// than scanned, which bounds the work an attacker can cause with a huge
	// header. Typical proxy chains rarely exceed 5-10 entries.
	DefaultMaxChainLength = 100

	// DefaultDenyStatus is the HTTP status written by Middleware on Deny.
	DefaultDenyStatus = http.StatusUnauthorized

	// DefaultDenyMessage is the response body written by Middleware on Deny.
	DefaultDenyMessage = "Unauthorized"
)

// Option configures a Filter.
//
// Construct options using package-provided option builder functions.
type Option func(*config) error

// config holds filter configuration state.
//
// It is mutated by Option functions during construction only. After
// configFromOptions returns it is never written again.
type config struct {
	mode         Mode
	matchKind    MatchKind
	entries      []Entry
	allowPrivate bool
	rules        *RuleSet

	source            string
	sourceHeader      string
	trustedProxyCIDRs []netip.Prefix
	trustedProxyMatch trustedProxyMatcher
	maxChainLength    int

	denyStatus  int
	denyMessage string

	logger     Logger
	logGranted bool
	metrics    Metrics
	observers  []Observer

	metricsFactory    func() (Metrics, error)
	useMetricsFactory bool
}

var (
	// loopbackProxyCIDRs contains loopback networks used when the app sits
	// behind a reverse proxy running on the same host.
	loopbackProxyCIDRs = []netip.Prefix{
		mustParsePrefix("127.0.0.0/8"),
		mustParsePrefix("::1/128"),
	}

	// privateProxyCIDRs contains private-network ranges commonly used for
	// trusted upstream proxies in VM and internal network deployments.
	privateProxyCIDRs = []netip.Prefix{
		mustParsePrefix("10.0.0.0/8"),
		mustParsePrefix("172.16.0.0/12"),
		mustParsePrefix("192.168.0.0/16"),
		mustParsePrefix("fc00::/7"),
	}
)

func mustParsePrefix(cidr string) netip.Prefix {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in CIDR %q: %v", cidr, err))
	}
	return prefix
}

func clonePrefixes(prefixes []netip.Prefix) []netip.Prefix {
	if prefixes == nil {
		return nil
	}
	cloned := make([]netip.Prefix, len(prefixes))
	copy(cloned, prefixes)
	return cloned
}

func cloneEntries(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	cloned := make([]Entry, len(entries))
	for i, entry := range entries {
		cloned[i] = cloneEntry(entry)
	}
	return cloned
}

func normalizeTrustedProxyPrefixes(prefixes []netip.Prefix) ([]netip.Prefix, error) {
	normalized := make([]netip.Prefix, 0, len(prefixes))
	for _, prefix := range prefixes {
		if !prefix.IsValid() {
			return nil, fmt.Errorf("invalid trusted proxy prefix %q", prefix)
		}
		if addr := prefix.Addr(); addr.Is4In6() && prefix.Bits() >= 96 {
			prefix = netip.PrefixFrom(addr.Unmap(), prefix.Bits()-96)
		}
		normalized = append(normalized, prefix.Masked())
	}

	return normalized, nil
}

func mergeUniquePrefixes(existing []netip.Prefix, additions ...netip.Prefix) []netip.Prefix {
	if len(existing) == 0 && len(additions) == 0 {
		return nil
	}

	merged := make([]netip.Prefix, 0, len(existing)+len(additions))
	seen := make(map[netip.Prefix]struct{}, len(existing)+len(additions))

	for _, group := range [][]netip.Prefix{existing, additions} {
		for _, prefix := range group {
			if _, ok := seen[prefix]; ok {
				continue
			}
			seen[prefix] = struct{}{}
			merged = append(merged, prefix)
		}
	}

	return merged
}

func appendTrustedProxyCIDRs(c *config, prefixes ...netip.Prefix) {
	if len(prefixes) == 0 {
		return
	}

	c.trustedProxyCIDRs = mergeUniquePrefixes(c.trustedProxyCIDRs, prefixes...)
}

func defaultConfig() *config {
	return &config{
		mode:           ModeDeny,
		matchKind:      MatchExact,
		allowPrivate:   false,
		source:         SourceXForwardedFor,
		maxChainLength: DefaultMaxChainLength,
		denyStatus:     DefaultDenyStatus,
		denyMessage:    DefaultDenyMessage,
		logger:         noopLogger{},
		logGranted:     true,
		metrics:        noopMetrics{},
	}
}

func applyOptions(c *config, opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			return fmt.Errorf("option cannot be nil")
		}
		if err := opt(c); err != nil {
			return err
		}
	}

	return nil
}

func configFromOptions(opts ...Option) (*config, error) {
	cfg := defaultConfig()

	if err := applyOptions(cfg, opts...); err != nil {
		return nil, err
	}

	cfg.source = canonicalSourceName(cfg.source)
	cfg.sourceHeader = sourceHeaderKey(cfg.source)
	cfg.trustedProxyMatch = buildTrustedProxyMatcher(cfg.trustedProxyCIDRs)

	if cfg.useMetricsFactory && cfg.metricsFactory == nil {
		return nil, fmt.Errorf("metrics factory cannot be nil")
	}

	if cfg.useMetricsFactory {
		// Validate with a placeholder so a bad configuration never runs the
		// factory (which may register collectors).
		cfg.metrics = noopMetrics{}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	rules, err := NewRuleSet(cfg.matchKind, cfg.entries...)
	if err != nil {
		return nil, err
	}
	cfg.rules = rules

	if cfg.useMetricsFactory {
		metrics, err := cfg.metricsFactory()
		if err != nil {
			return nil, err
		}
		if isNilMetrics(metrics) {
			return nil, fmt.Errorf("metrics cannot be nil")
		}
		cfg.metrics = metrics
	}

	return cfg, nil
}
