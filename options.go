package ipfilter

import (
	"fmt"
	"net/netip"
)

// WithMode sets whether listed addresses are allowed or denied.
func WithMode(mode Mode) Option {
	return func(c *config) error {
		c.mode = mode
		return nil
	}
}

// AllowList configures allow-list mode with exact address entries.
func AllowList(addrs ...string) Option {
	entries := Entries(addrs...)

	return func(c *config) error {
		c.mode = ModeAllow
		c.entries = append(c.entries, cloneEntries(entries)...)
		return nil
	}
}

// DenyList configures deny-list mode with exact address entries.
func DenyList(addrs ...string) Option {
	entries := Entries(addrs...)

	return func(c *config) error {
		c.mode = ModeDeny
		c.entries = append(c.entries, cloneEntries(entries)...)
		return nil
	}
}

// WithMatchKind sets how entries are interpreted. The default is MatchExact.
func WithMatchKind(kind MatchKind) Option {
	return func(c *config) error {
		c.matchKind = kind
		return nil
	}
}

// WithEntries appends raw rule entries. Entries are compiled once, when the
// Filter is built, under the configured match kind.
func WithEntries(entries ...Entry) Option {
	entries = cloneEntries(entries)

	return func(c *config) error {
		c.entries = append(c.entries, cloneEntries(entries)...)
		return nil
	}
}

// WithAddresses appends single-value entries: addresses, CIDR blocks or
// "low-high" ranges depending on the match kind.
func WithAddresses(values ...string) Option {
	return WithEntries(Entries(values...)...)
}

// WithCIDRs switches to MatchCIDR and appends the given blocks.
func WithCIDRs(cidrs ...string) Option {
	entries := Entries(cidrs...)

	return func(c *config) error {
		c.matchKind = MatchCIDR
		c.entries = append(c.entries, cloneEntries(entries)...)
		return nil
	}
}

// WithRanges switches to MatchRange and appends the given entries.
func WithRanges(entries ...Entry) Option {
	entries = cloneEntries(entries)

	return func(c *config) error {
		c.matchKind = MatchRange
		c.entries = append(c.entries, cloneEntries(entries)...)
		return nil
	}
}

// AllowPrivate configures the private-address carve-out.
//
// In allow mode it permits unlisted private addresses. In deny mode, unlisted
// private addresses are denied unless it is set. A listed address in deny
// mode is denied either way.
func AllowPrivate(allow bool) Option {
	return func(c *config) error {
		c.allowPrivate = allow
		return nil
	}
}

// WithSource selects the header consulted before the transport peer
// address. Built-in names are SourceXForwardedFor (default),
// SourceForwarded, SourceXRealIP and SourceRemoteAddr. Any other value is
// treated as a single-value header name such as "CF-Connecting-IP".
func WithSource(source string) Option {
	return func(c *config) error {
		c.source = source
		return nil
	}
}

// TrustProxyPrefixes adds trusted proxy network prefixes. Once any are
// configured, the source header is honored only for requests whose peer
// address falls inside them.
func TrustProxyPrefixes(prefixes ...netip.Prefix) Option {
	prefixes = clonePrefixes(prefixes)

	return func(c *config) error {
		normalized, err := normalizeTrustedProxyPrefixes(prefixes)
		if err != nil {
			return err
		}

		appendTrustedProxyCIDRs(c, normalized...)
		return nil
	}
}

// TrustLoopbackProxy adds loopback CIDRs to trusted proxy ranges.
func TrustLoopbackProxy() Option {
	return func(c *config) error {
		appendTrustedProxyCIDRs(c, loopbackProxyCIDRs...)
		return nil
	}
}

// TrustPrivateProxyRanges adds private network CIDRs to trusted proxy ranges.
func TrustPrivateProxyRanges() Option {
	return func(c *config) error {
		appendTrustedProxyCIDRs(c, privateProxyCIDRs...)
		return nil
	}
}

// TrustProxyAddrs adds trusted upstream proxy host addresses.
func TrustProxyAddrs(addrs ...netip.Addr) Option {
	addrs = append([]netip.Addr(nil), addrs...)

	return func(c *config) error {
		prefixes := make([]netip.Prefix, 0, len(addrs))
		for _, addr := range addrs {
			if !addr.IsValid() {
				return fmt.Errorf("invalid proxy address %q", addr)
			}

			addr = normalizeIP(addr)
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}

		appendTrustedProxyCIDRs(c, prefixes...)
		return nil
	}
}

// MaxChainLength sets the maximum number of entries accepted in forwarded
// chains.
func MaxChainLength(max int) Option {
	return func(c *config) error {
		c.maxChainLength = max
		return nil
	}
}

// WithDenyResponse sets the status code and body Middleware writes on Deny.
func WithDenyResponse(status int, message string) Option {
	return func(c *config) error {
		c.denyStatus = status
		c.denyMessage = message
		return nil
	}
}

// WithLogger sets the logger used for grant, deny and security events.
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// LogGranted controls whether permitted requests are logged. Denials are
// always logged.
func LogGranted(enable bool) Option {
	return func(c *config) error {
		c.logGranted = enable
		return nil
	}
}

// WithObserver registers a hook that receives every decision of a
// configured Filter. Observers run in registration order.
func WithObserver(observer Observer) Option {
	return func(c *config) error {
		if observer == nil {
			return fmt.Errorf("observer cannot be nil")
		}
		c.observers = append(c.observers, observer)
		return nil
	}
}

// WithMetrics sets a concrete metrics implementation.
//
// If previously configured, a metrics factory is disabled.
func WithMetrics(metrics Metrics) Option {
	return func(c *config) error {
		c.metrics = metrics
		c.metricsFactory = nil
		c.useMetricsFactory = false
		return nil
	}
}

// WithMetricsFactory configures a lazy metrics constructor.
//
// The factory is invoked only for the final winning metrics option after
// option validation succeeds.
func WithMetricsFactory(factory func() (Metrics, error)) Option {
	return func(c *config) error {
		if factory == nil {
			return fmt.Errorf("metrics factory cannot be nil")
		}

		c.metricsFactory = factory
		c.useMetricsFactory = true
		return nil
	}
}
