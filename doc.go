// Package ipfilter decides whether to permit or reject a request based on its
// client IP address, using allow- or deny-lists of addresses, CIDR blocks or
// address ranges.
//
// # Features
//
//   - One rule model for exact addresses, CIDR blocks and inclusive ranges
//   - Allow-list and deny-list modes with a private-address carve-out
//   - IPv4-mapped IPv6 input matches IPv4 rules and vice versa
//   - Client address from X-Forwarded-For (default), Forwarded, X-Real-IP,
//     a custom header, or the transport peer address
//   - Optional trusted proxy ranges gating the header sources
//   - Fail-closed: an unparsable client address is denied, never propagated
//   - Rules compiled once; a filter without rules costs nothing per request
//   - Optional observability with context-aware logging, pluggable metrics and
//     decision observers
//
// # Basic Usage
//
// Deny a set of addresses:
//
//	filter, err := ipfilter.New(ipfilter.DenyList("203.0.113.7", "198.51.100.1"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	d := filter.Evaluate(r.Header.Get("X-Forwarded-For"), r.RemoteAddr)
//	if !d.Permitted() {
//	    http.Error(w, "Unauthorized", http.StatusUnauthorized)
//	    return
//	}
//
// Or let the filter guard a handler:
//
//	http.Handle("/", filter.Middleware(app))
//
// # Match Kinds
//
// Entries are compiled under one match kind:
//
//	ipfilter.New(
//	    ipfilter.WithMode(ipfilter.ModeAllow),
//	    ipfilter.WithCIDRs("10.0.0.0/8", "2001:db8::/32"),
//	)
//
//	ipfilter.New(
//	    ipfilter.WithMode(ipfilter.ModeAllow),
//	    ipfilter.WithRanges(
//	        ipfilter.Pair("192.168.1.10", "192.168.1.20"),
//	        ipfilter.Entry{"10.0.0.1-10.0.0.9"},
//	        ipfilter.Entry{"127.0.0.1"}, // single address: exact match
//	    ),
//	)
//
// A malformed entry makes New fail with an error wrapping ErrInvalidRule.
//
// # Decision Precedence
//
// In allow mode a request is permitted when its address matches a rule, or
// when AllowPrivate(true) is set and the address is private (RFC 1918 or
// fc00::/7). In deny mode a matching address is always denied, even when it
// is private and AllowPrivate(true) is set; an unmatched address is permitted
// unless it is private and AllowPrivate is false. Loopback addresses get no
// special treatment. Decide exposes the precedence as a pure function.
//
// # Behind Reverse Proxy
//
// By default the leftmost X-Forwarded-For entry is used, falling back to the
// peer address. Anyone can send that header, so when the application is
// reachable without a proxy, restrict which peers may supply it:
//
//	cidrs, _ := ipfilter.ParseCIDRs("10.0.0.0/8")
//	filter, _ := ipfilter.New(
//	    ipfilter.DenyList("203.0.113.7"),
//	    ipfilter.TrustProxyPrefixes(cidrs...),
//	)
//
// # Observability
//
// The logger receives the request context, allowing trace/span IDs to flow
// through. *slog.Logger satisfies Logger. Prometheus metrics are provided by
// github.com/abczzz13/ipfilter/prometheus.
//
//	filter, _ := ipfilter.New(
//	    ipfilter.DenyList("203.0.113.7"),
//	    ipfilter.WithLogger(slog.Default()),
//	    ipfilterprom.WithMetrics(),
//	    ipfilter.WithObserver(func(ctx context.Context, d ipfilter.Decision) {
//	        audit.Record(ctx, d.Addr.String(), d.Verdict.String())
//	    }),
//	)
//
// # Thread Safety
//
// Filter instances are immutable and safe for concurrent use. Use a Switch
// to replace the active Filter at runtime without locking.
package ipfilter
