package ipfilter

import (
	"context"
	"errors"
	"net/textproto"
	"strings"
)

const (
	// SourceXForwardedFor resolves from the leftmost X-Forwarded-For entry.
	SourceXForwardedFor = "x_forwarded_for"
	// SourceForwarded resolves from the first RFC 7239 Forwarded for= value.
	SourceForwarded = "forwarded"
	// SourceXRealIP resolves from the X-Real-IP header.
	SourceXRealIP = "x_real_ip"
	// SourceRemoteAddr resolves from the transport peer address.
	SourceRemoteAddr = "remote_addr"
)

func canonicalSourceName(sourceName string) string {
	sourceName = strings.TrimSpace(sourceName)
	switch NormalizeSourceName(sourceName) {
	case SourceForwarded:
		return SourceForwarded
	case SourceXForwardedFor:
		return SourceXForwardedFor
	case SourceXRealIP:
		return SourceXRealIP
	case SourceRemoteAddr:
		return SourceRemoteAddr
	default:
		return sourceName
	}
}

func sourceHeaderKey(sourceName string) string {
	switch sourceName {
	case SourceForwarded:
		return "Forwarded"
	case SourceXForwardedFor:
		return "X-Forwarded-For"
	case SourceXRealIP:
		return "X-Real-IP"
	case SourceRemoteAddr, "":
		return ""
	default:
		return textproto.CanonicalMIMEHeaderKey(sourceName)
	}
}

// sourceLabel returns the name reported in decisions and metrics for the
// configured header source.
func (c *config) sourceLabel() string {
	switch c.source {
	case SourceForwarded, SourceXForwardedFor, SourceXRealIP, SourceRemoteAddr:
		return c.source
	default:
		return NormalizeSourceName(c.source)
	}
}

// request carries the per-call inputs of one evaluation.
type request struct {
	ctx        context.Context
	path       string
	remoteAddr string
	header     []string
}

// clientCandidate picks the raw client address for req and names where it
// came from. The header wins when present, non-empty and, if trusted proxies
// are configured, sent by one of them. Otherwise the peer address is used.
func (f *Filter) clientCandidate(req request) (raw, source string, err error) {
	cfg := f.config

	if cfg.sourceHeader == "" || !hasNonEmpty(req.header) {
		return req.remoteAddr, SourceRemoteAddr, nil
	}

	source = cfg.sourceLabel()

	if len(cfg.trustedProxyCIDRs) > 0 && !cfg.trustedProxyMatch.contains(normalizeIP(parseIP(req.remoteAddr))) {
		cfg.metrics.RecordSecurityEvent(securityEventUntrustedProxy)
		f.logSecurityWarning(req, source, securityEventUntrustedProxy,
			"ignoring client address header from untrusted proxy",
			"header", cfg.sourceHeader,
		)
		return req.remoteAddr, SourceRemoteAddr, nil
	}

	switch cfg.source {
	case SourceXForwardedFor:
		raw, err = firstForwardedFor(req.header, cfg.maxChainLength)
	case SourceForwarded:
		raw, err = firstForwarded(req.header, cfg.maxChainLength)
	default:
		raw = firstChainEntry(req.header[0])
	}
	if err != nil {
		return "", source, err
	}

	if raw == "" {
		return req.remoteAddr, SourceRemoteAddr, nil
	}

	return raw, source, nil
}

func (f *Filter) logSecurityWarning(req request, sourceName, event, msg string, attrs ...any) {
	baseAttrs := []any{
		"event", event,
		"source", sourceName,
		"path", req.path,
		"remote_addr", req.remoteAddr,
	}

	baseAttrs = append(baseAttrs, attrs...)
	f.config.logger.WarnContext(req.ctx, msg, baseAttrs...)
}

// candidateFailure maps a clientCandidate error onto the security event and
// decision reason it is reported under.
func candidateFailure(err error) (event, reason string) {
	switch {
	case errors.Is(err, ErrChainTooLong):
		return securityEventChainTooLong, ReasonChainTooLong
	case errors.Is(err, ErrInvalidForwardedHeader):
		return securityEventMalformedForwarded, ReasonInvalidAddress
	default:
		return securityEventInvalidAddress, ReasonInvalidAddress
	}
}

func hasNonEmpty(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
