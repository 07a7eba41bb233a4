package ipfilter

import (
	"context"
	"fmt"
	"net/http"
)

// Filter evaluates client addresses against a compiled rule set.
//
// Filter instances are immutable after New and safe for concurrent use. To
// change rules at runtime, build a new Filter and swap it in with a Switch.
type Filter struct {
	config *config
}

// New creates a Filter from one or more Option builders.
//
// Rule entries are compiled here; a malformed entry is reported as an error
// wrapping ErrInvalidRule and no Filter is returned.
func New(opts ...Option) (*Filter, error) {
	cfg, err := configFromOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Filter{config: cfg}, nil
}

// Enabled reports whether the filter has any rules. A filter without rules
// permits every request without inspecting it.
func (f *Filter) Enabled() bool {
	return f.config.rules.Len() > 0
}

// Mode returns the configured mode.
func (f *Filter) Mode() Mode {
	return f.config.mode
}

// Rules returns the compiled rule set.
func (f *Filter) Rules() *RuleSet {
	return f.config.rules
}

// Evaluate decides a request from the raw value of the configured source
// header (the X-Forwarded-For value by default, "" when absent) and the
// transport peer address.
func (f *Filter) Evaluate(headerValue, peerAddr string) Decision {
	if !f.Enabled() {
		return unconfiguredDecision()
	}

	req := request{
		ctx:        context.Background(),
		remoteAddr: peerAddr,
	}
	if headerValue != "" {
		req.header = []string{headerValue}
	}

	return f.evaluate(req)
}

// EvaluateFrom decides a request described by framework-agnostic input.
func (f *Filter) EvaluateFrom(input RequestInput) Decision {
	if !f.Enabled() {
		return unconfiguredDecision()
	}

	return f.evaluate(request{
		ctx:        requestInputContext(input),
		path:       input.Path,
		remoteAddr: input.RemoteAddr,
		header:     inputHeaderValues(input.Headers, f.config.sourceHeader),
	})
}

// EvaluateRequest decides an HTTP request.
func (f *Filter) EvaluateRequest(r *http.Request) Decision {
	if !f.Enabled() {
		return unconfiguredDecision()
	}

	return f.EvaluateFrom(requestInputFromHTTP(r))
}

func unconfiguredDecision() Decision {
	return Decision{Verdict: Permit, Reason: ReasonUnconfigured}
}

func (f *Filter) evaluate(req request) Decision {
	cfg := f.config

	raw, source, err := f.clientCandidate(req)
	if err != nil {
		return f.failClosed(req, source, raw, err)
	}

	addr, err := Normalize(raw)
	if err != nil {
		return f.failClosed(req, source, raw, &InvalidAddressError{
			Err:    ErrInvalidAddress,
			Source: source,
			Raw:    raw,
		})
	}

	rule, matched := cfg.rules.Match(addr.IP)

	d := Decide(addr, matched, cfg.mode, cfg.allowPrivate)
	d.Source = source
	d.Rule = rule

	f.logDecision(req, d)
	f.notify(req.ctx, d)

	return d
}

// failClosed turns an unusable client address into a Deny decision.
func (f *Filter) failClosed(req request, source, raw string, err error) Decision {
	cfg := f.config
	event, reason := candidateFailure(err)

	cfg.metrics.RecordSecurityEvent(event)
	cfg.metrics.RecordInvalidAddress(source)
	f.logSecurityWarning(req, source, event, "access denied: unusable client address",
		"raw", raw,
		"error", err.Error(),
	)

	d := Decision{
		Verdict: Deny,
		Source:  source,
		Reason:  reason,
		Err:     err,
	}
	f.notify(req.ctx, d)

	return d
}

func (f *Filter) logDecision(req request, d Decision) {
	cfg := f.config
	if d.Permitted() && !cfg.logGranted {
		return
	}

	attrs := []any{
		"client_ip", d.Addr.String(),
		"source", d.Source,
		"reason", d.Reason,
		"mode", cfg.mode.String(),
		"path", req.path,
		"remote_addr", req.remoteAddr,
	}
	if d.Matched {
		attrs = append(attrs, "rule", d.Rule.String())
	}

	if d.Permitted() {
		cfg.logger.InfoContext(req.ctx, "access granted", attrs...)
		return
	}
	cfg.logger.WarnContext(req.ctx, "access denied", attrs...)
}

func (f *Filter) notify(ctx context.Context, d Decision) {
	cfg := f.config
	cfg.metrics.RecordDecision(d.Verdict.String(), d.Reason)
	for _, observe := range cfg.observers {
		observe(ctx, d)
	}
}
