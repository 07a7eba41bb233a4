package ipfilter

import (
	"fmt"
	"net/http"
	"reflect"
)

func (c *config) validate() error {
	if !c.mode.valid() {
		return fmt.Errorf("invalid mode %d (must be ModeAllow=1 or ModeDeny=2)", c.mode)
	}
	if !c.matchKind.valid() {
		return fmt.Errorf("invalid match kind %d (must be MatchExact=1, MatchCIDR=2 or MatchRange=3)", c.matchKind)
	}
	if c.source == "" {
		return fmt.Errorf("source cannot be empty")
	}
	if c.maxChainLength <= 0 {
		return fmt.Errorf("maxChainLength must be > 0, got %d", c.maxChainLength)
	}
	if c.denyStatus < 400 || c.denyStatus > 599 {
		return fmt.Errorf("deny status must be a 4xx or 5xx code, got %d", c.denyStatus)
	}
	if http.StatusText(c.denyStatus) == "" {
		return fmt.Errorf("deny status %d is not a known HTTP status", c.denyStatus)
	}
	if c.source == SourceRemoteAddr && len(c.trustedProxyCIDRs) > 0 {
		return fmt.Errorf("trusted proxies have no effect with source %q; choose a header source or drop the trusted proxy options", SourceRemoteAddr)
	}

	if isNilLogger(c.logger) {
		return fmt.Errorf("logger cannot be nil")
	}
	if isNilMetrics(c.metrics) {
		return fmt.Errorf("metrics cannot be nil")
	}
	return nil
}

func isNilLogger(logger Logger) bool {
	return isNilInterface(logger)
}

func isNilMetrics(metrics Metrics) bool {
	return isNilInterface(metrics)
}

func isNilInterface(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
