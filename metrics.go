package ipfilter

// Metrics records evaluation outcomes and security events emitted by Filter.
//
// Implementations should be safe for concurrent use, as a single Filter
// instance is typically shared across many goroutines.
type Metrics interface {
	// RecordDecision is called once per evaluated request with the verdict
	// ("permit" or "deny") and one of the Reason* constants.
	RecordDecision(verdict, reason string)
	// RecordInvalidAddress is called when the address taken from source
	// cannot be normalized.
	RecordInvalidAddress(source string)
	// RecordSecurityEvent is called when the filter observes a
	// security-relevant condition.
	RecordSecurityEvent(event string)
}

// noopMetrics is the default Metrics implementation when metrics are not
// explicitly configured.
type noopMetrics struct{}

func (noopMetrics) RecordDecision(string, string) {}

func (noopMetrics) RecordInvalidAddress(string) {}

func (noopMetrics) RecordSecurityEvent(string) {}
