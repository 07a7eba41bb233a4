package ipfilter

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

var (
	// ErrInvalidAddress reports a client address that is neither IPv4 nor IPv6.
	ErrInvalidAddress = errors.New("invalid client address")

	// ErrInvalidRule reports a configuration entry that cannot be parsed under
	// the selected match kind.
	ErrInvalidRule = errors.New("invalid rule")

	ErrChainTooLong = errors.New("forwarded chain too long")

	ErrInvalidForwardedHeader = errors.New("invalid Forwarded header")
)

// SourceError ties an error to the address source it came from.
type SourceError struct {
	Err    error
	Source string
}

func (e *SourceError) Error() string {
	if e.Source == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) SourceName() string {
	return e.Source
}

// InvalidAddressError is returned when a raw client address cannot be
// normalized.
type InvalidAddressError struct {
	Err    error
	Source string
	Raw    string
}

func (e *InvalidAddressError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%v (raw=%q)", e.Err, e.Raw)
	}
	return fmt.Sprintf("%s: %v (raw=%q)", e.Source, e.Err, e.Raw)
}

func (e *InvalidAddressError) Unwrap() error {
	return e.Err
}

func (e *InvalidAddressError) SourceName() string {
	return e.Source
}

type ChainTooLongError struct {
	SourceError
	ChainLength int
	MaxLength   int
}

func (e *ChainTooLongError) Error() string {
	return fmt.Sprintf("%s: %v (chain_length=%d, max_length=%d)",
		e.Source, e.Err, e.ChainLength, e.MaxLength)
}

// InvalidRuleError describes the configuration entry that failed to parse.
type InvalidRuleError struct {
	Err   error
	Index int
	Entry Entry
	Kind  MatchKind
}

func (e *InvalidRuleError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: entry %d %s under %s matching", ErrInvalidRule, e.Index, e.Entry, e.Kind)
	}
	return fmt.Sprintf("%v: entry %d %s under %s matching: %v", ErrInvalidRule, e.Index, e.Entry, e.Kind, e.Err)
}

func (e *InvalidRuleError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidRule}
	}
	return []error{ErrInvalidRule, e.Err}
}

// ParseCIDRs parses CIDR strings, typically for TrustProxyPrefixes.
func ParseCIDRs(cidrs ...string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, nil
}

// NormalizeSourceName maps a header name onto the source naming scheme used
// in decisions, logs and metrics labels.
func NormalizeSourceName(headerName string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(headerName), "-", "_"))
}
