package ipfilter

import (
	"fmt"
	"strings"
)

// Mode determines whether presence in the rule set grants or revokes access.
type Mode int

const (
	// Start at 1 so a zero Mode is detectably unset.
	//
	// ModeAllow permits listed addresses and denies everything else.
	ModeAllow Mode = iota + 1
	// ModeDeny denies listed addresses and permits everything else.
	ModeDeny
)

// String returns the canonical text representation of m.
func (m Mode) String() string {
	switch m {
	case ModeAllow:
		return "allow"
	case ModeDeny:
		return "deny"
	default:
		return "unknown"
	}
}

// valid reports whether m is a supported mode.
func (m Mode) valid() bool {
	return m == ModeAllow || m == ModeDeny
}

// ParseMode parses "allow" or "deny". The list-style aliases "whitelist" and
// "blacklist" are accepted too.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow", "whitelist", "allowlist":
		return ModeAllow, nil
	case "deny", "blacklist", "denylist", "":
		return ModeDeny, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (expected allow or deny)", s)
	}
}

// Verdict is the outcome of an evaluation.
type Verdict int

const (
	Permit Verdict = iota + 1
	Deny
)

// String returns the canonical text representation of v.
func (v Verdict) String() string {
	switch v {
	case Permit:
		return "permit"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating one request.
type Decision struct {
	Verdict Verdict

	// Addr is the normalized client address. It is the zero Address when the
	// filter is unconfigured or the input could not be parsed.
	Addr Address

	// Source names where the address came from, such as "x_forwarded_for"
	// or "remote_addr".
	Source string

	// Reason is one of the Reason* constants.
	Reason string

	// Matched reports whether a rule covered Addr. Rule holds that rule.
	Matched bool
	Rule    Rule

	// Err holds the ErrInvalidAddress or ErrChainTooLong cause of a
	// fail-closed denial.
	Err error
}

// Permitted reports whether the request may proceed.
func (d Decision) Permitted() bool {
	return d.Verdict == Permit
}

// Decide applies mode and the private-address carve-out to a match result.
//
// Precedence:
//   - ModeAllow: permit when matched, or when allowPrivate is set and addr is
//     private.
//   - ModeDeny: a matched address is always denied, private or not. An
//     unmatched address is permitted unless it is private and allowPrivate is
//     unset.
//
// Loopback addresses get no special treatment. Decide has no side effects.
func Decide(addr Address, matched bool, mode Mode, allowPrivate bool) Decision {
	d := Decision{Addr: addr, Matched: matched}

	switch mode {
	case ModeAllow:
		switch {
		case matched:
			d.Verdict, d.Reason = Permit, ReasonAllowListed
		case allowPrivate && addr.Private:
			d.Verdict, d.Reason = Permit, ReasonPrivateAllowed
		default:
			d.Verdict, d.Reason = Deny, ReasonNotAllowListed
		}
	case ModeDeny:
		switch {
		case matched:
			d.Verdict, d.Reason = Deny, ReasonDenyListed
		case addr.Private && !allowPrivate:
			d.Verdict, d.Reason = Deny, ReasonPrivateDenied
		default:
			d.Verdict, d.Reason = Permit, ReasonNotDenyListed
		}
	default:
		d.Verdict, d.Reason = Deny, ReasonUnknownMode
	}

	return d
}
