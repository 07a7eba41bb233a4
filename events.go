package ipfilter

// Decision reasons. They are stable and safe to use as metric label values.
const (
	ReasonUnconfigured   = "unconfigured"
	ReasonAllowListed    = "allow_listed"
	ReasonNotAllowListed = "not_allow_listed"
	ReasonPrivateAllowed = "private_allowed"
	ReasonDenyListed     = "deny_listed"
	ReasonNotDenyListed  = "not_deny_listed"
	ReasonPrivateDenied  = "private_denied"
	ReasonInvalidAddress = "invalid_address"
	ReasonChainTooLong   = "chain_too_long"
	ReasonUnknownMode    = "unknown_mode"
)

const (
	securityEventUntrustedProxy     = "untrusted_proxy"
	securityEventChainTooLong       = "chain_too_long"
	securityEventMalformedForwarded = "malformed_forwarded"
	securityEventInvalidAddress     = "invalid_address"
)
