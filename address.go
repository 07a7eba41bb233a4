package ipfilter

import (
	"net/netip"
)

// Family identifies the address family of a normalized Address.
type Family int

const (
	// FamilyIPv4 covers plain IPv4 and IPv4-mapped IPv6 input.
	FamilyIPv4 Family = iota + 1
	// FamilyIPv6 covers all other IPv6 input.
	FamilyIPv6
)

// String returns the canonical text representation of f.
func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// Address is a normalized client address.
//
// IP never holds an IPv4-mapped IPv6 value or a zone, so two textual forms of
// the same host compare equal with ==. IP.Compare gives the numeric ordering
// used by range rules.
type Address struct {
	IP     netip.Addr
	Family Family

	// Private reports RFC 1918 (IPv4) or unique-local fc00::/7 (IPv6) space.
	Private bool
	// Loopback reports 127.0.0.0/8 or ::1. Loopback is not Private.
	Loopback bool
}

// IsValid reports whether a holds a parsed address.
func (a Address) IsValid() bool {
	return a.IP.IsValid()
}

// String returns the textual form of the normalized address, or "" when
// the address is invalid.
func (a Address) String() string {
	if !a.IP.IsValid() {
		return ""
	}
	return a.IP.String()
}

// Normalize parses a raw client address.
//
// raw may be a transport peer address ("203.0.113.7:51234"), a bracketed or
// bare IPv6 literal, an IPv4-mapped IPv6 literal, or a forwarded-for chain, in
// which case only the leftmost entry is used. The error wraps
// ErrInvalidAddress when no IPv4 or IPv6 address can be parsed.
func Normalize(raw string) (Address, error) {
	ip := parseIP(firstChainEntry(raw))
	if !ip.IsValid() {
		return Address{}, &InvalidAddressError{Err: ErrInvalidAddress, Raw: raw}
	}

	return AddressFrom(ip), nil
}

// AddressFrom classifies an already parsed address.
//
// It returns the zero Address when ip is invalid.
func AddressFrom(ip netip.Addr) Address {
	if !ip.IsValid() {
		return Address{}
	}

	ip = normalizeIP(ip)

	family := FamilyIPv6
	if ip.Is4() {
		family = FamilyIPv4
	}

	return Address{
		IP:       ip,
		Family:   family,
		Private:  ip.IsPrivate(),
		Loopback: ip.IsLoopback(),
	}
}

// MustNormalize is like Normalize but panics on error. It is intended for
// tests and package-level initialization.
func MustNormalize(raw string) Address {
	addr, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return addr
}
