package ipfilter

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"go4.org/netipx"
)

// MatchKind selects how configuration entries are interpreted.
type MatchKind int

const (
	// MatchExact treats every entry as a single address.
	MatchExact MatchKind = iota + 1
	// MatchCIDR treats every entry as an address/prefix-length block.
	MatchCIDR
	// MatchRange treats every entry as an inclusive low/high pair. Single
	// addresses are accepted and match exactly.
	MatchRange
)

// String returns the canonical text representation of k.
func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchCIDR:
		return "cidr"
	case MatchRange:
		return "range"
	default:
		return "unknown"
	}
}

// valid reports whether k is a supported match kind.
func (k MatchKind) valid() bool {
	return k == MatchExact || k == MatchCIDR || k == MatchRange
}

// ParseMatchKind parses "exact" (alias "plain"), "cidr" or "range".
func ParseMatchKind(s string) (MatchKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact", "plain", "":
		return MatchExact, nil
	case "cidr":
		return MatchCIDR, nil
	case "range", "ranges":
		return MatchRange, nil
	default:
		return 0, fmt.Errorf("unknown match kind %q (expected exact, cidr or range)", s)
	}
}

// Entry is one raw configuration value: a single address, CIDR block or
// "low-high" string, or a two-element low/high pair.
type Entry []string

// Pair builds a low/high range entry.
func Pair(low, high string) Entry {
	return Entry{low, high}
}

// Entries wraps each value as a single-element Entry.
func Entries(values ...string) []Entry {
	entries := make([]Entry, 0, len(values))
	for _, v := range values {
		entries = append(entries, Entry{v})
	}
	return entries
}

// String returns a quoted representation of e for error messages.
func (e Entry) String() string {
	quoted := make([]string, len(e))
	for i, v := range e {
		quoted[i] = strconv.Quote(v)
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Rule is one compiled rule set entry: an exact address, a CIDR block or an
// inclusive address range.
type Rule struct {
	kind    MatchKind
	addr    netip.Addr
	prefix  netip.Prefix
	ipRange netipx.IPRange
}

// ExactRule returns a rule matching ip only.
func ExactRule(ip netip.Addr) Rule {
	return Rule{kind: MatchExact, addr: normalizeIP(ip)}
}

// Kind returns the variant of r.
func (r Rule) Kind() MatchKind {
	return r.kind
}

// String returns the textual form of r: "a", "a/n" or "a-b".
func (r Rule) String() string {
	switch r.kind {
	case MatchExact:
		return r.addr.String()
	case MatchCIDR:
		return r.prefix.String()
	case MatchRange:
		return r.ipRange.String()
	default:
		return ""
	}
}

// Contains reports whether ip is covered by r. Addresses are compared in
// their normalized form and never match across families.
func (r Rule) Contains(ip netip.Addr) bool {
	ip = normalizeIP(ip)
	switch r.kind {
	case MatchExact:
		return ip.IsValid() && r.addr == ip
	case MatchCIDR:
		return r.prefix.Contains(ip)
	case MatchRange:
		return r.ipRange.Contains(ip)
	default:
		return false
	}
}

// RuleSet is an immutable, ordered list of compiled rules. It is safe for
// concurrent use.
type RuleSet struct {
	kind  MatchKind
	rules []Rule
}

// NewRuleSet compiles entries under kind. The returned error is an
// *InvalidRuleError for the first entry that cannot be parsed.
func NewRuleSet(kind MatchKind, entries ...Entry) (*RuleSet, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("invalid match kind %d (must be MatchExact=1, MatchCIDR=2 or MatchRange=3)", kind)
	}

	rules := make([]Rule, 0, len(entries))
	for i, entry := range entries {
		rule, err := compileEntry(kind, entry)
		if err != nil {
			return nil, &InvalidRuleError{
				Err:   err,
				Index: i,
				Entry: cloneEntry(entry),
				Kind:  kind,
			}
		}
		rules = append(rules, rule)
	}

	return &RuleSet{kind: kind, rules: rules}, nil
}

// Kind returns the match kind the set was compiled with.
func (s *RuleSet) Kind() MatchKind {
	if s == nil {
		return 0
	}
	return s.kind
}

// Len returns the number of rules. A nil set has no rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Rules returns a copy of the compiled rules in configuration order.
func (s *RuleSet) Rules() []Rule {
	if s == nil {
		return nil
	}
	rules := make([]Rule, len(s.rules))
	copy(rules, s.rules)
	return rules
}

// Match returns the first rule containing ip.
func (s *RuleSet) Match(ip netip.Addr) (Rule, bool) {
	if s == nil || !ip.IsValid() {
		return Rule{}, false
	}

	ip = normalizeIP(ip)
	for _, rule := range s.rules {
		if rule.Contains(ip) {
			return rule, true
		}
	}

	return Rule{}, false
}

// Matches reports whether addr is covered by at least one rule.
func Matches(addr Address, rules *RuleSet) bool {
	_, ok := rules.Match(addr.IP)
	return ok
}

func compileEntry(kind MatchKind, entry Entry) (Rule, error) {
	if kind == MatchRange {
		return compileRangeEntry(entry)
	}

	if len(entry) != 1 {
		return Rule{}, fmt.Errorf("%s entries take exactly one value, got %d", kind, len(entry))
	}

	if kind == MatchCIDR {
		return parseCIDRRule(entry[0])
	}
	return parseExactRule(entry[0])
}

func compileRangeEntry(entry Entry) (Rule, error) {
	switch len(entry) {
	case 1:
		if low, high, ok := strings.Cut(entry[0], "-"); ok {
			return parseRangeRule(low, high)
		}
		return parseExactRule(entry[0])
	case 2:
		low, high := strings.TrimSpace(entry[0]), strings.TrimSpace(entry[1])
		switch {
		case low == "" && high == "":
			return Rule{}, errors.New("empty range")
		case high == "":
			return parseExactRule(low)
		case low == "":
			return parseExactRule(high)
		}
		return parseRangeRule(low, high)
	default:
		return Rule{}, fmt.Errorf("range entries take one or two values, got %d", len(entry))
	}
}

func parseRuleAddr(s string) (netip.Addr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, errors.New("empty address")
	}

	ip, err := netip.ParseAddr(trimMatchedPair(s, '[', ']'))
	if err != nil {
		return netip.Addr{}, err
	}
	return normalizeIP(ip), nil
}

func parseExactRule(s string) (Rule, error) {
	ip, err := parseRuleAddr(s)
	if err != nil {
		return Rule{}, err
	}
	return Rule{kind: MatchExact, addr: ip}, nil
}

func parseCIDRRule(s string) (Rule, error) {
	prefix, err := netip.ParsePrefix(strings.TrimSpace(s))
	if err != nil {
		return Rule{}, err
	}

	if addr := prefix.Addr(); addr.Is4In6() {
		if prefix.Bits() < 96 {
			return Rule{}, fmt.Errorf("IPv4-mapped prefix %s is shorter than /96", prefix)
		}
		prefix = netip.PrefixFrom(addr.Unmap(), prefix.Bits()-96)
	}

	return Rule{kind: MatchCIDR, prefix: prefix.Masked()}, nil
}

func parseRangeRule(lowText, highText string) (Rule, error) {
	low, err := parseRuleAddr(lowText)
	if err != nil {
		return Rule{}, fmt.Errorf("low bound: %w", err)
	}
	high, err := parseRuleAddr(highText)
	if err != nil {
		return Rule{}, fmt.Errorf("high bound: %w", err)
	}

	if low == high {
		return Rule{kind: MatchExact, addr: low}, nil
	}

	ipRange := netipx.IPRangeFrom(low, high)
	if !ipRange.IsValid() {
		if low.BitLen() != high.BitLen() {
			return Rule{}, fmt.Errorf("range bounds %s and %s are different address families", low, high)
		}
		return Rule{}, fmt.Errorf("range low bound %s is above high bound %s", low, high)
	}

	return Rule{kind: MatchRange, ipRange: ipRange}, nil
}

func cloneEntry(entry Entry) Entry {
	if entry == nil {
		return nil
	}
	cloned := make(Entry, len(entry))
	copy(cloned, entry)
	return cloned
}
