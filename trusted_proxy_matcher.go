package ipfilter

import "net/netip"

// trustedProxyMatcher answers "is this peer a trusted proxy" with a binary
// prefix trie per address family, so lookups cost at most one step per
// address bit no matter how many prefixes are configured.
type trustedProxyMatcher struct {
	v4 *prefixTrieNode
	v6 *prefixTrieNode
}

type prefixTrieNode struct {
	children [2]*prefixTrieNode
	terminal bool
}

// buildTrustedProxyMatcher expects prefixes already normalized by
// normalizeTrustedProxyPrefixes.
func buildTrustedProxyMatcher(prefixes []netip.Prefix) trustedProxyMatcher {
	var m trustedProxyMatcher

	for _, prefix := range prefixes {
		addr := prefix.Addr()
		if !prefix.IsValid() || !addr.IsValid() {
			continue
		}

		if addr.Is4() {
			if m.v4 == nil {
				m.v4 = &prefixTrieNode{}
			}
			bytes := addr.As4()
			m.v4.insert(bytes[:], prefix.Bits())
			continue
		}

		if m.v6 == nil {
			m.v6 = &prefixTrieNode{}
		}
		bytes := addr.As16()
		m.v6.insert(bytes[:], prefix.Bits())
	}

	return m
}

func (n *prefixTrieNode) insert(addr []byte, bits int) {
	node := n
	for i := 0; i < bits; i++ {
		bit := addrBit(addr, i)
		if node.children[bit] == nil {
			node.children[bit] = &prefixTrieNode{}
		}
		node = node.children[bit]
	}
	node.terminal = true
}

func (n *prefixTrieNode) contains(addr []byte) bool {
	node := n
	for i := 0; node != nil; i++ {
		if node.terminal {
			return true
		}
		if i == len(addr)*8 {
			return false
		}
		node = node.children[addrBit(addr, i)]
	}
	return false
}

// contains expects ip in normalized form (see normalizeIP).
func (m trustedProxyMatcher) contains(ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}

	if ip.Is4() {
		bytes := ip.As4()
		return m.v4.contains(bytes[:])
	}

	bytes := ip.As16()
	return m.v6.contains(bytes[:])
}

func addrBit(addr []byte, bitIndex int) int {
	return int(addr[bitIndex/8]>>(7-uint(bitIndex%8))) & 1
}
