package ipfilter

import (
	"strings"
)

// firstForwardedFor returns the leftmost entry of an X-Forwarded-For chain.
//
// Repeated header lines are read in wire order, so the first line's first
// entry wins, as it would after a proxy folded the lines into one value. The
// whole chain counts against maxChainLength. An empty leftmost entry yields
// "" so that the caller falls back to the peer address.
func firstForwardedFor(values []string, maxChainLength int) (string, error) {
	total := 0
	first := ""
	seenFirst := false

	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}

		total += chainLength(v, maxChainLength)
		if total > maxChainLength {
			return "", &ChainTooLongError{
				SourceError: SourceError{
					Err:    ErrChainTooLong,
					Source: SourceXForwardedFor,
				},
				ChainLength: total,
				MaxLength:   maxChainLength,
			}
		}

		if !seenFirst {
			first = firstChainEntry(v)
			seenFirst = true
		}
	}

	return first, nil
}
