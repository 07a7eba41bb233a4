package ipfilter

import (
	"net/http"
	"net/netip"
	"net/url"
	"testing"
)

type decisionState struct {
	Verdict Verdict
	Reason  string
	Addr    string
	Source  string
	Matched bool
	Rule    string
	HasErr  bool
}

func decisionStateOf(d Decision) decisionState {
	state := decisionState{
		Verdict: d.Verdict,
		Reason:  d.Reason,
		Addr:    d.Addr.String(),
		Source:  d.Source,
		Matched: d.Matched,
		HasErr:  d.Err != nil,
	}
	if d.Matched {
		state.Rule = d.Rule.String()
	}
	return state
}

func mustNewFilter(t testing.TB, opts ...Option) *Filter {
	t.Helper()

	filter, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return filter
}

func mustParseCIDRs(t *testing.T, cidrs ...string) []netip.Prefix {
	t.Helper()

	prefixes, err := ParseCIDRs(cidrs...)
	if err != nil {
		t.Fatalf("ParseCIDRs() error = %v", err)
	}

	return prefixes
}

func newTestRequest(remoteAddr, path string) *http.Request {
	req := &http.Request{
		RemoteAddr: remoteAddr,
		Header:     make(http.Header),
	}

	if path != "" {
		req.URL = &url.URL{Path: path}
	}

	return req
}
