package ipfilter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecide(t *testing.T) {
	public := MustNormalize("203.0.113.7")
	private := MustNormalize("10.0.0.5")
	privateV6 := MustNormalize("fd00::5")
	loopback := MustNormalize("127.0.0.1")

	tests := []struct {
		name         string
		addr         Address
		matched      bool
		mode         Mode
		allowPrivate bool
		wantVerdict  Verdict
		wantReason   string
	}{
		{name: "allow matched", addr: public, matched: true, mode: ModeAllow, wantVerdict: Permit, wantReason: ReasonAllowListed},
		{name: "allow unmatched", addr: public, mode: ModeAllow, wantVerdict: Deny, wantReason: ReasonNotAllowListed},
		{name: "allow unmatched private without carve-out", addr: private, mode: ModeAllow, wantVerdict: Deny, wantReason: ReasonNotAllowListed},
		{name: "allow unmatched private with carve-out", addr: private, mode: ModeAllow, allowPrivate: true, wantVerdict: Permit, wantReason: ReasonPrivateAllowed},
		{name: "allow unmatched unique-local with carve-out", addr: privateV6, mode: ModeAllow, allowPrivate: true, wantVerdict: Permit, wantReason: ReasonPrivateAllowed},
		{name: "allow matched private reports listing", addr: private, matched: true, mode: ModeAllow, allowPrivate: true, wantVerdict: Permit, wantReason: ReasonAllowListed},
		{name: "allow unmatched public with carve-out", addr: public, mode: ModeAllow, allowPrivate: true, wantVerdict: Deny, wantReason: ReasonNotAllowListed},
		{name: "allow unmatched loopback is not private", addr: loopback, mode: ModeAllow, allowPrivate: true, wantVerdict: Deny, wantReason: ReasonNotAllowListed},
		{name: "deny matched", addr: public, matched: true, mode: ModeDeny, wantVerdict: Deny, wantReason: ReasonDenyListed},
		{name: "deny unmatched", addr: public, mode: ModeDeny, wantVerdict: Permit, wantReason: ReasonNotDenyListed},
		{name: "deny matched private with carve-out", addr: private, matched: true, mode: ModeDeny, allowPrivate: true, wantVerdict: Deny, wantReason: ReasonDenyListed},
		{name: "deny matched loopback", addr: loopback, matched: true, mode: ModeDeny, wantVerdict: Deny, wantReason: ReasonDenyListed},
		{name: "deny unmatched private without carve-out", addr: private, mode: ModeDeny, wantVerdict: Deny, wantReason: ReasonPrivateDenied},
		{name: "deny unmatched private with carve-out", addr: private, mode: ModeDeny, allowPrivate: true, wantVerdict: Permit, wantReason: ReasonNotDenyListed},
		{name: "deny unmatched loopback", addr: loopback, mode: ModeDeny, wantVerdict: Permit, wantReason: ReasonNotDenyListed},
		{name: "unknown mode", addr: public, mode: Mode(0), wantVerdict: Deny, wantReason: ReasonUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.addr, tt.matched, tt.mode, tt.allowPrivate)

			want := decisionState{
				Verdict: tt.wantVerdict,
				Reason:  tt.wantReason,
				Addr:    tt.addr.String(),
				Matched: tt.matched,
			}
			state := decisionStateOf(got)
			state.Rule = ""
			if diff := cmp.Diff(want, state); diff != "" {
				t.Fatalf("Decide() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecide_IsPure(t *testing.T) {
	addr := MustNormalize("10.0.0.5")

	first := Decide(addr, false, ModeDeny, false)
	second := Decide(addr, false, ModeDeny, false)

	if diff := cmp.Diff(decisionStateOf(first), decisionStateOf(second)); diff != "" {
		t.Fatalf("Decide() not repeatable (-first +second):\n%s", diff)
	}
}

func TestDecision_Permitted(t *testing.T) {
	if !(Decision{Verdict: Permit}).Permitted() {
		t.Fatal("Permit decision not permitted")
	}
	if (Decision{Verdict: Deny}).Permitted() {
		t.Fatal("Deny decision permitted")
	}
	if (Decision{}).Permitted() {
		t.Fatal("zero decision permitted")
	}
}
