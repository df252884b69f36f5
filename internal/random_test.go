package internal

import "testing"

func TestSessionIDRoundTrip(t *testing.T) {
	sid, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID error: %v", err)
	}
	parsed, err := ParseSessionID(sid.String())
	if err != nil {
		t.Fatalf("ParseSessionID error: %v", err)
	}
	if parsed != sid {
		t.Fatal("round trip mismatch")
	}
}

// FuzzParseSessionID checks that arbitrary cookie values never panic.
func FuzzParseSessionID(f *testing.F) {
	f.Add("")
	f.Add("abc")
	f.Add("AAAAAAAAAAAAAAAAAAAAAA")
	f.Add("!!!!")

	f.Fuzz(func(t *testing.T, s string) {
		sid, err := ParseSessionID(s)
		if err == nil && sid.String() != s {
			t.Fatalf("accepted non-canonical id %q", s)
		}
	})
}
