package display

import "testing"

func TestPrimaryKind(t *testing.T) {
	cases := []struct {
		code, want string
	}{
		{"timeout", "Timed out"},
		{"session-lost", "Browser session lost"},
		{"service-error", "INDIGO reported an error"},
		{"verify-failed", "Upload not confirmed"},
		{"unknown", "unknown"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := PrimaryKind(tc.code); got != tc.want {
			t.Errorf("PrimaryKind(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestFallbackKind(t *testing.T) {
	cases := []struct {
		code, want string
	}{
		{"unavailable", "ICE not installed"},
		{"not-in-reference", "Target not in wildtype"},
		{"parse", "Unreadable ICE result"},
		{"bogus", "bogus"},
	}
	for _, tc := range cases {
		if got := FallbackKind(tc.code); got != tc.want {
			t.Errorf("FallbackKind(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestWithCode(t *testing.T) {
	if got := WithCode(PrimaryKind("timeout"), "timeout"); got != "Timed out (timeout)" {
		t.Errorf("got %q", got)
	}
	if got := WithCode(PrimaryKind("zz"), "zz"); got != "zz" {
		t.Errorf("got %q", got)
	}
}

func TestStatePath(t *testing.T) {
	got := StatePath([]string{"not-started", "primary-attempted", "primary-retried", "succeeded"})
	want := "Queued → INDIGO → INDIGO (restarted browser) → Done"
	if got != want {
		t.Errorf("StatePath = %q, want %q", got, want)
	}
	if got := StatePath(nil); got != "" {
		t.Errorf("empty path = %q", got)
	}
}
