package version

import "testing"

func TestString(t *testing.T) {
	want := "refubot dev (commit unknown, built unknown)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
