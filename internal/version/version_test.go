package version

import (
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	ov, oc, od := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() { Version, GitCommit, BuildDate = ov, oc, od })
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		v, commit, date string
		want            string
	}{
		{"0.1.0-dev", "", "", "strata 0.1.0-dev"},
		{"1.2.3", "1234567890abcdef", "", "strata 1.2.3 (1234567890ab)"},
		{"1.2.3", "abc", "2026-01-15", "strata 1.2.3 (abc) built 2026-01-15"},
	}
	for _, tc := range cases {
		withVersion(t, tc.v, tc.commit, tc.date)
		if got := Describe(false); got != tc.want {
			t.Errorf("Describe() = %q, want %q", got, tc.want)
		}
	}
}

func TestColoredWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	withVersion(t, "1.2.3-rc.1", "", "")
	if got := Colored(); got != "1.2.3-rc.1" {
		t.Fatalf("Colored() = %q", got)
	}
	withVersion(t, "weird", "", "")
	if got := Colored(); got != "weird" {
		t.Fatalf("Colored() = %q", got)
	}
}
