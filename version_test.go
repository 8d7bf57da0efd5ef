package glimmer

import (
	"strings"
	"testing"
)

func TestVersionIsSemver(t *testing.T) {
	if !VersionIsSemver() {
		t.Fatalf("embedded VERSION %q is not valid SemVer", Version())
	}
}

func TestVersionTag(t *testing.T) {
	if got, want := VersionTag(), "v"+Version(); got != want {
		t.Fatalf("tag: got %q, want %q", got, want)
	}
	if strings.HasPrefix(Version(), "v") {
		t.Fatalf("Version() must not carry the v prefix: %q", Version())
	}
}
