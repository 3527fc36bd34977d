// ABOUTME: Tests for version constants
// ABOUTME: Checks the product identity and the release version format
package version

import (
	"regexp"
	"testing"
)

func TestProduct(t *testing.T) {
	if Product != "glc" {
		t.Errorf("expected product glc, got %q", Product)
	}
	if Manufacturer != "Resonate Protocol" {
		t.Errorf("expected manufacturer Resonate Protocol, got %q", Manufacturer)
	}
}

func TestVersionIsSemantic(t *testing.T) {
	semver := regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)
	if !semver.MatchString(Version) {
		t.Errorf("version %q is not MAJOR.MINOR.PATCH", Version)
	}
}

func TestVersionLine(t *testing.T) {
	// Matches what -version prints
	if got := Product + " " + Version; got != "glc 0.1.0" {
		t.Errorf("unexpected version line %q", got)
	}
}
