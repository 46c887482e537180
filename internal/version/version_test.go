package version

import (
	"runtime/debug"
	"testing"

	"github.com/fatih/color"
)

func TestColored(t *testing.T) {
	origVersion, origNoColor := Version, color.NoColor
	defer func() {
		Version, color.NoColor = origVersion, origNoColor
	}()
	color.NoColor = true

	for _, v := range []string{"0.1.0-dev", "1.2.3", "1.0.0-beta.1", "nightly", "1.2"} {
		Version = v
		if got := Colored(); got != v {
			t.Fatalf("Colored() with %q = %q", v, got)
		}
	}

	color.NoColor = false
	Version = "1.2.3"
	if got := Colored(); got == "1.2.3" {
		t.Fatalf("Colored() should add escapes when color is on")
	}
}

func TestCurrentPrefersLinkedValues(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version, GitCommit = "  ", "abc123"
	info := Current()
	if info.Version != "dev" || info.GitCommit != "abc123" || info.GoVersion == "" {
		t.Fatalf("info = %+v", info)
	}
}

func TestFillFromVCS(t *testing.T) {
	info := Info{BuildDate: "2026-01-02T00:00:00Z"}
	info.fillFromVCS([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "deadbeef"},
		{Key: "vcs.time", Value: "2020-01-01T00:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	})
	if info.GitCommit != "deadbeef" || info.BuildDate != "2026-01-02T00:00:00Z" || !info.Modified {
		t.Fatalf("info = %+v", info)
	}
}
