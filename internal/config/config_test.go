package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tessera/internal/region"
	"tessera/internal/trace"
)

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := Resolve("", t.TempDir())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Path != "" || cfg.Region() != region.Resilient || !cfg.Codegen.StructuralChecks {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFromParent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, `
[codegen]
region = "assist"
flares = true

[trace]
level = "debug"
mode = "ring"
heartbeat = "250ms"
`)
	sub := filepath.Join(root, "scripts", "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg, err := Resolve("", sub)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Region() != region.Assist || !cfg.Codegen.Flares {
		t.Fatalf("codegen table not applied: %+v", cfg.Codegen)
	}
	if !cfg.Codegen.StructuralChecks {
		t.Fatalf("unset keys must keep their defaults")
	}
	tc, err := cfg.TracerConfig()
	if err != nil {
		t.Fatalf("tracer config: %v", err)
	}
	if tc.Level != trace.LevelDebug || tc.Mode != trace.ModeRing || tc.Heartbeat.Milliseconds() != 250 {
		t.Fatalf("unexpected tracer config %+v", tc)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := writeFile(t, t.TempDir(), `
[codegen]
region = "naive"

[vm]
max_steps = -1

[trace]
level = "loud"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"[codegen].region", "[vm].max_steps", "[trace].level", path} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}
