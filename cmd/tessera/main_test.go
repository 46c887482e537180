package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const okScript = `name = "ok"
[[array]]
name = "xs"
kind = "known"
elem = "int"
values = [3, 4]
[[op]]
kind = "sum"
array = "xs"
expect = 7
`

const failingScript = `name = "bad"
[[array]]
name = "xs"
kind = "unknown"
elem = "int"
values = [3, 4]
[[op]]
kind = "load"
array = "xs"
index = 2
`

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCollectScripts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.toml"), okScript)
	writeFile(t, filepath.Join(root, "nested", "a.toml"), okScript)
	writeFile(t, filepath.Join(root, "tessera.toml"), "")
	writeFile(t, filepath.Join(root, "notes.txt"), "")

	files, err := collectScripts([]string{root, filepath.Join(root, "b.toml")})
	if err != nil {
		t.Fatalf("collectScripts: %v", err)
	}
	want := []string{filepath.Join(root, "b.toml"), filepath.Join(root, "nested", "a.toml")}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Fatalf("files = %v, want %v", files, want)
	}

	if _, err := collectScripts([]string{filepath.Join(root, "missing.toml")}); err == nil {
		t.Fatalf("expected error for a missing script")
	}
	if _, err := collectScripts([]string{filepath.Join(root, "nested", "..", "nested", "a.toml"), t.TempDir()}); err != nil {
		t.Fatalf("a file plus an empty dir should be fine: %v", err)
	}
}

func TestParseSwitch(t *testing.T) {
	for in, want := range map[string]autoSwitch{"": switchAuto, "AUTO": switchAuto, "on": switchOn, " off ": switchOff} {
		got, err := parseSwitch("ui", in)
		if err != nil || got != want {
			t.Fatalf("parseSwitch(%q) = %d, %v", in, got, err)
		}
	}
	if _, err := parseSwitch("ui", "sometimes"); err == nil || !strings.Contains(err.Error(), "--ui") {
		t.Fatalf("err = %v", err)
	}
	asked := false
	detect := func() bool { asked = true; return true }
	if switchOff.resolve(detect) || asked {
		t.Fatalf("off must not detect")
	}
	if !switchAuto.resolve(detect) || !asked {
		t.Fatalf("auto must detect")
	}
	if useProgressUI(switchAuto, 1) {
		t.Fatalf("a single script never gets the progress UI on auto")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "tessera.toml")
	writeFile(t, cfgPath, "[codegen]\nregion = \"assist\"\n")
	okPath := filepath.Join(root, "ok.toml")
	badPath := filepath.Join(root, "bad.toml")
	writeFile(t, okPath, okScript)
	writeFile(t, badPath, failingScript)

	out, err := execute(t, "run", "--config", cfgPath, "--color", "off", "--no-cache", "--ui", "off", "-v", okPath)
	if err != nil {
		t.Fatalf("run ok: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok   "+okPath) || !strings.Contains(out, "op[0] sum") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = execute(t, "run", "--config", cfgPath, "--color", "off", "--no-cache", "--ui", "off", okPath, badPath)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 scripts failed") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, "FAIL "+badPath) || !strings.Contains(out, "VM1004") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestEmitCommandWritesFiles(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "tessera.toml")
	writeFile(t, cfgPath, "")
	script := filepath.Join(root, "ok.toml")
	writeFile(t, script, okScript)
	outDir := filepath.Join(root, "ir")

	out, err := execute(t, "emit", "--config", cfgPath, "--color", "off", "--no-cache", "--region", "unsafe", "-o", outDir, script)
	if err != nil {
		t.Fatalf("emit: %v\n%s", err, out)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "ok.ll"))
	if err != nil {
		t.Fatalf("read ir: %v", err)
	}
	if !strings.Contains(string(data), "define void @main(") {
		t.Fatalf("ir:\n%s", data)
	}
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json", "--color", "off")
	if err != nil {
		t.Fatalf("version: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"tool": "tessera"`) || !strings.Contains(out, `"go_version": "go`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "git_message") {
		t.Fatalf("short output must not carry commit details:\n%s", out)
	}
}
