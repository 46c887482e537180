package script

import (
	"strings"
	"testing"
)

const swapScript = `
name = "swap"

[[array]]
name = "xs"
kind = "known"
elem = "int"
values = [1, 2, 3]

[[op]]
kind = "swap"
array = "xs"
index = 1
value = 9
expect = 2

[[op]]
kind = "sum"
array = "xs"
`

func TestParse(t *testing.T) {
	s, err := Parse("swap.toml", []byte(swapScript))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Name != "swap" || len(s.Arrays) != 1 || len(s.Ops) != 2 {
		t.Fatalf("unexpected script %+v", s)
	}
	op := s.Ops[0]
	if op.Kind != OpSwap || *op.Index != 1 || *op.Value != 9 || *op.Expect != 2 {
		t.Fatalf("unexpected op %+v", op)
	}
	if s.Ops[1].Expect != nil {
		t.Fatalf("expect must stay unset when absent")
	}
	if _, ok := s.RegionID(); ok {
		t.Fatalf("no region override expected")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"missing name", `[[array]]
name = "a"
kind = "known"
elem = "int"
values = [1]`, "missing name"},
		{"bad kind", `name = "x"
[[array]]
name = "a"
kind = "sized"
elem = "int"
values = [1]`, "kind must be known or unknown"},
		{"unknown op", `name = "x"
[[op]]
kind = "pop"
array = "a"`, `unknown kind "pop"`},
		{"missing index", `name = "x"
[[array]]
name = "a"
kind = "unknown"
elem = "int"
[[op]]
kind = "load"
array = "a"`, "missing index"},
		{"bool range", `name = "x"
[[array]]
name = "a"
kind = "known"
elem = "bool"
values = [0, 2]`, "bool values must be 0 or 1"},
		{"unknown key", `name = "x"
colour = "red"`, "unknown keys: colour"},
		{"bad region", `name = "x"
region = "naive"`, "invalid region"},
		{"syntax", `name = `, "failed to parse TOML"},
	}
	for _, tc := range cases {
		_, err := Parse("bad.toml", []byte(tc.src))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.HasPrefix(err.Error(), "bad.toml: ") || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: got %q, want it to mention %q", tc.name, err, tc.want)
		}
	}
}

func TestParseEmptyKnownArray(t *testing.T) {
	src := `name = "empty"
[[array]]
name = "xs"
kind = "known"
elem = "int"
values = []
[[op]]
kind = "sum"
array = "xs"
expect = 0`
	s, err := Parse("empty.toml", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a, ok := s.Array("xs"); !ok || a.Kind != KnownSize || len(a.Values) != 0 {
		t.Fatalf("unexpected array %+v", s.Arrays)
	}
}
