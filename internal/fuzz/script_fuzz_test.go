package fuzztests

import (
	"testing"

	"tessera/internal/script"
)

func FuzzScriptParse(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		s, err := script.Parse("fuzz.toml", clampInput(input))
		if err != nil {
			return
		}
		for i, op := range s.Ops {
			if _, ok := s.Array(op.Array); !ok {
				t.Fatalf("op[%d] refers to undeclared array %q", i, op.Array)
			}
		}
		if s.Region != "" {
			if _, ok := s.RegionID(); !ok {
				t.Fatalf("accepted unknown region %q", s.Region)
			}
		}
	})
}
