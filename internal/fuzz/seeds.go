package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 16 << 10
	maxFuzzInput = 16 << 10
)

func addCorpusSeeds(f *testing.F) {
	addExampleSeeds(f)
	addInlineSeeds(f)
}

func addExampleSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "examples")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".toml" {
			return nil
		}
		// #nosec G304 -- path comes from repository examples walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func addInlineSeeds(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte("name = \"empty\"\n"))
	f.Add([]byte("name = \"e\"\n[[array]]\nname = \"xs\"\nkind = \"unknown\"\nelem = \"int\"\nvalues = []\n[[op]]\nkind = \"sum\"\narray = \"xs\"\n"))
	f.Add([]byte("name = \"neg\"\n[[array]]\nname = \"xs\"\nkind = \"known\"\nelem = \"int\"\nvalues = [1]\n[[op]]\nkind = \"load\"\narray = \"xs\"\nindex = -1\n"))
	f.Add([]byte("name = \"b\"\nregion = \"assist\"\n[[array]]\nname = \"bs\"\nkind = \"unknown\"\nelem = \"box\"\nvalues = [3, 4]\n[[op]]\nkind = \"init\"\narray = \"bs\"\nindex = 0\nvalue = 9\n"))
	f.Add([]byte("[[op]]\nkind = \"explode\"\narray = \"nope\"\n"))
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
