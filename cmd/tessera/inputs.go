package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tessera/internal/config"
)

// collectScripts expands args into script paths: files are taken as is,
// directories contribute every *.toml below them except tessera.toml.
func collectScripts(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".toml") && d.Name() != config.FileName {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		// deterministic order
		sort.Strings(found)
		for _, path := range found {
			add(path)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no scripts found in %s", strings.Join(args, ", "))
	}
	return files, nil
}
