package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tessera/internal/buildpipeline"
	"tessera/internal/config"
)

const cacheApp = "tessera"

// runBatch resolves config, tracing and the cache, expands args into
// scripts and pushes them through the pipeline.
func runBatch(cmd *cobra.Command, args []string, mode buildpipeline.Mode, ui autoSwitch) ([]*buildpipeline.Result, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	files, err := collectScripts(args)
	if err != nil {
		return nil, cfg, err
	}
	cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return nil, cfg, err
	}
	stopProfiling, err := startProfiling(cmd)
	if err != nil {
		cleanup(true)
		return nil, cfg, err
	}
	defer stopProfiling()

	flags := cmd.Root().PersistentFlags()
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	var cache *buildpipeline.DiskCache
	if !noCache {
		if cache, err = buildpipeline.OpenDiskCache(cacheApp); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: build cache disabled: %v\n", err)
			cache = nil
		}
	}

	reqs := make([]buildpipeline.Request, len(files))
	for i, file := range files {
		reqs[i] = buildpipeline.Request{Path: file, Config: cfg, Cache: cache}
	}

	var results []*buildpipeline.Result
	if useProgressUI(ui, len(files)) {
		title := fmt.Sprintf("%s %d scripts", cmd.Name(), len(files))
		results, err = runAllWithUI(cmd.Context(), title, files, reqs, mode, jobs)
	} else {
		results, err = buildpipeline.RunAll(cmd.Context(), reqs, mode, jobs, nil)
	}
	cleanup(err != nil)
	return results, cfg, err
}

func countFailed(results []*buildpipeline.Result) int {
	n := 0
	for _, res := range results {
		if res != nil && res.Err != nil {
			n++
		}
	}
	return n
}
