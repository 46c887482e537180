package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tessera/internal/config"
	"tessera/internal/region"
)

// loadConfig resolves tessera.toml and applies the flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	explicit, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	cfg, err := config.Resolve(explicit, wd)
	if err != nil {
		return config.Config{}, err
	}

	if regionName, _ := flags.GetString("region"); regionName != "" {
		id, err := region.ParseID(regionName)
		if err != nil {
			return config.Config{}, fmt.Errorf("invalid --region: %w", err)
		}
		cfg.Codegen.Region = id.String()
	}
	if flares, _ := flags.GetBool("flares"); flares {
		cfg.Codegen.Flares = true
	}
	if out, _ := flags.GetString("trace"); out != "" {
		cfg.Trace.Output = out
		if cfg.Trace.Level == "off" {
			cfg.Trace.Level = "phase"
		}
	}
	if level, _ := flags.GetString("trace-level"); level != "" {
		cfg.Trace.Level = level
	}
	if mode, _ := flags.GetString("trace-mode"); mode != "" {
		cfg.Trace.Mode = mode
	}
	if hb, _ := flags.GetDuration("trace-heartbeat"); hb > 0 {
		cfg.Trace.Heartbeat = hb.String()
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
