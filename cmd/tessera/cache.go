package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tessera/internal/buildpipeline"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the build cache",
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the build cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := buildpipeline.OpenDiskCache(cacheApp)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cache.Dir())
		return nil
	},
}

var cacheDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Remove every cached result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := buildpipeline.OpenDiskCache(cacheApp)
		if err != nil {
			return err
		}
		if err := cache.DropAll(); err != nil {
			return fmt.Errorf("failed to drop cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okColor.Sprint("dropped"), cache.Dir())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheDirCmd)
	cacheCmd.AddCommand(cacheDropCmd)
}
