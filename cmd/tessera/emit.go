package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tessera/internal/buildpipeline"
)

var emitCmd = &cobra.Command{
	Use:   "emit [flags] <script.toml|dir>...",
	Short: "Lower array scripts and print their IR",
	Long:  `Parse, lower and validate array scripts and print the emitted IR module of each`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEmit,
}

func init() {
	emitCmd.Flags().StringP("out", "o", "", "write <name>.ll files into this directory instead of stdout")
}

func runEmit(cmd *cobra.Command, args []string) error {
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	results, _, batchErr := runBatch(cmd, args, buildpipeline.ModeCompile, switchOff)
	showTimings, _ := cmd.Root().PersistentFlags().GetBool("timings")

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		if res.Err != nil {
			fmt.Fprintf(stderr, "%s %v\n", failColor.Sprint("error:"), res.Err)
			continue
		}
		if outDir != "" {
			name := strings.TrimSuffix(filepath.Base(res.Path), filepath.Ext(res.Path)) + ".ll"
			dest := filepath.Join(outDir, name)
			if err := os.WriteFile(dest, []byte(res.IR), 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", dest, err)
			}
			fmt.Fprintf(stderr, "%s %s\n", okColor.Sprint("wrote"), dest)
		} else {
			if len(results) > 1 {
				fmt.Fprintf(stdout, "; source: %s\n", res.Path)
			}
			fmt.Fprint(stdout, res.IR)
		}
		if showTimings {
			printStageTimings(stderr, res)
		}
	}
	if batchErr != nil && len(results) == 0 {
		return batchErr
	}
	if failed := countFailed(results); failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(results))
	}
	return nil
}
