package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tessera/internal/buildpipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <script.toml|dir>...",
	Short: "Compile array scripts and execute them on the VM",
	Long:  `Compile array scripts, execute each on the IR VM and check the results against their expectations`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScripts,
}

func init() {
	runCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	runCmd.Flags().BoolP("verbose", "v", false, "print every op result and runtime flare")
}

func runScripts(cmd *cobra.Command, args []string) error {
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	ui, err := parseSwitch("ui", uiValue)
	if err != nil {
		return err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	showTimings, _ := cmd.Root().PersistentFlags().GetBool("timings")

	results, _, batchErr := runBatch(cmd, args, buildpipeline.ModeRun, ui)
	if batchErr != nil && len(results) == 0 {
		return batchErr
	}
	out := cmd.OutOrStdout()
	for _, res := range results {
		if res == nil {
			continue
		}
		reportResult(out, res, verbose)
		if showTimings {
			printStageTimings(out, res)
		}
	}
	if failed := countFailed(results); failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(results))
	}
	return nil
}

func reportResult(out io.Writer, res *buildpipeline.Result, verbose bool) {
	ops := 0
	if res.Script != nil {
		ops = len(res.Script.Ops)
	}
	if res.Err == nil {
		note := fmt.Sprintf("%d ops", ops)
		if res.Cached {
			note += ", cached"
		}
		fmt.Fprintf(out, "%s %s %s\n", okColor.Sprint("ok  "), res.Path, dimColor.Sprintf("(%s)", note))
	} else {
		fmt.Fprintf(out, "%s %s\n", failColor.Sprint("FAIL"), res.Path)
		if res.Panic != nil && errors.Is(res.Err, res.Panic) {
			fmt.Fprint(out, indent(res.Panic.Pretty()))
		} else {
			fmt.Fprint(out, indent(res.Err.Error()+"\n"))
		}
	}
	if !verbose || res.Script == nil {
		return
	}
	for k, op := range res.Script.Ops {
		if k >= len(res.Outputs) {
			break
		}
		line := fmt.Sprintf("op[%d] %-19s %-8s = %d", k, op.Kind, op.Array, res.Outputs[k])
		if op.Expect != nil && *op.Expect != res.Outputs[k] {
			line += failColor.Sprintf("  (expected %d)", *op.Expect)
		}
		fmt.Fprintln(out, indent(line))
	}
	if res.Flares != "" {
		fmt.Fprint(out, indent(noteColor.Sprint(res.Flares)))
	}
}

func indent(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		sb.WriteString("    ")
		sb.WriteString(line)
	}
	if !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}
