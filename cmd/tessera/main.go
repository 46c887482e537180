package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tessera/internal/version"
)

var rootCmd = &cobra.Command{
	Use:          "tessera",
	Short:        "Array element codegen core and script runner",
	Long:         `tessera emits bounds-checked, region-validated array code and runs array scripts on the IR VM`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return applyColorMode(cmd)
	},
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path to tessera.toml (default: nearest one upward from the working directory)")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("timings", false, "show timing information")
	pf.String("region", "", "default region (unsafe|assist|resilient), overrides the config")
	pf.Bool("flares", false, "emit a runtime flare for every element store")
	pf.Int("jobs", 0, "scripts processed in parallel (0 = GOMAXPROCS)")
	pf.Bool("no-cache", false, "bypass the build cache")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "", "trace storage mode (stream|ring|both)")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat trace events at this interval")
	pf.String("cpuprofile", "", "write a CPU profile to this file")
	pf.String("memprofile", "", "write a heap profile to this file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to this file")
}

// main executes the root command. A failed command exits with status 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
