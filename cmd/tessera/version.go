package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tessera/internal/version"
)

const versionTagline = "every index checked, every reference vouched for"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show tessera build information",
	Args:  cobra.NoArgs,
	RunE:  showVersion,
}

func init() {
	versionCmd.Flags().Bool("full", false, "include commit, message, build date and Go version")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func showVersion(cmd *cobra.Command, _ []string) error {
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	info := version.Current()
	switch strings.ToLower(format) {
	case "pretty":
		writeVersionPretty(cmd.OutOrStdout(), info, full)
		return nil
	case "json":
		return writeVersionJSON(cmd.OutOrStdout(), info, full)
	}
	return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
}

func writeVersionPretty(out io.Writer, info version.Info, full bool) {
	fmt.Fprintf(out, "tessera %s: %s\n", version.Colored(), versionTagline)
	if !full {
		return
	}
	commit := orUnknown(info.GitCommit)
	if info.Modified {
		commit += " (modified)"
	}
	rows := [][2]string{
		{"commit", commit},
		{"message", orUnknown(info.GitMessage)},
		{"built", orUnknown(info.BuildDate)},
		{"go", info.GoVersion},
	}
	for _, row := range rows {
		fmt.Fprintf(out, "  %-8s %s\n", row[0]+":", row[1])
	}
}

func writeVersionJSON(out io.Writer, info version.Info, full bool) error {
	payload := struct {
		Tool    string `json:"tool"`
		Tagline string `json:"tagline"`
		version.Info
	}{Tool: "tessera", Tagline: versionTagline, Info: info}
	if !full {
		payload.Info = version.Info{Version: info.Version, GoVersion: info.GoVersion}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
