package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	noteColor = color.New(color.FgCyan)
	dimColor  = color.New(color.Faint)
)

func applyColorMode(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	sw, err := parseSwitch("color", mode)
	if err != nil {
		return err
	}
	color.NoColor = !sw.resolve(func() bool { return isTerminal(os.Stdout) })
	return nil
}
