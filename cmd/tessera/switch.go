package main

import (
	"fmt"
	"os"
	"strings"
)

// autoSwitch is the value of an auto|on|off flag.
type autoSwitch uint8

const (
	switchAuto autoSwitch = iota
	switchOn
	switchOff
)

func parseSwitch(flag, value string) (autoSwitch, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return switchAuto, nil
	case "on":
		return switchOn, nil
	case "off":
		return switchOff, nil
	}
	return switchAuto, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
}

// resolve decides the switch, asking detect only for auto.
func (s autoSwitch) resolve(detect func() bool) bool {
	switch s {
	case switchOn:
		return true
	case switchOff:
		return false
	}
	return detect()
}

// useProgressUI is on for auto only when several scripts go to a terminal.
func useProgressUI(s autoSwitch, scripts int) bool {
	return s.resolve(func() bool { return scripts > 1 && isTerminal(os.Stdout) })
}
