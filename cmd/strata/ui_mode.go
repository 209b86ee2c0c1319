package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

var uiModeAliases = map[string]uiMode{
	"":      uiModeAuto,
	"auto":  uiModeAuto,
	"on":    uiModeOn,
	"true":  uiModeOn,
	"off":   uiModeOff,
	"false": uiModeOff,
}

func readUIMode(value string) (uiMode, error) {
	if mode, ok := uiModeAliases[strings.ToLower(strings.TrimSpace(value))]; ok {
		return mode, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// shouldUseTUI decides whether check renders live progress. Auto mode needs
// pretty output on a terminal and no --quiet.
func shouldUseTUI(mode uiMode, format string, quiet bool, out io.Writer) bool {
	if mode != uiModeAuto {
		return mode == uiModeOn
	}
	if format != "pretty" || quiet {
		return false
	}
	f, ok := out.(*os.File)
	return ok && isTerminal(f)
}
