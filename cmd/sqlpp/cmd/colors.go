package cmd

import (
	"os"
	"runtime"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Gray  = "\033[90m" // Bright black
	Cyan  = "\033[36m"
	Red   = "\033[31m"
	Green = "\033[32m"
)

// colorsEnabled caches supportsColor: -1 unknown, 0 off, 1 on.
var colorsEnabled = -1

// supportsColor checks if the terminal supports colors
func supportsColor() bool {
	if colorsEnabled != -1 {
		return colorsEnabled == 1
	}
	colorsEnabled = 0
	if detectColor() {
		colorsEnabled = 1
	}
	return colorsEnabled == 1
}

func detectColor() bool {
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	if term == "dumb" {
		return false
	}
	// Windows 10+ terminals understand ANSI without TERM.
	if runtime.GOOS == "windows" && term == "" {
		return true
	}
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	if fileInfo.Mode()&os.ModeCharDevice != 0 {
		return true
	}
	return term != ""
}

func paint(color, text string) string {
	if !supportsColor() {
		return text
	}
	return color + text + Reset
}

// Info returns text colored in gray for informational messages
func Info(text string) string { return paint(Gray, text) }

// Warning returns text colored in red for warnings and failures
func Warning(text string) string { return paint(Red, text) }

// Success returns text colored in green for success messages
func Success(text string) string { return paint(Green, text) }

// Highlight returns text colored in cyan for names: databases, tables,
// files.
func Highlight(text string) string { return paint(Cyan, text) }
