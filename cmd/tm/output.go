package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/taskmaster/tm/internal/types"
)

// outputJSON prints data as pretty-printed JSON to stdout.
func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// fatalError prints an error and exits. With --json the error goes to
// stderr as a JSON object so scripted callers can parse it.
func fatalError(format string, args ...interface{}) {
	if jsonOutput {
		encoder := json.NewEncoder(os.Stderr)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(map[string]string{"error": fmt.Sprintf(format, args...)})
	} else {
		fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	}
	os.Exit(1)
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// statusColor renders a status with its conventional color.
func statusColor(s types.Status) string {
	switch s {
	case types.StatusNew, types.StatusOpen, types.StatusReopened:
		return yellow(string(s))
	case types.StatusInProgress, types.StatusInReview:
		return cyan(string(s))
	case types.StatusResolved:
		return green(string(s))
	case types.StatusClosed:
		return faint(string(s))
	default:
		return string(s)
	}
}

// priorityLabel renders a priority as P0..P4, coloring the critical band.
func priorityLabel(p int) string {
	label := fmt.Sprintf("P%d", p)
	if p <= 1 {
		return red(label)
	}
	return label
}
