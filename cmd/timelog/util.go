package main

import (
	"fmt"
	"os"
	"time"
)

// isTTY reports whether stdout is a terminal; emphasis is suppressed when
// output is piped.
func isTTY() bool {
	st, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return st.Mode()&os.ModeCharDevice != 0
}

// emph bolds s on a TTY and leaves it plain otherwise.
func emph(s string) string {
	if isTTY() {
		return "\x1b[1m" + s + "\x1b[0m"
	}
	return s
}

// projectSuffix renders " in project X" or nothing.
func projectSuffix(project string) string {
	if project == "" {
		return ""
	}
	return fmt.Sprintf(" in project %s", emph(project))
}

// fmtTimestamp renders a segment start time for status output.
func fmtTimestamp(t time.Time) string {
	return t.Local().Format(time.RFC3339)
}
