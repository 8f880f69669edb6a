package main

import (
	"os"
	"strings"
)

// init runs before Bubble Tea and lipgloss touch the terminal.
//
// Lipgloss/termenv background detection can write OSC/DSR query sequences to
// stdout. Those are harmless in a terminal but corrupt --print, --json and
// --metrics output that is piped into other tools, so non-interactive
// invocations set CI=1, which termenv treats as "do not probe".
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !shouldSuppressTTYQueries(os.Args[1:], os.Getenv("TT_TEST_MODE") != "") {
		return
	}
	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envTest bool) bool {
	if envTest {
		return true
	}
	for _, arg := range args {
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if i := strings.IndexByte(name, '='); i >= 0 {
			name = name[:i]
		}
		switch name {
		case "print", "export", "validate", "json", "diff", "metrics", "version", "help":
			return true
		}
	}
	return false
}
