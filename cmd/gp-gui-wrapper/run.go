package main

import (
	"fmt"
	"io"

	"github.com/gpclient/gp-gui-wrapper/launcher"
)

// targetPath is the absolute path of the executable the wrapper hands off to.
// It is injected by the packaging layer at build time:
//
//	go build -ldflags "-X main.targetPath=/opt/gp-gui/bin/gp-gui" ./cmd/gp-gui-wrapper
//
// The wrapper refuses to run when it is empty; there is no runtime source
// for this path (no flag, no environment variable, no config file).
var targetPath string

// newLauncher is a function variable so tests can substitute launchers with
// recorded syscall seams.
var newLauncher = launcher.New

// Run executes the launch sequence and returns the process exit code.
//
// The wrapper interprets nothing: args is the caller's full argument vector
// and is forwarded to the target verbatim, argv[0] included. Run only
// returns on failure; on success the process image has been replaced.
func Run(args []string, env launcher.Environ, stderr io.Writer) int {
	l := newLauncher(targetPath, args, env)

	err := l.Run()

	fprintf(stderr, "gp-gui-wrapper: %v\n", err)

	return 1
}

func fprintf(output io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(output, format, a...)
}
