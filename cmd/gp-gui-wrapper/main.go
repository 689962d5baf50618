// gp-gui-wrapper is a minimal setuid launcher for gp-gui.
//
// It lets unprivileged users start gp-gui, which needs root to manage VPN
// connections. The wrapper sanitizes the environment against a fixed
// allowlist (dropping LD_PRELOAD and everything else the caller supplied),
// installs a fixed PATH, escalates to root (group identity first), and
// replaces itself with the compile-time-fixed gp-gui binary.
//
// Privileges are not dropped afterwards: the entire gp-gui process runs as
// root. The wrapper parses no flags and forwards its argument vector to the
// target verbatim.
package main

import (
	"os"

	"github.com/gpclient/gp-gui-wrapper/launcher"
)

func main() {
	os.Exit(Run(os.Args, launcher.OSEnviron{}, os.Stderr))
}
