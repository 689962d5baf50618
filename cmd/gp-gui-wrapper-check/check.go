package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/gpclient/gp-gui-wrapper/launcher"
)

// ErrNoTarget is returned when the binary was built without a target path.
var ErrNoTarget = errors.New(`no target path compiled in (build with -ldflags "-X main.targetPath=...")`)

// CheckResult is the outcome of a single installation check.
type CheckResult struct {
	Name string
	Err  error // nil means the check passed
}

// OK returns true if the check passed.
func (r CheckResult) OK() bool { return r.Err == nil }

// CheckTarget verifies that the handoff target is a root-owned, executable,
// non-writable regular file. These are the same properties the wrapper
// relies on at exec time; checking them here catches packaging mistakes
// without running anything setuid.
func CheckTarget(path string) error {
	if path == "" {
		return ErrNoTarget
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("target path is not absolute: %s", path)
	}

	var st unix.Stat_t

	err := unix.Stat(path, &st)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	return validateTarget(path, &st)
}

func validateTarget(path string, st *unix.Stat_t) error {
	if st.Mode&unix.S_IFMT != unix.S_IFREG {
		return fmt.Errorf("%s is not a regular file", path)
	}

	if st.Mode&0o111 == 0 {
		return fmt.Errorf("%s is not executable (mode %04o)", path, st.Mode&0o7777)
	}

	if st.Mode&0o022 != 0 {
		return fmt.Errorf("%s is group or world writable (mode %04o)", path, st.Mode&0o7777)
	}

	if st.Uid != 0 {
		return fmt.Errorf("%s is not owned by root (uid %d)", path, st.Uid)
	}

	return nil
}

// CheckWrapper verifies that the installed wrapper binary is setuid root.
// Without the setuid bit the launcher cannot escalate and every invocation
// fails at the setgid step.
func CheckWrapper(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("wrapper path is not absolute: %s", path)
	}

	var st unix.Stat_t

	err := unix.Stat(path, &st)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	return validateWrapper(path, &st)
}

func validateWrapper(path string, st *unix.Stat_t) error {
	if st.Mode&unix.S_IFMT != unix.S_IFREG {
		return fmt.Errorf("%s is not a regular file", path)
	}

	if st.Mode&0o111 == 0 {
		return fmt.Errorf("%s is not executable (mode %04o)", path, st.Mode&0o7777)
	}

	if st.Mode&unix.S_ISUID == 0 {
		return fmt.Errorf("%s is not setuid (mode %04o)", path, st.Mode&0o7777)
	}

	if st.Uid != 0 {
		return fmt.Errorf("%s is setuid but not owned by root (uid %d), escalation will fail", path, st.Uid)
	}

	if st.Mode&0o022 != 0 {
		return fmt.Errorf("%s is group or world writable (mode %04o)", path, st.Mode&0o7777)
	}

	return nil
}

// CheckSearchPath reports one result per directory of the fixed PATH the
// wrapper installs. Missing directories are normal on some layouts (e.g.
// /run/current-system exists only on NixOS), so the caller decides whether
// they are fatal.
func CheckSearchPath() []CheckResult {
	dirs := filepath.SplitList(launcher.SafePath)
	results := make([]CheckResult, 0, len(dirs))

	for _, dir := range dirs {
		results = append(results, CheckResult{
			Name: "path:" + dir,
			Err:  checkDir(dir),
		})
	}

	return results
}

func checkDir(dir string) error {
	var st unix.Stat_t

	err := unix.Stat(dir, &st)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}

	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return fmt.Errorf("%s is not a directory", dir)
	}

	return nil
}
