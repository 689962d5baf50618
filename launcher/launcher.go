//go:build linux

package launcher

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// The privileged identity assumed before the handoff.
const (
	rootUID = 0
	rootGID = 0
)

// Static errors for launcher preconditions.
var (
	// ErrNoTarget is returned when no target path was compiled in.
	ErrNoTarget = errors.New("no target path compiled in")
	// ErrTargetNotAbsolute is returned when the compiled-in target path is relative.
	ErrTargetNotAbsolute = errors.New("target path must be absolute")
	// ErrNoArgv is returned when the argument vector is empty.
	ErrNoArgv = errors.New("empty argument vector")
	// ErrNoEnviron is returned when the launcher has no environment to sanitize.
	ErrNoEnviron = errors.New("no environment")
)

// Launcher runs the fail-closed launch sequence: sanitize the environment,
// escalate to the privileged identity, and replace the process image with
// the fixed target executable.
//
// Target and Argv are fixed by the caller before Run and are never modified;
// Argv is forwarded to the target verbatim, argv[0] included.
type Launcher struct {
	// Target is the absolute path of the executable to hand off to.
	// It is fixed at build time and never read from any runtime source.
	Target string
	// Argv is the full argument vector of the calling process.
	Argv []string
	// Env is the environment to sanitize and hand off.
	Env Environ

	// Setgid, Setuid, and Exec are the identity and process primitives used
	// by the escalate and handoff stages. Run fills nil fields with the real
	// syscalls; tests substitute recorders.
	Setgid func(gid int) error
	Setuid func(uid int) error
	Exec   func(path string, argv, envv []string) error
}

// New returns a Launcher over the real syscall primitives.
func New(target string, argv []string, env Environ) *Launcher {
	return &Launcher{
		Target: target,
		Argv:   argv,
		Env:    env,
		Setgid: unix.Setgid,
		Setuid: unix.Setuid,
		Exec:   unix.Exec,
	}
}

// Run executes the launch sequence. It does not return on success: the
// process image is replaced by the target. Any returned error is fatal and
// means the handoff did not happen; no stage runs after a failed one.
func (l *Launcher) Run() error {
	err := l.validate()
	if err != nil {
		return err
	}

	err = sanitize(l.Env)
	if err != nil {
		return err
	}

	err = l.escalate()
	if err != nil {
		return err
	}

	return l.handoff()
}

// validate checks the compile-time inputs and fills nil syscall seams with
// the real primitives.
func (l *Launcher) validate() error {
	if l.Target == "" {
		return ErrNoTarget
	}

	if !filepath.IsAbs(l.Target) {
		return fmt.Errorf("%w: %s", ErrTargetNotAbsolute, l.Target)
	}

	if len(l.Argv) == 0 {
		return ErrNoArgv
	}

	if l.Env == nil {
		return ErrNoEnviron
	}

	if l.Setgid == nil {
		l.Setgid = unix.Setgid
	}

	if l.Setuid == nil {
		l.Setuid = unix.Setuid
	}

	if l.Exec == nil {
		l.Exec = unix.Exec
	}

	return nil
}

// escalate transitions the real, effective, and saved group identity, then
// the user identity, to root. The group transition must come first: it needs
// the rights of the pre-escalation identity, which are gone once the user
// identity has changed.
func (l *Launcher) escalate() error {
	err := l.Setgid(rootGID)
	if err != nil {
		return fmt.Errorf("setting group identity to %d: %w", rootGID, err)
	}

	err = l.Setuid(rootUID)
	if err != nil {
		return fmt.Errorf("setting user identity to %d: %w", rootUID, err)
	}

	return nil
}

// handoff replaces the current process image with the target, passing the
// verbatim argument vector and the sanitized environment. It returns only
// on failure.
func (l *Launcher) handoff() error {
	err := l.Exec(l.Target, l.Argv, l.Env.Environ())
	if err != nil {
		return fmt.Errorf("executing %s: %w", l.Target, err)
	}

	// Exec never returns nil: on success the process image is gone.
	return fmt.Errorf("executing %s: exec returned without error", l.Target)
}
