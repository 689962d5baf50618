//go:build linux

package launcher

import (
	"fmt"
	"maps"
	"os"
	"sort"
)

// allowlist is the fixed, ordered set of environment variables that survive
// sanitization. It holds exactly the display, session, and identity variables
// the downstream GUI needs; everything else the caller supplied is destroyed.
// The list is a build-time constant and is never derived from input.
var allowlist = [...]string{
	"DISPLAY",
	"WAYLAND_DISPLAY",
	"XDG_RUNTIME_DIR",
	"HOME",
	"USER",
	"LOGNAME",
}

// SafePath is the PATH value installed after sanitization. It always replaces
// whatever PATH the caller supplied; the two are never merged.
const SafePath = "/run/current-system/sw/bin:/usr/sbin:/usr/bin:/sbin:/bin"

// Environ is an explicit, mutable process environment passed through the
// launch stages, so each stage's precondition and postcondition on the
// environment is a testable contract rather than ambient global state.
//
// Lookup distinguishes a variable that is unset from one set to the empty
// string; downstream consumers of the allowlisted variables may treat the
// two differently, so sanitization preserves the distinction.
type Environ interface {
	// Lookup returns the value of name and whether it is set.
	Lookup(name string) (string, bool)
	// Set installs name with value, replacing any existing value.
	Set(name, value string) error
	// Clear destroys every variable in the environment.
	Clear() error
	// Environ returns the environment as KEY=VALUE entries, in the form
	// expected by exec.
	Environ() []string
}

// OSEnviron is the live environment of the current process. It is the
// Environ used by the real launcher binary.
type OSEnviron struct{}

// Lookup reports the variable via os.LookupEnv, preserving unset vs. empty.
func (OSEnviron) Lookup(name string) (string, bool) { return os.LookupEnv(name) }

// Set installs the variable into the process environment.
func (OSEnviron) Set(name, value string) error { return os.Setenv(name, value) }

// Clear destroys the entire process environment.
func (OSEnviron) Clear() error {
	os.Clearenv()

	return nil
}

// Environ returns the process environment as KEY=VALUE entries.
func (OSEnviron) Environ() []string { return os.Environ() }

// MapEnviron is an in-memory Environ. It backs tests and dry runs where
// mutating the real process environment is undesirable.
type MapEnviron struct {
	vars map[string]string
}

// NewMapEnviron creates a MapEnviron seeded with a copy of vars.
// A nil map yields an empty environment.
func NewMapEnviron(vars map[string]string) *MapEnviron {
	cloned := maps.Clone(vars)
	if cloned == nil {
		cloned = make(map[string]string)
	}

	return &MapEnviron{vars: cloned}
}

// Lookup returns the value of name and whether it is set.
func (e *MapEnviron) Lookup(name string) (string, bool) {
	value, ok := e.vars[name]

	return value, ok
}

// Set installs name with value.
func (e *MapEnviron) Set(name, value string) error {
	e.vars[name] = value

	return nil
}

// Clear destroys every variable.
func (e *MapEnviron) Clear() error {
	e.vars = make(map[string]string)

	return nil
}

// Environ returns the environment as sorted KEY=VALUE entries.
// Sorting keeps the output deterministic.
func (e *MapEnviron) Environ() []string {
	out := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		out = append(out, k+"="+v)
	}

	sort.Strings(out)

	return out
}

// snapshotEntry is one captured allowlist slot: the variable name, its value
// at capture time, and whether it was set at all.
type snapshotEntry struct {
	name    string
	value   string
	present bool
}

// captureSnapshot reads each allowlisted variable from env, in allowlist
// order, into a statically sized snapshot. Absence is recorded, not an error.
func captureSnapshot(env Environ) [len(allowlist)]snapshotEntry {
	var snap [len(allowlist)]snapshotEntry

	for i, name := range allowlist {
		value, ok := env.Lookup(name)
		snap[i] = snapshotEntry{name: name, value: value, present: ok}
	}

	return snap
}

// sanitize reduces env to exactly the allowlisted variables that were set,
// plus the fixed PATH. The step order is a correctness requirement: the
// snapshot must be complete before the environment is destroyed, and the
// environment must be fully rebuilt before any later stage runs.
//
// Any failure is fatal to the launch; the caller must not escalate
// privileges after a sanitize error.
func sanitize(env Environ) error {
	snap := captureSnapshot(env)

	err := env.Clear()
	if err != nil {
		return fmt.Errorf("clearing environment: %w", err)
	}

	for _, entry := range snap {
		if !entry.present {
			continue
		}

		err := env.Set(entry.name, entry.value)
		if err != nil {
			return fmt.Errorf("restoring %s: %w", entry.name, err)
		}
	}

	err = env.Set("PATH", SafePath)
	if err != nil {
		return fmt.Errorf("setting PATH: %w", err)
	}

	return nil
}
