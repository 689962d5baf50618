// gp-gui-wrapper-check verifies a gp-gui-wrapper installation without
// escalating privileges: the compiled-in target must be a root-owned
// executable, the installed wrapper must be setuid root, and the fixed
// search path should exist.
//
// It is a packaging diagnostic; the wrapper binary itself never parses flags.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
)

// targetPath is injected at build time with the same value as the wrapper
// binary, so the check inspects the exact path the wrapper will exec.
var targetPath string

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run parses flags, runs the installation checks, and returns the exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("gp-gui-wrapper-check", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}

	flagHelp := flags.BoolP("help", "h", false, "Show help")
	flagQuiet := flags.BoolP("quiet", "q", false, "Only report failures")
	flagStrict := flags.Bool("strict", false, "Treat missing search-path directories as failures")
	flagWrapper := flags.String("wrapper", "", "Path to the installed wrapper binary to verify")
	flagTarget := flags.String("target", "", "Check this path instead of the compiled-in target")

	err := flags.Parse(args[1:])
	if err != nil {
		fprintf(stderr, "gp-gui-wrapper-check: %v\n", err)
		fprintf(stderr, "Run 'gp-gui-wrapper-check --help' for usage.\n")

		return 2
	}

	if *flagHelp {
		printUsage(stdout, flags)

		return 0
	}

	target := targetPath
	if *flagTarget != "" {
		target = *flagTarget
	}

	results := []CheckResult{
		{Name: "target:" + displayPath(target), Err: CheckTarget(target)},
	}

	if *flagWrapper != "" {
		results = append(results, CheckResult{
			Name: "wrapper:" + *flagWrapper,
			Err:  CheckWrapper(*flagWrapper),
		})
	}

	pathResults := CheckSearchPath()
	if !*flagStrict {
		pathResults = demoteMissingDirs(pathResults, stdout, *flagQuiet)
	}

	results = append(results, pathResults...)

	failed := 0

	for _, result := range results {
		if result.OK() {
			if !*flagQuiet {
				fprintf(stdout, "ok   %s\n", result.Name)
			}

			continue
		}

		failed++

		fprintf(stdout, "FAIL %s: %v\n", result.Name, result.Err)
	}

	if failed > 0 {
		fprintf(stderr, "gp-gui-wrapper-check: %d check(s) failed\n", failed)

		return 1
	}

	return 0
}

// demoteMissingDirs filters out search-path results whose only problem is a
// missing directory, printing them as notes instead. Other failures (e.g. a
// file where a directory should be) stay fatal.
func demoteMissingDirs(results []CheckResult, stdout io.Writer, quiet bool) []CheckResult {
	kept := results[:0]

	for _, result := range results {
		if result.Err != nil && errors.Is(result.Err, fs.ErrNotExist) {
			if !quiet {
				fprintf(stdout, "note %s: absent on this system\n", result.Name)
			}

			continue
		}

		kept = append(kept, result)
	}

	return kept
}

func displayPath(path string) string {
	if path == "" {
		return "(unset)"
	}

	return path
}

func printUsage(output io.Writer, flags *flag.FlagSet) {
	fprintf(output, "gp-gui-wrapper-check - verify a gp-gui-wrapper installation\n\n")
	fprintf(output, "Usage: gp-gui-wrapper-check [flags]\n\n")
	fprintf(output, "Flags:\n%s", flags.FlagUsages())

	if !strings.HasSuffix(flags.FlagUsages(), "\n") {
		fprintf(output, "\n")
	}
}

func fprintf(output io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(output, format, a...)
}
