package check

import (
	"context"
	"fmt"
	"hookguard/internal/runner"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// pytest exit codes, see `pytest --help`.
const (
	pytestOK          = 0
	pytestFailed      = 1
	pytestInterrupted = 2
	pytestNoTests     = 5
)

// Tail of the pytest output forwarded to the agent.
const pytestTailLines = 40

var (
	pytestFailedRe = regexp.MustCompile(`(\d+) failed`)
	pytestErrorRe  = regexp.MustCompile(`(\d+) errors?\b`)
)

// Pytest runs the project's test suite.
type Pytest struct {
	Bin     string // defaults to "pytest"
	Args    []string
	Timeout time.Duration
}

func (c *Pytest) Name() string { return "pytest" }

func (c *Pytest) Run(ctx context.Context, target Target) Report {
	bin := c.Bin
	if bin == "" {
		bin = "pytest"
	}
	args := append([]string{"-q", "--no-header", "-p", "no:cacheprovider"}, c.Args...)
	res, skipped := runTool(ctx, c.Name(), bin, target.ProjectDir, c.Timeout, args...)
	if skipped != nil {
		return *skipped
	}

	switch res.ExitCode {
	case pytestOK, pytestNoTests:
		return Report{Tool: c.Name()}
	case pytestFailed, pytestInterrupted:
		n := countFailures(res.Stdout)
		if n == 0 {
			n = 1
		}
		return Report{Tool: c.Name(), Errors: n, Output: tail(res.Combined(), pytestTailLines)}
	default:
		// internal or usage errors say nothing about the code under test
		return Report{Tool: c.Name(), Skipped: true, Note: fmt.Sprintf("pytest exited %d", res.ExitCode)}
	}
}

// countFailures reads "N failed" and "N error(s)" from pytest's summary line.
func countFailures(out string) int {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	summary := lines[len(lines)-1]
	n := 0
	for _, re := range []*regexp.Regexp{pytestFailedRe, pytestErrorRe} {
		if m := re.FindStringSubmatch(summary); m != nil {
			v, _ := strconv.Atoi(m[1])
			n += v
		}
	}
	return n
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = append([]string{"..."}, lines[len(lines)-n:]...)
	}
	return runner.Truncate(strings.Join(lines, "\n"))
}
