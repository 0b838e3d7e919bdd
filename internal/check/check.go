package check

import (
	"context"
	"errors"
	"fmt"
	"hookguard/internal/runner"
	"path/filepath"
	"strings"
	"time"
)

// Target is what a checker runs against.
type Target struct {
	ProjectDir string
	File       string // empty for project-wide checkers
}

// Report is the result of one checker run.
type Report struct {
	Tool    string
	Skipped bool
	Note    string // why it was skipped
	Errors  int
	Output  string
}

// Checker wraps one external tool.
type Checker interface {
	Name() string
	Run(ctx context.Context, target Target) Report
}

// Summary aggregates the reports of one registry run.
type Summary struct {
	Reports []Report
}

// Errors returns the total error count across reports.
func (s Summary) Errors() int {
	n := 0
	for _, r := range s.Reports {
		n += r.Errors
	}
	return n
}

// Message formats the failing reports for the agent.
func (s Summary) Message() string {
	var sb strings.Builder
	for _, r := range s.Reports {
		if r.Errors == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%s: %d error(s)\n", r.Tool, r.Errors)
		sb.WriteString(strings.TrimRight(r.Output, "\n"))
	}
	return sb.String()
}

// Registry runs checkers in registration order.
type Registry struct {
	checkers []Checker
}

func NewRegistry(checkers ...Checker) *Registry {
	return &Registry{checkers: checkers}
}

func (r *Registry) Register(c Checker) {
	r.checkers = append(r.checkers, c)
}

// Names lists the registered checkers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.checkers))
	for _, c := range r.checkers {
		names = append(names, c.Name())
	}
	return names
}

// Run executes every checker and collects their reports. It stops early only
// when ctx is done.
func (r *Registry) Run(ctx context.Context, target Target) Summary {
	var s Summary
	for _, c := range r.checkers {
		if ctx.Err() != nil {
			break
		}
		s.Reports = append(s.Reports, c.Run(ctx, target))
	}
	return s
}

// IsPython reports whether path is a Python source file.
func IsPython(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyi":
		return true
	}
	return false
}

// runTool runs bin and converts "not installed" and timeouts into skipped reports.
func runTool(ctx context.Context, tool, bin, dir string, timeout time.Duration, args ...string) (runner.Result, *Report) {
	res, err := runner.Run(ctx, dir, timeout, bin, args...)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, runner.ErrToolUnavailable) {
		return res, &Report{Tool: tool, Skipped: true, Note: bin + " not installed"}
	}
	return res, &Report{Tool: tool, Skipped: true, Note: err.Error()}
}
