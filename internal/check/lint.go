package check

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Ruff runs `ruff check` on a single file.
type Ruff struct {
	Bin     string // defaults to "ruff"
	Timeout time.Duration
}

func (c *Ruff) Name() string { return "ruff" }

type ruffDiagnostic struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Location struct {
		Row    int `json:"row"`
		Column int `json:"column"`
	} `json:"location"`
}

func (c *Ruff) Run(ctx context.Context, target Target) Report {
	bin := c.Bin
	if bin == "" {
		bin = "ruff"
	}
	res, skipped := runTool(ctx, c.Name(), bin, target.ProjectDir, c.Timeout,
		"check", "--output-format", "json", "--no-cache", target.File)
	if skipped != nil {
		return *skipped
	}

	var diags []ruffDiagnostic
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Stdout)), &diags); err != nil {
		return Report{Tool: c.Name(), Skipped: true, Note: fmt.Sprintf("unreadable output (exit %d)", res.ExitCode)}
	}
	var sb strings.Builder
	for _, d := range diags {
		fmt.Fprintf(&sb, "%s:%d:%d: %s %s\n", d.Filename, d.Location.Row, d.Location.Column, d.Code, d.Message)
	}
	return Report{Tool: c.Name(), Errors: len(diags), Output: sb.String()}
}

// Pyright runs the pyright type checker on a single file.
type Pyright struct {
	Bin     string // defaults to "pyright"
	Timeout time.Duration
}

func (c *Pyright) Name() string { return "pyright" }

type pyrightOutput struct {
	GeneralDiagnostics []struct {
		File     string `json:"file"`
		Severity string `json:"severity"`
		Message  string `json:"message"`
		Rule     string `json:"rule"`
		Range    struct {
			Start struct {
				Line      int `json:"line"`
				Character int `json:"character"`
			} `json:"start"`
		} `json:"range"`
	} `json:"generalDiagnostics"`
	Summary struct {
		ErrorCount   int `json:"errorCount"`
		WarningCount int `json:"warningCount"`
	} `json:"summary"`
}

func (c *Pyright) Run(ctx context.Context, target Target) Report {
	bin := c.Bin
	if bin == "" {
		bin = "pyright"
	}
	res, skipped := runTool(ctx, c.Name(), bin, target.ProjectDir, c.Timeout, "--outputjson", target.File)
	if skipped != nil {
		return *skipped
	}

	var out pyrightOutput
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return Report{Tool: c.Name(), Skipped: true, Note: fmt.Sprintf("unreadable output (exit %d)", res.ExitCode)}
	}
	var sb strings.Builder
	for _, d := range out.GeneralDiagnostics {
		if d.Severity != "error" {
			continue
		}
		// pyright positions are zero-based
		fmt.Fprintf(&sb, "%s:%d:%d: %s", d.File, d.Range.Start.Line+1, d.Range.Start.Character+1, d.Message)
		if d.Rule != "" {
			fmt.Fprintf(&sb, " (%s)", d.Rule)
		}
		sb.WriteString("\n")
	}
	return Report{Tool: c.Name(), Errors: out.Summary.ErrorCount, Output: sb.String()}
}
