// Package ui renders verdicts and tables for the operator commands and asks
// for confirmation on the terminal.
package ui

import (
	"fmt"
	"hookguard/internal/guard"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

var (
	errorColor   = lipgloss.Color("196")
	successColor = lipgloss.Color("82")
	mutedColor   = lipgloss.Color("240")

	denyStyle  = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	allowStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	headStyle  = lipgloss.NewStyle().Bold(true)
)

// Printer writes styled output. Styling is dropped when the writer is not a terminal.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter styles output only when out is a terminal and NO_COLOR is unset.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, color: IsTerminal(out) && os.Getenv("NO_COLOR") == ""}
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w any) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Verdict prints a one-line decision, followed by the reason on deny.
func (p *Printer) Verdict(command string, v guard.Verdict) {
	if !v.Denied() {
		fmt.Fprintf(p.out, "%s  %s\n", p.style(allowStyle, "ALLOW"), guard.FirstLine(command, 100))
		return
	}
	fmt.Fprintf(p.out, "%s  %s %s\n", p.style(denyStyle, "DENY "), v.Label, p.style(mutedStyle, "["+v.Rule+"]"))
	for _, line := range strings.Split(v.Reason, "\n") {
		fmt.Fprintf(p.out, "       %s\n", line)
	}
}

// Rules prints the catalogue as an aligned two-column table.
func (p *Printer) Rules(rules []*guard.Rule) {
	width := runewidth.StringWidth("RULE")
	for _, r := range rules {
		width = max(width, runewidth.StringWidth(r.Name))
	}
	fmt.Fprintf(p.out, "%s  %s\n", p.style(headStyle, runewidth.FillRight("RULE", width)), p.style(headStyle, "BLOCKS"))
	for _, r := range rules {
		fmt.Fprintf(p.out, "%s  %s\n", runewidth.FillRight(r.Name, width), r.Label)
	}
}

// Muted prints a dimmed informational line.
func (p *Printer) Muted(format string, args ...any) {
	fmt.Fprintln(p.out, p.style(mutedStyle, fmt.Sprintf(format, args...)))
}
