package ui

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
)

// ApproveFunc asks whether a blocked action may proceed.
type ApproveFunc func(action string) bool

// ApproveFuncFor returns TerminalApproval when stdin is a terminal, and a
// function that denies (and logs the action) otherwise, so unattended runs
// never block on stdin.
func ApproveFuncFor(stdin io.Reader, stdout io.Writer) ApproveFunc {
	if IsTerminal(stdin) {
		return TerminalApproval(stdin, stdout)
	}
	return func(action string) bool {
		log.Printf("confirmation required (non-interactive, denying): %s", strings.TrimSpace(action))
		return false
	}
}

// TerminalApproval prints the action prompt and reads one line; only "y" or
// "yes" (case-insensitive) approve.
func TerminalApproval(in io.Reader, out io.Writer) ApproveFunc {
	return func(action string) bool {
		fmt.Fprint(out, action)
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return false
		}
		t := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return t == "y" || t == "yes"
	}
}
