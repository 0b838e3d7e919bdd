package hook

import (
	"encoding/json"
	"fmt"
	"io"
)

// Exit codes understood by the assistant runtime.
const (
	ExitAllow = 0
	ExitBlock = 2
)

// Event names the runtime reports in hook_event_name.
const (
	EventPreToolUse   = "PreToolUse"
	EventPostToolUse  = "PostToolUse"
	EventSubagentStop = "SubagentStop"
	EventStop         = "Stop"
)

// Response is what a hook hands back to the runtime.
type Response struct {
	Block  bool
	Reason string
}

// Pass is the neutral response: proceed unmodified.
func Pass() Response { return Response{} }

// Block stops the action and surfaces reason to the agent.
func Block(reason string) Response { return Response{Block: true, Reason: reason} }

type decisionOutput struct {
	HookSpecificOutput decisionDetail `json:"hookSpecificOutput"`
}

type decisionDetail struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
}

// Write reports r using the exit-code protocol: a blocking reason goes to
// stderr and the returned code is ExitBlock.
func (r Response) Write(stderr io.Writer) int {
	if !r.Block {
		return ExitAllow
	}
	fmt.Fprintln(stderr, r.Reason)
	return ExitBlock
}

// WriteDecision reports a block as a PreToolUse "deny" decision on stdout.
// A pass writes nothing: an explicit "allow" would skip the user's own
// permission prompt. The exit code is always ExitAllow.
func (r Response) WriteDecision(stdout io.Writer) (int, error) {
	if !r.Block {
		return ExitAllow, nil
	}
	out := decisionOutput{HookSpecificOutput: decisionDetail{
		HookEventName:            EventPreToolUse,
		PermissionDecision:       "deny",
		PermissionDecisionReason: r.Reason,
	}}
	enc := json.NewEncoder(stdout)
	if err := enc.Encode(out); err != nil {
		return ExitAllow, fmt.Errorf("write decision: %w", err)
	}
	return ExitAllow, nil
}
