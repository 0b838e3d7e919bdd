package hook

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"
)

// maxPayload caps how much of stdin is read for a single hook invocation.
const maxPayload = 4 << 20

// ToolInput is the subset of a tool call's arguments the hooks look at.
type ToolInput struct {
	Command  string `json:"command"`
	FilePath string `json:"file_path"`
	Path     string `json:"path"`
}

// Payload is the JSON document the assistant runtime writes to a hook's stdin.
type Payload struct {
	HookEventName  string    `json:"hook_event_name"`
	SessionID      string    `json:"session_id"`
	ToolName       string    `json:"tool_name"`
	ToolInput      ToolInput `json:"tool_input"`
	Command        string    `json:"command"`
	Cwd            string    `json:"cwd"`
	StopHookActive bool      `json:"stop_hook_active"`
}

// CommandString returns the proposed shell command, preferring tool_input.command.
func (p Payload) CommandString() string {
	if p.ToolInput.Command != "" {
		return p.ToolInput.Command
	}
	return p.Command
}

// TargetPath returns the file a write/edit tool touched, if any.
func (p Payload) TargetPath() string {
	if p.ToolInput.FilePath != "" {
		return p.ToolInput.FilePath
	}
	return p.ToolInput.Path
}

// Decode reads a payload from r. A missing, empty, or unparseable payload is
// not an error: it yields the zero Payload, which every hook treats as
// nothing to check. Only read failures are returned.
func Decode(r io.Reader) (Payload, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPayload))
	if err != nil {
		return Payload{}, err
	}
	return Parse(data), nil
}

// Parse is Decode for an in-memory payload.
func Parse(data []byte) Payload {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return Payload{}
	}
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err == nil {
		return p
	}
	if err := json.Unmarshal([]byte(repairJSON(raw)), &p); err == nil {
		return p
	}
	return Payload{}
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// repairJSON fixes the truncation and trailing-comma damage seen in
// hand-written or cut-off payloads.
func repairJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ",")
	raw = trailingCommaRe.ReplaceAllString(raw, "$1")

	if diff := strings.Count(raw, "{") - strings.Count(raw, "}"); diff > 0 {
		raw += strings.Repeat("}", diff)
	}
	if diff := strings.Count(raw, "[") - strings.Count(raw, "]"); diff > 0 {
		raw += strings.Repeat("]", diff)
	}
	return raw
}
