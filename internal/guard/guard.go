package guard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
)

var (
	ErrInvalidRule   = errors.New("invalid guard rule")
	ErrDuplicateRule = errors.New("duplicate guard rule")
)

// maxCommandWidth bounds how much of the offending command is echoed back in a reason.
const maxCommandWidth = 200

// ConfirmInstruction ends every deny reason.
const ConfirmInstruction = "This action is destructive and requires explicit confirmation from the user before retrying."

// Decision is the outcome of evaluating one command.
type Decision int

const (
	Allow Decision = iota
	Deny
)

func (d Decision) String() string {
	if d == Deny {
		return "deny"
	}
	return "allow"
}

// Verdict is the return value of RuleSet.Evaluate.
type Verdict struct {
	Decision Decision
	Rule     string // name of the matching rule, empty on Allow
	Label    string
	Reason   string // empty on Allow
}

// Denied reports whether the verdict blocks the command.
func (v Verdict) Denied() bool { return v.Decision == Deny }

// Rule is a compiled RuleDef.
type Rule struct {
	Name    string
	Label   string
	pattern *regexp.Regexp
	unless  *regexp.Regexp
}

// Pattern returns the source of the rule's match expression.
func (r *Rule) Pattern() string { return r.pattern.String() }

// match reports whether r fires anywhere in cmd. When an exclusion is set,
// each candidate match is checked against its own command segment.
func (r *Rule) match(cmd string) bool {
	if r.unless == nil {
		return r.pattern.MatchString(cmd)
	}
	for _, loc := range r.pattern.FindAllStringIndex(cmd, -1) {
		if !r.unless.MatchString(segmentAt(cmd, loc[0])) {
			return true
		}
	}
	return false
}

var separatorRe = regexp.MustCompile(`;|&&|\|\||\||\n`)

// segmentAt returns cmd from start up to the next command separator.
func segmentAt(cmd string, start int) string {
	rest := cmd[start:]
	if loc := separatorRe.FindStringIndex(rest); loc != nil {
		return rest[:loc[0]]
	}
	return rest
}

// RuleSet is an ordered, immutable list of rules. It is safe for concurrent use.
type RuleSet struct {
	rules []*Rule
}

// NewRuleSet compiles defs in order. Any pattern that fails to compile is
// returned as an error; nothing is skipped.
func NewRuleSet(defs ...RuleDef) (*RuleSet, error) {
	rs := &RuleSet{rules: make([]*Rule, 0, len(defs))}
	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: rule #%d has no name", ErrInvalidRule, i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, name)
		}
		seen[name] = true
		if strings.TrimSpace(d.Pattern) == "" {
			return nil, fmt.Errorf("%w: %s: empty pattern", ErrInvalidRule, name)
		}
		p, err := compile(d.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: pattern: %v", ErrInvalidRule, name, err)
		}
		r := &Rule{Name: name, Label: d.Label, pattern: p}
		if r.Label == "" {
			r.Label = name
		}
		if d.Unless != "" {
			u, err := compile(d.Unless)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: unless: %v", ErrInvalidRule, name, err)
			}
			r.unless = u
		}
		rs.rules = append(rs.rules, r)
	}
	return rs, nil
}

// MustRuleSet is like NewRuleSet but panics on error. Use it for rule sets
// known at build time.
func MustRuleSet(defs ...RuleDef) *RuleSet {
	rs, err := NewRuleSet(defs...)
	if err != nil {
		panic(err)
	}
	return rs
}

func compile(expr string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + expr)
}

var (
	defaultOnce sync.Once
	defaultSet  *RuleSet
)

// Default returns the built-in rule set, compiled once per process.
func Default() *RuleSet {
	defaultOnce.Do(func() {
		defaultSet = MustRuleSet(defaultRuleDefs...)
	})
	return defaultSet
}

// WithDefaults builds a rule set of the built-in catalogue followed by extra.
func WithDefaults(extra ...RuleDef) (*RuleSet, error) {
	if len(extra) == 0 {
		return Default(), nil
	}
	return NewRuleSet(append(DefaultRuleDefs(), extra...)...)
}

// Rules returns the rules in evaluation order.
func (rs *RuleSet) Rules() []*Rule {
	if rs == nil {
		return nil
	}
	return append([]*Rule(nil), rs.rules...)
}

// Lookup returns the rule with the given name.
func (rs *RuleSet) Lookup(name string) (*Rule, bool) {
	for _, r := range rs.Rules() {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Evaluate returns Deny for the first rule matching command, Allow otherwise.
// Empty input is allowed. A nil rule set denies everything.
func (rs *RuleSet) Evaluate(command string) Verdict {
	if strings.TrimSpace(command) == "" {
		return Verdict{Decision: Allow}
	}
	if rs == nil {
		return Verdict{
			Decision: Deny,
			Rule:     "guard-unavailable",
			Label:    "guard rules not loaded",
			Reason:   formatReason("guard rules not loaded", command),
		}
	}
	for _, r := range rs.rules {
		if r.match(command) {
			return Verdict{
				Decision: Deny,
				Rule:     r.Name,
				Label:    r.Label,
				Reason:   formatReason(r.Label, command),
			}
		}
	}
	return Verdict{Decision: Allow}
}

func formatReason(label, command string) string {
	return fmt.Sprintf("BLOCKED: %s\nCommand: %s\n%s", label, FirstLine(command, maxCommandWidth), ConfirmInstruction)
}

// FirstLine returns the first non-empty line of s, truncated to width display columns.
func FirstLine(s string, width int) string {
	s = strings.TrimSpace(s)
	line, _, more := strings.Cut(s, "\n")
	line = strings.TrimSpace(line)
	if runewidth.StringWidth(line) > width {
		return runewidth.Truncate(line, width, "...")
	}
	if more {
		return line + " ..."
	}
	return line
}
