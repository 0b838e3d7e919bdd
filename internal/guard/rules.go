package guard

// RuleDef is the uncompiled form of a rule. Pattern and Unless are RE2
// expressions matched case-insensitively anywhere in the command.
type RuleDef struct {
	Name    string `yaml:"name" toml:"name"`
	Label   string `yaml:"label" toml:"label"`
	Pattern string `yaml:"pattern" toml:"pattern"`
	// Unless, when set, cancels a match if it is found in the same command
	// segment as the match.
	Unless string `yaml:"unless" toml:"unless"`
}

// Raw block devices. /dev/null, /dev/stdout and friends are deliberately absent.
const rawDevice = `/dev/(?:sd|hd|vd|xvd|nvme|mmcblk|disk|rdisk|loop)`

// Flags that are never recursive/force themselves but may sit between them.
const rmFlag = `-[\w-]+\s+`

// A bare flag token ends at whitespace or a shell operator. "--force" in
// "--force-with-lease" or "--force=..." is not a bare token.
const flagEnd = `(?:[^\w=-]|$)`

// One SQL identifier: quoted whole, or a plain word.
const sqlIdent = "(?:\"[^\"]+\"|`[^`]+`|\\w+)"

// Built-in rule order is significant: the first match is the one reported.
var defaultRuleDefs = []RuleDef{
	{
		Name:  "rm-recursive-force",
		Label: "recursive force delete",
		Pattern: `\brm\s+(?:` + rmFlag + `)*?(?:` +
			`-[a-z]*r[a-z]*f[a-z]*|-[a-z]*f[a-z]*r[a-z]*` +
			`|(?:-[a-z]*r[a-z]*|--recursive)\s+(?:` + rmFlag + `)*(?:-[a-z]*f[a-z]*|--force)` +
			`|(?:-[a-z]*f[a-z]*|--force)\s+(?:` + rmFlag + `)*(?:-[a-z]*r[a-z]*|--recursive))`,
	},
	{
		Name:    "block-device-write",
		Label:   "overwrite a raw block device",
		Pattern: `>\s*` + rawDevice,
	},
	{
		Name:    "mkfs",
		Label:   "format a filesystem",
		Pattern: `\bmkfs\b`,
	},
	{
		Name:    "dd-raw-device",
		Label:   "raw device write with dd",
		Pattern: `\bdd\b[^;&|\n]*\bof=` + rawDevice,
	},
	{
		Name:    "fork-bomb",
		Label:   "fork bomb",
		Pattern: `:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;?\s*:`,
	},
	{
		Name:    "git-reset-hard",
		Label:   "hard reset of the git working tree",
		Pattern: `\bgit\b[^;&|\n]*\breset\b[^;&|\n]*\s--hard\b`,
	},
	{
		Name:    "git-clean-force",
		Label:   "forced removal of untracked files",
		Pattern: `\bgit\b[^;&|\n]*\bclean\b[^;&|\n]*\s(?:-[a-z]*f[a-z]*|--force)\b`,
		Unless:  `\s(?:-[a-z]*n[a-z]*|--dry-run)\b`,
	},
	{
		Name:    "git-push-force",
		Label:   "force push",
		Pattern: `\bgit\b[^;&|\n]*\bpush\b[^;&|\n]*\s(?:--force|-[a-z]*f[a-z]*)` + flagEnd,
	},
	{
		Name:    "sql-drop",
		Label:   "SQL DROP TABLE/DATABASE",
		Pattern: `\bdrop\s+(?:table|database)\b`,
	},
	{
		Name:    "sql-truncate",
		Label:   "SQL TRUNCATE TABLE",
		Pattern: `\btruncate\s+table\b`,
	},
	{
		Name:    "sql-delete-no-where",
		Label:   "SQL DELETE without WHERE clause",
		Pattern: `\bdelete\s+from\s+` + sqlIdent + `(?:\.` + sqlIdent + `)*\s*(?:;|["']|$)`,
	},
}

// DefaultRuleDefs returns a copy of the built-in catalogue in evaluation order.
func DefaultRuleDefs() []RuleDef {
	return append([]RuleDef(nil), defaultRuleDefs...)
}
