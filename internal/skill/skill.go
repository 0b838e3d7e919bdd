package skill

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"
)

const fileName = "SKILL.md"

// Skill is a discovered SKILL.md with metadata and a lazily loaded body.
type Skill struct {
	Name        string
	Description string
	Dir         string // directory containing SKILL.md
	Body        string // markdown body (loaded on demand)
	path        string
}

type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Dirs returns the skill search path: project, user, then extra dirs.
func Dirs(projectDir string, extra []string) []string {
	dirs := []string{filepath.Join(projectDir, ".claude", "skills")}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".claude", "skills"))
	}
	for _, d := range extra {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Discover walks dirs in order, finds SKILL.md files at any depth, and
// returns unique skills by name (first occurrence wins). Missing dirs are
// skipped; a SKILL.md without a name is ignored.
func Discover(dirs []string) ([]Skill, error) {
	seen := make(map[string]bool)
	var skills []Skill

	for _, root := range dirs {
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if d.IsDir() || d.Name() != fileName {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			fm, err := parseFrontmatter(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			if fm.Name == "" || seen[fm.Name] {
				return nil
			}
			seen[fm.Name] = true
			skills = append(skills, Skill{
				Name:        fm.Name,
				Description: fm.Description,
				Dir:         filepath.Dir(path),
				path:        path,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return skills, nil
}

// LoadBody reads the SKILL.md again and sets Body to the markdown after the
// front matter.
func LoadBody(s *Skill) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	_, body := splitFrontmatter(data)
	s.Body = strings.TrimSpace(string(body))
	return nil
}

// Find returns the skill called name. When there is none, it returns up to
// three names that fuzzily match, best first.
func Find(skills []Skill, name string) (*Skill, []string) {
	for i := range skills {
		if skills[i].Name == name {
			return &skills[i], nil
		}
	}
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return nil, Suggest(name, names, 3)
}

// Suggest returns up to max candidates that fuzzily match pattern.
func Suggest(pattern string, candidates []string, max int) []string {
	var out []string
	for _, m := range fuzzy.Find(pattern, candidates) {
		if len(out) == max {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// Index renders the markdown list of skills injected at session start.
func Index(skills []Skill) string {
	if len(skills) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Available Skills\n\n")
	sb.WriteString("When a skill is relevant to the task, load it with `hookguard skills show <name>` and follow its instructions.\n\n")
	for _, s := range skills {
		fmt.Fprintf(&sb, "- **%s**: %s\n", s.Name, s.Description)
	}
	return sb.String()
}

func parseFrontmatter(data []byte) (frontmatter, error) {
	var f frontmatter
	fm, _ := splitFrontmatter(data)
	if len(fm) == 0 {
		return f, nil
	}
	if err := yaml.Unmarshal(fm, &f); err != nil {
		return f, err
	}
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	return f, nil
}

// splitFrontmatter returns (yaml, body). Front matter must open on the first
// line with "---" and close at the next line that is exactly "---".
func splitFrontmatter(data []byte) ([]byte, []byte) {
	rest, ok := cutFence(data)
	if !ok {
		return nil, data
	}
	for off := 0; off < len(rest); {
		end := bytes.IndexByte(rest[off:], '\n')
		line := rest[off:]
		next := len(rest)
		if end >= 0 {
			line = rest[off : off+end]
			next = off + end + 1
		}
		if string(bytes.TrimRight(line, " \t\r")) == "---" {
			return rest[:off], rest[next:]
		}
		off = next
	}
	return nil, data
}

// cutFence strips a leading "---" line.
func cutFence(data []byte) ([]byte, bool) {
	line, rest, found := bytes.Cut(data, []byte("\n"))
	if !found || string(bytes.TrimRight(line, " \t\r")) != "---" {
		return nil, false
	}
	return rest, true
}
