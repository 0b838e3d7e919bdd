package main

import (
	"fmt"
	"hookguard/internal/check"
	"hookguard/internal/config"
	"hookguard/internal/hook"
	"hookguard/internal/skill"
	"log"
	"strings"

	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	skillDirs  []string
)

var guardCmd = &cobra.Command{
	Use:   "guard",
	Short: "PreToolUse hook: block destructive shell commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := hook.Decode(cmd.InOrStdin())
		if err != nil {
			// Without a payload there is nothing to show the user, but the
			// command may still run: refuse rather than guess.
			resp := hook.Block(fmt.Sprintf("BLOCKED: could not read hook payload: %v", err))
			return respond(cmd, resp)
		}
		command := p.CommandString()
		if strings.TrimSpace(command) == "" {
			return respond(cmd, hook.Pass())
		}

		_, rs, err := loadProject(config.ProjectDir(projectFlag, p.Cwd))
		if err != nil {
			log.Printf("Warning: %v", err)
		}
		// rs is nil when the rules failed to build; Evaluate then denies.
		v := rs.Evaluate(command)
		if !v.Denied() {
			return respond(cmd, hook.Pass())
		}
		debugf("guard: %s [%s]", v.Label, v.Rule)
		return respond(cmd, hook.Block(v.Reason))
	},
}

// respond writes resp in the selected output mode and maps it to the exit code.
func respond(cmd *cobra.Command, resp hook.Response) error {
	if jsonOutput {
		code, err := resp.WriteDecision(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return exitWith(code)
	}
	return exitWith(resp.Write(cmd.ErrOrStderr()))
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "PostToolUse hook: run ruff and pyright on the written Python file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := hook.Decode(cmd.InOrStdin())
		if err != nil {
			log.Printf("Warning: %v", err)
			return nil
		}
		target := p.TargetPath()
		if target == "" || !check.IsPython(target) {
			return nil
		}
		projectDir := config.ProjectDir(projectFlag, p.Cwd)
		file, err := hook.ResolveTarget(projectDir, target)
		if err != nil {
			debugf("lint: skipping %v", err)
			return nil
		}
		cfg := loadConfig(projectDir)

		reg := check.NewRegistry()
		if cfg.LintEnabled("ruff") {
			reg.Register(&check.Ruff{Timeout: cfg.LintTimeout()})
		}
		if cfg.LintEnabled("pyright") {
			reg.Register(&check.Pyright{Timeout: cfg.LintTimeout()})
		}
		sum := reg.Run(cmd.Context(), check.Target{ProjectDir: projectDir, File: file})
		return finish(cmd, sum)
	},
}

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "SubagentStop hook: run pytest and report failures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := hook.Decode(cmd.InOrStdin())
		if err != nil {
			log.Printf("Warning: %v", err)
			return nil
		}
		if p.StopHookActive {
			debugf("tests: stop hook already active, passing through")
			return nil
		}
		projectDir := config.ProjectDir(projectFlag, p.Cwd)
		cfg := loadConfig(projectDir)
		if !cfg.TestsEnabled() {
			debugf("tests: disabled")
			return nil
		}
		reg := check.NewRegistry(&check.Pytest{Args: cfg.TestArgs(), Timeout: cfg.TestTimeout()})
		sum := reg.Run(cmd.Context(), check.Target{ProjectDir: projectDir})
		return finish(cmd, sum)
	},
}

// loadConfig is the lenient loader used by the sibling hooks: a broken config
// falls back to defaults instead of blocking the agent.
func loadConfig(projectDir string) *config.Config {
	cfg, err := config.Load(projectDir)
	if err != nil {
		log.Printf("Warning: %v, using defaults", err)
		return nil
	}
	if cfg != nil {
		debugf("config: %s", cfg.Path())
	}
	return cfg
}

func finish(cmd *cobra.Command, sum check.Summary) error {
	for _, r := range sum.Reports {
		if r.Skipped {
			debugf("%s: skipped (%s)", r.Tool, r.Note)
		}
	}
	if sum.Errors() == 0 {
		return nil
	}
	return exitWith(hook.Block(sum.Message()).Write(cmd.ErrOrStderr()))
}

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "SessionStart hook: print an index of available skills",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		skills, err := discoverSkills()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), skill.Index(skills))
		return nil
	},
}

var skillsShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print the body of one skill",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		skills, err := discoverSkills()
		if err != nil {
			return err
		}
		s, suggestions := skill.Find(skills, args[0])
		if s == nil {
			if len(suggestions) > 0 {
				return fmt.Errorf("unknown skill %q (did you mean: %s?)", args[0], strings.Join(suggestions, ", "))
			}
			return fmt.Errorf("unknown skill %q", args[0])
		}
		if err := skill.LoadBody(s); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.Body)
		return nil
	},
}

func discoverSkills() ([]skill.Skill, error) {
	dirs := skill.Dirs(config.ProjectDir(projectFlag, ""), skillDirs)
	debugf("skills: searching %s", strings.Join(dirs, ", "))
	return skill.Discover(dirs)
}

func init() {
	guardCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print a permission decision on stdout instead of using exit code 2")
	skillsCmd.PersistentFlags().StringSliceVar(&skillDirs, "skills", nil, "Additional skill directories")
	skillsCmd.AddCommand(skillsShowCmd)
	rootCmd.AddCommand(guardCmd, lintCmd, testsCmd, skillsCmd)
}
