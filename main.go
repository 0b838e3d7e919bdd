package main

import (
	"context"
	"errors"
	"fmt"
	"hookguard/internal/config"
	"hookguard/internal/guard"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
)

var (
	projectFlag string
	envFlag     string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "hookguard",
	Short: "Lifecycle hooks for AI coding assistants",
	Long: `hookguard is invoked by an AI coding assistant's tool-call pipeline.

Hooks (read a JSON payload on stdin, exit 0 to proceed, 2 to block):
  guard    PreToolUse: block destructive shell commands
  lint     PostToolUse: run ruff and pyright on a written Python file
  tests    SubagentStop: run pytest and report failures
  skills   SessionStart: list available SKILL.md documents

Operator commands:
  check    Evaluate a command and print the verdict
  repl     Evaluate commands interactively
  exec     Evaluate, confirm if blocked, then run a command
  rules    List the guard rules`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadEnv(envFlag, config.ProjectDir(projectFlag, ""))
	},
}

func init() {
	log.SetFlags(0)
	log.SetPrefix("hookguard: ")

	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "Project directory (default: $HOOKGUARD_PROJECT_DIR, the payload cwd, or .)")
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "Path to .env file (default: <project>/.env and ~/.hookguard.env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log skipped checks and config details to stderr")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hookguard v%s\n", version)
	},
}

// exitError carries a process exit code out of a command without printing anything.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return exitError{code: code}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	var ee exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func debugf(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

// loadProject reads the project config and builds the guard rule set from
// the built-in catalogue plus project rules. A nil rule set with an error
// means the rules could not be built; callers must fail closed.
func loadProject(projectDir string) (*config.Config, *guard.RuleSet, error) {
	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, nil, err
	}
	if cfg != nil {
		debugf("config: %s", cfg.Path())
	}
	rs, err := guard.WithDefaults(cfg.GuardRules()...)
	if err != nil {
		return cfg, nil, fmt.Errorf("%s: %w", cfg.Path(), err)
	}
	return cfg, rs, nil
}
