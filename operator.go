package main

import (
	"fmt"
	"hookguard/internal/config"
	"hookguard/internal/guard"
	"hookguard/internal/hook"
	"hookguard/internal/runner"
	"hookguard/internal/skill"
	"hookguard/internal/ui"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var execTimeout time.Duration

// operatorRules builds the rule set for an operator command. Unlike the hook,
// a broken rule set is reported as an error.
func operatorRules() (*guard.RuleSet, error) {
	_, rs, err := loadProject(config.ProjectDir(projectFlag, ""))
	return rs, err
}

var checkCmd = &cobra.Command{
	Use:   "check COMMAND...",
	Short: "Evaluate a shell command and print the verdict",
	Example: `  hookguard check git push --force origin main
  hookguard check 'rm -rf build && make'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := operatorRules()
		if err != nil {
			return err
		}
		command := strings.Join(args, " ")
		v := rs.Evaluate(command)
		ui.NewPrinter(cmd.OutOrStdout()).Verdict(command, v)
		if v.Denied() {
			return exitWith(hook.ExitBlock)
		}
		return nil
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules [NAME]",
	Short: "List the guard rules, or show one rule's pattern",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := operatorRules()
		if err != nil {
			return err
		}
		p := ui.NewPrinter(cmd.OutOrStdout())
		if len(args) == 0 {
			p.Rules(rs.Rules())
			return nil
		}
		r, ok := rs.Lookup(args[0])
		if !ok {
			names := make([]string, 0, len(rs.Rules()))
			for _, r := range rs.Rules() {
				names = append(names, r.Name)
			}
			if s := skill.Suggest(args[0], names, 3); len(s) > 0 {
				return fmt.Errorf("unknown rule %q (did you mean: %s?)", args[0], strings.Join(s, ", "))
			}
			return fmt.Errorf("unknown rule %q", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.Name, r.Label)
		p.Muted("pattern: %s", r.Pattern())
		return nil
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Evaluate commands interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := operatorRules()
		if err != nil {
			return err
		}
		historyFile := ""
		if home, err := os.UserHomeDir(); err == nil {
			historyFile = filepath.Join(home, ".hookguard_history")
		}
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "guard> ",
			HistoryFile:     historyFile,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			Stdin:           io.NopCloser(cmd.InOrStdin()),
			Stdout:          cmd.OutOrStdout(),
			Stderr:          cmd.ErrOrStderr(),
		})
		if err != nil {
			return fmt.Errorf("readline: %w", err)
		}
		defer rl.Close()
		return repl(rl, rs, ui.NewPrinter(cmd.OutOrStdout()))
	},
}

func repl(rl *readline.Instance, rs *guard.RuleSet, p *ui.Printer) error {
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}
		input := strings.TrimSpace(line)
		switch strings.ToLower(input) {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		case "rules":
			p.Rules(rs.Rules())
			continue
		case "help", "h":
			p.Muted("Type a shell command to evaluate it. 'rules' lists the rules, 'quit' exits.")
			continue
		}
		p.Verdict(input, rs.Evaluate(input))
	}
}

var execCmd = &cobra.Command{
	Use:   "exec -- COMMAND...",
	Short: "Evaluate a command, ask for confirmation if blocked, then run it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := operatorRules()
		if err != nil {
			return err
		}
		command := strings.Join(args, " ")
		if v := rs.Evaluate(command); v.Denied() {
			ui.NewPrinter(cmd.ErrOrStderr()).Verdict(command, v)
			approve := ui.ApproveFuncFor(cmd.InOrStdin(), cmd.ErrOrStderr())
			if !approve("Run anyway? [y/N]: ") {
				return exitWith(hook.ExitBlock)
			}
			log.Printf("running %s after confirmation", v.Rule)
		}

		dir := config.ProjectDir(projectFlag, "")
		res, err := runner.Shell(cmd.Context(), dir, execTimeout, command)
		fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
		fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)
		if err != nil {
			return err
		}
		return exitWith(res.ExitCode)
	},
}

func init() {
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 5*time.Minute, "Kill the command after this long")
	rootCmd.AddCommand(checkCmd, rulesCmd, replCmd, execCmd)
}
