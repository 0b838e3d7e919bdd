package guard

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestEvaluate_Allow(t *testing.T) {
	rs := Default()
	allowed := []string{
		"",
		"   ",
		"echo hello",
		"ls -la",
		"go build ./...",
		"rm file.txt",
		"rm -r build",
		"rm -f stale.lock",
		"echo done > /dev/null",
		"dd if=in.img of=out.img",
		"git reset --soft HEAD~1",
		"git clean -n",
		"git clean -fdn",
		"git clean --dry-run -f",
		"git push origin main",
		"git push --force-with-lease",
		"git push --force-with-lease origin feature",
		"git push --follow-tags",
		"git push --force-with-lease=main:abc origin main",
		"git push -u origin feature",
		"DELETE FROM users WHERE id = 5;",
		`DELETE FROM "users" WHERE id = 5;`,
		`psql -c 'DELETE FROM "users" WHERE id = 5;'`,
		`psql -c "DELETE FROM public.users WHERE id = 5"`,
		"DELETE FROM `app`.`users` WHERE id = 5;",
		"psql -c 'SELECT * FROM users;'",
		"firm -rf",
	}
	for _, cmd := range allowed {
		if v := rs.Evaluate(cmd); v.Denied() {
			t.Errorf("Evaluate(%q) = deny by %s, want allow", cmd, v.Rule)
		}
	}
}

func TestEvaluate_Deny(t *testing.T) {
	rs := Default()
	tests := []struct {
		cmd  string
		rule string
	}{
		{"rm -rf /", "rm-recursive-force"},
		{"rm -fr build", "rm-recursive-force"},
		{"rm -Rf build", "rm-recursive-force"},
		{"rm -rfv node_modules", "rm-recursive-force"},
		{"rm -r -f build", "rm-recursive-force"},
		{"rm -f -r build", "rm-recursive-force"},
		{"rm -v -r -f build", "rm-recursive-force"},
		{"rm --recursive --force build", "rm-recursive-force"},
		{"sudo rm -rf ~/tmp", "rm-recursive-force"},
		{"find . -name '*.pyc' | xargs rm -rf", "rm-recursive-force"},
		{"cat image.iso > /dev/sda", "block-device-write"},
		{"echo x >/dev/nvme0n1", "block-device-write"},
		{"mkfs.ext4 /dev/sdb1", "mkfs"},
		{"sudo mkfs -t xfs /dev/sdc", "mkfs"},
		{"dd if=/dev/zero of=/dev/sda", "dd-raw-device"},
		{"dd if=boot.img of=/dev/disk2 bs=4m", "dd-raw-device"},
		{":(){ :|:& };:", "fork-bomb"},
		{"git reset --hard", "git-reset-hard"},
		{"git reset --hard HEAD~3", "git-reset-hard"},
		{"git -C repo reset --hard origin/main", "git-reset-hard"},
		{"git clean -fd", "git-clean-force"},
		{"git clean -xfd", "git-clean-force"},
		{"git clean --force", "git-clean-force"},
		{"git push --force", "git-push-force"},
		{"git push -f origin main", "git-push-force"},
		{"git push origin main --force", "git-push-force"},
		{"git push -fu origin main", "git-push-force"},
		{"git push -uf origin main", "git-push-force"},
		{"git push --force --force-with-lease", "git-push-force"},
		{"git push origin --force-with-lease=main:abc --force", "git-push-force"},
		{"git push --force; echo done", "git-push-force"},
		{"DROP TABLE sessions", "sql-drop"},
		{"drop table sessions", "sql-drop"},
		{"psql -c 'DROP DATABASE prod'", "sql-drop"},
		{"TRUNCATE TABLE sessions", "sql-truncate"},
		{"truncate table sessions", "sql-truncate"},
		{"DELETE FROM users;", "sql-delete-no-where"},
		{"delete from public.users ;", "sql-delete-no-where"},
		{`sqlite3 app.db "DELETE FROM users"`, "sql-delete-no-where"},
		{`DELETE FROM "users";`, "sql-delete-no-where"},
		{`psql -c 'DELETE FROM "public"."users"'`, "sql-delete-no-where"},
		{"DELETE FROM `users`", "sql-delete-no-where"},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			v := rs.Evaluate(tt.cmd)
			if !v.Denied() {
				t.Fatalf("Evaluate(%q) = allow, want deny by %s", tt.cmd, tt.rule)
			}
			if v.Rule != tt.rule {
				t.Errorf("Evaluate(%q).Rule = %q, want %q", tt.cmd, v.Rule, tt.rule)
			}
		})
	}
}

func TestEvaluate_ExclusionIsPerSegment(t *testing.T) {
	rs := Default()
	v := rs.Evaluate("git push --force-with-lease origin a && git push --force origin b")
	if !v.Denied() || v.Rule != "git-push-force" {
		t.Errorf("bare force push after a lease push should deny, got %+v", v)
	}
	v = rs.Evaluate("git clean -n; git clean -f")
	if !v.Denied() || v.Rule != "git-clean-force" {
		t.Errorf("forced clean after a dry run should deny, got %+v", v)
	}
}

func TestEvaluate_FirstMatchWins(t *testing.T) {
	rs := Default()
	v := rs.Evaluate("git reset --hard && rm -rf build")
	if v.Rule != "rm-recursive-force" {
		t.Errorf("Rule = %q, want rm-recursive-force (declared first)", v.Rule)
	}

	custom := MustRuleSet(
		RuleDef{Name: "first", Label: "first label", Pattern: `danger`},
		RuleDef{Name: "second", Label: "second label", Pattern: `danger`},
	)
	v = custom.Evaluate("very danger")
	if v.Rule != "first" || !strings.Contains(v.Reason, "first label") {
		t.Errorf("got %+v, want first rule", v)
	}
}

func TestEvaluate_Reason(t *testing.T) {
	v := Default().Evaluate("dd if=/dev/zero of=/dev/sda\necho second line")
	if !v.Denied() {
		t.Fatal("expected deny")
	}
	if !strings.Contains(v.Reason, "raw device write") {
		t.Errorf("reason should name the rule: %q", v.Reason)
	}
	if !strings.Contains(v.Reason, "dd if=/dev/zero of=/dev/sda") {
		t.Errorf("reason should include the command: %q", v.Reason)
	}
	if strings.Contains(v.Reason, "second line") {
		t.Errorf("reason should only carry the first line: %q", v.Reason)
	}
	if !strings.HasSuffix(v.Reason, ConfirmInstruction) {
		t.Errorf("reason should end with the confirmation instruction: %q", v.Reason)
	}
}

func TestEvaluate_NilRuleSetFailsClosed(t *testing.T) {
	var rs *RuleSet
	if v := rs.Evaluate("echo hello"); !v.Denied() {
		t.Error("nil rule set must deny")
	}
	if v := rs.Evaluate(""); v.Denied() {
		t.Error("empty command is allowed even without rules")
	}
}

func TestNewRuleSet_Errors(t *testing.T) {
	tests := []struct {
		name string
		defs []RuleDef
		want error
	}{
		{"bad pattern", []RuleDef{{Name: "x", Pattern: `(`}}, ErrInvalidRule},
		{"bad unless", []RuleDef{{Name: "x", Pattern: `a`, Unless: `[`}}, ErrInvalidRule},
		{"lookahead unsupported", []RuleDef{{Name: "x", Pattern: `--force(?!-with-lease)`}}, ErrInvalidRule},
		{"no name", []RuleDef{{Pattern: `a`}}, ErrInvalidRule},
		{"empty pattern", []RuleDef{{Name: "x"}}, ErrInvalidRule},
		{"duplicate", []RuleDef{{Name: "x", Pattern: `a`}, {Name: "x", Pattern: `b`}}, ErrDuplicateRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := NewRuleSet(tt.defs...)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if rs != nil {
				t.Error("rule set should be nil on error")
			}
		})
	}
}

func TestMustRuleSet_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRuleSet should panic on a bad pattern")
		}
	}()
	MustRuleSet(RuleDef{Name: "bad", Pattern: `(`})
}

func TestWithDefaults(t *testing.T) {
	rs, err := WithDefaults()
	if err != nil {
		t.Fatal(err)
	}
	if rs != Default() {
		t.Error("WithDefaults() without extras should share the default set")
	}

	rs, err = WithDefaults(RuleDef{Name: "kubectl-delete-ns", Pattern: `\bkubectl\s+delete\s+(ns|namespace)\b`, Unless: `--dry-run`})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(rs.Rules()), len(DefaultRuleDefs())+1; got != want {
		t.Fatalf("len(Rules()) = %d, want %d", got, want)
	}
	if v := rs.Evaluate("kubectl delete ns prod"); v.Rule != "kubectl-delete-ns" {
		t.Errorf("extra rule not applied: %+v", v)
	}
	if v := rs.Evaluate("kubectl delete ns prod --dry-run=client"); v.Denied() {
		t.Errorf("extra rule exclusion not applied: %+v", v)
	}
	if v := rs.Evaluate("rm -rf /"); v.Rule != "rm-recursive-force" {
		t.Errorf("built-ins must stay ahead of extras: %+v", v)
	}

	if _, err := WithDefaults(RuleDef{Name: "mkfs", Pattern: `x`}); !errors.Is(err, ErrDuplicateRule) {
		t.Errorf("shadowing a built-in should fail, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	r, ok := Default().Lookup("git-push-force")
	if !ok {
		t.Fatal("git-push-force not found")
	}
	if r.Label != "force push" {
		t.Errorf("Label = %q", r.Label)
	}
	if _, ok := Default().Lookup("nope"); ok {
		t.Error("unexpected rule")
	}
}

func TestEvaluate_Concurrent(t *testing.T) {
	rs := Default()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := "echo hello"
			if i%2 == 0 {
				cmd = "git push --force"
			}
			v := rs.Evaluate(cmd)
			if v.Denied() != (i%2 == 0) {
				t.Errorf("Evaluate(%q) = %v", cmd, v.Decision)
			}
		}(i)
	}
	wg.Wait()
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("  one\ntwo", 80); got != "one ..." {
		t.Errorf("FirstLine multi = %q", got)
	}
	long := strings.Repeat("x", 300)
	got := FirstLine(long, 20)
	if len(got) != 20 || !strings.HasSuffix(got, "...") {
		t.Errorf("FirstLine long = %q", got)
	}
}

func TestDecisionString(t *testing.T) {
	if Allow.String() != "allow" || Deny.String() != "deny" {
		t.Error("Decision.String")
	}
}
