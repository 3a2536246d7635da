package miniparser

import (
	"testing"

	"go.shellcore.dev/engine"
	"go.shellcore.dev/engine/internal/task"
)

func parseOne(t *testing.T, line string) shellcore.Statement {
	t.Helper()
	expr, err := New().Parse(line)
	if err != nil {
		t.Fatalf("Parse(%q): %v", line, err)
	}
	if len(expr.Statements) != 1 {
		t.Fatalf("Parse(%q): expected 1 statement, got %d", line, len(expr.Statements))
	}
	return expr.Statements[0]
}

func TestParseSimpleCommand(t *testing.T) {
	stmt := parseOne(t, "echo hello world")
	if stmt.Kind != shellcore.StmtExec {
		t.Fatalf("expected StmtExec, got %v", stmt.Kind)
	}
	plan := stmt.Plan
	if plan == nil || plan.Next != nil {
		t.Fatalf("expected a single Task node, got %+v", plan)
	}
	want := []string{"echo", "hello", "world"}
	if len(plan.Argv) != len(want) {
		t.Fatalf("argv = %v, want %v", plan.Argv, want)
	}
	for i := range want {
		if plan.Argv[i] != want[i] {
			t.Fatalf("argv = %v, want %v", plan.Argv, want)
		}
	}
}

func TestParseRelationChain(t *testing.T) {
	stmt := parseOne(t, "false && echo a || echo b")
	plan := stmt.Plan
	if plan.Relation != task.And {
		t.Fatalf("first relation = %v, want And", plan.Relation)
	}
	second := plan.Next
	if second == nil || second.Relation != task.Or {
		t.Fatalf("second relation = %v, want Or", second.Relation)
	}
	third := second.Next
	if third == nil || third.Next != nil {
		t.Fatalf("expected exactly 3 nodes")
	}
}

func TestParsePipe(t *testing.T) {
	stmt := parseOne(t, "printf foo | grep foo")
	plan := stmt.Plan
	if plan.Relation != task.Pipe {
		t.Fatalf("expected Pipe relation, got %v", plan.Relation)
	}
	if plan.Next == nil || plan.Next.Argv[0] != "grep" {
		t.Fatalf("expected second stage grep, got %+v", plan.Next)
	}
}

func TestParseRedirection(t *testing.T) {
	stmt := parseOne(t, "echo hi > /tmp/out.txt")
	plan := stmt.Plan
	if plan.Stdout.Kind != task.RedirectFile || plan.Stdout.Path != "/tmp/out.txt" {
		t.Fatalf("expected file redirection, got %+v", plan.Stdout)
	}
	if plan.Stdout.Mode != task.Truncate {
		t.Fatalf("expected Truncate mode by default")
	}
}

func TestParseAppendRedirection(t *testing.T) {
	stmt := parseOne(t, "echo hi >> /tmp/out.txt")
	if stmt.Plan.Stdout.Mode != task.Append {
		t.Fatalf("expected Append mode for >>")
	}
}

func TestParseQuotedArgument(t *testing.T) {
	stmt := parseOne(t, `echo "hello world"`)
	if len(stmt.Plan.Argv) != 2 || stmt.Plan.Argv[1] != "hello world" {
		t.Fatalf("argv = %v, want [echo, %q]", stmt.Plan.Argv, "hello world")
	}
}

func TestParseCdBuiltin(t *testing.T) {
	stmt := parseOne(t, "cd /tmp")
	if stmt.Kind != shellcore.StmtCd || len(stmt.Args) != 1 || stmt.Args[0] != "/tmp" {
		t.Fatalf("expected StmtCd with [/tmp], got %+v", stmt)
	}
}

func TestParseExportAssignment(t *testing.T) {
	stmt := parseOne(t, "export FOO=bar")
	if stmt.Kind != shellcore.StmtExport || stmt.Key != "FOO" {
		t.Fatalf("expected StmtExport key FOO, got %+v", stmt)
	}
	if len(stmt.Expr.Statements) != 1 || stmt.Expr.Statements[0].Text != "bar" {
		t.Fatalf("expected rhs literal %q, got %+v", "bar", stmt.Expr)
	}
}

func TestParseExitWithCode(t *testing.T) {
	stmt := parseOne(t, "exit 7")
	if stmt.Kind != shellcore.StmtExit || stmt.Code != 7 {
		t.Fatalf("expected StmtExit code 7, got %+v", stmt)
	}
}

func TestParseEmptyAndCommentLinesYieldNoStatements(t *testing.T) {
	for _, line := range []string{"", "   ", "# a comment"} {
		expr, err := New().Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		if len(expr.Statements) != 0 {
			t.Fatalf("Parse(%q): expected no statements, got %v", line, expr.Statements)
		}
	}
}

func TestParseUnterminatedQuoteErrors(t *testing.T) {
	if _, err := New().Parse(`echo "unterminated`); err == nil {
		t.Fatal("expected an error for an unterminated quote")
	}
}
