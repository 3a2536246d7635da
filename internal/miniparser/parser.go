// Package miniparser is a small line-oriented parser used only by the demo
// CLI (cmd/shellcore) and by democore.Core's ExecHistory/Source support: the
// surface parser is an external collaborator per spec.md §1/§6, and this is
// not a claim at completeness -- it covers one line of input at a time
// (simple commands chained by `;`, `&&`, `||`, `|`, with `>`/`>>`/`2>`/`2>>`
// redirection and a handful of builtin keywords) so the engine has a real,
// runnable caller instead of only hand-built ShellExpression literals in
// tests. Block statements (If/While/Foreach) are reachable through the
// engine's API but this parser does not produce them -- multi-line block
// parsing is out of scope for a demo harness.
package miniparser

import (
	"fmt"
	"strconv"
	"strings"

	"go.shellcore.dev/engine"
	"go.shellcore.dev/engine/internal/task"
)

// Parser implements shellcore.Parser.
type Parser struct{}

// New constructs a Parser. It carries no state; one instance may be shared
// across goroutines.
func New() *Parser { return &Parser{} }

// Parse turns one line of input into a ShellExpression containing exactly
// one Statement (spec.md §6).
func (p *Parser) Parse(line string) (*shellcore.ShellExpression, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return &shellcore.ShellExpression{}, nil
	}

	words, err := tokenize(line)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return &shellcore.ShellExpression{}, nil
	}

	if stmt, ok := parseBuiltin(words); ok {
		return &shellcore.ShellExpression{Statements: []shellcore.Statement{stmt}}, nil
	}

	plan, err := parseExec(words)
	if err != nil {
		return nil, err
	}
	return &shellcore.ShellExpression{
		Statements: []shellcore.Statement{{Kind: shellcore.StmtExec, Plan: plan}},
	}, nil
}

// token is one lexical unit: a plain word, or one of the recognized
// operators/redirections.
type tokenKind int

const (
	tokWord tokenKind = iota
	tokAnd            // &&
	tokOr             // ||
	tokPipe           // |
	tokSeq            // ;
	tokRedirOut       // >
	tokRedirOutAppend // >>
	tokRedirErr       // 2>
	tokRedirErrAppend // 2>>
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits line into words and operators, honoring single and double
// quotes (no escape processing inside single quotes, backslash-escape
// inside double quotes and bare words, matching the common-shell minimum).
func tokenize(line string) ([]token, error) {
	var toks []token
	var cur strings.Builder
	haveCur := false

	flush := func() {
		if haveCur {
			toks = append(toks, token{kind: tokWord, text: cur.String()})
			cur.Reset()
			haveCur = false
		}
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '\'':
			haveCur = true
			i++
			for i < len(runes) && runes[i] != '\'' {
				cur.WriteRune(runes[i])
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("miniparser: unterminated single quote")
			}
		case c == '"':
			haveCur = true
			i++
			for i < len(runes) && runes[i] != '"' {
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
				}
				cur.WriteRune(runes[i])
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("miniparser: unterminated double quote")
			}
		case c == '\\' && i+1 < len(runes):
			haveCur = true
			i++
			cur.WriteRune(runes[i])
		case c == ' ' || c == '\t':
			flush()
		case c == '&' && i+1 < len(runes) && runes[i+1] == '&':
			flush()
			toks = append(toks, token{kind: tokAnd})
			i++
		case c == '|' && i+1 < len(runes) && runes[i+1] == '|':
			flush()
			toks = append(toks, token{kind: tokOr})
			i++
		case c == '|':
			flush()
			toks = append(toks, token{kind: tokPipe})
		case c == ';':
			flush()
			toks = append(toks, token{kind: tokSeq})
		case c == '>' && i+1 < len(runes) && runes[i+1] == '>':
			flush()
			toks = append(toks, token{kind: tokRedirOutAppend})
			i++
		case c == '>':
			flush()
			toks = append(toks, token{kind: tokRedirOut})
		case c == '2' && i+2 < len(runes) && runes[i+1] == '>' && runes[i+2] == '>':
			flush()
			toks = append(toks, token{kind: tokRedirErrAppend})
			i += 2
		case c == '2' && i+1 < len(runes) && runes[i+1] == '>':
			flush()
			toks = append(toks, token{kind: tokRedirErr})
			i++
		default:
			haveCur = true
			cur.WriteRune(c)
		}
	}
	flush()
	return toks, nil
}

// parseExec builds a task.Task linked list from tokens, applying
// redirections to the Task they trail and Relations to the Task they
// follow (spec.md §3's Task/Redirection/Relation shapes).
func parseExec(toks []token) (*task.Task, error) {
	var head, tail *task.Task
	var argv []string

	flushTask := func(rel task.Relation) error {
		if len(argv) == 0 {
			return fmt.Errorf("miniparser: empty command")
		}
		t := task.NewTask(argv)
		t.Relation = rel
		argv = nil
		if head == nil {
			head, tail = t, t
		} else {
			tail.Next = t
			tail = t
		}
		return nil
	}

	for i := 0; i < len(toks); i++ {
		tk := toks[i]
		switch tk.kind {
		case tokWord:
			argv = append(argv, tk.text)
		case tokAnd:
			if err := flushTask(task.And); err != nil {
				return nil, err
			}
		case tokOr:
			if err := flushTask(task.Or); err != nil {
				return nil, err
			}
		case tokPipe:
			if err := flushTask(task.Pipe); err != nil {
				return nil, err
			}
		case tokSeq:
			if err := flushTask(task.Unrelated); err != nil {
				return nil, err
			}
		case tokRedirOut, tokRedirOutAppend, tokRedirErr, tokRedirErrAppend:
			i++
			if i >= len(toks) || toks[i].kind != tokWord {
				return nil, fmt.Errorf("miniparser: redirection missing target path")
			}
			mode := task.Truncate
			if tk.kind == tokRedirOutAppend || tk.kind == tokRedirErrAppend {
				mode = task.Append
			}
			red := task.Redirection{Kind: task.RedirectFile, Path: toks[i].text, Mode: mode}
			// The redirection targets whichever Task argv is currently being
			// built; apply it once that Task is flushed by stashing it on a
			// pending-task placeholder via a trailing no-op flush.
			if err := applyPendingRedirection(&head, &tail, &argv, tk.kind, red); err != nil {
				return nil, err
			}
		}
	}
	if len(argv) > 0 {
		if err := flushTask(task.Unrelated); err != nil {
			return nil, err
		}
	} else if head == nil {
		return nil, fmt.Errorf("miniparser: empty command")
	}
	return head, nil
}

// applyPendingRedirection records a redirection against the Task that will
// be built from the argv accumulated so far. Since flushTask hasn't run yet
// for the current word run, the redirection is kept in a side table keyed
// by position and applied once the owning Task exists.
func applyPendingRedirection(head, tail **task.Task, argv *[]string, kind tokenKind, red task.Redirection) error {
	if len(*argv) == 0 {
		return fmt.Errorf("miniparser: redirection with no preceding command")
	}
	t := task.NewTask(*argv)
	*argv = nil
	switch kind {
	case tokRedirOut, tokRedirOutAppend:
		t.Stdout = red
	case tokRedirErr, tokRedirErrAppend:
		t.Stderr = red
	}
	if *head == nil {
		*head, *tail = t, t
	} else {
		(*tail).Next = t
		*tail = t
	}
	return nil
}

// parseBuiltin recognizes the handful of keyword statements this parser
// supports outright (spec.md §4.4.3-§4.4.6); everything else falls through
// to parseExec, where the Runner's own alias/function resolution decides
// whether a bare word names an external command.
func parseBuiltin(words []token) (shellcore.Statement, bool) {
	if words[0].kind != tokWord {
		return shellcore.Statement{}, false
	}
	args := wordArgs(words[1:])
	switch words[0].text {
	case "cd":
		return shellcore.Statement{Kind: shellcore.StmtCd, Args: args}, true
	case "pushd":
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		return shellcore.Statement{Kind: shellcore.StmtPushd, Path: path}, true
	case "popd-front", "popd":
		return shellcore.Statement{Kind: shellcore.StmtPopdFront}, true
	case "popd-back":
		return shellcore.Statement{Kind: shellcore.StmtPopdBack}, true
	case "dirs":
		return shellcore.Statement{Kind: shellcore.StmtDirs}, true
	case "alias":
		return shellcore.Statement{Kind: shellcore.StmtAlias, Args: args}, true
	case "exit":
		code := uint8(0)
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil {
				code = uint8(v)
			}
		}
		return shellcore.Statement{Kind: shellcore.StmtExit, Code: code}, true
	case "source", ".":
		if len(args) == 0 {
			return shellcore.Statement{}, false
		}
		return shellcore.Statement{Kind: shellcore.StmtSource, Path: args[0]}, true
	case "read":
		prompt := ""
		hasMax := false
		maxSize := 0
		for i := 0; i < len(args); i++ {
			switch args[i] {
			case "-p":
				if i+1 < len(args) {
					i++
					prompt = args[i]
				}
			case "-n":
				if i+1 < len(args) {
					i++
					if v, err := strconv.Atoi(args[i]); err == nil {
						hasMax, maxSize = true, v
					}
				}
			}
		}
		return shellcore.Statement{Kind: shellcore.StmtRead, Prompt: prompt, HasMax: hasMax, MaxSize: maxSize}, true
	case "export":
		return builtinAssignment(shellcore.StmtExport, args)
	case "set":
		return builtinAssignment(shellcore.StmtSet, args)
	case "history":
		if len(args) == 1 {
			if v, err := strconv.Atoi(args[0]); err == nil {
				return shellcore.Statement{Kind: shellcore.StmtExecHistory, HistoryIndex: v}, true
			}
		}
		return shellcore.Statement{}, false
	}
	return shellcore.Statement{}, false
}

// builtinAssignment parses `export KEY=VALUE` / `set KEY=VALUE` into a
// Set/Export Statement whose rhs is a single literal Value statement
// (spec.md §4.4.3 evaluates the rhs expression for its captured stdout;
// here the rhs text is already fully known at parse time).
func builtinAssignment(kind shellcore.StatementKind, args []string) (shellcore.Statement, bool) {
	if len(args) == 0 {
		return shellcore.Statement{}, false
	}
	key, value, ok := strings.Cut(args[0], "=")
	if !ok {
		return shellcore.Statement{}, false
	}
	rest := strings.Join(args[1:], " ")
	if rest != "" {
		value = value + " " + rest
	}
	rhs := &shellcore.ShellExpression{
		Statements: []shellcore.Statement{{Kind: shellcore.StmtValue, Text: value}},
	}
	return shellcore.Statement{Kind: kind, Key: key, Expr: rhs}, true
}

func wordArgs(toks []token) []string {
	var out []string
	for _, t := range toks {
		if t.kind == tokWord {
			out = append(out, t.text)
		}
	}
	return out
}
