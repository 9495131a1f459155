package render

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vaultrunner/internal/examples"
	"vaultrunner/internal/interpreter"
	"vaultrunner/internal/maps"
)

func (r *Renderer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	return t
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Trace prints one row per executed action.
func (r *Renderer) Trace(steps []interpreter.Step) {
	if len(steps) == 0 {
		r.Println(r.Muted("(no steps)"))
		return
	}
	t := r.newTable()
	t.AppendHeader(table.Row{"#", "Action", "Position", "Facing", "Key", "Effect"})
	for _, s := range steps {
		effect := "applied"
		if !s.Changed {
			effect = "no-op"
		}
		t.AppendRow(table.Row{s.Index, s.Action.String(), s.Position.String(), s.Facing.String(), yesNo(s.HasKey), effect})
	}
	t.Render()
}

// Tokens prints a token listing.
func (r *Renderer) Tokens(tokens []interpreter.Token) {
	t := r.newTable()
	t.AppendHeader(table.Row{"Line", "Col", "Kind", "Text"})
	for _, tok := range tokens {
		t.AppendRow(table.Row{tok.Pos.Line, tok.Pos.Column, tok.Kind.String(), tok.Text})
	}
	t.Render()
	r.Printf("(%d tokens)\n", len(tokens))
}

// MapList prints the given maps with their sizes.
func (r *Renderer) MapList(list []*maps.Map) {
	t := r.newTable()
	t.AppendHeader(table.Row{"Name", "Size", "Description"})
	for _, m := range list {
		t.AppendRow(table.Row{m.Name, fmt.Sprintf("%dx%d", m.Width(), m.Height()), m.Description})
	}
	t.Render()
}

// ExampleList prints the catalog without running anything.
func (r *Renderer) ExampleList(list []examples.Example) {
	t := r.newTable()
	t.AppendHeader(table.Row{"Name", "Map", "Description"})
	for _, e := range list {
		t.AppendRow(table.Row{e.Name, e.Map, e.Description})
	}
	t.Render()
}

// ExampleResults prints a row per example run and whether it matched.
func (r *Renderer) ExampleResults(results []examples.Result) {
	t := r.newTable()
	t.AppendHeader(table.Row{"Example", "Map", "Status", "Reason", "Steps", "At exit", "Expected"})
	for _, res := range results {
		if res.Err != nil {
			t.AppendRow(table.Row{res.Example.Name, res.Example.Map, r.styles.Error.Render("error"), res.Err.Error(), "", "", ""})
			continue
		}
		ok := r.styles.Success.Render("ok")
		if !res.Example.Matches(res.Outcome) {
			ok = r.styles.Error.Render("MISMATCH")
		}
		o := res.Outcome
		t.AppendRow(table.Row{res.Example.Name, res.Example.Map, o.Status.String(), string(o.Reason), o.Steps, yesNo(o.AtExit), ok})
	}
	t.Render()
}

// Outcome formats the final line of a run.
func (r *Renderer) Outcome(o interpreter.Outcome) string {
	caser := cases.Title(language.English)
	label := caser.String(o.Status.String())

	style := r.styles.Success
	switch o.Status {
	case interpreter.Aborted:
		style = r.styles.Warning
	case interpreter.Failed:
		style = r.styles.Error
	}

	line := fmt.Sprintf("%s (%s) after %s", style.Render(label), o.Reason, plural(o.Steps, "step"))
	if o.AtExit {
		line += ", bot at exit"
	}
	if o.Cause != "" {
		line += ": " + o.Cause
	}
	return line
}

// CompileError formats a lexer or parser error with a caret under the
// offending column of the source line.
func (r *Renderer) CompileError(source string, err error) string {
	pos, ok := interpreter.ErrorPosition(err)
	kind := interpreter.ErrorKind(err)
	if kind == "" {
		kind = "error"
	}
	msg := r.styles.Error.Render(kind) + ": " + err.Error()
	if !ok {
		return msg
	}
	line := sourceLine(source, pos.Line)
	if line == "" {
		return msg
	}
	caret := ""
	for i, c := range []rune(line) {
		if i >= pos.Column-1 {
			break
		}
		if c == '\t' {
			caret += "\t"
		} else {
			caret += " "
		}
	}
	return fmt.Sprintf("%s\n  %s\n  %s%s", msg, line, caret, r.styles.Error.Render("^"))
}

func sourceLine(source string, n int) string {
	line := 1
	start := 0
	for i, c := range source {
		if c != '\n' {
			continue
		}
		if line == n {
			return source[start:i]
		}
		line++
		start = i + 1
	}
	if line == n {
		return source[start:]
	}
	return ""
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

// IsCompileError reports whether err came from the lexer or parser.
func IsCompileError(err error) bool {
	return errors.Is(err, interpreter.ErrInvalidToken) ||
		errors.Is(err, interpreter.ErrSyntax) ||
		errors.Is(err, interpreter.ErrNestingDepth) ||
		errors.Is(err, interpreter.ErrLoopLimit)
}
