package interpreter

import (
	"fmt"
	"strings"
)

// Statement is an Action, an If or a Loop.
type Statement interface {
	Pos() Position
	stmt()
}

// Expr is a SensorRef, a Not or a Binary.
type Expr interface {
	Pos() Position
	expr()
}

// Program is a parsed source file.
type Program struct {
	Statements []Statement
}

// Action is a single step-consuming statement. END is an action too.
type Action struct {
	Kind Kind
	At   Position
}

// If is a conditional. Depth is 1 for an outermost construct.
type If struct {
	Cond    Expr
	Then    []Statement
	Else    []Statement
	HasElse bool
	Depth   int
	At      Position
}

// Loop repeats Body a fixed Count of times.
type Loop struct {
	Count int
	Body  []Statement
	Depth int
	At    Position
}

type SensorRef struct {
	Sensor Kind
	At     Position
}

type Not struct {
	Operand Expr
	At      Position
}

// Binary is AND or OR.
type Binary struct {
	Op    Kind
	Left  Expr
	Right Expr
	At    Position
}

func (a *Action) Pos() Position    { return a.At }
func (i *If) Pos() Position        { return i.At }
func (l *Loop) Pos() Position      { return l.At }
func (s *SensorRef) Pos() Position { return s.At }
func (n *Not) Pos() Position       { return n.At }
func (b *Binary) Pos() Position    { return b.At }

func (*Action) stmt() {}
func (*If) stmt()     {}
func (*Loop) stmt()   {}

func (*SensorRef) expr() {}
func (*Not) expr()       {}
func (*Binary) expr()    {}

// String renders canonical source: one statement per line, bodies indented
// by two spaces and nested binary operands parenthesised. The output parses
// back to an identical tree.
func (p *Program) String() string {
	var sb strings.Builder
	writeBlock(&sb, p.Statements, 0)
	return sb.String()
}

func writeBlock(sb *strings.Builder, stmts []Statement, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, s := range stmts {
		switch s := s.(type) {
		case *Action:
			fmt.Fprintf(sb, "%s%s\n", pad, s.Kind)
		case *If:
			fmt.Fprintf(sb, "%sIF %s:\n", pad, FormatExpr(s.Cond))
			writeBlock(sb, s.Then, indent+1)
			if s.HasElse {
				fmt.Fprintf(sb, "%sELSE:\n", pad)
				writeBlock(sb, s.Else, indent+1)
			}
			fmt.Fprintf(sb, "%sENDIF\n", pad)
		case *Loop:
			fmt.Fprintf(sb, "%sLOOP %d TIMES:\n", pad, s.Count)
			writeBlock(sb, s.Body, indent+1)
			fmt.Fprintf(sb, "%sENDLOOP\n", pad)
		}
	}
}

// FormatExpr renders a condition in source form.
func FormatExpr(e Expr) string {
	switch e := e.(type) {
	case *SensorRef:
		return e.Sensor.String()
	case *Not:
		return "NOT " + formatOperand(e.Operand)
	case *Binary:
		return formatOperand(e.Left) + " " + e.Op.String() + " " + formatOperand(e.Right)
	}
	return ""
}

func formatOperand(e Expr) string {
	if _, ok := e.(*Binary); ok {
		return "(" + FormatExpr(e) + ")"
	}
	return FormatExpr(e)
}

// Walk calls fn for every statement in pre-order.
func Walk(stmts []Statement, fn func(Statement)) {
	for _, s := range stmts {
		fn(s)
		switch s := s.(type) {
		case *If:
			Walk(s.Then, fn)
			Walk(s.Else, fn)
		case *Loop:
			Walk(s.Body, fn)
		}
	}
}

// Stats summarises a program's shape.
type Stats struct {
	Statements int `json:"statements"`
	Actions    int `json:"actions"`
	Ifs        int `json:"ifs"`
	Loops      int `json:"loops"`
	MaxDepth   int `json:"max_depth"`
}

func (p *Program) Stats() Stats {
	var st Stats
	Walk(p.Statements, func(s Statement) {
		st.Statements++
		switch s := s.(type) {
		case *Action:
			st.Actions++
		case *If:
			st.Ifs++
			st.MaxDepth = max(st.MaxDepth, s.Depth)
		case *Loop:
			st.Loops++
			st.MaxDepth = max(st.MaxDepth, s.Depth)
		}
	})
	return st
}
