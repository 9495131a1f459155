package interpreter

import (
	"fmt"
	"strconv"
)

const (
	// MaxNestingDepth bounds IF/LOOP nesting. The outermost construct is at
	// depth 1.
	MaxNestingDepth = 3
	// MaxLoopCount is the largest LOOP count accepted.
	MaxLoopCount = 50
	// maxExprDepth bounds NOT chains and parentheses inside a condition. The
	// grammar allows any depth; this is a limit of the parser.
	maxExprDepth = 32
)

type parser struct {
	tokens []Token
	pos    int
	expr   int
}

// Parse builds a Program from tokens produced by Tokenize. It returns either a
// complete program or the first error found.
func Parse(tokens []Token) (*Program, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != EOF {
		tokens = append(append([]Token(nil), tokens...), Token{Kind: EOF})
	}
	p := &parser{tokens: tokens}

	stmts, err := p.block(0)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != EOF {
		return nil, p.unexpected(tok, "statement or end of input")
	}
	return &Program{Statements: stmts}, nil
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != EOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(k Kind) (Token, error) {
	tok := p.peek()
	if tok.Kind != k {
		return tok, p.unexpected(tok, k.String())
	}
	return p.next(), nil
}

func (p *parser) unexpected(tok Token, expected string) error {
	return &ParseError{Pos: tok.Pos, Expected: expected, Found: tok.String()}
}

// block reads statements until a token that cannot start one. depth is the
// nesting depth of the enclosing construct.
func (p *parser) block(depth int) ([]Statement, error) {
	var stmts []Statement
	for {
		tok := p.peek()
		switch {
		case tok.Kind.IsAction():
			p.next()
			stmts = append(stmts, &Action{Kind: tok.Kind, At: tok.Pos})
		case tok.Kind == IF:
			s, err := p.ifStmt(depth + 1)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		case tok.Kind == LOOP:
			s, err := p.loopStmt(depth + 1)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		default:
			return stmts, nil
		}
	}
}

func (p *parser) ifStmt(depth int) (*If, error) {
	tok := p.next()
	if depth > MaxNestingDepth {
		return nil, &NestingDepthError{Construct: "IF", Depth: depth, Limit: MaxNestingDepth, Pos: tok.Pos}
	}

	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	then, err := p.block(depth)
	if err != nil {
		return nil, err
	}

	node := &If{Cond: cond, Then: then, Depth: depth, At: tok.Pos}
	if p.peek().Kind == ELSE {
		p.next()
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		if node.Else, err = p.block(depth); err != nil {
			return nil, err
		}
		node.HasElse = true
	}

	if end := p.peek(); end.Kind != ENDIF {
		if node.HasElse {
			return nil, p.unexpected(end, "ENDIF")
		}
		return nil, p.unexpected(end, "ELSE or ENDIF")
	}
	p.next()
	return node, nil
}

func (p *parser) loopStmt(depth int) (*Loop, error) {
	tok := p.next()
	if depth > MaxNestingDepth {
		return nil, &NestingDepthError{Construct: "LOOP", Depth: depth, Limit: MaxNestingDepth, Pos: tok.Pos}
	}

	countTok, err := p.expect(INT)
	if err != nil {
		return nil, err
	}
	count, convErr := strconv.Atoi(countTok.Text)
	if convErr != nil || count < 1 || count > MaxLoopCount {
		return nil, &LoopLimitError{Count: countTok.Text, Limit: MaxLoopCount, Pos: countTok.Pos}
	}

	if p.peek().Kind == TIMES {
		p.next()
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	body, err := p.block(depth)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ENDLOOP); err != nil {
		return nil, err
	}
	return &Loop{Count: count, Body: body, Depth: depth, At: tok.Pos}, nil
}

// expression parses OR, the loosest binding operator.
func (p *parser) expression() (Expr, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == OR {
		op := p.next()
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OR, Left: left, Right: right, At: op.Pos}
	}
	return left, nil
}

func (p *parser) andExpr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == AND {
		op := p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: AND, Left: left, Right: right, At: op.Pos}
	}
	return left, nil
}

func (p *parser) term() (Expr, error) {
	tok := p.peek()
	switch {
	case tok.Kind.IsSensor():
		p.next()
		return &SensorRef{Sensor: tok.Kind, At: tok.Pos}, nil
	case tok.Kind == NOT, tok.Kind == LPAREN:
		if p.expr >= maxExprDepth {
			return nil, &ParseError{Pos: tok.Pos, Message: fmt.Sprintf("condition nested deeper than %d levels (parser limit)", maxExprDepth)}
		}
		p.expr++
		defer func() { p.expr-- }()

		p.next()
		if tok.Kind == NOT {
			operand, err := p.term()
			if err != nil {
				return nil, err
			}
			return &Not{Operand: operand, At: tok.Pos}, nil
		}
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, p.unexpected(tok, "sensor, NOT or '('")
}
