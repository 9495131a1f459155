package interpreter

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is; every positional error below unwraps to one.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrSyntax       = errors.New("syntax error")
	ErrNestingDepth = errors.New("nesting depth exceeded")
	ErrLoopLimit    = errors.New("loop limit exceeded")
)

// InvalidTokenError is a lexeme outside the vocabulary and the integer
// literal grammar.
type InvalidTokenError struct {
	Lexeme string
	Pos    Position
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("%s: invalid token %q", e.Pos, e.Lexeme)
}

func (e *InvalidTokenError) Unwrap() error { return ErrInvalidToken }

// ParseError is a structural grammar violation.
type ParseError struct {
	Pos      Position
	Expected string
	Found    string
	Message  string
}

func (e *ParseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return fmt.Sprintf("%s: expected %s, found %s", e.Pos, e.Expected, e.Found)
}

func (e *ParseError) Unwrap() error { return ErrSyntax }

// NestingDepthError reports an IF or LOOP nested deeper than the limit.
type NestingDepthError struct {
	Construct string
	Depth     int
	Limit     int
	Pos       Position
}

func (e *NestingDepthError) Error() string {
	return fmt.Sprintf("%s: %s nested at depth %d exceeds limit %d", e.Pos, e.Construct, e.Depth, e.Limit)
}

func (e *NestingDepthError) Unwrap() error { return ErrNestingDepth }

// LoopLimitError reports a LOOP count outside 1..Limit.
type LoopLimitError struct {
	Count string
	Limit int
	Pos   Position
}

func (e *LoopLimitError) Error() string {
	return fmt.Sprintf("%s: loop count %s outside 1..%d", e.Pos, e.Count, e.Limit)
}

func (e *LoopLimitError) Unwrap() error { return ErrLoopLimit }

// ErrorPosition extracts the source position from any compile error.
func ErrorPosition(err error) (Position, bool) {
	var (
		it *InvalidTokenError
		pe *ParseError
		ne *NestingDepthError
		le *LoopLimitError
	)
	switch {
	case errors.As(err, &it):
		return it.Pos, true
	case errors.As(err, &pe):
		return pe.Pos, true
	case errors.As(err, &ne):
		return ne.Pos, true
	case errors.As(err, &le):
		return le.Pos, true
	}
	return Position{}, false
}

// ErrorKind names the error class: "invalid-token", "parse-error",
// "nesting-depth-exceeded", "loop-limit-exceeded", or "" for anything else.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return "invalid-token"
	case errors.Is(err, ErrSyntax):
		return "parse-error"
	case errors.Is(err, ErrNestingDepth):
		return "nesting-depth-exceeded"
	case errors.Is(err, ErrLoopLimit):
		return "loop-limit-exceeded"
	}
	return ""
}
