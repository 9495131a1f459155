package cli

import (
	"errors"
	"fmt"

	"vaultrunner/internal/interpreter"
	"vaultrunner/internal/render"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitSyntax     = 2
	ExitConstraint = 3
	ExitAborted    = 4
)

// ExitError makes a command finish with a specific exit code. Reported means
// the message has already been shown to the user.
type ExitError struct {
	Code     int
	Err      error
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// compileExitCode separates malformed source from well-formed source that
// breaks a structural limit.
func compileExitCode(err error) int {
	switch {
	case errors.Is(err, interpreter.ErrNestingDepth), errors.Is(err, interpreter.ErrLoopLimit):
		return ExitConstraint
	case errors.Is(err, interpreter.ErrInvalidToken), errors.Is(err, interpreter.ErrSyntax):
		return ExitSyntax
	default:
		return ExitFailure
	}
}

// compileErrorJSON is the JSON shape of a lexer or parser failure.
type compileErrorJSON struct {
	Program  string                `json:"program"`
	Error    string                `json:"error"`
	Kind     string                `json:"kind"`
	Position *interpreter.Position `json:"position,omitempty"`
}

// reportCompileError shows err against its source and wraps it in an
// ExitError carrying the matching code.
func reportCompileError(r *render.Renderer, name, source string, err error) error {
	if r.IsJSON() {
		body := compileErrorJSON{Program: name, Error: err.Error(), Kind: interpreter.ErrorKind(err)}
		if pos, ok := interpreter.ErrorPosition(err); ok {
			body.Position = &pos
		}
		_ = r.JSON(body)
	} else {
		_, _ = fmt.Fprintf(r.ErrWriter(), "%s: %s\n", name, r.CompileError(source, err))
	}
	return &ExitError{Code: compileExitCode(err), Err: err, Reported: true}
}

// outcomeError maps a finished run to the command's error.
func outcomeError(out interpreter.Outcome) error {
	switch out.Status {
	case interpreter.Aborted:
		return &ExitError{Code: ExitAborted, Err: errors.New(out.String()), Reported: true}
	case interpreter.Failed:
		return &ExitError{Code: ExitFailure, Err: errors.New(out.String()), Reported: true}
	default:
		return nil
	}
}
