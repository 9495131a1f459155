package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vaultrunner/internal/interpreter"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file|example|->...",
		Short: "Compile programs without running them",
		Long: `Tokenize and parse each program, reporting the first error in each with
its line and column. Nothing is executed.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: exampleNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := GetRenderer(cmd.Context())

			type checkResult struct {
				Program string             `json:"program"`
				OK      bool               `json:"ok"`
				Error   string             `json:"error,omitempty"`
				Kind    string             `json:"kind,omitempty"`
				Stats   *interpreter.Stats `json:"stats,omitempty"`
			}
			var (
				results []checkResult
				first   error
			)
			for _, ref := range args {
				src, err := loadSource(cmd, ref)
				if err != nil {
					return err
				}
				prog, err := interpreter.Compile(src.Source)
				if err != nil {
					exitErr := &ExitError{Code: compileExitCode(err), Err: err, Reported: true}
					if r.IsJSON() {
						results = append(results, checkResult{Program: src.Name, Error: err.Error(), Kind: interpreter.ErrorKind(err)})
					} else {
						_ = reportCompileError(r, src.Name, src.Source, err)
					}
					if first == nil {
						first = exitErr
					}
					continue
				}
				st := prog.Stats()
				results = append(results, checkResult{Program: src.Name, OK: true, Stats: &st})
				if !r.IsJSON() {
					r.Success(fmt.Sprintf("%s: ok (%d statements, %d actions, depth %d)",
						src.Name, st.Statements, st.Actions, st.MaxDepth))
				}
			}
			if r.IsJSON() {
				if err := r.JSON(results); err != nil {
					return err
				}
			}
			return first
		},
	}
}

func newTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "tokens <file|example|->",
		Short:             "Print the token stream of a program",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: exampleNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := GetRenderer(cmd.Context())
			src, err := loadSource(cmd, args[0])
			if err != nil {
				return err
			}
			tokens, err := interpreter.Tokenize(src.Source)
			if err != nil {
				return reportCompileError(r, src.Name, src.Source, err)
			}
			if r.IsJSON() {
				return r.JSON(tokens)
			}
			r.Tokens(tokens)
			return nil
		},
	}
}

// errNotFormatted signals fmt --check found a difference.
var errNotFormatted = errors.New("not canonically formatted")

func newFmtCommand() *cobra.Command {
	var write, check bool
	cmd := &cobra.Command{
		Use:   "fmt <file|example|->",
		Short: "Print a program in canonical form",
		Long: `Parse a program and print it back with one statement per line, two-space
indentation, explicit TIMES and ENDIF/ENDLOOP terminators.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: exampleNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := GetRenderer(cmd.Context())
			src, err := loadSource(cmd, args[0])
			if err != nil {
				return err
			}
			prog, err := interpreter.Compile(src.Source)
			if err != nil {
				return reportCompileError(r, src.Name, src.Source, err)
			}
			formatted := prog.String()

			switch {
			case check:
				if formatted != src.Source {
					r.Warning(fmt.Sprintf("%s is %s", src.Name, errNotFormatted))
					return &ExitError{Code: ExitFailure, Err: errNotFormatted, Reported: true}
				}
				return nil
			case write:
				if src.Path == "" {
					return fmt.Errorf("--write needs a file, %s is not one", src.Name)
				}
				if formatted == src.Source {
					return nil
				}
				info, err := os.Stat(src.Path)
				if err != nil {
					return err
				}
				if err := os.WriteFile(src.Path, []byte(formatted), info.Mode().Perm()); err != nil {
					return fmt.Errorf("writing %s: %w", src.Path, err)
				}
				r.Success("formatted " + src.Path)
				return nil
			default:
				r.Printf("%s", formatted)
				return nil
			}
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Rewrite the file in place")
	cmd.Flags().BoolVar(&check, "check", false, "Exit with status 1 if the file is not formatted")
	return cmd
}
