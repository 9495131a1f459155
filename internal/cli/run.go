package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"vaultrunner/internal/interpreter"
	"vaultrunner/internal/tui"
)

type runOptions struct {
	mapRef  string
	trace   bool
	animate bool
	paused  bool
}

// runReport is the JSON output of run.
type runReport struct {
	Program string              `json:"program"`
	Map     string              `json:"map"`
	Outcome interpreter.Outcome `json:"outcome"`
	World   string              `json:"world"`
	Trace   []interpreter.Step  `json:"trace,omitempty"`
	RunID   string              `json:"run_id,omitempty"`
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVarP(&opts.mapRef, "map", "m", "", "Built-in map name or map file")
	cmd.Flags().Int("max-steps", 0, "Abort after this many actions")
	cmd.Flags().Bool("halt-on-exit", false, "Stop as soon as the bot reaches an exit")
	_ = cmd.RegisterFlagCompletionFunc("map", mapNames)
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <file|example|->",
		Short: "Compile and run a program",
		Long: `Compile a program and run it on a map.

The argument is a source file, "-" for stdin, or the name of a built-in
example (see "vaultrunner examples"). Examples bring their own map;
--map overrides it.

Exit status is 2 for syntax errors, 3 for nesting or loop limit
violations and 4 when the run hits the step limit.`,
		Example: `  vaultrunner run corridor
  vaultrunner run escape.vr --map vault --trace
  vaultrunner run escape.vr -m maps/cave.txt --animate`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: exampleNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(cmd, args[0], opts)
		},
	}
	addRunFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Print every executed action")
	cmd.Flags().BoolVar(&opts.animate, "animate", false, "Animate the run in the terminal")
	cmd.Flags().Int("delay-ms", 0, "Delay between animation frames")
	return cmd
}

func newAnimateCommand() *cobra.Command {
	opts := &runOptions{animate: true}
	cmd := &cobra.Command{
		Use:   "animate <file|example|->",
		Short: "Watch a program run step by step",
		Long: `Animate a run in the terminal.

Keys: space pauses and resumes, n runs a single action, r restarts, q quits.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: exampleNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !GetRenderer(cmd.Context()).IsTTY() {
				return errors.New("animate needs a terminal; use run --trace instead")
			}
			return runProgram(cmd, args[0], opts)
		},
	}
	addRunFlags(cmd, opts)
	cmd.Flags().Int("delay-ms", 0, "Delay between frames")
	cmd.Flags().BoolVar(&opts.paused, "paused", false, "Start paused")
	return cmd
}

func runProgram(cmd *cobra.Command, ref string, opts *runOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	r := GetRenderer(ctx)
	logger := GetLogger(ctx)

	src, err := loadSource(cmd, ref)
	if err != nil {
		return err
	}
	prog, err := interpreter.Compile(src.Source)
	if err != nil {
		return reportCompileError(r, src.Name, src.Source, err)
	}
	m, err := resolveMap(r, opts.mapRef, src)
	if err != nil {
		return err
	}
	halt := cfg.HaltOnExit || src.HaltOnExit

	if opts.animate {
		if r.IsTTY() && !r.IsJSON() {
			out, done, err := tui.Run(ctx, tui.Options{
				Title:      src.Name + " on " + m.Name,
				Program:    prog,
				Map:        m,
				MaxSteps:   cfg.MaxSteps,
				HaltOnExit: halt,
				Delay:      time.Duration(cfg.DelayMS) * time.Millisecond,
				Paused:     opts.paused,
				Renderer:   r,
				Logger:     logger,
			}, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !done {
				return nil
			}
			recordRun(ctx, src, m.Name, out)
			r.Println(r.Outcome(out))
			return outcomeError(out)
		}
		r.Warning("not a terminal, running without animation")
	}

	w, b := m.Instantiate()
	var trace []interpreter.Step
	out := interpreter.Run(prog, w, b, cfg.MaxSteps,
		interpreter.WithHaltOnExit(halt),
		interpreter.WithLogger(logger),
		interpreter.WithTrace(func(s interpreter.Step) { trace = append(trace, s) }),
	)
	logger.Info("run finished", "program", src.Name, "map", m.Name, "outcome", out.String())
	id := recordRun(ctx, src, m.Name, out)

	if r.IsJSON() {
		report := runReport{
			Program: src.Name,
			Map:     m.Name,
			Outcome: out,
			World:   r.World(w, b),
			RunID:   id,
		}
		if opts.trace {
			report.Trace = trace
		}
		if err := r.JSON(report); err != nil {
			return err
		}
		return outcomeError(out)
	}

	r.Printf("%s", r.World(w, b))
	if opts.trace {
		r.Trace(trace)
	}
	r.Println(r.Outcome(out))
	return outcomeError(out)
}
