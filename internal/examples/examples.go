// Package examples ships the built-in programs together with the map each
// one is meant to run on and the outcome it should reach.
package examples

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"vaultrunner/internal/interpreter"
	"vaultrunner/internal/maps"
)

//go:embed catalog.yaml programs/*.vr
var files embed.FS

// Expectation is the outcome an example is known to produce with the
// default step limit.
type Expectation struct {
	Status string `yaml:"status" json:"status"`
	Reason string `yaml:"reason" json:"reason"`
	Steps  int    `yaml:"steps" json:"steps"`
}

type Example struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	Map         string      `yaml:"map" json:"map"`
	HaltOnExit  bool        `yaml:"halt_on_exit" json:"halt_on_exit"`
	Expect      Expectation `yaml:"expect" json:"expect"`
	Source      string      `yaml:"-" json:"source"`
}

var catalog = mustLoad()

func mustLoad() []Example {
	data, err := files.ReadFile("catalog.yaml")
	if err != nil {
		panic(err)
	}
	var list []Example
	if err := yaml.Unmarshal(data, &list); err != nil {
		panic(fmt.Sprintf("examples catalog: %v", err))
	}
	for i := range list {
		src, err := files.ReadFile("programs/" + list[i].Name + ".vr")
		if err != nil {
			panic(fmt.Sprintf("example %s: %v", list[i].Name, err))
		}
		list[i].Source = string(src)
	}
	return list
}

// All returns the examples in catalog order.
func All() []Example {
	return append([]Example(nil), catalog...)
}

// Get looks an example up by name.
func Get(name string) (Example, bool) {
	for _, e := range catalog {
		if e.Name == name {
			return e, true
		}
	}
	return Example{}, false
}

func Names() []string {
	names := make([]string, len(catalog))
	for i, e := range catalog {
		names[i] = e.Name
	}
	return names
}

// Matches reports whether out is the expected outcome.
func (e Example) Matches(out interpreter.Outcome) bool {
	return out.Status.String() == e.Expect.Status &&
		string(out.Reason) == e.Expect.Reason &&
		out.Steps == e.Expect.Steps
}

// Result is one example run.
type Result struct {
	Example Example
	Outcome interpreter.Outcome
	Trace   []interpreter.Step
	Err     error
}

// Run compiles the example and runs it on a fresh instance of its map.
func (e Example) Run(maxSteps int, opts ...interpreter.Option) Result {
	res := Result{Example: e}
	prog, err := interpreter.Compile(e.Source)
	if err != nil {
		res.Err = fmt.Errorf("compiling %s: %w", e.Name, err)
		return res
	}
	m, err := maps.Builtin(e.Map)
	if err != nil {
		res.Err = fmt.Errorf("example %s: %w", e.Name, err)
		return res
	}
	w, b := m.Instantiate()
	opts = append([]interpreter.Option{
		interpreter.WithHaltOnExit(e.HaltOnExit),
		interpreter.WithTrace(func(s interpreter.Step) { res.Trace = append(res.Trace, s) }),
	}, opts...)
	res.Outcome = interpreter.Run(prog, w, b, maxSteps, opts...)
	return res
}

// RunAll runs every example concurrently. Each run owns its world, so the
// only shared state is the result slot it writes.
func RunAll(ctx context.Context, maxSteps int, logger *slog.Logger) ([]Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	list := All()
	results := make([]Result, len(list))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, e := range list {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.Run(maxSteps, interpreter.WithLogger(logger.With("example", e.Name)))
			logger.Debug("example finished", "example", e.Name, "outcome", results[i].Outcome.String())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
