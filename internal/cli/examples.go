package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"vaultrunner/internal/examples"
)

type exampleResultJSON struct {
	Name    string `json:"name"`
	Map     string `json:"map"`
	Outcome any    `json:"outcome,omitempty"`
	Matches bool   `json:"matches"`
	Error   string `json:"error,omitempty"`
}

func newExamplesCommand() *cobra.Command {
	var run bool
	cmd := &cobra.Command{
		Use:   "examples",
		Short: "List the built-in example programs",
		Long: `List the built-in examples. With --run, run all of them concurrently and
compare each outcome with the one it is expected to reach.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r := GetRenderer(ctx)

			if !run {
				if r.IsJSON() {
					return r.JSON(examples.All())
				}
				r.ExampleList(examples.All())
				return nil
			}

			results, err := examples.RunAll(ctx, GetConfig(ctx).MaxSteps, GetLogger(ctx))
			if err != nil {
				return err
			}

			failed := 0
			for _, res := range results {
				if res.Err != nil || !res.Example.Matches(res.Outcome) {
					failed++
				}
			}

			if r.IsJSON() {
				out := make([]exampleResultJSON, len(results))
				for i, res := range results {
					out[i] = exampleResultJSON{Name: res.Example.Name, Map: res.Example.Map}
					if res.Err != nil {
						out[i].Error = res.Err.Error()
						continue
					}
					out[i].Outcome = res.Outcome
					out[i].Matches = res.Example.Matches(res.Outcome)
				}
				if err := r.JSON(out); err != nil {
					return err
				}
			} else {
				r.ExampleResults(results)
			}

			if failed > 0 {
				err := fmt.Errorf("%d of %d examples did not reach their expected outcome", failed, len(results))
				if !r.IsJSON() {
					r.Error(err.Error())
				}
				return &ExitError{Code: ExitFailure, Err: err, Reported: true}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&run, "run", false, "Run every example and check its outcome")
	cmd.Flags().Int("max-steps", 0, "Step limit for each run")
	return cmd
}
