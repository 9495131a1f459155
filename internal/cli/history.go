package cli

import (
	"github.com/spf13/cobra"

	"vaultrunner/internal/history"
)

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	ctx := cmd.Context()
	return history.Open(ctx, GetConfig(ctx).HistoryPath)
}

func newHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := GetRenderer(cmd.Context())
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if r.IsJSON() {
				if entries == nil {
					entries = []history.Entry{}
				}
				return r.JSON(entries)
			}
			r.History(entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.AddCommand(newHistoryShowCommand())
	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run",
		Long:  `Show one recorded run. A unique prefix of the id is enough.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := GetRenderer(cmd.Context())
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			e, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if r.IsJSON() {
				return r.JSON(e)
			}
			r.HistoryEntry(e)
			return nil
		},
	}
}
