package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"vaultrunner/internal/maps"
)

type mapJSON struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Grid        string   `json:"grid"`
	Warnings    []string `json:"warnings,omitempty"`
}

func newMapJSON(m *maps.Map) mapJSON {
	return mapJSON{
		Name:        m.Name,
		Description: m.Description,
		Width:       m.Width(),
		Height:      m.Height(),
		Grid:        m.String(),
		Warnings:    m.Lint(),
	}
}

func newMapsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maps",
		Short: "List the built-in maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := GetRenderer(cmd.Context())
			var list []*maps.Map
			for _, name := range maps.Names() {
				m, err := maps.Builtin(name)
				if err != nil {
					return err
				}
				list = append(list, m)
			}
			if r.IsJSON() {
				out := make([]mapJSON, len(list))
				for i, m := range list {
					out[i] = newMapJSON(m)
				}
				return r.JSON(out)
			}
			r.MapList(list)
			return nil
		},
	}
	cmd.AddCommand(newMapsShowCommand())
	return cmd
}

func newMapsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show <name|file>",
		Short:             "Draw a map with the bot at its start",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: mapNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := GetRenderer(cmd.Context())
			m, err := maps.Resolve(args[0])
			if err != nil {
				return err
			}
			if r.IsJSON() {
				return r.JSON(newMapJSON(m))
			}

			r.Header(fmt.Sprintf("%s (%dx%d)", m.Name, m.Width(), m.Height()))
			if m.Description != "" {
				r.Println(r.Muted(m.Description))
			}
			w, b := m.Instantiate()
			r.Printf("%s", r.World(w, b))
			r.Println(r.BotStatus(b))
			for _, warning := range m.Lint() {
				r.Warning(warning)
			}
			return nil
		},
	}
}
