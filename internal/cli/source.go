package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vaultrunner/internal/examples"
	"vaultrunner/internal/history"
	"vaultrunner/internal/interpreter"
	"vaultrunner/internal/maps"
	"vaultrunner/internal/render"
)

// defaultMapName is used when neither --map nor an example names one.
const defaultMapName = "corridor"

// programSource is a program read from a file, stdin or the example catalog.
type programSource struct {
	Name       string
	Path       string
	Source     string
	Map        string
	HaltOnExit bool
}

// loadSource resolves ref as "-" (stdin), a file path or an example name,
// in that order.
func loadSource(cmd *cobra.Command, ref string) (programSource, error) {
	if ref == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return programSource{}, fmt.Errorf("reading stdin: %w", err)
		}
		return programSource{Name: "stdin", Source: string(data)}, nil
	}

	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		data, err := os.ReadFile(ref)
		if err != nil {
			return programSource{}, fmt.Errorf("reading program %s: %w", ref, err)
		}
		return programSource{Name: filepath.Base(ref), Path: ref, Source: string(data)}, nil
	}

	if e, ok := examples.Get(ref); ok {
		return programSource{Name: e.Name, Source: e.Source, Map: e.Map, HaltOnExit: e.HaltOnExit}, nil
	}
	return programSource{}, fmt.Errorf("%s: no such file or example", ref)
}

// resolveMap picks the map for src: the --map value, then the example's
// own map, then the default.
func resolveMap(r *render.Renderer, flagValue string, src programSource) (*maps.Map, error) {
	ref := flagValue
	switch {
	case ref != "":
	case src.Map != "":
		ref = src.Map
	default:
		ref = defaultMapName
		if !r.IsJSON() {
			r.Warning(fmt.Sprintf("no --map given, using %s", defaultMapName))
		}
	}
	m, err := maps.Resolve(ref)
	if err != nil {
		return nil, err
	}
	for _, w := range m.Lint() {
		r.Warning(fmt.Sprintf("map %s: %s", m.Name, w))
	}
	return m, nil
}

// recordRun stores a finished run when history is enabled. Failures are
// warnings; a run never fails because its history could not be written.
func recordRun(ctx context.Context, src programSource, mapName string, out interpreter.Outcome) string {
	cfg := GetConfig(ctx)
	if !cfg.History {
		return ""
	}
	r := GetRenderer(ctx)

	store, err := history.Open(ctx, cfg.HistoryPath)
	if err != nil {
		r.Warning(fmt.Sprintf("history disabled: %v", err))
		return ""
	}
	defer func() { _ = store.Close() }()

	e, err := store.Record(ctx, history.NewEntry(src.Name, mapName, src.Source, out))
	if err != nil {
		r.Warning(err.Error())
		return ""
	}
	GetLogger(ctx).Debug("run recorded", "id", e.ID, "path", cfg.HistoryPath)
	return e.ID
}

// exampleNames completes program arguments with example names alongside
// files.
func exampleNames(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return examples.Names(), cobra.ShellCompDirectiveDefault
}

func mapNames(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return maps.Names(), cobra.ShellCompDirectiveDefault
}
