package render

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"vaultrunner/internal/history"
)

// History prints recorded runs, newest first.
func (r *Renderer) History(entries []history.Entry) {
	if len(entries) == 0 {
		r.Println(r.Muted("(no recorded runs)"))
		return
	}
	t := r.newTable()
	t.AppendHeader(table.Row{"ID", "When", "Program", "Map", "Status", "Reason", "Steps"})
	for _, e := range entries {
		id := e.ID
		if len(id) > 8 {
			id = id[:8]
		}
		t.AppendRow(table.Row{id, e.CreatedAt.Local().Format(time.DateTime), e.Program, e.Map, e.Status, e.Reason, e.Steps})
	}
	t.Render()
}

// HistoryEntry prints one run in full.
func (r *Renderer) HistoryEntry(e history.Entry) {
	t := r.newTable()
	t.AppendRows([]table.Row{
		{"ID", e.ID},
		{"When", e.CreatedAt.Local().Format(time.RFC3339)},
		{"Program", e.Program},
		{"Map", e.Map},
		{"Source hash", e.SourceHash},
		{"Status", e.Status},
		{"Reason", e.Reason},
		{"Steps", e.Steps},
		{"At exit", yesNo(e.AtExit)},
	})
	if e.Cause != "" {
		t.AppendRow(table.Row{"Cause", e.Cause})
	}
	t.Render()
}
