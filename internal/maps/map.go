// Package maps loads grid descriptions and turns them into fresh worlds.
//
// Two formats are understood. The text format is the grid itself, one row
// per line, with the bot's start marked by its facing arrow:
//
//	; optional description
//	#######
//	#>...E#
//	#######
//
// The YAML format wraps the same rows with a name, a description and an
// optional explicit start. A Map is an immutable template; every call to
// Instantiate returns an independent World and Bot.
package maps

import (
	"fmt"
	"strings"

	"vaultrunner/internal/world"
)

// Map is a loaded grid template.
type Map struct {
	Name        string
	Description string
	Start       world.Position
	Facing      world.Direction

	rows [][]world.Tile
}

func (m *Map) Width() int  { return len(m.rows[0]) }
func (m *Map) Height() int { return len(m.rows) }

// Instantiate builds a fresh world and bot from the template.
func (m *Map) Instantiate() (*world.World, *world.Bot) {
	rows := make([][]world.Tile, len(m.rows))
	for i, r := range m.rows {
		rows[i] = append([]world.Tile(nil), r...)
	}
	// Rows were validated when the map was built.
	return world.MustNew(rows), world.NewBot(m.Start, m.Facing)
}

// Lint reports problems that do not stop a map from loading.
func (m *Map) Lint() []string {
	w, b := m.Instantiate()

	var warnings []string
	switch exits := len(w.Find(world.Exit)); exits {
	case 1:
	case 0:
		warnings = append(warnings, "map has no exit")
	default:
		warnings = append(warnings, fmt.Sprintf("map has %d exits, expected one", exits))
	}
	if doors, keys := len(w.Find(world.Door)), len(w.Find(world.Key)); doors > 0 && keys == 0 {
		warnings = append(warnings, fmt.Sprintf("map has %d door(s) but no key", doors))
	}
	if _, ok := w.FindPath(b.Pos); !ok && len(w.Find(world.Exit)) > 0 {
		warnings = append(warnings, "no exit is reachable from the start")
	}
	return warnings
}

// String renders the map in the text format, start arrow included.
func (m *Map) String() string {
	var sb strings.Builder
	if m.Description != "" {
		fmt.Fprintf(&sb, "; %s\n", m.Description)
	}
	for r, row := range m.rows {
		for c, t := range row {
			if r == m.Start.Row && c == m.Start.Col {
				sb.WriteRune(m.Facing.Arrow())
				continue
			}
			sb.WriteRune(t.Glyph())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
