package maps

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"vaultrunner/internal/world"
)

var (
	ErrNoStart       = errors.New("map has no start")
	ErrMultipleStart = errors.New("map has more than one start")
)

// yamlMap is the on-disk YAML shape.
type yamlMap struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Start       *yamlStart `yaml:"start,omitempty"`
	Grid        []string   `yaml:"grid"`
}

type yamlStart struct {
	Row    int    `yaml:"row"`
	Col    int    `yaml:"col"`
	Facing string `yaml:"facing"`
}

// Load reads a map file. Files ending in .yaml or .yml are YAML; anything
// else is the text grid format. The map is named after the file unless the
// YAML names it.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var m *Map
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err = ParseYAML(name, data)
	default:
		m, err = ParseText(name, string(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing map %s: %w", path, err)
	}
	return m, nil
}

// ParseText parses the text grid format.
func ParseText(name, text string) (*Map, error) {
	var (
		desc string
		grid []string
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.HasPrefix(strings.TrimSpace(line), ";") {
			if desc == "" {
				desc = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), ";"))
			}
			continue
		}
		grid = append(grid, line)
	}
	grid = trimBlank(grid)

	m, err := build(name, grid, nil)
	if err != nil {
		return nil, err
	}
	m.Description = desc
	return m, nil
}

// ParseYAML parses the YAML format. fallbackName is used when the document
// has no name.
func ParseYAML(fallbackName string, data []byte) (*Map, error) {
	var doc yamlMap
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	name := doc.Name
	if name == "" {
		name = fallbackName
	}
	m, err := build(name, doc.Grid, doc.Start)
	if err != nil {
		return nil, err
	}
	m.Description = doc.Description
	return m, nil
}

func trimBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// build converts glyph rows into a Map. An explicit start overrides any
// arrow glyph; the arrow's cell is floor either way.
func build(name string, grid []string, start *yamlStart) (*Map, error) {
	if len(grid) == 0 {
		return nil, world.ErrEmptyGrid
	}

	m := &Map{Name: name}
	found := 0
	width := -1
	for r, line := range grid {
		cells := []rune(line)
		if width < 0 {
			width = len(cells)
		} else if len(cells) != width {
			return nil, fmt.Errorf("row %d has width %d, expected %d", r+1, len(cells), width)
		}

		row := make([]world.Tile, len(cells))
		for c, g := range cells {
			if d, ok := world.DirectionFromArrow(g); ok {
				found++
				m.Start = world.Position{Row: r, Col: c}
				m.Facing = d
				row[c] = world.Floor
				continue
			}
			t, ok := world.TileFromGlyph(g)
			if !ok {
				return nil, fmt.Errorf("row %d, column %d: unknown glyph %q", r+1, c+1, g)
			}
			row[c] = t
		}
		m.rows = append(m.rows, row)
	}
	if width == 0 {
		return nil, world.ErrEmptyGrid
	}

	if start != nil {
		d, err := world.ParseDirection(start.Facing)
		if err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
		m.Start = world.Position{Row: start.Row, Col: start.Col}
		m.Facing = d
		found = 1
	}
	switch {
	case found == 0:
		return nil, ErrNoStart
	case found > 1:
		return nil, ErrMultipleStart
	}

	if m.Start.Row < 0 || m.Start.Row >= len(m.rows) || m.Start.Col < 0 || m.Start.Col >= width {
		return nil, fmt.Errorf("start %s is outside the grid", m.Start)
	}
	if m.rows[m.Start.Row][m.Start.Col] == world.Wall {
		return nil, fmt.Errorf("start %s is a wall", m.Start)
	}
	return m, nil
}
