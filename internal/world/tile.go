// Package world models the grid the robot walks through: tiles, the world
// itself with its opened doors and consumed keys, and the bot.
package world

import (
	"fmt"
	"strings"
)

// Tile classifies one grid cell.
type Tile uint8

const (
	Floor Tile = iota
	Wall
	Key
	Door
	Exit
)

var tileNames = [...]string{
	Floor: "FLOOR",
	Wall:  "WALL",
	Key:   "KEY",
	Door:  "DOOR",
	Exit:  "EXIT",
}

func (t Tile) String() string {
	if int(t) < len(tileNames) {
		return tileNames[t]
	}
	return fmt.Sprintf("Tile(%d)", t)
}

// Glyph returns the map character for the tile.
func (t Tile) Glyph() rune {
	switch t {
	case Wall:
		return '#'
	case Key:
		return 'K'
	case Door:
		return 'D'
	case Exit:
		return 'E'
	default:
		return '.'
	}
}

// TileFromGlyph maps a map character to a tile. W and F are accepted as
// aliases for wall and floor.
func TileFromGlyph(r rune) (Tile, bool) {
	switch r {
	case '.', 'F':
		return Floor, true
	case '#', 'W':
		return Wall, true
	case 'K':
		return Key, true
	case 'D':
		return Door, true
	case 'E':
		return Exit, true
	}
	return Floor, false
}

// Direction is one of the four cardinal facings, ordered clockwise.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

// Left returns the facing after a 90 degree counter-clockwise turn.
func (d Direction) Left() Direction { return (d + 3) % 4 }

// Right returns the facing after a 90 degree clockwise turn.
func (d Direction) Right() Direction { return (d + 1) % 4 }

// Delta returns the row and column offset of one step in direction d.
func (d Direction) Delta() (dr, dc int) {
	switch d {
	case North:
		return -1, 0
	case East:
		return 0, 1
	case South:
		return 1, 0
	default:
		return 0, -1
	}
}

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	}
	return fmt.Sprintf("Direction(%d)", d)
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Arrow is the glyph used for a bot facing d.
func (d Direction) Arrow() rune {
	switch d {
	case North:
		return '^'
	case East:
		return '>'
	case South:
		return 'v'
	default:
		return '<'
	}
}

// ParseDirection accepts N/E/S/W and the full names, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH":
		return North, nil
	case "E", "EAST":
		return East, nil
	case "S", "SOUTH":
		return South, nil
	case "W", "WEST":
		return West, nil
	}
	return North, fmt.Errorf("unknown direction %q", s)
}

// DirectionFromArrow maps a bot glyph (^ > v <) to its facing.
func DirectionFromArrow(r rune) (Direction, bool) {
	switch r {
	case '^':
		return North, true
	case '>':
		return East, true
	case 'v':
		return South, true
	case '<':
		return West, true
	}
	return North, false
}

// Position is a cell coordinate; row 0 is the top of the map.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Step returns the neighbouring position in direction d.
func (p Position) Step(d Direction) Position {
	dr, dc := d.Delta()
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}
