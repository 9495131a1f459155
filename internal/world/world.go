package world

import (
	"errors"
	"fmt"
)

// World is a fixed-size grid of tiles plus the doors opened and keys
// consumed during a run. The grid itself never changes after New.
type World struct {
	width, height int
	tiles         []Tile
	opened        map[Position]bool
	consumed      map[Position]bool
}

// ErrEmptyGrid is returned by New when the grid has no cells.
var ErrEmptyGrid = errors.New("world grid is empty")

// New builds a world from rows of tiles. Rows must share one width.
func New(rows [][]Tile) (*World, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	w := &World{
		width:    len(rows[0]),
		height:   len(rows),
		opened:   make(map[Position]bool),
		consumed: make(map[Position]bool),
	}
	w.tiles = make([]Tile, 0, w.width*w.height)
	for r, row := range rows {
		if len(row) != w.width {
			return nil, fmt.Errorf("row %d has width %d, expected %d", r, len(row), w.width)
		}
		w.tiles = append(w.tiles, row...)
	}
	return w, nil
}

// MustNew is New for literals in tests and embedded maps.
func MustNew(rows [][]Tile) *World {
	w, err := New(rows)
	if err != nil {
		panic(err)
	}
	return w
}

func (w *World) Width() int  { return w.width }
func (w *World) Height() int { return w.height }

func (w *World) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < w.height && p.Col >= 0 && p.Col < w.width
}

// TileAt returns the tile at p; ok is false outside the grid.
func (w *World) TileAt(p Position) (t Tile, ok bool) {
	if !w.InBounds(p) {
		return Floor, false
	}
	return w.tiles[p.Row*w.width+p.Col], true
}

func (w *World) is(p Position, t Tile) bool {
	got, ok := w.TileAt(p)
	return ok && got == t
}

// IsWall reports whether p is a wall or lies outside the grid.
func (w *World) IsWall(p Position) bool {
	t, ok := w.TileAt(p)
	return !ok || t == Wall
}

// KeyAt reports an unconsumed key at p.
func (w *World) KeyAt(p Position) bool {
	return w.is(p, Key) && !w.consumed[p]
}

func (w *World) DoorAt(p Position) bool { return w.is(p, Door) }
func (w *World) ExitAt(p Position) bool { return w.is(p, Exit) }

// DoorOpen reports whether the door at p has been opened.
func (w *World) DoorOpen(p Position) bool { return w.opened[p] }

// ClosedDoorAt reports a door at p that has not been opened yet.
func (w *World) ClosedDoorAt(p Position) bool {
	return w.DoorAt(p) && !w.opened[p]
}

// ConsumeKey marks the key at p as taken. It reports false when there is no
// key left at p.
func (w *World) ConsumeKey(p Position) bool {
	if !w.KeyAt(p) {
		return false
	}
	w.consumed[p] = true
	return true
}

// OpenDoor marks the door at p as opened. It reports false when p is not a
// closed door.
func (w *World) OpenDoor(p Position) bool {
	if !w.ClosedDoorAt(p) {
		return false
	}
	w.opened[p] = true
	return true
}

// Find returns every position holding tile t, in row-major order.
func (w *World) Find(t Tile) []Position {
	var out []Position
	for i, got := range w.tiles {
		if got == t {
			out = append(out, Position{Row: i / w.width, Col: i % w.width})
		}
	}
	return out
}

// Clone returns an independent copy including opened doors and consumed keys.
func (w *World) Clone() *World {
	c := &World{
		width:    w.width,
		height:   w.height,
		tiles:    append([]Tile(nil), w.tiles...),
		opened:   make(map[Position]bool, len(w.opened)),
		consumed: make(map[Position]bool, len(w.consumed)),
	}
	for p := range w.opened {
		c.opened[p] = true
	}
	for p := range w.consumed {
		c.consumed[p] = true
	}
	return c
}

// FindPath runs a breadth-first search from start to the nearest exit over
// non-wall cells, treating every door as passable. It is a reachability
// check for map validation, not a solver for programs.
func (w *World) FindPath(start Position) ([]Position, bool) {
	if w.IsWall(start) {
		return nil, false
	}
	prev := map[Position]Position{}
	visited := map[Position]bool{start: true}
	queue := []Position{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if w.ExitAt(cur) {
			path := []Position{cur}
			for p, ok := prev[cur]; ok; p, ok = prev[p] {
				path = append(path, p)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path, true
		}
		for _, d := range []Direction{North, East, South, West} {
			next := cur.Step(d)
			if visited[next] || w.IsWall(next) {
				continue
			}
			visited[next] = true
			prev[next] = cur
			queue = append(queue, next)
		}
	}
	return nil, false
}
