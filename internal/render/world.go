package render

import (
	"fmt"
	"strings"

	"vaultrunner/internal/world"
)

// World draws the grid with the bot on it. Opened doors show as '/', picked
// keys as plain floor.
func (r *Renderer) World(w *world.World, b *world.Bot) string {
	s := r.styles
	var sb strings.Builder
	for row := 0; row < w.Height(); row++ {
		for col := 0; col < w.Width(); col++ {
			p := world.Position{Row: row, Col: col}
			if b != nil && p == b.Pos {
				sb.WriteString(s.Bot.Render(string(b.Facing.Arrow())))
				continue
			}
			t, _ := w.TileAt(p)
			switch {
			case t == world.Wall:
				sb.WriteString(s.Wall.Render("#"))
			case t == world.Key && w.KeyAt(p):
				sb.WriteString(s.Key.Render("K"))
			case t == world.Door && w.DoorOpen(p):
				sb.WriteString(s.OpenDoor.Render("/"))
			case t == world.Door:
				sb.WriteString(s.Door.Render("D"))
			case t == world.Exit:
				sb.WriteString(s.Exit.Render("E"))
			default:
				sb.WriteString(s.Floor.Render("."))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// BotStatus is a one-line summary of the bot.
func (r *Renderer) BotStatus(b *world.Bot) string {
	key := "no"
	if b.HasKey {
		key = r.styles.Key.Render("yes")
	}
	return fmt.Sprintf("bot at %s facing %s, key: %s", b.Pos, b.Facing, key)
}
