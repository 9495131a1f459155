package world

import "fmt"

// Bot is the robot's mutable state. Sensors and actions take the world they
// act on explicitly; a bot never holds on to a world.
type Bot struct {
	Pos    Position
	Facing Direction
	HasKey bool
}

func NewBot(pos Position, facing Direction) *Bot {
	return &Bot{Pos: pos, Facing: facing}
}

// Ahead returns the cell directly in front of the bot.
func (b *Bot) Ahead() Position {
	return b.Pos.Step(b.Facing)
}

// FrontClear reports whether MOVE would succeed: the cell ahead is inside the
// grid and not a wall, and the bot is not standing in a doorway that is still
// closed.
func (b *Bot) FrontClear(w *World) bool {
	if w.ClosedDoorAt(b.Pos) {
		return false
	}
	return !w.IsWall(b.Ahead())
}

func (b *Bot) OnKey(w *World) bool  { return w.KeyAt(b.Pos) }
func (b *Bot) AtDoor(w *World) bool { return w.DoorAt(b.Pos) }
func (b *Bot) AtExit(w *World) bool { return w.ExitAt(b.Pos) }

// Move advances one cell if the front is clear. It reports whether the bot
// moved.
func (b *Bot) Move(w *World) bool {
	if !b.FrontClear(w) {
		return false
	}
	b.Pos = b.Ahead()
	return true
}

func (b *Bot) TurnLeft()  { b.Facing = b.Facing.Left() }
func (b *Bot) TurnRight() { b.Facing = b.Facing.Right() }

// Pick takes the key under the bot.
func (b *Bot) Pick(w *World) bool {
	if !w.ConsumeKey(b.Pos) {
		return false
	}
	b.HasKey = true
	return true
}

// Open unlocks the door under the bot. It needs the key and a door that is
// still closed.
func (b *Bot) Open(w *World) bool {
	if !b.HasKey || !b.AtDoor(w) {
		return false
	}
	return w.OpenDoor(b.Pos)
}

// Clone returns a copy of the bot.
func (b *Bot) Clone() *Bot {
	c := *b
	return &c
}

func (b *Bot) String() string {
	return fmt.Sprintf("%s facing %s", b.Pos, b.Facing)
}
