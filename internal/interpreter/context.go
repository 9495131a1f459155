package interpreter

import "vaultrunner/internal/world"

// frame is one statement list in progress. Loop bodies carry the loop and
// the number of iterations still to start after the current one.
type frame struct {
	body      []Statement
	next      int
	loop      *Loop
	remaining int
}

// Context is the state a program runs against: the world, the bot and the
// frame stack standing in for the host call stack.
type Context struct {
	World  *world.World
	Bot    *world.Bot
	frames []frame
}

func (c *Context) push(body []Statement) {
	c.frames = append(c.frames, frame{body: body})
}

func (c *Context) pushLoop(l *Loop) {
	c.frames = append(c.frames, frame{body: l.Body, loop: l, remaining: l.Count - 1})
}

// nextStatement returns the next statement to execute, unwinding finished
// frames and restarting loop bodies. It returns nil once the program is
// exhausted.
func (c *Context) nextStatement() Statement {
	for len(c.frames) > 0 {
		f := &c.frames[len(c.frames)-1]
		if f.next < len(f.body) {
			s := f.body[f.next]
			f.next++
			return s
		}
		if f.loop != nil && f.remaining > 0 {
			f.remaining--
			f.next = 0
			continue
		}
		c.frames = c.frames[:len(c.frames)-1]
	}
	return nil
}

// unwind drops every frame; used by END.
func (c *Context) unwind() {
	c.frames = c.frames[:0]
}

// Depth is the number of active frames, the program root included.
func (c *Context) Depth() int { return len(c.frames) }

// Eval evaluates a condition. Sensors cost nothing; AND and OR
// short-circuit left to right.
func (c *Context) Eval(e Expr) bool {
	switch e := e.(type) {
	case *SensorRef:
		return c.sense(e.Sensor)
	case *Not:
		return !c.Eval(e.Operand)
	case *Binary:
		if e.Op == AND {
			return c.Eval(e.Left) && c.Eval(e.Right)
		}
		return c.Eval(e.Left) || c.Eval(e.Right)
	}
	return false
}

func (c *Context) sense(k Kind) bool {
	switch k {
	case FRONT_CLEAR:
		return c.Bot.FrontClear(c.World)
	case ON_KEY:
		return c.Bot.OnKey(c.World)
	case AT_DOOR:
		return c.Bot.AtDoor(c.World)
	case AT_EXIT:
		return c.Bot.AtExit(c.World)
	case HAVE_KEY:
		return c.Bot.HasKey
	}
	return false
}

// apply performs an action and reports whether it changed any state.
func (c *Context) apply(k Kind) bool {
	switch k {
	case MOVE:
		return c.Bot.Move(c.World)
	case LEFT:
		c.Bot.TurnLeft()
		return true
	case RIGHT:
		c.Bot.TurnRight()
		return true
	case PICK:
		return c.Bot.Pick(c.World)
	case OPEN:
		return c.Bot.Open(c.World)
	}
	return false
}
