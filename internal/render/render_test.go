package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultrunner/internal/examples"
	"vaultrunner/internal/interpreter"
	"vaultrunner/internal/maps"
	"vaultrunner/internal/world"
)

func plainRenderer() (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, false, ModeAuto, ColorAuto), out, errOut
}

func TestNewRenderer_Modes(t *testing.T) {
	r, _, _ := plainRenderer()
	assert.Equal(t, ModeText, r.Mode())
	assert.False(t, r.IsTTY())

	j := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, true, ModeJSON, ColorAlways)
	assert.True(t, j.IsJSON())
	assert.Equal(t, "x", j.Styles().Error.Render("x"), "JSON output is never coloured")

	c := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, false, ModeText, ColorAlways)
	assert.NotEqual(t, "x", c.Styles().Error.Render("x"))
}

func TestWorld_Plain(t *testing.T) {
	r, _, _ := plainRenderer()
	w := world.MustNew([][]world.Tile{
		{world.Wall, world.Key, world.Door, world.Exit},
		{world.Floor, world.Key, world.Door, world.Wall},
	})
	b := world.NewBot(world.Position{Row: 1, Col: 0}, world.East)

	w.ConsumeKey(world.Position{Row: 1, Col: 1})
	w.OpenDoor(world.Position{Row: 1, Col: 2})

	assert.Equal(t, "#KDE\n>./#\n", r.World(w, b))
	assert.Equal(t, "bot at (1,0) facing E, key: no", r.BotStatus(b))
}

func TestTrace(t *testing.T) {
	r, out, _ := plainRenderer()
	r.Trace([]interpreter.Step{
		{Index: 1, Action: interpreter.MOVE, Position: world.Position{Row: 0, Col: 1}, Facing: world.East, Changed: true},
		{Index: 2, Action: interpreter.PICK, Position: world.Position{Row: 0, Col: 1}, Facing: world.East},
	})
	s := out.String()
	assert.Contains(t, s, "Action")
	assert.NotContains(t, s, "ACTION", "headers keep their case")
	assert.Contains(t, s, "MOVE")
	assert.Contains(t, s, "no-op")
	assert.Contains(t, s, "(0,1)")

	out.Reset()
	r.Trace(nil)
	assert.Equal(t, "(no steps)\n", out.String())
}

func TestTokens(t *testing.T) {
	r, out, _ := plainRenderer()
	tokens, err := interpreter.Tokenize("LOOP 2: MOVE ENDLOOP")
	require.NoError(t, err)

	r.Tokens(tokens)
	assert.Contains(t, out.String(), "ENDLOOP")
	assert.Contains(t, out.String(), "end of input")
	assert.Contains(t, out.String(), "(6 tokens)")
}

func TestOutcome(t *testing.T) {
	r, _, _ := plainRenderer()
	assert.Equal(t, "Completed (ended) after 5 steps, bot at exit",
		r.Outcome(interpreter.Outcome{Status: interpreter.Completed, Reason: interpreter.ReasonEnded, Steps: 5, AtExit: true}))
	assert.Equal(t, "Aborted (step-limit-exceeded) after 1 step: limit of 1 steps reached",
		r.Outcome(interpreter.Outcome{Status: interpreter.Aborted, Reason: interpreter.ReasonStepLimitExceeded, Steps: 1, Cause: "limit of 1 steps reached"}))
}

func TestCompileError_Caret(t *testing.T) {
	r, _, _ := plainRenderer()
	src := "MOVE\n  LOOP 99: MOVE ENDLOOP\n"
	_, err := interpreter.Compile(src)
	require.Error(t, err)

	msg := r.CompileError(src, err)
	lines := strings.Split(msg, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "loop-limit-exceeded: line 2, column 8"))
	assert.Equal(t, "    LOOP 99: MOVE ENDLOOP", lines[1])
	assert.Equal(t, "         ^", lines[2])
	assert.True(t, IsCompileError(err))
}

func TestMapAndExampleLists(t *testing.T) {
	r, out, _ := plainRenderer()
	m, err := maps.Builtin("vault")
	require.NoError(t, err)

	r.MapList([]*maps.Map{m})
	assert.Contains(t, out.String(), "9x5")

	out.Reset()
	r.ExampleList(examples.All())
	assert.Contains(t, out.String(), "collect_and_open")

	out.Reset()
	e, _ := examples.Get("corridor")
	r.ExampleResults([]examples.Result{e.Run(0)})
	assert.Contains(t, out.String(), "ok")
	assert.NotContains(t, out.String(), "MISMATCH")
}

func TestMessagesGoToTheRightStream(t *testing.T) {
	r, out, errOut := plainRenderer()
	r.Success("done")
	r.Error("boom")
	r.Warning("careful")

	assert.Equal(t, "done\n", out.String())
	assert.Equal(t, "error: boom\nwarning: careful\n", errOut.String())
}

func TestJSON(t *testing.T) {
	r, out, _ := plainRenderer()
	require.NoError(t, r.JSON(interpreter.Outcome{Status: interpreter.Aborted, Reason: interpreter.ReasonStepLimitExceeded, Steps: 3}))
	assert.JSONEq(t, `{"status":"aborted","reason":"step-limit-exceeded","steps":3,"at_exit":false}`, out.String())
}
