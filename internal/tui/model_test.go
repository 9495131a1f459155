package tui

import (
	"bytes"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultrunner/internal/examples"
	"vaultrunner/internal/interpreter"
	"vaultrunner/internal/maps"
	"vaultrunner/internal/render"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newCorridorModel(t *testing.T, paused bool) Model {
	t.Helper()
	e, ok := examples.Get("corridor")
	require.True(t, ok)
	prog, err := interpreter.Compile(e.Source)
	require.NoError(t, err)
	m, err := maps.Builtin(e.Map)
	require.NoError(t, err)

	return New(Options{
		Program:  prog,
		Map:      m,
		Paused:   paused,
		Renderer: render.NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, false, render.ModeText, render.ColorNever),
	})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestInit(t *testing.T) {
	assert.NotNil(t, newCorridorModel(t, false).Init())
	assert.Nil(t, newCorridorModel(t, true).Init())
}

func TestTickAdvancesOneAction(t *testing.T) {
	m := newCorridorModel(t, false)

	m, cmd := update(t, m, tickMsg{gen: m.gen})
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.machine.Steps())
	require.NotNil(t, m.last)
	assert.Equal(t, interpreter.MOVE, m.last.Action)
}

func TestStaleTickIgnored(t *testing.T) {
	m := newCorridorModel(t, false)
	stale := m.gen

	m, _ = update(t, m, runes("r"))
	m, cmd := update(t, m, tickMsg{gen: stale})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.machine.Steps())
}

func TestPauseAndResume(t *testing.T) {
	m := newCorridorModel(t, false)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, m.paused)
	assert.Nil(t, cmd)

	m, cmd = update(t, m, tickMsg{gen: m.gen})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.machine.Steps())
	assert.Contains(t, m.View(), "paused")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.False(t, m.paused)
	assert.NotNil(t, cmd)
}

func TestSingleStepToCompletion(t *testing.T) {
	m := newCorridorModel(t, true)

	for i := 0; i < 10 && !m.Done(); i++ {
		m, _ = update(t, m, runes("n"))
	}
	require.True(t, m.Done())
	assert.Equal(t, interpreter.ReasonEnded, m.Outcome().Reason)
	assert.Equal(t, 5, m.Outcome().Steps)
	assert.Contains(t, m.View(), "Completed (ended) after 5 steps")

	m, _ = update(t, m, runes("n"))
	assert.Equal(t, 5, m.machine.Steps(), "stepping a finished run does nothing")
}

func TestRestart(t *testing.T) {
	m := newCorridorModel(t, true)
	m, _ = update(t, m, runes("n"))
	m, _ = update(t, m, runes("n"))
	require.Equal(t, 2, m.machine.Steps())

	m, cmd := update(t, m, runes("r"))
	assert.Nil(t, cmd, "a paused restart does not tick")
	assert.Equal(t, 0, m.machine.Steps())
	assert.Nil(t, m.last)
	assert.Contains(t, m.View(), ">")
}

func TestQuitAndHelp(t *testing.T) {
	m := newCorridorModel(t, true)

	m, _ = update(t, m, runes("?"))
	assert.True(t, m.help.ShowAll)

	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestView(t *testing.T) {
	m := newCorridorModel(t, true)
	v := m.View()
	assert.Contains(t, v, "corridor")
	assert.Contains(t, v, "#>...E#")
	assert.Contains(t, v, "step 0/1000")
	assert.Contains(t, v, "bot at (1,1) facing E")
}
