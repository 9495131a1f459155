package maps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultrunner/internal/world"
)

func TestParseText(t *testing.T) {
	m, err := ParseText("demo", `
; A demo room.
; second comment is ignored
#####
#>.K#
#D.E#
#####
`)
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Name)
	assert.Equal(t, "A demo room.", m.Description)
	assert.Equal(t, 5, m.Width())
	assert.Equal(t, 4, m.Height())
	assert.Equal(t, world.Position{Row: 1, Col: 1}, m.Start)
	assert.Equal(t, world.East, m.Facing)

	w, b := m.Instantiate()
	assert.True(t, w.KeyAt(world.Position{Row: 1, Col: 3}))
	assert.True(t, w.DoorAt(world.Position{Row: 2, Col: 1}))
	tile, _ := w.TileAt(b.Pos)
	assert.Equal(t, world.Floor, tile, "the start arrow stands on floor")
}

func TestParseText_Aliases(t *testing.T) {
	m, err := ParseText("alias", "WWW\nWvW\nWEW\nWWW")
	require.NoError(t, err)
	assert.Equal(t, world.South, m.Facing)
	assert.Equal(t, "###\n#v#\n#E#\n###\n", m.String())
}

func TestParseText_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
		msg  string
	}{
		{"empty", "\n\n", world.ErrEmptyGrid, ""},
		{"no start", "#.E#", ErrNoStart, ""},
		{"two starts", "#>>E#", ErrMultipleStart, ""},
		{"ragged", "#>.#\n#E#", nil, "row 2 has width 3, expected 4"},
		{"bad glyph", "#>?E#", nil, `row 1, column 3: unknown glyph '?'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseText(tt.name, tt.text)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestParseYAML(t *testing.T) {
	m, err := ParseYAML("fallback", []byte(`
description: explicit start
start: {row: 1, col: 2, facing: west}
grid:
  - "#####"
  - "#E..#"
  - "#####"
`))
	require.NoError(t, err)
	assert.Equal(t, "fallback", m.Name)
	assert.Equal(t, "explicit start", m.Description)
	assert.Equal(t, world.Position{Row: 1, Col: 2}, m.Start)
	assert.Equal(t, world.West, m.Facing)

	_, err = ParseYAML("bad", []byte("start: {row: 0, col: 0, facing: N}\ngrid: [\"#E\"]"))
	assert.ErrorContains(t, err, "is a wall")

	_, err = ParseYAML("bad", []byte("start: {row: 5, col: 0, facing: N}\ngrid: [\".E\"]"))
	assert.ErrorContains(t, err, "outside the grid")

	_, err = ParseYAML("bad", []byte("start: {row: 0, col: 0, facing: up}\ngrid: [\".E\"]"))
	assert.Error(t, err)
}

func TestInstantiate_IsFresh(t *testing.T) {
	m, err := Builtin("key_and_door")
	require.NoError(t, err)

	w1, b1 := m.Instantiate()
	b1.Move(w1)
	b1.Pick(w1)

	w2, b2 := m.Instantiate()
	assert.Equal(t, m.Start, b2.Pos)
	assert.False(t, b2.HasKey)
	assert.True(t, w2.KeyAt(world.Position{Row: 2, Col: 1}))
	assert.False(t, w1.KeyAt(world.Position{Row: 2, Col: 1}))
}

func TestLint(t *testing.T) {
	ok, err := ParseText("ok", "#>.E#")
	require.NoError(t, err)
	assert.Empty(t, ok.Lint())

	none, err := ParseText("none", "#>..#")
	require.NoError(t, err)
	assert.Equal(t, []string{"map has no exit"}, none.Lint())

	walled, err := ParseText("walled", "#>#E#")
	require.NoError(t, err)
	assert.Equal(t, []string{"no exit is reachable from the start"}, walled.Lint())

	two, err := ParseText("two", "E>DE")
	require.NoError(t, err)
	assert.Equal(t, []string{"map has 2 exits, expected one", "map has 1 door(s) but no key"}, two.Lint())
}

func TestBuiltins(t *testing.T) {
	assert.Equal(t, []string{"corridor", "corridor_turn", "key_and_door", "vault"}, Names())

	for _, name := range Names() {
		m, err := Builtin(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, m.Description, name)
		assert.Empty(t, m.Lint(), name)
	}

	_, err := Builtin("nope")
	assert.ErrorIs(t, err, ErrUnknownMap)
}

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "room.txt")
	require.NoError(t, os.WriteFile(txt, []byte("#^#\n#E#\n"), 0o600))
	yml := filepath.Join(dir, "room.yml")
	require.NoError(t, os.WriteFile(yml, []byte("name: named\ngrid: [\"<E\"]\n"), 0o600))

	m, err := Load(txt)
	require.NoError(t, err)
	assert.Equal(t, "room", m.Name)
	assert.Equal(t, world.North, m.Facing)

	m, err = Resolve(yml)
	require.NoError(t, err)
	assert.Equal(t, "named", m.Name)

	m, err = Resolve("vault")
	require.NoError(t, err)
	assert.Equal(t, "vault", m.Name)

	_, err = Resolve(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
