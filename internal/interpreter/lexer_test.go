package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestTokenize_Kinds(t *testing.T) {
	src := "MOVE LEFT\nLOOP 3 TIMES:\n  MOVE\nENDLOOP\nEND"

	tokens, err := Tokenize(src)
	require.NoError(t, err)
	assert.Equal(t, []Kind{MOVE, LEFT, LOOP, INT, TIMES, COLON, MOVE, ENDLOOP, END, EOF}, kinds(tokens))
	assert.Equal(t, "3", tokens[3].Text)
}

func TestTokenize_Positions(t *testing.T) {
	tokens, err := Tokenize("MOVE\n  LEFT")
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	assert.Equal(t, Position{Line: 1, Column: 1, Offset: 0}, tokens[0].Pos)
	assert.Equal(t, Position{Line: 2, Column: 3, Offset: 7}, tokens[1].Pos)
}

func TestTokenize_ColonAndParensSeparate(t *testing.T) {
	tokens, err := Tokenize("IF NOT(FRONT_CLEAR AND ON_KEY):MOVE ENDIF")
	require.NoError(t, err)
	assert.Equal(t, []Kind{IF, NOT, LPAREN, FRONT_CLEAR, AND, ON_KEY, RPAREN, COLON, MOVE, ENDIF, EOF}, kinds(tokens))
}

func TestTokenize_EmptySourceIsJustEOF(t *testing.T) {
	for _, src := range []string{"", "   \n\t\n"} {
		tokens, err := Tokenize(src)
		require.NoError(t, err)
		assert.Equal(t, []Kind{EOF}, kinds(tokens))
	}
}

func TestTokenize_InvalidToken(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		lexeme string
		pos    Position
	}{
		{"unknown word", "MOVE\nJUMP", "JUMP", Position{Line: 2, Column: 1, Offset: 5}},
		{"lower case keyword", "move", "move", Position{Line: 1, Column: 1}},
		{"negative number", "LOOP -3 TIMES:", "-3", Position{Line: 1, Column: 6, Offset: 5}},
		{"glued punctuation", "MOVE;", "MOVE;", Position{Line: 1, Column: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.src)
			require.ErrorIs(t, err, ErrInvalidToken)

			var ite *InvalidTokenError
			require.ErrorAs(t, err, &ite)
			assert.Equal(t, tt.lexeme, ite.Lexeme)
			assert.Equal(t, tt.pos, ite.Pos)
			assert.Contains(t, err.Error(), tt.pos.String())
		})
	}
}

func TestTokenize_Idempotent(t *testing.T) {
	src := "LOOP 2:\n  IF FRONT_CLEAR OR AT_EXIT:\n    MOVE\n  ENDIF\nENDLOOP\n"

	first, err := Tokenize(src)
	require.NoError(t, err)
	second, err := Tokenize(src)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestKeywords_Vocabulary(t *testing.T) {
	words := Keywords()
	assert.Len(t, words, 20)
	assert.Contains(t, words, "TIMES")
	assert.Contains(t, words, "HAVE_KEY")

	for _, w := range words {
		tokens, err := Tokenize(w)
		require.NoError(t, err, w)
		assert.True(t, tokens[0].Kind.IsKeyword(), w)
	}
}
