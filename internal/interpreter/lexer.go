package interpreter

import (
	"fmt"
	"regexp"

	"github.com/alecthomas/participle/v2/lexer"
)

// Three raw classes are enough: the vocabulary check happens after
// splitting, so every lexeme the user wrote reaches the classifier intact.
var rawLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Punct", Pattern: `[:()]`},
	{Name: "Word", Pattern: `[^\s:()]+`},
})

var (
	integerPattern = regexp.MustCompile(`^[0-9]+$`)

	symWhitespace = rawLexer.Symbols()["Whitespace"]
	symPunct      = rawLexer.Symbols()["Punct"]
	symWord       = rawLexer.Symbols()["Word"]
)

var punctKinds = map[string]Kind{
	":": COLON,
	"(": LPAREN,
	")": RPAREN,
}

// Tokenize splits source into tokens. The result always ends with a single
// EOF token. The first lexeme outside the vocabulary fails the whole call.
func Tokenize(source string) ([]Token, error) {
	lex, err := rawLexer.LexString("", source)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}

	tokens := make([]Token, 0, len(raw))
	for _, r := range raw {
		pos := Position{Line: r.Pos.Line, Column: r.Pos.Column, Offset: r.Pos.Offset}
		switch r.Type {
		case symWhitespace:
			continue
		case lexer.EOF:
			tokens = append(tokens, Token{Kind: EOF, Pos: pos})
		case symPunct:
			tokens = append(tokens, Token{Kind: punctKinds[r.Value], Text: r.Value, Pos: pos})
		case symWord:
			kind, ok := classify(r.Value)
			if !ok {
				return nil, &InvalidTokenError{Lexeme: r.Value, Pos: pos}
			}
			tokens = append(tokens, Token{Kind: kind, Text: r.Value, Pos: pos})
		default:
			return nil, &InvalidTokenError{Lexeme: r.Value, Pos: pos}
		}
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != EOF {
		tokens = append(tokens, Token{Kind: EOF, Pos: endPosition(source)})
	}
	return tokens, nil
}

func classify(word string) (Kind, bool) {
	if k, ok := keywords[word]; ok {
		return k, true
	}
	if integerPattern.MatchString(word) {
		return INT, true
	}
	return ILLEGAL, false
}

func endPosition(source string) Position {
	pos := Position{Line: 1, Column: 1, Offset: len(source)}
	for _, r := range source {
		if r == '\n' {
			pos.Line++
			pos.Column = 1
			continue
		}
		pos.Column++
	}
	return pos
}

// Compile tokenizes and parses source in one call.
func Compile(source string) (*Program, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}
