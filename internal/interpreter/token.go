package interpreter

import "fmt"

// Kind identifies a token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	COLON
	LPAREN
	RPAREN
	INT

	// actions
	MOVE
	LEFT
	RIGHT
	PICK
	OPEN

	// control
	IF
	ELSE
	ENDIF
	LOOP
	ENDLOOP
	TIMES
	END

	// sensors
	FRONT_CLEAR
	ON_KEY
	AT_DOOR
	AT_EXIT
	HAVE_KEY

	// logic
	AND
	OR
	NOT
)

// keywords is the complete vocabulary. Lookup is case-sensitive.
var keywords = map[string]Kind{
	"MOVE":        MOVE,
	"LEFT":        LEFT,
	"RIGHT":       RIGHT,
	"PICK":        PICK,
	"OPEN":        OPEN,
	"IF":          IF,
	"ELSE":        ELSE,
	"ENDIF":       ENDIF,
	"LOOP":        LOOP,
	"ENDLOOP":     ENDLOOP,
	"TIMES":       TIMES,
	"END":         END,
	"FRONT_CLEAR": FRONT_CLEAR,
	"ON_KEY":      ON_KEY,
	"AT_DOOR":     AT_DOOR,
	"AT_EXIT":     AT_EXIT,
	"HAVE_KEY":    HAVE_KEY,
	"AND":         AND,
	"OR":          OR,
	"NOT":         NOT,
}

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "end of input",
	COLON:   "':'",
	LPAREN:  "'('",
	RPAREN:  "')'",
	INT:     "integer",
}

func init() {
	for word, k := range keywords {
		kindNames[k] = word
	}
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// IsKeyword reports whether k is one of the vocabulary words.
func (k Kind) IsKeyword() bool { return k >= MOVE && k <= NOT }

// IsAction reports whether k is a statement-level action, END included.
func (k Kind) IsAction() bool {
	switch k {
	case MOVE, LEFT, RIGHT, PICK, OPEN, END:
		return true
	}
	return false
}

// IsSensor reports whether k names a sensor.
func (k Kind) IsSensor() bool { return k >= FRONT_CLEAR && k <= HAVE_KEY }

// Keywords returns the vocabulary in declaration order.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := MOVE; k <= NOT; k++ {
		out = append(out, k.String())
	}
	return out
}

// Position locates a token in the source.
type Position struct {
	Line   int `json:"line"`   // 1-based
	Column int `json:"column"` // 1-based
	Offset int `json:"offset"` // 0-based byte offset
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token is one lexeme with its kind and position.
type Token struct {
	Kind Kind     `json:"kind"`
	Text string   `json:"text"`
	Pos  Position `json:"pos"`
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case INT:
		return fmt.Sprintf("integer %s", t.Text)
	}
	return t.Text
}
