package dsl

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	deckLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(deckLexer),
		participle.Unquote("String"),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document is the root of a .deck file: one or more decks.
type Document struct {
	Decks []*Deck `parser:"@@+"`
}

// Deck groups cards under a name and an optional subject.
//
//	deck "Physics basics" subject Physics {
//	  card { "Gravity pulls objects toward each other." }
//	}
type Deck struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    string         `parser:"'deck' @String"`
	Subject *Subject       `parser:"( 'subject' @@ )?"`
	Cards   []*Card        `parser:"'{' @@* '}'"`
}

// Subject accepts a quoted label or bare words ("Computer Science" or Computer Science).
type Subject struct {
	Quoted string   `parser:"  @String"`
	Words  []string `parser:"| @Ident+"`
}

// String returns the subject label.
func (s *Subject) String() string {
	if s == nil {
		return ""
	}
	if s.Quoted != "" {
		return s.Quoted
	}
	return strings.Join(s.Words, " ")
}

// Card holds one or more string literals; each literal is a line of the card.
type Card struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Lines []string       `parser:"'card' '{' @String* '}'"`
}

// Text joins the card's literals with newlines.
func (c *Card) Text() string { return strings.Join(c.Lines, "\n") }

// SubjectLabel returns the declared subject, or "" when the classifier should decide.
func (d *Deck) SubjectLabel() string { return strings.TrimSpace(d.Subject.String()) }

// Parse parses a deck file from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	doc, err := documentParser.Parse("", r)
	if err != nil {
		return nil, err
	}
	return doc, validate(doc)
}

// ParseString parses deck content from a string.
func ParseString(input string) (*Document, error) {
	doc, err := documentParser.ParseString("", input)
	if err != nil {
		return nil, err
	}
	return doc, validate(doc)
}

func validate(doc *Document) error {
	for _, d := range doc.Decks {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("%s: deck name must not be empty", d.Pos)
		}
		if len(d.Cards) == 0 {
			return fmt.Errorf("%s: deck %q has no cards", d.Pos, d.Name)
		}
	}
	return nil
}
