// Package filterexpr parses compact filter expressions such as
//
//	year=2019 and location="New York", topic=Diabetes
//
// into a domain.Selection.
package filterexpr

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/cdi-explorer/cdi/internal/core/query/domain"
)

// Expression is a list of equality terms joined by "and" or ",".
type Expression struct {
	Terms []*Term `parser:"@@ ( ( 'and' | ',' )? @@ )*"`
}

// Term is one name=value pair.
type Term struct {
	Name  string `parser:"@Ident '='"`
	Value *Value `parser:"@@"`
}

// Value is a single or double quoted string, a number or a bare word.
type Value struct {
	String *string `parser:"  @String"`
	Number *string `parser:"| @Float | @Int"`
	Word   *string `parser:"| @Ident"`
}

func (v *Value) text() string {
	switch {
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		return *v.Number
	case v.Word != nil:
		return *v.Word
	default:
		return ""
	}
}

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},
	{Name: "Float", Pattern: `\d+\.\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[=,]`},
})

var parser = participle.MustBuild[Expression](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.Unquote("String"),
)

// Parse converts an expression into a selection. Blank input is an empty
// selection. A repeated name keeps its last value.
func Parse(input string) (domain.Selection, error) {
	sel := domain.Selection{}
	if strings.TrimSpace(input) == "" {
		return sel, nil
	}

	expr, err := parser.ParseString("filter", input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse filter %q: %w", input, err)
	}

	for _, term := range expr.Terms {
		sel.Set(term.Name, term.Value.text())
	}
	return sel, nil
}

// Format renders a selection back into expression form, in the given key order.
// Keys left at All are omitted.
func Format(sel domain.Selection, order []string) string {
	var parts []string
	for _, name := range order {
		v := sel.Value(name)
		if domain.IsAll(v) {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%q", name, v))
	}
	return strings.Join(parts, " and ")
}
