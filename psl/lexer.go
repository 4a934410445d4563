package psl

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes the declaration language.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments (doc comments first, then regular)
	{Name: "DocComment", Pattern: `///[^\n]*`},
	{Name: "Comment", Pattern: `//[^\n]*`},

	// Block attribute prefix (must come before single @)
	{Name: "BlockAttr", Pattern: `@@`},
	// Field attribute prefix
	{Name: "FieldAttr", Pattern: `@`},

	// Literals
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},

	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},

	// Punctuation
	{Name: "Punct", Pattern: `[{}()\[\]:,.=?]`},

	// Whitespace and newlines
	{Name: "Newline", Pattern: `[\r\n]+`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})
