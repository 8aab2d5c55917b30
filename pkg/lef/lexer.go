package lef

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// layerLexer tokenizes the inside of a technology-LEF LAYER section. LEF
// statements are whitespace-separated tokens terminated by a semicolon, with
// '#' line comments.
var layerLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Number", Pattern: `-?\d+(\.\d+)?([eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.\-]*`},

	{Name: "Semicolon", Pattern: `;`},
})
