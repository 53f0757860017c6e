package lineselect

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SelectLexer tokenizes line selection expressions such as
// "GPIO1..GPIO4, PDIO10, 12".
var SelectLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "Range", Pattern: `\.\.`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Int", Pattern: `\d+`},
	// Names may carry a chip prefix, e.g. adm1266-40-GPIO3.
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_\-]*`},
})
