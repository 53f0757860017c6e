package lineselect

import "strconv"

// Selection is a comma separated list of terms.
type Selection struct {
	Terms []*Term `@@ ( Comma @@ )*`
}

// Term selects one line, a group, or an inclusive range of lines.
// Example: PDIO1..PDIO4
type Term struct {
	From *Ref `@@`
	To   *Ref `( Range @@ )?`
}

// Ref names a line by offset or by name.
type Ref struct {
	Offset *int   `  @Int`
	Name   string `| @Ident`
}

func (r *Ref) String() string {
	if r.Offset != nil {
		return strconv.Itoa(*r.Offset)
	}
	return r.Name
}
