package lineselect

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"
)

var (
	// ErrUnknownLine is returned for names the resolver does not know.
	ErrUnknownLine = errors.New("lineselect: unknown line")
	// ErrOutOfRange is returned for offsets outside the chip.
	ErrOutOfRange = errors.New("lineselect: line out of range")
)

// Resolver maps names to line offsets. *adm1266.Chip implements it.
type Resolver interface {
	NumLines() int
	LineByName(name string) (int, bool)
	// Group expands a name that stands for several lines, such as "all".
	Group(name string) ([]int, bool)
}

// Parser parses selection expressions.
type Parser struct {
	parser *participle.Parser[Selection]
}

// NewParser creates a new selection parser
func NewParser() (*Parser, error) {
	parser, err := participle.Build[Selection](
		participle.Lexer(SelectLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Parse parses expr.
func (p *Parser) Parse(expr string) (*Selection, error) {
	sel, err := p.parser.ParseString("", expr)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if len(sel.Terms) == 0 {
		return nil, fmt.Errorf("parse error: empty selection")
	}
	return sel, nil
}

var defaultParser = sync.OnceValues(NewParser)

// Select parses expr and resolves it against r.
func Select(expr string, r Resolver) ([]int, error) {
	p, err := defaultParser()
	if err != nil {
		return nil, err
	}
	sel, err := p.Parse(expr)
	if err != nil {
		return nil, err
	}
	return sel.Resolve(r)
}

// Resolve returns the selected offsets in ascending order without
// duplicates.
func (s *Selection) Resolve(r Resolver) ([]int, error) {
	var out []int
	for _, t := range s.Terms {
		offsets, err := t.resolve(r)
		if err != nil {
			return nil, err
		}
		out = append(out, offsets...)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func (t *Term) resolve(r Resolver) ([]int, error) {
	if t.To == nil {
		if t.From.Offset == nil {
			if group, ok := r.Group(t.From.Name); ok {
				return group, nil
			}
		}
		o, err := t.From.resolve(r)
		if err != nil {
			return nil, err
		}
		return []int{o}, nil
	}

	from, err := t.From.resolve(r)
	if err != nil {
		return nil, err
	}
	to, err := t.To.resolve(r)
	if err != nil {
		return nil, err
	}
	if from > to {
		return nil, fmt.Errorf("lineselect: empty range %s..%s", t.From, t.To)
	}
	offsets := make([]int, 0, to-from+1)
	for o := from; o <= to; o++ {
		offsets = append(offsets, o)
	}
	return offsets, nil
}

func (ref *Ref) resolve(r Resolver) (int, error) {
	if ref.Offset != nil {
		if *ref.Offset >= r.NumLines() {
			return 0, fmt.Errorf("%w: %d (have %d)", ErrOutOfRange, *ref.Offset, r.NumLines())
		}
		return *ref.Offset, nil
	}
	o, ok := r.LineByName(ref.Name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLine, ref.Name)
	}
	return o, nil
}

// Format renders offsets as a selection expression, collapsing runs into
// ranges. names supplies the display name of each offset.
func Format(offsets []int, names []string) string {
	sorted := slices.Clone(offsets)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	name := func(o int) string {
		if o >= 0 && o < len(names) {
			return names[o]
		}
		return strconv.Itoa(o)
	}

	var parts []string
	for i := 0; i < len(sorted); {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[j]+1 {
			j++
		}
		switch {
		case j == i:
			parts = append(parts, name(sorted[i]))
		case j == i+1:
			parts = append(parts, name(sorted[i]), name(sorted[j]))
		default:
			parts = append(parts, name(sorted[i])+".."+name(sorted[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}
