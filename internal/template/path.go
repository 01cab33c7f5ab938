package template

import (
	"strconv"
	"strings"
)

// Path locates a value inside a document or a field inside a schema.
// Tokens are unescaped names or decimal indexes.
type Path []string

// Root is the empty path.
var Root Path

// Field returns a copy of p extended with a property name.
func (p Path) Field(name string) Path {
	return append(append(Path{}, p...), name)
}

// Index returns a copy of p extended with an array index.
func (p Path) Index(i int) Path {
	return append(append(Path{}, p...), strconv.Itoa(i))
}

// Pointer renders p as an RFC 6901 JSON Pointer. The root is "/".
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, tok := range p {
		sb.WriteByte('/')
		sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(tok, "~", "~0"), "/", "~1"))
	}
	return sb.String()
}

// String renders p in dotted form, e.g. experience[].title.
func (p Path) String() string {
	if len(p) == 0 {
		return "(root)"
	}
	var sb strings.Builder
	for i, tok := range p {
		if tok == ItemsToken {
			sb.WriteString(ItemsToken)
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(tok)
	}
	return sb.String()
}

// ItemsToken marks the element schema of an array in schema paths.
const ItemsToken = "[]"
