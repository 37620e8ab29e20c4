package expr

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// Prepare rewrites Markdoc expression syntax into HCL syntax. A $ followed by
// an identifier start is dropped outside string literals. Inside string
// literals ${ and %{ are doubled so they stay literal text.
func Prepare(src string) string {
	if !strings.ContainsAny(src, "$%") {
		return src
	}

	var b strings.Builder
	b.Grow(len(src) + 4)
	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inString && c == '\\' && i+1 < len(src):
			b.WriteByte(c)
			b.WriteByte(src[i+1])
			i++
		case c == '"':
			inString = !inString
			b.WriteByte(c)
		case inString && (c == '$' || c == '%') && i+1 < len(src) && src[i+1] == '{':
			b.WriteByte(c)
			b.WriteByte(c)
		case !inString && c == '$' && i+1 < len(src) && isIdentStart(src[i+1]):
			// drop the sigil
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// HasSigil reports whether src starts with a $variable reference.
func HasSigil(src string) bool {
	src = strings.TrimSpace(src)
	return len(src) > 1 && src[0] == '$' && isIdentStart(src[1])
}

// Parse prepares and parses a single expression.
func Parse(src, filename string, start hcl.Pos) (hclsyntax.Expression, hcl.Diagnostics) {
	return hclsyntax.ParseExpression([]byte(Prepare(src)), filename, start)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
