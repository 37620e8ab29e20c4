package preprocess

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/markweave/internal/ast"
	"git.home.luguber.info/inful/markweave/internal/components"
)

// LayoutName is the identifier the layout component is imported as.
const LayoutName = "Layout_DEFAULT"

var jsIdentifier = regexp.MustCompile(`^[\p{L}_$][\p{L}\p{N}_$]*$`)

// compose wraps the rendered body into a Svelte component: a module script
// exporting the frontmatter as metadata, an instance script with the layout
// and component imports, and the layout element around the body.
func compose(body string, doc *ast.Document, layout string, imports []components.Import) (string, error) {
	var b strings.Builder

	if doc.HasFrontmatter {
		metadata, err := json.Marshal(doc.Frontmatter)
		if err != nil {
			return "", fmt.Errorf("encode frontmatter: %w", err)
		}
		b.WriteString("<script context=\"module\">\n")
		fmt.Fprintf(&b, "\texport const metadata = %s;\n", metadata)
		if keys := identifierKeys(doc.Frontmatter); len(keys) > 0 {
			fmt.Fprintf(&b, "\tconst { %s } = metadata;\n", strings.Join(keys, ", "))
		}
		b.WriteString("</script>\n")
	}

	if layout != "" || len(imports) > 0 {
		b.WriteString("<script>\n")
		if layout != "" {
			fmt.Fprintf(&b, "\timport %s from '%s';\n", LayoutName, layout)
		}
		for _, imp := range imports {
			fmt.Fprintf(&b, "\t%s\n", imp)
		}
		b.WriteString("</script>\n")
	}

	if layout != "" {
		if doc.HasFrontmatter {
			fmt.Fprintf(&b, "<%s {...metadata}>\n", LayoutName)
		} else {
			fmt.Fprintf(&b, "<%s>\n", LayoutName)
		}
	}

	b.WriteString(body)

	if layout != "" {
		fmt.Fprintf(&b, "</%s>\n", LayoutName)
	}
	return b.String(), nil
}

// identifierKeys returns the frontmatter keys that can be destructured into
// variables, sorted.
func identifierKeys(fm map[string]any) []string {
	var keys []string
	for _, k := range slices.Sorted(maps.Keys(fm)) {
		if jsIdentifier.MatchString(k) && !reservedWords[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "let": true, "static": true, "await": true,
	"metadata": true,
}
