package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/markweave/internal/ast"
	"git.home.luguber.info/inful/markweave/internal/expr"
)

var (
	openDelim  = []byte("{%")
	closeDelim = []byte("%}")
)

// closeIndex returns the index of the %} that ends the marker starting at
// line[0], ignoring delimiters inside string literals. It returns -1 when the
// marker is not closed on this line.
func closeIndex(line []byte) int {
	if !bytes.HasPrefix(line, openDelim) {
		return -1
	}
	inString := false
	for i := len(openDelim); i < len(line)-1; i++ {
		switch c := line[i]; {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case !inString && c == '%' && line[i+1] == '}':
			return i
		case c == '\n':
			return -1
		}
	}
	return -1
}

// markerInlineParser recognizes {% ... %} inside inline content.
type markerInlineParser struct {
	filename string
}

func (p *markerInlineParser) Trigger() []byte { return []byte{'{'} }

func (p *markerInlineParser) Parse(_ gmast.Node, block text.Reader, _ parser.Context) gmast.Node {
	line, segment := block.PeekLine()
	end := closeIndex(line)
	if end < 0 {
		return nil
	}
	m := parseMarker(string(line[len(openDelim):end]), p.filename)
	m.Start = segment.Start
	m.Stop = segment.Start + end + len(closeDelim)
	block.Advance(end + len(closeDelim))
	return m
}

// markerBlockParser opens an ast.MarkerLine for a line holding exactly one
// marker. The block never continues, so the next line starts a new block.
type markerBlockParser struct{}

func (b *markerBlockParser) Trigger() []byte { return []byte{'{'} }

func (b *markerBlockParser) Open(_ gmast.Node, reader text.Reader, _ parser.Context) (gmast.Node, parser.State) {
	line, segment := reader.PeekLine()
	trimmed := bytes.TrimSpace(line)
	if end := closeIndex(trimmed); end < 0 || end+len(closeDelim) != len(trimmed) {
		return nil, parser.NoChildren
	}
	segment = segment.TrimLeftSpace(reader.Source())
	segment = segment.TrimRightSpace(reader.Source())
	node := ast.NewMarkerLine()
	node.Lines().Append(segment)
	reader.AdvanceToEOL()
	return node, parser.NoChildren
}

func (b *markerBlockParser) Continue(gmast.Node, text.Reader, parser.Context) parser.State {
	return parser.Close
}

func (b *markerBlockParser) Close(gmast.Node, text.Reader, parser.Context) {}

func (b *markerBlockParser) CanInterruptParagraph() bool { return true }

func (b *markerBlockParser) CanAcceptIndentedLine() bool { return false }

// parseMarker parses the text between {% and %}.
func parseMarker(raw, filename string) *ast.TagMarker {
	m := &ast.TagMarker{Raw: raw}
	body := strings.TrimSpace(raw)

	switch {
	case body == "":
		return invalid(m, errors.New("empty tag"))
	case strings.HasPrefix(body, "/"):
		name := strings.TrimSpace(body[1:])
		if !isTagName(name) {
			return invalid(m, fmt.Errorf("invalid closing tag %q", body))
		}
		m.Shape, m.Name = ast.MarkerClose, name
		return m
	}

	if expr.HasSigil(body) || isCall(body) {
		e, diags := expr.Parse(body, filename, hcl.InitialPos)
		if diags.HasErrors() {
			return invalid(m, diags)
		}
		m.Shape, m.Expression = ast.MarkerExpression, e
		return m
	}

	m.Shape = ast.MarkerOpen
	if strings.HasSuffix(body, "/") {
		m.Shape = ast.MarkerSelfClosing
		body = strings.TrimSpace(body[:len(body)-1])
	}
	name, rest := splitName(body)
	if name == "" {
		return invalid(m, fmt.Errorf("invalid tag %q", body))
	}
	m.Name = name

	attrs, err := parseAttributes(rest, filename)
	if err != nil {
		return invalid(m, err)
	}
	m.Attrs = attrs
	return m
}

func invalid(m *ast.TagMarker, err error) *ast.TagMarker {
	m.Shape, m.Err = ast.MarkerInvalid, err
	return m
}

func isTagStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isTagChar(c byte) bool {
	return isTagStart(c) || c == '-' || (c >= '0' && c <= '9')
}

func isTagName(s string) bool {
	if s == "" || !isTagStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isTagChar(s[i]) {
			return false
		}
	}
	return true
}

// splitName splits a leading tag name off body. The name must be followed by
// whitespace or the end of the body.
func splitName(body string) (string, string) {
	if body == "" || !isTagStart(body[0]) {
		return "", body
	}
	i := 1
	for i < len(body) && isTagChar(body[i]) {
		i++
	}
	if i < len(body) && body[i] != ' ' && body[i] != '\t' {
		return "", body
	}
	return body[:i], body[i:]
}

// isCall reports whether body is a bare function call such as upper($x).
func isCall(body string) bool {
	name, rest := "", body
	if body != "" && isTagStart(body[0]) {
		i := 1
		for i < len(body) && (isTagChar(body[i]) && body[i] != '-') {
			i++
		}
		name, rest = body[:i], body[i:]
	}
	return name != "" && strings.HasPrefix(strings.TrimLeft(rest, " \t"), "(")
}

type attrSpan struct {
	name       string
	start, end int
}

// parseAttributes splits "primary key=value key2=value2" into expressions.
// A key=value pair starts at an identifier followed by = outside any
// brackets or strings.
func parseAttributes(src, filename string) ([]ast.MarkerAttribute, error) {
	prepared := []byte(expr.Prepare(strings.TrimSpace(src)))
	if len(prepared) == 0 {
		return nil, nil
	}
	tokens, diags := hclsyntax.LexExpression(prepared, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, diags
	}

	var spans []attrSpan
	depth := 0
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Type == hclsyntax.TokenEOF {
			break
		}
		if tok.Type == hclsyntax.TokenNewline {
			continue
		}
		if depth == 0 && tok.Type == hclsyntax.TokenIdent && i+1 < len(tokens) && tokens[i+1].Type == hclsyntax.TokenEqual {
			spans = append(spans, attrSpan{name: string(tok.Bytes), start: -1})
			i++
			continue
		}
		if len(spans) == 0 {
			spans = append(spans, attrSpan{name: ast.PrimaryAttribute, start: -1})
		}

		switch tok.Type {
		case hclsyntax.TokenOParen, hclsyntax.TokenOBrack, hclsyntax.TokenOBrace,
			hclsyntax.TokenOQuote, hclsyntax.TokenOHeredoc,
			hclsyntax.TokenTemplateInterp, hclsyntax.TokenTemplateControl:
			depth++
		case hclsyntax.TokenCParen, hclsyntax.TokenCBrack, hclsyntax.TokenCBrace,
			hclsyntax.TokenCQuote, hclsyntax.TokenCHeredoc, hclsyntax.TokenTemplateSeqEnd:
			depth--
		}

		cur := &spans[len(spans)-1]
		if cur.start < 0 {
			cur.start = tok.Range.Start.Byte
		}
		cur.end = tok.Range.End.Byte
	}

	attrs := make([]ast.MarkerAttribute, 0, len(spans))
	seen := make(map[string]bool, len(spans))
	for _, s := range spans {
		if s.start < 0 {
			return nil, fmt.Errorf("attribute %q has no value", s.name)
		}
		if seen[s.name] {
			return nil, fmt.Errorf("duplicate attribute %q", s.name)
		}
		seen[s.name] = true

		raw := prepared[s.start:s.end]
		e, diags := hclsyntax.ParseExpression(raw, filename, hcl.InitialPos)
		if diags.HasErrors() {
			return nil, diags
		}
		attrs = append(attrs, ast.MarkerAttribute{Name: s.name, Value: e, Raw: string(raw)})
	}
	return attrs, nil
}
