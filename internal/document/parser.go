// Package document parses Markdoc source into an ast.Document and turns it
// into a renderable tree, collecting validation findings on the way.
package document

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/markweave/internal/ast"
	"git.home.luguber.info/inful/markweave/internal/frontmatter"
)

// ErrInvalidUTF8 is returned for documents that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("document is not valid UTF-8")

// Options toggles the optional Markdown syntax extensions.
type Options struct {
	Linkify     bool `yaml:"linkify" json:"linkify"`
	Typographer bool `yaml:"typographer" json:"typographer"`
	Tables      bool `yaml:"tables" json:"tables"`
}

// DefaultOptions enables tables, the only extension Markdoc itself supports
// out of the box.
func DefaultOptions() Options {
	return Options{Tables: true}
}

// Parser turns document bytes into an ast.Document. The zero value parses
// with no extensions.
type Parser struct {
	opts Options
}

// NewParser returns a Parser using opts.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Parse splits off the frontmatter and parses the body.
func (p *Parser) Parse(filename string, content []byte) (*ast.Document, error) {
	if !utf8.Valid(content) {
		return nil, ErrInvalidUTF8
	}
	block, err := frontmatter.Split(content)
	if err != nil {
		return nil, err
	}
	fm, err := frontmatter.Decode(block.Raw)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: %w", err)
	}

	body := block.Body
	root := p.markdown(filename).Parser().Parse(text.NewReader(body))
	return &ast.Document{
		Filename:       filename,
		Source:         body,
		Frontmatter:    fm,
		RawFrontmatter: string(block.Raw),
		HasFrontmatter: block.Present,
		LineOffset:     block.BodyLine,
		Root:           root,
	}, nil
}

// markdown builds a goldmark instance per parse; the marker parsers carry the
// filename for expression diagnostics.
func (p *Parser) markdown(filename string) goldmark.Markdown {
	var exts []goldmark.Extender
	if p.opts.Linkify {
		exts = append(exts, extension.Linkify)
	}
	if p.opts.Typographer {
		exts = append(exts, extension.Typographer)
	}
	if p.opts.Tables {
		exts = append(exts, extension.Table, extension.Strikethrough)
	}
	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithBlockParsers(util.Prioritized(&markerBlockParser{}, 550)),
			parser.WithInlineParsers(util.Prioritized(&markerInlineParser{filename: filename}, 50)),
		),
	)
}
