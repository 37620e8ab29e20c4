package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Block is a document split into its YAML frontmatter and body.
type Block struct {
	// Raw is the YAML between the delimiters, without them.
	Raw []byte
	// Body is everything after the closing delimiter.
	Body []byte
	// Present reports whether the document opened with a frontmatter block.
	Present bool
	// BodyLine is the number of lines that precede Body in the original
	// document, so body line n is document line n+BodyLine.
	BodyLine int
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, Present is
// false and Body is the full input.
func Split(content []byte) (Block, error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return Block{Body: content}, nil
	}

	frontmatterStart := len(open)
	rest := content[frontmatterStart:]

	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(rest, closeLine) || bytes.Equal(rest, []byte("---")) {
		bodyStart := min(frontmatterStart+len(closeLine), len(content))
		return block(content, []byte{}, bodyStart), nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// A closing delimiter on the very last line, without a newline.
		if bytes.HasSuffix(rest, []byte(nl+"---")) {
			end := len(rest) - len(nl+"---")
			return block(content, rest[:end+len(nl)], len(content)), nil
		}
		return Block{}, ErrMissingClosingDelimiter
	}

	frontmatterEnd := frontmatterStart + idx + len(nl)
	bodyStart := frontmatterStart + idx + len(closeSeq)
	return block(content, content[frontmatterStart:frontmatterEnd], bodyStart), nil
}

func block(content, raw []byte, bodyStart int) Block {
	return Block{
		Raw:      raw,
		Body:     content[bodyStart:],
		Present:  true,
		BodyLine: bytes.Count(content[:bodyStart], []byte("\n")),
	}
}

// Decode parses raw YAML frontmatter (without --- delimiters) into a map.
func Decode(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
