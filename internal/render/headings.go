package render

import (
	"git.home.luguber.info/inful/markweave/internal/renderable"
)

// Heading describes one h1-h6 element of a rendered tree.
type Heading struct {
	Level int    `json:"level"`
	Title string `json:"title"`
	ID    string `json:"id,omitempty"`
}

// CollectHeadings returns every heading whose first child is text, in document
// order, including headings nested inside other elements.
func CollectHeadings(node renderable.Node) []Heading {
	var out []Heading
	collect(node, &out)
	return out
}

func collect(node renderable.Node, out *[]Heading) {
	switch n := node.(type) {
	case renderable.Nodes:
		for _, child := range n {
			collect(child, out)
		}
	case *renderable.Tag:
		if n == nil {
			return
		}
		if level := headingLevel(n.Name); level > 0 {
			children := n.ChildNodes()
			if len(children) > 0 {
				if title, ok := children[0].(renderable.Text); ok {
					h := Heading{Level: level, Title: string(title)}
					if id, ok := n.Attr("id"); ok {
						h.ID = renderable.Stringify(id)
					}
					*out = append(*out, h)
				}
			}
		}
		collect(n.Children, out)
	}
}

func headingLevel(name string) int {
	if len(name) != 2 || name[0] != 'h' || name[1] < '1' || name[1] > '6' {
		return 0
	}
	return int(name[1] - '0')
}
