package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/markweave/internal/renderable"
)

func TestCollectHeadings(t *testing.T) {
	doc := renderable.NewTag("article", nil,
		renderable.NewTag("h1", []renderable.Attribute{{Name: "id", Value: "intro"}}, renderable.Text("Intro")),
		renderable.NewTag("section", nil,
			renderable.NewTag("h2", nil, renderable.Text("Nested")),
			renderable.NewTag("h3", nil, renderable.NewTag("em", nil, renderable.Text("skipped"))),
		),
		renderable.NewTag("h7", nil, renderable.Text("not a heading")),
	)

	assert.Equal(t, []Heading{
		{Level: 1, Title: "Intro", ID: "intro"},
		{Level: 2, Title: "Nested"},
	}, CollectHeadings(doc))
}

func TestCollectHeadings_Empty(t *testing.T) {
	assert.Empty(t, CollectHeadings(nil))
	assert.Empty(t, CollectHeadings(renderable.Text("x")))
}
