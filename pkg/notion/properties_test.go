package notion

import (
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
)

func TestPropertyBuilders(t *testing.T) {
	title := Title("G1")
	assert.Equal(t, notionapi.PropertyTypeTitle, title.Type)
	assert.Equal(t, "G1", PlainText(title.Title))

	rt := RichText("Board oversight")
	assert.Equal(t, notionapi.PropertyTypeRichText, rt.Type)
	assert.Equal(t, "Board oversight", PlainText(rt.RichText))

	assert.InDelta(t, 8.0, Number(8).Number, 0.001)
	assert.Equal(t, "Governance", Select("Governance").Select.Name)
}

func TestPropertyReaders(t *testing.T) {
	props := notionapi.Properties{
		"ID": &notionapi.TitleProperty{Title: []notionapi.RichText{
			{PlainText: "G"}, {PlainText: "1"},
		}},
		"Question": &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "Who oversees?"}}},
		"Section":  &notionapi.SelectProperty{Select: notionapi.Option{Name: "Governance"}},
		"Status":   &notionapi.StatusProperty{Status: notionapi.Status{Name: "Active"}},
		"Weight":   &notionapi.NumberProperty{Number: 9},
	}

	assert.Equal(t, "G1", Text(props, "ID"))
	assert.Equal(t, "Who oversees?", Text(props, "Question"))
	assert.Equal(t, "Governance", Text(props, "Section"))
	assert.Equal(t, "Active", Text(props, "Status"))
	assert.Equal(t, "", Text(props, "Weight"))
	assert.Equal(t, "", Text(props, "Missing"))

	n, ok := NumberValue(props, "Weight")
	assert.True(t, ok)
	assert.InDelta(t, 9.0, n, 0.001)

	_, ok = NumberValue(props, "Question")
	assert.False(t, ok)
}
