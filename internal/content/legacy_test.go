package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyDoc = `[
	{"language":"en","sections":[
		{"title":"Hello","description":"About us","backColor":"#111","notesLayout":"horizontal",
		 "notes":[{"title":"Cars","caption":"Fast","picture":"","symbol":"<svg id=\"en\"/>"},
		          {"title":"Vans","picture":{"url":"van.png"}}]},
		{"title":"Second"}
	]},
	{"language":"es","sections":[
		{"title":"Hola","description":"Sobre nosotros","backColor":"#999","notesLayout":"vertical",
		 "notes":[{"title":"Coches","picture":"coche.png","symbol":"<svg id=\"es\"/>"}]}
	]}
]`

func TestMigrateLegacy_PreservesContent(t *testing.T) {
	doc := ParseDocument(legacyDoc)
	assertWellFormed(t, doc)
	require.Len(t, doc, 2)

	s := doc[0]
	assert.Equal(t, "Hello", s.Title["en"])
	assert.Equal(t, "Hola", s.Title["es"])
	assert.Equal(t, "About us", s.Description["en"])
	assert.Equal(t, "Sobre nosotros", s.Description["es"])
	assert.Equal(t, "", s.Title["fr"])

	assert.Equal(t, "Second", doc[1].Title["en"])
	assert.Equal(t, "", doc[1].Title["es"])
}

func TestMigrateLegacy_FirstWriterWinsForSharedAttributes(t *testing.T) {
	doc := ParseDocument(legacyDoc)
	s := doc[0]

	assert.Equal(t, "#111", s.BackColor)
	assert.Equal(t, LayoutHorizontal, s.NotesLayout)

	require.Len(t, s.Notes, 2)
	assert.Equal(t, `<svg id="en"/>`, s.Notes[0].Symbol)
	assert.Equal(t, "Cars", s.Notes[0].Title["en"])
	assert.Equal(t, "Coches", s.Notes[0].Title["es"])
	assert.Equal(t, "Fast", s.Notes[0].Caption["en"])
}

func TestMigrateLegacy_FirstNonEmptyPictureWins(t *testing.T) {
	doc := ParseDocument(legacyDoc)
	notes := doc[0].Notes

	// English had an empty picture, so the Spanish one fills it.
	assert.Equal(t, "coche.png", notes[0].Picture.URL)
	assert.Equal(t, "van.png", notes[1].Picture.URL)
}

func TestMigrateLegacy_GapsAreFilled(t *testing.T) {
	doc := MigrateLegacy([]LegacyEntry{
		{Language: "fr", Sections: []any{
			map[string]any{"title": "Un"},
			map[string]any{"title": "Deux"},
			map[string]any{"title": "Trois"},
		}},
		{Language: "de", Sections: []any{
			map[string]any{"title": "Eins"},
		}},
	})

	assertWellFormed(t, doc)
	require.Len(t, doc, 3)
	assert.Equal(t, "Eins", doc[0].Title["de"])
	assert.Equal(t, "Trois", doc[2].Title["fr"])
	assert.Equal(t, "", doc[2].Title["de"])
}

func TestMigrateLegacy_Empty(t *testing.T) {
	assert.Equal(t, NewDocument(), MigrateLegacy(nil))
	assert.Equal(t, NewDocument(), MigrateLegacy([]LegacyEntry{{Language: "en"}}))
	assert.Equal(t, NewDocument(), ParseDocument(`[{"language":"en","sections":[]}]`))
}

func TestMigrateLegacy_LanguageTags(t *testing.T) {
	doc := ParseDocument(`[{"language":"pt-BR","sections":[{"title":"Olá"}]}]`)
	assert.Equal(t, "Olá", doc[0].Title["pt"])
}

func TestMigrateLegacy_MixedArrayIsLegacy(t *testing.T) {
	// A single element with a language attribute marks the whole array legacy.
	doc := ParseDocument(`[{"title":{"en":"modern"}},{"language":"en","sections":[{"title":"old"}]}]`)
	require.Len(t, doc, 1)
	assert.Equal(t, "old", doc[0].Title["en"])
}

func TestMigrateLegacy_Idempotent(t *testing.T) {
	first := ParseDocument(legacyDoc)
	raw := MustSerialize(first)
	assert.Equal(t, first, ParseDocument(raw))
}
