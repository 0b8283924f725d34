package content

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sameMap reports whether a and b are the same underlying map.
func sameMap(a, b LocalizedText) bool {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

func twoSections() Document {
	doc := AddSection(NewDocument())
	doc, _ = SetSectionText(doc, 0, SectionTitle, "en", "First")
	doc, _ = SetSectionText(doc, 1, SectionTitle, "en", "Second")
	return doc
}

func TestSetSectionText_OnlyTouchesOneLanguage(t *testing.T) {
	doc := ParseDocument(`[{"title":{"en":"Hello","es":"Hola","de":"Hallo"}}]`)

	got, err := SetSectionText(doc, 0, SectionTitle, "es", "Buenas")
	require.NoError(t, err)

	assert.Equal(t, "Buenas", got[0].Title["es"])
	assert.Equal(t, "Hello", got[0].Title["en"])
	assert.Equal(t, "Hallo", got[0].Title["de"])
	assertComplete(t, got[0].Title)

	// The original document is untouched.
	assert.Equal(t, "Hola", doc[0].Title["es"])
}

func TestSetSectionText_StructuralSharing(t *testing.T) {
	doc := twoSections()

	got, err := SetSectionText(doc, 1, SectionDescription, "fr", "Bonjour")
	require.NoError(t, err)

	assert.True(t, sameMap(doc[0].Title, got[0].Title), "untouched section must be shared")
	assert.True(t, sameMap(doc[1].Title, got[1].Title), "untouched field must be shared")
	assert.False(t, sameMap(doc[1].Description, got[1].Description))
}

func TestEditorApply_KeepsUntouchedSectionsShared(t *testing.T) {
	e := NewEditor(MustSerialize(twoSections()))
	before := e.Document()

	require.NoError(t, e.Apply(func(doc Document) (Document, error) {
		return SetSectionText(doc, 0, SectionTitle, "en", "Hi")
	}))
	after := e.Document()

	assert.Equal(t, "Hi", after[0].Title["en"])
	assert.Same(t, &before[1].Notes[0], &after[1].Notes[0], "untouched notes must be shared")
	assert.True(t, sameMap(before[1].Title, after[1].Title))
	assert.True(t, sameMap(before[0].Description, after[0].Description))
	assert.Same(t, &before[0].Notes[0], &after[0].Notes[0])
}

func TestEnsureDocumentInvariants_CopiesOnlyIncompleteNotes(t *testing.T) {
	doc := twoSections()
	doc[1].Notes = append(doc[1].Notes, Note{Title: LocalizedText{"en": "Partial"}})

	got := EnsureDocumentInvariants(doc)

	assert.Same(t, &doc[0].Notes[0], &got[0].Notes[0])
	assert.NotSame(t, &doc[1].Notes[0], &got[1].Notes[0])
	assert.True(t, sameMap(doc[1].Notes[0].Title, got[1].Notes[0].Title))
	assert.Equal(t, "Partial", got[1].Notes[1].Title["en"])
	assertComplete(t, got[1].Notes[1].Title)
	assertComplete(t, got[1].Notes[1].Text)
}

func TestUpdateNote_OutOfRange(t *testing.T) {
	doc := NewDocument()

	got, err := UpdateNote(doc, 0, 7, func(n Note) Note { return n })
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.Equal(t, doc, got)

	_, err = UpdateNote(doc, 2, 0, func(n Note) Note { return n })
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestSetNoteText(t *testing.T) {
	doc := NewDocument()
	doc, _ = AddNote(doc, 0)

	got, err := SetNoteText(doc, 0, 1, NoteCaption, "pt", "Legenda")
	require.NoError(t, err)
	assert.Equal(t, "Legenda", got[0].Notes[1].Caption["pt"])
	assert.Equal(t, "", got[0].Notes[0].Caption["pt"])
	assert.True(t, sameMap(doc[0].Notes[0].Caption, got[0].Notes[0].Caption))
	assert.True(t, sameMap(doc[0].Title, got[0].Title))
}

func TestSetText_Errors(t *testing.T) {
	doc := NewDocument()

	_, err := SetSectionText(doc, 0, SectionTitle, "it", "Ciao")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = SetSectionText(doc, 0, "subtitle", "en", "x")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = SetSectionText(doc, 3, SectionTitle, "en", "x")
	assert.ErrorIs(t, err, ErrSectionNotFound)

	_, err = SetNoteText(doc, 0, 5, NoteText, "en", "x")
	assert.ErrorIs(t, err, ErrNoteNotFound)

	_, err = SetNoteText(doc, 1, 0, NoteText, "en", "x")
	assert.ErrorIs(t, err, ErrSectionNotFound)

	_, err = SetNotePicture(doc, 0, -1, "a.png")
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestPictures(t *testing.T) {
	doc, err := SetSectionBackground(NewDocument(), 0, "bg.png")
	require.NoError(t, err)
	doc, err = SetNotePicture(doc, 0, 0, "note.png")
	require.NoError(t, err)

	assert.Equal(t, "bg.png", doc[0].BackgroundImage.URL)
	assert.Equal(t, "note.png", doc[0].Notes[0].Picture.URL)
}

func TestRemoveSection(t *testing.T) {
	doc := twoSections()

	got, err := RemoveSection(doc, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Second", got[0].Title["en"])
	assert.Len(t, doc, 2)

	got, err = RemoveSection(got, 0)
	require.NoError(t, err)
	assert.Equal(t, NewDocument(), got)

	_, err = RemoveSection(got, 1)
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestRemoveNote_LastNoteIsReplaced(t *testing.T) {
	doc, _ := SetNoteText(NewDocument(), 0, 0, NoteTitle, "en", "Only")

	got, err := RemoveNote(doc, 0, 0)
	require.NoError(t, err)
	require.Len(t, got[0].Notes, 1)
	assert.Equal(t, NewNote(), got[0].Notes[0])
	assert.Equal(t, "Only", doc[0].Notes[0].Title["en"])
}

func TestMoveSection(t *testing.T) {
	doc := AddSection(twoSections())
	doc, _ = SetSectionText(doc, 2, SectionTitle, "en", "Third")

	got, err := MoveSection(doc, 0, 2)
	require.NoError(t, err)
	titles := []string{got[0].Title["en"], got[1].Title["en"], got[2].Title["en"]}
	assert.Equal(t, []string{"Second", "Third", "First"}, titles)

	got, err = MoveSection(doc, 2, 0)
	require.NoError(t, err)
	titles = []string{got[0].Title["en"], got[1].Title["en"], got[2].Title["en"]}
	assert.Equal(t, []string{"Third", "First", "Second"}, titles)

	_, err = MoveSection(doc, 0, 3)
	assert.ErrorIs(t, err, ErrSectionNotFound)
	assert.Equal(t, "First", doc[0].Title["en"])
}

func TestMoveNote(t *testing.T) {
	doc := NewDocument()
	doc, _ = AddNote(doc, 0)
	doc, _ = SetNoteText(doc, 0, 0, NoteTitle, "en", "A")
	doc, _ = SetNoteText(doc, 0, 1, NoteTitle, "en", "B")

	got, err := MoveNote(doc, 0, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "B", got[0].Notes[0].Title["en"])
	assert.Equal(t, "A", got[0].Notes[1].Title["en"])
	assert.Equal(t, "A", doc[0].Notes[0].Title["en"])

	_, err = MoveNote(doc, 0, 0, 2)
	assert.ErrorIs(t, err, ErrNoteNotFound)
}
