package content

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrSectionNotFound is returned when a section index is out of range.
	ErrSectionNotFound = errors.New("section not found")
	// ErrNoteNotFound is returned when a note index is out of range.
	ErrNoteNotFound = errors.New("note not found")
	// ErrUnsupportedLanguage is returned for a language outside Languages.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrUnknownField is returned for a text field name that does not exist.
	ErrUnknownField = errors.New("unknown field")
)

// SectionField names a localized text field of a Section.
type SectionField string

const (
	SectionTitle       SectionField = "title"
	SectionDescription SectionField = "description"
)

// NoteField names a localized text field of a Note.
type NoteField string

const (
	NoteTitle   NoteField = "title"
	NoteCaption NoteField = "caption"
	NoteText    NoteField = "text"
)

// UpdateSection returns a copy of doc with section i replaced by fn's result.
// Other sections are carried over unchanged.
func UpdateSection(doc Document, i int, fn func(Section) Section) (Document, error) {
	if i < 0 || i >= len(doc) {
		return doc, fmt.Errorf("%w: index %d", ErrSectionNotFound, i)
	}
	out := slices.Clone(doc)
	out[i] = fn(doc[i])
	return out, nil
}

// UpdateNote returns a copy of doc with note n of section s replaced by fn's
// result.
func UpdateNote(doc Document, s, n int, fn func(Note) Note) (Document, error) {
	if err := checkNote(doc, s, n); err != nil {
		return doc, err
	}
	return UpdateSection(doc, s, func(sec Section) Section {
		notes := slices.Clone(sec.Notes)
		notes[n] = fn(sec.Notes[n])
		sec.Notes = notes
		return sec
	})
}

// SetSectionText sets one language of a Section text field.
func SetSectionText(doc Document, s int, field SectionField, lang, value string) (Document, error) {
	if !IsSupported(lang) {
		return doc, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	if field != SectionTitle && field != SectionDescription {
		return doc, fmt.Errorf("%w: section %q", ErrUnknownField, field)
	}
	return UpdateSection(doc, s, func(sec Section) Section {
		switch field {
		case SectionTitle:
			sec.Title = sec.Title.With(lang, value)
		case SectionDescription:
			sec.Description = sec.Description.With(lang, value)
		}
		return sec
	})
}

// SetNoteText sets one language of a Note text field.
func SetNoteText(doc Document, s, n int, field NoteField, lang, value string) (Document, error) {
	if !IsSupported(lang) {
		return doc, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	if field != NoteTitle && field != NoteCaption && field != NoteText {
		return doc, fmt.Errorf("%w: note %q", ErrUnknownField, field)
	}
	return UpdateNote(doc, s, n, func(note Note) Note {
		switch field {
		case NoteTitle:
			note.Title = note.Title.With(lang, value)
		case NoteCaption:
			note.Caption = note.Caption.With(lang, value)
		case NoteText:
			note.Text = note.Text.With(lang, value)
		}
		return note
	})
}

// SetSectionBackground replaces the background image of a Section.
func SetSectionBackground(doc Document, s int, url string) (Document, error) {
	return UpdateSection(doc, s, func(sec Section) Section {
		sec.BackgroundImage = Picture{URL: url}
		return sec
	})
}

// SetNotePicture replaces the picture of a Note.
func SetNotePicture(doc Document, s, n int, url string) (Document, error) {
	return UpdateNote(doc, s, n, func(note Note) Note {
		note.Picture = Picture{URL: url}
		return note
	})
}

// AddSection appends an empty Section.
func AddSection(doc Document) Document {
	return append(slices.Clone(doc), NewSection())
}

// RemoveSection deletes section i. Removing the last Section leaves a fresh
// empty one in its place.
func RemoveSection(doc Document, i int) (Document, error) {
	if i < 0 || i >= len(doc) {
		return doc, fmt.Errorf("%w: index %d", ErrSectionNotFound, i)
	}
	out := slices.Delete(slices.Clone(doc), i, i+1)
	if len(out) == 0 {
		return NewDocument(), nil
	}
	return out, nil
}

// MoveSection moves section from to position to.
func MoveSection(doc Document, from, to int) (Document, error) {
	if from < 0 || from >= len(doc) {
		return doc, fmt.Errorf("%w: index %d", ErrSectionNotFound, from)
	}
	if to < 0 || to >= len(doc) {
		return doc, fmt.Errorf("%w: index %d", ErrSectionNotFound, to)
	}
	return move(doc, from, to), nil
}

// AddNote appends an empty Note to section s.
func AddNote(doc Document, s int) (Document, error) {
	return UpdateSection(doc, s, func(sec Section) Section {
		sec.Notes = append(slices.Clone(sec.Notes), NewNote())
		return sec
	})
}

// RemoveNote deletes note n of section s. Removing the last Note leaves a
// fresh empty one in its place.
func RemoveNote(doc Document, s, n int) (Document, error) {
	if err := checkNote(doc, s, n); err != nil {
		return doc, err
	}
	return UpdateSection(doc, s, func(sec Section) Section {
		notes := slices.Delete(slices.Clone(sec.Notes), n, n+1)
		if len(notes) == 0 {
			notes = []Note{NewNote()}
		}
		sec.Notes = notes
		return sec
	})
}

// MoveNote moves note from to position to within section s.
func MoveNote(doc Document, s, from, to int) (Document, error) {
	if err := checkNote(doc, s, from); err != nil {
		return doc, err
	}
	if err := checkNote(doc, s, to); err != nil {
		return doc, err
	}
	return UpdateSection(doc, s, func(sec Section) Section {
		sec.Notes = move(sec.Notes, from, to)
		return sec
	})
}

func checkNote(doc Document, s, n int) error {
	if s < 0 || s >= len(doc) {
		return fmt.Errorf("%w: index %d", ErrSectionNotFound, s)
	}
	if n < 0 || n >= len(doc[s].Notes) {
		return fmt.Errorf("%w: section %d index %d", ErrNoteNotFound, s, n)
	}
	return nil
}

func move[T any](items []T, from, to int) []T {
	out := slices.Clone(items)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}
