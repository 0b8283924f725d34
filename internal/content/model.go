// Package content implements the localized, nested "Sections" document that
// companies publish as their about and texts pages.
//
// A Document is an ordered list of Sections, each holding an ordered list of
// Notes. Every change produces a new Document value; unaffected Sections and
// Notes are carried over unchanged so callers can detect edits cheaply.
package content

// NotesLayout controls how a Section lays out its Notes.
type NotesLayout string

const (
	LayoutVertical   NotesLayout = "vertical"
	LayoutHorizontal NotesLayout = "horizontal"
)

// Alignment controls the horizontal alignment of a Section.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignRight  Alignment = "right"
	AlignCenter Alignment = "center"
)

// Picture references an image by URL.
type Picture struct {
	URL string `json:"url"`
}

// IsEmpty reports whether the picture has no URL.
func (p Picture) IsEmpty() bool {
	return p.URL == ""
}

// Note is a single callout inside a Section.
type Note struct {
	Picture         Picture       `json:"picture"`
	Symbol          string        `json:"symbol"`
	SymbolForeColor string        `json:"symbolForeColor"`
	ForeColor       string        `json:"foreColor"`
	BackColor       string        `json:"backColor"`
	Title           LocalizedText `json:"title"`
	Caption         LocalizedText `json:"caption"`
	Text            LocalizedText `json:"text"`
}

// Section is one content block.
type Section struct {
	BackColor       string        `json:"backColor"`
	ForeColor       string        `json:"foreColor"`
	NotesLayout     NotesLayout   `json:"notesLayout"`
	Alignment       Alignment     `json:"alignment"`
	BackgroundImage Picture       `json:"backgroundImage"`
	Title           LocalizedText `json:"title"`
	Description     LocalizedText `json:"description"`
	Notes           []Note        `json:"notes"`
}

// Document is the ordered list of Sections stored on a company.
type Document []Section

// NewNote returns an empty Note with every text field fully localized.
func NewNote() Note {
	return Note{
		Title:   NewLocalizedText(),
		Caption: NewLocalizedText(),
		Text:    NewLocalizedText(),
	}
}

// NewSection returns an empty Section holding a single empty Note.
func NewSection() Section {
	return Section{
		NotesLayout: LayoutVertical,
		Alignment:   AlignLeft,
		Title:       NewLocalizedText(),
		Description: NewLocalizedText(),
		Notes:       []Note{NewNote()},
	}
}

// NewDocument returns the document a freshly created company starts with.
func NewDocument() Document {
	return Document{NewSection()}
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for i, s := range d {
		out[i] = s.clone()
	}
	return out
}

func (s Section) clone() Section {
	s.Title = s.Title.clone()
	s.Description = s.Description.clone()
	notes := make([]Note, len(s.Notes))
	for i, n := range s.Notes {
		notes[i] = n.clone()
	}
	s.Notes = notes
	return s
}

func (n Note) clone() Note {
	n.Title = n.Title.clone()
	n.Caption = n.Caption.clone()
	n.Text = n.Text.clone()
	return n
}
