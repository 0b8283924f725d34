package translate

import (
	"fmt"

	"github.com/aegisrent/aegis-console/internal/content"
)

// FieldPath locates one translatable field in a Document. Note is -1 for
// fields that belong to the Section itself.
type FieldPath struct {
	Section int
	Note    int
	Field   string
}

func (p FieldPath) String() string {
	if p.Note < 0 {
		return fmt.Sprintf("sections[%d].%s", p.Section, p.Field)
	}
	return fmt.Sprintf("sections[%d].notes[%d].%s", p.Section, p.Note, p.Field)
}

type field struct {
	path FieldPath
	text content.LocalizedText
}

// fields lists every translatable field of doc in document order: a section's
// title and description, then each of its notes' title, caption and text.
// The returned maps alias doc.
func fields(doc content.Document) []field {
	var out []field
	for i := range doc {
		s := doc[i]
		out = append(out,
			field{FieldPath{i, -1, string(content.SectionTitle)}, s.Title},
			field{FieldPath{i, -1, string(content.SectionDescription)}, s.Description},
		)
		for j, n := range s.Notes {
			out = append(out,
				field{FieldPath{i, j, string(content.NoteTitle)}, n.Title},
				field{FieldPath{i, j, string(content.NoteCaption)}, n.Caption},
				field{FieldPath{i, j, string(content.NoteText)}, n.Text},
			)
		}
	}
	return out
}
