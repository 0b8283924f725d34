package content

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseDocument decodes a stored document. It never fails: blank input,
// malformed JSON and non-array values all yield NewDocument(). Arrays in the
// legacy language-major shape are migrated.
func ParseDocument(raw string) Document {
	if strings.TrimSpace(raw) == "" {
		return NewDocument()
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return NewDocument()
	}

	items, ok := v.([]any)
	if !ok {
		return NewDocument()
	}

	if isLegacy(items) {
		return MigrateLegacy(decodeLegacy(items))
	}

	doc := make(Document, 0, len(items))
	for _, item := range items {
		doc = append(doc, NormalizeSection(item))
	}
	return EnsureDocumentInvariants(doc)
}

// Serialize encodes doc after re-asserting its invariants.
func Serialize(doc Document) (string, error) {
	data, err := json.Marshal(EnsureDocumentInvariants(doc))
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}
	return string(data), nil
}

// MustSerialize is Serialize for documents built in code.
func MustSerialize(doc Document) string {
	s, err := Serialize(doc)
	if err != nil {
		panic(err)
	}
	return s
}

// NormalizeSection builds a Section from a decoded JSON value, applying a
// default for every missing or malformed attribute.
func NormalizeSection(raw any) Section {
	m, ok := raw.(map[string]any)
	if !ok {
		return NewSection()
	}

	s := Section{
		BackColor:       normalizeString(m["backColor"]),
		ForeColor:       normalizeString(m["foreColor"]),
		NotesLayout:     normalizeLayout(m["notesLayout"]),
		Alignment:       normalizeAlignment(m["alignment"]),
		BackgroundImage: NormalizePicture(m["backgroundImage"]),
		Title:           NormalizeLocalizedText(m["title"]),
		Description:     NormalizeLocalizedText(m["description"]),
	}

	if items, ok := m["notes"].([]any); ok {
		for _, item := range items {
			s.Notes = append(s.Notes, NormalizeNote(item))
		}
	}
	if len(s.Notes) == 0 {
		s.Notes = []Note{NewNote()}
	}
	return s
}

// NormalizeNote builds a Note from a decoded JSON value.
func NormalizeNote(raw any) Note {
	m, ok := raw.(map[string]any)
	if !ok {
		return NewNote()
	}
	return Note{
		Picture:         NormalizePicture(m["picture"]),
		Symbol:          normalizeString(m["symbol"]),
		SymbolForeColor: normalizeString(m["symbolForeColor"]),
		ForeColor:       normalizeString(m["foreColor"]),
		BackColor:       normalizeString(m["backColor"]),
		Title:           NormalizeLocalizedText(m["title"]),
		Caption:         NormalizeLocalizedText(m["caption"]),
		Text:            NormalizeLocalizedText(m["text"]),
	}
}

// pictureShape recognizes one stored encoding of a Picture.
type pictureShape struct {
	name  string
	match func(v any) (Picture, bool)
}

// pictureShapes lists every recognized Picture encoding, tried in order.
var pictureShapes = []pictureShape{
	{"string", func(v any) (Picture, bool) {
		s, ok := v.(string)
		return Picture{URL: s}, ok
	}},
	{"url", pictureKey("url")},
	{"Url", pictureKey("Url")},
	{"URL", pictureKey("URL")},
	{"src", pictureKey("src")},
	{"imageUrl", pictureKey("imageUrl")},
	{"image", pictureKey("image")},
}

func pictureKey(key string) func(v any) (Picture, bool) {
	return func(v any) (Picture, bool) {
		m, ok := v.(map[string]any)
		if !ok {
			return Picture{}, false
		}
		s, ok := m[key].(string)
		return Picture{URL: s}, ok
	}
}

// NormalizePicture accepts any recognized Picture encoding; anything else,
// including an absent value, becomes an empty Picture.
func NormalizePicture(raw any) Picture {
	for _, shape := range pictureShapes {
		if p, ok := shape.match(raw); ok {
			return p
		}
	}
	return Picture{}
}

// NormalizeLocalizedText accepts a language map or a bare string. A bare
// string is taken as text in the first supported language. Unsupported
// language keys and non-string values are dropped.
func NormalizeLocalizedText(raw any) LocalizedText {
	lt := NewLocalizedText()
	switch v := raw.(type) {
	case string:
		lt[Languages[0]] = v
	case map[string]any:
		for _, l := range Languages {
			lt[l] = normalizeString(v[l])
		}
	}
	return lt
}

// EnsureDocumentInvariants returns doc with at least one Section, at least one
// Note per Section, every LocalizedText fully populated and enum values
// clamped. It is idempotent.
func EnsureDocumentInvariants(doc Document) Document {
	if len(doc) == 0 {
		return NewDocument()
	}
	out := make(Document, len(doc))
	for i, s := range doc {
		out[i] = ensureSection(s)
	}
	return out
}

func ensureSection(s Section) Section {
	s.NotesLayout = normalizeLayout(string(s.NotesLayout))
	s.Alignment = normalizeAlignment(string(s.Alignment))
	s.Title = ensureText(s.Title)
	s.Description = ensureText(s.Description)

	if len(s.Notes) == 0 {
		s.Notes = []Note{NewNote()}
		return s
	}
	// Notes are only copied when one of them needs filling in.
	var notes []Note
	for i, n := range s.Notes {
		if noteComplete(n) {
			if notes != nil {
				notes[i] = n
			}
			continue
		}
		if notes == nil {
			notes = make([]Note, len(s.Notes))
			copy(notes, s.Notes[:i])
		}
		n.Title = ensureText(n.Title)
		n.Caption = ensureText(n.Caption)
		n.Text = ensureText(n.Text)
		notes[i] = n
	}
	if notes != nil {
		s.Notes = notes
	}
	return s
}

func noteComplete(n Note) bool {
	return n.Title.isComplete() && n.Caption.isComplete() && n.Text.isComplete()
}

// ensureText keeps complete values as-is so unchanged fields stay shared.
func ensureText(lt LocalizedText) LocalizedText {
	if lt.isComplete() {
		return lt
	}
	return lt.complete()
}

func normalizeString(v any) string {
	s, _ := v.(string)
	return s
}

func normalizeLayout(v any) NotesLayout {
	if s, _ := v.(string); s == string(LayoutHorizontal) {
		return LayoutHorizontal
	}
	return LayoutVertical
}

func normalizeAlignment(v any) Alignment {
	s, _ := v.(string)
	switch a := Alignment(s); a {
	case AlignLeft, AlignRight, AlignCenter:
		return a
	}
	return AlignLeft
}
