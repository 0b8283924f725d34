package content

// LegacyEntry is one element of the language-major format that predates
// LocalizedText: every language carried its own copy of the section list.
type LegacyEntry struct {
	Language string
	Sections []any
}

// isLegacy reports whether any element carries a language attribute.
func isLegacy(items []any) bool {
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			if _, ok := m["language"]; ok {
				return true
			}
		}
	}
	return false
}

func decodeLegacy(items []any) []LegacyEntry {
	entries := make([]LegacyEntry, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		sections, _ := m["sections"].([]any)
		entries = append(entries, LegacyEntry{
			Language: normalizeString(m["language"]),
			Sections: sections,
		})
	}
	return entries
}

// MigrateLegacy converts language-major entries into a section-major
// Document. Sections and notes are matched by position. Attributes that do not
// vary by language are taken from the first entry that sets them, and the
// first non-empty picture wins. Entries whose language is not supported are
// ignored. An input that yields no sections becomes NewDocument().
func MigrateLegacy(entries []LegacyEntry) Document {
	var doc Document

	for _, entry := range entries {
		lang, err := ParseLanguage(entry.Language)
		if err != nil {
			continue
		}

		for i, raw := range entry.Sections {
			for len(doc) <= i {
				doc = append(doc, blankSection())
			}
			ls, _ := raw.(map[string]any)
			doc[i] = migrateSection(doc[i], ls, lang)
		}
	}

	if len(doc) == 0 {
		return NewDocument()
	}
	return EnsureDocumentInvariants(doc)
}

func migrateSection(s Section, ls map[string]any, lang string) Section {
	if s.BackColor == "" {
		s.BackColor = normalizeString(ls["backColor"])
	}
	if s.ForeColor == "" {
		s.ForeColor = normalizeString(ls["foreColor"])
	}
	if s.NotesLayout == "" {
		s.NotesLayout = NotesLayout(normalizeString(ls["notesLayout"]))
	}
	if s.Alignment == "" {
		s.Alignment = Alignment(normalizeString(ls["alignment"]))
	}
	if s.BackgroundImage.IsEmpty() {
		s.BackgroundImage = NormalizePicture(ls["backgroundImage"])
	}

	s.Title = s.Title.With(lang, legacyText(ls["title"], lang))
	s.Description = s.Description.With(lang, legacyText(ls["description"], lang))

	items, _ := ls["notes"].([]any)
	if len(items) == 0 {
		return s
	}

	notes := append([]Note(nil), s.Notes...)
	for j, raw := range items {
		for len(notes) <= j {
			notes = append(notes, NewNote())
		}
		ln, _ := raw.(map[string]any)
		notes[j] = migrateNote(notes[j], ln, lang)
	}
	s.Notes = notes
	return s
}

func migrateNote(n Note, ln map[string]any, lang string) Note {
	if n.Symbol == "" {
		n.Symbol = normalizeString(ln["symbol"])
	}
	if n.SymbolForeColor == "" {
		n.SymbolForeColor = normalizeString(ln["symbolForeColor"])
	}
	if n.ForeColor == "" {
		n.ForeColor = normalizeString(ln["foreColor"])
	}
	if n.BackColor == "" {
		n.BackColor = normalizeString(ln["backColor"])
	}
	if n.Picture.IsEmpty() {
		n.Picture = NormalizePicture(ln["picture"])
	}

	n.Title = n.Title.With(lang, legacyText(ln["title"], lang))
	n.Caption = n.Caption.With(lang, legacyText(ln["caption"], lang))
	n.Text = n.Text.With(lang, legacyText(ln["text"], lang))
	return n
}

// blankSection is a Section with no shared attributes set yet, so the first
// legacy entry to provide them wins.
func blankSection() Section {
	return Section{
		Title:       NewLocalizedText(),
		Description: NewLocalizedText(),
	}
}

// legacyText reads a legacy text field, which is normally a plain string but
// is occasionally already a language map.
func legacyText(v any, lang string) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		return normalizeString(t[lang])
	}
	return ""
}
