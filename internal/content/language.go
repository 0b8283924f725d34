package content

import (
	"fmt"
	"maps"
	"strings"

	"golang.org/x/text/language"
)

// Languages is the fixed set of supported language codes, in the order used
// when choosing a fallback translation source.
var Languages = []string{"en", "es", "pt", "fr", "de"}

// IsSupported reports whether code is one of Languages.
func IsSupported(code string) bool {
	for _, l := range Languages {
		if l == code {
			return true
		}
	}
	return false
}

// ParseLanguage canonicalizes a BCP 47 tag (e.g. "pt-BR", "EN") to its base
// language code and verifies it is supported.
func ParseLanguage(tag string) (string, error) {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", tag, err)
	}
	base, _ := t.Base()
	code := base.String()
	if !IsSupported(code) {
		return "", fmt.Errorf("language %q is not supported (want one of %s)", tag, strings.Join(Languages, ", "))
	}
	return code, nil
}

// LocalizedText maps a language code to text. Normalized values carry an
// entry for every supported language.
type LocalizedText map[string]string

// NewLocalizedText returns a LocalizedText with every language set to "".
func NewLocalizedText() LocalizedText {
	lt := make(LocalizedText, len(Languages))
	for _, l := range Languages {
		lt[l] = ""
	}
	return lt
}

// Get returns the text for lang, or "".
func (lt LocalizedText) Get(lang string) string {
	return lt[lang]
}

// With returns a copy of lt with lang set to value. lt itself is not modified.
func (lt LocalizedText) With(lang, value string) LocalizedText {
	out := lt.complete()
	out[lang] = value
	return out
}

// IsEmpty reports whether no language has non-blank text.
func (lt LocalizedText) IsEmpty() bool {
	for _, v := range lt {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// complete returns a copy with every supported language present.
func (lt LocalizedText) complete() LocalizedText {
	out := NewLocalizedText()
	maps.Copy(out, lt)
	return out
}

func (lt LocalizedText) clone() LocalizedText {
	return maps.Clone(lt)
}

// isComplete reports whether every supported language is present.
func (lt LocalizedText) isComplete() bool {
	for _, l := range Languages {
		if _, ok := lt[l]; !ok {
			return false
		}
	}
	return true
}
