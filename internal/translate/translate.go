// Package translate fills in missing language variants of a content Document
// through an external translation service.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aegisrent/aegis-console/internal/content"
)

// ErrTranslation is wrapped by Translator implementations when the service
// rejects or fails a single request.
var ErrTranslation = errors.New("translation failed")

// Translator translates text from source into target.
type Translator interface {
	Translate(ctx context.Context, text, target, source string) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, text, target, source string) (string, error)

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, text, target, source string) (string, error) {
	return f(ctx, text, target, source)
}

// FieldError records one failed (field, target language) call.
type FieldError struct {
	Path   FieldPath
	Source string
	Target string
	Err    error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s->%s: %v", e.Path, e.Source, e.Target, e.Err)
}

func (e FieldError) Unwrap() error { return e.Err }

// Result summarizes one translation pass. Counts of Translated, Failed and
// Abandoned are per (field, target language) pair; Skipped counts whole
// fields that had no source text or nothing missing.
type Result struct {
	Translated int
	Failed     int
	Skipped    int
	Abandoned  int
	Failures   []FieldError
}

// Attempted is the number of translate calls made.
func (r Result) Attempted() int {
	return r.Translated + r.Failed
}

// Complete reports whether every missing variant was filled.
func (r Result) Complete() bool {
	return r.Failed == 0 && r.Abandoned == 0
}

// Err joins every recorded failure, or returns nil.
func (r Result) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// AutoTranslator walks a Document and fills every empty language variant of
// every text field from that field's best available source language.
type AutoTranslator struct {
	translator Translator
	logger     zerolog.Logger
	progress   func(Result)
}

// Option configures an AutoTranslator.
type Option func(*AutoTranslator)

// WithProgress registers fn to receive the running Result after every
// translate call.
func WithProgress(fn func(Result)) Option {
	return func(a *AutoTranslator) {
		a.progress = fn
	}
}

// NewAutoTranslator creates an AutoTranslator backed by t.
func NewAutoTranslator(t Translator, logger zerolog.Logger, opts ...Option) *AutoTranslator {
	a := &AutoTranslator{
		translator: t,
		logger:     logger.With().Str("component", "auto_translator").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// EffectiveSource returns preferred if lt has text for it, otherwise the first
// supported language that has text. ok is false when lt has no text at all.
func EffectiveSource(lt content.LocalizedText, preferred string) (lang string, ok bool) {
	if content.IsSupported(preferred) && hasText(lt, preferred) {
		return preferred, true
	}
	for _, l := range content.Languages {
		if hasText(lt, l) {
			return l, true
		}
	}
	return "", false
}

// Targets returns the supported languages other than source whose text is
// empty, in supported order.
func Targets(lt content.LocalizedText, source string) []string {
	var out []string
	for _, l := range content.Languages {
		if l != source && !hasText(lt, l) {
			out = append(out, l)
		}
	}
	return out
}

func hasText(lt content.LocalizedText, lang string) bool {
	return strings.TrimSpace(lt[lang]) != ""
}

// TranslateDocument returns a copy of doc with missing variants filled in.
// Existing non-empty text is never replaced. Calls are made one at a time, in
// document order and then language order. A failed call is logged and
// recorded in the Result without stopping the pass. Once ctx is done, the
// remaining pairs are counted as abandoned and the partial document is
// returned. doc itself is not modified.
func (a *AutoTranslator) TranslateDocument(ctx context.Context, doc content.Document, preferred string) (content.Document, Result) {
	out := content.EnsureDocumentInvariants(doc).Clone()
	var res Result

	for _, f := range fields(out) {
		source, ok := EffectiveSource(f.text, preferred)
		if !ok {
			res.Skipped++
			continue
		}
		targets := Targets(f.text, source)
		if len(targets) == 0 {
			res.Skipped++
			continue
		}

		text := f.text[source]
		for _, target := range targets {
			if ctx.Err() != nil {
				res.Abandoned++
				continue
			}

			translated, err := a.translator.Translate(ctx, text, target, source)
			if err == nil && strings.TrimSpace(translated) == "" {
				err = fmt.Errorf("%w: empty result", ErrTranslation)
			}
			if err != nil {
				res.Failed++
				res.Failures = append(res.Failures, FieldError{Path: f.path, Source: source, Target: target, Err: err})
				a.logger.Warn().Err(err).
					Str("field", f.path.String()).
					Str("source", source).
					Str("target", target).
					Msg("field translation failed")
			} else {
				f.text[target] = translated
				res.Translated++
			}

			if a.progress != nil {
				a.progress(res)
			}
		}
	}

	if res.Abandoned > 0 {
		a.logger.Info().Int("abandoned", res.Abandoned).Msg("translation pass cancelled")
	}
	a.logger.Debug().
		Int("translated", res.Translated).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Msg("translation pass finished")

	return content.EnsureDocumentInvariants(out), res
}
