package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aegisrent/aegis-console/internal/content"
	"github.com/aegisrent/aegis-console/internal/gateway"
	"github.com/aegisrent/aegis-console/internal/translate"
)

// translationCacheBytes bounds the in-process translation cache of one run.
const translationCacheBytes = 8 << 20

func newContentCmd(a *app) *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "content",
		Short: "Edit a company's about or texts document",
		Long: `Edit a company's localized content documents.

Every command works on one document, selected with --field (about or texts).
Documents are normalized when read, so legacy and partial documents are
accepted. Saves are last-write-wins.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if !gateway.ContentField(field).Valid() {
				return fmt.Errorf("--field must be %q or %q", gateway.ContentAbout, gateway.ContentTexts)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&field, "field", string(gateway.ContentAbout), "document to edit (about or texts)")

	doc := func() gateway.ContentField { return gateway.ContentField(field) }
	cmd.AddCommand(
		newContentShowCmd(a, doc),
		newContentNormalizeCmd(a, doc),
		newContentTranslateCmd(a, doc),
		newContentAddSectionCmd(a, doc),
		newContentRemoveSectionCmd(a, doc),
		newContentSetTextCmd(a, doc),
		newContentSaveCmd(a, doc),
	)

	return cmd
}

// contentSession is one open document of one company.
type contentSession struct {
	client    *gateway.Client
	companyID string
	field     gateway.ContentField
	raw       string
	editor    *content.Editor
}

func openContent(ctx context.Context, a *app, companyID string, field gateway.ContentField) (*contentSession, error) {
	client, err := a.authedClient()
	if err != nil {
		return nil, err
	}
	company, err := client.Company(ctx, companyID)
	if err != nil {
		return nil, describe(err)
	}
	raw := company.Document(field)
	return &contentSession{
		client:    client,
		companyID: companyID,
		field:     field,
		raw:       raw,
		editor:    content.NewEditor(raw),
	}, nil
}

// save stores the document if it changed since it was opened.
func (s *contentSession) save(ctx context.Context, out io.Writer) error {
	if !s.editor.Dirty() && s.editor.Serialized() == s.raw {
		fmt.Fprintln(out, "No changes.")
		return nil
	}
	if err := s.client.SaveContent(ctx, s.companyID, s.field, s.editor.Document()); err != nil {
		return describe(err)
	}
	s.editor.MarkSaved()
	fmt.Fprintf(out, "Saved %s for company %s.\n", s.field, s.companyID)
	return nil
}

func newContentShowCmd(a *app, field func() gateway.ContentField) *cobra.Command {
	var (
		lang   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "show <company-id>",
		Short: "Print a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			language, err := a.language(lang)
			if err != nil {
				return err
			}
			s, err := openContent(cmd.Context(), a, args[0], field())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), s.editor.Document())
			}
			printOutline(cmd.OutOrStdout(), s.editor.Document(), language)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "language to print")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the normalized document as JSON")

	return cmd
}

func newContentNormalizeCmd(a *app, field func() gateway.ContentField) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "normalize <company-id>",
		Short: "Rewrite a stored document in canonical form",
		Long: `Rewrite a stored document in canonical form. Legacy per-language
documents are migrated and missing attributes are filled with defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openContent(cmd.Context(), a, args[0], field())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if s.editor.Serialized() == s.raw {
				fmt.Fprintln(out, "Document is already canonical.")
				return nil
			}
			if dryRun {
				fmt.Fprintln(out, "Document would be rewritten:")
				return printJSON(out, s.editor.Document())
			}
			return s.save(cmd.Context(), out)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the canonical document without saving")

	return cmd
}

func newContentTranslateCmd(a *app, field func() gateway.ContentField) *cobra.Command {
	var (
		lang   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "translate <company-id>",
		Short: "Fill in missing languages through the translation service",
		Long: `Fill in every empty language variant from the field's best source
language: --lang if it has text, otherwise the first supported language that
does. Existing text is never replaced. Interrupting keeps and saves what was
translated so far.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preferred, err := a.language(lang)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			s, err := openContent(ctx, a, args[0], field())
			if err != nil {
				return err
			}

			cached, err := translate.NewCachedTranslator(s.client, translationCacheBytes, translate.DefaultCacheTTL)
			if err != nil {
				return err
			}
			defer cached.Close()

			errOut := cmd.ErrOrStderr()
			auto := translate.NewAutoTranslator(cached, a.logger, translate.WithProgress(func(r translate.Result) {
				fmt.Fprintf(errOut, "\rtranslated %d, failed %d", r.Translated, r.Failed)
			}))

			var res translate.Result
			err = s.editor.Apply(func(doc content.Document) (content.Document, error) {
				var next content.Document
				next, res = auto.TranslateDocument(ctx, doc, preferred)
				return next, nil
			})
			if err != nil {
				return err
			}
			if res.Attempted() > 0 {
				fmt.Fprintln(errOut)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Translated %d, failed %d, skipped %d fields", res.Translated, res.Failed, res.Skipped)
			if res.Abandoned > 0 {
				fmt.Fprintf(out, ", abandoned %d", res.Abandoned)
			}
			fmt.Fprintln(out, ".")
			for _, f := range res.Failures {
				fmt.Fprintf(out, "  %s\n", f.Error())
			}

			if dryRun {
				return printJSON(out, s.editor.Document())
			}
			// The translations made before an interrupt are still saved.
			if err := s.save(context.WithoutCancel(ctx), out); err != nil {
				return err
			}
			if !res.Complete() {
				return errors.New("some languages are still missing")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "preferred source language")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the translated document without saving")

	return cmd
}

func newContentAddSectionCmd(a *app, field func() gateway.ContentField) *cobra.Command {
	return &cobra.Command{
		Use:   "add-section <company-id>",
		Short: "Append an empty section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openContent(cmd.Context(), a, args[0], field())
			if err != nil {
				return err
			}
			if err := s.editor.Apply(func(doc content.Document) (content.Document, error) {
				return content.AddSection(doc), nil
			}); err != nil {
				return err
			}
			return s.save(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func newContentRemoveSectionCmd(a *app, field func() gateway.ContentField) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-section <company-id> <index>",
		Short: "Remove a section",
		Long:  "Remove a section. Removing the last section leaves one empty section.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid section index %q", args[1])
			}
			s, err := openContent(cmd.Context(), a, args[0], field())
			if err != nil {
				return err
			}
			if err := s.editor.Apply(func(doc content.Document) (content.Document, error) {
				return content.RemoveSection(doc, i)
			}); err != nil {
				return err
			}
			return s.save(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func newContentSetTextCmd(a *app, field func() gateway.ContentField) *cobra.Command {
	var (
		section int
		note    int
		name    string
		lang    string
	)

	cmd := &cobra.Command{
		Use:   "set-text <company-id> <text>",
		Short: "Set one language of one text field",
		Long: `Set one language of one text field. Without --note the field is a
section field (title, description); with --note it is a note field (title,
caption, text).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			language, err := a.language(lang)
			if err != nil {
				return err
			}
			s, err := openContent(cmd.Context(), a, args[0], field())
			if err != nil {
				return err
			}
			if err := s.editor.Apply(func(doc content.Document) (content.Document, error) {
				if note < 0 {
					return content.SetSectionText(doc, section, content.SectionField(name), language, args[1])
				}
				return content.SetNoteText(doc, section, note, content.NoteField(name), language, args[1])
			}); err != nil {
				return err
			}
			return s.save(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&section, "section", 0, "section index")
	cmd.Flags().IntVar(&note, "note", -1, "note index within the section")
	cmd.Flags().StringVar(&name, "name", "title", "field name")
	cmd.Flags().StringVar(&lang, "lang", "", "language to set")

	return cmd
}

func newContentSaveCmd(a *app, field func() gateway.ContentField) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "save <company-id>",
		Short: "Replace a document from a JSON file",
		Long: `Replace a document from a JSON file, or standard input with --file -.
The file is normalized before it is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if file == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			if strings.TrimSpace(string(data)) == "" {
				return errors.New("document is empty")
			}

			s, err := openContent(cmd.Context(), a, args[0], field())
			if err != nil {
				return err
			}
			if err := s.editor.Apply(func(content.Document) (content.Document, error) {
				return content.ParseDocument(string(data)), nil
			}); err != nil {
				return err
			}
			return s.save(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON document to store (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// printOutline prints the text of doc in one language.
func printOutline(out io.Writer, doc content.Document, lang string) {
	for i, s := range doc {
		fmt.Fprintf(out, "[%d] %s\n", i, orDash(s.Title.Get(lang)))
		if d := s.Description.Get(lang); d != "" {
			fmt.Fprintf(out, "    %s\n", d)
		}
		for j, n := range s.Notes {
			fmt.Fprintf(out, "    [%d.%d] %s", i, j, orDash(n.Title.Get(lang)))
			if c := n.Caption.Get(lang); c != "" {
				fmt.Fprintf(out, " (%s)", c)
			}
			fmt.Fprintln(out)
			if t := n.Text.Get(lang); t != "" {
				fmt.Fprintf(out, "          %s\n", t)
			}
		}
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
