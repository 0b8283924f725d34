package content

import "sync"

// Editor holds one edit session over a stored document. Every applied change
// re-serializes the document; Dirty tracks whether the serialized form differs
// from what was last saved.
type Editor struct {
	mu         sync.Mutex
	doc        Document
	serialized string
	saved      string
}

// NewEditor parses raw and starts a session on it.
func NewEditor(raw string) *Editor {
	doc := ParseDocument(raw)
	s := MustSerialize(doc)
	return &Editor{doc: doc, serialized: s, saved: s}
}

// Document returns the current document.
func (e *Editor) Document() Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// Serialized returns the current document as stored JSON.
func (e *Editor) Serialized() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.serialized
}

// Apply runs fn against the current document and keeps its result. If fn
// fails the session is left untouched.
func (e *Editor) Apply(fn func(Document) (Document, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := fn(e.doc)
	if err != nil {
		return err
	}
	next = EnsureDocumentInvariants(next)
	s, err := Serialize(next)
	if err != nil {
		return err
	}
	e.doc = next
	e.serialized = s
	return nil
}

// Dirty reports whether there are unsaved changes.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.serialized != e.saved
}

// MarkSaved records the current state as persisted.
func (e *Editor) MarkSaved() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.saved = e.serialized
}
