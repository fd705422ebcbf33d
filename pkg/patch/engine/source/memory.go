package source

import (
	"context"
	"fmt"

	"latent-hq/callisto/pkg/lrl/parser"
)

// MemorySource serves documents parsed from in-memory rule text.
// Hosts use it to embed rules in a pipeline definition; tests use it
// to avoid fixture files.
type MemorySource struct {
	docs []*NamedDocument
}

// NewMemorySource creates a source over already parsed documents.
func NewMemorySource(docs ...*NamedDocument) *MemorySource {
	return &MemorySource{docs: docs}
}

// NewMemorySourceFromText parses rule text into a single-document
// source. The name identifies the document in logs and errors.
func NewMemorySourceFromText(name, text string) (*MemorySource, error) {
	doc, err := parser.NewParser().ParseString(text, name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", name, err)
	}
	return &MemorySource{docs: []*NamedDocument{{Name: name, Doc: doc}}}, nil
}

// Load returns the documents in insertion order.
func (s *MemorySource) Load(ctx context.Context) ([]*NamedDocument, error) {
	out := make([]*NamedDocument, len(s.docs))
	copy(out, s.docs)
	return out, nil
}
