// Package source provides rule document sources for the engine:
// loading parsed documents from files, directories, or memory.
// Sources only parse; structural and semantic validation happens when
// the engine compiles the documents.
package source

import (
	"context"

	"latent-hq/callisto/pkg/lrl/ast"
)

// NamedDocument pairs a parsed rule document with its origin, used
// for logging and trace attribution.
type NamedDocument struct {
	// Name identifies the document, typically its file path.
	Name string

	// Doc is the parsed document.
	Doc *ast.Document
}

// RuleSource loads rule documents from somewhere: a file tree, an
// embedded string, a git checkout. Load returns every document in a
// stable order so compiled rule order is reproducible.
type RuleSource interface {
	Load(ctx context.Context) ([]*NamedDocument, error)
}

// Documents extracts the bare documents from a named list, in order,
// ready to hand to the engine's Reload.
func Documents(named []*NamedDocument) []*ast.Document {
	docs := make([]*ast.Document, 0, len(named))
	for _, nd := range named {
		docs = append(docs, nd.Doc)
	}
	return docs
}
