package parser

import (
	"fmt"
	"io"
	"os"

	"latent-hq/callisto/pkg/lrl/ast"
	lrlErrors "latent-hq/callisto/pkg/lrl/errors"
)

// Parser parses LRL rule documents into Abstract Syntax Trees.
// It handles YAML parsing, AST construction, and basic structural
// validation.
type Parser struct {
	// Configuration
	maxFileSize int64 // Maximum file size in bytes (default: 10MB)
	maxDepth    int   // Maximum rule/comparison nesting depth (default: 32)
	strictMode  bool  // Strict mode (unknown rule keys become errors)
	braceSub    bool  // Replace angle brackets with curly braces before decoding
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 10 * 1024 * 1024, // 10MB
		maxDepth:    32,
		strictMode:  false,
		braceSub:    false,
	}
}

// WithMaxFileSize sets the maximum file size limit.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithMaxDepth sets the maximum rule/comparison nesting depth.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// WithStrictMode enables strict parsing (unknown rule keys become errors).
func (p *Parser) WithStrictMode(strict bool) *Parser {
	p.strictMode = strict
	return p
}

// WithBraceSubstitution enables replacing `<` and `>` with `{` and `}`
// across the whole input before decoding.
func (p *Parser) WithBraceSubstitution(enabled bool) *Parser {
	p.braceSub = enabled
	return p
}

// Parse parses a rule file at the given path and returns the AST.
// It returns an error if the file cannot be read, has invalid YAML
// syntax, or contains structural errors.
func (p *Parser) Parse(path string) (*ast.Document, error) {
	// Check file size
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, &lrlErrors.Error{
			Type:    lrlErrors.ErrorTypeIO,
			Message: fmt.Sprintf("Failed to access file: %v", err),
			Location: ast.Location{
				File: path,
			},
		}
	}

	if fileInfo.Size() > p.maxFileSize {
		return nil, &lrlErrors.Error{
			Type:    lrlErrors.ErrorTypeIO,
			Message: fmt.Sprintf("File size %d exceeds maximum %d bytes", fileInfo.Size(), p.maxFileSize),
			Location: ast.Location{
				File: path,
			},
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &lrlErrors.Error{
			Type:    lrlErrors.ErrorTypeIO,
			Message: fmt.Sprintf("Failed to read file: %v", err),
			Location: ast.Location{
				File: path,
			},
		}
	}

	return p.ParseBytes(data, path)
}

// ParseBytes parses rule YAML from a byte slice.
// This is useful for testing or parsing rules from memory.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*ast.Document, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, &lrlErrors.Error{
			Type:    lrlErrors.ErrorTypeIO,
			Message: fmt.Sprintf("Data size %d exceeds maximum %d bytes", len(data), p.maxFileSize),
			Location: ast.Location{
				File: sourcePath,
			},
		}
	}

	if p.braceSub {
		data = substituteBraces(data)
	}

	// Parse YAML
	root, err := decodeYAML(data)
	if err != nil {
		return nil, &lrlErrors.Error{
			Type:    lrlErrors.ErrorTypeSyntax,
			Message: fmt.Sprintf("YAML parsing failed: %v", err),
			Location: ast.Location{
				File:   sourcePath,
				Line:   1,
				Column: 1,
			},
			Suggestion: "Check YAML syntax (indentation, colons, quotes)",
		}
	}

	// Build AST
	builder := newBuilder(sourcePath, p.maxDepth, p.strictMode)
	doc, err := builder.buildDocument(root)
	if err != nil {
		// Add context to errors (no-op for in-memory data)
		if errList, ok := err.(*lrlErrors.ErrorList); ok {
			for i, e := range errList.Errors {
				errList.Errors[i] = lrlErrors.AddContextToError(e)
			}
		}
		return nil, err
	}

	return doc, nil
}

// ParseString parses rule YAML from a string.
func (p *Parser) ParseString(text string, sourcePath string) (*ast.Document, error) {
	return p.ParseBytes([]byte(text), sourcePath)
}

// ParseReader parses rule YAML from a reader.
func (p *Parser) ParseReader(r io.Reader, sourcePath string) (*ast.Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxFileSize+1))
	if err != nil {
		return nil, &lrlErrors.Error{
			Type:    lrlErrors.ErrorTypeIO,
			Message: fmt.Sprintf("Failed to read input: %v", err),
			Location: ast.Location{
				File: sourcePath,
			},
		}
	}
	return p.ParseBytes(data, sourcePath)
}

// ParseMulti parses multiple rule files and merges them into a single
// document. Rules from all files are combined in order. This is used for
// rule composition across files.
func (p *Parser) ParseMulti(paths []string) (*ast.Document, error) {
	if len(paths) == 0 {
		return nil, &lrlErrors.Error{
			Type:    lrlErrors.ErrorTypeIO,
			Message: "No rule files provided",
		}
	}

	// Parse first file as base document
	doc, err := p.Parse(paths[0])
	if err != nil {
		return nil, err
	}

	// Parse and append additional files
	for _, path := range paths[1:] {
		additional, err := p.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		doc.Rules = append(doc.Rules, additional.Rules...)
	}

	return doc, nil
}
