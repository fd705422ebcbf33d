package lrl

import (
	"latent-hq/callisto/pkg/lrl/ast"
	"latent-hq/callisto/pkg/lrl/parser"
	"latent-hq/callisto/pkg/lrl/validator"
)

// ParseAndValidate is a convenience function that parses and validates a rule file.
// It returns the parsed AST if successful, or an error if parsing or validation fails.
func ParseAndValidate(path string) (*ast.Document, error) {
	// Parse
	p := parser.NewParser()
	doc, err := p.Parse(path)
	if err != nil {
		return nil, err
	}

	// Validate
	v := validator.NewValidator()
	if err := v.Validate(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// ParseAndValidateBytes is a convenience function that parses and validates rule YAML from bytes.
func ParseAndValidateBytes(data []byte, sourcePath string) (*ast.Document, error) {
	// Parse
	p := parser.NewParser()
	doc, err := p.ParseBytes(data, sourcePath)
	if err != nil {
		return nil, err
	}

	// Validate
	v := validator.NewValidator()
	if err := v.Validate(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// Parse parses a rule file without validation.
// Use this if you want to inspect the AST before validation.
func Parse(path string) (*ast.Document, error) {
	p := parser.NewParser()
	return p.Parse(path)
}

// Validate validates a parsed rule document.
func Validate(doc *ast.Document) error {
	v := validator.NewValidator()
	return v.Validate(doc)
}
