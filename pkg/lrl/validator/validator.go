package validator

import (
	"latent-hq/callisto/pkg/lrl/ast"
	lrlErrors "latent-hq/callisto/pkg/lrl/errors"
)

// Validator is the main validator that orchestrates all validation passes.
// It runs structural and semantic validation in sequence.
type Validator struct {
	structural *StructuralValidator
	semantic   *SemanticValidator
}

// NewValidator creates a new validator with all validation passes.
func NewValidator() *Validator {
	return &Validator{
		structural: NewStructuralValidator(),
		semantic:   NewSemanticValidator(),
	}
}

// Validate runs all validation passes on a document.
// It accumulates errors from all passes and returns them together.
func (v *Validator) Validate(doc *ast.Document) error {
	errors := lrlErrors.NewErrorList()

	// Run structural validation
	if err := v.structural.Validate(doc); err != nil {
		if errList, ok := err.(*lrlErrors.ErrorList); ok {
			errors.Errors = append(errors.Errors, errList.Errors...)
		}
	}

	// Run semantic validation (only if structural validation passed)
	// This prevents cascading errors
	if !errors.HasErrorType(lrlErrors.ErrorTypeStructural) {
		if err := v.semantic.Validate(doc); err != nil {
			if errList, ok := err.(*lrlErrors.ErrorList); ok {
				errors.Errors = append(errors.Errors, errList.Errors...)
			}
		}
	}

	return errors.ToError()
}

// ValidateStructural runs only structural validation.
func (v *Validator) ValidateStructural(doc *ast.Document) error {
	return v.structural.Validate(doc)
}

// ValidateSemantic runs only semantic validation.
func (v *Validator) ValidateSemantic(doc *ast.Document) error {
	return v.semantic.Validate(doc)
}
