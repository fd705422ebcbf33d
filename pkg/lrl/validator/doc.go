// Package validator provides validation for LRL rule documents.
//
// The validator performs two types of validation:
//
// 1. Structural Validation: Checks node shapes, known names, and nesting
// depth
//
// 2. Semantic Validation: Validates condition values and operation
// arguments against the latent-math registries
//
// # Basic Usage
//
// Validate a parsed document:
//
//	doc, err := parser.Parse("rules.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	validator := validator.NewValidator()
//	if err := validator.Validate(doc); err != nil {
//	    if errList, ok := err.(*errors.ErrorList); ok {
//	        for _, e := range errList.Errors {
//	            fmt.Println(e.Error())
//	        }
//	    }
//	    log.Fatal(err)
//	}
//
// Run specific validation passes:
//
//	validator := validator.NewValidator()
//
//	// Only structural validation
//	if err := validator.ValidateStructural(doc); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Only semantic validation
//	if err := validator.ValidateSemantic(doc); err != nil {
//	    log.Fatal(err)
//	}
//
// # Validation Passes
//
// Structural Validation checks:
// - Condition fields, comparison operators, and operation names are known
// - Condition and comparison shapes (values present, groups present)
// - Comparison fields are comparable
// - Rule and comparison nesting depth
//
// Semantic Validation checks:
// - Operation argument arity and types per operation
// - Resize modes, blend modes, and filter presets exist
// - Roll directions and fractional amounts
// - Mask grids expand to a rectangular matrix
// - Step thresholds and intervals are positive integers
//
// Everything the validator rejects would otherwise surface as a runtime
// failure in the middle of a sampling run. Parsed documents that pass
// validation compile without configuration errors.
package validator
