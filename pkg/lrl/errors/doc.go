// Package errors provides rich error types for LRL parsing and validation.
//
// The error types include source location, context, and suggestions to help
// users quickly identify and fix rule issues.
//
// # Error Types
//
// ErrorTypeSyntax: YAML syntax errors (malformed YAML)
//
// ErrorTypeStructural: Schema violations (missing required keys, invalid node shapes)
//
// ErrorTypeSemantic: Semantic errors (unknown fields, bad argument types)
//
// ErrorTypeValidation: Operation/condition validation errors
//
// ErrorTypeIO: File I/O errors
//
// # Basic Usage
//
// Create an error with location:
//
//	err := &errors.Error{
//	    Type:     errors.ErrorTypeSemantic,
//	    Message:  "Unknown operation 'scale_basick'",
//	    Location: opLocation,
//	}
//
// Add context from source file:
//
//	err = errors.AddContextToError(err)
//	fmt.Println(err.Error())
//
// Accumulate multiple errors:
//
//	errList := errors.NewErrorList()
//	errList.AddError(errors.ErrorTypeStructural, "Rule is missing 'ops'", location)
//	errList.AddError(errors.ErrorTypeSemantic, "Unknown condition field", condLocation)
//
//	if errList.HasErrors() {
//	    return errList.ToError()
//	}
//
// # Error Format
//
// Errors are formatted with location, context, and suggestions:
//
//	[semantic] Unknown condition field 'stge'
//	  --> rules/example.yaml:4:11
//	  |
//	  -> 4 |     stge: [1, 2]
//	  |
//	  = suggestion: Did you mean 'stage'?
//
// # Context Extraction
//
// The package automatically extracts surrounding lines from the source file
// to show the error in context. This helps users quickly locate and fix issues.
//
// # Suggestions
//
// The suggestion generator uses Levenshtein distance to suggest similar names
// when users make typos in condition fields or operation names:
//
//	suggestion := errors.SuggestFieldName("percnt",
//	    []string{"type", "block", "stage", "percent", "step"})
//	// Returns: "Did you mean 'percent'?"
package errors
