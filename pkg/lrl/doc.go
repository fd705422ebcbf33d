// Package lrl provides parsing and validation for the Latent Rule Language (LRL).
//
// LRL is a declarative YAML-based rule language for latent tensor patching.
// It lets model tinkerers describe when and how tensors flowing through a
// diffusion model's blocks should be transformed during sampling, without
// writing code.
//
// # Architecture
//
// The package is organized into subpackages:
//
// - ast: Abstract Syntax Tree definitions for parsed rule documents
// - parser: YAML parsing and AST construction
// - validator: Rule validation (structural, semantic)
// - errors: Rich error types with location and suggestions
//
// # Basic Usage
//
// Parse and validate a rule file:
//
//	import (
//	    "latent-hq/callisto/pkg/lrl/parser"
//	    "latent-hq/callisto/pkg/lrl/validator"
//	)
//
//	// Parse rule file
//	p := parser.NewParser()
//	doc, err := p.Parse("rules/example.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Validate rules
//	v := validator.NewValidator()
//	if err := v.Validate(doc); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Use the document
//	fmt.Println("Rules:", len(doc.Rules))
//	fmt.Println("Sites:", doc.Sites())
//
// # Document Structure
//
// An LRL document is a sequence of rules. Each rule has a condition group,
// an operation list, and optional then/else branches:
//
//	- if:
//	    - [type, output]
//	    - [block, 3, 4]
//	    - [to_percent, 0.35]
//	  ops:
//	    - [scale, bicubic, same, 0.5, 0.5, 0]
//	  then:
//	    - if: [stage, 1]
//	      ops: [[multiply, 1.05]]
//
//	- if: {type: output, block: [3, 4]}
//	  ops:
//	    - [unscale, bicubic, same, 0]
//
// Conditions within a group are combined with AND. Boolean composition
// uses the cond field:
//
//	- if:
//	    - [cond, [or, {stage: 1}, {stage: 2}]]
//	  ops: [[flip, h]]
//
// # Validation
//
// The validator performs two types of checks:
//
// 1. Structural: Document shape, known fields and operations, nesting depth
// 2. Semantic: Operation arity, argument types, mode and preset names
//
// # Error Handling
//
// Parsing and validation return rich errors with location and suggestions:
//
//	if err := validator.Validate(doc); err != nil {
//	    if errList, ok := err.(*errors.ErrorList); ok {
//	        for _, e := range errList.Errors {
//	            fmt.Println(e.Error())
//	        }
//	    }
//	}
//
// Error format:
//
//	[semantic] Unknown condition field 'blok'
//	  --> rules/example.yaml:3:7
//	  |
//	  3 |     - [blok, 3, 4]
//	    |       ^
//	  |
//	  = suggestion: Did you mean 'block'?
//
// # Rule Composition
//
// Load multiple rule files into one document:
//
//	paths := []string{
//	    "rules/base.yaml",
//	    "rules/extras.yaml",
//	}
//	doc, err := parser.NewParser().ParseMulti(paths)
//
// Rules keep the order of the given paths, so later files can build on
// the state left behind by earlier ones.
//
// # Performance
//
// The parser is built for interactive editing loops:
// - Parse well under a millisecond for typical rule files
// - Memory proportional to document size
// - Thread-safe (a Parser may be shared across goroutines)
//
// For complete documentation, see:
// - docs/lrl/SPECIFICATION.md - Complete LRL language reference
// - docs/lrl/examples/ - Example rule files
package lrl
