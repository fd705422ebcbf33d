// Package parser provides YAML parsing and AST construction for LRL rule
// documents.
//
// The parser reads LRL documents (YAML format), validates structure, and
// constructs Abstract Syntax Trees (AST) that can be validated and
// compiled by the patch engine.
//
// # Basic Usage
//
// Parse a rule file:
//
//	parser := parser.NewParser()
//	doc, err := parser.Parse("rules/freeu.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Rules:", len(doc.Rules))
//
// Parse from memory:
//
//	yamlData := []byte(`
//	- if:
//	    - ["type", "output"]
//	    - ["block", 3]
//	  ops: [["multiply", 1.1]]
//	- if: ["to_percent", 0.35]
//	  ops:
//	    - ["flip", "h"]
//	    - ["antialias", 4]
//	`)
//
//	doc, err := parser.ParseBytes(yamlData, "memory://rules")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Parse multiple files (composition):
//
//	paths := []string{
//	    "rules/base.yaml",
//	    "rules/extra.yaml",
//	}
//	doc, err := parser.ParseMulti(paths)
//
// # Document Forms
//
// A document is a sequence of rule mappings with optional keys `if`,
// `ops`, `then`, and `else`. Several shorthands are accepted:
//
//   - A single rule mapping may stand in for the whole sequence.
//   - An `if` list whose first element is a string is one condition entry
//     rather than a list of entries: `if: ["block", 3]`.
//   - An `if` mapping is converted to entries: `if: {block: [3, 4]}`.
//   - An `ops` list whose first element is a string is a single operation:
//     `ops: ["multiply", 0.5]`.
//   - `then`/`else` accept a single rule mapping or a sequence of them.
//
// An empty or whitespace-only document parses to an empty Document; the
// compiled program passes tensors through unchanged.
//
// # Brace Substitution
//
// Some hosts make literal curly braces awkward to type in rule text
// fields. With WithBraceSubstitution(true) the parser replaces `<` with
// `{` and `>` with `}` across the whole input before decoding, so flow
// mappings can be written as `<block: 3>`.
//
// # Error Reporting
//
// Parse errors are accumulated into an errors.ErrorList rather than
// failing on the first problem. Each error carries the source location
// and, for unknown names, a Levenshtein-based suggestion.
package parser
