// Package ast defines the Abstract Syntax Tree for LRL (Latent Rule
// Language) documents.
//
// An LRL document is an ordered sequence of rules. Each rule carries a
// condition group (the `if` key), an ordered operation list (`ops`), and
// two child rule lists evaluated on match (`then`) and mismatch (`else`),
// forming a finite binary-branch tree.
//
// The AST is produced by the parser, checked by the validator, and
// compiled by the patch engine into an executable program. Nodes retain
// source locations so every later stage can report errors against the
// original document. Once built, a tree is never mutated.
package ast
