package parser

import (
	"gopkg.in/yaml.v3"
)

// decodeYAML parses rule YAML into a node tree and unwraps the document
// wrapper. It returns nil for an empty input, which builds to an empty
// Document.
func decodeYAML(data []byte) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		// Whitespace-only or comment-only input
		return nil, nil
	}
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, nil
		}
		return root.Content[0], nil
	}
	return &root, nil
}

// substituteBraces replaces angle brackets with curly braces across the
// whole input. Hosts that reserve curly braces in their text fields let
// users write flow mappings as <key: value> instead.
func substituteBraces(data []byte) []byte {
	out := make([]byte, len(data))
	for i, c := range data {
		switch c {
		case '<':
			out[i] = '{'
		case '>':
			out[i] = '}'
		default:
			out[i] = c
		}
	}
	return out
}

// resolveAlias follows anchor references to the aliased node. Non-alias
// nodes are returned unchanged.
func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// isNullNode reports whether the node is absent or an explicit YAML null.
func isNullNode(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}

// isStringScalar reports whether the node is a string scalar. Sequence
// entries starting with one select the single-entry shorthands.
func isStringScalar(node *yaml.Node) bool {
	return node != nil && node.Kind == yaml.ScalarNode && node.Tag == "!!str"
}
