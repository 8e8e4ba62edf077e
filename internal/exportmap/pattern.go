package exportmap

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// recursivePatternCapture invokes fn once per identifier bound by a
// (possibly nested) destructuring pattern: export const { a, b: { c } } = ...
// binds a and c. Pure and stateless.
func recursivePatternCapture(node *sitter.Node, fn func(id *sitter.Node)) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier", "shorthand_property_identifier_pattern":
		fn(node)

	case "object_pattern":
		for i := uint(0); i < node.ChildCount(); i++ {
			ch := node.Child(i)
			if ch == nil {
				continue
			}
			switch ch.Kind() {
			case "pair_pattern":
				recursivePatternCapture(ch.ChildByFieldName("value"), fn)
			case "shorthand_property_identifier_pattern", "rest_pattern", "object_assignment_pattern":
				recursivePatternCapture(ch, fn)
			}
		}

	case "array_pattern":
		for i := uint(0); i < node.ChildCount(); i++ {
			ch := node.Child(i)
			if ch == nil {
				continue
			}
			switch ch.Kind() {
			case "identifier", "object_pattern", "array_pattern", "assignment_pattern", "rest_pattern":
				recursivePatternCapture(ch, fn)
			}
		}

	case "object_assignment_pattern", "assignment_pattern":
		recursivePatternCapture(node.ChildByFieldName("left"), fn)

	case "rest_pattern":
		// ...rest — the single named child is the bound pattern.
		for i := uint(0); i < node.ChildCount(); i++ {
			ch := node.Child(i)
			if ch != nil && ch.Kind() != "..." {
				recursivePatternCapture(ch, fn)
			}
		}
	}
}
