package syntax

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Text returns the source bytes spanned by a node as a string.
func Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= end || end > uint(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// StringValue unquotes a string-literal node. Returns "", false when the node
// is not a plain string literal (e.g. a template with substitutions).
func StringValue(node *sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "string":
		raw := Text(node, source)
		if len(raw) >= 2 {
			return raw[1 : len(raw)-1], true
		}
		return "", false
	case "template_string":
		raw := Text(node, source)
		if len(raw) >= 2 && !strings.Contains(raw, "${") {
			return raw[1 : len(raw)-1], true
		}
	}
	return "", false
}

// Location is a 1-based source position.
type Location struct {
	File   string
	Line   int
	Column int
}

func NodeLocation(node *sitter.Node, file string) Location {
	if node == nil {
		return Location{File: file}
	}
	return Location{
		File:   file,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}

// FirstChildOfKind returns the first direct child with the given kind.
func FirstChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		ch := node.Child(i)
		if ch != nil && ch.Kind() == kind {
			return ch
		}
	}
	return nil
}

// HasChildOfKind reports whether any direct child has the given kind.
func HasChildOfKind(node *sitter.Node, kind string) bool {
	return FirstChildOfKind(node, kind) != nil
}

// PrecedingComments collects the comment nodes immediately above a node,
// nearest last, stopping at the first non-comment sibling or a blank line gap
// larger than one row.
func PrecedingComments(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	prev := node.PrevSibling()
	expectedRow := int(node.StartPosition().Row)
	for prev != nil && prev.Kind() == "comment" {
		endRow := int(prev.EndPosition().Row)
		if expectedRow-endRow > 1 {
			break
		}
		out = append(out, prev)
		expectedRow = int(prev.StartPosition().Row)
		prev = prev.PrevSibling()
	}
	// Reverse into document order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
