package syntax

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParseError is a structured syntax failure with a source location.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (%d:%d)", e.Message, e.Line, e.Column)
}

// Tree wraps a parsed syntax tree; callers must Close it when done walking.
type Tree struct {
	tree *sitter.Tree
}

func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

type Parser struct {
	loader *GrammarLoader
}

func NewParser(loader *GrammarLoader) *Parser {
	return &Parser{loader: loader}
}

// Parse parses content into a syntax tree. A tree containing error or missing
// nodes counts as a parse failure and is reported as a *ParseError carrying
// the first offending location; the tree is not returned in that case.
func (p *Parser) Parse(path string, content []byte) (*Tree, error) {
	lang := DetectLanguage(path)
	if lang == "" {
		return nil, errors.New("unsupported language")
	}
	grammar := p.loader.Language(lang)
	if grammar == nil {
		return nil, fmt.Errorf("grammar not loaded: %s", lang)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.New("parse failed")
	}

	root := tree.RootNode()
	if root.HasError() {
		perr := firstSyntaxError(root)
		tree.Close()
		if perr == nil {
			perr = &ParseError{Message: "syntax error", Line: 1, Column: 1}
		}
		return nil, perr
	}
	return &Tree{tree: tree}, nil
}

// firstSyntaxError locates the first ERROR or MISSING node in document order.
func firstSyntaxError(node *sitter.Node) *ParseError {
	if node.IsError() || node.IsMissing() {
		msg := "unexpected token"
		if node.IsMissing() {
			msg = fmt.Sprintf("missing %s", node.Kind())
		}
		return &ParseError{
			Message: msg,
			Line:    int(node.StartPosition().Row) + 1,
			Column:  int(node.StartPosition().Column) + 1,
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		ch := node.Child(i)
		if ch == nil {
			continue
		}
		if perr := firstSyntaxError(ch); perr != nil {
			return perr
		}
	}
	return nil
}
