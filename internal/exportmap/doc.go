package exportmap

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"exportmap/internal/syntax"
)

// Annotation is a structured documentation comment: a free-form description
// plus @-tags (deprecated, module, ...) with their trailing text.
type Annotation struct {
	Description string
	Tags        map[string]string
}

func (a *Annotation) Tag(name string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.Tags[name]
	return v, ok
}

func (a *Annotation) Deprecated() (string, bool) {
	return a.Tag("deprecated")
}

// docStyleFn parses one comment's raw text into an annotation, or nil when
// the comment does not match the style.
type docStyleFn func(text string) *Annotation

var docStyles = map[string]docStyleFn{
	"jsdoc": parseJSDoc,
	"line":  parseLineDoc,
}

// resolveDocStyles maps configured style names to extractor functions,
// silently dropping unknown names.
func resolveDocStyles(names []string) []docStyleFn {
	fns := make([]docStyleFn, 0, len(names))
	for _, name := range names {
		if fn, ok := docStyles[name]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// captureDoc extracts the annotation preceding the first candidate node that
// has one. Candidates are tried in order; within a candidate, the comment
// block directly above it is parsed with each configured style and the first
// style that matches wins.
func captureDoc(source []byte, styles []docStyleFn, candidates ...*sitter.Node) *Annotation {
	for _, node := range candidates {
		if node == nil {
			continue
		}
		comments := syntax.PrecedingComments(node)
		if len(comments) == 0 {
			continue
		}
		for _, fn := range styles {
			// Block styles look at the last comment; line styles join the run.
			if doc := fn(joinComments(comments, source)); doc != nil {
				return doc
			}
		}
	}
	return nil
}

func joinComments(comments []*sitter.Node, source []byte) string {
	parts := make([]string, 0, len(comments))
	for _, c := range comments {
		parts = append(parts, syntax.Text(c, source))
	}
	return strings.Join(parts, "\n")
}

// parseJSDoc handles /** ... */ blocks. Only the last block in the run
// counts: a stray earlier comment does not document the declaration.
func parseJSDoc(text string) *Annotation {
	idx := strings.LastIndex(text, "/**")
	if idx < 0 {
		return nil
	}
	body := text[idx:]
	if !strings.HasSuffix(strings.TrimSpace(body), "*/") {
		return nil
	}
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, "/**")
	body = strings.TrimSuffix(body, "*/")

	ann := &Annotation{Tags: make(map[string]string)}
	var desc []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if tag, rest, ok := splitTag(line); ok {
			ann.Tags[tag] = rest
			continue
		}
		if len(ann.Tags) == 0 && line != "" {
			desc = append(desc, line)
		}
	}
	ann.Description = strings.Join(desc, "\n")
	return ann
}

// parseLineDoc handles runs of // comments with @-tags.
func parseLineDoc(text string) *Annotation {
	if !strings.Contains(text, "//") {
		return nil
	}
	ann := &Annotation{Tags: make(map[string]string)}
	var desc []string
	matched := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "//") {
			continue
		}
		matched = true
		line = strings.TrimSpace(strings.TrimPrefix(line, "//"))
		if tag, rest, ok := splitTag(line); ok {
			ann.Tags[tag] = rest
			continue
		}
		if len(ann.Tags) == 0 && line != "" {
			desc = append(desc, line)
		}
	}
	if !matched {
		return nil
	}
	ann.Description = strings.Join(desc, "\n")
	return ann
}

// splitTag splits "@tag rest of line" into its parts.
func splitTag(line string) (tag, rest string, ok bool) {
	if !strings.HasPrefix(line, "@") {
		return "", "", false
	}
	body := line[1:]
	if body == "" {
		return "", "", false
	}
	if i := strings.IndexAny(body, " \t"); i >= 0 {
		return body[:i], strings.TrimSpace(body[i+1:]), true
	}
	return body, "", true
}
