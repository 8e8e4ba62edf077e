package exportmap

import (
	"errors"
	"path/filepath"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"exportmap/internal/syntax"
)

// Build parses content and populates the export map for ctx.Path. It returns
// nil when the file cannot be confidently treated as a module (no top-level
// import/export syntax and no dynamic import): such a file could be a plain
// script and must not contribute wrong data to the graph. A map whose only
// content is a recorded parse error is a valid terminal result.
func Build(ctx *Context, content []byte) *ExportMap {
	m := New(ctx.Path)

	tree, err := ctx.Parser.Parse(ctx.Path, content)
	if err != nil {
		var perr *syntax.ParseError
		if errors.As(err, &perr) {
			m.Errors = append(m.Errors, perr)
			return m
		}
		return nil
	}
	defer tree.Close()

	b := &builder{
		ctx:    ctx,
		m:      m,
		source: content,
		styles: resolveDocStyles(ctx.Settings.DocStyles),
	}
	return b.run(tree.Root())
}

type builder struct {
	ctx    *Context
	m      *ExportMap
	source []byte
	styles []docStyleFn

	// namespaces maps a local `import * as X` binding to its specifier, for
	// later attachment when X is re-exported or default-exported.
	namespaces        map[string]string
	hasDynamicImports bool
}

func (b *builder) run(root *sitter.Node) *ExportMap {
	b.namespaces = make(map[string]string)

	b.scanDynamicImports(root)

	unambiguous := isUnambiguousModule(root)
	if !unambiguous && !b.hasDynamicImports {
		return nil
	}
	if unambiguous {
		b.m.ParseGoal = GoalModule
	}

	b.captureModuleDoc(root)

	for i := uint(0); i < root.ChildCount(); i++ {
		stmt := root.Child(i)
		if stmt == nil {
			continue
		}
		switch stmt.Kind() {
		case "import_statement":
			b.handleImport(stmt)
		case "export_statement":
			b.handleExport(stmt, root)
		}
	}

	if b.interopEnabled() {
		if _, ok := b.m.Namespace["default"]; !ok && len(b.m.Namespace)+len(b.m.Reexports) > 0 {
			// Module loaders synthesize a default export object under
			// esModuleInterop; mirror that with an empty entry.
			b.m.Namespace["default"] = &Export{}
		}
	}

	return b.m
}

// isUnambiguousModule is the authoritative syntactic check: a top-level
// import or export declaration classifies the file as a module. A dynamic
// import qualifies a file for inclusion but not for confident classification.
func isUnambiguousModule(root *sitter.Node) bool {
	for i := uint(0); i < root.ChildCount(); i++ {
		ch := root.Child(i)
		if ch == nil {
			continue
		}
		switch ch.Kind() {
		case "import_statement", "export_statement":
			return true
		}
	}
	return false
}

// scanDynamicImports walks the whole tree for import() call sites. A
// non-literal argument still flags the file as having dynamic imports even
// though the edge cannot be captured.
func (b *builder) scanDynamicImports(node *sitter.Node) {
	if node.Kind() == "call_expression" {
		fn := node.ChildByFieldName("function")
		if fn != nil && fn.Kind() == "import" {
			b.hasDynamicImports = true
			if spec, specNode, ok := firstStringArgument(node, b.source); ok {
				b.captureImport(spec, syntax.NodeLocation(specNode, b.m.Path), []string{"*"}, true, false)
			}
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if ch := node.Child(i); ch != nil {
			b.scanDynamicImports(ch)
		}
	}
}

func firstStringArgument(call *sitter.Node, source []byte) (string, *sitter.Node, bool) {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return "", nil, false
	}
	for i := uint(0); i < args.ChildCount(); i++ {
		ch := args.Child(i)
		if ch == nil {
			continue
		}
		switch ch.Kind() {
		case "string", "template_string":
			if v, ok := syntax.StringValue(ch, source); ok {
				return v, ch, true
			}
			return "", nil, false
		case "(", ")", ",", "comment":
			continue
		default:
			// First argument is an expression; nothing to capture.
			return "", nil, false
		}
	}
	return "", nil, false
}

// captureModuleDoc attaches the first top-level comment carrying a @module
// tag as the file-level annotation.
func (b *builder) captureModuleDoc(root *sitter.Node) {
	for i := uint(0); i < root.ChildCount(); i++ {
		ch := root.Child(i)
		if ch == nil || ch.Kind() != "comment" {
			continue
		}
		for _, fn := range b.styles {
			doc := fn(syntax.Text(ch, b.source))
			if doc == nil {
				continue
			}
			if _, ok := doc.Tag("module"); ok {
				b.m.Doc = doc
				return
			}
		}
	}
}

// thunkForSpecifier resolves a specifier once and returns a lazy, cache-routed
// getter for the target's export map. Unresolvable specifiers yield a thunk
// that always returns nil: that edge does not exist.
func (b *builder) thunkForSpecifier(specifier string) Thunk {
	resolved := b.ctx.Resolver.Resolve(specifier, b.m.Path)
	if resolved == "" {
		return func() *ExportMap { return nil }
	}
	return b.thunkForPath(resolved)
}

func (b *builder) thunkForPath(resolved string) Thunk {
	child := b.ctx.child(resolved)
	return func() *ExportMap {
		m, err := child.Resolve()
		if err != nil {
			// Unreadable content prunes the edge for graph purposes; the
			// caller analyzing that file directly still sees the error.
			return nil
		}
		return m
	}
}

// captureImport records a consumed module with specifier-level provenance.
// Unresolvable sources leave no record: imports is keyed by resolved path.
func (b *builder) captureImport(specifier string, loc syntax.Location, names []string, dynamic, typeOnly bool) {
	resolved := b.ctx.Resolver.Resolve(specifier, b.m.Path)
	if resolved == "" {
		return
	}
	imp, ok := b.m.Imports[resolved]
	if !ok {
		imp = &Import{Getter: b.thunkForPath(resolved)}
		b.m.Imports[resolved] = imp
	}
	imp.Declarations = append(imp.Declarations, ImportDeclaration{
		Specifier:     specifier,
		Loc:           loc,
		ImportedNames: names,
		Dynamic:       dynamic,
		TypeOnly:      typeOnly,
	})
}

func (b *builder) handleImport(stmt *sitter.Node) {
	sourceNode := stmt.ChildByFieldName("source")
	spec, ok := syntax.StringValue(sourceNode, b.source)
	if !ok {
		return
	}

	typeOnly := importIsTypeOnly(stmt)
	var names []string

	clause := syntax.FirstChildOfKind(stmt, "import_clause")
	if clause != nil {
		for i := uint(0); i < clause.ChildCount(); i++ {
			ch := clause.Child(i)
			if ch == nil {
				continue
			}
			switch ch.Kind() {
			case "identifier":
				names = append(names, "default")
			case "namespace_import":
				names = append(names, "*")
				if id := syntax.FirstChildOfKind(ch, "identifier"); id != nil {
					b.namespaces[syntax.Text(id, b.source)] = spec
				}
			case "named_imports":
				allTypes := true
				found := false
				for j := uint(0); j < ch.ChildCount(); j++ {
					specNode := ch.Child(j)
					if specNode == nil || specNode.Kind() != "import_specifier" {
						continue
					}
					found = true
					if name := specNode.ChildByFieldName("name"); name != nil {
						names = append(names, syntax.Text(name, b.source))
					}
					if !syntax.HasChildOfKind(specNode, "type") {
						allTypes = false
					}
				}
				if found && allTypes {
					typeOnly = true
				}
			}
		}
	}

	b.captureImport(spec, syntax.NodeLocation(sourceNode, b.m.Path), names, false, typeOnly)
}

// importIsTypeOnly reports a pure type import: `import type ... from`.
func importIsTypeOnly(stmt *sitter.Node) bool {
	for i := uint(0); i < stmt.ChildCount(); i++ {
		ch := stmt.Child(i)
		if ch == nil {
			continue
		}
		if ch.Kind() == "type" {
			return true
		}
		if ch.Kind() == "import_clause" {
			break
		}
	}
	return false
}

func (b *builder) handleExport(stmt *sitter.Node, root *sitter.Node) {
	// TS interop forms first: `export =` and `export as namespace X`.
	if syntax.HasChildOfKind(stmt, "=") {
		b.handleExportAssignment(stmt, root)
		return
	}
	if syntax.HasChildOfKind(stmt, "namespace") && syntax.HasChildOfKind(stmt, "as") {
		if b.interopEnabled() {
			if id := syntax.FirstChildOfKind(stmt, "identifier"); id != nil {
				b.captureExportedDeclarations(syntax.Text(id, b.source), stmt, root)
			}
		}
		return
	}

	if syntax.HasChildOfKind(stmt, "default") {
		b.handleDefaultExport(stmt)
		return
	}

	sourceNode := stmt.ChildByFieldName("source")
	spec, hasSource := syntax.StringValue(sourceNode, b.source)

	// Star export: `export * from X` / `export * as ns from X`.
	if nsExport := syntax.FirstChildOfKind(stmt, "namespace_export"); nsExport != nil && hasSource {
		getter := b.thunkForSpecifier(spec)
		b.m.Dependencies = append(b.m.Dependencies, getter)
		if id := namespaceExportName(nsExport); id != nil {
			b.m.Namespace[syntax.Text(id, b.source)] = &Export{
				Doc:       captureDoc(b.source, b.styles, stmt),
				Namespace: getter,
			}
		}
		b.captureImport(spec, syntax.NodeLocation(sourceNode, b.m.Path), []string{"*"}, false, false)
		return
	}
	if syntax.HasChildOfKind(stmt, "*") && hasSource {
		b.m.Dependencies = append(b.m.Dependencies, b.thunkForSpecifier(spec))
		b.captureImport(spec, syntax.NodeLocation(sourceNode, b.m.Path), []string{"*"}, false, false)
		return
	}

	// Named specifiers: `export { a, b as c }` with or without a source.
	if clause := syntax.FirstChildOfKind(stmt, "export_clause"); clause != nil {
		var names []string
		for i := uint(0); i < clause.ChildCount(); i++ {
			specNode := clause.Child(i)
			if specNode == nil || specNode.Kind() != "export_specifier" {
				continue
			}
			local, exported := specifierNames(specNode, b.source)
			if local == "" {
				continue
			}
			if hasSource {
				names = append(names, local)
				b.m.Reexports[exported] = Reexport{
					Local:  local,
					Getter: b.thunkForSpecifier(spec),
				}
				continue
			}
			if _, ok := b.namespaces[local]; ok {
				b.m.Namespace[exported] = &Export{
					Doc:       captureDoc(b.source, b.styles, stmt),
					Namespace: b.thunkForSpecifier(b.namespaces[local]),
				}
			}
			// Plain local specifier: the declaration itself was captured.
		}
		if hasSource {
			b.captureImport(spec, syntax.NodeLocation(sourceNode, b.m.Path), names, false, false)
		}
		return
	}

	// Exported declaration: `export function f() {}` etc.
	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		b.captureDeclaration(decl, stmt)
	}
}

func (b *builder) handleDefaultExport(stmt *sitter.Node) {
	decl := stmt.ChildByFieldName("declaration")
	value := stmt.ChildByFieldName("value")

	exp := &Export{Doc: captureDoc(b.source, b.styles, stmt, decl)}
	// A bare identifier may name an imported namespace; attach it lazily in
	// case it does.
	if value != nil && value.Kind() == "identifier" {
		if spec, ok := b.namespaces[syntax.Text(value, b.source)]; ok {
			exp.Namespace = b.thunkForSpecifier(spec)
		}
	}
	b.m.Namespace["default"] = exp
}

// captureDeclaration records every name a declaration introduces. Variable
// declarations expand through the pattern walker so each destructured leaf is
// captured.
func (b *builder) captureDeclaration(decl *sitter.Node, stmt *sitter.Node) {
	switch decl.Kind() {
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "abstract_class_declaration",
		"interface_declaration", "type_alias_declaration",
		"enum_declaration", "internal_module", "module":
		if name := decl.ChildByFieldName("name"); name != nil {
			b.addNamespace(syntax.Text(name, b.source), captureDoc(b.source, b.styles, stmt, decl))
		}

	case "lexical_declaration", "variable_declaration":
		doc := captureDoc(b.source, b.styles, stmt, decl)
		for i := uint(0); i < decl.ChildCount(); i++ {
			declarator := decl.Child(i)
			if declarator == nil || declarator.Kind() != "variable_declarator" {
				continue
			}
			recursivePatternCapture(declarator.ChildByFieldName("name"), func(id *sitter.Node) {
				b.addNamespace(syntax.Text(id, b.source), doc)
			})
		}
	}
}

func (b *builder) addNamespace(name string, doc *Annotation) {
	if name == "" {
		return
	}
	exp := &Export{Doc: doc}
	if spec, ok := b.namespaces[name]; ok {
		exp.Namespace = b.thunkForSpecifier(spec)
	}
	b.m.Namespace[name] = exp
}

// handleExportAssignment covers `export = X`.
func (b *builder) handleExportAssignment(stmt *sitter.Node, root *sitter.Node) {
	expr := nodeAfterToken(stmt, "=")
	if expr == nil {
		return
	}
	if expr.Kind() != "identifier" {
		b.m.Namespace["default"] = &Export{Doc: captureDoc(b.source, b.styles, stmt)}
		return
	}
	b.captureExportedDeclarations(syntax.Text(expr, b.source), stmt, root)
}

// captureExportedDeclarations resolves which top-level declaration(s) a
// module-interop export references. No match behaves like a documented
// default export; a single namespace/module declaration is flattened one
// level into the parent namespace; anything else becomes the default export.
func (b *builder) captureExportedDeclarations(name string, stmt *sitter.Node, root *sitter.Node) {
	decls := findTopLevelDeclarations(root, name, b.source)

	if len(decls) == 0 {
		b.m.Namespace["default"] = &Export{Doc: captureDoc(b.source, b.styles, stmt)}
		return
	}
	if len(decls) == 1 {
		kind := decls[0].Kind()
		if kind == "internal_module" || kind == "module" {
			b.flattenNamespaceBody(decls[0])
			return
		}
	}
	b.m.Namespace["default"] = &Export{Doc: captureDoc(b.source, b.styles, decls[0], stmt)}
}

// flattenNamespaceBody hoists a namespace declaration's members into the
// parent namespace, including named exports nested inside the block.
func (b *builder) flattenNamespaceBody(nsDecl *sitter.Node) {
	body := nsDecl.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		stmt := body.Child(i)
		if stmt == nil {
			continue
		}
		if stmt.Kind() == "export_statement" {
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				b.captureDeclaration(decl, stmt)
			}
			continue
		}
		b.captureDeclaration(stmt, stmt)
	}
}

// findTopLevelDeclarations collects declarations binding name at the top
// level, looking through export statements.
func findTopLevelDeclarations(root *sitter.Node, name string, source []byte) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < root.ChildCount(); i++ {
		stmt := root.Child(i)
		if stmt == nil {
			continue
		}
		decl := stmt
		if stmt.Kind() == "export_statement" {
			decl = stmt.ChildByFieldName("declaration")
			if decl == nil {
				continue
			}
		}
		// Some grammars wrap `namespace X {}` in an expression statement.
		if decl.Kind() == "expression_statement" && decl.NamedChildCount() == 1 {
			decl = decl.NamedChild(0)
		}
		switch decl.Kind() {
		case "function_declaration", "generator_function_declaration",
			"class_declaration", "abstract_class_declaration",
			"interface_declaration", "type_alias_declaration",
			"enum_declaration", "internal_module", "module":
			if n := decl.ChildByFieldName("name"); n != nil && syntax.Text(n, source) == name {
				out = append(out, decl)
			}
		case "lexical_declaration", "variable_declaration":
			for j := uint(0); j < decl.ChildCount(); j++ {
				declarator := decl.Child(j)
				if declarator == nil || declarator.Kind() != "variable_declarator" {
					continue
				}
				matched := false
				recursivePatternCapture(declarator.ChildByFieldName("name"), func(id *sitter.Node) {
					if syntax.Text(id, source) == name {
						matched = true
					}
				})
				if matched {
					out = append(out, decl)
				}
			}
		}
	}
	return out
}

// specifierNames returns (local, exported) for an export specifier,
// accounting for `as` aliases.
func specifierNames(spec *sitter.Node, source []byte) (string, string) {
	name := spec.ChildByFieldName("name")
	if name == nil {
		return "", ""
	}
	local := syntax.Text(name, source)
	exported := local
	if alias := spec.ChildByFieldName("alias"); alias != nil {
		exported = syntax.Text(alias, source)
	}
	return local, exported
}

func namespaceExportName(nsExport *sitter.Node) *sitter.Node {
	for i := uint(0); i < nsExport.ChildCount(); i++ {
		ch := nsExport.Child(i)
		if ch == nil {
			continue
		}
		switch ch.Kind() {
		case "identifier", "module_export_name", "string":
			return ch
		}
	}
	return nil
}

func nodeAfterToken(stmt *sitter.Node, token string) *sitter.Node {
	seen := false
	for i := uint(0); i < stmt.ChildCount(); i++ {
		ch := stmt.Child(i)
		if ch == nil {
			continue
		}
		if ch.Kind() == token {
			seen = true
			continue
		}
		if seen && ch.IsNamed() {
			return ch
		}
	}
	return nil
}

// interopEnabled resolves the esModuleInterop fix-up mode for this file.
func (b *builder) interopEnabled() bool {
	switch b.ctx.Settings.InteropMode {
	case "on":
		return true
	case "off":
		return false
	}
	if b.ctx.Projects == nil {
		return false
	}
	cfg := b.ctx.Projects.Nearest(filepath.Dir(b.m.Path))
	return cfg != nil && cfg.CompilerOptions.EsModuleInterop
}
