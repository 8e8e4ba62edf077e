// # internal/exportmap/doc_test.go
package exportmap

import "testing"

func TestParseJSDoc(t *testing.T) {
	doc := parseJSDoc(`/**
 * Formats a user-visible label.
 *
 * @deprecated use formatLabel() instead
 * @see formatting.md
 */`)
	if doc == nil {
		t.Fatal("Expected an annotation")
	}
	if doc.Description != "Formats a user-visible label." {
		t.Errorf("Unexpected description: %q", doc.Description)
	}
	msg, ok := doc.Deprecated()
	if !ok {
		t.Fatal("Expected a deprecation tag")
	}
	if msg != "use formatLabel() instead" {
		t.Errorf("Unexpected deprecation message: %q", msg)
	}
	if _, ok := doc.Tag("see"); !ok {
		t.Error("Expected the @see tag")
	}
}

func TestParseJSDocRejectsLineComments(t *testing.T) {
	if doc := parseJSDoc("// @deprecated nope"); doc != nil {
		t.Error("A line comment is not a JSDoc block")
	}
	if doc := parseJSDoc("/* plain block */"); doc != nil {
		t.Error("A plain block comment is not a JSDoc block")
	}
}

func TestParseJSDocBareDeprecated(t *testing.T) {
	doc := parseJSDoc("/** @deprecated */")
	if doc == nil {
		t.Fatal("Expected an annotation")
	}
	msg, ok := doc.Deprecated()
	if !ok {
		t.Fatal("Expected a deprecation tag")
	}
	if msg != "" {
		t.Errorf("Expected an empty message, got %q", msg)
	}
}

func TestParseLineDoc(t *testing.T) {
	doc := parseLineDoc("// Legacy shim.\n// @deprecated import from core instead")
	if doc == nil {
		t.Fatal("Expected an annotation")
	}
	if doc.Description != "Legacy shim." {
		t.Errorf("Unexpected description: %q", doc.Description)
	}
	if msg, ok := doc.Deprecated(); !ok || msg != "import from core instead" {
		t.Errorf("Unexpected deprecation: %q %v", msg, ok)
	}
}

func TestLineDocStyleSelectsLineComments(t *testing.T) {
	settings := defaultSettings()
	settings.DocStyles = []string{"line"}
	f := newFixture(t, settings, map[string]string{
		"mod.js": `
// @deprecated use next() instead
export function legacy() {}
`,
	})

	m := f.resolve(t, "mod.js")
	if m == nil {
		t.Fatal("Expected a map")
	}
	exp, state := m.Get("legacy")
	if state != LookupFound || exp == nil || exp.Doc == nil {
		t.Fatal("Expected a line-style annotation")
	}
	if _, ok := exp.Doc.Deprecated(); !ok {
		t.Error("Expected the deprecation tag")
	}
}

func TestDocStyleOrderFirstMatchWins(t *testing.T) {
	settings := defaultSettings()
	settings.DocStyles = []string{"jsdoc", "line"}
	f := newFixture(t, settings, map[string]string{
		"mod.js": `
/** @deprecated jsdoc wins */
export const a = 1;

// @deprecated line fallback
export const b = 2;
`,
	})

	m := f.resolve(t, "mod.js")
	if m == nil {
		t.Fatal("Expected a map")
	}
	expA, _ := m.Get("a")
	if expA == nil || expA.Doc == nil {
		t.Fatal("Expected a doc on a")
	}
	if msg, _ := expA.Doc.Deprecated(); msg != "jsdoc wins" {
		t.Errorf("Unexpected message on a: %q", msg)
	}

	expB, _ := m.Get("b")
	if expB == nil || expB.Doc == nil {
		t.Fatal("Expected a doc on b")
	}
	if msg, _ := expB.Doc.Deprecated(); msg != "line fallback" {
		t.Errorf("Unexpected message on b: %q", msg)
	}
}
