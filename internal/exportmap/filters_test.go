// # internal/exportmap/filters_test.go
package exportmap

import "testing"

func TestIsMaybeModule(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    bool
	}{
		{"top-level import", "import x from './x.js';\n", true},
		{"top-level export", "export const a = 1;\n", true},
		{"after semicolon", "const a = 1; export { a };\n", true},
		{"indented export", "  export default 1;\n", true},
		{"dynamic import", "function f() { return import('./x.js'); }\n", true},
		{"plain script", "var x = 1;\nconsole.log(x);\n", false},
		{"word inside identifier", "const importantValue = 1;\n", false},
		{"export in string", "const s = \"please export this\";\n", false},
	}
	for _, tc := range cases {
		if got := isMaybeModule([]byte(tc.content)); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestHasRecognizedExtension(t *testing.T) {
	settings := defaultSettings()
	if !hasRecognizedExtension("/p/a.ts", settings) {
		t.Error("Expected .ts to be recognized")
	}
	if hasRecognizedExtension("/p/a.txt", settings) {
		t.Error("Expected .txt to be rejected")
	}
	if hasRecognizedExtension("/p/noext", settings) {
		t.Error("Expected an extension-less path to be rejected")
	}
}

func TestIgnoreMatcher(t *testing.T) {
	settings := defaultSettings()
	settings.IgnoreDirs = []string{"node_modules", "dist"}
	settings.IgnoreFiles = []string{"*.min.js", "*.d.ts"}

	m, err := newIgnoreMatcher(settings)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		path string
		want bool
	}{
		{"/repo/src/app.js", false},
		{"/repo/node_modules/pkg/index.js", true},
		{"/repo/src/dist/bundle.js", true},
		{"/repo/src/vendor.min.js", true},
		{"/repo/src/types.d.ts", true},
		{"/repo/src/distance.js", false},
	}
	for _, tc := range cases {
		if got := m.Match(tc.path); got != tc.want {
			t.Errorf("Match(%q): expected %v, got %v", tc.path, tc.want, got)
		}
	}
}
