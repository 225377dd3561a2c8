package lsp

import (
	"encoding/json"
	"testing"
)

func TestKindTag(t *testing.T) {
	tests := []struct {
		kind int
		want string
	}{
		{1, "f:"},
		{2, "mod:"},
		{3, "mod:"},
		{4, "mod:"},
		{5, "cls:"},
		{6, "fn:"},
		{7, "var:"},
		{8, "var:"},
		{9, "fn:"},
		{12, "fn:"},
		{13, "var:"},
		{14, "var:"},
		{10, "enum:"},
		{11, "int:"},
		{26, "typ:"},
		{0, "??:"},
		{27, "??:"},
		{999, "??:"},
		{-1, "??:"},
	}

	for _, tt := range tests {
		if got := KindTag(tt.kind); got != tt.want {
			t.Errorf("KindTag(%d) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func normalizeJSON(t *testing.T, raw string) []SymbolNode {
	t.Helper()
	res, err := decodeSymbolResult(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("decodeSymbolResult: %v", err)
	}
	return res.normalize()
}

func TestNestedShapeAppendsFunctionDetail(t *testing.T) {
	raw := `[
		{"name":"MyClass","kind":5,"detail":"class docstring","children":[
			{"name":"my_method","kind":6,"detail":"(self, arg)","children":[]}
		]}
	]`
	nodes := normalizeJSON(t, raw)

	if len(nodes) != 1 {
		t.Fatalf("expected 1 top-level symbol, got %d", len(nodes))
	}
	cls := nodes[0]
	if cls.Name != "MyClass" || cls.Kind != "cls:" {
		t.Errorf("class node = %q %q, detail must not join class names", cls.Kind, cls.Name)
	}
	if len(cls.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(cls.Children))
	}
	method := cls.Children[0]
	if method.Name != "my_method (self, arg)" {
		t.Errorf("method name = %q, want %q", method.Name, "my_method (self, arg)")
	}
	if method.Kind != "fn:" {
		t.Errorf("method kind = %q, want fn:", method.Kind)
	}
}

func TestNestedShapeEmptyDetail(t *testing.T) {
	nodes := normalizeJSON(t, `[{"name":"foo","kind":6,"children":[]}]`)
	if len(nodes) != 1 || nodes[0].Name != "foo" {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
}

func TestFlatShapeNormalization(t *testing.T) {
	nodes := normalizeJSON(t, `[{"name":"f","kind":6}]`)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(nodes))
	}
	if nodes[0].Name != "f" || nodes[0].Kind != "fn:" || len(nodes[0].Children) != 0 {
		t.Errorf("unexpected node: %+v", nodes[0])
	}
}

func TestFlatShapeContainerGrouping(t *testing.T) {
	raw := `[
		{"name":"MyClass","kind":5},
		{"name":"my_method","kind":6,"containerName":"MyClass"},
		{"name":"orphan","kind":13,"containerName":"Ghost"}
	]`
	nodes := normalizeJSON(t, raw)

	if len(nodes) != 2 {
		t.Fatalf("expected 2 top-level symbols, got %d: %+v", len(nodes), nodes)
	}

	cls := nodes[0]
	if cls.Name != "MyClass" || len(cls.Children) != 1 || cls.Children[0].Name != "my_method" {
		t.Errorf("container grouping failed: %+v", cls)
	}

	ghost := nodes[1]
	if ghost.Name != "Ghost" || ghost.Kind != KindUnknown {
		t.Errorf("expected placeholder container Ghost, got %+v", ghost)
	}
	if len(ghost.Children) != 1 || ghost.Children[0].Name != "orphan" {
		t.Errorf("placeholder missing child: %+v", ghost)
	}
}

func TestDecodeZeroSymbolResults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"absent", ""},
		{"null", "null"},
		{"empty array", "[]"},
		{"not a sequence", `{"weird":"object"}`},
		{"scalar", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := decodeSymbolResult(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("decodeSymbolResult: %v", err)
			}
			if got := res.normalize(); len(got) != 0 {
				t.Errorf("expected zero symbols, got %+v", got)
			}
		})
	}
}

func TestShapeDetectionByChildrenKey(t *testing.T) {
	// Same item with and without a children key must resolve to different
	// shapes: only the nested one preserves the signature detail.
	nested := normalizeJSON(t, `[{"name":"f","kind":12,"detail":"(x)","children":[]}]`)
	flat := normalizeJSON(t, `[{"name":"f","kind":12,"detail":"(x)"}]`)

	if nested[0].Name != "f (x)" {
		t.Errorf("nested shape: got %q, want %q", nested[0].Name, "f (x)")
	}
	if flat[0].Name != "f" {
		t.Errorf("flat shape: got %q, want %q", flat[0].Name, "f")
	}
}
