package lsp

import (
	"encoding/json"
	"fmt"

	"github.com/xonecas/stree/internal/jsonrpc"
)

// SymbolNode is one normalized symbol with its nested children. It is
// produced from either response shape and consumed by the tree merger.
type SymbolNode struct {
	Name     string       `json:"name"`
	Kind     string       `json:"kind"`
	Children []SymbolNode `json:"children,omitempty"`
}

// KindUnknown tags symbols whose kind code falls outside the known range.
const KindUnknown = "??:"

// kindTags maps the protocol's numeric SymbolKind codes (1-26) to short
// display tags. The function family (Method, Constructor, Function) shares
// one tag, as does the variable family (Property, Field, Variable,
// Constant) and the module family (Module, Namespace, Package).
var kindTags = map[int]string{
	1:  "f:",     // File
	2:  "mod:",   // Module
	3:  "mod:",   // Namespace
	4:  "mod:",   // Package
	5:  "cls:",   // Class
	6:  "fn:",    // Method
	7:  "var:",   // Property
	8:  "var:",   // Field
	9:  "fn:",    // Constructor
	10: "enum:",  // Enum
	11: "int:",   // Interface
	12: "fn:",    // Function
	13: "var:",   // Variable
	14: "var:",   // Constant
	15: "str:",   // String
	16: "num:",   // Number
	17: "bool:",  // Boolean
	18: "arr:",   // Array
	19: "obj:",   // Object
	20: "key:",   // Key
	21: "null:",  // Null
	22: "emem:",  // EnumMember
	23: "str:",   // Struct
	24: "event:", // Event
	25: "oper:",  // Operator
	26: "typ:",   // TypeParameter
}

// KindTag returns the display tag for a numeric symbol kind code. Codes
// outside the table map to KindUnknown; this never fails.
func KindTag(kind int) string {
	if tag, ok := kindTags[kind]; ok {
		return tag
	}
	return KindUnknown
}

// functionLike reports whether a tag belongs to the function family, the
// only family whose detail string (the signature) joins the display name.
func functionLike(tag string) bool {
	return tag == "fn:"
}

// documentSymbol is the nested response shape: each item owns its children
// and may carry a detail string such as a signature.
type documentSymbol struct {
	Name     string           `json:"name"`
	Detail   string           `json:"detail"`
	Kind     int              `json:"kind"`
	Children []documentSymbol `json:"children"`
}

// symbolInformation is the flat response shape: independent items, at most
// carrying a container-name grouping hint.
type symbolInformation struct {
	Name          string `json:"name"`
	Kind          int    `json:"kind"`
	ContainerName string `json:"containerName"`
}

// symbolResult is the tagged union decoded from a symbol response. At most
// one of nested/flat is set; both empty means the file reported no symbols.
type symbolResult struct {
	nested []documentSymbol
	flat   []symbolInformation
}

// decodeSymbolResult resolves the response shape once, at the
// deserialization boundary: if the first top-level item carries a children
// key the result is the nested shape, otherwise the flat one. An empty,
// absent, or non-array result decodes to zero symbols without error.
func decodeSymbolResult(result json.RawMessage) (symbolResult, error) {
	var out symbolResult
	if len(result) == 0 {
		return out, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(result, &items); err != nil {
		// Not a sequence: zero symbols, not an error.
		return out, nil
	}
	if len(items) == 0 {
		return out, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(items[0], &probe); err != nil {
		return out, fmt.Errorf("%w: symbol item is not an object: %v", jsonrpc.ErrProtocol, err)
	}

	if _, ok := probe["children"]; ok {
		if err := json.Unmarshal(result, &out.nested); err != nil {
			return out, fmt.Errorf("%w: decode nested symbols: %v", jsonrpc.ErrProtocol, err)
		}
		return out, nil
	}
	if err := json.Unmarshal(result, &out.flat); err != nil {
		return out, fmt.Errorf("%w: decode flat symbols: %v", jsonrpc.ErrProtocol, err)
	}
	return out, nil
}

// normalize converts a decoded result into SymbolNodes.
func (res symbolResult) normalize() []SymbolNode {
	if res.nested != nil {
		nodes := make([]SymbolNode, 0, len(res.nested))
		for _, ds := range res.nested {
			nodes = append(nodes, fromDocumentSymbol(ds))
		}
		return nodes
	}
	return groupSymbolInformation(res.flat)
}

// fromDocumentSymbol converts one nested item and its children. This is the
// only shape that preserves signatures: function-like symbols with a
// non-empty detail get it appended to the display name.
func fromDocumentSymbol(ds documentSymbol) SymbolNode {
	tag := KindTag(ds.Kind)
	name := ds.Name
	if functionLike(tag) && ds.Detail != "" {
		name = name + " " + ds.Detail
	}
	node := SymbolNode{Name: name, Kind: tag}
	for _, child := range ds.Children {
		node.Children = append(node.Children, fromDocumentSymbol(child))
	}
	return node
}

// groupSymbolInformation converts flat items to childless nodes, resolving
// containerName hints by parenting items under a node looked up or created
// at the top level of the returned slice. Grouping is by bare name, so
// names colliding across unrelated containers merge; this is best-effort,
// not a guaranteed-correct hierarchy.
func groupSymbolInformation(items []symbolInformation) []SymbolNode {
	if len(items) == 0 {
		return nil
	}

	var roots []*SymbolNode
	byName := make(map[string]*SymbolNode)
	addRoot := func(n *SymbolNode) {
		roots = append(roots, n)
		if _, seen := byName[n.Name]; !seen {
			byName[n.Name] = n
		}
	}

	for _, si := range items {
		node := SymbolNode{Name: si.Name, Kind: KindTag(si.Kind)}
		if si.ContainerName == "" {
			n := node
			addRoot(&n)
			continue
		}
		container, ok := byName[si.ContainerName]
		if !ok {
			container = &SymbolNode{Name: si.ContainerName, Kind: KindUnknown}
			addRoot(container)
		}
		container.Children = append(container.Children, node)
	}

	out := make([]SymbolNode, len(roots))
	for i, r := range roots {
		out[i] = *r
	}
	return out
}
