// Package model is the shared data model: symbol-handle-keyed,
// back-pointer-free structures owned by a single file content, with
// parse-tree nodes addressed by arena index rather than pointer.
package model

import "svfrontend/internal/symbols"

// NodeID is an opaque integer referencing a parse-tree node inside a single
// file content's arena. Zero is InvalidNode.
type NodeID uint32

// InvalidNode is the reserved "no node" value.
const InvalidNode NodeID = 0

// NodeKind distinguishes the opaque node payloads the preprocessor and
// parser stages produce. Full grammar-driven parsing is out of scope; a
// node is an opaque leaf of text plus a kind tag, not a typed AST.
type NodeKind int

const (
	NodeKindUnknown NodeKind = iota
	NodeKindPPText           // preprocessor-produced text/token node
	NodeKindPPMacroUse
	NodeKindParseDesignElement
	NodeKindParseToken
)

// Node is one opaque entry in a file content's node arena. Cross-node
// references (parent/child/sibling) are encoded as NodeIDs, never pointers,
// so the whole arena can be serialized by index and bulk-restored.
type Node struct {
	Kind     NodeKind
	Text     symbols.Handle // interned text payload, if any
	Parent   NodeID
	Children []NodeID
	Line     int
	Column   int
}

// Arena owns the parse-tree nodes for a single file content. Index 0 is
// always the unused InvalidNode slot, so a valid NodeID is always a direct
// index into nodes.
type Arena struct {
	nodes []Node
}

// NewArena creates an arena with its reserved InvalidNode slot at index 0.
func NewArena() *Arena {
	return &Arena{nodes: []Node{{}}}
}

// Add appends a node and returns its NodeID.
func (a *Arena) Add(n Node) NodeID {
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes) - 1)
}

// Get returns the node for id. It panics on an out-of-range id, since any
// id handed out by this arena is guaranteed in range by construction and an
// out-of-range id from elsewhere is a programming error: every node
// identifier appearing in any design element must be in range for this
// file content's node array.
func (a *Arena) Get(id NodeID) *Node {
	return &a.nodes[id]
}

// Len returns the number of nodes, including the reserved slot 0.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// InRange reports whether id is a valid index into this arena.
func (a *Arena) InRange(id NodeID) bool {
	return int(id) > 0 && int(id) < len(a.nodes)
}

// Nodes returns the full backing slice, including the reserved slot 0, for
// bulk serialization.
func (a *Arena) Nodes() []Node {
	return a.nodes
}

// SetNodes bulk-restores the arena's contents, used by cache restore to
// fill the arena in one shot rather than one Add call per node.
func (a *Arena) SetNodes(nodes []Node) {
	if len(nodes) == 0 {
		a.nodes = []Node{{}}
		return
	}
	a.nodes = nodes
}
