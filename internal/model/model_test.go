package model

import (
	"testing"

	"svfrontend/internal/symbols"
)

func TestArenaReservesInvalidNodeSlot(t *testing.T) {
	a := NewArena()
	if a.Len() != 1 {
		t.Fatalf("fresh arena Len() = %d, want 1", a.Len())
	}
	if a.InRange(InvalidNode) {
		t.Fatalf("InvalidNode should never be InRange")
	}
}

func TestArenaAddAndGet(t *testing.T) {
	a := NewArena()
	id := a.Add(Node{Kind: NodeKindPPText, Line: 3})
	if !a.InRange(id) {
		t.Fatalf("Add returned an id not InRange: %d", id)
	}
	if got := a.Get(id).Line; got != 3 {
		t.Fatalf("Get(id).Line = %d, want 3", got)
	}
}

func TestArenaSetNodesBulkRestore(t *testing.T) {
	a := NewArena()
	a.Add(Node{Line: 1})
	a.Add(Node{Line: 2})

	a.SetNodes([]Node{{}, {Line: 10}, {Line: 20}, {Line: 30}})
	if a.Len() != 4 {
		t.Fatalf("Len() after SetNodes = %d, want 4", a.Len())
	}
	if a.Get(NodeID(3)).Line != 30 {
		t.Fatalf("SetNodes did not restore node 3 correctly")
	}
}

func TestArenaSetNodesEmptyResetsToReservedSlot(t *testing.T) {
	a := NewArena()
	a.Add(Node{Line: 1})

	a.SetNodes(nil)
	if a.Len() != 1 {
		t.Fatalf("SetNodes(nil) left Len() = %d, want 1", a.Len())
	}
}

func TestFileContentValidateNodeRanges(t *testing.T) {
	fc := NewFileContent(symbols.Handle(1), 1, symbols.Handle(2))
	root := fc.Arena.Add(Node{})

	fc.DesignElements = append(fc.DesignElements, DesignElement{RootNodeID: root, ParentNodeID: InvalidNode})
	if !fc.ValidateNodeRanges() {
		t.Fatalf("ValidateNodeRanges() = false for an in-range node id")
	}

	fc.DesignElements = append(fc.DesignElements, DesignElement{RootNodeID: NodeID(999), ParentNodeID: InvalidNode})
	if fc.ValidateNodeRanges() {
		t.Fatalf("ValidateNodeRanges() = true for an out-of-range node id")
	}
}

func TestFileContentOverCapacity(t *testing.T) {
	fc := NewFileContent(symbols.Handle(1), 1, symbols.Handle(2))
	fc.Arena.Add(Node{})
	fc.Arena.Add(Node{})

	if fc.OverCapacity(5) {
		t.Fatalf("OverCapacity(5) = true for 2 live nodes")
	}
	if !fc.OverCapacity(1) {
		t.Fatalf("OverCapacity(1) = false for 2 live nodes")
	}
}

func TestDesignRegistryAddAndLookup(t *testing.T) {
	d := NewDesign()
	fc := NewFileContent(symbols.Handle(7), 42, symbols.Handle(8))
	d.Add(fc)

	got, ok := d.Lookup(symbols.Handle(7), 42)
	if !ok || got != fc {
		t.Fatalf("Lookup did not return the file content just added")
	}

	if _, ok := d.Lookup(symbols.Handle(7), 43); ok {
		t.Fatalf("Lookup found a file content under the wrong file id")
	}
	if _, ok := d.Lookup(symbols.Handle(99), 42); ok {
		t.Fatalf("Lookup found a file content under the wrong library")
	}
}

func TestDesignElementIndexKeyAndLookup(t *testing.T) {
	symtab := symbols.NewTable()
	library := symtab.Register("work")
	name := symtab.Register("top")

	de := &DesignElement{NameSymbol: name, Kind: ElementKindModule}

	idx := NewDesignElementIndex()
	idx.Insert(symtab, library, de)

	got, ok := idx.Lookup("work@top")
	if !ok || got != de {
		t.Fatalf("Lookup(%q) did not find the inserted element", "work@top")
	}

	if _, ok := idx.Lookup("work@nonexistent"); ok {
		t.Fatalf("Lookup found an element under an unused key")
	}
}
