package diag

import "testing"

func TestAddIncrementsKindCounters(t *testing.T) {
	b := NewBag()
	b.Add(Diagnostic{Kind: KindSyntax, Message: "s"})
	b.Add(Diagnostic{Kind: KindSemantic, Message: "e"})
	b.Add(Diagnostic{Kind: KindFatal, Message: "f"})
	b.Add(Diagnostic{Kind: KindInput, Message: "i"})

	nbSyntax, nbError, nbFatal := b.Counts()
	if nbSyntax != 1 || nbError != 2 || nbFatal != 1 {
		t.Fatalf("Counts() = (%d, %d, %d), want (1, 2, 1)", nbSyntax, nbError, nbFatal)
	}
	if len(b.Items()) != 4 {
		t.Fatalf("Items() length = %d, want 4", len(b.Items()))
	}
}

func TestAddFatalSetsCancelled(t *testing.T) {
	b := NewBag()
	if b.Cancelled() {
		t.Fatalf("fresh bag is already cancelled")
	}
	b.Add(Diagnostic{Kind: KindFatal})
	if !b.Cancelled() {
		t.Fatalf("Cancelled() = false after a fatal diagnostic")
	}
}

func TestReturnCodeBitmask(t *testing.T) {
	cases := []struct {
		kinds []Kind
		want  int
	}{
		{nil, 0},
		{[]Kind{KindFatal}, 0x1},
		{[]Kind{KindSyntax}, 0x2},
		{[]Kind{KindSemantic}, 0x4},
		{[]Kind{KindFatal, KindSyntax, KindSemantic}, 0x7},
		{[]Kind{KindInput, KindCacheSoft, KindCapacity}, 0x4},
	}

	for _, c := range cases {
		b := NewBag()
		for _, k := range c.kinds {
			b.Add(Diagnostic{Kind: k})
		}
		if got := b.ReturnCode(); got != c.want {
			t.Fatalf("ReturnCode() for %v = 0x%x, want 0x%x", c.kinds, got, c.want)
		}
	}
}

func TestMergeDedupsByLocationAndKind(t *testing.T) {
	dst := NewBag()
	dst.Add(Diagnostic{Kind: KindSyntax, File: "a.sv", Line: 1, Column: 2, Message: "first"})

	src := NewBag()
	src.Add(Diagnostic{Kind: KindSyntax, File: "a.sv", Line: 1, Column: 2, Message: "duplicate"})
	src.Add(Diagnostic{Kind: KindSyntax, File: "a.sv", Line: 2, Column: 0, Message: "distinct"})

	dst.Merge(src)

	items := dst.Items()
	if len(items) != 2 {
		t.Fatalf("Merge produced %d items, want 2 (dedup of the same location+kind)", len(items))
	}

	nbSyntax, _, _ := dst.Counts()
	if nbSyntax != 2 {
		t.Fatalf("nbSyntax after merge = %d, want 2", nbSyntax)
	}
}

func TestMergeNilSourceIsNoOp(t *testing.T) {
	dst := NewBag()
	dst.Add(Diagnostic{Kind: KindSyntax})
	dst.Merge(nil)

	if len(dst.Items()) != 1 {
		t.Fatalf("Merge(nil) changed item count")
	}
}

func TestKindStringNames(t *testing.T) {
	cases := map[Kind]string{
		KindInput:     "input",
		KindCacheSoft: "cache",
		KindCapacity:  "capacity",
		KindSyntax:    "syntax",
		KindSemantic:  "semantic",
		KindFatal:     "fatal",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
