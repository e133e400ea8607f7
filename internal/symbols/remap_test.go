package symbols

import "testing"

func TestRemapTranslatesCacheLocalToCanonical(t *testing.T) {
	canonical := NewTable()
	// canonical already has an unrelated entry, so cache-local handle 1
	// must NOT simply equal canonical handle 1 after remap.
	canonical.Register("unrelated")

	cacheLocal := []string{"foo", "bar"}
	translate := Remap(cacheLocal, canonical)

	localFoo := Handle(1)
	localBar := Handle(2)

	gotFoo := Translate(localFoo, translate)
	gotBar := Translate(localBar, translate)

	if canonical.Symbol(gotFoo) != "foo" {
		t.Fatalf("translated handle resolves to %q, want %q", canonical.Symbol(gotFoo), "foo")
	}
	if canonical.Symbol(gotBar) != "bar" {
		t.Fatalf("translated handle resolves to %q, want %q", canonical.Symbol(gotBar), "bar")
	}
}

func TestTranslateBadHandleMapsToBadHandle(t *testing.T) {
	translate := Remap([]string{"x"}, NewTable())
	if got := Translate(BadHandle, translate); got != BadHandle {
		t.Fatalf("Translate(BadHandle) = %d, want BadHandle", got)
	}
}

func TestTranslateOutOfRangeMapsToBadHandle(t *testing.T) {
	translate := Remap([]string{"x"}, NewTable())
	if got := Translate(Handle(99), translate); got != BadHandle {
		t.Fatalf("Translate(out-of-range) = %d, want BadHandle", got)
	}
}

func TestBuildCacheLocalInternsIntoFreshTable(t *testing.T) {
	local, record := BuildCacheLocal()

	h1 := record("alpha")
	h2 := record("alpha")
	if h1 != h2 {
		t.Fatalf("record() not idempotent: %d vs %d", h1, h2)
	}
	if local.Symbol(h1) != "alpha" {
		t.Fatalf("local table does not contain recorded string")
	}
}

func TestRemapSameStringAcrossTwoCachesSharesCanonicalHandle(t *testing.T) {
	canonical := NewTable()

	translateA := Remap([]string{"shared.sv", "a-only.sv"}, canonical)
	translateB := Remap([]string{"other.sv", "shared.sv"}, canonical)

	ha := Translate(Handle(1), translateA)
	hb := Translate(Handle(2), translateB)

	if ha != hb {
		t.Fatalf("the same string interned via two different cache-local tables got different canonical handles: %d vs %d", ha, hb)
	}
}
