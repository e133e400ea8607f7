package symbols

// Remap re-interns every string of a cache-local table into a canonical
// table and returns a lookup slice translating cache-local handles to
// canonical handles: translate[h-1] is the canonical handle for cache-local
// handle h. Symbol handles inside a cache file index the cache-local table;
// restoration re-interns each string into the canonical table.
func Remap(cacheLocal []string, canonical *Table) []Handle {
	translate := make([]Handle, len(cacheLocal))
	for i, s := range cacheLocal {
		translate[i] = canonical.Register(s)
	}
	return translate
}

// Translate converts a cache-local handle using a translation slice
// produced by Remap. BadHandle maps to BadHandle.
func Translate(h Handle, translate []Handle) Handle {
	if h == BadHandle {
		return BadHandle
	}

	idx := int(h) - 1
	if idx < 0 || idx >= len(translate) {
		return BadHandle
	}
	return translate[idx]
}

// BuildCacheLocal creates a fresh table and a recording function: every
// call to the returned record(string) interns into the fresh table and
// returns its cache-local handle, ready to be embedded in a serialized
// cache record. All strings referenced by any of a record's fields are
// re-interned into this freshly allocated cache-local symbol table.
func BuildCacheLocal() (*Table, func(string) Handle) {
	t := NewTable()
	return t, t.Register
}
