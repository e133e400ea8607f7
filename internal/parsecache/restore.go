package parsecache

import (
	"svfrontend/internal/cachecodec"
	"svfrontend/internal/common"
	"svfrontend/internal/model"
	"svfrontend/internal/symbols"
)

// Load opens and decodes path as a parse cache record. It returns (nil,
// false) if the file is absent or not a recognized parse cache buffer.
func Load(path string) (*model.ParseCacheRecord, bool) {
	buffer, ok := cachecodec.Open(path, common.ParseCacheMagic)
	if !ok {
		return nil, false
	}

	record := &model.ParseCacheRecord{}
	if err := cachecodec.DecodeGob(buffer, record); err != nil {
		return nil, false
	}

	return record, true
}

// Apply restores record's design elements and nodes into fc, re-interning
// every cache-local handle into canonical, and inserting each restored
// design element into idx under its `<library>@<name>` key. It returns the
// restored, canonical-handle errors.
func Apply(fc *model.FileContent, record *model.ParseCacheRecord, canonical *symbols.Table, idx *model.DesignElementIndex) []model.CachedError {
	translate := symbols.Remap(record.CacheLocalSymbols, canonical)
	tr := func(h symbols.Handle) symbols.Handle { return symbols.Translate(h, translate) }

	for _, de := range record.DesignElements {
		out := de
		out.NameSymbol = tr(de.NameSymbol)
		out.FileSymbol = tr(de.FileSymbol)
		if de.Time != nil {
			t := *de.Time
			t.FileSymbol = tr(de.Time.FileSymbol)
			out.Time = &t
		}
		fc.DesignElements = append(fc.DesignElements, out)

		if idx != nil {
			idx.Insert(canonical, fc.LibrarySymbol, &fc.DesignElements[len(fc.DesignElements)-1])
		}
	}

	fc.Arena.SetNodes(append([]model.Node(nil), record.Nodes...))

	errs := make([]model.CachedError, len(record.Errors))
	for i, e := range record.Errors {
		out := e
		out.FileSymbol = tr(e.FileSymbol)
		errs[i] = out
	}

	return errs
}
