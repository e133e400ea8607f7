// Package parsecache persists and restores the parsed form of a file:
// design elements and the parser-produced parse-tree nodes. Unlike
// ppcache, there is no transitive recursion into included files: a parse
// cache's included-file set was already captured and validated at the
// preprocess stage.
package parsecache

import (
	"strings"

	"svfrontend/internal/cachecodec"
	"svfrontend/internal/common"
	"svfrontend/internal/model"
	"svfrontend/internal/symbols"
)

// SaveInput bundles everything Save needs from the parser stage.
type SaveInput struct {
	FileContent *model.FileContent
	Errors      []model.CachedError
	BuildID     string

	// SourcePath is the on-disk path of the source file this cache is for,
	// used to stamp the header's mtime. It is distinct from the cache file
	// path that Save's path parameter names.
	SourcePath string
}

// Save persists fc's parsed form to path. It returns ErrCapacityExceeded
// without writing anything if the file content's node count exceeds
// common.MaxNodeCapacity.
//
// A path containing common.BadSymbolToken (a virtual/builtin file) is
// refused for save and silently treated as success.
func Save(path string, in SaveInput, canonical *symbols.Table) error {
	if strings.Contains(path, common.BadSymbolToken) {
		return nil
	}

	fc := in.FileContent
	if fc.OverCapacity(common.MaxNodeCapacity) {
		fc.CachingDisabled = true
		return ErrCapacityExceeded
	}

	localTab, record := buildRecord(fc, in.Errors, canonical)
	record.Header = cachecodec.CreateHeader(common.SchemaVersion, in.SourcePath, in.BuildID)
	record.CacheLocalSymbols = localTab.Strings()

	payload, err := cachecodec.EncodeGob(record)
	if err != nil {
		return err
	}

	return cachecodec.Save(path, common.ParseCacheMagic, payload)
}

// buildRecord re-interns every string referenced by fc's design elements
// and errors into a fresh cache-local symbol table, mirroring
// ppcache.buildRecord's re-interning rule.
func buildRecord(fc *model.FileContent, errs []model.CachedError, canonical *symbols.Table) (*symbols.Table, *model.ParseCacheRecord) {
	local, intern := symbols.BuildCacheLocal()

	internVia := func(h symbols.Handle) symbols.Handle {
		return intern(canonical.Symbol(h))
	}

	elements := make([]model.DesignElement, len(fc.DesignElements))
	for i, de := range fc.DesignElements {
		out := de
		out.NameSymbol = internVia(de.NameSymbol)
		out.FileSymbol = internVia(de.FileSymbol)
		if de.Time != nil {
			t := *de.Time
			t.FileSymbol = internVia(de.Time.FileSymbol)
			out.Time = &t
		}
		elements[i] = out
	}

	cachedErrs := make([]model.CachedError, len(errs))
	for i, e := range errs {
		out := e
		out.FileSymbol = internVia(e.FileSymbol)
		cachedErrs[i] = out
	}

	record := &model.ParseCacheRecord{
		Errors:         cachedErrs,
		DesignElements: elements,
		Nodes:          append([]model.Node(nil), fc.Arena.Nodes()...),
	}

	return local, record
}
