// Package ppcache persists and restores the preprocessed form of a file:
// macro table, included-file set, body text, line-translation map,
// include-section map, time-scale directives, and preprocessor-produced
// parse-tree nodes.
package ppcache

import (
	"strings"

	"svfrontend/internal/cachecodec"
	"svfrontend/internal/common"
	"svfrontend/internal/model"
	"svfrontend/internal/symbols"
)

// SaveInput bundles everything Save needs from the preprocessor stage. The
// fields mirror model.PPCacheRecord but are expressed in canonical-table
// terms, since that is how the preprocessor stage naturally produces them;
// Save re-interns everything into a fresh cache-local table on the way out.
type SaveInput struct {
	FileContent *model.FileContent
	Errors      []model.CachedError
	BuildID     string

	// SourcePath is the on-disk path of the source file this cache is for,
	// used to stamp the header's mtime. It is distinct from the cache file
	// path that Save's path parameter names.
	SourcePath string
}

// Save persists fc's preprocessed form to path. It returns ErrCapacityExceeded
// without writing anything if the file content's node count exceeds
// common.MaxNodeCapacity.
//
// A path containing common.BadSymbolToken (a virtual/builtin file) is
// refused for save and silently treated as success. This is a property of
// the cache path itself, shared by both the preprocess and parse caches.
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

	return cachecodec.Save(path, common.PPCacheMagic, payload)
}

// buildRecord re-interns every string referenced by fc/errors into a fresh
// cache-local symbol table and produces the serializable record. Slice
// order is preserved throughout; callers that need a deterministic byte
// image (e.g. CmdDefines) must already hand buildRecord sorted input.
func buildRecord(fc *model.FileContent, errs []model.CachedError, canonical *symbols.Table) (*symbols.Table, *model.PPCacheRecord) {
	local, intern := symbols.BuildCacheLocal()

	internVia := func(h symbols.Handle) symbols.Handle {
		return intern(canonical.Symbol(h))
	}

	internMacro := func(m model.MacroRecord) model.MacroRecord {
		out := m
		out.Name = internVia(m.Name)
		out.Arguments = internSlice(m.Arguments, internVia)
		out.Tokens = internSlice(m.Tokens, internVia)
		return out
	}

	macros := make([]model.MacroRecord, len(fc.Macros))
	for i, m := range fc.Macros {
		macros[i] = internMacro(m)
	}

	includePaths := internSlice(fc.IncludePaths, internVia)
	cmdIncludePaths := internSlice(fc.CmdIncludePaths, internVia)
	cmdDefines := internSlice(fc.CmdDefines, internVia)

	timeInfos := make([]model.TimeInfo, len(fc.TimeInfos))
	for i, t := range fc.TimeInfos {
		out := t
		out.FileSymbol = internVia(t.FileSymbol)
		timeInfos[i] = out
	}

	lineTranslations := make([]model.LineTranslation, len(fc.LineTranslations))
	for i, lt := range fc.LineTranslations {
		out := lt
		out.PretendFileSymbol = internVia(lt.PretendFileSymbol)
		lineTranslations[i] = out
	}

	includeFileInfos := make([]model.IncludeFileInfo, len(fc.IncludeFileInfos))
	for i, ifi := range fc.IncludeFileInfos {
		out := ifi
		out.SectionFileSymbol = internVia(ifi.SectionFileSymbol)
		includeFileInfos[i] = out
	}

	cachedErrs := make([]model.CachedError, len(errs))
	for i, e := range errs {
		out := e
		out.FileSymbol = internVia(e.FileSymbol)
		cachedErrs[i] = out
	}

	record := &model.PPCacheRecord{
		Macros:           macros,
		IncludePaths:     includePaths,
		Body:             fc.Body,
		Errors:           cachedErrs,
		CmdIncludePaths:  cmdIncludePaths,
		CmdDefines:       cmdDefines,
		TimeInfos:        timeInfos,
		LineTranslations: lineTranslations,
		IncludeFileInfos: includeFileInfos,
		Nodes:            append([]model.Node(nil), fc.Arena.Nodes()...),
	}

	return local, record
}

func internSlice(in []symbols.Handle, internVia func(symbols.Handle) symbols.Handle) []symbols.Handle {
	if len(in) == 0 {
		return nil
	}
	out := make([]symbols.Handle, len(in))
	for i, h := range in {
		out[i] = internVia(h)
	}
	return out
}
