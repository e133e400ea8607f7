package ppcache

import (
	"path/filepath"

	"svfrontend/internal/cachecodec"
	"svfrontend/internal/common"
	"svfrontend/internal/model"
	"svfrontend/internal/symbols"
)

// Load opens and decodes path as a preprocess cache record. It returns
// (nil, false) if the file is absent or not a recognized PP cache buffer.
func Load(path string) (*model.PPCacheRecord, bool) {
	buffer, ok := cachecodec.Open(path, common.PPCacheMagic)
	if !ok {
		return nil, false
	}

	record := &model.PPCacheRecord{}
	if err := cachecodec.DecodeGob(buffer, record); err != nil {
		return nil, false
	}

	return record, true
}

// RestoreOptions controls how much of a decoded record is applied.
type RestoreOptions struct {
	// ErrorsOnly, when true, skips steps 3-5 of the restore path (time-
	// scale directives, line-translation info, include-file info, and the
	// body/nodes restore), leaving macros, errors, the include paths and the
	// command-line include paths and defines applied.
	ErrorsOnly bool

	// FullRestore additionally appends the preprocessed body text and
	// decodes the parse-tree nodes into fc. When false (but ErrorsOnly is
	// also false), steps 1-3 run but the body/nodes are left untouched —
	// this is the "decode but don't materialize the big payload" mode
	// used when only validity/metadata is needed.
	FullRestore bool
}

// Apply restores record's fields into fc, re-interning every cache-local
// handle into canonical via translate (produced by symbols.Remap against
// record.CacheLocalSymbols). It returns the restored, canonical-handle
// errors.
func Apply(fc *model.FileContent, record *model.PPCacheRecord, canonical *symbols.Table, opts RestoreOptions) []model.CachedError {
	translate := symbols.Remap(record.CacheLocalSymbols, canonical)
	tr := func(h symbols.Handle) symbols.Handle { return symbols.Translate(h, translate) }

	// Step 1: decode macros and re-register each into the file's macro
	// table.
	for _, m := range record.Macros {
		out := m
		out.Name = tr(m.Name)
		out.Arguments = trSlice(m.Arguments, tr)
		out.Tokens = trSlice(m.Tokens, tr)
		fc.Macros = append(fc.Macros, out)
	}

	// Step 2: decode and translate errors through the cache-local ->
	// canonical symbol map.
	errs := make([]model.CachedError, len(record.Errors))
	for i, e := range record.Errors {
		out := e
		out.FileSymbol = tr(e.FileSymbol)
		errs[i] = out
	}

	fc.IncludePaths = trSlice(record.IncludePaths, tr)
	fc.CmdIncludePaths = trSlice(record.CmdIncludePaths, tr)
	fc.CmdDefines = trSlice(record.CmdDefines, tr)

	if opts.ErrorsOnly {
		return errs
	}

	// Step 3: decode time-scale directives and re-register into the
	// compilation unit, decode line-translation info, decode include-file
	// info.
	for _, t := range record.TimeInfos {
		out := t
		out.FileSymbol = tr(t.FileSymbol)
		fc.TimeInfos = append(fc.TimeInfos, out)
	}

	for _, lt := range record.LineTranslations {
		out := lt
		out.PretendFileSymbol = tr(lt.PretendFileSymbol)
		fc.LineTranslations = append(fc.LineTranslations, out)
	}

	for _, ifi := range record.IncludeFileInfos {
		out := ifi
		out.SectionFileSymbol = tr(ifi.SectionFileSymbol)
		fc.IncludeFileInfos = append(fc.IncludeFileInfos, out)
	}

	if !opts.FullRestore {
		return errs
	}

	// Step 5: append the preprocessed body text to the file content and
	// decode the parse-tree nodes into a freshly created (or reused) file
	// content.
	fc.Body += record.Body
	fc.Arena.SetNodes(append([]model.Node(nil), record.Nodes...))

	return errs
}

func trSlice(in []symbols.Handle, tr func(symbols.Handle) symbols.Handle) []symbols.Handle {
	if len(in) == 0 {
		return nil
	}
	out := make([]symbols.Handle, len(in))
	for i, h := range in {
		out[i] = tr(h)
	}
	return out
}

// RestoreRecursive restores fc from path, then recursively restores every
// included file's cache, cycle-broken by visited. A relative included path
// is joined to the directory of the record's source file before it is
// handed on. loadIncluded is supplied by the caller (internal/compile)
// because only it knows how to map an included source path to its own
// FileContent and cache path.
func RestoreRecursive(fc *model.FileContent, path string, canonical *symbols.Table, opts RestoreOptions, visited map[string]bool, loadIncluded func(includedPath string) bool) ([]model.CachedError, bool) {
	record, ok := Load(path)
	if !ok {
		return nil, false
	}

	errs := Apply(fc, record, canonical, opts)

	if visited == nil {
		visited = make(map[string]bool)
	}
	visited[path] = true

	if loadIncluded != nil {
		translate := symbols.Remap(record.CacheLocalSymbols, canonical)
		for _, h := range record.IncludePaths {
			includedPath := canonical.Symbol(symbols.Translate(h, translate))
			if !filepath.IsAbs(includedPath) && record.Header.SourceFilePath != "" {
				includedPath = filepath.Join(filepath.Dir(record.Header.SourceFilePath), includedPath)
			}
			if visited[includedPath] {
				continue
			}
			visited[includedPath] = true
			loadIncluded(includedPath)
		}
	}

	return errs, true
}
