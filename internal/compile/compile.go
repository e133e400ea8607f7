// Package compile is the orchestration layer wiring normalized
// command-line state to the preprocess/parse stages and their caches. Per
// file, concurrently: preprocess -> parse, bounded by a worker pool via
// golang.org/x/sync/errgroup's SetLimit.
package compile

import (
	"context"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"svfrontend/internal/cachecodec"
	"svfrontend/internal/cachevalidate"
	"svfrontend/internal/common"
	"svfrontend/internal/diag"
	"svfrontend/internal/model"
	"svfrontend/internal/normalize"
	"svfrontend/internal/parse"
	"svfrontend/internal/parsecache"
	"svfrontend/internal/ppcache"
	"svfrontend/internal/preprocess"
	"svfrontend/internal/symbols"
)

// Unit is the result of compiling one source file.
type Unit struct {
	Path        string
	FileContent *model.FileContent
	Diagnostics *diag.Bag
}

// Compiler owns the shared, cross-file state: the canonical symbol table,
// the design registry, and the resolved normalizer state.
type Compiler struct {
	Canonical *symbols.Table
	Design    *model.Design
	State     *normalize.State
	BuildID   string

	// DefaultLibrary is the library every file in State.SourceFiles is
	// registered under, absent an explicit per-file library directive;
	// every file here belongs to one library.
	DefaultLibrary string

	// designMu serializes Design.Add calls from concurrent workers.
	designMu sync.Mutex
}

// NewCompiler creates a compiler over an already-normalized state.
func NewCompiler(state *normalize.State, buildID, defaultLibrary string) *Compiler {
	return &Compiler{
		Canonical:      symbols.NewTable(),
		Design:         model.NewDesign(),
		State:          state,
		BuildID:        buildID,
		DefaultLibrary: defaultLibrary,
	}
}

// Run preprocesses and parses every source file in the resolved state,
// bounded to State.ThreadCount concurrent workers, and returns one Unit
// per file plus the canonical merged diagnostic bag. A fatal diagnostic in
// one file does not abort units already in flight; it does stop new units
// from starting, via ctx cancellation.
func (c *Compiler) Run(ctx context.Context) ([]*Unit, *diag.Bag) {
	canonicalDiag := diag.NewBag()
	units := make([]*Unit, len(c.State.SourceFiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.State.ThreadCount)

	librarySymbol := c.Canonical.Register(c.DefaultLibrary)

	for i, path := range c.State.SourceFiles {
		i, path := i, path
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			unit := c.compileOne(path, librarySymbol)
			units[i] = unit

			canonicalDiag.Merge(unit.Diagnostics)
			if unit.Diagnostics.Cancelled() {
				return context.Canceled
			}
			return nil
		})
	}

	_ = g.Wait()

	return units, canonicalDiag
}

// compileOne runs the preprocess and parse stages for one file, consulting
// and populating both caches along the way.
func (c *Compiler) compileOne(path string, librarySymbol symbols.Handle) *Unit {
	bag := diag.NewBag()

	fileSymbol := c.Canonical.Register(path)
	fc := model.NewFileContent(librarySymbol, c.fileID(path), fileSymbol)

	c.preprocessFile(fc, path, bag)

	c.designMu.Lock()
	c.Design.Add(fc)
	c.designMu.Unlock()

	c.parseFile(fc, path, bag)

	return &Unit{Path: path, FileContent: fc, Diagnostics: bag}
}

// fileID derives a stable dense ID for path. Re-registering the same path
// into the canonical symbol table always returns the same handle, so the
// handle itself (already a dense integer) is reused as the design
// registry's per-file key rather than minting a second counter.
func (c *Compiler) fileID(path string) uint64 {
	return uint64(c.Canonical.Register(path))
}

func (c *Compiler) preprocessFile(fc *model.FileContent, path string, bag *diag.Bag) {
	fc.Owner = model.StagePreprocess
	loc := c.location(path)
	cachePath := loc.Path(common.PPCacheExtension)

	if c.validatePPCache(cachePath) {
		if record, ok := ppcache.Load(cachePath); ok {
			errs := ppcache.Apply(fc, record, c.Canonical, ppcache.RestoreOptions{FullRestore: true})
			c.addCachedErrors(bag, errs)
			return
		}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		bag.Add(diag.Diagnostic{Kind: diag.KindInput, Message: "cannot read source file: " + err.Error(), File: path})
		return
	}

	fc.CmdIncludePaths = registerAll(c.Canonical, c.State.IncludePaths)
	fc.CmdDefines = registerAll(c.Canonical, defineStrings(c.State.Defines))

	cachedErrs := preprocess.Run(fc, string(source), c.Canonical)
	c.addCachedErrors(bag, cachedErrs)

	if !c.State.CacheEnabled {
		return
	}

	err = ppcache.Save(cachePath, ppcache.SaveInput{FileContent: fc, Errors: cachedErrs, BuildID: c.BuildID, SourcePath: path}, c.Canonical)
	if err == ppcache.ErrCapacityExceeded {
		bag.Add(diag.Diagnostic{Kind: diag.KindCapacity, Message: "CMD_CACHE_CAPACITY_EXCEEDED", File: path})
	} else if err != nil {
		bag.Add(diag.Diagnostic{Kind: diag.KindCacheSoft, Message: "ppcache save failed: " + err.Error(), File: path})
	}
}

func (c *Compiler) parseFile(fc *model.FileContent, path string, bag *diag.Bag) {
	fc.Owner = model.StageParse
	loc := c.location(path)
	cachePath := loc.Path(common.ParseCacheExtension)

	if c.validateParseCache(cachePath) {
		if record, ok := parsecache.Load(cachePath); ok {
			errs := parsecache.Apply(fc, record, c.Canonical, nil)
			c.addCachedErrors(bag, errs)
			return
		}
	}

	cachedErrs := parse.Run(fc, c.Canonical, fc.FileID*1_000_000)
	c.addCachedErrors(bag, cachedErrs)

	if !c.State.CacheEnabled {
		return
	}

	err := parsecache.Save(cachePath, parsecache.SaveInput{FileContent: fc, Errors: cachedErrs, BuildID: c.BuildID, SourcePath: path}, c.Canonical)
	if err == parsecache.ErrCapacityExceeded {
		bag.Add(diag.Diagnostic{Kind: diag.KindCapacity, Message: "CMD_CACHE_CAPACITY_EXCEEDED", File: path})
	} else if err != nil {
		bag.Add(diag.Diagnostic{Kind: diag.KindCacheSoft, Message: "parsecache save failed: " + err.Error(), File: path})
	}
}

// location derives the cache location for path. State.CacheDir is already
// fully resolved by the normalizer: nested under the compilation-unit
// directory (<OutputDir>/<unit-or-all>/cache) by default, or the verbatim
// -cache/manifest override if one was given.
func (c *Compiler) location(path string) cachecodec.Location {
	return cachecodec.Location{
		CacheDir:    c.State.CacheDir,
		LibraryName: c.DefaultLibrary,
		SourcePath:  path,
		NoHash:      c.State.NoHash,
	}
}

func (c *Compiler) validatePPCache(cachePath string) bool {
	currentIncludes := append([]string(nil), c.State.IncludePaths...)
	currentDefines := defineStrings(c.State.Defines)

	var cachedIncludes, cachedDefines, transcluded []string
	if record, ok := ppcache.Load(cachePath); ok {
		for _, h := range record.CmdIncludePaths {
			cachedIncludes = append(cachedIncludes, safeSymbolFromLocal(record.CacheLocalSymbols, h))
		}
		for _, h := range record.CmdDefines {
			cachedDefines = append(cachedDefines, safeSymbolFromLocal(record.CacheLocalSymbols, h))
		}
		for _, h := range record.IncludePaths {
			transcluded = append(transcluded, safeSymbolFromLocal(record.CacheLocalSymbols, h))
		}
	}

	visited := cachevalidate.NewVisited(c.Canonical)
	res := cachevalidate.Validate(cachevalidate.Options{
		CachingDisabled: !c.State.CacheEnabled,
		ParseOnly:       c.parseOnly(),
		NoHash:          c.State.NoHash,
	}, cachevalidate.Request{
		CachePath:                cachePath,
		Magic:                    common.PPCacheMagic,
		ExpectedSchemaVersion:    common.SchemaVersion,
		CompareIncludeAndDefines: true,
		CurrentIncludePaths:      currentIncludes,
		CurrentDefines:           currentDefines,
		CachedIncludePaths:       cachedIncludes,
		CachedDefines:            cachedDefines,
		TranscludedPaths:         transcluded,
		Recurse: func(includedPath string, v *cachevalidate.Visited) bool {
			loc := c.location(includedPath)
			return c.validatePPCacheTransitive(loc.Path(common.PPCacheExtension), v)
		},
	}, visited)

	return res.Hit
}

// validatePPCacheTransitive validates a transitively included file's own
// cache, reusing the caller's visited set to break cycles.
func (c *Compiler) validatePPCacheTransitive(cachePath string, visited *cachevalidate.Visited) bool {
	var transcluded []string
	if record, ok := ppcache.Load(cachePath); ok {
		for _, h := range record.IncludePaths {
			transcluded = append(transcluded, safeSymbolFromLocal(record.CacheLocalSymbols, h))
		}
	}

	res := cachevalidate.Validate(cachevalidate.Options{
		CachingDisabled: !c.State.CacheEnabled,
		ParseOnly:       c.parseOnly(),
		NoHash:          c.State.NoHash,
	}, cachevalidate.Request{
		CachePath:             cachePath,
		Magic:                 common.PPCacheMagic,
		ExpectedSchemaVersion: common.SchemaVersion,
		TranscludedPaths:      transcluded,
		Recurse: func(includedPath string, v *cachevalidate.Visited) bool {
			loc := c.location(includedPath)
			return c.validatePPCacheTransitive(loc.Path(common.PPCacheExtension), v)
		},
	}, visited)
	return res.Hit
}

func (c *Compiler) validateParseCache(cachePath string) bool {
	res := cachevalidate.Validate(cachevalidate.Options{
		CachingDisabled: !c.State.CacheEnabled,
		ParseOnly:       c.parseOnly(),
		NoHash:          c.State.NoHash,
	}, cachevalidate.Request{
		CachePath:             cachePath,
		Magic:                 common.ParseCacheMagic,
		ExpectedSchemaVersion: common.SchemaVersion,
	}, cachevalidate.NewVisited(c.Canonical))
	return res.Hit
}

// parseOnly reports whether the resolved stage set matches a parse-only
// run (parsing enabled, compilation not), the case cachevalidate's
// decision table trusts a cache without a full integrity check.
func (c *Compiler) parseOnly() bool {
	return c.State.Stages.Parse && !c.State.Stages.Compile
}

func registerAll(t *symbols.Table, strs []string) []symbols.Handle {
	if len(strs) == 0 {
		return nil
	}
	out := make([]symbols.Handle, len(strs))
	for i, s := range strs {
		out[i] = t.Register(s)
	}
	return out
}

// defineStrings flattens the define set into "name=value" strings (empty
// value still gets the trailing "="), in a sorted, deterministic order: map
// iteration order is randomized per run, and this order flows straight into
// the cache record's CmdDefines, so two successive invocations with
// identical defines must still produce byte-equal cache files.
func defineStrings(defines map[string]string) []string {
	out := make([]string, 0, len(defines))
	for name, value := range defines {
		out = append(out, name+"="+value)
	}
	sort.Strings(out)
	return out
}

func (c *Compiler) addCachedErrors(bag *diag.Bag, errs []model.CachedError) {
	for _, e := range errs {
		bag.Add(diag.Diagnostic{
			Kind:    diag.Kind(e.Kind),
			Message: e.Message,
			File:    c.Canonical.Symbol(e.FileSymbol),
			Line:    e.Line,
			Column:  e.Column,
		})
	}
}

// safeSymbolFromLocal looks up a cache-local handle directly against the
// record's own symbol slice, without needing a canonical table — used only
// to compare the *strings* a cache recorded its command-line state with,
// before deciding whether to trust that cache at all.
func safeSymbolFromLocal(local []string, h symbols.Handle) string {
	idx := int(h) - 1
	if idx < 0 || idx >= len(local) {
		return ""
	}
	return local[idx]
}
