// Package cachevalidate decides, given a candidate cache path and its
// buffer, whether the cache is a hit or a miss against a decision table of
// schema, hash, and transitive-include checks. The "visited set" used to
// break cycles during the transitive include walk is implemented
// unconditionally, as a roaring.Bitmap of interned path handles, which fits
// directly here since every candidate path is interned into the canonical
// symbol table before being tested.
package cachevalidate

import (
	"sort"

	"github.com/RoaringBitmap/roaring"

	"svfrontend/internal/cachecodec"
	"svfrontend/internal/model"
	"svfrontend/internal/symbols"
)

// Visited is the per-walk set of cache paths already inspected during the
// current validity walk. Create one per top-level Validate call; share it
// across the recursive descent into transitively included files so cycles
// terminate.
type Visited struct {
	bitmap *roaring.Bitmap
	symtab *symbols.Table
}

// NewVisited creates an empty visited set backed by symtab for interning
// candidate paths.
func NewVisited(symtab *symbols.Table) *Visited {
	return &Visited{bitmap: roaring.New(), symtab: symtab}
}

// markAndCheck interns path and reports whether it was already present in
// the visited set, adding it if not.
func (v *Visited) markAndCheck(path string) bool {
	h := v.symtab.Register(path)
	if v.bitmap.Contains(uint32(h)) {
		return true
	}
	v.bitmap.Add(uint32(h))
	return false
}

// Options carries the config-level switches that apply to every candidate
// file in a validation run, rather than to one specific cache.
type Options struct {
	CachingDisabled bool
	ParseOnly       bool
	LowMemory       bool
	NoHash          bool
}

// Request describes one cache file to validate.
type Request struct {
	CachePath             string
	Magic                 uint32
	ExpectedSchemaVersion string
	Precompiled           bool

	// CompareIncludeAndDefines gates the include-path-set and define-set
	// comparisons. Parse caches carry neither field, so this is false for
	// them; the top-level preprocess cache check sets it true, while the
	// checks of transitively included preprocess caches leave it false.
	CompareIncludeAndDefines bool
	CurrentIncludePaths      []string
	CurrentDefines           []string
	CachedIncludePaths       []string
	CachedDefines            []string

	// TranscludedPaths lists the files this cache transitively includes,
	// walked recursively below. Always empty for parse caches: there is no
	// transitive recursion into included files at that stage.
	TranscludedPaths []string

	// Recurse validates one transitively included path and reports
	// hit/miss. It is supplied by the caller (ppcache) because only it
	// knows how to locate and open that path's own cache file; this
	// package has no notion of cache file naming.
	Recurse func(path string, visited *Visited) bool
}

// Result is the outcome of a validation decision, with the short-circuited
// reason recorded for diagnostics/tests.
type Result struct {
	Hit    bool
	Reason string
}

func miss(reason string) Result { return Result{Hit: false, Reason: reason} }
func hit(reason string) Result  { return Result{Hit: true, Reason: reason} }

// Validate decides hit or miss for req against a decision table, evaluated
// top to bottom and short-circuiting at the first matching condition.
func Validate(opts Options, req Request, visited *Visited) Result {
	if opts.CachingDisabled {
		return miss("caching disabled by config")
	}

	if opts.ParseOnly || opts.LowMemory {
		return hit("parse-only or low-memory mode: trusted without integrity check")
	}

	buffer, ok := cachecodec.Open(req.CachePath, req.Magic)
	if !ok {
		return miss("buffer absent or magic mismatch")
	}

	if opts.NoHash {
		return hit("no-hash mode: integrity checks skipped")
	}

	var header model.CacheHeader
	if !decodeHeaderOnly(buffer, &header) {
		return miss("header could not be decoded")
	}

	if !cachecodec.CheckHeader(header, req.ExpectedSchemaVersion, req.CachePath) {
		return miss("header check failed (schema mismatch or stale mtime)")
	}

	if req.Precompiled {
		return hit("precompiled cache: header trusted")
	}

	if req.CompareIncludeAndDefines {
		if !setsEqual(req.CachedIncludePaths, req.CurrentIncludePaths) {
			return miss("include-path set differs from current invocation")
		}

		if !setsEqual(req.CachedDefines, req.CurrentDefines) {
			return miss("command-line define set differs from current invocation")
		}
	}

	if visited == nil {
		visited = NewVisited(symbols.NewTable())
	}
	// The top-level candidate itself counts as visited so a self-
	// referential include (a.sv -> a.sv) breaks immediately.
	visited.markAndCheck(req.CachePath)

	for _, included := range req.TranscludedPaths {
		if visited.markAndCheck(included) {
			// Already visited in this walk: treat as a hit to break the
			// cycle.
			continue
		}

		if req.Recurse == nil {
			continue
		}

		if !req.Recurse(included, visited) {
			return miss("transitively included file's cache is invalid: " + included)
		}
	}

	return hit("all checks passed")
}

// decodeHeaderOnly decodes just enough of a gob payload to recover the
// header. Since CacheHeader is always the first field of both
// PPCacheRecord and ParseCacheRecord, and gob encodes struct fields by
// name, decoding into a struct with only a Header field works for either
// kind of payload.
func decodeHeaderOnly(buffer []byte, header *model.CacheHeader) bool {
	var shell struct {
		Header model.CacheHeader
	}
	if err := cachecodec.DecodeGob(buffer, &shell); err != nil {
		return false
	}
	*header = shell.Header
	return true
}

// setsEqual compares two string multisets as ordered-then-sorted vectors:
// both sides are copied, sorted, and compared elementwise.
func setsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)

	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
