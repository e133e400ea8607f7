// Package common holds process-wide constants shared across every cache and
// orchestration package: the cache schema version, the on-disk magic numbers
// that distinguish preprocess caches from parse caches, file extensions, and
// the parse-tree node capacity constant.
package common

// SchemaVersion is the cache schema version string, compared exactly between
// save and load. Bump this on any breaking change to field layout or
// semantics of PPCacheRecord/ParseCacheRecord.
const SchemaVersion = "1.2"

// Cache magic numbers. These are the first 4 bytes of every cache buffer and
// let the codec reject a file of the wrong kind before it even attempts to
// decode a header.
const (
	PPCacheMagic    uint32 = 0x53565050 // "SVPP"
	ParseCacheMagic uint32 = 0x53565041 // "SVPA"
)

// File extensions and directory names.
const (
	SourceFileExtension = ".sv"
	PPCacheExtension    = ".slpp"
	ParseCacheExtension = ".slpa"
	ModuleManifestName  = ".slfrontend.toml"
	LogFileName         = "surelog.log"
	CacheDirName        = "cache"
	PrecompiledDirName  = "pkg"
)

// Compilation unit mode directory names: the on-disk component that
// distinguishes a per-file compilation's cache/log output from a
// whole-project compilation's.
const (
	UnitDirName = "slpp_unit"
	AllDirName  = "slpp_all"
)

// MaxNodeCapacity is the maximum number of parse-tree nodes a single file
// content may hold before caching is disabled for that file. The real
// constant is declared as "approximately 16 million"; we use the exact
// figure here since the invariant is an upper bound, not an estimate.
const MaxNodeCapacity = 16 * 1024 * 1024

// MaxThreadCount is the hard cap on `-mt`/`--threads`.
const MaxThreadCount = 512

// BadSymbolToken is the literal virtual/builtin-file marker: a cache path
// containing this token is refused for save and silently treated as a
// successful no-op.
const BadSymbolToken = "@@BAD_SYMBOL@@"
