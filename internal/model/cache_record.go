package model

import "svfrontend/internal/symbols"

// CacheHeader is the common header every cache record carries.
type CacheHeader struct {
	SchemaVersion       string
	SourceFilePath      string
	SourceFileMtimeUnix int64 // Unix nanoseconds; 0 means "unknown"
	BuildIdentifier     string
}

// CachedError is a diagnostic as carried through a cache record. File/
// line/col let the restored diagnostic re-render with a code-selection
// caret without re-walking the original source at restore time.
type CachedError struct {
	Kind       int
	Message    string
	FileSymbol symbols.Handle
	Line       int
	Column     int
}

// PPCacheRecord is the serialized form of a preprocess cache. All
// symbol.Handle fields here index into CacheLocalSymbols, not the
// canonical table — restoration re-interns each string.
type PPCacheRecord struct {
	Header            CacheHeader
	Macros            []MacroRecord
	IncludePaths      []symbols.Handle
	Body              string
	Errors            []CachedError
	CacheLocalSymbols []string
	CmdIncludePaths   []symbols.Handle
	CmdDefines        []symbols.Handle // "NAME=value" strings
	TimeInfos         []TimeInfo
	LineTranslations  []LineTranslation
	IncludeFileInfos  []IncludeFileInfo
	Nodes             []Node
}

// ParseCacheRecord is the serialized form of a parse cache.
type ParseCacheRecord struct {
	Header            CacheHeader
	Errors            []CachedError
	CacheLocalSymbols []string
	DesignElements    []DesignElement
	Nodes             []Node
}
