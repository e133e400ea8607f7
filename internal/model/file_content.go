package model

import "svfrontend/internal/symbols"

// Stage enumerates which pipeline stage currently owns a FileContent. A
// file content may be referenced by at most one owning stage at a time.
type Stage int

const (
	StageNone Stage = iota
	StagePreprocess
	StageParse
)

// FileContent is a bundle owned by one source file. It holds no pointer to
// its enclosing design; cross-file references travel via symbol handles,
// and the back-reference to the enclosing design is a lookup through a
// Design registry keyed on FileID.
type FileContent struct {
	LibrarySymbol symbols.Handle
	FileID        uint64
	FileSymbol    symbols.Handle // interned absolute path

	Arena          *Arena
	DesignElements []DesignElement

	// Preprocessor-stage fields, populated when Owner >= StagePreprocess.
	Macros           []MacroRecord
	IncludePaths     []symbols.Handle
	Body             string
	LineTranslations []LineTranslation
	IncludeFileInfos []IncludeFileInfo
	TimeInfos        []TimeInfo

	// CmdIncludePaths/CmdDefines are the command-line include paths and
	// defines in effect when this file was (pre)processed, retained so the
	// validator can compare them against the current invocation.
	CmdIncludePaths []symbols.Handle
	CmdDefines      []symbols.Handle

	Owner Stage

	// CachingDisabled is set once the node-capacity constant C is exceeded
	// for this file.
	CachingDisabled bool
}

// NewFileContent creates an empty file content owned by no stage yet, with
// a fresh node arena.
func NewFileContent(librarySymbol symbols.Handle, fileID uint64, fileSymbol symbols.Handle) *FileContent {
	return &FileContent{
		LibrarySymbol: librarySymbol,
		FileID:        fileID,
		FileSymbol:    fileSymbol,
		Arena:         NewArena(),
	}
}

// ValidateNodeRanges reports whether every node identifier appearing in any
// design element is in range for this file content's node array.
func (fc *FileContent) ValidateNodeRanges() bool {
	for _, de := range fc.DesignElements {
		if de.ParentNodeID != InvalidNode && !fc.Arena.InRange(de.ParentNodeID) {
			return false
		}
		if de.RootNodeID != InvalidNode && !fc.Arena.InRange(de.RootNodeID) {
			return false
		}
	}
	return true
}

// OverCapacity reports whether the arena holds more than capacity live
// nodes. The reserved slot 0 does not count.
func (fc *FileContent) OverCapacity(capacity int) bool {
	return fc.Arena.Len()-1 > capacity
}

// Design is the library -> file-content registry: a lookup keyed on
// file-id rather than a direct pointer. It is shared mutable state, guarded
// by a mutex at the call sites that mutate it (compile package), and
// accessed only at stage boundaries.
type Design struct {
	ByLibrary map[symbols.Handle]map[uint64]*FileContent
}

// NewDesign creates an empty design registry.
func NewDesign() *Design {
	return &Design{ByLibrary: make(map[symbols.Handle]map[uint64]*FileContent)}
}

// Add registers a file content under its owning library.
func (d *Design) Add(fc *FileContent) {
	byFile, ok := d.ByLibrary[fc.LibrarySymbol]
	if !ok {
		byFile = make(map[uint64]*FileContent)
		d.ByLibrary[fc.LibrarySymbol] = byFile
	}
	byFile[fc.FileID] = fc
}

// Lookup finds a file content by library and file ID.
func (d *Design) Lookup(library symbols.Handle, fileID uint64) (*FileContent, bool) {
	byFile, ok := d.ByLibrary[library]
	if !ok {
		return nil, false
	}
	fc, ok := byFile[fileID]
	return fc, ok
}

// DesignElementIndex is the `<library>@<name>` lookup table parse-cache
// restore inserts design elements under.
type DesignElementIndex struct {
	byKey map[string]*DesignElement
}

// NewDesignElementIndex creates an empty index.
func NewDesignElementIndex() *DesignElementIndex {
	return &DesignElementIndex{byKey: make(map[string]*DesignElement)}
}

// Insert adds a design element under its `<library>@<name>` key.
func (idx *DesignElementIndex) Insert(symtab *symbols.Table, library symbols.Handle, de *DesignElement) {
	idx.byKey[de.Key(symtab, library)] = de
}

// Lookup finds a design element by its `<library>@<name>` key.
func (idx *DesignElementIndex) Lookup(key string) (*DesignElement, bool) {
	de, ok := idx.byKey[key]
	return de, ok
}
