package cachecodec

import (
	"path/filepath"
	"strings"

	"svfrontend/internal/fsutil"
)

// Location describes where a cache subsystem (ppcache or parsecache) should
// read/write its artifact for one source file:
//
//	<cache-dir>/<library-name>/<hashed-parent>/<base-name>.<ext>
//
// When NoHash is set the parent path is used verbatim instead of its hash.
// For files found in the precompiled package directory, the library
// component is omitted and PrecompiledDir replaces CacheDir.
type Location struct {
	CacheDir       string
	PrecompiledDir string // empty if this file is not precompiled
	LibraryName    string
	SourcePath     string
	NoHash         bool
}

// Path computes the on-disk cache path for ext (".slpp" or ".slpa").
func (l Location) Path(ext string) string {
	base := fsutil.Basename(l.SourcePath) + ext
	parent := fsutil.Parent(l.SourcePath)

	var parentComponent string
	if l.NoHash {
		// Verbatim parent path used as a directory component: strip any
		// leading path separators/drive letters so filepath.Join does not
		// treat it as absolute and escape the cache root.
		parentComponent = sanitizeVerbatimParent(parent)
	} else {
		parentComponent = fsutil.HashPath(parent)
	}

	if l.PrecompiledDir != "" {
		return filepath.Join(l.PrecompiledDir, parentComponent, base)
	}

	return filepath.Join(l.CacheDir, l.LibraryName, parentComponent, base)
}

func sanitizeVerbatimParent(p string) string {
	p = fsutil.PreferredPath(p)
	p = strings.TrimPrefix(p, string(filepath.Separator))
	p = strings.ReplaceAll(p, string(filepath.Separator), "_")
	p = strings.ReplaceAll(p, ":", "_")
	if p == "" {
		p = "_"
	}
	return p
}
