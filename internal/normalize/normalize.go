// Package normalize performs command-line normalization: argument-file
// expansion, output/cache directory resolution, include-path and
// define-set accumulation, stage selection, precompiled package discovery,
// and the post-normalization validation pass.
//
// The flag grammar is open-ended (`-D<name>`, `+define+...+`, arbitrary
// `+libext+...+` lists) and cannot be predeclared by name, so this is a
// hand-rolled prefix-dispatch switch rather than a declarative flag parser
// — see DESIGN.md for why a declarative flag-parsing library doesn't fit
// here.
package normalize

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"svfrontend/internal/common"
	"svfrontend/internal/config"
	"svfrontend/internal/fsutil"
)

// Normalize resolves args (typically os.Args[1:]) into a fully decided
// State. exeDir is the directory containing the running executable, used
// for precompiled package discovery; cwd is the working directory, used to
// locate an implicit project manifest.
func Normalize(args []string, exeDir, cwd, manifestOverride string) (*State, error) {
	n := &normalizer{
		includeSeen:   make(map[string]bool),
		defines:       make(map[string]string),
		envOverrides:  make(map[string]string),
		libExtensions: append([]string(nil), defaultLibExtensions...),
		threadCount:   1,
		processCount:  1,
		cacheEnabled:  true,
		cacheDir:      common.CacheDirName,
		outputDir:     ".",
		stages:        defaultStages(),
	}

	n.seedFromManifest(cwd, manifestOverride)

	tokens, err := n.expandArgs(args, 0)
	if err != nil {
		return nil, err
	}

	// Initial scan for -o, performed before full parsing, so later derived
	// paths (the cache directory, link-mode sep_lst discovery) can be
	// computed correctly.
	for i := 0; i < len(tokens); i++ {
		if tokens[i] == "-o" && i+1 < len(tokens) {
			n.outputDir = tokens[i+1]
		}
	}

	n.process(tokens)

	if n.linkMode {
		n.expandLinkSepLists()
	}

	n.resolveUnitScopedPaths()
	n.discoverPrecompiled(exeDir)
	n.setupCacheDir()
	n.validate()

	return n.toState(), nil
}

var defaultLibExtensions = []string{".v", ".sv"}

func (n *normalizer) seedFromManifest(cwd, override string) {
	path := config.Resolve(cwd, override)
	manifest, err := config.Load(path)
	if err != nil {
		n.errorf("project manifest %s: %v", path, err)
		return
	}
	if manifest == nil {
		return
	}

	for _, d := range manifest.IncludeDirs {
		n.addIncludePath(d)
	}
	for _, d := range manifest.Defines {
		name, value := splitDefine(d)
		n.setDefine(name, value)
	}
	if len(manifest.LibExtensions) > 0 {
		n.libExtensions = append([]string(nil), manifest.LibExtensions...)
	}
	if manifest.CacheDirectory != "" {
		n.cacheDir = manifest.CacheDirectory
		n.cacheDirSet = true
	}
	if manifest.UnitMode != "" {
		if mode, ok := parseUnitMode(manifest.UnitMode); ok {
			n.unitMode = mode
		} else {
			n.warnf("project manifest: unrecognized unit-mode %q", manifest.UnitMode)
		}
	}
}

// resolveUnitScopedPaths fills in the cache directory and log path once
// OutputDir and UnitMode are both finally decided, unless the command line
// or manifest already pinned either to an explicit path: both default
// under <output-dir>/<unit-or-all>/, matching -cache/-l's own override
// semantics (a verbatim path, not nested under the unit directory).
func (n *normalizer) resolveUnitScopedPaths() {
	unitDir := filepath.Join(n.outputDir, n.unitMode.DirName())

	if !n.cacheDirSet {
		n.cacheDir = filepath.Join(unitDir, common.CacheDirName)
	}
	if !n.logPathSet {
		n.logPath = filepath.Join(unitDir, common.LogFileName)
	}
}

// process runs the per-argument switch table over tokens.
func (n *normalizer) process(tokens []string) {
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		switch {
		case tok == "-D" || strings.HasPrefix(tok, "-D"):
			def := tok
			if tok == "-D" {
				if i+1 >= len(tokens) {
					n.warnIgnored(tok)
					continue
				}
				i++
				def = tokens[i]
			} else {
				def = strings.TrimPrefix(tok, "-D")
			}
			name, value := splitDefine(def)
			n.setDefine(name, value)

		case strings.HasPrefix(tok, "+define+"):
			for _, def := range splitPlusList(tok, "+define+") {
				name, value := splitDefine(def)
				n.setDefine(name, value)
			}

		case strings.HasPrefix(tok, "+incdir+"):
			for _, dir := range splitPlusList(tok, "+incdir+") {
				n.addIncludePath(dir)
			}

		case tok == "-I":
			if i+1 >= len(tokens) {
				n.warnIgnored(tok)
				continue
			}
			i++
			n.addIncludePath(tokens[i])

		case strings.HasPrefix(tok, "-I"):
			n.addIncludePath(strings.TrimPrefix(tok, "-I"))

		case strings.HasPrefix(tok, "+libext+"):
			n.libExtensions = splitPlusList(tok, "+libext+")

		case tok == "-y":
			if i+1 >= len(tokens) {
				n.warnIgnored(tok)
				continue
			}
			i++
			n.libraryPaths = append(n.libraryPaths, tokens[i])

		case strings.HasPrefix(tok, "-y"):
			n.libraryPaths = append(n.libraryPaths, strings.TrimPrefix(tok, "-y"))

		case tok == "-mt" || tok == "--threads":
			if i+1 >= len(tokens) {
				n.warnIgnored(tok)
				continue
			}
			i++
			n.threadCount = parseThreadCount(tokens[i])

		case tok == "-mp":
			if i+1 >= len(tokens) {
				n.warnIgnored(tok)
				continue
			}
			i++
			n.processCount = parseThreadCount(tokens[i])

		case tok == "-cache":
			if i+1 >= len(tokens) {
				n.warnIgnored(tok)
				continue
			}
			i++
			n.cacheDir = tokens[i]
			n.cacheDirSet = true
			n.cacheEnabled = true

		case tok == "-l":
			if i+1 >= len(tokens) {
				n.warnIgnored(tok)
				continue
			}
			i++
			n.logPath = tokens[i]
			n.logPathSet = true

		case tok == "-fileunit":
			n.unitMode = UnitModePerFile

		case tok == "-nocache":
			n.cacheEnabled = false

		case tok == "-nohash":
			n.noHash = true

		case tok == "-createcache":
			n.createCache = true
			n.cacheEnabled = true

		case tok == "-link":
			n.linkMode = true
			n.stages.apply("-sepcomp")

		case tok == "-init":
			// -init is a recognized stage-group flag name but carries no
			// stage-state effect here beyond being accepted rather than
			// falling into the "unknown arg" diagnostic below.

		case n.stages.apply(tok):
			// handled by Stages.apply

		case tok == "-o":
			i++ // already consumed by the initial scan; just skip its operand

		case strings.HasPrefix(tok, "-") || strings.HasPrefix(tok, "+"):
			n.warnIgnored(tok)

		case strings.HasSuffix(tok, common.SourceFileExtension):
			n.sourceFiles = append(n.sourceFiles, tok)

		case strings.HasSuffix(tok, ".v") || isKnownLibExt(n.libExtensions, tok):
			n.libraryFiles = append(n.libraryFiles, tok)

		default:
			n.sourceFiles = append(n.sourceFiles, tok)
		}
	}
}

func isKnownLibExt(exts []string, path string) bool {
	for _, e := range exts {
		if strings.HasSuffix(path, e) {
			return true
		}
	}
	return false
}

// expandLinkSepLists enumerates every *.sep_lst file under
// <odir>/<unit-dir> and processes each as an argument file.
func (n *normalizer) expandLinkSepLists() {
	dir := filepath.Join(n.outputDir, n.unitMode.DirName())
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sep_lst") {
			continue
		}
		tokens, err := n.expandArgFile(filepath.Join(dir, e.Name()), 0)
		if err != nil {
			n.errorf("%v", err)
			continue
		}
		n.process(tokens)
	}
}

// discoverPrecompiled searches <exe-dir>/pkg and <exe-dir>/../lib/surelog/pkg
// for a precompiled package directory, using the first that exists.
func (n *normalizer) discoverPrecompiled(exeDir string) {
	candidates := []string{
		filepath.Join(exeDir, common.PrecompiledDirName),
		filepath.Join(exeDir, "..", "lib", "surelog", common.PrecompiledDirName),
	}
	for _, c := range candidates {
		if fsutil.IsDirectory(c) {
			n.precompiledDirFound(c)
			return
		}
	}
}

func (n *normalizer) precompiledDirFound(dir string) {
	n.precompiledDir = dir
}

// setupCacheDir mkdirs the cache directory if caching is enabled, or
// rm-recursives it otherwise, to purge stale state from prior `-init` runs.
func (n *normalizer) setupCacheDir() {
	if n.cacheEnabled {
		if err := fsutil.Mkdirs(n.cacheDir); err != nil {
			n.errorf("could not create cache directory %s: %v", n.cacheDir, err)
		}
		return
	}

	if err := fsutil.RmRecursive(n.cacheDir); err != nil {
		n.errorf("could not remove cache directory %s: %v", n.cacheDir, err)
	}
}

// validate checks that every source/library file and include/library path
// exists on disk. Missing source or library files are errors; missing
// include or library paths are warnings.
func (n *normalizer) validate() {
	for _, f := range n.sourceFiles {
		if !fsutil.Exists(f) {
			n.errorf("source file not found: %s", f)
		}
	}
	for _, f := range n.libraryFiles {
		if !fsutil.Exists(f) {
			n.errorf("library file not found: %s", f)
		}
	}
	for _, p := range n.includePaths {
		if !fsutil.IsDirectory(p) {
			n.warnf("include path does not exist: %s", p)
		}
	}
	for _, p := range n.libraryPaths {
		if !fsutil.IsDirectory(p) {
			n.warnf("library path does not exist: %s", p)
		}
	}
}

func (n *normalizer) toState() *State {
	if runtime.GOOS == "windows" && n.processCount > 1 {
		// On Windows, -mp always coerces to thread count instead of
		// process count.
		n.threadCount = n.processCount
		n.processCount = 1
	}

	return &State{
		IncludePaths:   n.includePaths,
		Defines:        n.defines,
		LibExtensions:  n.libExtensions,
		ThreadCount:    n.threadCount,
		ProcessCount:   n.processCount,
		CacheDir:       n.cacheDir,
		CacheEnabled:   n.cacheEnabled,
		NoHash:         n.noHash,
		CreateCache:    n.createCache,
		PrecompiledDir: n.precompiledDir,
		OutputDir:      n.outputDir,
		LinkMode:       n.linkMode,
		Stages:         n.stages,
		SourceFiles:    n.sourceFiles,
		LibraryFiles:   n.libraryFiles,
		LibraryPaths:   n.libraryPaths,
		Diagnostics:    n.diagnostics,
		UnitMode:       n.unitMode,
		LogPath:        n.logPath,
	}
}

func (n *normalizer) addIncludePath(dir string) {
	canon := fsutil.PreferredPath(dir)
	if n.includeSeen[canon] {
		return
	}
	n.includeSeen[canon] = true
	n.includePaths = append(n.includePaths, dir)
}

func (n *normalizer) setDefine(name, value string) {
	if name == "" {
		return
	}
	n.defines[name] = value
	n.envOverrides[name] = value
}

func (n *normalizer) lookupEnv(name string) string {
	if v, ok := n.envOverrides[name]; ok {
		return v
	}
	return os.Getenv(name)
}

func (n *normalizer) warnIgnored(tok string) {
	n.warnf("plus/minus arg ignored: %s", tok)
}

func (n *normalizer) warnf(format string, args ...any) {
	n.diagnostics = append(n.diagnostics, Diagnostic{Kind: "warning", Message: fmt.Sprintf(format, args...)})
}

func (n *normalizer) errorf(format string, args ...any) {
	n.diagnostics = append(n.diagnostics, Diagnostic{Kind: "error", Message: fmt.Sprintf(format, args...)})
}

// splitDefine splits "NAME=value" or "NAME" into its parts.
func splitDefine(def string) (name, value string) {
	if i := strings.IndexByte(def, '='); i >= 0 {
		return def[:i], def[i+1:]
	}
	return def, ""
}

// splitPlusList splits a "+prefix+a+b+c+" token into ["a","b","c"], dropping
// empty fields produced by a trailing "+".
func splitPlusList(tok, prefix string) []string {
	rest := strings.TrimPrefix(tok, prefix)
	rest = strings.TrimSuffix(rest, "+")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "+")
}

// parseThreadCount resolves an `-mt`/`-mp` operand: "max" means hardware
// concurrency, 0 or 1 means single-threaded, and the result is capped at
// common.MaxThreadCount.
func parseThreadCount(s string) int {
	if s == "max" {
		return capThreads(runtime.NumCPU())
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 1
	}
	return capThreads(n)
}

func capThreads(n int) int {
	if n > common.MaxThreadCount {
		return common.MaxThreadCount
	}
	if n < 1 {
		return 1
	}
	return n
}
