package normalize

// Diagnostic is a lightweight normalizer-local finding. The caller
// (cmd/svfrontend) translates these into the ambient
// internal/diag taxonomy; this package has no dependency on diag so it can
// be unit-tested in isolation.
type Diagnostic struct {
	Kind    string // "warning" or "error"
	Message string
}

// State is the fully resolved result of normalization: everything
// downstream components need to drive a compilation.
type State struct {
	IncludePaths   []string
	Defines        map[string]string
	LibExtensions  []string
	ThreadCount    int
	ProcessCount   int
	CacheDir       string
	CacheEnabled   bool
	NoHash         bool
	CreateCache    bool
	PrecompiledDir string
	OutputDir      string
	LinkMode       bool
	Stages         Stages
	SourceFiles    []string
	LibraryFiles   []string
	LibraryPaths   []string
	Diagnostics    []Diagnostic
	UnitMode       UnitMode
	LogPath        string
}

// normalizer carries the mutable working state while tokens are processed.
// Its fields become State's fields at the end of Normalize.
type normalizer struct {
	includePaths   []string
	includeSeen    map[string]bool
	defines        map[string]string
	libExtensions  []string
	threadCount    int
	processCount   int
	cacheDir       string
	cacheEnabled   bool
	noHash         bool
	createCache    bool
	precompiledDir string
	outputDir      string
	linkMode       bool
	stages         Stages
	sourceFiles    []string
	libraryFiles   []string
	libraryPaths   []string
	diagnostics    []Diagnostic
	envOverrides   map[string]string
	unitMode       UnitMode
	cacheDirSet    bool
	logPath        string
	logPathSet     bool
}
