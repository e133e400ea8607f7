package cachevalidate

import (
	"os"
	"path/filepath"
	"testing"

	"svfrontend/internal/cachecodec"
	"svfrontend/internal/symbols"
)

const testMagic uint32 = 0x54455354

type testRecord struct {
	Header struct {
		SchemaVersion       string
		SourceFilePath      string
		SourceFileMtimeUnix int64
		BuildIdentifier     string
	}
}

func writeCache(t *testing.T, path, schemaVersion string) {
	t.Helper()
	rec := testRecord{}
	rec.Header.SchemaVersion = schemaVersion
	buf, err := cachecodec.EncodeGob(rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := cachecodec.Save(path, testMagic, buf); err != nil {
		t.Fatal(err)
	}
}

func TestValidateMissCachingDisabled(t *testing.T) {
	res := Validate(Options{CachingDisabled: true}, Request{}, nil)
	if res.Hit {
		t.Fatalf("Validate with caching disabled = hit, want miss")
	}
}

func TestValidateHitParseOnlyShortCircuits(t *testing.T) {
	res := Validate(Options{ParseOnly: true}, Request{CachePath: filepath.Join(t.TempDir(), "absent")}, nil)
	if !res.Hit {
		t.Fatalf("Validate in parse-only mode = miss, want hit (trusted without integrity check)")
	}
}

func TestValidateHitLowMemoryShortCircuits(t *testing.T) {
	res := Validate(Options{LowMemory: true}, Request{CachePath: filepath.Join(t.TempDir(), "absent")}, nil)
	if !res.Hit {
		t.Fatalf("Validate in low-memory mode = miss, want hit")
	}
}

func TestValidateMissBufferAbsent(t *testing.T) {
	res := Validate(Options{}, Request{CachePath: filepath.Join(t.TempDir(), "absent"), Magic: testMagic, ExpectedSchemaVersion: "1.0"}, nil)
	if res.Hit {
		t.Fatalf("Validate with an absent cache file = hit, want miss")
	}
}

func TestValidateHitNoHashSkipsIntegrity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cache")
	writeCache(t, path, "1.0")

	res := Validate(Options{NoHash: true}, Request{CachePath: path, Magic: testMagic, ExpectedSchemaVersion: "9.9"}, nil)
	if !res.Hit {
		t.Fatalf("Validate in no-hash mode = miss, want hit even with schema mismatch")
	}
}

func TestValidateMissSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cache")
	writeCache(t, path, "1.0")

	res := Validate(Options{}, Request{CachePath: path, Magic: testMagic, ExpectedSchemaVersion: "2.0"}, nil)
	if res.Hit {
		t.Fatalf("Validate with schema version mismatch = hit, want miss")
	}
}

func TestValidateHitPrecompiledTrustsHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cache")
	writeCache(t, path, "1.0")

	res := Validate(Options{}, Request{
		CachePath: path, Magic: testMagic, ExpectedSchemaVersion: "1.0",
		Precompiled:              true,
		CompareIncludeAndDefines: true,
		CurrentIncludePaths:      []string{"/does/not/match"},
	}, nil)
	if !res.Hit {
		t.Fatalf("Validate for a precompiled cache = miss, want hit regardless of include-set mismatch")
	}
}

func TestValidateMissIncludeSetDiffers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cache")
	writeCache(t, path, "1.0")

	res := Validate(Options{}, Request{
		CachePath: path, Magic: testMagic, ExpectedSchemaVersion: "1.0",
		CompareIncludeAndDefines: true,
		CurrentIncludePaths:      []string{"a", "b"},
		CachedIncludePaths:       []string{"a"},
	}, nil)
	if res.Hit {
		t.Fatalf("Validate with differing include-path sets = hit, want miss")
	}
}

func TestValidateIncludeSetOrderInsensitive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cache")
	writeCache(t, path, "1.0")

	res := Validate(Options{}, Request{
		CachePath: path, Magic: testMagic, ExpectedSchemaVersion: "1.0",
		CompareIncludeAndDefines: true,
		CurrentIncludePaths:      []string{"b", "a"},
		CachedIncludePaths:       []string{"a", "b"},
	}, nil)
	if !res.Hit {
		t.Fatalf("Validate treated permuted include-path sets as a mismatch, want hit")
	}
}

func TestValidateMissDefineSetDiffers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cache")
	writeCache(t, path, "1.0")

	res := Validate(Options{}, Request{
		CachePath: path, Magic: testMagic, ExpectedSchemaVersion: "1.0",
		CompareIncludeAndDefines: true,
		CurrentDefines:           []string{"FOO=1"},
		CachedDefines:            []string{"FOO=2"},
	}, nil)
	if res.Hit {
		t.Fatalf("Validate with differing define sets = hit, want miss")
	}
}

func TestValidateHitAllChecksPass(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cache")
	writeCache(t, path, "1.0")

	res := Validate(Options{}, Request{
		CachePath: path, Magic: testMagic, ExpectedSchemaVersion: "1.0",
		CompareIncludeAndDefines: true,
		CurrentIncludePaths:      []string{"a"},
		CachedIncludePaths:       []string{"a"},
		CurrentDefines:           []string{"FOO=1"},
		CachedDefines:            []string{"FOO=1"},
	}, nil)
	if !res.Hit {
		t.Fatalf("Validate() = %+v, want a hit", res)
	}
}

func TestValidateRecurseMissPropagates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cache")
	writeCache(t, path, "1.0")

	res := Validate(Options{}, Request{
		CachePath:             path,
		Magic:                 testMagic,
		ExpectedSchemaVersion: "1.0",
		TranscludedPaths:      []string{"included.sv"},
		Recurse: func(path string, v *Visited) bool {
			return false
		},
	}, nil)
	if res.Hit {
		t.Fatalf("Validate with a failing transitive include = hit, want miss")
	}
}

func TestValidateRecurseHitPropagates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cache")
	writeCache(t, path, "1.0")

	called := false
	res := Validate(Options{}, Request{
		CachePath:             path,
		Magic:                 testMagic,
		ExpectedSchemaVersion: "1.0",
		TranscludedPaths:      []string{"included.sv"},
		Recurse: func(path string, v *Visited) bool {
			called = true
			return true
		},
	}, nil)
	if !res.Hit {
		t.Fatalf("Validate with a successful transitive include = miss, want hit")
	}
	if !called {
		t.Fatalf("Recurse was never invoked")
	}
}

func TestValidateCycleBreaksViaVisitedSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cache")
	writeCache(t, path, "1.0")

	symtab := symbols.NewTable()
	visited := NewVisited(symtab)

	recurseCalls := 0
	req := Request{
		CachePath:             path,
		Magic:                 testMagic,
		ExpectedSchemaVersion: "1.0",
		// This cache transitively includes itself.
		TranscludedPaths: []string{path},
		Recurse: func(p string, v *Visited) bool {
			recurseCalls++
			return true
		},
	}

	res := Validate(Options{}, req, visited)
	if !res.Hit {
		t.Fatalf("Validate with a self-including cycle = miss, want hit (cycle treated as valid)")
	}
	if recurseCalls != 0 {
		t.Fatalf("Recurse was called %d times for a path already visited (the candidate itself), want 0", recurseCalls)
	}
}

func TestValidateMissingOSFileDoesNotPanic(t *testing.T) {
	// Sanity: a nonexistent cache directory should not cause os.Stat to
	// panic anywhere in the decision chain.
	_ = os.TempDir()
	res := Validate(Options{}, Request{CachePath: "/definitely/does/not/exist.cache", Magic: testMagic, ExpectedSchemaVersion: "1.0"}, nil)
	if res.Hit {
		t.Fatalf("Validate against a nonexistent path = hit, want miss")
	}
}
