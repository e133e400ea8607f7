// Package config implements an optional on-disk TOML project manifest
// supplying normalizer defaults, merged underneath (never overriding)
// explicit command-line flags.
package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

// DefaultManifestName is the file looked for in the working directory when
// no `-project <file>` override is given.
const DefaultManifestName = ".slfrontend.toml"

// tomlManifestFile is the on-disk shape, mirroring mods/load.go's
// tomlModuleFile/tomlModule nesting under a top-level table.
type tomlManifestFile struct {
	Project *tomlProject `toml:"project"`
}

type tomlProject struct {
	IncludeDirs    []string `toml:"include-dirs,omitempty"`
	Defines        []string `toml:"defines,omitempty"`
	LibExtensions  []string `toml:"lib-extensions,omitempty"`
	CacheDirectory string   `toml:"cache-directory,omitempty"`
	UnitMode       string   `toml:"unit-mode,omitempty"` // "per-file" or "whole-project"
}

// ProjectManifest is the normalizer-facing form of a decoded manifest.
type ProjectManifest struct {
	IncludeDirs    []string
	Defines        []string
	LibExtensions  []string
	CacheDirectory string
	UnitMode       string
}

// Load reads and decodes the manifest at path. A missing file is not an
// error: it returns (nil, nil), signaling "no manifest, use built-in
// defaults".
func Load(path string) (*ProjectManifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	buf, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, err
	}

	tmf := &tomlManifestFile{}
	if err := toml.Unmarshal(buf, tmf); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if tmf.Project == nil {
		return &ProjectManifest{}, nil
	}

	return &ProjectManifest{
		IncludeDirs:    tmf.Project.IncludeDirs,
		Defines:        tmf.Project.Defines,
		LibExtensions:  tmf.Project.LibExtensions,
		CacheDirectory: tmf.Project.CacheDirectory,
		UnitMode:       tmf.Project.UnitMode,
	}, nil
}

// Resolve locates the manifest to load: an explicit override path if
// non-empty, otherwise DefaultManifestName inside dir.
func Resolve(dir, override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(dir, DefaultManifestName)
}
